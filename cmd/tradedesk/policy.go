package main

import (
	"fmt"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newPolicyCmd(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect decision policies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "lint <policy_path>",
		Short: "Validate a policy file and print its hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadPolicy(fs, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok policy_id=%s policy_hash=%s\n", loaded.Policy.PolicyID, loaded.Hash)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the built-in policy as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(policy.DefaultLoaded().Bytes)
			return err
		},
	})
	return cmd
}
