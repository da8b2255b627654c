// Package main implements the tradedesk CLI: local evaluation, policy checks
// and a thin client for the gateway.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/davidahmann/tradedesk/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultAddr = "http://localhost:8080"

var version = "dev"

func main() {
	if err := newRootCmd(afero.NewOsFs(), http.DefaultClient).Execute(); err != nil {
		exitFn(1)
	}
}

var exitFn = os.Exit

type rootOptions struct {
	logLevel string
}

func newRootCmd(fs afero.Fs, client *http.Client) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tradedesk",
		Short: "Rank the decisions waiting on a trading desk",
		Long: `tradedesk evaluates a workflow snapshot against a decision policy and
prints the ranked action and intel items.

Examples:
  # Evaluate a snapshot with the built-in policy
  tradedesk evaluate --snapshot snapshot.json

  # Check a policy file
  tradedesk policy lint policies/tradedesk.yaml

  # Fetch a stored report from the gateway
  tradedesk report sha256:... --addr http://localhost:8080`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newEvaluateCmd(fs, opts))
	root.AddCommand(newPolicyCmd(fs))
	root.AddCommand(newReportCmd(client))
	root.AddCommand(newDismissCmd(client))
	root.AddCommand(newVersionCmd())
	return root
}

func (o *rootOptions) logger(cmd *cobra.Command) (*zap.Logger, error) {
	return logging.NewWithWriter(logging.Config{Level: o.logLevel, Format: "console"}, cmd.ErrOrStderr())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tradedesk version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradedesk %s\n", version)
		},
	}
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
