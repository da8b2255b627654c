package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/davidahmann/tradedesk/internal/api"
	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/spf13/cobra"
)

type remoteOptions struct {
	addr  string
	token string
}

func (o *remoteOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.addr, "addr", envOrDefault("TRADEDESK_ADDR", defaultAddr), "tradedesk gateway address")
	cmd.Flags().StringVar(&o.token, "token", envOrDefault("TRADEDESK_TOKEN", ""), "bearer token")
}

func newReportCmd(client *http.Client) *cobra.Command {
	opts := &remoteOptions{}
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "report <report_id>",
		Short: "Fetch a stored report from the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := httpDo(client, http.MethodGet, opts.addr+"/v1/reports/"+url.PathEscape(args[0]), opts.token, nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("report failed: %s", strings.TrimSpace(string(body)))
			}
			if jsonOut {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			var rep types.Report
			if err := json.Unmarshal(body, &rep); err != nil {
				return fmt.Errorf("invalid response: %w", err)
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print raw JSON response")
	return cmd
}

func newDismissCmd(client *http.Client) *cobra.Command {
	opts := &remoteOptions{}
	var until string
	var remove bool
	cmd := &cobra.Command{
		Use:   "dismiss <item_id>",
		Short: "Dismiss an item on the gateway, or lift a dismissal with --remove",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := args[0]
			if remove {
				body, status, err := httpDo(client, http.MethodDelete, opts.addr+"/v1/dismissals/"+url.PathEscape(itemID), opts.token, nil)
				if err != nil {
					return err
				}
				if status != http.StatusNoContent {
					return fmt.Errorf("undismiss failed: %s", strings.TrimSpace(string(body)))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed item_id=%s\n", itemID)
				return nil
			}

			payload, err := json.Marshal(api.DismissRequest{ItemID: itemID, Until: until})
			if err != nil {
				return err
			}
			body, status, err := httpDo(client, http.MethodPost, opts.addr+"/v1/dismissals", opts.token, payload)
			if err != nil {
				return err
			}
			if status != http.StatusCreated {
				return fmt.Errorf("dismiss failed: %s", strings.TrimSpace(string(body)))
			}
			var dismissal types.Dismissal
			if err := json.Unmarshal(body, &dismissal); err != nil {
				return fmt.Errorf("invalid response: %w", err)
			}
			line := fmt.Sprintf("dismissed item_id=%s by=%s", dismissal.ItemID, dismissal.DismissedBy)
			if dismissal.Until != "" {
				line += " until=" + dismissal.Until
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&until, "until", "", "expiry, RFC3339 (permanent when empty)")
	cmd.Flags().BoolVar(&remove, "remove", false, "lift an existing dismissal")
	return cmd
}

func httpDo(client *http.Client, method string, target string, token string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
