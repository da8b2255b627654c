package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/davidahmann/tradedesk/internal/api"
	"github.com/davidahmann/tradedesk/internal/ledger/ledgerdb"
	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/internal/snapshot"
	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type evaluateOptions struct {
	snapshotPath string
	policyPath   string
	now          string
	jsonOut      bool
	dbDriver     string
	dbDSN        string
}

func newEvaluateCmd(fs afero.Fs, root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a snapshot and print the report",
		Long: `Evaluate a workflow snapshot and print the ranked report.

With --db-driver the dismissals stored in that ledger are applied and the
report is recorded there.

Examples:
  tradedesk evaluate --snapshot snapshot.json --json
  tradedesk evaluate --snapshot snapshot.json --now 2026-10-16T12:00:00Z
  tradedesk evaluate --snapshot snapshot.json --db-driver sqlite --db-dsn ledger.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, fs, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.snapshotPath, "snapshot", "", "snapshot JSON file")
	cmd.Flags().StringVar(&opts.policyPath, "policy", "", "policy YAML file (built-in policy when empty)")
	cmd.Flags().StringVar(&opts.now, "now", "", "evaluation time, RFC3339 (current time when empty)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&opts.dbDriver, "db-driver", envOrDefault("TRADEDESK_DB_DRIVER", ""), "ledger driver: sqlite or postgres")
	cmd.Flags().StringVar(&opts.dbDSN, "db-dsn", envOrDefault("TRADEDESK_DB_DSN", ""), "ledger DSN")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runEvaluate(cmd *cobra.Command, fs afero.Fs, root *rootOptions, opts *evaluateOptions) error {
	logger, err := root.logger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	snap, err := snapshot.Load(fs, opts.snapshotPath)
	if err != nil {
		return err
	}
	loaded, err := loadPolicy(fs, opts.policyPath)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if opts.now != "" {
		now, err = time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("--now must be RFC3339: %w", err)
		}
	}

	store, closeStore, err := ledgerdb.Open(opts.dbDriver, opts.dbDSN)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	service, err := api.NewDecisionService(api.NewDecisionServiceInput{
		Policy: loaded,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	rep, err := service.Evaluate(snap, now)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return printReport(cmd.OutOrStdout(), rep)
}

func loadPolicy(fs afero.Fs, path string) (policy.LoadedPolicy, error) {
	if path == "" {
		return policy.DefaultLoaded(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return policy.LoadedPolicy{}, err
	}
	return policy.ParsePolicy(data)
}

func printReport(w io.Writer, rep types.Report) error {
	reasons := strings.Join(rep.Summary.Reasons, ", ")
	if reasons == "" {
		reasons = "clear"
	}
	fmt.Fprintf(w, "report   %s\n", rep.ReportID)
	fmt.Fprintf(w, "snapshot %s\n", rep.SnapshotID)
	fmt.Fprintf(w, "policy   %s@%s\n", rep.Policy.PolicyID, rep.Policy.PolicyVersion)
	fmt.Fprintf(w, "grade    %s (%s)\n", rep.Summary.Grade, reasons)

	sections := []struct {
		name  string
		items []types.DecisionItem
	}{
		{"ACTION", rep.ActionItems},
		{"INTEL", rep.IntelItems},
	}
	for _, section := range sections {
		fmt.Fprintf(w, "\n%s (%d)\n", section.name, len(section.items))
		if len(section.items) == 0 {
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tTIER\tSCORE\tID\tTITLE")
		for _, item := range section.items {
			writeItemRow(tw, item, "")
			for _, child := range item.Children {
				writeItemRow(tw, child, "  ")
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func writeItemRow(w io.Writer, item types.DecisionItem, indent string) {
	fmt.Fprintf(w, "%s%s\t%s\t%d\t%s\t%s\n", indent, item.Severity, item.DecisionTier, item.SortScore, item.ID, item.Title)
}
