package report

import (
	"fmt"

	"github.com/davidahmann/tradedesk/internal/crypto"
	"github.com/davidahmann/tradedesk/internal/engine"
	"github.com/davidahmann/tradedesk/internal/summary"
	"github.com/davidahmann/tradedesk/pkg/types"
)

const Schema = "tradedesk.report.v0.1"

// BuildReport builds a report record and computes its report_id.
func BuildReport(snapshotID string, policy types.ReportPolicy, result engine.Result, createdAt string) (types.Report, error) {
	record := types.Report{
		Schema:      Schema,
		SnapshotID:  snapshotID,
		CreatedAt:   createdAt,
		Policy:      policy,
		ActionItems: result.ActionItems,
		IntelItems:  result.IntelItems,
		Summary:     summary.Summarize(result),
	}
	if record.ActionItems == nil {
		record.ActionItems = []types.DecisionItem{}
	}
	if record.IntelItems == nil {
		record.IntelItems = []types.DecisionItem{}
	}

	id, err := ComputeID(record)
	if err != nil {
		return types.Report{}, err
	}
	record.ReportID = id
	return record, nil
}

// ComputeID digests every report field except report_id itself.
func ComputeID(record types.Report) (string, error) {
	actions, err := crypto.JSONView(record.ActionItems)
	if err != nil {
		return "", fmt.Errorf("report action items: %w", err)
	}
	intel, err := crypto.JSONView(record.IntelItems)
	if err != nil {
		return "", fmt.Errorf("report intel items: %w", err)
	}
	summaryView, err := crypto.JSONView(record.Summary)
	if err != nil {
		return "", fmt.Errorf("report summary: %w", err)
	}

	signingView := map[string]any{
		"schema":      record.Schema,
		"snapshot_id": record.SnapshotID,
		"created_at":  record.CreatedAt,
		"policy": map[string]any{
			"policy_id":      record.Policy.PolicyID,
			"policy_version": record.Policy.PolicyVersion,
			"policy_hash":    record.Policy.PolicyHash,
		},
		"action_items": actions,
		"intel_items":  intel,
		"summary":      summaryView,
	}

	return crypto.CanonicalDigest(signingView)
}
