package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/davidahmann/tradedesk/internal/report"
	"github.com/davidahmann/tradedesk/pkg/types"
)

var ErrReportDigestMismatch = errors.New("report digest mismatch")

// MakeReportRecord serializes a built report for storage.
func MakeReportRecord(rep types.Report) (ReportRecord, error) {
	if rep.ReportID == "" {
		return ReportRecord{}, fmt.Errorf("missing report_id")
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return ReportRecord{}, err
	}
	return ReportRecord{
		ReportID:   rep.ReportID,
		SnapshotID: rep.SnapshotID,
		PolicyHash: rep.Policy.PolicyHash,
		Grade:      rep.Summary.Grade,
		BodyJSON:   body,
		CreatedAt:  rep.CreatedAt,
	}, nil
}

// DecodeReport parses a stored report and checks that its id still matches
// its content.
func DecodeReport(rec ReportRecord) (types.Report, error) {
	var rep types.Report
	if err := json.Unmarshal(rec.BodyJSON, &rep); err != nil {
		return types.Report{}, fmt.Errorf("decode report: %w", err)
	}
	id, err := report.ComputeID(rep)
	if err != nil {
		return types.Report{}, err
	}
	if id != rec.ReportID || rep.ReportID != rec.ReportID {
		return types.Report{}, ErrReportDigestMismatch
	}
	return rep, nil
}

// ActiveDismissals converts records to engine input, dropping expired ones.
func ActiveDismissals(records []DismissalRecord, now time.Time) []types.Dismissal {
	out := make([]types.Dismissal, 0, len(records))
	for _, rec := range records {
		d := types.Dismissal{ItemID: rec.ItemID, DismissedAt: rec.DismissedAt, DismissedBy: rec.DismissedBy}
		if rec.Until != nil {
			until, err := time.Parse(time.RFC3339, *rec.Until)
			if err != nil || !until.After(now) {
				continue
			}
			d.Until = *rec.Until
		}
		out = append(out, d)
	}
	return out
}
