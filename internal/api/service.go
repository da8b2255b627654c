package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/tradedesk/internal/engine"
	"github.com/davidahmann/tradedesk/internal/ledger"
	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/internal/report"
	"github.com/davidahmann/tradedesk/internal/snapshot"
	"github.com/davidahmann/tradedesk/internal/telemetry"
	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidDismissal = errors.New("invalid dismissal")

// DecisionService evaluates snapshots against one policy and keeps reports
// and dismissals in a ledger store.
type DecisionService struct {
	Engine  *engine.Engine
	Policy  policy.LoadedPolicy
	Store   ledger.Store
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
	NewID   func() string
}

type NewDecisionServiceInput struct {
	Policy  policy.LoadedPolicy
	Store   ledger.Store
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

type DismissRequest struct {
	ItemID string `json:"item_id"`
	Until  string `json:"until,omitempty"`
}

func NewDecisionService(in NewDecisionServiceInput) (*DecisionService, error) {
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := in.Store
	if store == nil {
		store = ledger.NewInMemoryStore()
	}

	opts := []engine.Option{engine.WithLogger(logger.Named("engine"))}
	if in.Metrics != nil {
		opts = append(opts, engine.WithObserver(in.Metrics))
	}
	eng, err := engine.New(in.Policy.Policy, opts...)
	if err != nil {
		return nil, err
	}

	return &DecisionService{
		Engine:  eng,
		Policy:  in.Policy,
		Store:   store,
		Metrics: in.Metrics,
		Logger:  logger,
		NewID:   uuid.NewString,
	}, nil
}

// Evaluate runs the engine over snap with the stored dismissals applied, then
// records the policy version and the report.
func (s *DecisionService) Evaluate(snap types.Snapshot, now time.Time) (types.Report, error) {
	start := time.Now()
	now = now.UTC()

	snapshotID, err := snapshot.ID(snap)
	if err != nil {
		return types.Report{}, fmt.Errorf("snapshot id: %w", err)
	}

	stored, err := s.Store.ListDismissals()
	if err != nil {
		return types.Report{}, fmt.Errorf("list dismissals: %w", err)
	}
	snap.Dismissals = mergeDismissals(snap.Dismissals, ledger.ActiveDismissals(stored, now))

	result := s.Engine.Evaluate(snap, now)
	createdAt := now.Format(time.RFC3339)
	rep, err := report.BuildReport(snapshotID, s.reportPolicy(), result, createdAt)
	if err != nil {
		return types.Report{}, fmt.Errorf("build report: %w", err)
	}
	rec, err := ledger.MakeReportRecord(rep)
	if err != nil {
		return types.Report{}, err
	}

	err = s.Store.WithTx(func(tx ledger.Tx) error {
		if err := tx.PutPolicyVersion(ledger.PolicyVersionRecord{
			PolicyHash:    s.Policy.Hash,
			PolicyID:      s.Policy.Policy.PolicyID,
			PolicyVersion: s.Policy.Policy.PolicyVersion,
			PolicyYAML:    string(s.Policy.Bytes),
			CreatedAt:     createdAt,
		}); err != nil {
			return err
		}
		return tx.PutReport(rec)
	})
	if err != nil {
		return types.Report{}, fmt.Errorf("store report: %w", err)
	}

	took := time.Since(start)
	if s.Metrics != nil {
		s.Metrics.ObserveEvaluation(rep.Summary.Grade, took)
	}
	s.Logger.Info("snapshot evaluated",
		zap.String("report_id", rep.ReportID),
		zap.String("snapshot_id", snapshotID),
		zap.String("grade", rep.Summary.Grade),
		zap.Int("action_items", len(rep.ActionItems)),
		zap.Int("intel_items", len(rep.IntelItems)),
		zap.Duration("took", took),
	)
	return rep, nil
}

func (s *DecisionService) GetReport(reportID string) (types.Report, error) {
	rec, ok := s.Store.GetReport(reportID)
	if !ok {
		return types.Report{}, ledger.ErrNotFound
	}
	return ledger.DecodeReport(rec)
}

// Dismiss hides itemID until the optional expiry. Dismissing an item again
// replaces the earlier dismissal.
func (s *DecisionService) Dismiss(subject string, req DismissRequest, now time.Time) (types.Dismissal, error) {
	now = now.UTC()
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		return types.Dismissal{}, fmt.Errorf("%w: item_id is required", ErrInvalidDismissal)
	}

	rec := ledger.DismissalRecord{
		DismissalID: s.NewID(),
		ItemID:      itemID,
		DismissedBy: subject,
		DismissedAt: now.Format(time.RFC3339),
	}
	if req.Until != "" {
		until, err := time.Parse(time.RFC3339, req.Until)
		if err != nil {
			return types.Dismissal{}, fmt.Errorf("%w: until must be RFC3339", ErrInvalidDismissal)
		}
		if !until.After(now) {
			return types.Dismissal{}, fmt.Errorf("%w: until must be in the future", ErrInvalidDismissal)
		}
		formatted := until.UTC().Format(time.RFC3339)
		rec.Until = &formatted
	}

	if err := s.Store.PutDismissal(rec); err != nil {
		return types.Dismissal{}, fmt.Errorf("store dismissal: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.Dismissals.Inc()
	}
	s.Logger.Info("item dismissed", zap.String("item_id", itemID), zap.String("subject", subject))

	out := types.Dismissal{ItemID: rec.ItemID, DismissedAt: rec.DismissedAt, DismissedBy: rec.DismissedBy}
	if rec.Until != nil {
		out.Until = *rec.Until
	}
	return out, nil
}

// ListDismissals returns the dismissals still in force at now.
func (s *DecisionService) ListDismissals(now time.Time) ([]types.Dismissal, error) {
	stored, err := s.Store.ListDismissals()
	if err != nil {
		return nil, err
	}
	return ledger.ActiveDismissals(stored, now), nil
}

func (s *DecisionService) Undismiss(itemID string) error {
	if err := s.Store.DeleteDismissal(itemID); err != nil {
		return err
	}
	s.Logger.Info("dismissal removed", zap.String("item_id", itemID))
	return nil
}

func (s *DecisionService) reportPolicy() types.ReportPolicy {
	return types.ReportPolicy{
		PolicyID:      s.Policy.Policy.PolicyID,
		PolicyVersion: s.Policy.Policy.PolicyVersion,
		PolicyHash:    s.Policy.Hash,
	}
}

func mergeDismissals(fromSnapshot, stored []types.Dismissal) []types.Dismissal {
	out := make([]types.Dismissal, 0, len(fromSnapshot)+len(stored))
	out = append(out, fromSnapshot...)
	return append(out, stored...)
}
