package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/davidahmann/tradedesk/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := ledger.Migrate(s.DB(), ledger.DBSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func putPolicy(t *testing.T, s *Store) {
	t.Helper()
	policy := ledger.PolicyVersionRecord{
		PolicyHash:    "ph",
		PolicyID:      "pid",
		PolicyVersion: "1",
		PolicyYAML:    "policy_id: pid\npolicy_version: \"1\"\n",
		CreatedAt:     "2026-10-16T00:00:00Z",
	}
	if err := s.PutPolicyVersion(policy); err != nil {
		t.Fatalf("put policy: %v", err)
	}
}

func TestStoreCRUD(t *testing.T) {
	s := openTestStore(t)
	putPolicy(t, s)

	if got, ok := s.GetPolicyVersion("ph"); !ok || got.PolicyID != "pid" {
		t.Fatalf("get policy mismatch: ok=%v got=%+v", ok, got)
	}

	rep := ledger.ReportRecord{ReportID: "r1", SnapshotID: "s1", PolicyHash: "ph", Grade: "B", BodyJSON: []byte(`{"report_id":"r1"}`), CreatedAt: "2026-10-16T00:00:01Z"}
	if err := s.PutReport(rep); err != nil {
		t.Fatalf("put report: %v", err)
	}
	if err := s.PutReport(rep); err != nil {
		t.Fatalf("put report twice: %v", err)
	}
	if got, ok := s.GetReport("r1"); !ok || string(got.BodyJSON) != string(rep.BodyJSON) || got.Grade != "B" {
		t.Fatalf("get report mismatch: ok=%v got=%+v", ok, got)
	}
	if _, ok := s.GetReport("missing"); ok {
		t.Fatalf("expected missing report")
	}

	until := "2026-11-01T00:00:00Z"
	if err := s.PutDismissal(ledger.DismissalRecord{DismissalID: "d1", ItemID: "thesis-stale-a1", DismissedBy: "ana", DismissedAt: "2026-10-16T00:00:02Z", Until: &until}); err != nil {
		t.Fatalf("put dismissal: %v", err)
	}
	if err := s.PutDismissal(ledger.DismissalRecord{DismissalID: "d2", ItemID: "thesis-stale-a1", DismissedBy: "ben", DismissedAt: "2026-10-16T00:00:03Z"}); err != nil {
		t.Fatalf("replace dismissal: %v", err)
	}
	list, err := s.ListDismissals()
	if err != nil {
		t.Fatalf("list dismissals: %v", err)
	}
	if len(list) != 1 || list[0].DismissalID != "d2" || list[0].Until != nil {
		t.Fatalf("unexpected dismissals: %+v", list)
	}

	if err := s.DeleteDismissal("thesis-stale-a1"); err != nil {
		t.Fatalf("delete dismissal: %v", err)
	}
	if err := s.DeleteDismissal("thesis-stale-a1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReportRequiresPolicy(t *testing.T) {
	s := openTestStore(t)
	err := s.PutReport(ledger.ReportRecord{ReportID: "r1", SnapshotID: "s1", PolicyHash: "unknown", Grade: "A", BodyJSON: []byte(`{}`), CreatedAt: "now"})
	if err == nil {
		t.Fatalf("expected foreign key error")
	}
}

func TestWithTxRollback(t *testing.T) {
	s := openTestStore(t)
	putPolicy(t, s)

	err := s.WithTx(func(tx ledger.Tx) error {
		if err := tx.PutDismissal(ledger.DismissalRecord{DismissalID: "d1", ItemID: "x", DismissedAt: "now"}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	list, err := s.ListDismissals()
	if err != nil {
		t.Fatalf("list dismissals: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected rollback, got %+v", list)
	}
}

func TestTxGetters(t *testing.T) {
	s := openTestStore(t)
	putPolicy(t, s)

	err := s.WithTx(func(tx ledger.Tx) error {
		if _, ok := tx.GetPolicyVersion("ph"); !ok {
			t.Fatalf("expected policy in tx")
		}
		if err := tx.PutReport(ledger.ReportRecord{ReportID: "r1", SnapshotID: "s1", PolicyHash: "ph", Grade: "A", BodyJSON: []byte(`{}`), CreatedAt: "now"}); err != nil {
			return err
		}
		if got, ok := tx.GetReport("r1"); !ok || got.SnapshotID != "s1" {
			t.Fatalf("get report in tx: ok=%v got=%+v", ok, got)
		}
		if err := tx.PutDismissal(ledger.DismissalRecord{DismissalID: "d1", ItemID: "x", DismissedAt: "now"}); err != nil {
			return err
		}
		if got, ok := tx.GetDismissal("x"); !ok || got.DismissalID != "d1" {
			t.Fatalf("get dismissal in tx: ok=%v got=%+v", ok, got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}
}
