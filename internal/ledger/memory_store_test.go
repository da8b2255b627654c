package ledger

import (
	"errors"
	"sync"
	"testing"
)

func TestInMemoryStore_CRUD(t *testing.T) {
	s := NewInMemoryStore()

	policy := PolicyVersionRecord{PolicyHash: "ph", PolicyID: "pid", PolicyVersion: "1", PolicyYAML: "y", CreatedAt: "now"}
	if err := s.PutPolicyVersion(policy); err != nil {
		t.Fatalf("put policy: %v", err)
	}
	if got, ok := s.GetPolicyVersion("ph"); !ok || got.PolicyID != "pid" {
		t.Fatalf("get policy mismatch: ok=%v got=%+v", ok, got)
	}

	rep := ReportRecord{ReportID: "r1", SnapshotID: "s1", PolicyHash: "ph", Grade: "B", BodyJSON: []byte(`{}`), CreatedAt: "now"}
	if err := s.PutReport(rep); err != nil {
		t.Fatalf("put report: %v", err)
	}
	if got, ok := s.GetReport("r1"); !ok || got.SnapshotID != "s1" {
		t.Fatalf("get report mismatch: ok=%v got=%+v", ok, got)
	}
	if _, ok := s.GetReport("missing"); ok {
		t.Fatalf("expected missing report")
	}

	until := "2026-11-01T00:00:00Z"
	if err := s.PutDismissal(DismissalRecord{DismissalID: "d2", ItemID: "thesis-stale-a2", DismissedAt: "now", Until: &until}); err != nil {
		t.Fatalf("put dismissal: %v", err)
	}
	if err := s.PutDismissal(DismissalRecord{DismissalID: "d1", ItemID: "thesis-stale-a1", DismissedAt: "now"}); err != nil {
		t.Fatalf("put dismissal: %v", err)
	}
	list, err := s.ListDismissals()
	if err != nil || len(list) != 2 {
		t.Fatalf("list dismissals: err=%v len=%d", err, len(list))
	}
	if list[0].ItemID != "thesis-stale-a1" {
		t.Fatalf("expected dismissals sorted by item id, got %+v", list)
	}

	if err := s.DeleteDismissal("thesis-stale-a1"); err != nil {
		t.Fatalf("delete dismissal: %v", err)
	}
	if err := s.DeleteDismissal("thesis-stale-a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryStore_ReportsAreWriteOnce(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.PutReport(ReportRecord{ReportID: "r1", Grade: "A"}); err != nil {
		t.Fatalf("put report: %v", err)
	}
	if err := s.PutReport(ReportRecord{ReportID: "r1", Grade: "F"}); err != nil {
		t.Fatalf("put report: %v", err)
	}
	if got, _ := s.GetReport("r1"); got.Grade != "A" {
		t.Fatalf("expected first write to win, got %s", got.Grade)
	}
}

func TestInMemoryStore_WithTxReplacesDismissal(t *testing.T) {
	s := NewInMemoryStore()
	err := s.WithTx(func(tx Tx) error {
		if err := tx.PutDismissal(DismissalRecord{DismissalID: "d1", ItemID: "x", DismissedBy: "ana"}); err != nil {
			return err
		}
		if err := tx.PutDismissal(DismissalRecord{DismissalID: "d2", ItemID: "x", DismissedBy: "ben"}); err != nil {
			return err
		}
		got, ok := tx.GetDismissal("x")
		if !ok || got.DismissalID != "d2" {
			t.Fatalf("expected replaced dismissal, got ok=%v %+v", ok, got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.PutDismissal(DismissalRecord{DismissalID: "d", ItemID: string(rune('a' + i))})
			_, _ = s.ListDismissals()
		}(i)
	}
	wg.Wait()
	list, _ := s.ListDismissals()
	if len(list) != 16 {
		t.Fatalf("expected 16 dismissals, got %d", len(list))
	}
}
