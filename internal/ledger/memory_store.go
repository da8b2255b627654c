package ledger

import (
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu sync.Mutex

	policies   map[string]PolicyVersionRecord
	reports    map[string]ReportRecord
	dismissals map[string]DismissalRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		policies:   make(map[string]PolicyVersionRecord),
		reports:    make(map[string]ReportRecord),
		dismissals: make(map[string]DismissalRecord),
	}
}

func (s *InMemoryStore) WithTx(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn((*memTx)(s))
}

type memTx InMemoryStore

func (s *InMemoryStore) PutPolicyVersion(policy PolicyVersionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memTx)(s).PutPolicyVersion(policy)
}

func (s *InMemoryStore) GetPolicyVersion(policyHash string) (PolicyVersionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memTx)(s).GetPolicyVersion(policyHash)
}

func (s *InMemoryStore) PutReport(report ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memTx)(s).PutReport(report)
}

func (s *InMemoryStore) GetReport(reportID string) (ReportRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memTx)(s).GetReport(reportID)
}

func (s *InMemoryStore) PutDismissal(dismissal DismissalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memTx)(s).PutDismissal(dismissal)
}

func (s *InMemoryStore) DeleteDismissal(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*memTx)(s).DeleteDismissal(itemID)
}

func (s *InMemoryStore) ListDismissals() ([]DismissalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DismissalRecord, 0, len(s.dismissals))
	for _, d := range s.dismissals {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (t *memTx) PutPolicyVersion(policy PolicyVersionRecord) error {
	if _, ok := t.policies[policy.PolicyHash]; ok {
		return nil
	}
	t.policies[policy.PolicyHash] = policy
	return nil
}

func (t *memTx) GetPolicyVersion(policyHash string) (PolicyVersionRecord, bool) {
	policy, ok := t.policies[policyHash]
	return policy, ok
}

func (t *memTx) PutReport(report ReportRecord) error {
	if _, ok := t.reports[report.ReportID]; ok {
		return nil
	}
	t.reports[report.ReportID] = report
	return nil
}

func (t *memTx) GetReport(reportID string) (ReportRecord, bool) {
	report, ok := t.reports[reportID]
	return report, ok
}

func (t *memTx) PutDismissal(dismissal DismissalRecord) error {
	t.dismissals[dismissal.ItemID] = dismissal
	return nil
}

func (t *memTx) GetDismissal(itemID string) (DismissalRecord, bool) {
	dismissal, ok := t.dismissals[itemID]
	return dismissal, ok
}

func (t *memTx) DeleteDismissal(itemID string) error {
	if _, ok := t.dismissals[itemID]; !ok {
		return ErrNotFound
	}
	delete(t.dismissals, itemID)
	return nil
}
