package ledger

import "errors"

var ErrNotFound = errors.New("not found")

type Store interface {
	WithTx(fn func(Tx) error) error

	PutPolicyVersion(policy PolicyVersionRecord) error
	GetPolicyVersion(policyHash string) (PolicyVersionRecord, bool)

	PutReport(report ReportRecord) error
	GetReport(reportID string) (ReportRecord, bool)

	PutDismissal(dismissal DismissalRecord) error
	DeleteDismissal(itemID string) error
	ListDismissals() ([]DismissalRecord, error)
}

type Tx interface {
	PutPolicyVersion(policy PolicyVersionRecord) error
	GetPolicyVersion(policyHash string) (PolicyVersionRecord, bool)

	PutReport(report ReportRecord) error
	GetReport(reportID string) (ReportRecord, bool)

	PutDismissal(dismissal DismissalRecord) error
	GetDismissal(itemID string) (DismissalRecord, bool)
	DeleteDismissal(itemID string) error
}

type PolicyVersionRecord struct {
	PolicyHash    string
	PolicyID      string
	PolicyVersion string
	PolicyYAML    string
	CreatedAt     string
}

type ReportRecord struct {
	ReportID   string
	SnapshotID string
	PolicyHash string
	Grade      string
	BodyJSON   []byte
	CreatedAt  string
}

// DismissalRecord hides one item id. There is at most one per item; storing
// again replaces it.
type DismissalRecord struct {
	DismissalID string
	ItemID      string
	DismissedBy string
	DismissedAt string
	Until       *string
}
