package types

type ReportPolicy struct {
	PolicyID      string `json:"policy_id"`
	PolicyVersion string `json:"policy_version"`
	PolicyHash    string `json:"policy_hash"`
}

type ReportSummary struct {
	Grade       string         `json:"grade"`
	Reasons     []string       `json:"reasons,omitempty"`
	ActionCount int            `json:"action_count"`
	IntelCount  int            `json:"intel_count"`
	BySeverity  map[string]int `json:"by_severity,omitempty"`
	ByTier      map[string]int `json:"by_tier,omitempty"`
}

type Report struct {
	Schema      string         `json:"schema"`
	ReportID    string         `json:"report_id"`
	SnapshotID  string         `json:"snapshot_id"`
	CreatedAt   string         `json:"created_at"`
	Policy      ReportPolicy   `json:"policy"`
	ActionItems []DecisionItem `json:"action_items"`
	IntelItems  []DecisionItem `json:"intel_items"`
	Summary     ReportSummary  `json:"summary"`
}
