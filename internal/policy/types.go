package policy

import "github.com/davidahmann/tradedesk/pkg/types"

type Policy struct {
	PolicyID      string          `yaml:"policy_id"`
	PolicyVersion string          `yaml:"policy_version"`
	Thresholds    Thresholds      `yaml:"thresholds"`
	Weights       Weights         `yaml:"weights"`
	Rollups       []RollupSetting `yaml:"rollups"`
}

// Thresholds holds the day ramps each evaluator applies.
type Thresholds struct {
	ThesisStale      Ramp `yaml:"thesis_stale"`
	IdeaUnsimulated  Ramp `yaml:"idea_unsimulated"`
	ProposalAwaiting Ramp `yaml:"proposal_awaiting"`
	ProposalStalled  Ramp `yaml:"proposal_stalled"`
	ExecutionPending Ramp `yaml:"execution_pending"`
	RatingFollowUp   Ramp `yaml:"rating_followup"`
}

// Ramp is the ignore -> warn -> critical pattern over elapsed days.
type Ramp struct {
	WarnDays     int `yaml:"warn_days"`
	CriticalDays int `yaml:"critical_days"`
}

// Classify maps elapsed days onto a severity. ok is false below the warn threshold.
func (r Ramp) Classify(days int) (severity types.Severity, ok bool) {
	switch {
	case days < r.WarnDays:
		return "", false
	case days >= r.CriticalDays:
		return types.SeverityRed, true
	default:
		return types.SeverityOrange, true
	}
}

type Weights struct {
	Tiers       map[string]int64 `yaml:"tiers"`
	Severities  map[string]int64 `yaml:"severities"`
	CategoryAge map[string]int64 `yaml:"category_age"`
	AgeCapDays  int64            `yaml:"age_cap_days"`
}

type RollupSetting struct {
	TitleKey     string `yaml:"title_key"`
	MinCount     int    `yaml:"min_count"`
	BonusPerItem int64  `yaml:"bonus_per_item"`
	Breakdown    bool   `yaml:"breakdown"`
	Label        string `yaml:"label"`
}
