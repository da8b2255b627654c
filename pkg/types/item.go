package types

import "time"

type Surface string

const (
	SurfaceAction Surface = "action"
	SurfaceIntel  Surface = "intel"
)

type Severity string

const (
	SeverityGray   Severity = "gray"
	SeverityOrange Severity = "orange"
	SeverityRed    Severity = "red"
)

// Weight orders severities gray < orange < red. Unknown values weigh 0.
func (s Severity) Weight() int {
	switch s {
	case SeverityRed:
		return 3
	case SeverityOrange:
		return 2
	case SeverityGray:
		return 1
	default:
		return 0
	}
}

// MaxSeverity returns the heavier of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Weight() > a.Weight() {
		return b
	}
	return a
}

type Tier string

const (
	TierCapital  Tier = "capital"
	TierProcess  Tier = "process"
	TierCoverage Tier = "coverage"
)

type SignalType string

const (
	SignalThesisStale      SignalType = "thesis-stale"
	SignalIdeaUnsimulated  SignalType = "idea-unsimulated"
	SignalProposalAwaiting SignalType = "proposal-awaiting"
	SignalProposalStalled  SignalType = "proposal-stalled"
	SignalExecutionPending SignalType = "execution-pending"
	SignalRatingFollowUp   SignalType = "rating-followup"
	SignalAssetIdle        SignalType = "asset-idle"
	SignalRollup           SignalType = "rollup"
)

// Title keys identify the kind of signal for rollup grouping.
const (
	TitleThesisStale      = "THESIS_STALE"
	TitleIdeaNotSimulated = "IDEA_NOT_SIMULATED"
	TitleProposalAwaiting = "PROPOSAL_AWAITING_DECISION"
	TitleProposalStalled  = "PROPOSAL_STALLED"
	TitleExecutionPending = "EXECUTION_PENDING"
	TitleRatingFollowUp   = "RATING_FOLLOW_UP"
	TitleNoActiveIdea     = "NO_ACTIVE_IDEA"
)

type Chip struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type CTA struct {
	Label     string            `json:"label"`
	ActionKey string            `json:"action_key"`
	Kind      string            `json:"kind"`
	Payload   map[string]string `json:"payload,omitempty"`
}

type DecisionItem struct {
	ID           string         `json:"id"`
	SignalType   SignalType     `json:"signal_type"`
	Surface      Surface        `json:"surface"`
	Severity     Severity       `json:"severity"`
	Category     string         `json:"category"`
	TitleKey     string         `json:"title_key"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Chips        []Chip         `json:"chips,omitempty"`
	Context      EntityRef      `json:"context"`
	CTAs         []CTA          `json:"ctas,omitempty"`
	Dismissible  bool           `json:"dismissible"`
	DecisionTier Tier           `json:"decision_tier"`
	SortScore    int64          `json:"sort_score"`
	CreatedAt    time.Time      `json:"created_at"`
	Children     []DecisionItem `json:"children,omitempty"`
}

// IsRollup reports whether the item aggregates children.
func (d DecisionItem) IsRollup() bool {
	return d.SignalType == SignalRollup
}

// Chips builds a chip list, dropping chips with an empty value.
func Chips(pairs ...Chip) []Chip {
	out := make([]Chip, 0, len(pairs))
	for _, c := range pairs {
		if c.Value == "" {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
