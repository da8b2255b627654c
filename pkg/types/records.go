package types

import "github.com/shopspring/decimal"

// Trade idea stages, in pipeline order.
const (
	StageIdea       = "idea"
	StageSimulating = "simulating"
	StageDeciding   = "deciding"
	StageApproved   = "approved"
	StageExecuting  = "executing"
	StageExecuted   = "executed"
	StageRejected   = "rejected"
	StageCancelled  = "cancelled"
)

const (
	ProposalPending   = "pending"
	ProposalAccepted  = "accepted"
	ProposalRejected  = "rejected"
	ProposalWithdrawn = "withdrawn"
)

// Timestamps on input records are RFC3339 strings; any field may be empty.

type ThesisUpdate struct {
	ID        string `json:"id"`
	AssetID   string `json:"asset_id"`
	UpdatedAt string `json:"updated_at"`
	CreatedBy string `json:"created_by,omitempty"`
}

type TradeIdea struct {
	ID             string              `json:"id"`
	AssetID        string              `json:"asset_id"`
	PortfolioID    string              `json:"portfolio_id,omitempty"`
	Stage          string              `json:"stage"`
	Outcome        string              `json:"outcome,omitempty"`
	Action         string              `json:"action,omitempty"`
	PairID         string              `json:"pair_id,omitempty"`
	PairLeg        string              `json:"pair_leg,omitempty"`
	ProposedWeight decimal.NullDecimal `json:"proposed_weight"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at,omitempty"`
	Deleted        bool                `json:"deleted,omitempty"`
}

// Terminal reports whether the idea has left the decision pipeline.
func (t TradeIdea) Terminal() bool {
	if t.Deleted || t.Outcome != "" {
		return true
	}
	switch t.Stage {
	case StageExecuted, StageRejected, StageCancelled:
		return true
	}
	return false
}

type Proposal struct {
	ID               string              `json:"id"`
	TradeQueueItemID string              `json:"trade_queue_item_id"`
	PortfolioID      string              `json:"portfolio_id,omitempty"`
	Status           string              `json:"status"`
	Weight           decimal.NullDecimal `json:"weight"`
	CreatedAt        string              `json:"created_at"`
	DecidedAt        string              `json:"decided_at,omitempty"`
	CreatedBy        string              `json:"created_by,omitempty"`
}

type RatingChange struct {
	ID             string `json:"id"`
	AssetID        string `json:"asset_id"`
	Rating         string `json:"rating"`
	PreviousRating string `json:"previous_rating,omitempty"`
	ChangedAt      string `json:"changed_at"`
	ChangedBy      string `json:"changed_by,omitempty"`
}

type Asset struct {
	ID        string `json:"id"`
	Ticker    string `json:"ticker"`
	Name      string `json:"name,omitempty"`
	Rating    string `json:"rating,omitempty"`
	Covered   bool   `json:"covered,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Portfolio struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Dismissal struct {
	ItemID      string `json:"item_id"`
	DismissedAt string `json:"dismissed_at"`
	Until       string `json:"until,omitempty"`
	DismissedBy string `json:"dismissed_by,omitempty"`
}

// Snapshot is the immutable input of one engine run.
type Snapshot struct {
	ThesisUpdates []ThesisUpdate `json:"thesis_updates,omitempty"`
	TradeIdeas    []TradeIdea    `json:"trade_ideas,omitempty"`
	Proposals     []Proposal     `json:"proposals,omitempty"`
	RatingChanges []RatingChange `json:"rating_changes,omitempty"`
	Assets        []Asset        `json:"assets,omitempty"`
	Portfolios    []Portfolio    `json:"portfolios,omitempty"`
	Dismissals    []Dismissal    `json:"dismissals,omitempty"`
}
