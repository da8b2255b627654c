package types

type AssetRef struct {
	AssetID string `json:"asset_id"`
	Ticker  string `json:"ticker,omitempty"`
}

type TradeIdeaRef struct {
	TradeIdeaID string `json:"trade_idea_id"`
	PairID      string `json:"pair_id,omitempty"`
}

type ProposalRef struct {
	ProposalID string `json:"proposal_id"`
}

type PortfolioRef struct {
	PortfolioID string `json:"portfolio_id"`
	Name        string `json:"name,omitempty"`
}

type ProjectRef struct {
	ProjectID string `json:"project_id"`
}

// EntityRef holds the typed references an item is about. Any part may be nil.
type EntityRef struct {
	Asset     *AssetRef     `json:"asset,omitempty"`
	TradeIdea *TradeIdeaRef `json:"trade_idea,omitempty"`
	Proposal  *ProposalRef  `json:"proposal,omitempty"`
	Portfolio *PortfolioRef `json:"portfolio,omitempty"`
	Project   *ProjectRef   `json:"project,omitempty"`
}

func (e EntityRef) AssetID() string {
	if e.Asset == nil {
		return ""
	}
	return e.Asset.AssetID
}

func (e EntityRef) Ticker() string {
	if e.Asset == nil {
		return ""
	}
	return e.Asset.Ticker
}

func (e EntityRef) TradeIdeaID() string {
	if e.TradeIdea == nil {
		return ""
	}
	return e.TradeIdea.TradeIdeaID
}

func (e EntityRef) ProposalID() string {
	if e.Proposal == nil {
		return ""
	}
	return e.Proposal.ProposalID
}

func (e EntityRef) PortfolioID() string {
	if e.Portfolio == nil {
		return ""
	}
	return e.Portfolio.PortfolioID
}

func (e EntityRef) PortfolioName() string {
	if e.Portfolio == nil {
		return ""
	}
	return e.Portfolio.Name
}

func (e EntityRef) ProjectID() string {
	if e.Project == nil {
		return ""
	}
	return e.Project.ProjectID
}
