package evaluator

import (
	"sort"
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

type pendingProposal struct {
	proposal types.Proposal
	idea     types.TradeIdea
	hasIdea  bool
	at       time.Time
}

// pendingProposals returns undecided proposals whose idea is still open,
// ordered by proposal id.
func pendingProposals(in Input) []pendingProposal {
	out := []pendingProposal{}
	for _, p := range in.Snapshot.Proposals {
		if p.ID == "" || p.DecidedAt != "" {
			continue
		}
		if p.Status != "" && p.Status != types.ProposalPending {
			continue
		}
		at, ok := parseTime(p.CreatedAt)
		if !ok {
			continue
		}
		idea, hasIdea := in.Idea(p.TradeQueueItemID)
		if hasIdea && idea.Terminal() {
			continue
		}
		out = append(out, pendingProposal{proposal: p, idea: idea, hasIdea: hasIdea, at: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].proposal.ID < out[j].proposal.ID })
	return out
}

func (pp pendingProposal) context(in Input) types.EntityRef {
	ref := types.EntityRef{Proposal: &types.ProposalRef{ProposalID: pp.proposal.ID}}
	if pp.proposal.TradeQueueItemID != "" {
		ref.TradeIdea = &types.TradeIdeaRef{TradeIdeaID: pp.proposal.TradeQueueItemID, PairID: pp.idea.PairID}
	}
	if pp.hasIdea {
		ref.Asset = assetRef(in, pp.idea.AssetID)
	}
	portfolioID := pp.proposal.PortfolioID
	if portfolioID == "" {
		portfolioID = pp.idea.PortfolioID
	}
	ref.Portfolio = portfolioRef(in, portfolioID)
	return ref
}

func (pp pendingProposal) chips(ref types.EntityRef, days int) []types.Chip {
	return types.Chips(
		types.Chip{Label: "Ticker", Value: ref.Ticker()},
		types.Chip{Label: "Portfolio", Value: ref.PortfolioName()},
		weightChip("Size", pp.proposal.Weight),
		daysChip("Pending", days),
		types.Chip{Label: "Proposed by", Value: pp.proposal.CreatedBy},
	)
}

func (pp pendingProposal) payload() map[string]string {
	payload := map[string]string{"proposal_id": pp.proposal.ID}
	if pp.proposal.TradeQueueItemID != "" {
		payload["trade_idea_id"] = pp.proposal.TradeQueueItemID
	}
	return payload
}

// ProposalAwaiting flags fresh proposals that need an accept/reject decision.
// Proposals at or past the stall threshold are left to ProposalStalled.
type ProposalAwaiting struct {
	Ramp  policy.Ramp
	Stall policy.Ramp
}

func (ProposalAwaiting) Name() string { return string(types.SignalProposalAwaiting) }

func (e ProposalAwaiting) Evaluate(in Input, now time.Time) []types.DecisionItem {
	out := []types.DecisionItem{}
	for _, pp := range pendingProposals(in) {
		days := daysSince(now, pp.at)
		if days >= e.Stall.WarnDays {
			continue
		}
		severity, ok := e.Ramp.Classify(days)
		if !ok {
			continue
		}

		ref := pp.context(in)
		title := "Proposal awaiting decision"
		if ticker := ref.Ticker(); ticker != "" {
			title = "Decide on " + ticker + " proposal"
		}
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalProposalAwaiting, pp.proposal.ID),
			SignalType:   types.SignalProposalAwaiting,
			Surface:      types.SurfaceAction,
			Severity:     severity,
			Category:     "capital",
			TitleKey:     types.TitleProposalAwaiting,
			Title:        title,
			Description:  "Accept or reject the proposed trade.",
			Chips:        pp.chips(ref, days),
			Context:      ref,
			CTAs:         primaryCTA("Review proposal", "proposal.review", pp.payload()),
			Dismissible:  false,
			DecisionTier: types.TierCapital,
			CreatedAt:    pp.at,
		})
	}
	return out
}

// ProposalStalled flags proposals left undecided past the stall threshold.
type ProposalStalled struct {
	Ramp policy.Ramp
}

func (ProposalStalled) Name() string { return string(types.SignalProposalStalled) }

func (e ProposalStalled) Evaluate(in Input, now time.Time) []types.DecisionItem {
	out := []types.DecisionItem{}
	for _, pp := range pendingProposals(in) {
		days := daysSince(now, pp.at)
		severity, ok := e.Ramp.Classify(days)
		if !ok {
			continue
		}

		ref := pp.context(in)
		title := "Proposal stalled for " + daysText(days)
		if ticker := ref.Ticker(); ticker != "" {
			title = ticker + " proposal stalled for " + daysText(days)
		}
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalProposalStalled, pp.proposal.ID),
			SignalType:   types.SignalProposalStalled,
			Surface:      types.SurfaceAction,
			Severity:     severity,
			Category:     "process",
			TitleKey:     types.TitleProposalStalled,
			Title:        title,
			Description:  "Nobody has decided on this proposal; decide or withdraw it.",
			Chips:        pp.chips(ref, days),
			Context:      ref,
			CTAs:         primaryCTA("Review proposal", "proposal.review", pp.payload()),
			Dismissible:  true,
			DecisionTier: types.TierCapital,
			CreatedAt:    pp.at,
		})
	}
	return out
}
