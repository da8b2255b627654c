package evaluator

import (
	"sort"
	"strings"
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

// ideaGroup is a single idea or the legs of one pair trade.
type ideaGroup struct {
	rep  types.TradeIdea
	legs []types.TradeIdea
	at   time.Time
}

func (g ideaGroup) pairID() string {
	return g.rep.PairID
}

// groupIdeas collapses pair legs sharing a pair id. The representative is the
// leg with the smallest id; the group timestamp is the earliest leg's. Ideas
// without an id or a parsable timestamp are dropped.
func groupIdeas(ideas []types.TradeIdea, stamp func(types.TradeIdea) string) []ideaGroup {
	groups := map[string]*ideaGroup{}
	for _, t := range ideas {
		if t.ID == "" {
			continue
		}
		at, ok := parseTime(stamp(t))
		if !ok {
			continue
		}
		key := "idea:" + t.ID
		if t.PairID != "" {
			key = "pair:" + t.PairID
		}
		g, seen := groups[key]
		if !seen {
			groups[key] = &ideaGroup{rep: t, legs: []types.TradeIdea{t}, at: at}
			continue
		}
		g.legs = append(g.legs, t)
		if t.ID < g.rep.ID {
			g.rep = t
		}
		if at.Before(g.at) {
			g.at = at
		}
	}

	out := make([]ideaGroup, 0, len(groups))
	for _, key := range sortedKeys(groups) {
		g := groups[key]
		sort.Slice(g.legs, func(i, j int) bool { return g.legs[i].ID < g.legs[j].ID })
		out = append(out, *g)
	}
	return out
}

func legSide(t types.TradeIdea) string {
	switch strings.ToLower(t.Action) {
	case "buy", "sell":
		return strings.ToLower(t.Action)
	}
	switch strings.ToLower(t.PairLeg) {
	case "long", "buy":
		return "buy"
	case "short", "sell":
		return "sell"
	}
	return ""
}

// groupLabel renders "Buy X / Sell Y" for pairs and "Buy X" for single ideas.
// Legs with an unknown ticker are left out.
func groupLabel(in Input, g ideaGroup) string {
	type leg struct {
		side   string
		ticker string
	}
	legs := []leg{}
	for _, t := range g.legs {
		ticker := in.Ticker(t.AssetID)
		if ticker == "" {
			continue
		}
		legs = append(legs, leg{side: legSide(t), ticker: ticker})
	}
	sideRank := map[string]int{"buy": 0, "sell": 1, "": 2}
	sort.SliceStable(legs, func(i, j int) bool {
		if sideRank[legs[i].side] != sideRank[legs[j].side] {
			return sideRank[legs[i].side] < sideRank[legs[j].side]
		}
		return legs[i].ticker < legs[j].ticker
	})

	parts := make([]string, 0, len(legs))
	for _, l := range legs {
		if l.side == "" {
			parts = append(parts, l.ticker)
			continue
		}
		parts = append(parts, strings.ToUpper(l.side[:1])+l.side[1:]+" "+l.ticker)
	}
	return strings.Join(parts, " / ")
}

func groupContext(in Input, g ideaGroup) types.EntityRef {
	return types.EntityRef{
		Asset:     assetRef(in, g.rep.AssetID),
		TradeIdea: &types.TradeIdeaRef{TradeIdeaID: g.rep.ID, PairID: g.pairID()},
		Portfolio: portfolioRef(in, g.rep.PortfolioID),
	}
}

func ideaPayload(g ideaGroup) map[string]string {
	payload := map[string]string{"trade_idea_id": g.rep.ID}
	if g.pairID() != "" {
		payload["pair_id"] = g.pairID()
	}
	return payload
}

// IdeaUnsimulated flags ideas sitting in the idea stage without a simulation.
type IdeaUnsimulated struct {
	Ramp policy.Ramp
}

func (IdeaUnsimulated) Name() string { return string(types.SignalIdeaUnsimulated) }

func (e IdeaUnsimulated) Evaluate(in Input, now time.Time) []types.DecisionItem {
	// A pair is unsimulated only while every live leg is.
	movedPairs := map[string]bool{}
	for _, t := range in.Snapshot.TradeIdeas {
		if t.PairID == "" || t.Deleted {
			continue
		}
		if !unsimulated(in, t) {
			movedPairs[t.PairID] = true
		}
	}

	candidates := []types.TradeIdea{}
	for _, t := range in.Snapshot.TradeIdeas {
		if !unsimulated(in, t) || movedPairs[t.PairID] {
			continue
		}
		candidates = append(candidates, t)
	}

	out := []types.DecisionItem{}
	for _, g := range groupIdeas(candidates, func(t types.TradeIdea) string { return t.CreatedAt }) {
		days := daysSince(now, g.at)
		severity, ok := e.Ramp.Classify(days)
		if !ok {
			continue
		}

		label := groupLabel(in, g)
		title := "Trade idea not simulated"
		if label != "" {
			title = "Simulate " + label
		}
		chips := types.Chips(
			types.Chip{Label: "Idea", Value: label},
			daysChip("Waiting", days),
			types.Chip{Label: "Portfolio", Value: in.PortfolioName(g.rep.PortfolioID)},
			weightChip("Size", g.rep.ProposedWeight),
		)
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalIdeaUnsimulated, g.rep.ID),
			SignalType:   types.SignalIdeaUnsimulated,
			Surface:      types.SurfaceAction,
			Severity:     severity,
			Category:     "process",
			TitleKey:     types.TitleIdeaNotSimulated,
			Title:        title,
			Description:  "Idea created " + daysText(days) + " ago and never simulated.",
			Chips:        chips,
			Context:      groupContext(in, g),
			CTAs:         primaryCTA("Run simulation", "idea.simulate", ideaPayload(g)),
			Dismissible:  true,
			DecisionTier: types.TierProcess,
			CreatedAt:    g.at,
		})
	}
	return out
}

func unsimulated(in Input, t types.TradeIdea) bool {
	return t.Stage == types.StageIdea && !t.Terminal() && !in.HasProposal(t.ID)
}

// ExecutionPending flags approved ideas that have not been executed yet.
type ExecutionPending struct {
	Ramp policy.Ramp
}

func (ExecutionPending) Name() string { return string(types.SignalExecutionPending) }

func (e ExecutionPending) Evaluate(in Input, now time.Time) []types.DecisionItem {
	candidates := []types.TradeIdea{}
	for _, t := range in.Snapshot.TradeIdeas {
		if t.Terminal() {
			continue
		}
		if t.Stage != types.StageApproved && t.Stage != types.StageExecuting {
			continue
		}
		candidates = append(candidates, t)
	}

	stamp := func(t types.TradeIdea) string {
		if _, ok := parseTime(t.UpdatedAt); ok {
			return t.UpdatedAt
		}
		return t.CreatedAt
	}

	out := []types.DecisionItem{}
	for _, g := range groupIdeas(candidates, stamp) {
		days := daysSince(now, g.at)
		severity, ok := e.Ramp.Classify(days)
		if !ok {
			continue
		}

		label := groupLabel(in, g)
		title := "Approved trade awaiting execution"
		if label != "" {
			title = "Execute " + label
		}
		chips := types.Chips(
			types.Chip{Label: "Trade", Value: label},
			daysChip("Approved", days),
			types.Chip{Label: "Portfolio", Value: in.PortfolioName(g.rep.PortfolioID)},
			weightChip("Size", g.rep.ProposedWeight),
		)
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalExecutionPending, g.rep.ID),
			SignalType:   types.SignalExecutionPending,
			Surface:      types.SurfaceAction,
			Severity:     severity,
			Category:     "capital",
			TitleKey:     types.TitleExecutionPending,
			Title:        title,
			Description:  "Decision made " + daysText(days) + " ago; the order has not been filled.",
			Chips:        chips,
			Context:      groupContext(in, g),
			CTAs:         primaryCTA("Open execution", "execution.open", ideaPayload(g)),
			Dismissible:  false,
			DecisionTier: types.TierCapital,
			CreatedAt:    g.at,
		})
	}
	return out
}
