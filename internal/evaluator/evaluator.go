// Package evaluator turns snapshot records into candidate decision items.
//
// Every evaluator is a pure function of (input, now). Records that cannot
// produce a valid item are skipped; missing joins only drop display chips.
package evaluator

import (
	"sort"
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

type Evaluator interface {
	Name() string
	Evaluate(in Input, now time.Time) []types.DecisionItem
}

// Registry is an ordered set of evaluators run against one snapshot.
type Registry []Evaluator

// DefaultRegistry wires every built-in evaluator with the given thresholds.
func DefaultRegistry(th policy.Thresholds) Registry {
	return Registry{
		ThesisStale{Ramp: th.ThesisStale},
		IdeaUnsimulated{Ramp: th.IdeaUnsimulated},
		ProposalAwaiting{Ramp: th.ProposalAwaiting, Stall: th.ProposalStalled},
		ProposalStalled{Ramp: th.ProposalStalled},
		ExecutionPending{Ramp: th.ExecutionPending},
		RatingFollowUp{Ramp: th.RatingFollowUp},
		AssetIdle{},
	}
}

// Run evaluates the snapshot with every evaluator and concatenates the output
// in registry order.
func (r Registry) Run(s types.Snapshot, now time.Time) []types.DecisionItem {
	in := NewInput(s)
	out := []types.DecisionItem{}
	for _, e := range r {
		out = append(out, e.Evaluate(in, now)...)
	}
	return out
}

// Names lists evaluator names in registry order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for _, e := range r {
		names = append(names, e.Name())
	}
	return names
}

// Input is a snapshot plus the lookup indexes evaluators share.
type Input struct {
	Snapshot types.Snapshot

	assets          map[string]types.Asset
	portfolios      map[string]types.Portfolio
	ideas           map[string]types.TradeIdea
	proposalsByIdea map[string][]types.Proposal
	thesisByAsset   map[string][]time.Time
}

func NewInput(s types.Snapshot) Input {
	in := Input{
		Snapshot:        s,
		assets:          map[string]types.Asset{},
		portfolios:      map[string]types.Portfolio{},
		ideas:           map[string]types.TradeIdea{},
		proposalsByIdea: map[string][]types.Proposal{},
		thesisByAsset:   map[string][]time.Time{},
	}
	for _, a := range s.Assets {
		if a.ID != "" {
			in.assets[a.ID] = a
		}
	}
	for _, p := range s.Portfolios {
		if p.ID != "" {
			in.portfolios[p.ID] = p
		}
	}
	for _, t := range s.TradeIdeas {
		if t.ID != "" {
			in.ideas[t.ID] = t
		}
	}
	for _, p := range s.Proposals {
		if p.TradeQueueItemID != "" {
			in.proposalsByIdea[p.TradeQueueItemID] = append(in.proposalsByIdea[p.TradeQueueItemID], p)
		}
	}
	for _, u := range s.ThesisUpdates {
		if at, ok := parseTime(u.UpdatedAt); ok && u.AssetID != "" {
			in.thesisByAsset[u.AssetID] = append(in.thesisByAsset[u.AssetID], at)
		}
	}
	return in
}

// Ticker returns the asset ticker or "" when the asset is unknown.
func (in Input) Ticker(assetID string) string {
	return in.assets[assetID].Ticker
}

// PortfolioName returns the portfolio name or "" when the portfolio is unknown.
func (in Input) PortfolioName(portfolioID string) string {
	return in.portfolios[portfolioID].Name
}

func (in Input) Idea(id string) (types.TradeIdea, bool) {
	t, ok := in.ideas[id]
	return t, ok
}

func (in Input) HasProposal(ideaID string) bool {
	return len(in.proposalsByIdea[ideaID]) > 0
}

// ThesisUpdatedSince reports whether the asset has a thesis update at or after t.
func (in Input) ThesisUpdatedSince(assetID string, t time.Time) bool {
	for _, at := range in.thesisByAsset[assetID] {
		if !at.Before(t) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
