package engine

import (
	"errors"
	"fmt"

	"github.com/davidahmann/tradedesk/pkg/types"
)

var ErrIndependentSignals = errors.New("suppression rule links independent signals")

type Scope string

const (
	// ScopeAsset suppresses matching items anywhere in the asset group.
	ScopeAsset Scope = "asset"
	// ScopeTradeIdea suppresses only items about the trigger's trade idea.
	ScopeTradeIdea Scope = "trade_idea"
)

type SuppressionRule struct {
	Name     string
	Suppress types.SignalType
	When     []types.SignalType
	Scope    Scope
}

// independentSignals never suppress one another, even on the same asset:
// a stalled proposal says nothing about whether a rating change was followed up.
var independentSignals = [][2]types.SignalType{
	{types.SignalProposalStalled, types.SignalRatingFollowUp},
}

func DefaultSuppressionRules() []SuppressionRule {
	return []SuppressionRule{
		{
			Name:     "idle-superseded-by-activity",
			Suppress: types.SignalAssetIdle,
			When: []types.SignalType{
				types.SignalIdeaUnsimulated,
				types.SignalProposalAwaiting,
				types.SignalProposalStalled,
				types.SignalExecutionPending,
			},
			Scope: ScopeAsset,
		},
		{
			Name:     "awaiting-superseded-by-execution",
			Suppress: types.SignalProposalAwaiting,
			When:     []types.SignalType{types.SignalExecutionPending},
			Scope:    ScopeTradeIdea,
		},
	}
}

// ValidateRules rejects incomplete rules and rules linking independent signals.
func ValidateRules(rules []SuppressionRule) error {
	for i, r := range rules {
		if r.Suppress == "" || len(r.When) == 0 {
			return fmt.Errorf("suppression rule %d (%s): suppress and when are required", i, r.Name)
		}
		if r.Scope != ScopeAsset && r.Scope != ScopeTradeIdea {
			return fmt.Errorf("suppression rule %d (%s): unknown scope %q", i, r.Name, r.Scope)
		}
		for _, trigger := range r.When {
			if independent(r.Suppress, trigger) {
				return fmt.Errorf("%w: %s by %s", ErrIndependentSignals, r.Suppress, trigger)
			}
		}
	}
	return nil
}

func independent(a, b types.SignalType) bool {
	for _, pair := range independentSignals {
		if (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a) {
			return true
		}
	}
	return false
}

// Suppress drops items made meaningless by other items about the same entity.
// Asset-scoped rules look at all items on one asset; trade-idea rules look at
// the items about one trade idea, where the legs of a pair trade count as one
// trade even across assets. Triggers are evaluated against the unsuppressed
// group, so suppression never chains. Items without an asset id are kept
// as-is.
func Suppress(items []types.DecisionItem, rules []SuppressionRule) []types.DecisionItem {
	byAsset := groupItems(items, func(item types.DecisionItem) string { return item.Context.AssetID() })
	byTrade := groupItems(items, TradeKey)

	suppressed := map[int]bool{}
	for _, rule := range rules {
		groups := byAsset
		if rule.Scope == ScopeTradeIdea {
			groups = byTrade
		}
		for _, group := range groups {
			applyRule(items, group, rule, suppressed)
		}
	}
	if len(suppressed) == 0 {
		return items
	}

	out := make([]types.DecisionItem, 0, len(items)-len(suppressed))
	for i, item := range items {
		if !suppressed[i] {
			out = append(out, item)
		}
	}
	return out
}

// TradeKey identifies the trade an item is about: the pair for pair-trade
// legs, otherwise the trade idea. Empty when the item names no trade idea.
func TradeKey(item types.DecisionItem) string {
	ref := item.Context.TradeIdea
	switch {
	case ref == nil:
		return ""
	case ref.PairID != "":
		return "pair:" + ref.PairID
	case ref.TradeIdeaID != "":
		return "idea:" + ref.TradeIdeaID
	}
	return ""
}

func groupItems(items []types.DecisionItem, key func(types.DecisionItem) string) map[string][]int {
	groups := map[string][]int{}
	for i, item := range items {
		if item.Context.AssetID() == "" {
			continue
		}
		if k := key(item); k != "" {
			groups[k] = append(groups[k], i)
		}
	}
	return groups
}

func applyRule(items []types.DecisionItem, group []int, rule SuppressionRule, suppressed map[int]bool) {
	triggered := false
	for _, i := range group {
		if containsSignal(rule.When, SignalOf(items[i])) {
			triggered = true
			break
		}
	}
	if !triggered {
		return
	}
	for _, i := range group {
		if SignalOf(items[i]) == rule.Suppress {
			suppressed[i] = true
		}
	}
}

func containsSignal(list []types.SignalType, s types.SignalType) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
