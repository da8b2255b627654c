package engine

import (
	"strings"

	"github.com/davidahmann/tradedesk/pkg/types"
)

// SignalOf returns the item's signal type. Items built without one fall back
// to the first two hyphen-delimited tokens of their id.
func SignalOf(item types.DecisionItem) types.SignalType {
	if item.SignalType != "" {
		return item.SignalType
	}
	tokens := strings.SplitN(item.ID, "-", 3)
	if len(tokens) < 2 {
		return types.SignalType(item.ID)
	}
	return types.SignalType(tokens[0] + "-" + tokens[1])
}

// DedupKey identifies "the same signal about the same entity".
func DedupKey(item types.DecisionItem) string {
	parts := []string{string(SignalOf(item)), item.Category}
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, name+"="+value)
		}
	}
	add("asset", item.Context.AssetID())
	add("proposal", item.Context.ProposalID())
	add("trade_idea", item.Context.TradeIdeaID())
	add("project", item.Context.ProjectID())
	return strings.Join(parts, "|")
}

// Dedup collapses items sharing a dedup key, keeping the most severe one.
// Equal severities keep the smaller id so the winner does not depend on input
// order. Output follows first-seen key order.
func Dedup(items []types.DecisionItem) []types.DecisionItem {
	index := make(map[string]int, len(items))
	out := make([]types.DecisionItem, 0, len(items))
	for _, item := range items {
		key := DedupKey(item)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, item)
			continue
		}
		if preferred(item, out[i]) {
			out[i] = item
		}
	}
	return out
}

func preferred(candidate, current types.DecisionItem) bool {
	if cw, kw := candidate.Severity.Weight(), current.Severity.Weight(); cw != kw {
		return cw > kw
	}
	return candidate.ID < current.ID
}
