package summary

import (
	"sort"

	"github.com/davidahmann/tradedesk/internal/engine"
	"github.com/davidahmann/tradedesk/pkg/types"
)

// Reasons, most serious first.
const (
	ReasonRedCapital    = "red_capital"
	ReasonRedAction     = "red_action"
	ReasonOrangeCapital = "orange_capital"
	ReasonBacklog       = "backlog"
	ReasonOpenActions   = "open_actions"
)

// BacklogThreshold is the leaf action count at which the desk grades C.
const BacklogThreshold = 10

// Summarize counts the result and grades how much needs attention. Counts by
// severity and tier include rollup children rather than the rollups.
func Summarize(result engine.Result) types.ReportSummary {
	out := types.ReportSummary{
		ActionCount: len(result.ActionItems),
		IntelCount:  len(result.IntelItems),
		BySeverity:  map[string]int{},
		ByTier:      map[string]int{},
	}

	flags := map[string]bool{}
	actionLeaves := 0
	for _, item := range leaves(result.ActionItems) {
		actionLeaves++
		out.BySeverity[string(item.Severity)]++
		out.ByTier[string(item.DecisionTier)]++
		flags[ReasonOpenActions] = true
		switch {
		case item.Severity == types.SeverityRed && item.DecisionTier == types.TierCapital:
			flags[ReasonRedCapital] = true
		case item.Severity == types.SeverityRed:
			flags[ReasonRedAction] = true
		case item.Severity == types.SeverityOrange && item.DecisionTier == types.TierCapital:
			flags[ReasonOrangeCapital] = true
		}
	}
	for _, item := range leaves(result.IntelItems) {
		out.BySeverity[string(item.Severity)]++
		out.ByTier[string(item.DecisionTier)]++
	}
	if actionLeaves >= BacklogThreshold {
		flags[ReasonBacklog] = true
	}

	grade := "A"
	switch {
	case flags[ReasonRedCapital]:
		grade = "F"
	case flags[ReasonRedAction]:
		grade = "D"
	case flags[ReasonOrangeCapital] || flags[ReasonBacklog]:
		grade = "C"
	case flags[ReasonOpenActions]:
		grade = "B"
	}

	reasons := []string{}
	for k := range flags {
		reasons = append(reasons, k)
	}
	sort.Strings(reasons)

	out.Grade = grade
	out.Reasons = reasons
	return out
}

func leaves(items []types.DecisionItem) []types.DecisionItem {
	var out []types.DecisionItem
	for _, item := range items {
		if len(item.Children) > 0 {
			out = append(out, leaves(item.Children)...)
			continue
		}
		out = append(out, item)
	}
	return out
}
