package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

const unassignedPortfolio = "Unassigned"

// RollupRule replaces MinCount or more action items sharing TitleKey with a
// single aggregate item.
type RollupRule struct {
	TitleKey     string
	MinCount     int
	BonusPerItem int64
	Breakdown    bool
	Title        func(count int) string
	Description  func(children []types.DecisionItem, now time.Time) string
	CTA          func(children []types.DecisionItem) types.CTA
}

type rollupCopy struct {
	noun      string
	ctaLabel  string
	actionKey string
}

var knownRollups = map[string]rollupCopy{
	types.TitleIdeaNotSimulated: {noun: "ideas waiting for simulation", ctaLabel: "Open idea queue", actionKey: "ideas.queue"},
	types.TitleProposalAwaiting: {noun: "proposals awaiting decision", ctaLabel: "Open decision inbox", actionKey: "proposals.inbox"},
	types.TitleThesisStale:      {noun: "stale theses", ctaLabel: "Review coverage", actionKey: "coverage.review"},
	types.TitleRatingFollowUp:   {noun: "rating changes without thesis", ctaLabel: "Review coverage", actionKey: "coverage.review"},
}

// RollupRulesFromPolicy builds rules in policy order. A setting label overrides
// the built-in noun; unknown title keys get generic copy.
func RollupRulesFromPolicy(settings []policy.RollupSetting) []RollupRule {
	rules := make([]RollupRule, 0, len(settings))
	for _, s := range settings {
		c, ok := knownRollups[s.TitleKey]
		if !ok {
			c = rollupCopy{noun: humanize(s.TitleKey), ctaLabel: "Review all", actionKey: "rollup.open"}
		}
		if s.Label != "" {
			c.noun = s.Label
		}
		rules = append(rules, RollupRule{
			TitleKey:     s.TitleKey,
			MinCount:     s.MinCount,
			BonusPerItem: s.BonusPerItem,
			Breakdown:    s.Breakdown,
			Title:        countTitle(c.noun),
			Description:  OldestWaiting,
			CTA:          reviewCTA(s.TitleKey, c.ctaLabel, c.actionKey),
		})
	}
	return rules
}

func DefaultRollupRules() []RollupRule {
	return RollupRulesFromPolicy(policy.Default().Rollups)
}

// OldestWaiting describes a rollup by its oldest child.
func OldestWaiting(children []types.DecisionItem, now time.Time) string {
	oldest := oldestCreatedAt(children)
	days := ageDays(now, oldest)
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return fmt.Sprintf("Oldest waiting %d %s", days, unit)
}

func countTitle(noun string) func(int) string {
	return func(count int) string {
		return fmt.Sprintf("%d %s", count, noun)
	}
}

func reviewCTA(titleKey, label, actionKey string) func([]types.DecisionItem) types.CTA {
	return func(children []types.DecisionItem) types.CTA {
		return types.CTA{
			Label:     label,
			ActionKey: actionKey,
			Kind:      "primary",
			Payload:   map[string]string{"title_key": titleKey, "count": strconv.Itoa(len(children))},
		}
	}
}

// Rollup aggregates action items per rule. Items no rule consumes pass through
// unchanged, followed by the rollups in rule order. Intel items are never
// aggregated.
func Rollup(items []types.DecisionItem, rules []RollupRule, w Weights, now time.Time) []types.DecisionItem {
	byKey := map[string][]int{}
	for i, item := range items {
		if item.Surface == types.SurfaceAction && !item.IsRollup() {
			byKey[item.TitleKey] = append(byKey[item.TitleKey], i)
		}
	}

	consumed := make([]bool, len(items))
	var rollups []types.DecisionItem
	for _, rule := range rules {
		var children []types.DecisionItem
		var picked []int
		for _, i := range byKey[rule.TitleKey] {
			if !consumed[i] {
				children = append(children, items[i])
				picked = append(picked, i)
			}
		}
		if rule.MinCount < 1 || len(children) < rule.MinCount {
			continue
		}
		for _, i := range picked {
			consumed[i] = true
		}
		rollups = append(rollups, buildRollup(rule, children, w, now))
	}
	if len(rollups) == 0 {
		return items
	}

	out := make([]types.DecisionItem, 0, len(items))
	for i, item := range items {
		if !consumed[i] {
			out = append(out, item)
		}
	}
	return append(out, rollups...)
}

func buildRollup(rule RollupRule, children []types.DecisionItem, w Weights, now time.Time) types.DecisionItem {
	sorted := append([]types.DecisionItem(nil), children...)
	w.Sort(sorted)
	lead := sorted[0]

	severity := lead.Severity
	maxScore := lead.SortScore
	for _, c := range sorted[1:] {
		severity = types.MaxSeverity(severity, c.Severity)
		if c.SortScore > maxScore {
			maxScore = c.SortScore
		}
	}

	chips := []types.Chip{{Label: "Items", Value: strconv.Itoa(len(sorted))}}
	if rule.Breakdown {
		chips = append(chips, portfolioBreakdown(sorted)...)
	}

	item := types.DecisionItem{
		ID:           RollupID(rule.TitleKey),
		SignalType:   types.SignalRollup,
		Surface:      types.SurfaceAction,
		Severity:     severity,
		Category:     lead.Category,
		TitleKey:     rule.TitleKey,
		Chips:        chips,
		DecisionTier: lead.DecisionTier,
		SortScore:    maxScore + int64(len(sorted))*rule.BonusPerItem,
		CreatedAt:    oldestCreatedAt(sorted),
		Children:     sorted,
	}
	if rule.Title != nil {
		item.Title = rule.Title(len(sorted))
	}
	if rule.Description != nil {
		item.Description = rule.Description(sorted, now)
	}
	if rule.CTA != nil {
		item.CTAs = []types.CTA{rule.CTA(sorted)}
	}
	return item
}

// RollupID is "rollup-" followed by the title key in lower kebab case.
func RollupID(titleKey string) string {
	return "rollup-" + strings.ReplaceAll(strings.ToLower(titleKey), "_", "-")
}

func portfolioBreakdown(children []types.DecisionItem) []types.Chip {
	counts := map[string]int{}
	for _, c := range children {
		name := c.Context.PortfolioName()
		if name == "" {
			name = unassignedPortfolio
		}
		counts[name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	chips := make([]types.Chip, 0, len(names))
	for _, name := range names {
		chips = append(chips, types.Chip{Label: name, Value: strconv.Itoa(counts[name])})
	}
	return chips
}

func oldestCreatedAt(items []types.DecisionItem) time.Time {
	var oldest time.Time
	for _, item := range items {
		if item.CreatedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || item.CreatedAt.Before(oldest) {
			oldest = item.CreatedAt
		}
	}
	return oldest
}

func humanize(titleKey string) string {
	return strings.ToLower(strings.ReplaceAll(titleKey, "_", " ")) + " items"
}
