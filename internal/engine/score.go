package engine

import (
	"sort"
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

const (
	tierScale     int64 = 1_000_000_000
	severityScale int64 = 1_000_000
)

// Weights ranks items. Tier dominates severity, severity dominates age.
type Weights struct {
	Tier        map[types.Tier]int64
	Severity    map[types.Severity]int64
	CategoryAge map[string]int64
	AgeCapDays  int64
}

func WeightsFromPolicy(w policy.Weights) Weights {
	out := Weights{
		Tier:        make(map[types.Tier]int64, len(w.Tiers)),
		Severity:    make(map[types.Severity]int64, len(w.Severities)),
		CategoryAge: make(map[string]int64, len(w.CategoryAge)),
		AgeCapDays:  w.AgeCapDays,
	}
	for k, v := range w.Tiers {
		out.Tier[types.Tier(k)] = v
	}
	for k, v := range w.Severities {
		out.Severity[types.Severity(k)] = v
	}
	for k, v := range w.CategoryAge {
		out.CategoryAge[k] = v
	}
	return out
}

func DefaultWeights() Weights {
	return WeightsFromPolicy(policy.Default().Weights)
}

// Score computes sort_score. Categories without an age weight age at 1 per day.
func (w Weights) Score(item types.DecisionItem, now time.Time) int64 {
	age := ageDays(now, item.CreatedAt)
	if w.AgeCapDays > 0 && age > w.AgeCapDays {
		age = w.AgeCapDays
	}
	perDay, ok := w.CategoryAge[item.Category]
	if !ok {
		perDay = 1
	}
	urgency := age * perDay
	if urgency >= severityScale {
		urgency = severityScale - 1
	}
	return w.Tier[item.DecisionTier]*tierScale + w.Severity[item.Severity]*severityScale + urgency
}

// ScoreAll returns a copy of items with SortScore set.
func (w Weights) ScoreAll(items []types.DecisionItem, now time.Time) []types.DecisionItem {
	out := make([]types.DecisionItem, len(items))
	for i, item := range items {
		item.SortScore = w.Score(item, now)
		out[i] = item
	}
	return out
}

// Less orders a before b: tier, severity and sort_score descending, then
// older first, then by id.
func (w Weights) Less(a, b types.DecisionItem) bool {
	if ta, tb := w.Tier[a.DecisionTier], w.Tier[b.DecisionTier]; ta != tb {
		return ta > tb
	}
	if sa, sb := a.Severity.Weight(), b.Severity.Weight(); sa != sb {
		return sa > sb
	}
	if a.SortScore != b.SortScore {
		return a.SortScore > b.SortScore
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.Title < b.Title
}

// Sort orders items in place.
func (w Weights) Sort(items []types.DecisionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return w.Less(items[i], items[j])
	})
}

func ageDays(now, t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int64(d / (24 * time.Hour))
}
