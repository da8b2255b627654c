package evaluator

import (
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

// ThesisStale flags assets whose most recent thesis update is too old.
type ThesisStale struct {
	Ramp policy.Ramp
}

func (ThesisStale) Name() string { return string(types.SignalThesisStale) }

func (e ThesisStale) Evaluate(in Input, now time.Time) []types.DecisionItem {
	type latest struct {
		update types.ThesisUpdate
		at     time.Time
	}
	byAsset := map[string]latest{}
	for _, u := range in.Snapshot.ThesisUpdates {
		if u.AssetID == "" {
			continue
		}
		at, ok := parseTime(u.UpdatedAt)
		if !ok {
			continue
		}
		cur, seen := byAsset[u.AssetID]
		if !seen || at.After(cur.at) || (at.Equal(cur.at) && u.ID > cur.update.ID) {
			byAsset[u.AssetID] = latest{update: u, at: at}
		}
	}

	out := []types.DecisionItem{}
	for _, assetID := range sortedKeys(byAsset) {
		l := byAsset[assetID]
		days := daysSince(now, l.at)
		severity, ok := e.Ramp.Classify(days)
		if !ok {
			continue
		}

		ticker := in.Ticker(assetID)
		title := "Thesis is " + daysText(days) + " old"
		if ticker != "" {
			title = ticker + " thesis is " + daysText(days) + " old"
		}

		chips := types.Chips(
			types.Chip{Label: "Ticker", Value: ticker},
			daysChip("Last update", days),
			types.Chip{Label: "Author", Value: l.update.CreatedBy},
		)
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalThesisStale, assetID),
			SignalType:   types.SignalThesisStale,
			Surface:      types.SurfaceAction,
			Severity:     severity,
			Category:     "research",
			TitleKey:     types.TitleThesisStale,
			Title:        title,
			Description:  "Review the thesis and confirm it still reflects the position.",
			Chips:        chips,
			Context:      types.EntityRef{Asset: assetRef(in, assetID)},
			CTAs:         primaryCTA("Update thesis", "thesis.update", map[string]string{"asset_id": assetID}),
			Dismissible:  true,
			DecisionTier: types.TierCoverage,
			CreatedAt:    l.at,
		})
	}
	return out
}
