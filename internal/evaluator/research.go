package evaluator

import (
	"time"

	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
)

// RatingFollowUp flags rating changes that were never followed by a thesis update.
type RatingFollowUp struct {
	Ramp policy.Ramp
}

func (RatingFollowUp) Name() string { return string(types.SignalRatingFollowUp) }

func (e RatingFollowUp) Evaluate(in Input, now time.Time) []types.DecisionItem {
	type latest struct {
		change types.RatingChange
		at     time.Time
	}
	byAsset := map[string]latest{}
	for _, c := range in.Snapshot.RatingChanges {
		if c.AssetID == "" {
			continue
		}
		at, ok := parseTime(c.ChangedAt)
		if !ok {
			continue
		}
		cur, seen := byAsset[c.AssetID]
		if !seen || at.After(cur.at) || (at.Equal(cur.at) && c.ID > cur.change.ID) {
			byAsset[c.AssetID] = latest{change: c, at: at}
		}
	}

	out := []types.DecisionItem{}
	for _, assetID := range sortedKeys(byAsset) {
		l := byAsset[assetID]
		if in.ThesisUpdatedSince(assetID, l.at) {
			continue
		}
		days := daysSince(now, l.at)
		severity, ok := e.Ramp.Classify(days)
		if !ok {
			continue
		}

		ticker := in.Ticker(assetID)
		title := "Rating changed without thesis follow-up"
		if ticker != "" {
			title = ticker + " rating changed without thesis follow-up"
		}
		rating := l.change.Rating
		if l.change.PreviousRating != "" && rating != "" {
			rating = l.change.PreviousRating + " → " + rating
		}
		chips := types.Chips(
			types.Chip{Label: "Ticker", Value: ticker},
			types.Chip{Label: "Rating", Value: rating},
			daysChip("Changed", days),
			types.Chip{Label: "Analyst", Value: l.change.ChangedBy},
		)
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalRatingFollowUp, assetID, l.change.ID),
			SignalType:   types.SignalRatingFollowUp,
			Surface:      types.SurfaceAction,
			Severity:     severity,
			Category:     "research",
			TitleKey:     types.TitleRatingFollowUp,
			Title:        title,
			Description:  "Document why the rating moved " + daysText(days) + " ago.",
			Chips:        chips,
			Context:      types.EntityRef{Asset: assetRef(in, assetID)},
			CTAs:         primaryCTA("Write follow-up", "thesis.update", map[string]string{"asset_id": assetID}),
			Dismissible:  true,
			DecisionTier: types.TierCoverage,
			CreatedAt:    l.at,
		})
	}
	return out
}

// AssetIdle notes covered assets with no idea in the research pipeline.
type AssetIdle struct{}

func (AssetIdle) Name() string { return string(types.SignalAssetIdle) }

func (AssetIdle) Evaluate(in Input, now time.Time) []types.DecisionItem {
	active := map[string]bool{}
	lastClosed := map[string]time.Time{}
	for _, t := range in.Snapshot.TradeIdeas {
		if t.AssetID == "" {
			continue
		}
		if !t.Terminal() {
			switch t.Stage {
			case types.StageIdea, types.StageSimulating, types.StageDeciding:
				active[t.AssetID] = true
			}
			continue
		}
		stamp := t.UpdatedAt
		if stamp == "" {
			stamp = t.CreatedAt
		}
		if at, ok := parseTime(stamp); ok && at.After(lastClosed[t.AssetID]) {
			lastClosed[t.AssetID] = at
		}
	}

	assets := map[string]types.Asset{}
	for _, a := range in.Snapshot.Assets {
		if a.ID == "" || (!a.Covered && a.Rating == "") {
			continue
		}
		assets[a.ID] = a
	}

	out := []types.DecisionItem{}
	for _, assetID := range sortedKeys(assets) {
		if active[assetID] {
			continue
		}
		a := assets[assetID]

		since, ok := lastClosed[assetID]
		if !ok {
			since, ok = parseTime(a.CreatedAt)
		}
		if !ok {
			since = now
		}

		title := "No active idea"
		if a.Ticker != "" {
			title = "No active idea on " + a.Ticker
		}
		chips := types.Chips(
			types.Chip{Label: "Ticker", Value: a.Ticker},
			types.Chip{Label: "Rating", Value: a.Rating},
			daysChip("Idle", daysSince(now, since)),
		)
		out = append(out, types.DecisionItem{
			ID:           itemID(types.SignalAssetIdle, assetID),
			SignalType:   types.SignalAssetIdle,
			Surface:      types.SurfaceIntel,
			Severity:     types.SeverityGray,
			Category:     "coverage",
			TitleKey:     types.TitleNoActiveIdea,
			Title:        title,
			Description:  "Covered asset with nothing in the idea pipeline.",
			Chips:        chips,
			Context:      types.EntityRef{Asset: assetRef(in, assetID)},
			CTAs:         primaryCTA("Add idea", "idea.create", map[string]string{"asset_id": assetID}),
			Dismissible:  true,
			DecisionTier: types.TierCoverage,
			CreatedAt:    since,
		})
	}
	return out
}
