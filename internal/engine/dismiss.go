package engine

import (
	"time"

	"github.com/davidahmann/tradedesk/pkg/types"
)

// ActiveDismissals returns the item ids dismissed as of now. Dismissals with an
// unparsable until are ignored.
func ActiveDismissals(dismissals []types.Dismissal, now time.Time) map[string]bool {
	active := map[string]bool{}
	for _, d := range dismissals {
		if d.ItemID == "" {
			continue
		}
		if d.Until != "" {
			until, err := time.Parse(time.RFC3339, d.Until)
			if err != nil || !until.After(now) {
				continue
			}
		}
		active[d.ItemID] = true
	}
	return active
}

// FilterDismissed drops dismissible items the user has dismissed.
func FilterDismissed(items []types.DecisionItem, dismissals []types.Dismissal, now time.Time) []types.DecisionItem {
	active := ActiveDismissals(dismissals, now)
	if len(active) == 0 {
		return items
	}
	out := make([]types.DecisionItem, 0, len(items))
	for _, item := range items {
		if item.Dismissible && active[item.ID] {
			continue
		}
		out = append(out, item)
	}
	return out
}
