package evaluator

import (
	"strconv"
	"strings"
	"time"

	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/shopspring/decimal"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// daysSince is floor((now - t) / 24h), clamped at zero for future timestamps.
func daysSince(now, t time.Time) int {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func itemID(signal types.SignalType, entityID string, subkeys ...string) string {
	parts := append([]string{string(signal), entityID}, subkeys...)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "-")
}

func daysChip(label string, days int) types.Chip {
	return types.Chip{Label: label, Value: strconv.Itoa(days) + "d"}
}

func weightChip(label string, w decimal.NullDecimal) types.Chip {
	if !w.Valid {
		return types.Chip{Label: label}
	}
	return types.Chip{Label: label, Value: w.Decimal.StringFixed(2) + "%"}
}

func assetRef(in Input, assetID string) *types.AssetRef {
	if assetID == "" {
		return nil
	}
	return &types.AssetRef{AssetID: assetID, Ticker: in.Ticker(assetID)}
}

func portfolioRef(in Input, portfolioID string) *types.PortfolioRef {
	if portfolioID == "" {
		return nil
	}
	return &types.PortfolioRef{PortfolioID: portfolioID, Name: in.PortfolioName(portfolioID)}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func daysText(n int) string {
	return strconv.Itoa(n) + " " + plural(n, "day", "days")
}

func primaryCTA(label, actionKey string, payload map[string]string) []types.CTA {
	return []types.CTA{{Label: label, ActionKey: actionKey, Kind: "primary", Payload: payload}}
}
