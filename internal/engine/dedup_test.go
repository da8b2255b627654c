package engine

import (
	"testing"

	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func thesisItem(id, assetID string, sev types.Severity) types.DecisionItem {
	return types.DecisionItem{
		ID:           id,
		SignalType:   types.SignalThesisStale,
		Surface:      types.SurfaceAction,
		Severity:     sev,
		Category:     "research",
		TitleKey:     types.TitleThesisStale,
		Context:      types.EntityRef{Asset: &types.AssetRef{AssetID: assetID}},
		DecisionTier: types.TierCoverage,
	}
}

func TestDedupKeepsHigherSeverityInAnyOrder(t *testing.T) {
	orange := thesisItem("thesis-stale-a1", "a1", types.SeverityOrange)
	red := thesisItem("thesis-stale-a1-legacy", "a1", types.SeverityRed)

	for _, in := range [][]types.DecisionItem{{orange, red}, {red, orange}} {
		out := Dedup(in)
		require.Len(t, out, 1)
		assert.Equal(t, types.SeverityRed, out[0].Severity)
	}
}

func TestDedupTieKeepsSmallerID(t *testing.T) {
	a := thesisItem("thesis-stale-a1-b", "a1", types.SeverityOrange)
	b := thesisItem("thesis-stale-a1-a", "a1", types.SeverityOrange)

	assert.Equal(t, "thesis-stale-a1-a", Dedup([]types.DecisionItem{a, b})[0].ID)
	assert.Equal(t, "thesis-stale-a1-a", Dedup([]types.DecisionItem{b, a})[0].ID)
}

func TestDedupIsIdempotent(t *testing.T) {
	in := []types.DecisionItem{
		thesisItem("thesis-stale-a1", "a1", types.SeverityOrange),
		thesisItem("thesis-stale-a2", "a2", types.SeverityRed),
		thesisItem("thesis-stale-a1-x", "a1", types.SeverityRed),
		thesisItem("thesis-stale-a3", "a3", types.SeverityGray),
	}
	once := Dedup(in)
	twice := Dedup(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second dedup changed output (-once +twice):\n%s", diff)
	}
	assert.Equal(t, []string{"thesis-stale-a1-x", "thesis-stale-a2", "thesis-stale-a3"}, ids(once))
}

func TestDedupKeyFieldsAndFallback(t *testing.T) {
	item := types.DecisionItem{
		ID:       "proposal-awaiting-p-17",
		Category: "capital",
		Context: types.EntityRef{
			Asset:     &types.AssetRef{AssetID: "a1"},
			Proposal:  &types.ProposalRef{ProposalID: "p-17"},
			TradeIdea: &types.TradeIdeaRef{TradeIdeaID: "t1"},
		},
	}
	assert.Equal(t, "proposal-awaiting|capital|asset=a1|proposal=p-17|trade_idea=t1", DedupKey(item))

	item.SignalType = types.SignalProposalStalled
	assert.Equal(t, "proposal-stalled|capital|asset=a1|proposal=p-17|trade_idea=t1", DedupKey(item))
}

func TestDedupKeepsDistinctSignalsOnSameAsset(t *testing.T) {
	idle := thesisItem("asset-idle-a1", "a1", types.SeverityGray)
	idle.SignalType = types.SignalAssetIdle
	out := Dedup([]types.DecisionItem{thesisItem("thesis-stale-a1", "a1", types.SeverityRed), idle})
	assert.Len(t, out, 2)
}
