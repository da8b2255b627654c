package engine

import (
	"errors"
	"testing"

	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/stretchr/testify/assert"
)

func signalItem(id string, signal types.SignalType, assetID, ideaID string) types.DecisionItem {
	ctx := types.EntityRef{}
	if assetID != "" {
		ctx.Asset = &types.AssetRef{AssetID: assetID}
	}
	if ideaID != "" {
		ctx.TradeIdea = &types.TradeIdeaRef{TradeIdeaID: ideaID}
	}
	return types.DecisionItem{ID: id, SignalType: signal, Surface: types.SurfaceAction, Severity: types.SeverityOrange, Context: ctx}
}

func TestSuppressIdleWhenAssetHasActivity(t *testing.T) {
	items := []types.DecisionItem{
		signalItem("asset-idle-a1", types.SignalAssetIdle, "a1", ""),
		signalItem("execution-pending-t1", types.SignalExecutionPending, "a1", "t1"),
		signalItem("asset-idle-a2", types.SignalAssetIdle, "a2", ""),
	}
	out := Suppress(items, DefaultSuppressionRules())
	assert.Equal(t, []string{"execution-pending-t1", "asset-idle-a2"}, ids(out))
}

func TestSuppressAwaitingScopedToTradeIdea(t *testing.T) {
	items := []types.DecisionItem{
		signalItem("proposal-awaiting-p1", types.SignalProposalAwaiting, "a1", "t1"),
		signalItem("proposal-awaiting-p2", types.SignalProposalAwaiting, "a1", "t2"),
		signalItem("execution-pending-t1", types.SignalExecutionPending, "a1", "t1"),
	}
	out := Suppress(items, DefaultSuppressionRules())
	assert.Equal(t, []string{"proposal-awaiting-p2", "execution-pending-t1"}, ids(out))
}

func pairItem(id string, signal types.SignalType, assetID, ideaID, pairID string) types.DecisionItem {
	item := signalItem(id, signal, assetID, ideaID)
	item.Context.TradeIdea.PairID = pairID
	return item
}

func TestSuppressAwaitingAcrossPairLegs(t *testing.T) {
	cases := []struct {
		name  string
		items []types.DecisionItem
		want  []string
	}{
		{
			name: "proposal on the other leg",
			items: []types.DecisionItem{
				pairItem("execution-pending-t1", types.SignalExecutionPending, "aapl", "t1", "P"),
				pairItem("proposal-awaiting-p1", types.SignalProposalAwaiting, "aapl", "t1", "P"),
				pairItem("proposal-awaiting-p2", types.SignalProposalAwaiting, "msft", "t2", "P"),
			},
			want: []string{"execution-pending-t1"},
		},
		{
			name: "different pair on the same assets",
			items: []types.DecisionItem{
				pairItem("execution-pending-t1", types.SignalExecutionPending, "aapl", "t1", "P"),
				pairItem("proposal-awaiting-p3", types.SignalProposalAwaiting, "msft", "t3", "Q"),
			},
			want: []string{"execution-pending-t1", "proposal-awaiting-p3"},
		},
		{
			name: "single idea is not part of the pair",
			items: []types.DecisionItem{
				pairItem("execution-pending-t1", types.SignalExecutionPending, "aapl", "t1", "P"),
				signalItem("proposal-awaiting-p4", types.SignalProposalAwaiting, "aapl", "t4"),
			},
			want: []string{"execution-pending-t1", "proposal-awaiting-p4"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Suppress(tc.items, DefaultSuppressionRules())))
		})
	}
}

func TestTradeKey(t *testing.T) {
	assert.Equal(t, "", TradeKey(signalItem("x", types.SignalAssetIdle, "a1", "")))
	assert.Equal(t, "idea:t1", TradeKey(signalItem("x", types.SignalExecutionPending, "a1", "t1")))
	assert.Equal(t, "pair:P", TradeKey(pairItem("x", types.SignalExecutionPending, "a1", "t1", "P")))
}

func TestSuppressKeepsIndependentSignals(t *testing.T) {
	items := []types.DecisionItem{
		signalItem("proposal-stalled-p1", types.SignalProposalStalled, "a1", "t1"),
		signalItem("rating-followup-a1-r1", types.SignalRatingFollowUp, "a1", ""),
	}
	out := Suppress(items, DefaultSuppressionRules())
	assert.Len(t, out, 2)
}

func TestSuppressIgnoresItemsWithoutAsset(t *testing.T) {
	items := []types.DecisionItem{
		signalItem("asset-idle-x", types.SignalAssetIdle, "", ""),
		signalItem("execution-pending-t1", types.SignalExecutionPending, "", "t1"),
	}
	assert.Len(t, Suppress(items, DefaultSuppressionRules()), 2)
}

func TestSuppressTriggersUseUnsuppressedGroup(t *testing.T) {
	rules := []SuppressionRule{
		{Name: "a", Suppress: types.SignalProposalAwaiting, When: []types.SignalType{types.SignalExecutionPending}, Scope: ScopeAsset},
		{Name: "b", Suppress: types.SignalIdeaUnsimulated, When: []types.SignalType{types.SignalProposalAwaiting}, Scope: ScopeAsset},
	}
	items := []types.DecisionItem{
		signalItem("execution-pending-t1", types.SignalExecutionPending, "a1", "t1"),
		signalItem("proposal-awaiting-p1", types.SignalProposalAwaiting, "a1", "t2"),
		signalItem("idea-unsimulated-t3", types.SignalIdeaUnsimulated, "a1", "t3"),
	}
	out := Suppress(items, rules)
	assert.Equal(t, []string{"execution-pending-t1"}, ids(out))
}

func TestValidateRules(t *testing.T) {
	assert.NoError(t, ValidateRules(DefaultSuppressionRules()))

	for _, pair := range [][2]types.SignalType{
		{types.SignalProposalStalled, types.SignalRatingFollowUp},
		{types.SignalRatingFollowUp, types.SignalProposalStalled},
	} {
		err := ValidateRules([]SuppressionRule{{Name: "x", Suppress: pair[0], When: []types.SignalType{pair[1]}, Scope: ScopeAsset}})
		if !errors.Is(err, ErrIndependentSignals) {
			t.Fatalf("expected ErrIndependentSignals for %s/%s, got %v", pair[0], pair[1], err)
		}
	}

	assert.Error(t, ValidateRules([]SuppressionRule{{Name: "empty", Scope: ScopeAsset}}))
	assert.Error(t, ValidateRules([]SuppressionRule{{Name: "scope", Suppress: types.SignalAssetIdle, When: []types.SignalType{types.SignalIdeaUnsimulated}, Scope: "portfolio"}}))
}
