package snapshot

import (
	"strings"
	"testing"

	"github.com/davidahmann/tradedesk/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
  "assets": [{"id": "a1", "ticker": "AAPL", "covered": true}],
  "thesis_updates": [{"id": "u1", "asset_id": "a1", "updated_at": "2026-03-01T00:00:00Z"}],
  "trade_ideas": [{"id": "t1", "asset_id": "a1", "stage": "idea", "created_at": "2026-10-10T00:00:00Z", "proposed_weight": "1.25"}],
  "extra": {"ignored": true}
}`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/snapshot.json", []byte(sampleSnapshot), 0o644))

	snap, err := Load(fs, "/data/snapshot.json")
	require.NoError(t, err)
	require.Len(t, snap.Assets, 1)
	assert.Equal(t, "AAPL", snap.Assets[0].Ticker)
	require.Len(t, snap.TradeIdeas, 1)
	assert.True(t, snap.TradeIdeas[0].ProposedWeight.Valid)
	assert.True(t, snap.TradeIdeas[0].ProposedWeight.Decimal.Equal(decimal.RequireFromString("1.25")))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/missing.json")
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"assets": [`))
	assert.Error(t, err)
}

func TestIDDeterministic(t *testing.T) {
	a, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	b, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)

	idA, err := ID(a)
	require.NoError(t, err)
	idB, err := ID(b)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
	assert.True(t, strings.HasPrefix(idA, "sha256:"))

	b.TradeIdeas[0].Stage = types.StageSimulating
	idC, err := ID(b)
	require.NoError(t, err)
	assert.NotEqual(t, idA, idC)
}
