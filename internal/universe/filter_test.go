package universe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

func gateConfig() config.UniverseConfig {
	return config.UniverseConfig{
		MinPrice:          1.0,
		MaxPrice:          100.0,
		MinVolume:         500000,
		MinVolumeRatio:    1.5,
		MaxVolumeRatio:    25.0,
		MaxSymbolLength:   5,
		ChangeGateEnabled: true,
		MinAbsPctChange:   2.0,
		MaxAbsPctChange:   75.0,
	}
}

func snapshot(symbol string, price float64, volume, prevVolume int64, pctChange float64) models.TickerSnapshot {
	return models.TickerSnapshot{
		Symbol:        symbol,
		Price:         price,
		Volume:        volume,
		PrevDayVolume: prevVolume,
		PctChange:     pctChange,
		DataTimestamp: time.Now(),
	}
}

func TestFilter_KeepAndReject(t *testing.T) {
	input := []models.TickerSnapshot{
		snapshot("ABCD", 5.0, 10_000_000, 1_000_000, 8.0),  // keeps
		snapshot("PENY", 0.10, 10_000_000, 1_000_000, 8.0), // price too low
		snapshot("QUIE", 20.0, 1_100_000, 1_000_000, 8.0),  // ratio 1.1 too low
	}

	res := Filter(input, gateConfig())

	require.Len(t, res.Kept, 1)
	assert.Equal(t, "ABCD", res.Kept[0].Symbol)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, ReasonPriceTooLow, res.Rejected[0].Reason)
	assert.Equal(t, ReasonRatioTooLow, res.Rejected[1].Reason)
	assert.Equal(t, 1, res.Counts[ReasonPriceTooLow])
	assert.Equal(t, 1, res.Counts[ReasonRatioTooLow])
}

func TestFilter_ZeroPriceRejectedFirst(t *testing.T) {
	s := snapshot("", 0, 10_000_000, 1_000_000, 8.0)
	res := Filter([]models.TickerSnapshot{s}, gateConfig())
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, ReasonNoPrice, res.Rejected[0].Reason)
}

func TestFilter_SymbolFormat(t *testing.T) {
	cases := []string{"", "TOOLONGG", "BRK.A", "ABC-W", "abcd", "ABCDW", "ABCDU", "ABCDR"}
	for _, sym := range cases {
		res := Filter([]models.TickerSnapshot{snapshot(sym, 5.0, 10_000_000, 1_000_000, 8.0)}, gateConfig())
		require.Len(t, res.Rejected, 1, "symbol %q", sym)
		assert.Equal(t, ReasonSymbolFormat, res.Rejected[0].Reason, "symbol %q", sym)
	}
}

func TestFilter_VolumeRatioTooHigh(t *testing.T) {
	s := snapshot("ABCD", 5.0, 30_000_000, 1_000_000, 8.0) // ratio 30
	res := Filter([]models.TickerSnapshot{s}, gateConfig())
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, ReasonRatioTooHigh, res.Rejected[0].Reason)
}

func TestFilter_ZeroPrevDayVolumeUsesFloorOfOne(t *testing.T) {
	s := snapshot("ABCD", 5.0, 10_000_000, 0, 8.0) // ratio 10M, stale spike
	res := Filter([]models.TickerSnapshot{s}, gateConfig())
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, ReasonRatioTooHigh, res.Rejected[0].Reason)
}

func TestFilter_ChangeBand(t *testing.T) {
	flat := snapshot("ABCD", 5.0, 10_000_000, 1_000_000, 0.5)
	exhausted := snapshot("WXYZ", 5.0, 10_000_000, 1_000_000, -90.0)
	res := Filter([]models.TickerSnapshot{flat, exhausted}, gateConfig())
	assert.Empty(t, res.Kept)
	assert.Equal(t, 2, res.Counts[ReasonChangeOutOfBand])
}

func TestFilter_ChangeGateDisabled(t *testing.T) {
	cfg := gateConfig()
	cfg.ChangeGateEnabled = false
	res := Filter([]models.TickerSnapshot{snapshot("ABCD", 5.0, 10_000_000, 1_000_000, 0.1)}, cfg)
	assert.Len(t, res.Kept, 1)
}

func TestFilter_Idempotent(t *testing.T) {
	input := []models.TickerSnapshot{
		snapshot("ABCD", 5.0, 10_000_000, 1_000_000, 8.0),
		snapshot("PENY", 0.10, 10_000_000, 1_000_000, 8.0),
		snapshot("SPY", 45.0, 90_000_000, 60_000_000, 3.0),
	}
	first := Filter(input, gateConfig())
	second := Filter(input, gateConfig())
	assert.Equal(t, first, second)
}

func TestIsFund(t *testing.T) {
	cases := []struct {
		name string
		snap models.TickerSnapshot
		want bool
	}{
		{"static etf", models.TickerSnapshot{Symbol: "SPY"}, true},
		{"leveraged", models.TickerSnapshot{Symbol: "TQQQ"}, true},
		{"asset type", models.TickerSnapshot{Symbol: "ABCD", AssetType: "ETF"}, true},
		{"name keyword", models.TickerSnapshot{Symbol: "ABCD", Name: "Ultra Semiconductor 3x Shares"}, true},
		{"issuer keyword", models.TickerSnapshot{Symbol: "ABCD", Issuer: "Direxion Funds"}, true},
		{"plain company", models.TickerSnapshot{Symbol: "ABCD", Name: "Acme Therapeutics Inc"}, false},
		{"no metadata keeps", models.TickerSnapshot{Symbol: "ABCD"}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsFund(tc.snap), tc.name)
	}
}

func TestFundHeuristic_Conservative(t *testing.T) {
	// Huge float, no earnings, no corporate marker, no name: keep.
	huge := models.TickerSnapshot{Symbol: "ABCD", SharesOut: 5_000_000_000}
	assert.False(t, IsFund(huge))

	// Corporate marker vetoes the heuristic even with a huge float.
	corp := models.TickerSnapshot{Symbol: "ABCD", SharesOut: 5_000_000_000, Name: "Mega Widgets Corp"}
	assert.False(t, IsFund(corp))

	// Earnings date vetoes it too.
	withEarnings := models.TickerSnapshot{Symbol: "ABCD", SharesOut: 5_000_000_000, Name: "Ambiguous Shares", HasEarnings: true}
	assert.False(t, IsFund(withEarnings))

	// All three conditions agree: flag.
	fundish := models.TickerSnapshot{Symbol: "ABCD", SharesOut: 5_000_000_000, Name: "Ambiguous Shares"}
	assert.True(t, IsFund(fundish))
}
