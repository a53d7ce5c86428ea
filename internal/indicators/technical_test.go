package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVWAP(t *testing.T) {
	bars := []Bar{
		{High: 11, Low: 9, Close: 10, Volume: 100},
		{High: 13, Low: 11, Close: 12, Volume: 300},
	}
	v := VWAP(bars)
	require.True(t, v.Valid)
	// typical prices 10 and 12, weighted 100/300
	assert.InDelta(t, (10.0*100+12.0*300)/400.0, v.Value, 1e-9)
}

func TestVWAP_ZeroVolume(t *testing.T) {
	bars := []Bar{{High: 11, Low: 9, Close: 10, Volume: 0}}
	assert.False(t, VWAP(bars).Valid)
	assert.False(t, VWAP(nil).Valid)
}

func TestEMA_InsufficientData(t *testing.T) {
	assert.False(t, EMA([]float64{1, 2}, 3).Valid)
}

func TestEMA_ConstantSeries(t *testing.T) {
	series := []float64{5, 5, 5, 5, 5, 5}
	v := EMA(series, 3)
	require.True(t, v.Valid)
	assert.InDelta(t, 5.0, v.Value, 1e-9)
}

func TestRSI_AllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	v := RSI(closes, 14)
	require.True(t, v.Valid)
	assert.Equal(t, 100.0, v.Value)
}

func TestRSI_Mixed(t *testing.T) {
	closes := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28}
	v := RSI(closes, 14)
	require.True(t, v.Valid)
	assert.Greater(t, v.Value, 0.0)
	assert.Less(t, v.Value, 100.0)
}

func TestRSI_InsufficientData(t *testing.T) {
	assert.False(t, RSI([]float64{1, 2, 3}, 14).Valid)
}

func TestATRPercent(t *testing.T) {
	bars := make([]Bar, 0, 15)
	for i := 0; i < 15; i++ {
		bars = append(bars, Bar{High: 102, Low: 98, Close: 100})
	}
	v := ATRPercent(bars, 14)
	require.True(t, v.Valid)
	// constant 4-point true range on a 100 close
	assert.InDelta(t, 4.0, v.Value, 1e-9)
}

func TestATRPercent_InsufficientBars(t *testing.T) {
	bars := []Bar{{High: 1, Low: 1, Close: 1}}
	assert.False(t, ATRPercent(bars, 14).Valid)
}

func TestBollinger(t *testing.T) {
	prices := []float64{20, 21, 22, 23, 24}
	b := Bollinger(prices, 5, 2.0)
	require.True(t, b.Valid)
	assert.InDelta(t, 22.0, b.Middle, 1e-9)
	assert.Greater(t, b.Upper, b.Middle)
	assert.Less(t, b.Lower, b.Middle)
}

func TestBollinger_InsufficientData(t *testing.T) {
	assert.False(t, Bollinger([]float64{1, 2}, 20, 2.0).Valid)
}

func TestMomentum(t *testing.T) {
	prices := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
	v := Momentum(prices, 10)
	require.True(t, v.Valid)
	assert.InDelta(t, 10.0, v.Value, 1e-9)
}

func TestSustained(t *testing.T) {
	series := []bool{true, true, false, true, true}
	assert.True(t, Sustained(series, 5, 0.8))
	assert.False(t, Sustained(series, 5, 0.9))
	// short series never qualifies
	assert.False(t, Sustained([]bool{true, true}, 5, 0.1))
}

func TestRelVolSeries(t *testing.T) {
	today := []float64{100, 300, 600}
	ref := []float64{50, 100, 0}
	out := RelVolSeries(today, ref)
	require.Len(t, out, 3)
	assert.InDelta(t, 2.0, out[0], 1e-9)
	assert.InDelta(t, 3.0, out[1], 1e-9)
	assert.Equal(t, 0.0, out[2])
}
