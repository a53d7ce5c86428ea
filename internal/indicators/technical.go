package indicators

import "math"

// Bar represents a single OHLCV bar, chronological order, most recent last.
type Bar struct {
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Value is a computed indicator value. Valid is false when the input was
// insufficient to compute the indicator; Value must not be used in that case.
type Value struct {
	Value     float64 `json:"value"`
	Valid     bool    `json:"valid"`
	DataCount int     `json:"data_count"`
}

func invalid(n int) Value {
	return Value{Valid: false, DataCount: n}
}

// VWAP computes the volume-weighted average of typical price (h+l+c)/3 over
// the given bars. Invalid when the bar set is empty or total volume is zero.
func VWAP(bars []Bar) Value {
	if len(bars) == 0 {
		return invalid(0)
	}
	var pv, vol float64
	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3.0
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return invalid(len(bars))
	}
	return Value{Value: pv / vol, Valid: true, DataCount: len(bars)}
}

// EMA computes an exponential moving average with k = 2/(period+1).
// Requires at least period data points.
func EMA(series []float64, period int) Value {
	if period <= 0 || len(series) < period {
		return invalid(len(series))
	}
	// Seed with SMA of the first period values, then smooth forward.
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += series[i]
	}
	ema := seed / float64(period)
	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(series); i++ {
		ema = series[i]*k + ema*(1.0-k)
	}
	return Value{Value: ema, Valid: true, DataCount: len(series)}
}

// RSI computes Wilder's Relative Strength Index over closing prices.
// Requires period+1 closes. Returns 100 when the average loss is zero.
func RSI(closes []float64, period int) Value {
	if period <= 0 || len(closes) < period+1 {
		return invalid(len(closes))
	}
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for the remainder of the series.
	alpha := 1.0 / float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = avgGain*(1-alpha) + gains[i]*alpha
		avgLoss = avgLoss*(1-alpha) + losses[i]*alpha
	}

	if avgLoss == 0 {
		return Value{Value: 100.0, Valid: true, DataCount: len(closes)}
	}
	rs := avgGain / avgLoss
	return Value{Value: 100.0 - (100.0 / (1.0 + rs)), Valid: true, DataCount: len(closes)}
}

// ATRPercent computes the Wilder-smoothed Average True Range over daily bars,
// expressed as a percentage of the latest close. Requires period+1 bars.
func ATRPercent(bars []Bar, period int) Value {
	if period <= 0 || len(bars) < period+1 {
		return invalid(len(bars))
	}
	trs := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		trs[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)
	alpha := 1.0 / float64(period)
	for i := period; i < len(trs); i++ {
		atr = atr*(1-alpha) + trs[i]*alpha
	}

	lastClose := bars[len(bars)-1].Close
	if lastClose <= 0 {
		return invalid(len(bars))
	}
	return Value{Value: atr / lastClose * 100.0, Valid: true, DataCount: len(bars)}
}

// BollingerBands is the SMA ± stdDev band set for a price series.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Valid  bool    `json:"valid"`
}

// Bollinger computes simple-moving-average Bollinger Bands over the most
// recent period prices.
func Bollinger(prices []float64, period int, stdDev float64) BollingerBands {
	if period <= 0 || len(prices) < period {
		return BollingerBands{}
	}
	window := prices[len(prices)-period:]
	var sum float64
	for _, p := range window {
		sum += p
	}
	mean := sum / float64(period)

	var variance float64
	for _, p := range window {
		variance += (p - mean) * (p - mean)
	}
	sigma := math.Sqrt(variance / float64(period))

	return BollingerBands{
		Upper:  mean + stdDev*sigma,
		Middle: mean,
		Lower:  mean - stdDev*sigma,
		Valid:  true,
	}
}

// Momentum computes the percentage rate of change between the latest price
// and the price period steps back.
func Momentum(prices []float64, period int) Value {
	if period <= 0 || len(prices) < period+1 {
		return invalid(len(prices))
	}
	base := prices[len(prices)-1-period]
	if base == 0 {
		return invalid(len(prices))
	}
	return Value{
		Value:     (prices[len(prices)-1] - base) / base * 100.0,
		Valid:     true,
		DataCount: len(prices),
	}
}

// Sustained reports whether at least minFraction of the most recent window
// entries are true. A series shorter than window is never sustained; partial
// windows are not approximated.
func Sustained(series []bool, window int, minFraction float64) bool {
	if window <= 0 || len(series) < window {
		return false
	}
	hits := 0
	for _, ok := range series[len(series)-window:] {
		if ok {
			hits++
		}
	}
	return float64(hits)/float64(window) >= minFraction
}

// RelVolSeries computes the element-wise ratio of today's cumulative volume
// curve against a reference cumulative curve, aligned by time-of-day bucket.
// Buckets with zero reference volume yield a ratio of zero.
func RelVolSeries(cumToday, cumReference []float64) []float64 {
	n := len(cumToday)
	if len(cumReference) < n {
		n = len(cumReference)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if cumReference[i] > 0 {
			out[i] = cumToday[i] / cumReference[i]
		}
	}
	return out
}
