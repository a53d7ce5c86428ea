package scoring

import (
	"math"

	"github.com/sawpanic/equityrun/internal/models"
)

// InputsFrom derives the canonical sub-score values from an enriched
// candidate. A sub-score whose underlying feature group is absent maps to
// nil and is reweighted away by the engine, never defaulted.
func InputsFrom(c models.EnrichedCandidate) map[models.Subscore]*float64 {
	out := make(map[models.Subscore]*float64)

	if v, ok := volumeMomentum(c); ok {
		out[models.SubscoreVolumeMomentum] = Ptr(v)
	}
	if v, ok := squeeze(c); ok {
		out[models.SubscoreSqueeze] = Ptr(v)
	}
	if c.CatalystFreshness.OK {
		out[models.SubscoreCatalyst] = Ptr(clamp(c.CatalystFreshness.Value, 0, 100))
	}
	if c.Sentiment.OK {
		out[models.SubscoreSentiment] = Ptr(clamp(c.Sentiment.Value, 0, 100))
	}
	if c.OptionsActivity.OK {
		out[models.SubscoreOptions] = Ptr(clamp(c.OptionsActivity.Value, 0, 100))
	}
	if v, ok := technical(c); ok {
		out[models.SubscoreTechnical] = Ptr(v)
	}
	return out
}

// volumeMomentum blends relative volume, daily change and trend
// persistence. Requires at least one relative-volume baseline.
func volumeMomentum(c models.EnrichedCandidate) (float64, bool) {
	var relvol float64
	switch {
	case c.RelVolumeTOD.OK:
		relvol = c.RelVolumeTOD.Value
	case c.RelVolume30d.OK:
		relvol = c.RelVolume30d.Value
	default:
		return 0, false
	}

	trend := math.Min(float64(c.UptrendDays)/5.0, 1.0)
	if c.UptrendSustained {
		trend = 1.0
	}

	score := math.Min(relvol/5.0, 1.0) * 70.0
	score += math.Min(math.Max(c.PctChange, 0)/10.0, 1.0) * 20.0
	score += trend * 10.0
	return clamp(score, 0, 100), true
}

// squeeze is driven by short-interest friction, with float rotation as a
// secondary input when present.
func squeeze(c models.EnrichedCandidate) (float64, bool) {
	if !c.SqueezeFriction.OK {
		return 0, false
	}
	score := c.SqueezeFriction.Value
	if c.FloatRotation.OK {
		score = 0.7*score + 0.3*c.FloatRotation.Value
	}
	return clamp(score, 0, 100), true
}

// technical blends VWAP adherence, an ATR volatility-expansion band and an
// RSI momentum band, renormalized over whichever are present.
func technical(c models.EnrichedCandidate) (float64, bool) {
	if !c.VWAPAdherence.OK && !c.ATRPct.OK && !c.RSI.OK {
		return 0, false
	}

	var score, weight float64
	if c.VWAPAdherence.OK {
		score += 0.6 * clamp(c.VWAPAdherence.Value, 0, 100)
		weight += 0.6
	}
	if c.ATRPct.OK {
		score += 0.4 * atrBandScore(c.ATRPct.Value)
		weight += 0.4
	}
	if c.RSI.OK {
		score += 0.2 * rsiBandScore(c.RSI.Value)
		weight += 0.2
	}
	return clamp(score/weight, 0, 100), true
}

// rsiBandScore rewards confirmed momentum and discounts both flat and
// already-overbought readings.
func rsiBandScore(rsi float64) float64 {
	switch {
	case rsi >= 55 && rsi <= 75:
		return 100.0
	case rsi > 75 && rsi <= 85:
		return 70.0
	case rsi >= 45 && rsi < 55:
		return 50.0
	case rsi > 85:
		return 30.0
	default:
		return 20.0
	}
}

// atrBandScore rewards the volatility sweet spot: enough range to move,
// not so much the move is already disorderly.
func atrBandScore(atrPct float64) float64 {
	switch {
	case atrPct >= 4.0 && atrPct <= 12.0:
		return 100.0
	case atrPct >= 2.0 && atrPct < 4.0:
		return 60.0
	case atrPct > 12.0 && atrPct <= 20.0:
		return 50.0
	default:
		return 20.0
	}
}
