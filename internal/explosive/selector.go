// Package explosive implements the stricter shortlist path: absolute hard
// guards, a soft additive gate score (EGS), a geometric-mean rank (SER) and
// an elastic tier fallback that guarantees a target count without ever
// relaxing the hard floor.
package explosive

import (
	"math"
	"sort"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

// SER factor exponents. They sum to 1.0 so the rank stays on a 0-100 scale.
var serExponents = []float64{0.25, 0.20, 0.20, 0.15, 0.10, 0.10}

// serFactorFloor keeps the geometric mean defined when a factor is missing
// or zero. A near-zero factor still crushes the rank multiplicatively.
const serFactorFloor = 0.02

// Selector ranks guard-surviving candidates and applies elastic fallback.
type Selector struct {
	cfg config.ExplosiveConfig
}

// NewSelector creates an explosive shortlist selector.
func NewSelector(cfg config.ExplosiveConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select applies hard guards, scores survivors, and elastically relaxes the
// soft tier floor (Prime, Strong, Elastic) until the target minimum is met.
// The hard floor itself is never relaxed: on a quiet tape the shortlist
// shrinks, possibly to empty, rather than admitting sub-floor names.
func (s *Selector) Select(candidates []models.EnrichedCandidate) []models.ExplosiveCandidate {
	survivors := make([]models.ExplosiveCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !s.passesGuards(c) {
			continue
		}
		egs := s.gateScore(c)
		if egs < s.cfg.HardFloor {
			continue
		}
		survivors = append(survivors, models.ExplosiveCandidate{
			Symbol:             c.Symbol,
			Price:              c.Price,
			EGS:                egs,
			SER:                s.rankScore(c),
			Tier:               s.tierFor(egs),
			EffectiveSpreadBps: c.EffectiveSpreadBps,
			ValueTradedUSD:     c.ValueTradedUSD,
		})
	}

	tiers := []float64{s.cfg.PrimeFloor, s.cfg.StrongFloor, s.cfg.HardFloor}
	var selected []models.ExplosiveCandidate
	for _, floor := range tiers {
		selected = selected[:0]
		for _, c := range survivors {
			if c.EGS >= floor {
				selected = append(selected, c)
			}
		}
		if len(selected) >= s.cfg.TargetMin {
			break
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		if selected[i].SER != selected[j].SER {
			return selected[i].SER > selected[j].SER
		}
		return selected[i].Symbol < selected[j].Symbol
	})

	if len(selected) > s.cfg.TargetMax {
		selected = selected[:s.cfg.TargetMax]
	}
	out := make([]models.ExplosiveCandidate, len(selected))
	copy(out, selected)
	return out
}

// passesGuards applies the absolute boundary guards. A failing candidate is
// permanently excluded from this path regardless of score.
func (s *Selector) passesGuards(c models.EnrichedCandidate) bool {
	if c.EffectiveSpreadBps > s.cfg.MaxSpreadBps {
		return false
	}
	if c.Price < s.cfg.MinPrice {
		return false
	}
	if c.ValueTradedUSD < s.cfg.MinValueTraded {
		return false
	}
	return true
}

func (s *Selector) tierFor(egs float64) models.ExplosiveTier {
	switch {
	case egs >= s.cfg.PrimeFloor:
		return models.TierPrime
	case egs >= s.cfg.StrongFloor:
		return models.TierStrong
	default:
		return models.TierElastic
	}
}

// gateScore computes EGS: soft and additive, a weak component reduces the
// score but never zeroes it and never disqualifies on its own.
func (s *Selector) gateScore(c models.EnrichedCandidate) float64 {
	score := 0.0

	relvol := relVolForScoring(c)
	score += math.Min(relvol/5.0, 1.0) * 25.0
	// Persistence bonus: elevated on both the 30d and time-of-day baselines.
	if c.RelVolume30d.OK && c.RelVolume30d.Value >= 2.0 &&
		c.RelVolumeTOD.OK && c.RelVolumeTOD.Value >= 2.0 {
		score += 5.0
	}

	score += featureFraction(c.GammaPressure) * 15.0
	score += featureFraction(c.FloatRotation) * 15.0
	score += featureFraction(c.SqueezeFriction) * 15.0
	score += featureFraction(c.CatalystFreshness) * 10.0
	score += featureFraction(c.VWAPAdherence) * 10.0

	if c.ValueTradedUSD >= s.cfg.LargeValueTraded {
		score += 3.0
	}
	// ATR sweet spot: volatile enough to move, not already disorderly.
	if c.ATRPct.OK && c.ATRPct.Value >= 4.0 && c.ATRPct.Value <= 12.0 {
		score += 2.0
	}

	return math.Min(score, 100.0)
}

// rankScore computes SER, the geometric-mean rank over normalized factors.
// Exponents sum to 1; a single near-zero factor punishes the whole rank,
// which a weighted sum would let large relative volume paper over.
func (s *Selector) rankScore(c models.EnrichedCandidate) float64 {
	factors := []float64{
		math.Min(relVolForScoring(c)/5.0, 1.0),
		featureFraction(c.FloatRotation),
		featureFraction(c.SqueezeFriction),
		featureFraction(c.GammaPressure),
		featureFraction(c.CatalystFreshness),
		featureFraction(c.VWAPAdherence),
	}

	rank := 1.0
	for i, f := range factors {
		rank *= math.Pow(math.Max(f, serFactorFloor), serExponents[i])
	}
	return rank * 100.0
}

// relVolForScoring prefers the time-of-day normalized series and falls back
// to the 30d baseline.
func relVolForScoring(c models.EnrichedCandidate) float64 {
	if c.RelVolumeTOD.OK {
		return c.RelVolumeTOD.Value
	}
	if c.RelVolume30d.OK {
		return c.RelVolume30d.Value
	}
	return 0
}

// featureFraction maps a 0-100 feature to [0,1], zero when unavailable.
func featureFraction(f models.Feature) float64 {
	if !f.OK {
		return 0
	}
	return math.Min(math.Max(f.Value, 0), 100) / 100.0
}
