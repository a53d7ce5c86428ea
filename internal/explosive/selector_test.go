package explosive

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

func selectorConfig() config.ExplosiveConfig {
	return config.ExplosiveConfig{
		MaxSpreadBps:     60,
		MinPrice:         1.5,
		MinValueTraded:   1_000_000,
		LargeValueTraded: 25_000_000,
		PrimeFloor:       60,
		StrongFloor:      50,
		HardFloor:        45,
		TargetMin:        3,
		TargetMax:        5,
	}
}

// candidate builds a guard-passing candidate whose soft score scales
// roughly linearly with strength in (0,1].
func candidate(symbol string, strength float64) models.EnrichedCandidate {
	asOf := time.Now()
	m := func(v float64) models.Feature { return models.Measured(v, "test", asOf, 1.0) }

	return models.EnrichedCandidate{
		TickerSnapshot:     models.TickerSnapshot{Symbol: symbol, Price: 10.0},
		RelVolume30d:       m(5.0 * strength),
		RelVolumeTOD:       m(5.0 * strength),
		VWAPAdherence:      m(90.0 * strength),
		FloatRotation:      m(100.0 * strength),
		SqueezeFriction:    m(100.0 * strength),
		GammaPressure:      m(100.0 * strength),
		CatalystFreshness:  m(100.0 * strength),
		EffectiveSpreadBps: 20.0,
		ValueTradedUSD:     2_000_000,
	}
}

func symbols(list []models.ExplosiveCandidate) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Symbol)
	}
	return out
}

func TestSelect_HardGuardsAreAbsolute(t *testing.T) {
	sel := NewSelector(selectorConfig())

	cheap := candidate("CHEP", 1.0)
	cheap.Price = 1.0 // below tradable floor

	wide := candidate("WIDE", 1.0)
	wide.EffectiveSpreadBps = 120.0

	thin := candidate("THIN", 1.0)
	thin.ValueTradedUSD = 500_000

	got := sel.Select([]models.EnrichedCandidate{cheap, wide, thin})
	assert.Empty(t, got, "guard-failing candidates must never appear, regardless of score")
}

func TestSelect_ElasticExpansionStopsAtTargetMin(t *testing.T) {
	sel := NewSelector(selectorConfig())

	input := []models.EnrichedCandidate{
		candidate("AAAA", 1.0),  // prime
		candidate("BBBB", 0.70), // prime
		candidate("CCCC", 0.55), // strong
		candidate("DDDD", 0.50), // elastic only
		candidate("EEEE", 0.30), // below hard floor
	}

	got := sel.Select(input)
	require.Equal(t, []string{"AAAA", "BBBB", "CCCC"}, symbols(got))
	assert.Equal(t, models.TierPrime, got[0].Tier)
	assert.Equal(t, models.TierStrong, got[2].Tier)
}

func TestSelect_FallsBackToElasticTier(t *testing.T) {
	sel := NewSelector(selectorConfig())

	input := []models.EnrichedCandidate{
		candidate("AAAA", 1.0),
		candidate("BBBB", 0.70),
		candidate("DDDD", 0.50),
		candidate("EEEE", 0.30),
	}

	got := sel.Select(input)
	require.Equal(t, []string{"AAAA", "BBBB", "DDDD"}, symbols(got))
	assert.Equal(t, models.TierElastic, got[2].Tier)
}

func TestSelect_FloorIsNeverRelaxed(t *testing.T) {
	sel := NewSelector(selectorConfig())

	// Only one name clears the floor; target_min must not force more.
	got := sel.Select([]models.EnrichedCandidate{
		candidate("AAAA", 0.70),
		candidate("EEEE", 0.30),
		candidate("FFFF", 0.20),
	})
	require.Equal(t, []string{"AAAA"}, symbols(got))

	// Nothing clears the floor: empty list is the correct answer.
	got = sel.Select([]models.EnrichedCandidate{
		candidate("EEEE", 0.30),
		candidate("FFFF", 0.20),
	})
	assert.Empty(t, got)

	for _, c := range got {
		assert.GreaterOrEqual(t, c.EGS, selectorConfig().HardFloor)
	}
}

func TestSelect_TargetMaxTruncatesLowestSER(t *testing.T) {
	sel := NewSelector(selectorConfig())

	input := make([]models.EnrichedCandidate, 0, 7)
	for i := 0; i < 7; i++ {
		input = append(input, candidate(fmt.Sprintf("SYM%c", 'A'+i), 1.0-float64(i)*0.04))
	}

	got := sel.Select(input)
	require.Len(t, got, 5)
	// Strongest five survive; the two weakest were truncated.
	assert.Equal(t, []string{"SYMA", "SYMB", "SYMC", "SYMD", "SYME"}, symbols(got))
}

func TestSelect_SERDescendingWithSymbolTiebreak(t *testing.T) {
	sel := NewSelector(selectorConfig())

	input := []models.EnrichedCandidate{
		candidate("ZZZZ", 0.8),
		candidate("AAAA", 0.8), // identical features, tie on SER
		candidate("MMMM", 1.0),
	}

	got := sel.Select(input)
	require.Equal(t, []string{"MMMM", "AAAA", "ZZZZ"}, symbols(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].SER, got[i].SER)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	sel := NewSelector(selectorConfig())
	input := []models.EnrichedCandidate{
		candidate("AAAA", 0.9),
		candidate("BBBB", 0.7),
		candidate("CCCC", 0.55),
		candidate("DDDD", 0.52),
	}

	first := sel.Select(input)
	second := sel.Select(input)
	assert.Equal(t, first, second)
}

func TestGateScore_SoftNoHardFailure(t *testing.T) {
	sel := NewSelector(selectorConfig())

	// A candidate with a dead squeeze component still scores; the weak
	// component reduces EGS but does not disqualify.
	c := candidate("AAAA", 1.0)
	c.SqueezeFriction = models.Unavailable("no_data")

	full := sel.gateScore(candidate("AAAA", 1.0))
	partial := sel.gateScore(c)
	assert.Less(t, partial, full)
	assert.Greater(t, partial, 0.0)
}

func TestRankScore_GeometricMeanPunishesWeakFactor(t *testing.T) {
	sel := NewSelector(selectorConfig())

	balanced := candidate("AAAA", 0.6)

	// Enormous relative volume cannot compensate a near-zero squeeze factor.
	lopsided := candidate("BBBB", 0.6)
	lopsided.RelVolumeTOD = models.Measured(50.0, "test", time.Now(), 1.0)
	lopsided.SqueezeFriction = models.Measured(0.5, "test", time.Now(), 1.0)

	assert.Greater(t, sel.rankScore(balanced), sel.rankScore(lopsided))
}

func TestSelect_LiquidityAndATRBonuses(t *testing.T) {
	sel := NewSelector(selectorConfig())

	base := candidate("AAAA", 0.6)
	boosted := candidate("AAAA", 0.6)
	boosted.ValueTradedUSD = 30_000_000
	boosted.ATRPct = models.Measured(8.0, "test", time.Now(), 1.0)

	assert.InDelta(t, sel.gateScore(base)+5.0, sel.gateScore(boosted), 1e-9)
}
