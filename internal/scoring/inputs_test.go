package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrun/internal/models"
)

func measured(v float64) models.Feature {
	return models.Measured(v, "test", time.Now(), 1.0)
}

func TestInputsFrom_AbsentGroupsStayAbsent(t *testing.T) {
	c := models.EnrichedCandidate{
		TickerSnapshot: models.TickerSnapshot{Symbol: "ABCD", PctChange: 8},
	}

	inputs := InputsFrom(c)
	assert.Empty(t, inputs, "no feature data means no sub-scores, not defaults")
}

func TestInputsFrom_VolumeMomentum(t *testing.T) {
	c := models.EnrichedCandidate{
		TickerSnapshot: models.TickerSnapshot{Symbol: "ABCD", PctChange: 10},
		RelVolumeTOD:   measured(5.0),
	}
	c.UptrendDays = 5

	inputs := InputsFrom(c)
	require.Contains(t, inputs, models.SubscoreVolumeMomentum)
	// saturated relvol + saturated change + saturated uptrend
	assert.InDelta(t, 100.0, *inputs[models.SubscoreVolumeMomentum], 1e-9)
}

func TestInputsFrom_VolumeMomentumFallsBackTo30d(t *testing.T) {
	c := models.EnrichedCandidate{RelVolume30d: measured(2.5)}
	inputs := InputsFrom(c)
	require.Contains(t, inputs, models.SubscoreVolumeMomentum)
	assert.InDelta(t, 35.0, *inputs[models.SubscoreVolumeMomentum], 1e-9)
}

func TestInputsFrom_SqueezeBlendsFloatRotation(t *testing.T) {
	base := models.EnrichedCandidate{SqueezeFriction: measured(80)}
	inputs := InputsFrom(base)
	require.Contains(t, inputs, models.SubscoreSqueeze)
	assert.InDelta(t, 80.0, *inputs[models.SubscoreSqueeze], 1e-9)

	withRotation := base
	withRotation.FloatRotation = measured(40)
	inputs = InputsFrom(withRotation)
	assert.InDelta(t, 0.7*80+0.3*40, *inputs[models.SubscoreSqueeze], 1e-9)
}

func TestInputsFrom_TechnicalPartialInputs(t *testing.T) {
	vwapOnly := models.EnrichedCandidate{VWAPAdherence: measured(90)}
	inputs := InputsFrom(vwapOnly)
	require.Contains(t, inputs, models.SubscoreTechnical)
	assert.InDelta(t, 90.0, *inputs[models.SubscoreTechnical], 1e-9)

	atrOnly := models.EnrichedCandidate{ATRPct: measured(8.0)}
	inputs = InputsFrom(atrOnly)
	require.Contains(t, inputs, models.SubscoreTechnical)
	assert.InDelta(t, 100.0, *inputs[models.SubscoreTechnical], 1e-9)
}

func TestInputsFrom_SustainedTrendFullCredit(t *testing.T) {
	c := models.EnrichedCandidate{RelVolumeTOD: measured(5.0)}
	c.UptrendDays = 1
	c.UptrendSustained = true

	inputs := InputsFrom(c)
	require.Contains(t, inputs, models.SubscoreVolumeMomentum)
	// 70 relvol + 0 change + full 10 trend despite the short streak
	assert.InDelta(t, 80.0, *inputs[models.SubscoreVolumeMomentum], 1e-9)
}

func TestInputsFrom_TechnicalIncludesRSI(t *testing.T) {
	c := models.EnrichedCandidate{
		VWAPAdherence: measured(90),
		ATRPct:        measured(8.0),
		RSI:           measured(65),
	}
	inputs := InputsFrom(c)
	require.Contains(t, inputs, models.SubscoreTechnical)
	want := (0.6*90 + 0.4*100 + 0.2*100) / 1.2
	assert.InDelta(t, want, *inputs[models.SubscoreTechnical], 1e-9)
}

func TestRsiBandScore(t *testing.T) {
	assert.Equal(t, 100.0, rsiBandScore(65))
	assert.Equal(t, 70.0, rsiBandScore(80))
	assert.Equal(t, 50.0, rsiBandScore(50))
	assert.Equal(t, 30.0, rsiBandScore(95))
	assert.Equal(t, 20.0, rsiBandScore(35))
}

func TestAtrBandScore(t *testing.T) {
	assert.Equal(t, 100.0, atrBandScore(8.0))
	assert.Equal(t, 60.0, atrBandScore(3.0))
	assert.Equal(t, 50.0, atrBandScore(15.0))
	assert.Equal(t, 20.0, atrBandScore(0.5))
	assert.Equal(t, 20.0, atrBandScore(30.0))
}
