package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

func testWeights() config.WeightsConfig {
	return config.WeightsConfig{
		VolumeMomentum: 30,
		Squeeze:        25,
		Catalyst:       20,
		Sentiment:      10,
		Options:        8,
		Technical:      7,
	}
}

func TestScore_ReweightsMissingComponents(t *testing.T) {
	engine := NewEngine(testWeights())
	components := engine.Components(map[models.Subscore]*float64{
		models.SubscoreVolumeMomentum: Ptr(80),
		models.SubscoreCatalyst:       Ptr(60),
		models.SubscoreTechnical:      Ptr(70),
	})

	res := engine.Score(components)

	// Present weight sum = 30+20+7 = 57.
	assert.InDelta(t, 30.0/57.0, res.ActiveWeights[models.SubscoreVolumeMomentum], 1e-9)
	assert.InDelta(t, 20.0/57.0, res.ActiveWeights[models.SubscoreCatalyst], 1e-9)
	assert.InDelta(t, 7.0/57.0, res.ActiveWeights[models.SubscoreTechnical], 1e-9)

	var weightSum float64
	for _, w := range res.ActiveWeights {
		weightSum += w
	}
	assert.InDelta(t, 1.0, weightSum, 1e-9)

	expected := 80*30.0/57.0 + 60*20.0/57.0 + 70*7.0/57.0
	assert.InDelta(t, expected, res.TotalScore, 1e-9)
	assert.InDelta(t, 71.75, res.TotalScore, 0.1)

	assert.ElementsMatch(t, []models.Subscore{
		models.SubscoreSqueeze, models.SubscoreSentiment, models.SubscoreOptions,
	}, res.Missing)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
}

func TestScore_AllPresent(t *testing.T) {
	engine := NewEngine(testWeights())
	values := make(map[models.Subscore]*float64)
	for _, name := range models.Subscores {
		values[name] = Ptr(50)
	}

	res := engine.Score(engine.Components(values))
	assert.InDelta(t, 50.0, res.TotalScore, 1e-9)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Empty(t, res.Missing)
}

func TestScore_AllMissingIsUnscoreable(t *testing.T) {
	engine := NewEngine(testWeights())
	res := engine.Score(engine.Components(nil))

	assert.Equal(t, 0.0, res.TotalScore)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Len(t, res.Missing, len(models.Subscores))
	assert.Empty(t, res.ActiveWeights)
}

func TestScore_BoundsAreClamped(t *testing.T) {
	engine := NewEngine(testWeights())
	res := engine.Score(engine.Components(map[models.Subscore]*float64{
		models.SubscoreVolumeMomentum: Ptr(250),
		models.SubscoreCatalyst:       Ptr(-40),
	}))

	require.GreaterOrEqual(t, res.TotalScore, 0.0)
	require.LessOrEqual(t, res.TotalScore, 100.0)
	assert.Equal(t, 100.0, res.Subscores[models.SubscoreVolumeMomentum])
	assert.Equal(t, 0.0, res.Subscores[models.SubscoreCatalyst])
}

func TestScore_SingleComponentCarriesFullWeight(t *testing.T) {
	engine := NewEngine(testWeights())
	res := engine.Score(engine.Components(map[models.Subscore]*float64{
		models.SubscoreOptions: Ptr(64),
	}))

	assert.InDelta(t, 1.0, res.ActiveWeights[models.SubscoreOptions], 1e-9)
	assert.InDelta(t, 64.0, res.TotalScore, 1e-9)
}

func TestClassify(t *testing.T) {
	cfg := config.TierConfig{TradeReady: 75, Watchlist: 60, Monitor: 45}

	assert.Equal(t, models.ActionTradeReady, Classify(75, cfg))
	assert.Equal(t, models.ActionTradeReady, Classify(92, cfg))
	assert.Equal(t, models.ActionWatchlist, Classify(74.9, cfg))
	assert.Equal(t, models.ActionWatchlist, Classify(60, cfg))
	assert.Equal(t, models.ActionMonitor, Classify(59.9, cfg))
	assert.Equal(t, models.ActionMonitor, Classify(45, cfg))
	assert.Equal(t, models.ActionRejected, Classify(44.9, cfg))
	assert.Equal(t, models.ActionRejected, Classify(0, cfg))
}
