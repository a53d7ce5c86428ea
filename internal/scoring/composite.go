// Package scoring combines the canonical sub-scores into one composite
// score. Missing sub-scores never default to a constant: the engine
// renormalizes the remaining weights so the total is always a true weighted
// average of available evidence.
package scoring

import (
	"math"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

// Component is one named sub-score input. Value is nil when the underlying
// data was unavailable.
type Component struct {
	Name   models.Subscore
	Weight float64
	Value  *float64
}

// Result is the composite scoring output for one candidate.
type Result struct {
	Subscores     map[models.Subscore]float64 `json:"subscores"`
	ActiveWeights map[models.Subscore]float64 `json:"active_weights"`
	Missing       []models.Subscore           `json:"missing,omitempty"`
	TotalScore    float64                     `json:"total_score"`
	Confidence    float64                     `json:"confidence"`
}

// Engine computes composite scores under a fixed full-weight configuration.
type Engine struct {
	weights config.WeightsConfig
}

// NewEngine creates a composite scoring engine.
func NewEngine(weights config.WeightsConfig) *Engine {
	return &Engine{weights: weights}
}

// fullWeight returns the configured full weight for a component.
func (e *Engine) fullWeight(name models.Subscore) float64 {
	switch name {
	case models.SubscoreVolumeMomentum:
		return e.weights.VolumeMomentum
	case models.SubscoreSqueeze:
		return e.weights.Squeeze
	case models.SubscoreCatalyst:
		return e.weights.Catalyst
	case models.SubscoreSentiment:
		return e.weights.Sentiment
	case models.SubscoreOptions:
		return e.weights.Options
	case models.SubscoreTechnical:
		return e.weights.Technical
	}
	return 0
}

// Components assembles the canonical ordered component list from a value
// map. Absent map entries become nil-valued components.
func (e *Engine) Components(values map[models.Subscore]*float64) []Component {
	out := make([]Component, 0, len(models.Subscores))
	for _, name := range models.Subscores {
		out = append(out, Component{Name: name, Weight: e.fullWeight(name), Value: values[name]})
	}
	return out
}

// Score combines the components by dynamic reweighting: present components
// keep their relative weights, renormalized to sum to 1. With every
// component missing the result is score 0, confidence 0, and the candidate
// is effectively unscoreable.
func (e *Engine) Score(components []Component) Result {
	res := Result{
		Subscores:     make(map[models.Subscore]float64),
		ActiveWeights: make(map[models.Subscore]float64),
	}

	var presentWeight float64
	for _, c := range components {
		if c.Value == nil {
			res.Missing = append(res.Missing, c.Name)
			continue
		}
		presentWeight += c.Weight
	}

	if presentWeight <= 0 {
		return res
	}

	var total float64
	for _, c := range components {
		if c.Value == nil {
			continue
		}
		active := c.Weight / presentWeight
		res.Subscores[c.Name] = clamp(*c.Value, 0, 100)
		res.ActiveWeights[c.Name] = active
		total += res.Subscores[c.Name] * active
	}

	res.TotalScore = clamp(total, 0, 100)
	res.Confidence = float64(len(res.Subscores)) / float64(len(components))
	return res
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Ptr is a convenience for building component values.
func Ptr(v float64) *float64 { return &v }
