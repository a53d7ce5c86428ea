package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/sawpanic/equityrun/internal/models"
)

// ErrFabricatedValue is returned when a provider response carries a banned
// default literal without provenance. Accepting such a value would corrupt
// scoring integrity, so the guard rejects it outright.
var ErrFabricatedValue = errors.New("fabricated provider value rejected")

// Provider supplies one alternative-data feature per symbol. A provider
// must return an unavailable Feature for missing data; it must never invent
// a default value.
type Provider interface {
	Name() string
	Get(ctx context.Context, symbol string) (models.Feature, error)
}

// Providers is the explicit provider set injected at construction time.
// Any slot may be nil, which counts as permanently unavailable.
type Providers struct {
	ShortInterest Provider
	BorrowStress  Provider
	Sentiment     Provider
	Options       Provider
}

// bannedDefaults are literal values providers have historically used as
// silent fallbacks. A response with one of these and no provenance is
// treated as fabricated.
var bannedDefaults = []float64{1.0, 25.0, 30.0, 50.0, 100.0}

// Guard validates a present provider response against the anti-fabrication
// contract: a banned literal is only acceptable when it arrives with full
// provenance (source and asof) proving it was measured.
func Guard(f models.Feature) error {
	if !f.OK {
		return nil
	}
	for _, banned := range bannedDefaults {
		if f.Value == banned && (f.Source == "" || f.AsOf.IsZero()) {
			return fmt.Errorf("%w: value %.1f without provenance", ErrFabricatedValue, f.Value)
		}
	}
	return nil
}
