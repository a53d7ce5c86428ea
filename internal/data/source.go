// Package data defines the market data collaborator interface and the HTTP
// client scaffold implementing it. The pipeline core treats this package as
// an injected read-only source; it owns no pipeline state.
package data

import (
	"context"

	"github.com/sawpanic/equityrun/internal/indicators"
	"github.com/sawpanic/equityrun/internal/models"
)

// VolumeCurve pairs today's cumulative intraday volume with a historical
// reference curve aligned by time-of-day bucket.
type VolumeCurve struct {
	Today     []float64 `json:"today"`
	Reference []float64 `json:"reference"`
}

// MarketDataSource is the external market data collaborator. Per-symbol
// failures are signalled as errors, distinct from empty-but-successful
// results.
type MarketDataSource interface {
	// GetUniverseSnapshot returns the full universe in one bulk call.
	GetUniverseSnapshot(ctx context.Context) ([]models.TickerSnapshot, error)

	// GetHistoricalBars returns daily OHLCV bars for a symbol, chronological,
	// most recent last.
	GetHistoricalBars(ctx context.Context, symbol string, lookbackDays int) ([]indicators.Bar, error)

	// GetVolumeCurve returns time-of-day cumulative volume curves for
	// relative-volume normalization. May legitimately return an empty curve.
	GetVolumeCurve(ctx context.Context, symbol string) (VolumeCurve, error)
}
