// Package universe reduces a raw ticker snapshot list to scan candidates
// through a fixed sequence of short-circuit gates. Filtering is a pure
// function of its input; repeated application yields identical output.
package universe

import (
	"math"
	"strings"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/models"
)

// Rejection reasons, one per gate.
const (
	ReasonNoPrice         = "no_price"
	ReasonSymbolFormat    = "symbol_format"
	ReasonFundExcluded    = "etf_excluded"
	ReasonPriceTooLow     = "price_too_low"
	ReasonPriceTooHigh    = "price_too_high"
	ReasonVolumeTooLow    = "volume_too_low"
	ReasonRatioTooLow     = "insufficient_volume_ratio"
	ReasonRatioTooHigh    = "volume_ratio_too_high"
	ReasonChangeOutOfBand = "change_out_of_band"
)

// Rejection records the first gate a snapshot failed.
type Rejection struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Result is the outcome of one filter pass.
type Result struct {
	Kept     []models.TickerSnapshot `json:"kept"`
	Rejected []Rejection             `json:"rejected"`
	Counts   map[string]int          `json:"counts"`
}

// Filter applies the gate sequence to raw snapshots. Gates short-circuit: a
// snapshot stops at its first failing gate and is tagged with that reason.
func Filter(snapshots []models.TickerSnapshot, cfg config.UniverseConfig) Result {
	res := Result{
		Kept:   make([]models.TickerSnapshot, 0, len(snapshots)),
		Counts: make(map[string]int),
	}

	for _, s := range snapshots {
		if reason, ok := evaluate(s, cfg); !ok {
			res.Rejected = append(res.Rejected, Rejection{Symbol: s.Symbol, Reason: reason})
			res.Counts[reason]++
			continue
		}
		res.Kept = append(res.Kept, s)
	}
	return res
}

// evaluate runs the gate sequence for one snapshot and returns the failing
// reason, or ok when every gate passes.
func evaluate(s models.TickerSnapshot, cfg config.UniverseConfig) (string, bool) {
	// Zero/missing price records are rejected before any gate logic.
	if s.Price <= 0 {
		return ReasonNoPrice, false
	}

	if !validSymbol(s.Symbol, cfg.MaxSymbolLength) {
		return ReasonSymbolFormat, false
	}

	if IsFund(s) {
		return ReasonFundExcluded, false
	}

	if s.Price < cfg.MinPrice {
		return ReasonPriceTooLow, false
	}
	if s.Price > cfg.MaxPrice {
		return ReasonPriceTooHigh, false
	}

	if s.Volume < cfg.MinVolume {
		return ReasonVolumeTooLow, false
	}

	ratio := float64(s.Volume) / math.Max(float64(s.PrevDayVolume), 1)
	if ratio < cfg.MinVolumeRatio {
		return ReasonRatioTooLow, false
	}
	if ratio > cfg.MaxVolumeRatio {
		return ReasonRatioTooHigh, false
	}

	if cfg.ChangeGateEnabled {
		change := math.Abs(s.PctChange)
		if change < cfg.MinAbsPctChange || change > cfg.MaxAbsPctChange {
			return ReasonChangeOutOfBand, false
		}
	}

	return "", true
}

// validSymbol rejects empty, overlong, or non-common-stock symbol formats.
// Punctuation and the trailing W/U/R unit markers indicate warrants, units
// or rights rather than common stock.
func validSymbol(symbol string, maxLen int) bool {
	sym := strings.TrimSpace(symbol)
	if sym == "" || len(sym) > maxLen {
		return false
	}
	if strings.ContainsAny(sym, ".-^/+= ") {
		return false
	}
	for _, r := range sym {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	// Five-letter symbols ending in W (warrant), U (unit) or R (right).
	if len(sym) == 5 {
		switch sym[4] {
		case 'W', 'U', 'R':
			return false
		}
	}
	return true
}
