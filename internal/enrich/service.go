// Package enrich attaches computed and provider-sourced features to filtered
// candidates. Symbols are enriched independently under a bounded worker
// pool; a failed symbol is dropped and counted, never the whole batch.
package enrich

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/data"
	"github.com/sawpanic/equityrun/internal/indicators"
	"github.com/sawpanic/equityrun/internal/models"
)

// VWAP-reclaim band contributions, 0-100 scale.
const (
	vwapStrongReclaimScore = 90.0
	vwapReclaimScore       = 72.0
	vwapTestScore          = 55.0
	vwapBelowScore         = 30.0
)

// Service computes per-candidate features from the market data source and
// the injected provider set.
type Service struct {
	source    data.MarketDataSource
	providers Providers
	cfg       config.EnrichConfig
	now       func() time.Time
}

// NewService creates an enrichment service. now is overridable for tests;
// nil means time.Now.
func NewService(source data.MarketDataSource, providers Providers, cfg config.EnrichConfig, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{source: source, providers: providers, cfg: cfg, now: now}
}

// ProviderStatus reports which alt-data providers are configured, keyed by
// feature group name.
func (s *Service) ProviderStatus() map[string]bool {
	return map[string]bool{
		"short_interest": s.providers.ShortInterest != nil,
		"borrow_stress":  s.providers.BorrowStress != nil,
		"sentiment":      s.providers.Sentiment != nil,
		"options":        s.providers.Options != nil,
	}
}

// BatchResult carries the enriched set plus per-batch failure accounting.
type BatchResult struct {
	Candidates []models.EnrichedCandidate `json:"candidates"`
	Failures   int                        `json:"failures"`
}

// EnrichAll fans out per-symbol enrichment under the configured concurrency
// bound, then joins and sorts the batch by symbol for determinism.
func (s *Service) EnrichAll(ctx context.Context, snapshots []models.TickerSnapshot) BatchResult {
	type outcome struct {
		candidate models.EnrichedCandidate
		ok        bool
	}

	outcomes := make([]outcome, len(snapshots))
	sem := make(chan struct{}, s.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	for i, snap := range snapshots {
		wg.Add(1)
		go func(i int, snap models.TickerSnapshot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			symCtx, cancel := context.WithTimeout(ctx, s.cfg.SymbolTimeout)
			defer cancel()

			candidate, err := s.enrichOne(symCtx, snap)
			if err != nil {
				log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("enrichment failed, dropping symbol")
				return
			}
			outcomes[i] = outcome{candidate: candidate, ok: true}
		}(i, snap)
	}
	wg.Wait()

	result := BatchResult{Candidates: make([]models.EnrichedCandidate, 0, len(snapshots))}
	for _, o := range outcomes {
		if !o.ok {
			result.Failures++
			continue
		}
		result.Candidates = append(result.Candidates, o.candidate)
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Symbol < result.Candidates[j].Symbol
	})
	return result
}

// enrichOne computes all features for a single snapshot. A historical-bar
// fetch failure fails the symbol; provider gaps only degrade confidence.
func (s *Service) enrichOne(ctx context.Context, snap models.TickerSnapshot) (models.EnrichedCandidate, error) {
	c := models.EnrichedCandidate{TickerSnapshot: snap}

	bars, err := s.source.GetHistoricalBars(ctx, snap.Symbol, s.cfg.HistoryLookback)
	if err != nil {
		return c, err
	}

	asOf := snap.DataTimestamp
	c.RelVolume30d = relVolume30d(snap, bars, asOf)
	c.ATRPct = atrPct(bars, s.cfg.ATRPeriod, asOf)
	c.RSI = rsiFeature(bars, s.cfg.RSIPeriod, asOf)
	c.UptrendDays = uptrendDays(bars)
	c.UptrendSustained = indicators.Sustained(upCloses(bars), s.cfg.SustainWindow, s.cfg.SustainMinFrac)
	c.PriceVWAPRatio, c.VWAPAdherence = vwapState(snap, asOf)
	c.RelVolumeTOD = s.relVolumeTOD(ctx, snap, asOf)

	c.ShortInterestPct = s.callProvider(ctx, s.providers.ShortInterest, snap.Symbol)
	c.BorrowStress = s.callProvider(ctx, s.providers.BorrowStress, snap.Symbol)
	c.Sentiment = s.callProvider(ctx, s.providers.Sentiment, snap.Symbol)
	c.OptionsActivity = s.callProvider(ctx, s.providers.Options, snap.Symbol)

	c.FloatRotation = floatRotation(snap, asOf)
	c.SqueezeFriction = squeezeFriction(c.ShortInterestPct, c.BorrowStress, asOf)
	c.GammaPressure = gammaPressure(c.OptionsActivity)
	c.CatalystFreshness = catalystFreshness(c.Sentiment, s.now())

	c.EffectiveSpreadBps = effectiveSpreadBps(snap)
	c.ValueTradedUSD = snap.Price * float64(snap.Volume)

	c.Confidence = s.confidence(c)
	return c, nil
}

// callProvider invokes one alt-data provider, applies the anti-fabrication
// guard, and maps every failure mode to an explicit unavailable marker.
func (s *Service) callProvider(ctx context.Context, p Provider, symbol string) models.Feature {
	if p == nil {
		return models.Unavailable("provider_not_configured")
	}
	f, err := p.Get(ctx, symbol)
	if err != nil {
		log.Debug().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("provider call failed")
		return models.Unavailable("provider_error")
	}
	if err := Guard(f); err != nil {
		log.Error().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("anti-fabrication guard rejected value")
		return models.Unavailable("fabrication_rejected")
	}
	return f
}

func relVolume30d(snap models.TickerSnapshot, bars []indicators.Bar, asOf time.Time) models.Feature {
	if len(bars) == 0 {
		return models.Unavailable("no_history")
	}
	var total float64
	for _, b := range bars {
		total += b.Volume
	}
	avg := total / float64(len(bars))
	if avg <= 0 {
		return models.Unavailable("zero_baseline_volume")
	}
	return models.Measured(float64(snap.Volume)/avg, "daily_bars", asOf, 1.0)
}

func (s *Service) relVolumeTOD(ctx context.Context, snap models.TickerSnapshot, asOf time.Time) models.Feature {
	curve, err := s.source.GetVolumeCurve(ctx, snap.Symbol)
	if err != nil {
		return models.Unavailable("curve_error")
	}
	ratios := indicators.RelVolSeries(curve.Today, curve.Reference)
	if len(ratios) == 0 {
		return models.Unavailable("no_curve")
	}
	return models.Measured(ratios[len(ratios)-1], "intraday_curve", asOf, 1.0)
}

func atrPct(bars []indicators.Bar, period int, asOf time.Time) models.Feature {
	v := indicators.ATRPercent(bars, period)
	if !v.Valid {
		return models.Unavailable("insufficient_bars")
	}
	return models.Measured(v.Value, "daily_bars", asOf, 1.0)
}

func rsiFeature(bars []indicators.Bar, period int, asOf time.Time) models.Feature {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	v := indicators.RSI(closes, period)
	if !v.Valid {
		return models.Unavailable("insufficient_bars")
	}
	return models.Measured(v.Value, "daily_bars", asOf, 1.0)
}

// upCloses maps bars to an up-close series for the sustained-trend check.
func upCloses(bars []indicators.Bar) []bool {
	if len(bars) < 2 {
		return nil
	}
	out := make([]bool, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		out = append(out, bars[i].Close > bars[i-1].Close)
	}
	return out
}

// uptrendDays counts consecutive up closes from the most recent bar back.
func uptrendDays(bars []indicators.Bar) int {
	days := 0
	for i := len(bars) - 1; i > 0; i-- {
		if bars[i].Close <= bars[i-1].Close {
			break
		}
		days++
	}
	return days
}

// vwapState classifies price/vwap into reclaim bands, each mapped to a
// fixed adherence contribution.
func vwapState(snap models.TickerSnapshot, asOf time.Time) (ratio, adherence models.Feature) {
	if snap.VWAP <= 0 {
		return models.Unavailable("no_vwap"), models.Unavailable("no_vwap")
	}
	r := snap.Price / snap.VWAP
	ratio = models.Measured(r, "snapshot", asOf, 1.0)

	var score float64
	switch {
	case r >= 1.02:
		score = vwapStrongReclaimScore
	case r >= 1.005:
		score = vwapReclaimScore
	case r >= 0.995:
		score = vwapTestScore
	default:
		score = vwapBelowScore
	}
	adherence = models.Measured(score, "snapshot", asOf, 1.0)
	return ratio, adherence
}

// floatRotation scales session volume against shares outstanding to 0-100.
func floatRotation(snap models.TickerSnapshot, asOf time.Time) models.Feature {
	if snap.SharesOut <= 0 {
		return models.Unavailable("no_float_data")
	}
	rotation := float64(snap.Volume) / float64(snap.SharesOut) * 100.0
	return models.Measured(math.Min(rotation, 100.0), "snapshot", asOf, 1.0)
}

// squeezeFriction combines short interest and borrow stress. With only one
// input present it degrades to that input; with neither it is unavailable.
func squeezeFriction(shortInterest, borrowStress models.Feature, asOf time.Time) models.Feature {
	switch {
	case shortInterest.OK && borrowStress.OK:
		blended := 0.6*math.Min(shortInterest.Value*2.5, 100) + 0.4*math.Min(borrowStress.Value, 100)
		conf := math.Min(shortInterest.Confidence, borrowStress.Confidence)
		return models.Measured(blended, "short_interest+borrow", asOf, conf)
	case shortInterest.OK:
		return models.Measured(math.Min(shortInterest.Value*2.5, 100), shortInterest.Source, shortInterest.AsOf, shortInterest.Confidence)
	case borrowStress.OK:
		return models.Measured(math.Min(borrowStress.Value, 100), borrowStress.Source, borrowStress.AsOf, borrowStress.Confidence)
	default:
		return models.Unavailable("no_squeeze_inputs")
	}
}

func gammaPressure(options models.Feature) models.Feature {
	if !options.OK {
		return models.Unavailable("no_options_data")
	}
	return models.Measured(math.Min(options.Value, 100), options.Source, options.AsOf, options.Confidence)
}

// catalystFreshness decays a sentiment-derived catalyst signal by age: full
// credit inside an hour, fading to nothing beyond a day.
func catalystFreshness(sentiment models.Feature, now time.Time) models.Feature {
	if !sentiment.OK {
		return models.Unavailable("no_catalyst_data")
	}
	age := now.Sub(sentiment.AsOf)
	var decay float64
	switch {
	case age <= time.Hour:
		decay = 1.0
	case age >= 24*time.Hour:
		decay = 0.0
	default:
		decay = 1.0 - float64(age-time.Hour)/float64(23*time.Hour)
	}
	return models.Measured(math.Min(sentiment.Value, 100)*decay, sentiment.Source, sentiment.AsOf, sentiment.Confidence)
}

// effectiveSpreadBps estimates spread from the session range when no quote
// data is present in the snapshot. Wide-range illiquid names rank worse.
// Unknown inputs map to the full 10000bps so no spread guard can pass them.
func effectiveSpreadBps(snap models.TickerSnapshot) float64 {
	const unknownSpreadBps = 10000.0
	if snap.High <= 0 || snap.Low <= 0 || snap.Price <= 0 || snap.High < snap.Low {
		return unknownSpreadBps
	}
	rangePct := (snap.High - snap.Low) / snap.Price
	return math.Min(rangePct*10000.0/20.0, unknownSpreadBps)
}

// confidence is the fraction of expected feature groups with real data,
// halved when the snapshot itself is older than the staleness threshold.
func (s *Service) confidence(c models.EnrichedCandidate) float64 {
	groups := []bool{
		c.RelVolume30d.OK,
		c.ATRPct.OK,
		c.VWAPAdherence.OK,
		c.ShortInterestPct.OK,
		c.BorrowStress.OK,
		c.Sentiment.OK,
		c.OptionsActivity.OK,
	}
	present := 0
	for _, ok := range groups {
		if ok {
			present++
		}
	}
	conf := float64(present) / float64(len(groups))
	if s.now().Sub(c.DataTimestamp) > s.cfg.StaleAfter {
		conf *= 0.5
	}
	return conf
}
