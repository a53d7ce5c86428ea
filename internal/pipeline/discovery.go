// Package pipeline wires the discovery stages together: snapshot fetch,
// universe filtering, enrichment fan-out, composite scoring, tiering and
// the explosive shortlist pass. Results are computed fully in memory and
// handed to collaborators only after the cycle completes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrun/internal/cache"
	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/data"
	"github.com/sawpanic/equityrun/internal/enrich"
	"github.com/sawpanic/equityrun/internal/events"
	"github.com/sawpanic/equityrun/internal/explosive"
	"github.com/sawpanic/equityrun/internal/metrics"
	"github.com/sawpanic/equityrun/internal/models"
	"github.com/sawpanic/equityrun/internal/persistence"
	"github.com/sawpanic/equityrun/internal/scoring"
	"github.com/sawpanic/equityrun/internal/universe"
)

// ErrStaleUniverse marks a snapshot too old to score against during active
// trading hours. Scoring on stale prices is worse than returning nothing.
var ErrStaleUniverse = errors.New("universe snapshot is stale")

// Status is the cycle-level outcome.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusStaleData Status = "stale_data"
	StatusError     Status = "error"
)

// Options configures one discovery run.
type Options struct {
	Limit int `json:"limit"`
}

// Stats summarizes stage reduction through one cycle.
type Stats struct {
	UniverseSize   int            `json:"universe_size"`
	Filtered       int            `json:"filtered"`
	Enriched       int            `json:"enriched"`
	EnrichFailures int            `json:"enrich_failures"`
	Scored         int            `json:"scored"`
	Rejections     map[string]int `json:"rejections"`
}

// Result is the complete discovery output for one cycle.
type Result struct {
	CycleID          string                      `json:"cycle_id"`
	Status           Status                      `json:"status"`
	Candidates       []models.ScoredCandidate    `json:"candidates"`
	ExplosiveTop     []models.ExplosiveCandidate `json:"explosive_top"`
	Stats            Stats                       `json:"pipeline_stats"`
	ExecutionTimeSec float64                     `json:"execution_time_sec"`
	Timestamp        time.Time                   `json:"timestamp"`
}

// Runner executes discovery cycles. It holds no mutable cycle state; the
// same Runner is safely reusable across cycles.
type Runner struct {
	cfg      *config.Config
	source   data.MarketDataSource
	enricher *enrich.Service
	engine   *scoring.Engine
	selector *explosive.Selector
	store    cache.Store
	repo     *persistence.ScanRepo
	sink     events.Sink
	metrics  *metrics.Registry

	now        func() time.Time
	marketOpen func(time.Time) bool
}

// Deps collects the optional collaborators.
type Deps struct {
	Store cache.Store
	Repo  *persistence.ScanRepo
	Sink  events.Sink

	// Now and MarketOpen are overridable for tests; nil selects the real
	// clock and the regular-session calendar.
	Now        func() time.Time
	MarketOpen func(time.Time) bool
}

// NewRunner wires a discovery runner.
func NewRunner(cfg *config.Config, source data.MarketDataSource, providers enrich.Providers, m *metrics.Registry, deps Deps) *Runner {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	marketOpen := deps.MarketOpen
	if marketOpen == nil {
		marketOpen = RegularSessionOpen
	}

	return &Runner{
		cfg:        cfg,
		source:     source,
		enricher:   enrich.NewService(source, providers, cfg.Enrich, now),
		engine:     scoring.NewEngine(cfg.Weights),
		selector:   explosive.NewSelector(cfg.Explosive),
		store:      deps.Store,
		repo:       deps.Repo,
		sink:       deps.Sink,
		metrics:    m,
		now:        now,
		marketOpen: marketOpen,
	}
}

// Run executes one full discovery cycle.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := r.now()
	cycleID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Pipeline.CycleTimeout)
	defer cancel()

	r.metrics.ActiveScans.Inc()
	defer r.metrics.ActiveScans.Dec()

	log.Info().Str("cycle_id", cycleID).Int("limit", opts.Limit).Msg("discovery cycle started")

	res := &Result{
		CycleID:      cycleID,
		Status:       StatusSuccess,
		Candidates:   []models.ScoredCandidate{},
		ExplosiveTop: []models.ExplosiveCandidate{},
		Timestamp:    start,
	}

	snapshots, err := r.fetchUniverse(ctx)
	if err != nil {
		if errors.Is(err, ErrStaleUniverse) {
			// Refuse to score known-stale data; empty lists are the answer.
			res.Status = StatusStaleData
			res.ExecutionTimeSec = r.now().Sub(start).Seconds()
			r.metrics.ScansTotal.WithLabelValues(string(StatusStaleData)).Inc()
			log.Warn().Str("cycle_id", cycleID).Msg("stale universe snapshot, cycle aborted")
			return res, nil
		}
		res.Status = StatusError
		res.ExecutionTimeSec = r.now().Sub(start).Seconds()
		r.metrics.ScansTotal.WithLabelValues(string(StatusError)).Inc()
		return res, fmt.Errorf("fetch universe: %w", err)
	}
	res.Stats.UniverseSize = len(snapshots)

	filtered := r.filterStage(snapshots)
	res.Stats.Filtered = len(filtered.Kept)
	res.Stats.Rejections = filtered.Counts

	enriched := r.enrichStage(ctx, filtered.Kept)
	res.Stats.Enriched = len(enriched.Candidates)
	res.Stats.EnrichFailures = enriched.Failures

	res.Candidates = r.scoreStage(enriched.Candidates, opts.Limit)
	res.Stats.Scored = len(res.Candidates)

	res.ExplosiveTop = r.explosiveStage(enriched.Candidates)

	// A cancelled cycle hands off nothing: collaborators only ever see a
	// complete result set.
	if err := ctx.Err(); err != nil {
		res.Status = StatusError
		res.ExecutionTimeSec = r.now().Sub(start).Seconds()
		r.metrics.ScansTotal.WithLabelValues(string(StatusError)).Inc()
		return res, fmt.Errorf("cycle aborted: %w", err)
	}

	res.ExecutionTimeSec = r.now().Sub(start).Seconds()
	r.metrics.ScansTotal.WithLabelValues(string(StatusSuccess)).Inc()
	r.metrics.CandidatesFound.Observe(float64(len(res.Candidates)))

	r.handOff(ctx, res)

	log.Info().
		Str("cycle_id", cycleID).
		Int("universe", res.Stats.UniverseSize).
		Int("filtered", res.Stats.Filtered).
		Int("enriched", res.Stats.Enriched).
		Int("scored", res.Stats.Scored).
		Int("explosive_top", len(res.ExplosiveTop)).
		Float64("seconds", res.ExecutionTimeSec).
		Msg("discovery cycle completed")

	return res, nil
}

// fetchUniverse pulls the bulk snapshot and enforces the freshness
// invariant during active trading hours.
func (r *Runner) fetchUniverse(ctx context.Context) ([]models.TickerSnapshot, error) {
	done := r.stageTimer("fetch")
	defer done()

	snapshots, err := r.source.GetUniverseSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if r.marketOpen(now) {
		age := now.Sub(newestTimestamp(snapshots))
		if age > r.cfg.Pipeline.MaxSnapshotAge {
			return nil, fmt.Errorf("%w: age %s exceeds %s", ErrStaleUniverse, age, r.cfg.Pipeline.MaxSnapshotAge)
		}
	}
	return snapshots, nil
}

func (r *Runner) filterStage(snapshots []models.TickerSnapshot) universe.Result {
	done := r.stageTimer("filter")
	defer done()

	filtered := universe.Filter(snapshots, r.cfg.Universe)
	for reason, n := range filtered.Counts {
		r.metrics.RejectionsTotal.WithLabelValues(reason).Add(float64(n))
	}
	return filtered
}

func (r *Runner) enrichStage(ctx context.Context, kept []models.TickerSnapshot) enrich.BatchResult {
	done := r.stageTimer("enrich")
	defer done()

	enriched := r.enricher.EnrichAll(ctx, kept)
	if enriched.Failures > 0 {
		r.metrics.EnrichFailures.Add(float64(enriched.Failures))
	}
	return enriched
}

// scoreStage scores and tiers candidates, drops rejected ones, sorts by
// total score descending with symbol as the deterministic tiebreak, and
// truncates to the caller's limit.
func (r *Runner) scoreStage(enriched []models.EnrichedCandidate, limit int) []models.ScoredCandidate {
	done := r.stageTimer("score")
	defer done()

	scored := make([]models.ScoredCandidate, 0, len(enriched))
	for _, c := range enriched {
		sr := r.engine.Score(r.engine.Components(scoring.InputsFrom(c)))
		tag := scoring.Classify(sr.TotalScore, r.cfg.Tiers)
		if tag == models.ActionRejected {
			continue
		}
		scored = append(scored, models.ScoredCandidate{
			EnrichedCandidate: c,
			Subscores:         sr.Subscores,
			ActiveWeights:     sr.ActiveWeights,
			Missing:           sr.Missing,
			TotalScore:        sr.TotalScore,
			ActionTag:         tag,
			Confidence:        sr.Confidence * c.Confidence,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].TotalScore != scored[j].TotalScore {
			return scored[i].TotalScore > scored[j].TotalScore
		}
		return scored[i].Symbol < scored[j].Symbol
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (r *Runner) explosiveStage(enriched []models.EnrichedCandidate) []models.ExplosiveCandidate {
	done := r.stageTimer("explosive")
	defer done()
	return r.selector.Select(enriched)
}

// handOff delivers the completed result to the optional collaborators.
// Each delivery is best-effort and independently logged.
func (r *Runner) handOff(ctx context.Context, res *Result) {
	if r.store != nil {
		if err := cache.WriteResult(ctx, r.store, res, r.cfg.Pipeline.ResultTTL); err != nil {
			log.Warn().Err(err).Str("cycle_id", res.CycleID).Msg("result cache write failed")
		}
	}

	if r.repo != nil {
		rec := persistence.CycleRecord{
			CycleID:      res.CycleID,
			Status:       string(res.Status),
			UniverseSize: res.Stats.UniverseSize,
			Filtered:     res.Stats.Filtered,
			Enriched:     res.Stats.Enriched,
			Scored:       res.Stats.Scored,
			ExplosiveTop: len(res.ExplosiveTop),
			DurationMs:   int64(res.ExecutionTimeSec * 1000),
			CreatedAt:    res.Timestamp,
		}
		if err := r.repo.SaveCycle(ctx, rec, res.Candidates); err != nil {
			log.Warn().Err(err).Str("cycle_id", res.CycleID).Msg("scan history write failed")
		}
	}

	if r.sink != nil {
		r.sink.Publish(ctx, events.ScanEvent{
			CycleID:      res.CycleID,
			Status:       string(res.Status),
			Candidates:   len(res.Candidates),
			ExplosiveTop: len(res.ExplosiveTop),
			UniverseSize: res.Stats.UniverseSize,
			CompletedAt:  r.now(),
		})
	}
}

func (r *Runner) stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		r.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func newestTimestamp(snapshots []models.TickerSnapshot) time.Time {
	var newest time.Time
	for _, s := range snapshots {
		if s.DataTimestamp.After(newest) {
			newest = s.DataTimestamp
		}
	}
	return newest
}

// RegularSessionOpen reports whether t falls inside the regular US equity
// session, 09:30-16:00 Eastern on weekdays.
func RegularSessionOpen(t time.Time) bool {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return false
	}
	et := t.In(loc)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}
	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}
