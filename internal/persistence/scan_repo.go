// Package persistence stores completed scan cycles in PostgreSQL for later
// review. The pipeline core never reads from it; it is a write-behind
// collaborator like the cache.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/equityrun/internal/models"
)

// CycleRecord is one persisted scan cycle summary.
type CycleRecord struct {
	CycleID      string    `db:"cycle_id" json:"cycle_id"`
	Status       string    `db:"status" json:"status"`
	UniverseSize int       `db:"universe_size" json:"universe_size"`
	Filtered     int       `db:"filtered" json:"filtered"`
	Enriched     int       `db:"enriched" json:"enriched"`
	Scored       int       `db:"scored" json:"scored"`
	ExplosiveTop int       `db:"explosive_top" json:"explosive_top"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ScanRepo persists scan cycles and their top candidates.
type ScanRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewScanRepo creates a repository. Returns nil for an empty DSN so callers
// can treat history persistence as optional.
func NewScanRepo(dsn string, timeout time.Duration) (*ScanRepo, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &ScanRepo{db: db, timeout: timeout}, nil
}

// SaveCycle writes the cycle summary and its candidate rows in one
// transaction. Candidates are serialized with their full feature payload.
func (r *ScanRepo) SaveCycle(ctx context.Context, rec CycleRecord, candidates []models.ScoredCandidate) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const cycleQuery = `
		INSERT INTO scan_cycles
		(cycle_id, status, universe_size, filtered, enriched, scored, explosive_top, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, cycleQuery,
		rec.CycleID, rec.Status, rec.UniverseSize, rec.Filtered, rec.Enriched,
		rec.Scored, rec.ExplosiveTop, rec.DurationMs, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert cycle %s: %w", rec.CycleID, err)
	}

	const candidateQuery = `
		INSERT INTO scan_candidates
		(cycle_id, symbol, total_score, action_tag, confidence, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, c := range candidates {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal candidate %s: %w", c.Symbol, err)
		}
		if _, err := tx.ExecContext(ctx, candidateQuery,
			rec.CycleID, c.Symbol, c.TotalScore, string(c.ActionTag), c.Confidence, payload); err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cycle %s: %w", rec.CycleID, err)
	}
	return nil
}

// RecentCycles returns the latest cycle summaries, newest first.
func (r *ScanRepo) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT cycle_id, status, universe_size, filtered, enriched, scored,
		       explosive_top, duration_ms, created_at
		FROM scan_cycles
		ORDER BY created_at DESC
		LIMIT $1`

	var out []CycleRecord
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("select recent cycles: %w", err)
	}
	return out, nil
}

// Close closes the underlying database handle.
func (r *ScanRepo) Close() error {
	return r.db.Close()
}
