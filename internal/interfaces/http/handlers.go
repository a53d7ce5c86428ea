package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/equityrun/internal/cache"
	"github.com/sawpanic/equityrun/internal/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: status})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.runner.Health(r.Context())
	status := http.StatusOK
	if !report.SystemReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// latestResult loads the most recent completed cycle from the cache.
func (s *Server) latestResult(r *http.Request) (*pipeline.Result, error) {
	if s.store == nil {
		return nil, nil
	}
	raw, err := s.store.Get(r.Context(), cache.ResultKey)
	if err != nil || raw == nil {
		return nil, err
	}
	var res pipeline.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	res, err := s.latestResult(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "result lookup failed")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no completed scan available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":   res.CycleID,
		"status":     res.Status,
		"candidates": res.Candidates,
		"timestamp":  res.Timestamp,
	})
}

func (s *Server) handleExplosive(w http.ResponseWriter, r *http.Request) {
	res, err := s.latestResult(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "result lookup failed")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no completed scan available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle_id":      res.CycleID,
		"status":        res.Status,
		"explosive_top": res.ExplosiveTop,
		"timestamp":     res.Timestamp,
	})
}

// handleCycles serves recent scan history from the persistence store.
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "scan history not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	cycles, err := s.repo.RecentCycles(r.Context(), limit)
	if err != nil {
		log.Warn().Err(err).Msg("scan history query failed")
		writeError(w, http.StatusInternalServerError, "scan history query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycles": cycles})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":     "endpoint not found",
		"path":      r.URL.Path,
		"timestamp": time.Now().UTC(),
	})
}
