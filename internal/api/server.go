// Package api serves read-only views of a simulation over HTTP, for
// dashboards or anything else that wants to render run state. The engine
// itself mandates no wire format; this JSON surface is consumer glue.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/malakkhan/taxforce/internal/engine"
)

// Server serves simulation state over HTTP.
type Server struct {
	Sim  *engine.Simulation
	Port int
}

// Start begins serving in a goroutine. Intended for inspecting a finished
// run; the engine is not safe for concurrent stepping and serving.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/metrics", s.handleMetrics)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"state":   snap.State,
		"period":  snap.Period,
		"agents":  len(snap.Agents),
		"metrics": snap.Metrics,
	})
}

// handleMetrics returns the full per-period series collected so far.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Series())
}

// handleAgents returns per-agent state. Supports ?limit=N to cap the
// response size for large populations.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	list := snap.Agents
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if limit < len(list) {
			list = list[:limit]
		}
	}
	writeJSON(w, list)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
