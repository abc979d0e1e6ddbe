package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cartridge/arena-agent/internal/storage"
	"github.com/cartridge/arena-agent/internal/telemetry"
)

// StatsSource supplies training progress.
type StatsSource interface {
	Snapshot() telemetry.Stats
}

// BufferStats supplies replay buffer occupancy.
type BufferStats interface {
	Stats() storage.Stats
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	telemetry.Stats
	Buffer storage.Stats `json:"buffer"`
}

// Server exposes read-only agent status over HTTP.
type Server struct {
	stats   StatsSource
	buffer  BufferStats
	logger  *zerolog.Logger
	started time.Time
}

// NewServer constructs a Server instance.
func NewServer(stats StatsSource, buffer BufferStats, logger *zerolog.Logger) *Server {
	return &Server{stats: stats, buffer: buffer, logger: logger, started: time.Now()}
}

// Routes builds the HTTP router for the status service.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(CorrelationID)
	r.Use(RequestLogger(*s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/rewards", s.handleRewards)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Stats:  s.stats.Snapshot(),
		Buffer: s.buffer.Stats(),
	})
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	rewards := s.stats.Snapshot().EpisodeRewards
	if rewards == nil {
		rewards = []float64{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"episode_rewards": rewards})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
