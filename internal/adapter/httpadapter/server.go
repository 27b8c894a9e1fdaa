package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// Server exposes health, readiness, metrics and the active analysis definition.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// analysisView is the JSON shape of GET /analysis.
type analysisView struct {
	Rules             []domain.Rule      `json:"rules"`
	MinDurationHours  float64            `json:"min_duration_hours"`
	Granularity       domain.Granularity `json:"granularity"`
	Seasons           []string           `json:"seasons"`
	AbbreviateSeasons bool               `json:"abbreviate_seasons"`
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and /analysis routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, analysis domain.Analysis, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /analysis", handleAnalysis(analysis))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleAnalysis(a domain.Analysis) http.HandlerFunc {
	seasons := a.Summary.Seasons
	if seasons == nil {
		seasons = domain.DefaultSeasonPolicy()
	}
	view := analysisView{
		Rules:             a.Rules,
		MinDurationHours:  a.Detect.MinDuration.Hours(),
		Granularity:       a.Summary.Granularity,
		Seasons:           seasons.Labels(a.Summary.AbbreviateSeasons),
		AbbreviateSeasons: a.Summary.AbbreviateSeasons,
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		sharedobs.WriteJSON(w, http.StatusOK, view)
	}
}
