package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotReader returns the latest in-memory snapshot for a station.
type SnapshotReader interface {
	Get(stationID string) (domain.StationSnapshot, bool)
}

// HistoryReader queries stored reports for a station.
type HistoryReader interface {
	Readings(ctx context.Context, stationID string, from, to time.Time) ([]domain.AQIReport, error)
	Latest(ctx context.Context, stationID string, asOf time.Time) (domain.AQIReport, error)
	CategoryHours(ctx context.Context, stationID string, from, to time.Time) (map[aqi.Category]int, error)
}

// Advisor produces safety guidance for a report.
type Advisor interface {
	Advise(ctx context.Context, report domain.AQIReport) domain.Advisory
}

// Deps are the collaborators behind the API routes. History and Advisor
// are optional.
type Deps struct {
	Ready     sharedobs.ReadinessChecker
	Stations  []domain.Station
	Snapshots SnapshotReader
	History   HistoryReader
	Advisor   Advisor
	Clock     clockwork.Clock
}

// Server exposes health, readiness, metrics, and the station API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the operational and /api/v1 routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Advisory generation may wait on the LLM.
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/aqi", s.handleCompute)
	mux.HandleFunc("GET /api/v1/stations", s.handleStations)
	mux.HandleFunc("GET /api/v1/stations/{id}", s.handleStation)
	mux.HandleFunc("GET /api/v1/stations/{id}/history.csv", s.handleHistoryCSV)
	mux.HandleFunc("GET /api/v1/stations/{id}/report.md", s.handleReport)
	mux.HandleFunc("GET /api/v1/stations/{id}/advisory", s.handleAdvisory)

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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
