package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
)

// Sink is a named BatchLoader. A best-effort sink's failures are logged and
// counted but do not fail the cycle, so they never trigger a retry of the
// other sinks.
type Sink struct {
	Name       string
	Loader     BatchLoader
	BestEffort bool
}

// FanOut loads each batch into every sink in order. It implements BatchLoader.
type FanOut struct {
	sinks   []Sink
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFanOut creates a loader over the given sinks.
func NewFanOut(metrics *observability.Metrics, logger *slog.Logger, sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks, metrics: metrics, logger: logger}
}

// LoadBatch writes to all sinks even if one fails and returns the joined
// errors of the sinks that are not best-effort.
func (f *FanOut) LoadBatch(ctx context.Context, snaps []domain.StationSnapshot) error {
	var errs []error
	for _, s := range f.sinks {
		err := s.Loader.LoadBatch(ctx, snaps)
		if err == nil {
			continue
		}
		f.metrics.LoadErrors.WithLabelValues(s.Name).Inc()
		if s.BestEffort {
			f.logger.Warn("best-effort sink load failed", "sink", s.Name, "error", err, "batch_size", len(snaps))
			continue
		}
		f.logger.Error("sink load failed", "sink", s.Name, "error", err, "batch_size", len(snaps))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return errors.Join(errs...)
}

// Names lists the configured sinks.
func (f *FanOut) Names() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name
	}
	return names
}
