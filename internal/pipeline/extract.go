package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// StationExtractor fetches every configured station concurrently.
// It implements BatchExtractor.
type StationExtractor struct {
	provider    domain.AirQualityProvider
	stations    []domain.Station
	concurrency int
	logger      *slog.Logger
}

// NewStationExtractor creates an extractor over the station catalogue.
// Concurrency below 1 is treated as 1.
func NewStationExtractor(provider domain.AirQualityProvider, stations []domain.Station, concurrency int, logger *slog.Logger) *StationExtractor {
	return &StationExtractor{
		provider:    provider,
		stations:    stations,
		concurrency: max(concurrency, 1),
		logger:      logger,
	}
}

// ExtractBatch returns one series per station that fetched successfully, in
// catalogue order. Per-station failures are logged and skipped; an error is
// returned only when every station failed or the context was cancelled.
func (e *StationExtractor) ExtractBatch(ctx context.Context) ([]domain.Series, error) {
	results := make([]*domain.Series, len(e.stations))
	errs := make([]error, len(e.stations))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, st := range e.stations {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}
			series, err := e.provider.Hourly(ctx, st)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &series
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Series, 0, len(results))
	for i, s := range results {
		if s == nil {
			e.logger.Warn("station fetch failed, skipping", "station", e.stations[i].ID, "error", errs[i])
			continue
		}
		out = append(out, *s)
	}
	if len(out) == 0 && len(e.stations) > 0 {
		return nil, fmt.Errorf("all %d stations failed: %w", len(e.stations), errors.Join(errs...))
	}
	return out, nil
}
