package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// BatchExtractor fetches the hourly series for every station.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context) ([]domain.Series, error)
}

// Transformer converts a station's series into a snapshot.
type Transformer interface {
	Transform(ctx context.Context, series domain.Series) (domain.StationSnapshot, error)
}

// BatchLoader writes a cycle's snapshots to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, snaps []domain.StationSnapshot) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the poll-extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool
	interval    time.Duration
}

// New creates a Pipeline that runs a cycle every interval.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		interval:    interval,
	}
}

// SetClock swaps the time source used for poll and backoff waits.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// CheckReadiness returns nil once a cycle has loaded at least one snapshot,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.Ready() {
		return errors.New("pipeline has not loaded any station snapshots yet")
	}
	return nil
}

// Ready reports whether a cycle has completed successfully.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes the poll loop until the context is cancelled. A failed cycle
// is retried with exponential backoff instead of waiting a full interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "poll_interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			wait = min(backoff, p.interval)
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce performs a single extract-transform-load cycle.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := p.clock.Now()

	batch, err := p.extractor.ExtractBatch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("extract batch failed", "error", err)
		}
		return err
	}
	p.metrics.StationsPerCycle.Observe(float64(len(batch)))

	snaps := p.transformAll(ctx, batch)
	if len(snaps) == 0 {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, snaps); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(snaps))
		return err
	}

	p.metrics.ReportsProduced.Add(float64(len(snaps)))
	for _, snap := range snaps {
		p.metrics.StationAQI.WithLabelValues(snap.Station.ID).Set(snap.Current.AQI.Score)
		p.metrics.StationPM25.WithLabelValues(snap.Station.ID).Set(snap.Current.Reading.PM25)
	}
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("cycle complete", "stations", len(snaps), "duration", p.clock.Since(start))
	return nil
}

// transformAll turns each series into a snapshot, skipping stations whose
// series has no scorable reading.
func (p *Pipeline) transformAll(ctx context.Context, batch []domain.Series) []domain.StationSnapshot {
	snaps := make([]domain.StationSnapshot, 0, len(batch))
	for _, series := range batch {
		p.metrics.ReadingsProcessed.Add(float64(len(series.Readings)))

		snap, err := p.transformer.Transform(ctx, series)
		if err != nil {
			p.logger.Warn("transform failed, skipping station",
				"station", series.Station.ID,
				"readings", len(series.Readings),
				"error", err,
			)
			p.metrics.TransformErrors.Inc()
			p.metrics.InvalidReadings.Add(float64(len(series.Readings)))
			continue
		}
		if snap.Summary.SkippedReadings > 0 {
			p.metrics.InvalidReadings.Add(float64(snap.Summary.SkippedReadings))
			p.logger.Debug("skipped unscorable readings",
				"station", series.Station.ID,
				"skipped", snap.Summary.SkippedReadings,
			)
		}
		snaps = append(snaps, snap)
	}
	return snaps
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
