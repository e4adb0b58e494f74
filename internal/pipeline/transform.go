package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
)

// SnapshotTransformer implements Transformer using domain transform functions
// with optional provider-index enrichment.
type SnapshotTransformer struct {
	index  domain.IndexProvider
	logger *slog.Logger
}

// NewTransformer creates a SnapshotTransformer. Pass a nil index provider to
// disable provider-index enrichment.
func NewTransformer(index domain.IndexProvider, logger *slog.Logger) *SnapshotTransformer {
	return &SnapshotTransformer{
		index:  index,
		logger: logger,
	}
}

func (t *SnapshotTransformer) Transform(ctx context.Context, series domain.Series) (domain.StationSnapshot, error) {
	snap, err := domain.BuildSnapshot(series)
	if err != nil {
		return domain.StationSnapshot{}, err
	}

	snap = domain.EnrichWithProviderIndex(ctx, snap, t.index, t.logger)

	return snap, nil
}
