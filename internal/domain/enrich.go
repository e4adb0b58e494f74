package domain

import (
	"context"
	"log/slog"
)

// EnrichWithProviderIndex attaches the provider's native index to the
// snapshot's current report. A nil provider, a failed call or an out-of-range
// value leaves the snapshot unchanged.
func EnrichWithProviderIndex(ctx context.Context, snap StationSnapshot, provider IndexProvider, logger *slog.Logger) StationSnapshot {
	if provider == nil {
		return snap
	}

	idx, err := provider.CurrentIndex(ctx, snap.Station.Lat, snap.Station.Lon)
	if err != nil {
		logger.Warn("provider index lookup failed",
			"station", snap.Station.ID,
			"provider", provider.Name(),
			"error", err,
		)
		return snap
	}
	if !idx.Valid() {
		logger.Warn("provider index out of range",
			"station", snap.Station.ID,
			"provider", provider.Name(),
			"index", int(idx),
		)
		return snap
	}

	snap.Current.ProviderIndex = &ProviderReading{
		Index:  idx,
		Label:  idx.Label(),
		Source: provider.Name(),
	}
	return snap
}
