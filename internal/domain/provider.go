package domain

import (
	"context"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
)

// AirQualityProvider fetches hourly pollutant concentrations for a station.
type AirQualityProvider interface {
	Hourly(ctx context.Context, st Station) (Series, error)
}

// IndexProvider returns a provider's own categorical index for a location.
type IndexProvider interface {
	// CurrentIndex returns the 1–5 level for the coordinates.
	CurrentIndex(ctx context.Context, lat, lon float64) (aqi.ProviderIndex, error)

	// Name identifies the provider in reports, e.g. "openweather".
	Name() string
}
