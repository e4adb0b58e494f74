package openmeteo

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/cache"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedProvider wraps an AirQualityProvider with an in-memory TTL cache.
type CachedProvider struct {
	inner   domain.AirQualityProvider
	cache   *cache.LRU[string, domain.Series]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider. Series are
// reused for ttl; a nil clock uses real time.
func NewCachedProvider(inner domain.AirQualityProvider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New[string, domain.Series](maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *CachedProvider) Hourly(ctx context.Context, st domain.Station) (domain.Series, error) {
	key := fmt.Sprintf("%s|%.4f,%.4f", st.ID, st.Lat, st.Lon)
	if series, ok := c.cache.Get(key); ok {
		c.metrics.ProviderCache.WithLabelValues(Source, "hit").Inc()
		return series, nil
	}
	c.metrics.ProviderCache.WithLabelValues(Source, "miss").Inc()

	series, err := c.inner.Hourly(ctx, st)
	if err != nil {
		return series, err
	}
	// Only cache non-empty series so a provider gap can be retried.
	if len(series.Readings) > 0 {
		c.cache.Put(key, series)
	}
	return series, nil
}
