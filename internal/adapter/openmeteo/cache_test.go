package openmeteo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingProvider struct {
	calls  int
	series domain.Series
	err    error
}

func (m *countingProvider) Hourly(_ context.Context, st domain.Station) (domain.Series, error) {
	m.calls++
	if m.err != nil {
		return domain.Series{}, m.err
	}
	s := m.series
	s.Station = st
	return s, nil
}

func oneReading() domain.Series {
	v := 42.0
	return domain.Series{Source: Source, Readings: []domain.RawReading{{Timestamp: time.Unix(0, 0), PM25: &v}}}
}

// --- CachedProvider tests ---

func TestCachedProvider_Hit(t *testing.T) {
	inner := &countingProvider{series: oneReading()}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedProvider(inner, 10, time.Minute, clockwork.NewFakeClock(), metrics)

	s1, err := cached.Hourly(context.Background(), dhanbad)
	require.NoError(t, err)
	s2, err := cached.Hourly(context.Background(), dhanbad)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProviderCache.WithLabelValues(Source, "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProviderCache.WithLabelValues(Source, "miss")), 0)
}

func TestCachedProvider_Expires(t *testing.T) {
	inner := &countingProvider{series: oneReading()}
	clk := clockwork.NewFakeClock()
	cached := NewCachedProvider(inner, 10, time.Minute, clk, observability.NewMetricsForTesting())

	_, _ = cached.Hourly(context.Background(), dhanbad)
	clk.Advance(time.Minute)
	_, _ = cached.Hourly(context.Background(), dhanbad)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_DifferentStationsMiss(t *testing.T) {
	inner := &countingProvider{series: oneReading()}
	cached := NewCachedProvider(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, _ = cached.Hourly(context.Background(), dhanbad)
	_, _ = cached.Hourly(context.Background(), domain.Station{ID: "ranchi", Lat: 23.3441, Lon: 85.3096})

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("timeout")}
	cached := NewCachedProvider(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, err := cached.Hourly(context.Background(), dhanbad)
	require.Error(t, err)
	_, err = cached.Hourly(context.Background(), dhanbad)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_EmptySeriesNotCached(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, 10, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, _ = cached.Hourly(context.Background(), dhanbad)
	_, _ = cached.Hourly(context.Background(), dhanbad)

	assert.Equal(t, 2, inner.calls)
}
