package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock index provider ---

type mockIndexProvider struct {
	index   aqi.ProviderIndex
	err     error
	calls   int
	lastLat float64
	lastLon float64
}

func (m *mockIndexProvider) CurrentIndex(_ context.Context, lat, lon float64) (aqi.ProviderIndex, error) {
	m.calls++
	m.lastLat, m.lastLon = lat, lon
	return m.index, m.err
}

func (m *mockIndexProvider) Name() string { return "mock" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() StationSnapshot {
	return StationSnapshot{
		Station: testStation,
		Current: AQIReport{ID: "r-1", StationID: testStation.ID},
	}
}

// --- tests ---

func TestEnrichWithProviderIndex_NilProvider(t *testing.T) {
	snap := EnrichWithProviderIndex(context.Background(), testSnapshot(), nil, discardLogger())
	assert.Nil(t, snap.Current.ProviderIndex)
}

func TestEnrichWithProviderIndex_Success(t *testing.T) {
	p := &mockIndexProvider{index: 4}

	snap := EnrichWithProviderIndex(context.Background(), testSnapshot(), p, discardLogger())

	require.NotNil(t, snap.Current.ProviderIndex)
	assert.Equal(t, aqi.ProviderIndex(4), snap.Current.ProviderIndex.Index)
	assert.Equal(t, "Poor", snap.Current.ProviderIndex.Label)
	assert.Equal(t, "mock", snap.Current.ProviderIndex.Source)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, testStation.Lat, p.lastLat)
	assert.Equal(t, testStation.Lon, p.lastLon)
}

func TestEnrichWithProviderIndex_ErrorDegrades(t *testing.T) {
	p := &mockIndexProvider{err: errors.New("401 unauthorized")}

	snap := EnrichWithProviderIndex(context.Background(), testSnapshot(), p, discardLogger())

	assert.Nil(t, snap.Current.ProviderIndex)
	assert.Equal(t, "r-1", snap.Current.ID)
}

func TestEnrichWithProviderIndex_OutOfRange(t *testing.T) {
	p := &mockIndexProvider{index: 7}

	snap := EnrichWithProviderIndex(context.Background(), testSnapshot(), p, discardLogger())

	assert.Nil(t, snap.Current.ProviderIndex)
}

func TestEnrichWithProviderIndex_DoesNotTouchAQI(t *testing.T) {
	in := testSnapshot()
	in.Current.AQI = aqi.NewResult(42)
	p := &mockIndexProvider{index: 5}

	snap := EnrichWithProviderIndex(context.Background(), in, p, discardLogger())

	assert.Equal(t, aqi.NewResult(42), snap.Current.AQI)
}
