package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	failing  map[string]bool
	delay    time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
	mu       sync.Mutex
	seen     []string
}

func (s *stubProvider) Hourly(ctx context.Context, st domain.Station) (domain.Series, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	s.mu.Lock()
	s.seen = append(s.seen, st.ID)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.Series{}, ctx.Err()
		}
	}
	if s.failing[st.ID] {
		return domain.Series{}, errors.New("upstream 503")
	}
	return makeSeries(st, f(20)), nil
}

func TestStationExtractor_AllSucceed(t *testing.T) {
	stations := domain.DefaultStations()
	ext := pipeline.NewStationExtractor(&stubProvider{}, stations, 3, discardLogger())

	batch, err := ext.ExtractBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, len(stations))
	for i, s := range batch {
		assert.Equal(t, stations[i].ID, s.Station.ID, "catalogue order is preserved")
	}
}

func TestStationExtractor_PartialFailure(t *testing.T) {
	stations := domain.DefaultStations()
	prov := &stubProvider{failing: map[string]bool{"ranchi": true, "jharia-coalfield": true}}
	ext := pipeline.NewStationExtractor(prov, stations, 2, discardLogger())

	batch, err := ext.ExtractBatch(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch, len(stations)-2)
	for _, s := range batch {
		assert.NotEqual(t, "ranchi", s.Station.ID)
	}
}

func TestStationExtractor_AllFail(t *testing.T) {
	stations := []domain.Station{ranchi, jamshedpur}
	prov := &stubProvider{failing: map[string]bool{"ranchi": true, "jamshedpur": true}}
	ext := pipeline.NewStationExtractor(prov, stations, 2, discardLogger())

	_, err := ext.ExtractBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 stations failed")
	assert.Contains(t, err.Error(), "upstream 503")
}

func TestStationExtractor_RespectsConcurrency(t *testing.T) {
	prov := &stubProvider{delay: 20 * time.Millisecond}
	ext := pipeline.NewStationExtractor(prov, domain.DefaultStations(), 2, discardLogger())

	_, err := ext.ExtractBatch(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, prov.peak.Load(), int64(2))
	assert.Len(t, prov.seen, 6)
}

func TestStationExtractor_ZeroConcurrencyIsSerial(t *testing.T) {
	prov := &stubProvider{delay: 5 * time.Millisecond}
	ext := pipeline.NewStationExtractor(prov, domain.DefaultStations(), 0, discardLogger())

	_, err := ext.ExtractBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), prov.peak.Load())
}

func TestStationExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := pipeline.NewStationExtractor(&stubProvider{}, domain.DefaultStations(), 2, discardLogger())
	_, err := ext.ExtractBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
