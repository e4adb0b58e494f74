package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/config"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	sent    []published
	failFor map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte) error {
	if f.failFor[topic] {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, published{topic: topic, payload: payload})
	return nil
}

func snap(stationID string, score float64) domain.StationSnapshot {
	return domain.StationSnapshot{Current: domain.AQIReport{
		ID:        stationID + "-1",
		StationID: stationID,
		AQI:       aqi.NewResult(score),
	}}
}

func newTestAlerter(pub publisher) (*Alerter, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewAlerter(pub, "aqi/alerts", aqi.Unhealthy, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func TestAlerter_PublishesAtOrAboveThreshold(t *testing.T) {
	pub := &fakePublisher{}
	a, m := newTestAlerter(pub)

	err := a.LoadBatch(context.Background(), []domain.StationSnapshot{
		snap("ranchi", 80),             // moderate
		snap("jharia-coalfield", 175),  // unhealthy
		snap("sindri-industrial", 350), // hazardous
	})
	require.NoError(t, err)

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "aqi/alerts/jharia-coalfield", pub.sent[0].topic)
	assert.Equal(t, "aqi/alerts/sindri-industrial", pub.sent[1].topic)

	var got domain.AQIReport
	require.NoError(t, json.Unmarshal(pub.sent[1].payload, &got))
	assert.Equal(t, aqi.Hazardous, got.AQI.Category)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsPublished.WithLabelValues("unhealthy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsPublished.WithLabelValues("hazardous")))
}

func TestAlerter_ContinuesPastFailure(t *testing.T) {
	pub := &fakePublisher{failFor: map[string]bool{"aqi/alerts/jharia-coalfield": true}}
	a, _ := newTestAlerter(pub)

	err := a.LoadBatch(context.Background(), []domain.StationSnapshot{
		snap("jharia-coalfield", 250),
		snap("sindri-industrial", 250),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish alert jharia-coalfield")
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "aqi/alerts/sindri-industrial", pub.sent[0].topic)
}

func TestAlerter_NothingToPublish(t *testing.T) {
	pub := &fakePublisher{}
	a, _ := newTestAlerter(pub)
	require.NoError(t, a.LoadBatch(context.Background(), []domain.StationSnapshot{snap("ranchi", 20)}))
	assert.Empty(t, pub.sent)
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient(&config.Config{MQTTBroker: "tcp://127.0.0.1:1", MQTTClientID: "test"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, c.IsConnected())
	require.Error(t, c.Publish(context.Background(), "aqi/alerts/x", []byte("{}")))

	c.Disconnect()
	c.Disconnect()
	assert.Error(t, c.Connect(context.Background()), "connect after disconnect is refused")
}
