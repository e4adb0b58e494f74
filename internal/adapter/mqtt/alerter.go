// Package mqtt publishes AQI alerts to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/config"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// publisher sends one payload to a topic.
type publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Alerter publishes a station's current report when its category reaches
// the configured threshold. It implements pipeline.BatchLoader.
type Alerter struct {
	pub     publisher
	prefix  string
	min     aqi.Category
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAlerter builds an Alerter over an existing publisher.
func NewAlerter(pub publisher, prefix string, threshold aqi.Category, metrics *observability.Metrics, logger *slog.Logger) *Alerter {
	return &Alerter{pub: pub, prefix: prefix, min: threshold, metrics: metrics, logger: logger}
}

// Topic returns the alert topic for a station.
func (a *Alerter) Topic(stationID string) string {
	return a.prefix + "/" + stationID
}

// LoadBatch publishes every current report at or above the threshold.
// One failed publish does not stop the others; the errors are joined.
func (a *Alerter) LoadBatch(ctx context.Context, snaps []domain.StationSnapshot) error {
	var errs []error
	for i := range snaps {
		report := snaps[i].Current
		if report.AQI.Category < a.min {
			continue
		}
		payload, err := json.Marshal(report)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal alert %s: %w", report.StationID, err))
			continue
		}
		topic := a.Topic(report.StationID)
		if err := a.pub.Publish(ctx, topic, payload); err != nil {
			errs = append(errs, fmt.Errorf("publish alert %s: %w", report.StationID, err))
			continue
		}
		a.metrics.AlertsPublished.WithLabelValues(report.AQI.Category.String()).Inc()
		a.logger.Info("aqi alert published",
			"station", report.StationID,
			"topic", topic,
			"category", report.AQI.Category.String(),
			"aqi", report.AQI.Score,
		)
	}
	return errors.Join(errs...)
}

// Client is a paho-backed publisher with connection state tracking.
type Client struct {
	client    paho.Client
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewClient configures (but does not connect) a paho client for cfg.MQTTBroker.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	c := &Client{
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect waits for the initial connection, honouring ctx and Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return errors.New("mqtt client stopped")
	default:
	}
	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			c.client.Disconnect(0)
			return ctx.Err()
		case <-c.stopCh:
			return errors.New("mqtt client stopped")
		default:
		}
	}
}

// Publish sends payload at QoS 1, not retained.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if !c.IsConnected() {
		return errors.New("mqtt client not connected")
	}
	token := c.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	return token.Error()
}

// IsConnected reports whether the broker session is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect is idempotent.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.client.Disconnect(250)
	c.setConnected(false)
	c.logger.Info("mqtt client disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
