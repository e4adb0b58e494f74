// Package openmeteo fetches hourly pollutant concentrations from the
// open-meteo air-quality API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Source names this provider in reports and metrics.
const Source = "open-meteo"

const (
	timeLayout = "2006-01-02T15:04"
	timezone   = "Asia/Kolkata"
	hourlyVars = "pm10,pm2_5,dust,nitrogen_dioxide"
)

// Client implements domain.AirQualityProvider using the open-meteo API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	forecastDays int
	clock        clockwork.Clock
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates an open-meteo air-quality client.
func NewClient(baseURL string, timeout time.Duration, forecastDays int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:      baseURL,
		forecastDays: forecastDays,
		clock:        clockwork.NewRealClock(),
		metrics:      metrics,
		logger:       logger,
	}
}

// Hourly returns the hourly series for the station's coordinates.
func (c *Client) Hourly(ctx context.Context, st domain.Station) (domain.Series, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(st.Lat, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(st.Lon, 'f', 4, 64)},
		"hourly":        {hourlyVars},
		"timezone":      {timezone},
		"forecast_days": {strconv.Itoa(c.forecastDays)},
	}

	start := c.clock.Now()
	resp, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderAPIDuration.WithLabelValues(Source).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.Series{}, fmt.Errorf("station %s: %w", st.ID, err)
	}

	readings, err := resp.readings()
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(Source, "error").Inc()
		return domain.Series{}, fmt.Errorf("station %s: %w", st.ID, err)
	}
	c.metrics.ProviderRequests.WithLabelValues(Source, "success").Inc()
	c.logger.Debug("open-meteo series fetched", "station", st.ID, "hours", len(readings))

	return domain.Series{
		Station:   st,
		Source:    Source,
		Readings:  readings,
		FetchedAt: c.clock.Now(),
	}, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("air-quality request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return response{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// open-meteo API response types.

type response struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Timezone         string  `json:"timezone"`
	Hourly           hourly  `json:"hourly"`
}

// hourly holds parallel arrays indexed by hour; values may be null.
type hourly struct {
	Time []string   `json:"time"`
	PM10 []*float64 `json:"pm10"`
	PM25 []*float64 `json:"pm2_5"`
	Dust []*float64 `json:"dust"`
	NO2  []*float64 `json:"nitrogen_dioxide"`
}

// readings converts the local wall-clock times using the reported UTC offset.
func (r response) readings() ([]domain.RawReading, error) {
	loc := time.FixedZone(r.Timezone, r.UTCOffsetSeconds)
	out := make([]domain.RawReading, 0, len(r.Hourly.Time))
	for i, s := range r.Hourly.Time {
		ts, err := time.ParseInLocation(timeLayout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("parse hourly time %q: %w", s, err)
		}
		out = append(out, domain.RawReading{
			Timestamp: ts,
			PM25:      at(r.Hourly.PM25, i),
			PM10:      at(r.Hourly.PM10, i),
			Dust:      at(r.Hourly.Dust, i),
			NO2:       at(r.Hourly.NO2, i),
		})
	}
	return out, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
