// Package openweather reads OpenWeather's own 1–5 air-quality index.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	providerName   = "openweather"
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/air_pollution"
)

// Client implements domain.IndexProvider using the OpenWeather air pollution API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
}

// NewClient creates an OpenWeather air pollution client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}
}

func (c *Client) Name() string { return providerName }

// CurrentIndex returns list[0].main.aqi for the coordinates.
func (c *Client) CurrentIndex(ctx context.Context, lat, lon float64) (aqi.ProviderIndex, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 4, 64)},
		"appid": {c.apiKey},
	}

	start := c.clock.Now()
	idx, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderAPIDuration.WithLabelValues(providerName).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return 0, err
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return idx, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (aqi.ProviderIndex, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("air pollution request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(owResp.List) == 0 {
		return 0, errors.New("openweather response has no entries")
	}
	return aqi.ProviderIndex(owResp.List[0].Main.AQI), nil
}

// OpenWeather API response types.

type response struct {
	List []item `json:"list"`
}

type item struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components map[string]float64 `json:"components"`
}
