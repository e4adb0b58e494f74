package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/google/uuid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	PollInterval     time.Duration
	FetchConcurrency int
	StationsFile     string

	// open-meteo air-quality API.
	OpenMeteoBaseURL      string
	OpenMeteoTimeout      time.Duration
	OpenMeteoForecastDays int
	OpenMeteoCacheTTL     time.Duration

	// OpenWeather provider-native index.
	OpenWeatherAPIKey  string
	OpenWeatherEnabled bool

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// SQLitePath is the history database file; empty disables the store.
	SQLitePath string

	// MQTT alerting; empty broker disables it.
	MQTTBroker       string
	MQTTClientID     string
	MQTTTopicPrefix  string
	AlertMinCategory aqi.Category

	GeminiAPIKey    string
	GeminiModel     string
	AdvisoryTimeout time.Duration
}

// DefaultOpenMeteoURL is the public open-meteo air-quality endpoint.
const DefaultOpenMeteoURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	pollInterval, err := parseDuration("POLL_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	omTimeout, err := parseDuration("OPENMETEO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	omCacheTTL, err := parseDuration("OPENMETEO_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	advisoryTimeout, err := parseDuration("ADVISORY_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	concurrency, err := parseIntInRange("FETCH_CONCURRENCY", 4, 1, 32)
	if err != nil {
		return nil, err
	}
	forecastDays, err := parseIntInRange("OPENMETEO_FORECAST_DAYS", 3, 1, 7)
	if err != nil {
		return nil, err
	}
	alertMin, err := aqi.ParseCategory(sharedcfg.EnvOrDefault("ALERT_MIN_CATEGORY", "unhealthy"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_MIN_CATEGORY: %w", err)
	}

	owKey := os.Getenv("OPENWEATHER_API_KEY")
	owEnabled := owKey != ""
	if v := os.Getenv("OPENWEATHER_ENABLED"); v != "" {
		owEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PollInterval:     pollInterval,
		FetchConcurrency: concurrency,
		StationsFile:     os.Getenv("STATIONS_FILE"),

		OpenMeteoBaseURL:      sharedcfg.EnvOrDefault("OPENMETEO_BASE_URL", DefaultOpenMeteoURL),
		OpenMeteoTimeout:      omTimeout,
		OpenMeteoForecastDays: forecastDays,
		OpenMeteoCacheTTL:     omCacheTTL,

		OpenWeatherAPIKey:  owKey,
		OpenWeatherEnabled: owEnabled,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "aqi-reports"),

		SQLitePath: envOrDefaultAllowEmpty("SQLITE_PATH", "data/aqi.db"),

		MQTTBroker:       os.Getenv("MQTT_BROKER"),
		MQTTClientID:     sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "aqi-etl-"+uuid.NewString()),
		MQTTTopicPrefix:  sharedcfg.EnvOrDefault("MQTT_TOPIC_PREFIX", "aqi/alerts"),
		AlertMinCategory: alertMin,

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		AdvisoryTimeout: advisoryTimeout,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}
	if cfg.OpenMeteoBaseURL == "" {
		return nil, errors.New("OPENMETEO_BASE_URL is required")
	}

	return cfg, nil
}

func parseDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseIntInRange(name string, def, lo, hi int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

// envOrDefaultAllowEmpty distinguishes an unset variable from one set to "".
func envOrDefaultAllowEmpty(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}
