package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/aqi-etl-service/internal/adapter/gemini"
	"github.com/couchcryptid/aqi-etl-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/aqi-etl-service/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/aqi-etl-service/internal/adapter/mqtt"
	"github.com/couchcryptid/aqi-etl-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/aqi-etl-service/internal/adapter/openweather"
	"github.com/couchcryptid/aqi-etl-service/internal/adapter/sqlite"
	"github.com/couchcryptid/aqi-etl-service/internal/advisory"
	"github.com/couchcryptid/aqi-etl-service/internal/config"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/couchcryptid/aqi-etl-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	stations, err := domain.LoadStations(cfg.StationsFile)
	if err != nil {
		logger.Error("failed to load stations", "error", err)
		os.Exit(1)
	}
	logger.Info("station catalogue loaded", "stations", len(stations), "file", cfg.StationsFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	omClient := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.OpenMeteoTimeout, cfg.OpenMeteoForecastDays, metrics, logger)
	provider := openmeteo.NewCachedProvider(omClient, 2*len(stations), cfg.OpenMeteoCacheTTL, clockwork.NewRealClock(), metrics)

	// Provider-native index (feature-flagged via OPENWEATHER_ENABLED / OPENWEATHER_API_KEY).
	var index domain.IndexProvider
	if cfg.OpenWeatherEnabled {
		index = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenMeteoTimeout, metrics, logger)
		metrics.ProviderIndexOn.Set(1)
		logger.Info("openweather index enabled")
	} else {
		logger.Info("openweather index disabled")
	}

	snapshots := pipeline.NewSnapshotStore()
	sinks := []pipeline.Sink{{Name: "memory", Loader: snapshots}}

	var history httpadapter.HistoryReader
	var store *sqlite.Store
	if cfg.SQLitePath != "" {
		store, err = sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open history store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		history = store
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: store})
		logger.Info("history store enabled", "path", cfg.SQLitePath)
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer, BestEffort: true})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	var mqttClient *mqttadapter.Client
	if cfg.MQTTBroker != "" {
		mqttClient = mqttadapter.NewClient(cfg, logger)
		// Auto-reconnect keeps retrying in the background if the broker is down at startup.
		go func() {
			if err := mqttClient.Connect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("mqtt initial connect failed", "error", err)
			}
		}()
		alerter := mqttadapter.NewAlerter(mqttClient, cfg.MQTTTopicPrefix, cfg.AlertMinCategory, metrics, logger)
		sinks = append(sinks, pipeline.Sink{Name: "mqtt", Loader: alerter, BestEffort: true})
		logger.Info("mqtt alerts enabled", "broker", cfg.MQTTBroker, "min_category", cfg.AlertMinCategory.String())
	}

	var gen advisory.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
		if err != nil {
			logger.Warn("gemini disabled, advisories use rules", "error", err)
		} else {
			gen = g
			logger.Info("gemini advisories enabled", "model", cfg.GeminiModel)
		}
	}
	advisor := advisory.NewService(gen, cfg.AdvisoryTimeout, metrics, logger)

	extractor := pipeline.NewStationExtractor(provider, stations, cfg.FetchConcurrency, logger)
	transformer := pipeline.NewTransformer(index, logger)
	loader := pipeline.NewFanOut(metrics, logger, sinks...)

	p := pipeline.New(extractor, transformer, loader, logger, metrics, cfg.PollInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:     p,
		Stations:  stations,
		Snapshots: snapshots,
		History:   history,
		Advisor:   advisor,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	logger.Info("aqi etl started", "sinks", loader.Names(), "poll_interval", cfg.PollInterval)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("history store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
