package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/aqi-etl-service/internal/advisory"
	"github.com/couchcryptid/aqi-etl-service/internal/config"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/couchcryptid/aqi-etl-service/internal/report"
	"github.com/spf13/cobra"
)

type fetchOptions struct {
	station      string
	format       string
	baseURL      string
	timeout      time.Duration
	forecastDays int
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch live hourly data for a station and render it",
		Long: `Fetch the open-meteo hourly series for one station, score every hour, and
print the result as a markdown dashboard, a CSV export, or JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.station, "station", "s", "", "station ID (see 'aqictl stations')")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "output format: markdown, csv, json")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", config.DefaultOpenMeteoURL, "open-meteo air-quality endpoint")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	cmd.Flags().IntVar(&opts.forecastDays, "forecast-days", 1, "hours of forecast to fetch, in days (1-7)")
	_ = cmd.MarkFlagRequired("station")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *fetchOptions) error {
	switch opts.format {
	case "markdown", "csv", "json":
	default:
		return fmt.Errorf("unknown format %q: want markdown, csv or json", opts.format)
	}
	if opts.forecastDays < 1 || opts.forecastDays > 7 {
		return errors.New("forecast-days must be between 1 and 7")
	}

	stations, err := loadStations(cmd)
	if err != nil {
		return err
	}
	st, ok := domain.FindStation(stations, opts.station)
	if !ok {
		return fmt.Errorf("unknown station %q", opts.station)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := openmeteo.NewClient(opts.baseURL, opts.timeout, opts.forecastDays, observability.NewDetachedMetrics(), logger)

	series, err := client.Hourly(cmd.Context(), st)
	if err != nil {
		return err
	}
	snap, err := domain.BuildSnapshot(series)
	if err != nil {
		return fmt.Errorf("station %s: %w", st.ID, err)
	}

	return render(cmd.OutOrStdout(), opts.format, snap)
}

func render(w io.Writer, format string, snap domain.StationSnapshot) error {
	switch format {
	case "csv":
		return report.WriteCSV(w, snap.Trend)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		adv := domain.Advisory{
			StationID: snap.Station.ID,
			Category:  snap.Current.AQI.Category,
			Text:      advisory.RuleText(snap.Current.AQI.Category),
			Source:    advisory.SourceRules,
		}
		return report.WriteMarkdown(w, report.Dashboard{Snapshot: snap, Advisory: &adv})
	}
}
