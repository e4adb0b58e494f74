package domain

import (
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
)

// Station is a fixed monitoring location.
type Station struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	District string  `json:"district,omitempty" yaml:"district"`
	Lat      float64 `json:"lat" yaml:"lat"`
	Lon      float64 `json:"lon" yaml:"lon"`
}

// PollutantReading is one hourly measurement. Optional pollutants are nil
// when the provider had no value for the hour.
type PollutantReading struct {
	Timestamp time.Time `json:"timestamp"`
	PM25      float64   `json:"pm2_5"`
	PM10      *float64  `json:"pm10,omitempty"`
	NO2       *float64  `json:"no2,omitempty"`
	Dust      *float64  `json:"dust,omitempty"`
}

// RawReading is a provider row before validation; PM25 may be missing.
type RawReading struct {
	Timestamp time.Time
	PM25      *float64
	PM10      *float64
	NO2       *float64
	Dust      *float64
}

// Series is the hourly data fetched for one station in one cycle.
type Series struct {
	Station   Station
	Source    string // provider name, e.g. "open-meteo"
	Readings  []RawReading
	FetchedAt time.Time
}

// ProviderReading is a provider's native 1–5 index for the current hour.
type ProviderReading struct {
	Index  aqi.ProviderIndex `json:"index"`
	Label  string            `json:"label"`
	Source string            `json:"source"`
}

// SafetyStatus is the mine-safety verdict for a reading.
type SafetyStatus string

const (
	StatusSafe      SafetyStatus = "safe"
	StatusHazardous SafetyStatus = "hazardous"
)

// AQIReport is the domain-rich representation of one scored reading.
type AQIReport struct {
	ID          string           `json:"id"`
	StationID   string           `json:"station_id"`
	StationName string           `json:"station_name"`
	Geo         Geo              `json:"geo"`
	Reading     PollutantReading `json:"reading"`
	AQI         aqi.Result       `json:"aqi"`
	PM10Index   *aqi.Result      `json:"pm10_index,omitempty"`
	Status      SafetyStatus     `json:"status"`
	TimeBucket  time.Time        `json:"time_bucket"`
	Source      string           `json:"source"`

	ProviderIndex *ProviderReading `json:"provider_index,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TrendSummary aggregates a station's hourly series.
type TrendSummary struct {
	Hours           int        `json:"hours"`
	MinPM25         float64    `json:"min_pm2_5"`
	MaxPM25         float64    `json:"max_pm2_5"`
	MeanPM25        float64    `json:"mean_pm2_5"`
	PeakAQI         aqi.Result `json:"peak_aqi"`
	PeakAt          time.Time  `json:"peak_at"`
	PM25Exceedances int        `json:"pm2_5_exceedance_hours"`
	PM10Exceedances int        `json:"pm10_exceedance_hours"`
	SkippedReadings int        `json:"skipped_readings"`
}

// StationSnapshot is everything derived for one station in one cycle.
type StationSnapshot struct {
	Station Station      `json:"station"`
	Current AQIReport    `json:"current"`
	Trend   []AQIReport  `json:"trend"`
	Summary TrendSummary `json:"summary"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Advisory is free-text safety guidance for a station's current conditions.
type Advisory struct {
	StationID   string       `json:"station_id"`
	Category    aqi.Category `json:"category"`
	Text        string       `json:"text"`
	Source      string       `json:"source"` // "gemini" or "rules"
	GeneratedAt time.Time    `json:"generated_at"`
}
