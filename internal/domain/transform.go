package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
)

// NAAQS 24-hour limits in µg/m³.
const (
	NAAQSLimitPM25 = 60.0
	NAAQSLimitPM10 = 100.0
)

var (
	// ErrMissingPM25 marks a provider row that has no PM2.5 value.
	ErrMissingPM25 = errors.New("reading has no pm2_5 value")

	// ErrNoReadings is returned when a series contains no scorable reading.
	ErrNoReadings = errors.New("series has no valid readings")
)

// EvaluateReading scores one provider row for a station. Rows with a missing
// or invalid PM2.5 value are rejected; an invalid PM10 value only drops the
// PM10 sub-index.
func EvaluateReading(st Station, source string, raw RawReading) (AQIReport, error) {
	if raw.PM25 == nil {
		return AQIReport{}, fmt.Errorf("%s at %s: %w", st.ID, raw.Timestamp.Format(time.RFC3339), ErrMissingPM25)
	}
	res, err := aqi.Evaluate(*raw.PM25)
	if err != nil {
		return AQIReport{}, fmt.Errorf("%s at %s: %w", st.ID, raw.Timestamp.Format(time.RFC3339), err)
	}

	report := AQIReport{
		ID:          generateID(st.ID, raw.Timestamp),
		StationID:   st.ID,
		StationName: st.Name,
		Geo:         Geo{Lat: st.Lat, Lon: st.Lon},
		Reading: PollutantReading{
			Timestamp: raw.Timestamp,
			PM25:      *raw.PM25,
			PM10:      validOrNil(raw.PM10),
			NO2:       validOrNil(raw.NO2),
			Dust:      validOrNil(raw.Dust),
		},
		AQI:         res,
		Status:      SafetyStatusFor(*raw.PM25),
		TimeBucket:  deriveTimeBucket(raw.Timestamp),
		Source:      source,
		ProcessedAt: clock.Now(),
	}
	if report.Reading.PM10 != nil {
		if sub, err := aqi.PM10.Evaluate(*report.Reading.PM10); err == nil {
			report.PM10Index = &sub
		}
	}
	return report, nil
}

// SafetyStatusFor applies the mine-safety threshold to a PM2.5 value.
func SafetyStatusFor(pm25 float64) SafetyStatus {
	if pm25 < NAAQSLimitPM25 {
		return StatusSafe
	}
	return StatusHazardous
}

// BuildSnapshot scores every reading in the series and picks the current one.
// Unscorable readings are skipped and counted in Summary.SkippedReadings.
func BuildSnapshot(series Series) (StationSnapshot, error) {
	trend := make([]AQIReport, 0, len(series.Readings))
	skipped := 0
	for _, raw := range series.Readings {
		report, err := EvaluateReading(series.Station, series.Source, raw)
		if err != nil {
			skipped++
			continue
		}
		trend = append(trend, report)
	}
	if len(trend) == 0 {
		return StationSnapshot{}, fmt.Errorf("station %s: %w (%d skipped)", series.Station.ID, ErrNoReadings, skipped)
	}

	slices.SortStableFunc(trend, func(a, b AQIReport) int {
		return a.Reading.Timestamp.Compare(b.Reading.Timestamp)
	})

	summary := summarize(trend)
	summary.SkippedReadings = skipped

	return StationSnapshot{
		Station: series.Station,
		Current: trend[selectCurrent(trend, clock.Now())],
		Trend:   trend,
		Summary: summary,
	}, nil
}

// RestoreSnapshot rebuilds a snapshot from reports that were already scored,
// such as rows read back from the history store.
func RestoreSnapshot(st Station, trend []AQIReport) (StationSnapshot, error) {
	if len(trend) == 0 {
		return StationSnapshot{}, fmt.Errorf("station %s: %w", st.ID, ErrNoReadings)
	}
	trend = slices.Clone(trend)
	slices.SortStableFunc(trend, func(a, b AQIReport) int {
		return a.Reading.Timestamp.Compare(b.Reading.Timestamp)
	})
	return StationSnapshot{
		Station: st,
		Current: trend[selectCurrent(trend, clock.Now())],
		Trend:   trend,
		Summary: summarize(trend),
	}, nil
}

// selectCurrent returns the index of the latest report at or before now.
// A series entirely in the future falls back to its first report.
func selectCurrent(trend []AQIReport, now time.Time) int {
	current := 0
	for i, r := range trend {
		if r.Reading.Timestamp.After(now) {
			break
		}
		current = i
	}
	return current
}

func summarize(trend []AQIReport) TrendSummary {
	s := TrendSummary{
		Hours:   len(trend),
		MinPM25: math.Inf(1),
		MaxPM25: math.Inf(-1),
	}
	var sum float64
	for i, r := range trend {
		pm25 := r.Reading.PM25
		sum += pm25
		s.MinPM25 = min(s.MinPM25, pm25)
		s.MaxPM25 = max(s.MaxPM25, pm25)
		if i == 0 || r.AQI.Score > s.PeakAQI.Score {
			s.PeakAQI = r.AQI
			s.PeakAt = r.Reading.Timestamp
		}
		if pm25 >= NAAQSLimitPM25 {
			s.PM25Exceedances++
		}
		if r.Reading.PM10 != nil && *r.Reading.PM10 > NAAQSLimitPM10 {
			s.PM10Exceedances++
		}
	}
	s.MeanPM25 = sum / float64(len(trend))
	return s
}

func validOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil
	}
	out := *v
	return &out
}

// generateID produces a deterministic ID from station and hour.
// Reprocessing the same reading produces the same ID.
func generateID(stationID string, ts time.Time) string {
	input := fmt.Sprintf("%s|%s", stationID, ts.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return stationID + "-" + hex.EncodeToString(hash[:8])
}

// deriveTimeBucket truncates the reading time to the hour in UTC.
// Returns zero time if the input is zero.
func deriveTimeBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return t.UTC().Truncate(time.Hour)
}

// SerializeReport marshals a report into an OutputEvent keyed by report ID.
func SerializeReport(report AQIReport) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize aqi report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(report.ID),
		Value: data,
		Headers: map[string]string{
			"category":     report.AQI.Category.String(),
			"processed_at": report.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
