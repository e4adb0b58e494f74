// Package report renders station data as CSV exports and markdown dashboards.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
)

// IST is India Standard Time; exported times are rendered in it.
var IST = time.FixedZone("IST", 5*3600+1800)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{"time", "pm10", "pm2_5", "dust", "no2", "aqi", "category"}

// WriteCSV writes one row per report. Missing pollutants are empty cells.
func WriteCSV(w io.Writer, reports []domain.AQIReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range reports {
		row := []string{
			r.Reading.Timestamp.In(IST).Format(time.RFC3339),
			optional(r.Reading.PM10),
			formatConc(r.Reading.PM25),
			optional(r.Reading.Dust),
			optional(r.Reading.NO2),
			strconv.FormatFloat(r.AQI.Score, 'f', 0, 64),
			r.AQI.Category.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatConc(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatConc(*v)
}
