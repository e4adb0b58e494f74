package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// Dashboard is everything shown on a station's markdown page.
type Dashboard struct {
	Snapshot domain.StationSnapshot
	Advisory *domain.Advisory
	// Distribution replaces the trend-based category chart when set.
	Distribution *Distribution
}

// Distribution is a count of stored hours per category over a window.
type Distribution struct {
	Hours  int
	Counts map[aqi.Category]int
}

// WriteMarkdown renders the station dashboard.
func WriteMarkdown(w io.Writer, d Dashboard) error {
	md := markdown.NewMarkdown(w)
	snap := d.Snapshot
	cur := snap.Current

	md.H1(fmt.Sprintf("Air Quality: %s", snap.Station.Name))
	md.PlainText("")

	rows := [][]string{
		{"Station", snap.Station.ID},
		{"Hour", cur.Reading.Timestamp.In(IST).Format("2006-01-02 15:04 MST")},
		{"PM2.5", formatConc(cur.Reading.PM25) + " µg/m³"},
		{"PM10", unitOrDash(cur.Reading.PM10)},
		{"Dust", unitOrDash(cur.Reading.Dust)},
		{"NO2", unitOrDash(cur.Reading.NO2)},
		{"AQI", fmt.Sprintf("%.0f (%s)", cur.AQI.Score, cur.AQI.Label)},
		{"Mine safety", string(cur.Status)},
	}
	if cur.ProviderIndex != nil {
		rows = append(rows, []string{
			"Provider index",
			fmt.Sprintf("%d (%s, %s)", cur.ProviderIndex.Index, cur.ProviderIndex.Label, cur.ProviderIndex.Source),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	writeAlert(md, cur)

	if d.Advisory != nil {
		md.H2("Advisory")
		md.PlainText("")
		md.PlainText(d.Advisory.Text)
		md.PlainText("")
	}

	writeSummary(md, snap.Summary)
	if d.Distribution != nil {
		writeDistribution(md, fmt.Sprintf("Stored hours by AQI category, last %dh", d.Distribution.Hours), d.Distribution.Counts)
	} else {
		writeDistribution(md, "Hours by AQI category", trendCounts(snap.Trend))
	}
	writeTrend(md, snap.Trend)

	return md.Build()
}

func writeAlert(md *markdown.Markdown, cur domain.AQIReport) {
	switch {
	case cur.AQI.Category >= aqi.VeryUnhealthy:
		md.Cautionf("AQI %.0f is %s. Outdoor work should stop.", cur.AQI.Score, cur.AQI.Label)
	case cur.Status == domain.StatusHazardous:
		md.Warningf("PM2.5 %.1f µg/m³ exceeds the NAAQS limit of %.0f µg/m³.", cur.Reading.PM25, domain.NAAQSLimitPM25)
	case cur.AQI.Category == aqi.Good:
		md.Tip("Air quality is good.")
	default:
		md.Note("PM2.5 is within the NAAQS limit.")
	}
	md.PlainText("")
}

func writeSummary(md *markdown.Markdown, s domain.TrendSummary) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Hours", strconv.Itoa(s.Hours)},
			{"PM2.5 min / mean / max", fmt.Sprintf("%.1f / %.1f / %.1f", s.MinPM25, s.MeanPM25, s.MaxPM25)},
			{"Peak AQI", fmt.Sprintf("%.0f (%s) at %s", s.PeakAQI.Score, s.PeakAQI.Label, s.PeakAt.In(IST).Format("02 Jan 15:04"))},
			{"Hours over PM2.5 limit", strconv.Itoa(s.PM25Exceedances)},
			{"Hours over PM10 limit", strconv.Itoa(s.PM10Exceedances)},
			{"Skipped readings", strconv.Itoa(s.SkippedReadings)},
		},
	})
	md.PlainText("")
}

func trendCounts(trend []domain.AQIReport) map[aqi.Category]int {
	counts := make(map[aqi.Category]int)
	for _, r := range trend {
		counts[r.AQI.Category]++
	}
	return counts
}

func writeDistribution(md *markdown.Markdown, title string, counts map[aqi.Category]int) {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)
	for c := aqi.Good; c <= aqi.Hazardous; c++ {
		if counts[c] > 0 {
			chart.LabelAndIntValue(c.Label(), uint64(counts[c]))
		}
	}
	md.H2("Category distribution")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeTrend(md *markdown.Markdown, trend []domain.AQIReport) {
	md.H2("Hourly trend")
	md.PlainText("")
	if len(trend) == 0 {
		md.PlainText("No readings.")
		return
	}
	rows := make([][]string, 0, len(trend))
	for _, r := range trend {
		rows = append(rows, []string{
			r.Reading.Timestamp.In(IST).Format("02 Jan 15:04"),
			formatConc(r.Reading.PM25),
			optional(r.Reading.PM10),
			strconv.FormatFloat(r.AQI.Score, 'f', 0, 64),
			r.AQI.Label,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Hour (IST)", "PM2.5", "PM10", "AQI", "Category"},
		Rows:   rows,
	})
}

func unitOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatConc(*v) + " µg/m³"
}
