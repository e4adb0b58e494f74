// Package advisory produces safety guidance for a station's current report.
//
// Text comes from an optional LLM generator and falls back to a fixed rule
// table per category. The latest advisory per station is kept and reused
// until the station's category or hour bucket changes.
package advisory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// SourceRules labels advisories taken from the rule table.
const SourceRules = "rules"

// Generator turns a prompt into advisory text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

var rules = map[aqi.Category]string{
	aqi.Good:               "Air quality is good. Normal outdoor and mine-surface work can continue.",
	aqi.Moderate:           "Air quality is acceptable. Unusually sensitive workers should limit prolonged heavy exertion outdoors.",
	aqi.UnhealthySensitive: "Workers with asthma, heart or lung conditions should reduce outdoor exertion and carry reliever medication.",
	aqi.Unhealthy:          "Everyone should reduce prolonged outdoor exertion. Surface crews should wear N95 respirators and take breaks indoors.",
	aqi.VeryUnhealthy:      "Avoid outdoor exertion. Suspend non-essential surface operations and enforce N95 respirators for all exposed staff.",
	aqi.Hazardous:          "Health emergency. Stop outdoor work, keep people indoors with windows closed, and run dust suppression at haul roads.",
}

// RuleText returns the fixed advisory for a category.
func RuleText(c aqi.Category) string {
	return rules[c]
}

type memoKey struct {
	category aqi.Category
	bucket   time.Time
}

type memoEntry struct {
	key      memoKey
	advisory domain.Advisory
}

// Service generates and memoises advisories. It is safe for concurrent use.
type Service struct {
	gen     Generator
	timeout time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	memo map[string]memoEntry
}

// NewService creates a Service. gen may be nil, in which case every
// advisory comes from the rule table.
func NewService(gen Generator, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		gen:     gen,
		timeout: timeout,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
		memo:    make(map[string]memoEntry),
	}
}

// SetClock replaces the clock used for GeneratedAt. Intended for tests.
func (s *Service) SetClock(c clockwork.Clock) {
	s.clock = c
}

// Advise returns the advisory for report, reusing the previous one when the
// station's category and hour bucket are unchanged.
func (s *Service) Advise(ctx context.Context, report domain.AQIReport) domain.Advisory {
	key := memoKey{category: report.AQI.Category, bucket: report.TimeBucket}

	s.mu.Lock()
	if e, ok := s.memo[report.StationID]; ok && e.key == key {
		s.mu.Unlock()
		s.metrics.Advisories.WithLabelValues("memo").Inc()
		return e.advisory
	}
	s.mu.Unlock()

	adv := domain.Advisory{
		StationID: report.StationID,
		Category:  report.AQI.Category,
	}
	text, ok := s.generate(ctx, report)
	if ok {
		adv.Text, adv.Source = text, s.gen.Name()
	} else {
		adv.Text, adv.Source = RuleText(report.AQI.Category), SourceRules
	}
	adv.GeneratedAt = s.clock.Now()
	s.metrics.Advisories.WithLabelValues(adv.Source).Inc()

	// A fallback after a failed generation is not stored, so the next
	// request retries the generator.
	if ok || s.gen == nil {
		s.mu.Lock()
		s.memo[report.StationID] = memoEntry{key: key, advisory: adv}
		s.mu.Unlock()
	}
	return adv
}

func (s *Service) generate(ctx context.Context, report domain.AQIReport) (string, bool) {
	if s.gen == nil {
		return "", false
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	text, err := s.gen.Generate(ctx, Prompt(report))
	if err != nil {
		s.logger.Warn("advisory generation failed, using rules",
			"station", report.StationID,
			"generator", s.gen.Name(),
			"error", err,
		)
		return "", false
	}
	return text, true
}

// Prompt describes the report's conditions for an LLM.
func Prompt(r domain.AQIReport) string {
	p := fmt.Sprintf(
		"Station %s (%s). Hour %s IST. PM2.5 %.1f µg/m³, AQI %.0f (%s). Mine-safety status: %s.",
		r.StationName, r.StationID,
		r.Reading.Timestamp.In(ist).Format("2006-01-02 15:04"),
		r.Reading.PM25, r.AQI.Score, r.AQI.Label, r.Status,
	)
	if r.Reading.PM10 != nil {
		p += fmt.Sprintf(" PM10 %.1f µg/m³.", *r.Reading.PM10)
	}
	if r.Reading.Dust != nil {
		p += fmt.Sprintf(" Dust %.1f µg/m³.", *r.Reading.Dust)
	}
	return p + " Write the safety advisory."
}

var ist = time.FixedZone("IST", 5*3600+1800)
