package aqi

import (
	"fmt"
	"strings"
)

// Category is the severity bucket of an AQI score.
type Category int

const (
	Good Category = iota
	Moderate
	UnhealthySensitive
	Unhealthy
	VeryUnhealthy
	Hazardous
)

// Color is a display color token understood by rendering clients.
type Color string

const (
	Green  Color = "green"
	Yellow Color = "yellow"
	Orange Color = "orange"
	Red    Color = "red"
	Purple Color = "purple"
	Maroon Color = "maroon"
)

type categoryInfo struct {
	upper float64 // inclusive
	slug  string
	label string
	color Color
}

// categories is ordered by ascending upper bound; the last entry is open-ended.
var categories = [...]categoryInfo{
	Good:               {upper: 50, slug: "good", label: "Good", color: Green},
	Moderate:           {upper: 100, slug: "moderate", label: "Moderate", color: Yellow},
	UnhealthySensitive: {upper: 150, slug: "unhealthy_sensitive", label: "Unhealthy for Sensitive Groups", color: Orange},
	Unhealthy:          {upper: 200, slug: "unhealthy", label: "Unhealthy", color: Red},
	VeryUnhealthy:      {upper: 300, slug: "very_unhealthy", label: "Very Unhealthy", color: Purple},
	Hazardous:          {slug: "hazardous", label: "Hazardous", color: Maroon},
}

// Classify buckets a score into its category and display color.
func Classify(score float64) (Category, Color) {
	for c := Good; c < Hazardous; c++ {
		if score <= categories[c].upper {
			return c, categories[c].color
		}
	}
	return Hazardous, Maroon
}

// String returns the machine-friendly slug, e.g. "unhealthy_sensitive".
func (c Category) String() string {
	if c < Good || c > Hazardous {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categories[c].slug
}

// Label returns the human-readable name, e.g. "Unhealthy for Sensitive Groups".
func (c Category) Label() string {
	if c < Good || c > Hazardous {
		return c.String()
	}
	return categories[c].label
}

// Color returns the display color of the category.
func (c Category) Color() Color {
	if c < Good || c > Hazardous {
		return ""
	}
	return categories[c].color
}

// MarshalText encodes the category as its slug.
func (c Category) MarshalText() ([]byte, error) {
	if c < Good || c > Hazardous {
		return nil, fmt.Errorf("aqi: unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a slug produced by MarshalText.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory accepts a category slug, case-insensitively. Hyphens and
// spaces are treated as underscores.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for c := Good; c <= Hazardous; c++ {
		if categories[c].slug == norm {
			return c, nil
		}
	}
	return Good, fmt.Errorf("aqi: unknown category %q", s)
}

// Result is a computed AQI score together with its category and color.
type Result struct {
	Score    float64  `json:"score"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Color    Color    `json:"color"`
}

// Evaluate computes and classifies a PM2.5 concentration.
func Evaluate(pm25 float64) (Result, error) {
	return PM25.Evaluate(pm25)
}

// Evaluate computes and classifies a concentration against this table.
func (t Table) Evaluate(c float64) (Result, error) {
	score, err := t.Compute(c)
	if err != nil {
		return Result{}, err
	}
	return NewResult(score), nil
}

// NewResult classifies an already computed score.
func NewResult(score float64) Result {
	cat, color := Classify(score)
	return Result{Score: score, Category: cat, Label: cat.Label(), Color: color}
}
