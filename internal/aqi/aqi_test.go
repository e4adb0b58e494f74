package aqi

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_KnownPoints(t *testing.T) {
	tests := []struct {
		name     string
		pm25     float64
		expected float64
	}{
		{"zero", 0.0, 0.0},
		{"top of good", 12.0, 50},
		{"bottom of moderate", 12.1, 51},
		{"top of moderate", 35.4, 100},
		{"top of sensitive", 55.4, 150},
		{"top of unhealthy", 150.4, 200},
		{"top of very unhealthy", 250.4, 300},
		{"top of hazardous 1", 350.4, 400},
		{"top of table", 500.4, 500},
		{"midpoint of good", 6.0, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.pm25)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestCompute_ExactEdges(t *testing.T) {
	got, err := Compute(0.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = Compute(12.0)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)
}

func TestCompute_AboveTableExtrapolates(t *testing.T) {
	got, err := Compute(600)
	require.NoError(t, err)
	assert.Greater(t, got, 500.0)

	// Same slope as the top band.
	expected := 401 + (600-350.5)/(500.4-350.5)*99
	assert.InDelta(t, expected, got, 1e-9)
}

func TestCompute_InvalidInput(t *testing.T) {
	for _, v := range []float64{-1.0, -0.0001, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Compute(v)
		require.Error(t, err, "input %v", v)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestCompute_GapFallsIntoNextBand(t *testing.T) {
	got, err := Compute(12.05)
	require.NoError(t, err)
	assert.Greater(t, got, 50.0)
	assert.Less(t, got, 51.0)
}

func TestCompute_Monotonic(t *testing.T) {
	prev := -1.0
	for c := 0.0; c <= 700; c += 0.01 {
		got, err := Compute(c)
		require.NoError(t, err)
		if got < prev {
			t.Fatalf("Compute(%v)=%v is below previous %v", c, got, prev)
		}
		prev = got
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score    float64
		category Category
		color    Color
	}{
		{0, Good, Green},
		{49.9, Good, Green},
		{50.0, Good, Green},
		{50.1, Moderate, Yellow},
		{100, Moderate, Yellow},
		{100.5, UnhealthySensitive, Orange},
		{150, UnhealthySensitive, Orange},
		{151, Unhealthy, Red},
		{200, Unhealthy, Red},
		{200.1, VeryUnhealthy, Purple},
		{300, VeryUnhealthy, Purple},
		{300.1, Hazardous, Maroon},
		{500.0, Hazardous, Maroon},
		{1200, Hazardous, Maroon},
	}

	for _, tt := range tests {
		cat, color := Classify(tt.score)
		assert.Equal(t, tt.category, cat, "score %v", tt.score)
		assert.Equal(t, tt.color, color, "score %v", tt.score)
	}
}

func TestClassify_Exhaustive(t *testing.T) {
	seen := map[Category]bool{}
	prev := Good
	for s := -10.0; s <= 600; s += 0.05 {
		cat, color := Classify(s)
		assert.GreaterOrEqual(t, cat, prev, "category must not decrease at %v", s)
		assert.Equal(t, cat.Color(), color)
		seen[cat] = true
		prev = cat
	}
	assert.Len(t, seen, 6)
}

func TestEvaluate(t *testing.T) {
	res, err := Evaluate(40)
	require.NoError(t, err)
	assert.Equal(t, UnhealthySensitive, res.Category)
	assert.Equal(t, Orange, res.Color)
	assert.Equal(t, "Unhealthy for Sensitive Groups", res.Label)
	assert.InDelta(t, 112.08, res.Score, 0.01)

	_, err = Evaluate(-3)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPM10Table(t *testing.T) {
	got, err := PM10.Compute(154)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-9)

	res, err := PM10.Evaluate(420)
	require.NoError(t, err)
	assert.Equal(t, VeryUnhealthy, res.Category)

	// Fractions are truncated, so the gap above a band top keeps its score.
	got, err = PM10.Compute(354.3)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got)
}

func TestPM10Table_Monotonic(t *testing.T) {
	prev := 0.0
	for c := 0.0; c <= 800; c += 0.05 {
		got, err := PM10.Compute(c)
		require.NoError(t, err)
		if got < prev {
			t.Fatalf("PM10.Compute(%v)=%v is below previous %v", c, got, prev)
		}
		prev = got
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name  string
		bands []Breakpoint
	}{
		{"empty", nil},
		{"zero width", []Breakpoint{{CLo: 1, CHi: 1, ILo: 0, IHi: 10}}},
		{"negative start", []Breakpoint{{CLo: -1, CHi: 1, ILo: 0, IHi: 10}}},
		{"decreasing index", []Breakpoint{{CLo: 0, CHi: 1, ILo: 10, IHi: 0}}},
		{"overlap", []Breakpoint{{CLo: 0, CHi: 10, ILo: 0, IHi: 50}, {CLo: 9, CHi: 20, ILo: 51, IHi: 100}}},
		{"index overlap", []Breakpoint{{CLo: 0, CHi: 10, ILo: 0, IHi: 50}, {CLo: 11, CHi: 20, ILo: 50, IHi: 100}}},
		{"nan bound", []Breakpoint{{CLo: 0, CHi: math.NaN(), ILo: 0, IHi: 50}}},
		{"negative index", []Breakpoint{{CLo: 0, CHi: 1, ILo: -5, IHi: 10}}},
		{"gap scores below previous band", []Breakpoint{{CLo: 0, CHi: 10, ILo: 0, IHi: 50}, {CLo: 20, CHi: 21, ILo: 51, IHi: 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.bands...)
			assert.Error(t, err)
		})
	}
}

func TestNewTable_CustomBands(t *testing.T) {
	bands := []Breakpoint{
		{CLo: 0, CHi: 30, ILo: 0, IHi: 50},
		{CLo: 31, CHi: 60, ILo: 51, IHi: 100},
	}
	_, err := NewTable(bands...)
	require.Error(t, err, "a one-unit gap is too wide for the second band's slope")

	tbl, err := NewTruncatedTable(1, bands...)
	require.NoError(t, err)

	got, err := tbl.Compute(30.7)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	got, err = tbl.Compute(31)
	require.NoError(t, err)
	assert.Equal(t, 51.0, got)

	out := tbl.Bands()
	out[0].CHi = 999
	assert.Equal(t, 30.0, tbl.Bands()[0].CHi, "Bands must return a copy")
}

func TestNewTruncatedTable_InvalidStep(t *testing.T) {
	for _, step := range []float64{0, -1, math.NaN()} {
		_, err := NewTruncatedTable(step, Breakpoint{CLo: 0, CHi: 10, ILo: 0, IHi: 50})
		assert.Error(t, err, "step %v", step)
	}
}

func TestCategory_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[string]Category{"c": UnhealthySensitive})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"unhealthy_sensitive"}`, string(data))

	var out map[string]Category
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, UnhealthySensitive, out["c"])
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Very-Unhealthy")
	require.NoError(t, err)
	assert.Equal(t, VeryUnhealthy, c)

	_, err = ParseCategory("terrible")
	assert.Error(t, err)
}

func TestProviderIndex(t *testing.T) {
	assert.Equal(t, "Good", ProviderIndex(1).Label())
	assert.Equal(t, "Very Poor", ProviderIndex(5).Label())
	assert.False(t, ProviderIndex(0).Valid())
	assert.False(t, ProviderIndex(6).Valid())
	assert.Equal(t, "unknown(9)", ProviderIndex(9).Label())
}
