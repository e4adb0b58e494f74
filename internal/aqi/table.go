package aqi

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for concentrations that are negative or not finite.
var ErrInvalidInput = errors.New("aqi: invalid input")

// Breakpoint maps the concentration band [CLo, CHi] onto the index band [ILo, IHi].
type Breakpoint struct {
	CLo, CHi float64
	ILo, IHi float64
}

// Table is an ordered set of breakpoint bands for one pollutant.
type Table struct {
	bands []Breakpoint
	// step truncates concentrations before band lookup; zero disables it.
	step float64
}

// PM25 is the US EPA PM2.5 breakpoint table (µg/m³, 24-hour).
var PM25 = mustTable(
	Breakpoint{CLo: 0.0, CHi: 12.0, ILo: 0, IHi: 50},
	Breakpoint{CLo: 12.1, CHi: 35.4, ILo: 51, IHi: 100},
	Breakpoint{CLo: 35.5, CHi: 55.4, ILo: 101, IHi: 150},
	Breakpoint{CLo: 55.5, CHi: 150.4, ILo: 151, IHi: 200},
	Breakpoint{CLo: 150.5, CHi: 250.4, ILo: 201, IHi: 300},
	Breakpoint{CLo: 250.5, CHi: 350.4, ILo: 301, IHi: 400},
	Breakpoint{CLo: 350.5, CHi: 500.4, ILo: 401, IHi: 500},
)

// PM10 is the US EPA PM10 breakpoint table (µg/m³, 24-hour). Concentrations
// are truncated to whole µg/m³ before lookup, as the bands are integer.
var PM10 = mustTruncatedTable(1,
	Breakpoint{CLo: 0, CHi: 54, ILo: 0, IHi: 50},
	Breakpoint{CLo: 55, CHi: 154, ILo: 51, IHi: 100},
	Breakpoint{CLo: 155, CHi: 254, ILo: 101, IHi: 150},
	Breakpoint{CLo: 255, CHi: 354, ILo: 151, IHi: 200},
	Breakpoint{CLo: 355, CHi: 424, ILo: 201, IHi: 300},
	Breakpoint{CLo: 425, CHi: 504, ILo: 301, IHi: 400},
	Breakpoint{CLo: 505, CHi: 604, ILo: 401, IHi: 500},
)

// NewTable validates the bands and returns a Table. Bands must be given in
// ascending order, each with a positive concentration width, a non-decreasing
// index range, and no overlap with the previous band. A concentration in the
// gap between two bands must not score below the lower band's top index.
func NewTable(bands ...Breakpoint) (Table, error) {
	return newTable(0, bands)
}

// NewTruncatedTable is NewTable for a table whose concentrations are truncated
// to a multiple of step before lookup. Gaps no wider than step are never hit.
func NewTruncatedTable(step float64, bands ...Breakpoint) (Table, error) {
	if !finite(step) || step <= 0 {
		return Table{}, fmt.Errorf("aqi: truncation step %g must be positive", step)
	}
	return newTable(step, bands)
}

func newTable(step float64, bands []Breakpoint) (Table, error) {
	if len(bands) == 0 {
		return Table{}, errors.New("aqi: table needs at least one band")
	}
	for i, b := range bands {
		if !finite(b.CLo) || !finite(b.CHi) || !finite(b.ILo) || !finite(b.IHi) {
			return Table{}, fmt.Errorf("aqi: band %d has a non-finite bound", i)
		}
		if b.CLo < 0 || b.CHi <= b.CLo {
			return Table{}, fmt.Errorf("aqi: band %d concentration range [%g, %g] is invalid", i, b.CLo, b.CHi)
		}
		if b.ILo < 0 || b.IHi < b.ILo {
			return Table{}, fmt.Errorf("aqi: band %d index range [%g, %g] is invalid", i, b.ILo, b.IHi)
		}
		if i == 0 {
			continue
		}
		prev := bands[i-1]
		if b.CLo <= prev.CHi {
			return Table{}, fmt.Errorf("aqi: band %d overlaps band %d", i, i-1)
		}
		if b.ILo <= prev.IHi {
			return Table{}, fmt.Errorf("aqi: band %d index starts at or below band %d", i, i-1)
		}
		if step > 0 && b.CLo-prev.CHi <= step {
			continue
		}
		// Score of the gap's lowest concentration under this band's formula.
		atGap := b.ILo - (b.CLo-prev.CHi)*(b.IHi-b.ILo)/(b.CHi-b.CLo)
		if atGap < prev.IHi {
			return Table{}, fmt.Errorf("aqi: gap before band %d scores %g, below band %d top %g", i, atGap, i-1, prev.IHi)
		}
	}
	out := make([]Breakpoint, len(bands))
	copy(out, bands)
	return Table{bands: out, step: step}, nil
}

func mustTable(bands ...Breakpoint) Table {
	t, err := NewTable(bands...)
	if err != nil {
		panic(err)
	}
	return t
}

func mustTruncatedTable(step float64, bands ...Breakpoint) Table {
	t, err := NewTruncatedTable(step, bands...)
	if err != nil {
		panic(err)
	}
	return t
}

// Bands returns a copy of the table's breakpoints.
func (t Table) Bands() []Breakpoint {
	out := make([]Breakpoint, len(t.bands))
	copy(out, t.bands)
	return out
}

// Compute interpolates a concentration into an index score.
func (t Table) Compute(c float64) (float64, error) {
	if !finite(c) || c < 0 {
		return 0, fmt.Errorf("%w: concentration %v", ErrInvalidInput, c)
	}
	if len(t.bands) == 0 {
		return 0, errors.New("aqi: empty table")
	}
	if t.step > 0 {
		c = math.Floor(c/t.step) * t.step
	}

	band := t.bands[len(t.bands)-1]
	for _, b := range t.bands {
		if b.CHi >= c {
			band = b
			break
		}
	}
	// Same as (IHi-ILo)/(CHi-CLo)*(c-CLo)+ILo, ordered so band edges land exactly on ILo and IHi.
	frac := (c - band.CLo) / (band.CHi - band.CLo)
	return band.ILo + frac*(band.IHi-band.ILo), nil
}

// Compute maps a PM2.5 concentration (µg/m³) to an AQI score using the EPA table.
func Compute(pm25 float64) (float64, error) {
	return PM25.Compute(pm25)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
