// Package aqi converts particulate concentrations into Air Quality Index
// scores and severity categories.
//
// # Breakpoint interpolation
//
// Each pollutant has a [Table] of breakpoint bands. A band maps a
// concentration interval [CLo, CHi] linearly onto an index interval
// [ILo, IHi]:
//
//	score = (IHi - ILo) / (CHi - CLo) * (c - CLo) + ILo
//
// The band used is the first one, in ascending order, whose CHi is at least
// the concentration. Concentrations above the top band keep using its
// formula, so scores may exceed 500.
//
// The US EPA PM2.5 table has 0.1 µg/m³ gaps between bands (12.0 → 12.1,
// 35.4 → 35.5, ...). A value inside a gap falls into the next band, which
// produces a small step at each boundary. This is a property of the EPA
// table and is kept as-is.
//
// # Categories
//
// Scores are bucketed at 50, 100, 150, 200 and 300:
//
//	≤ 50   Good                            green
//	≤ 100  Moderate                        yellow
//	≤ 150  Unhealthy for Sensitive Groups  orange
//	≤ 200  Unhealthy                       red
//	≤ 300  Very Unhealthy                  purple
//	> 300  Hazardous                       maroon
//
// # Provider index
//
// Some data providers publish their own 1–5 categorical index. That value is
// a [ProviderIndex] and is never mixed with the 0–500 score.
package aqi
