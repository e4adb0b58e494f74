package aqi

import "fmt"

// ProviderIndex is a provider's native 1–5 categorical index (OpenWeather
// scale). It is not an EPA score and must not be compared with one.
type ProviderIndex int

var providerLabels = [...]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// Valid reports whether the index is within 1–5.
func (p ProviderIndex) Valid() bool {
	return p >= 1 && p <= 5
}

// Label returns the provider's name for the level.
func (p ProviderIndex) Label() string {
	if !p.Valid() {
		return fmt.Sprintf("unknown(%d)", int(p))
	}
	return providerLabels[p]
}
