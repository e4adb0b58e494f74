// Package main provides aqictl, a command-line client for the AQI engine.
//
// Usage:
//
//	aqictl compute 88.1
//	aqictl classify 172
//	aqictl stations
//	aqictl fetch --station jharia-coalfield --format markdown
//
// compute, classify and stations work offline. fetch calls open-meteo.
package main

func main() {
	Execute()
}
