// Package domain models air-quality readings for monitoring stations in the
// Jharkhand coal belt and the reports derived from them.
//
// # Data Source
//
// Hourly pollutant concentrations come from the open-meteo air-quality API
// (CAMS model output). Each station is fetched by coordinates with
// timezone=Asia/Kolkata, so timestamps arrive as local wall-clock strings
// ("2024-11-02T14:00") plus a utc_offset_seconds field. The adapter converts
// them to absolute times before they reach this package.
//
// # Units
//
//	pm2_5, pm10, dust, nitrogen_dioxide: µg/m³
//
// Missing hours are JSON nulls. A reading without PM2.5 cannot be scored and
// is dropped; PM10, NO2 and dust are optional and kept as nil when absent.
//
// # Scores
//
//	AQI:            EPA 0–500 score computed from PM2.5 (see package aqi).
//	PM10 sub-index: same method with the PM10 table, reported separately.
//	Provider index: OpenWeather's own 1–5 level, attached to the current
//	                reading only and never converted to or from the AQI.
//
// # Safety status
//
// The mine-safety status compares PM2.5 with India's NAAQS 24-hour limit of
// 60 µg/m³: below is "safe", at or above is "hazardous". Trend summaries also
// count hours above the NAAQS PM10 limit of 100 µg/m³.
//
// # ID Generation
//
// Report IDs are deterministic SHA-256 hashes of station|timestamp. Re-fetching
// the same hour yields the same ID, so downstream stores can upsert and Kafka
// consumers can de-duplicate. See [generateID].
package domain
