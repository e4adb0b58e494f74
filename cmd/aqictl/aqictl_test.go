package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "aqictl", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("stations-file"))

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"compute", "classify", "stations", "breakpoints", "fetch"})
}

func TestCompute(t *testing.T) {
	out, err := run(t, "compute", "88.1")
	require.NoError(t, err)
	assert.Contains(t, out, "AQI 168")
	assert.Contains(t, out, "Unhealthy (red)")
	assert.Contains(t, out, "mine safety: hazardous")

	out, err = run(t, "compute", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "AQI 50  Good (green)  mine safety: safe")
}

func TestCompute_InvalidInput(t *testing.T) {
	_, err := run(t, "compute", "-3")
	require.Error(t, err)

	_, err = run(t, "compute", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")

	_, err = run(t, "compute")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	out, err := run(t, "classify", "172")
	require.NoError(t, err)
	assert.Equal(t, "Unhealthy (unhealthy, red)\n", out)

	out, err = run(t, "classify", "450")
	require.NoError(t, err)
	assert.Contains(t, out, "Hazardous")
}

func TestStations(t *testing.T) {
	out, err := run(t, "stations")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, out, "jharia-coalfield")
	assert.Contains(t, out, "23.7430")
}

func TestStations_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`stations:
  - id: katras
    name: Katras
    district: Dhanbad
    lat: 23.80
    lon: 86.29
`), 0o600))

	out, err := run(t, "stations", "--stations-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "katras")
	assert.NotContains(t, out, "ranchi")
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "adapter", "openmeteo", "testdata", "dhanbad.json"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "23.7957", r.URL.Query().Get("latitude"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Formats(t *testing.T) {
	srv := fixtureServer(t)

	out, err := run(t, "fetch", "--station", "dhanbad-city", "--base-url", srv.URL, "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "time,pm10,pm2_5,dust,no2,aqi,category", lines[0])
	assert.Len(t, lines, 4, "header plus three hours with pm2_5")

	out, err = run(t, "fetch", "-s", "dhanbad-city", "--base-url", srv.URL, "-f", "json")
	require.NoError(t, err)
	var snap domain.StationSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "dhanbad-city", snap.Station.ID)
	assert.Equal(t, 1, snap.Summary.SkippedReadings)

	out, err = run(t, "fetch", "--station", "dhanbad-city", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "# Air Quality: Dhanbad City")
	assert.Contains(t, out, "## Advisory")
}

func TestFetch_Errors(t *testing.T) {
	_, err := run(t, "fetch")
	require.Error(t, err, "station is required")

	_, err = run(t, "fetch", "--station", "atlantis", "--base-url", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown station")

	_, err = run(t, "fetch", "--station", "ranchi", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err = run(t, "fetch", "--station", "ranchi", "--base-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestBreakpoints(t *testing.T) {
	out, err := run(t, "breakpoints")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8, "header plus seven bands")
	assert.Contains(t, lines[0], "C_LO")
	assert.Contains(t, lines[1], "Good")
	assert.Contains(t, out, "500.4")

	out, err = run(t, "breakpoints", "-p", "pm10")
	require.NoError(t, err)
	assert.Contains(t, out, "604")
	assert.NotContains(t, out, "500.4")

	_, err = run(t, "breakpoints", "--pollutant", "so2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pollutant")
}
