package domain

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultStations is the built-in Jharkhand catalogue.
func DefaultStations() []Station {
	return []Station{
		{ID: "dhanbad-city", Name: "Dhanbad City", District: "Dhanbad", Lat: 23.7957, Lon: 86.4304},
		{ID: "jharia-coalfield", Name: "Jharia Coal Field", District: "Dhanbad", Lat: 23.7430, Lon: 86.4116},
		{ID: "sindri-industrial", Name: "Sindri Industrial", District: "Dhanbad", Lat: 23.6496, Lon: 86.5147},
		{ID: "ranchi", Name: "Ranchi", District: "Ranchi", Lat: 23.3441, Lon: 85.3096},
		{ID: "jamshedpur", Name: "Jamshedpur", District: "East Singhbhum", Lat: 22.8046, Lon: 86.2029},
		{ID: "bokaro-steel-city", Name: "Bokaro Steel City", District: "Bokaro", Lat: 23.6693, Lon: 86.1511},
	}
}

type stationsFile struct {
	Stations []Station `yaml:"stations"`
}

// LoadStations reads a YAML station catalogue. An empty path returns the
// built-in catalogue.
func LoadStations(path string) ([]Station, error) {
	if path == "" {
		return DefaultStations(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations file: %w", err)
	}
	return ParseStations(data)
}

// ParseStations decodes and validates a YAML catalogue of the form
//
//	stations:
//	  - id: dhanbad-city
//	    name: Dhanbad City
//	    lat: 23.7957
//	    lon: 86.4304
func ParseStations(data []byte) ([]Station, error) {
	var f stationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stations file: %w", err)
	}
	if err := ValidateStations(f.Stations); err != nil {
		return nil, err
	}
	return f.Stations, nil
}

// stationIDPattern keeps IDs usable as URL path segments and MQTT topic levels.
var stationIDPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateStations checks that IDs are present, unique and lowercase
// kebab-case, and that coordinates are within WGS-84 bounds.
func ValidateStations(stations []Station) error {
	if len(stations) == 0 {
		return errors.New("station catalogue is empty")
	}
	seen := make(map[string]struct{}, len(stations))
	for i, st := range stations {
		id := st.ID
		if id == "" {
			return fmt.Errorf("station %d: id is required", i)
		}
		if !stationIDPattern.MatchString(id) {
			return fmt.Errorf("station %q: id must be lowercase letters, digits and single hyphens", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("station %q: duplicate id", id)
		}
		seen[id] = struct{}{}
		if st.Lat < -90 || st.Lat > 90 {
			return fmt.Errorf("station %q: latitude %v out of range", id, st.Lat)
		}
		if st.Lon < -180 || st.Lon > 180 {
			return fmt.Errorf("station %q: longitude %v out of range", id, st.Lon)
		}
	}
	return nil
}

// FindStation looks up a station by ID.
func FindStation(stations []Station, id string) (Station, bool) {
	for _, st := range stations {
		if st.ID == id {
			return st, true
		}
	}
	return Station{}, false
}
