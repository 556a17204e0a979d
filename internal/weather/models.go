package weather

import (
	"fmt"
)

// Coordinate is a point picked on the map or returned by a geocoder.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinate lies on the globe.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// Place is a resolved location: coordinates plus whatever naming the
// geocoder could provide. Map clicks produce a Place without a name.
type Place struct {
	Coordinate
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
}

// Label returns a human readable name for the place, or "" when unnamed.
func (p Place) Label() string {
	switch {
	case p.Name != "" && p.Country != "":
		return p.Name + ", " + p.Country
	default:
		return p.Name
	}
}

// Reading is a single hourly value. Missing is set when the provider
// returned null for that hour.
type Reading struct {
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// ForecastSeries is an hourly time series keyed by provider variable key.
// Every slice in Values is aligned by index with Time.
type ForecastSeries struct {
	Time   []string                  `json:"time"`
	Values map[VariableKey][]Reading `json:"values"`
}

// Empty reports whether the series carries no usable data.
func (s ForecastSeries) Empty() bool {
	return len(s.Time) == 0 || len(s.Values) == 0
}

// Has reports whether the series contains data for key.
func (s ForecastSeries) Has(key VariableKey) bool {
	_, ok := s.Values[key]
	return ok
}

// Aligned reports whether every column has one reading per timestamp.
func (s ForecastSeries) Aligned() bool {
	for _, col := range s.Values {
		if len(col) != len(s.Time) {
			return false
		}
	}
	return true
}

// LongRow is one (time, variable, value) triple of the long-form table.
type LongRow struct {
	Time     string      `json:"time"`
	Variable VariableKey `json:"variable"`
	Value    float64     `json:"value"`
	Missing  bool        `json:"missing,omitempty"`
}
