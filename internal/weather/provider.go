package weather

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Geocoder when the name matches nothing.
	ErrNotFound = errors.New("location not found")
	// ErrFetch wraps transport, status and decoding failures of upstream calls.
	ErrFetch = errors.New("weather fetch failed")
	// ErrMalformedSeries is returned when hourly arrays are not aligned with time.
	ErrMalformedSeries = errors.New("malformed hourly series")
)

// Geocoder resolves a free-text place name to its best match.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, name string) (Place, error)
}

// ReverseGeocoder names a coordinate. Backends that can't do this simply
// don't implement it.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c Coordinate) (Place, error)
}

// ForecastClient fetches hourly forecasts for a coordinate.
type ForecastClient interface {
	Fetch(ctx context.Context, c Coordinate, keys []VariableKey) (ForecastSeries, error)
}
