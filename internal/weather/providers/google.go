package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Swapped out in tests; the geocoder package talks to Google directly.
var (
	googleGeocoding        = geocoder.Geocoding
	googleGeocodingReverse = geocoder.GeocodingReverse
)

var setKeyOnce sync.Once

// GoogleGeocoder implements weather.Geocoder and weather.ReverseGeocoder on
// top of the Google Geocoding API.
//
// The geocoder library takes no context and uses a client without a
// timeout, so every call runs in its own goroutine and is abandoned once
// the deadline passes.
type GoogleGeocoder struct {
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewGoogleGeocoder configures the package-wide API key of the geocoder
// library. Only the first key wins. A timeout <= 0 relies on the caller's
// context alone.
func NewGoogleGeocoder(apiKey string, timeout time.Duration, log *zap.Logger) *GoogleGeocoder {
	setKeyOnce.Do(func() {
		geocoder.ApiKey = apiKey
	})
	if log == nil {
		log = zap.NewNop()
	}
	return &GoogleGeocoder{
		timeout: timeout,
		cb:      newBreaker("google-geocoding"),
		log:     log,
	}
}

// errZeroResults marks a lookup that matched nothing. It is reported to the
// breaker as a success.
var errZeroResults = errors.New("zero results")

// call runs fn through the circuit breaker and waits for it at most until
// ctx or the configured timeout expires.
func (g *GoogleGeocoder) call(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	type result struct {
		v   interface{}
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := g.cb.Execute(func() (interface{}, error) {
			v, err := fn()
			if err != nil && isZeroResults(err) {
				return errZeroResults, nil
			}
			return v, err
		})
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if r.v == errZeroResults {
			return nil, errZeroResults
		}
		return r.v, nil
	}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, name string) (weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return weather.Place{}, fmt.Errorf("%w: %v", weather.ErrFetch, err)
	}

	v, err := g.call(ctx, func() (interface{}, error) {
		return googleGeocoding(geocoder.Address{City: name})
	})
	if err != nil {
		if errors.Is(err, errZeroResults) {
			metrics.GeocodeLookups.WithLabelValues(g.Name(), metrics.OutcomeNotFound).Inc()
			return weather.Place{}, weather.ErrNotFound
		}
		metrics.GeocodeLookups.WithLabelValues(g.Name(), metrics.OutcomeError).Inc()
		return weather.Place{}, fmt.Errorf("%w: google geocoding: %v", weather.ErrFetch, err)
	}

	loc := v.(geocoder.Location)
	metrics.GeocodeLookups.WithLabelValues(g.Name(), metrics.OutcomeOK).Inc()
	place := weather.Place{
		Coordinate: weather.Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude},
		Name:       name,
	}

	// The forward lookup carries no names; ask for them but don't insist.
	if named, err := g.Reverse(ctx, place.Coordinate); err == nil {
		if named.Name != "" {
			place.Name = named.Name
		}
		place.Country = named.Country
	}
	return place, nil
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, c weather.Coordinate) (weather.Place, error) {
	if err := ctx.Err(); err != nil {
		return weather.Place{}, fmt.Errorf("%w: %v", weather.ErrFetch, err)
	}

	v, err := g.call(ctx, func() (interface{}, error) {
		return googleGeocodingReverse(geocoder.Location{Latitude: c.Latitude, Longitude: c.Longitude})
	})
	if err != nil {
		if errors.Is(err, errZeroResults) {
			return weather.Place{}, weather.ErrNotFound
		}
		return weather.Place{}, fmt.Errorf("%w: google reverse geocoding: %v", weather.ErrFetch, err)
	}
	addrs := v.([]geocoder.Address)
	if len(addrs) == 0 {
		return weather.Place{}, weather.ErrNotFound
	}

	a := addrs[0]
	g.log.Debug("reverse geocoded", zap.String("city", a.City), zap.String("country", a.Country))
	return weather.Place{Coordinate: c, Name: a.City, Country: a.Country}, nil
}

func isZeroResults(err error) bool {
	return common.HasAny(err.Error(), "ZERO_RESULTS", "no results", "No results")
}
