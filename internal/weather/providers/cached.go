package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errReverseUnsupported = errors.New("reverse geocoding not supported by backend")

// CachingGeocoder memoizes successful lookups of another Geocoder by
// normalized name. Misses and failures are never cached.
type CachingGeocoder struct {
	next  weather.Geocoder
	cache *gocache.Cache
}

func NewCachingGeocoder(next weather.Geocoder, ttl time.Duration) *CachingGeocoder {
	return &CachingGeocoder{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachingGeocoder) Name() string {
	return c.next.Name()
}

func (c *CachingGeocoder) Geocode(ctx context.Context, name string) (weather.Place, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if v, ok := c.cache.Get(key); ok {
		if place, ok := v.(weather.Place); ok {
			metrics.GeocodeLookups.WithLabelValues(c.next.Name(), metrics.OutcomeCached).Inc()
			return place, nil
		}
	}

	place, err := c.next.Geocode(ctx, name)
	if err != nil {
		return weather.Place{}, err
	}
	c.cache.Set(key, place, gocache.DefaultExpiration)
	return place, nil
}

// Reverse forwards to the wrapped geocoder when it can reverse geocode.
func (c *CachingGeocoder) Reverse(ctx context.Context, coord weather.Coordinate) (weather.Place, error) {
	rg, ok := c.next.(weather.ReverseGeocoder)
	if !ok {
		return weather.Place{}, errReverseUnsupported
	}
	return rg.Reverse(ctx, coord)
}
