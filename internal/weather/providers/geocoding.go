package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const DefaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoGeocoder implements weather.Geocoder with Open-Meteo's
// geocoding search, asking for exactly one result.
type OpenMeteoGeocoder struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewOpenMeteoGeocoder(client *http.Client, baseURL string, log *zap.Logger) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodeURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenMeteoGeocoder{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(0),
		},
		circuit: newBreaker("openmeteo-geocoding"),
		log:     log,
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return g.name
}

func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, name string) (weather.Place, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return weather.Place{}, fmt.Errorf("invalid geocode base url: %w", err)
	}
	values := u.Query()
	values.Set("name", name)
	values.Set("count", "1")
	u.RawQuery = values.Encode()

	resp, err := doRequest(ctx, g.httpCfg, g.circuit, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		metrics.GeocodeLookups.WithLabelValues(g.name, metrics.OutcomeError).Inc()
		return weather.Place{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.GeocodeLookups.WithLabelValues(g.name, metrics.OutcomeError).Inc()
		return weather.Place{}, fmt.Errorf("%w: decoding geocode response: %v", weather.ErrFetch, err)
	}

	if len(payload.Results) == 0 {
		metrics.GeocodeLookups.WithLabelValues(g.name, metrics.OutcomeNotFound).Inc()
		return weather.Place{}, weather.ErrNotFound
	}

	r := payload.Results[0]
	g.log.Debug("geocoded", zap.String("query", name), zap.String("name", r.Name))
	metrics.GeocodeLookups.WithLabelValues(g.name, metrics.OutcomeOK).Inc()

	return weather.Place{
		Coordinate: weather.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
		Name:       r.Name,
		Country:    r.Country,
	}, nil
}
