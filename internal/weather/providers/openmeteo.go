package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimezone    = "Asia/Seoul"
)

// OpenMeteoForecast implements weather.ForecastClient for Open-Meteo's
// hourly forecast endpoint.
type OpenMeteoForecast struct {
	baseURL  string
	timezone string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

// OpenMeteoOptions configures NewOpenMeteoForecast. Zero values pick the
// public endpoint, Asia/Seoul and no retries.
type OpenMeteoOptions struct {
	BaseURL    string
	Timezone   string
	MaxRetries int
	Logger     *zap.Logger
}

func NewOpenMeteoForecast(client *http.Client, opts OpenMeteoOptions) *OpenMeteoForecast {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultForecastURL
	}
	if opts.Timezone == "" {
		opts.Timezone = DefaultTimezone
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &OpenMeteoForecast{
		baseURL:  opts.BaseURL,
		timezone: opts.Timezone,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(opts.MaxRetries),
		},
		circuit: newBreaker("openmeteo-forecast"),
		log:     opts.Logger,
	}
}

// hourlyPayload is the fixed schema of the `hourly` object. A nil slice
// means the provider did not return that variable; a nil element is a
// missing hour.
type hourlyPayload struct {
	Time               []string   `json:"time"`
	Temperature2m      []*float64 `json:"temperature_2m"`
	Precipitation      []*float64 `json:"precipitation"`
	WindSpeed10m       []*float64 `json:"wind_speed_10m"`
	RelativeHumidity2m []*float64 `json:"relative_humidity_2m"`
}

func (h *hourlyPayload) column(key weather.VariableKey) ([]*float64, bool) {
	switch key {
	case weather.Temperature2m:
		return h.Temperature2m, true
	case weather.Precipitation:
		return h.Precipitation, true
	case weather.WindSpeed10m:
		return h.WindSpeed10m, true
	case weather.RelativeHumidity2m:
		return h.RelativeHumidity2m, true
	}
	return nil, false
}

func supported(key weather.VariableKey) bool {
	_, ok := (&hourlyPayload{}).column(key)
	return ok
}

// BuildForecastURL returns the request URL for coordinate c and keys. Keys
// are joined with commas in the order given, without duplicates.
func BuildForecastURL(baseURL string, c weather.Coordinate, keys []weather.VariableKey, timezone string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid forecast base url: %w", err)
	}

	seen := make(map[weather.VariableKey]bool, len(keys))
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		names = append(names, string(k))
	}

	values := u.Query()
	values.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	values.Set("hourly", strings.Join(names, ","))
	values.Set("timezone", timezone)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (p *OpenMeteoForecast) Fetch(ctx context.Context, c weather.Coordinate, keys []weather.VariableKey) (weather.ForecastSeries, error) {
	if len(keys) == 0 {
		return weather.ForecastSeries{}, fmt.Errorf("openmeteo: no variables requested")
	}
	for _, k := range keys {
		if !supported(k) {
			return weather.ForecastSeries{}, fmt.Errorf("openmeteo: unsupported variable %q", k)
		}
	}

	u, err := BuildForecastURL(p.baseURL, c, keys, p.timezone)
	if err != nil {
		return weather.ForecastSeries{}, err
	}

	p.log.Debug("fetching forecast", zap.String("url", u))

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		metrics.ForecastFetches.WithLabelValues(metrics.OutcomeError).Inc()
		return weather.ForecastSeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly *hourlyPayload `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.ForecastFetches.WithLabelValues(metrics.OutcomeError).Inc()
		return weather.ForecastSeries{}, fmt.Errorf("%w: decoding forecast: %v", weather.ErrFetch, err)
	}

	series, err := toSeries(payload.Hourly, keys)
	if err != nil {
		metrics.ForecastFetches.WithLabelValues(metrics.OutcomeError).Inc()
		return weather.ForecastSeries{}, err
	}

	if series.Empty() {
		metrics.ForecastFetches.WithLabelValues(metrics.OutcomeEmpty).Inc()
	} else {
		metrics.ForecastFetches.WithLabelValues(metrics.OutcomeOK).Inc()
	}
	return series, nil
}

// toSeries validates the decoded payload against the requested keys.
func toSeries(h *hourlyPayload, keys []weather.VariableKey) (weather.ForecastSeries, error) {
	if h == nil || len(h.Time) == 0 {
		return weather.ForecastSeries{}, nil
	}

	series := weather.ForecastSeries{
		Time:   h.Time,
		Values: make(map[weather.VariableKey][]weather.Reading, len(keys)),
	}

	for _, k := range keys {
		col, _ := h.column(k)
		if col == nil {
			continue
		}
		if len(col) != len(h.Time) {
			return weather.ForecastSeries{}, fmt.Errorf("%w: %s has %d values for %d timestamps",
				weather.ErrMalformedSeries, k, len(col), len(h.Time))
		}

		readings := make([]weather.Reading, len(col))
		for i, v := range col {
			if v == nil {
				readings[i] = weather.Reading{Missing: true}
				continue
			}
			readings[i] = weather.Reading{Value: *v}
		}
		series.Values[k] = readings
	}

	if len(series.Values) == 0 {
		return weather.ForecastSeries{}, nil
	}
	return series, nil
}
