package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// Service runs render passes: it resolves the location, fetches the
// forecast and reshapes it for the page.
type Service struct {
	catalog  Catalog
	geocoder Geocoder
	forecast ForecastClient
	log      *zap.Logger
}

// NewService creates a new Service. A nil logger disables logging.
func NewService(catalog Catalog, geocoder Geocoder, forecast ForecastClient, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		catalog:  catalog,
		geocoder: geocoder,
		forecast: forecast,
		log:      log,
	}
}

// Catalog returns the variable catalog the service renders with.
func (s *Service) Catalog() Catalog {
	return s.catalog
}

// Geocode resolves a city name through the configured geocoder.
func (s *Service) Geocode(ctx context.Context, name string) (Place, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Place{}, ErrNotFound
	}
	return s.geocoder.Geocode(ctx, name)
}

// Forecast fetches the series for the given keys, deduplicated.
func (s *Service) Forecast(ctx context.Context, c Coordinate, keys []VariableKey) (ForecastSeries, error) {
	if err := c.Validate(); err != nil {
		return ForecastSeries{}, err
	}
	keys = dedupKeys(keys)
	if len(keys) == 0 {
		return ForecastSeries{}, errors.New("at least one variable is required")
	}
	return s.forecast.Fetch(ctx, c, keys)
}

// Render runs one pass over st. Upstream failures never escape: they end the
// pass with a warning notice instead.
func (s *Service) Render(ctx context.Context, st State) (view View) {
	selected, _ := s.catalog.Select(st.Selection)
	if selected == nil {
		selected = []Variable{}
	}
	view = View{
		Phase:     PhaseNoLocation,
		State:     st,
		Selection: selected,
		Notices:   []Notice{},
	}
	defer func() {
		metrics.RenderPasses.WithLabelValues(string(view.Phase)).Inc()
	}()

	place, ok := s.resolveLocation(ctx, st, &view)
	if !ok {
		return view
	}
	view.Location = &place
	view.Phase = PhaseLocationResolved

	if len(selected) == 0 {
		view.Phase = PhaseNoSelection
		view.notify(NoticeInfo, "Select at least one variable to load the forecast.")
		return view
	}

	keys := Keys(selected)
	series, err := s.Forecast(ctx, place.Coordinate, keys)
	if err == nil && !series.Aligned() {
		err = ErrMalformedSeries
	}
	if err != nil {
		s.log.Warn("forecast fetch failed",
			zap.Float64("lat", place.Latitude),
			zap.Float64("lon", place.Longitude),
			zap.Error(err))
		view.Phase = PhaseDataEmpty
		view.notify(NoticeWarning, "No forecast data is available for this location right now.")
		return view
	}

	var present []VariableKey
	for _, k := range keys {
		if series.Has(k) {
			present = append(present, k)
		} else {
			view.Missing = append(view.Missing, k)
		}
	}

	if series.Empty() || len(present) == 0 {
		view.Phase = PhaseDataEmpty
		view.Missing = nil
		view.notify(NoticeWarning, "No forecast data is available for this location.")
		return view
	}

	if len(view.Missing) > 0 {
		names := make([]string, len(view.Missing))
		for i, k := range view.Missing {
			names[i] = string(k)
		}
		view.notify(NoticeWarning, "No data returned for: "+strings.Join(names, ", "))
	}

	table := BuildTable(series, present, TableLimit)
	view.Phase = PhaseDataFetched
	view.ChartTitle = fmt.Sprintf("Hourly forecast at %.2f, %.2f", place.Latitude, place.Longitude)
	view.Rows = Flatten(series, present)
	view.Table = &table
	view.Summary = Summarize(series, present)
	return view
}

func (s *Service) resolveLocation(ctx context.Context, st State, view *View) (Place, bool) {
	switch st.Mode {
	case ModeCity:
		city := strings.TrimSpace(st.City)
		if city == "" {
			return Place{}, false
		}
		place, err := s.Geocode(ctx, city)
		if errors.Is(err, ErrNotFound) {
			view.notify(NoticeWarning, fmt.Sprintf("No location found for %q.", city))
			return Place{}, false
		}
		if err != nil {
			s.log.Warn("geocode failed", zap.String("city", city), zap.Error(err))
			view.notify(NoticeWarning, fmt.Sprintf("Could not look up %q right now.", city))
			return Place{}, false
		}
		view.notify(NoticeSuccess, fmt.Sprintf("Location: %s (lat %.4f, lon %.4f)",
			place.Label(), place.Latitude, place.Longitude))
		return place, true

	default:
		if st.LastClick == nil {
			return Place{}, false
		}
		place := Place{Coordinate: *st.LastClick}
		if rg, ok := s.geocoder.(ReverseGeocoder); ok {
			named, err := rg.Reverse(ctx, place.Coordinate)
			if err != nil {
				s.log.Debug("reverse geocode failed", zap.Error(err))
			} else {
				place.Name, place.Country = named.Name, named.Country
			}
		}
		msg := fmt.Sprintf("Selected location: lat %.4f, lon %.4f", place.Latitude, place.Longitude)
		if label := place.Label(); label != "" {
			msg += " (" + label + ")"
		}
		view.notify(NoticeSuccess, msg)
		return place, true
	}
}

func dedupKeys(keys []VariableKey) []VariableKey {
	seen := make(map[VariableKey]bool, len(keys))
	out := make([]VariableKey, 0, len(keys))
	for _, k := range keys {
		k = VariableKey(strings.TrimSpace(string(k)))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
