package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type stubGeocoder struct{}

func (stubGeocoder) Name() string { return "stub" }

func (stubGeocoder) Geocode(_ context.Context, name string) (weather.Place, error) {
	if name == "Seoul" {
		return weather.Place{
			Coordinate: weather.Coordinate{Latitude: 37.566, Longitude: 126.9784},
			Name:       "Seoul",
			Country:    "South Korea",
		}, nil
	}
	return weather.Place{}, weather.ErrNotFound
}

type stubForecast struct {
	calls int
	err   error
	flat  bool
}

func (s *stubForecast) Fetch(_ context.Context, _ weather.Coordinate, keys []weather.VariableKey) (weather.ForecastSeries, error) {
	s.calls++
	if s.err != nil {
		return weather.ForecastSeries{}, s.err
	}
	series := weather.ForecastSeries{Values: make(map[weather.VariableKey][]weather.Reading)}
	for i := 0; i < 48; i++ {
		series.Time = append(series.Time, fmt.Sprintf("2026-10-%02dT%02d:00", 16+i/24, i%24))
	}
	for _, k := range keys {
		vals := make([]weather.Reading, 48)
		for i := range vals {
			if !s.flat {
				vals[i] = weather.Reading{Value: float64(i % 7)}
			}
		}
		series.Values[k] = vals
	}
	return series, nil
}

func newTestApp() (*fiber.App, *stubForecast) {
	app := fiber.New()
	fc := &stubForecast{}
	svc := weather.NewService(weather.DefaultCatalog(), stubGeocoder{}, fc, nil)
	RegisterRoutes(app, svc, store.NewSessionStore(10, time.Hour))
	return app, fc
}

func do(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestVariables(t *testing.T) {
	app, _ := newTestApp()
	resp, body := do(t, app, http.MethodGet, "/api/v1/variables", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Variables        []weather.Variable `json:"variables"`
		DefaultSelection []string           `json:"defaultSelection"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Variables) != 4 || len(out.DefaultSelection) != 1 {
		t.Fatalf("unexpected catalog %+v", out)
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	app, _ := newTestApp()

	cases := []struct {
		target string
		status int
	}{
		{"/api/v1/geocode?name=Seoul", http.StatusOK},
		{"/api/v1/geocode?name=Atlantis", http.StatusNotFound},
		{"/api/v1/geocode", http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, _ := do(t, app, http.MethodGet, tc.target, nil)
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.status, resp.StatusCode)
		}
	}
}

func TestForecastValidation(t *testing.T) {
	app, fc := newTestApp()

	bad := []string{
		"/api/v1/forecast?variables=temperature_2m",
		"/api/v1/forecast?lat=37.5&variables=temperature_2m",
		"/api/v1/forecast?lat=91&lon=0&variables=temperature_2m",
		"/api/v1/forecast?lat=0&lon=181&variables=temperature_2m",
		"/api/v1/forecast?lat=abc&lon=0&variables=temperature_2m",
		"/api/v1/forecast?lat=37.5&lon=127",
		"/api/v1/forecast?lat=37.5&lon=127&variables=snow_depth",
	}
	for _, target := range bad {
		resp, _ := do(t, app, http.MethodGet, target, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.StatusCode)
		}
	}
	if fc.calls != 0 {
		t.Fatalf("invalid requests must not reach the forecast client")
	}

	resp, body := do(t, app, http.MethodGet, "/api/v1/forecast?lat=37.5&lon=127&variables=temperature_2m,precipitation", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var series weather.ForecastSeries
	if err := json.Unmarshal(body, &series); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(series.Time) != 48 || len(series.Values) != 2 {
		t.Fatalf("unexpected series shape: %d times, %d variables", len(series.Time), len(series.Values))
	}
}

func TestForecastUpstreamFailure(t *testing.T) {
	app, fc := newTestApp()
	fc.err = weather.ErrFetch

	resp, _ := do(t, app, http.MethodGet, "/api/v1/forecast?lat=37.5&lon=127&variables=temperature_2m", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestDashboardRenderPass(t *testing.T) {
	app, fc := newTestApp()

	cases := []struct {
		target string
		phase  weather.Phase
	}{
		{"/api/v1/dashboard", weather.PhaseNoLocation},
		{"/api/v1/dashboard?mode=city&city=Atlantis", weather.PhaseNoLocation},
		{"/api/v1/dashboard?mode=city&city=Seoul&variables=", weather.PhaseNoSelection},
		{"/api/v1/dashboard?mode=city&city=Seoul", weather.PhaseDataFetched},
		{"/api/v1/dashboard?lat=35.18&lon=129.08&variables=temperature_2m,wind_speed_10m", weather.PhaseDataFetched},
	}
	for _, tc := range cases {
		resp, body := do(t, app, http.MethodGet, tc.target, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.target, resp.StatusCode)
		}
		var view weather.View
		if err := json.Unmarshal(body, &view); err != nil {
			t.Fatalf("%s: decode: %v", tc.target, err)
		}
		if view.Phase != tc.phase {
			t.Fatalf("%s: expected phase %s, got %s", tc.target, tc.phase, view.Phase)
		}
		if view.Phase == weather.PhaseDataFetched && len(view.Table.Rows) != weather.TableLimit {
			t.Fatalf("%s: expected %d table rows, got %d", tc.target, weather.TableLimit, len(view.Table.Rows))
		}
	}
	if fc.calls != 2 {
		t.Fatalf("expected 2 forecast fetches, got %d", fc.calls)
	}

	resp, _ := do(t, app, http.MethodGet, "/api/v1/dashboard?mode=satellite", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", resp.StatusCode)
	}
}

func TestDashboardChart(t *testing.T) {
	app, _ := newTestApp()

	resp, body := do(t, app, http.MethodGet, "/api/v1/dashboard/chart?mode=city&city=Seoul", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatalf("expected a PNG body")
	}

	resp, body = do(t, app, http.MethodGet, "/api/v1/dashboard/chart?mode=city&city=Seoul&format=svg", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<svg") {
		t.Fatalf("expected an SVG chart, got %d", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/api/v1/dashboard/chart", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without data, got %d", resp.StatusCode)
	}
}

func TestSessionFlow(t *testing.T) {
	app, fc := newTestApp()

	resp, body := do(t, app, http.MethodPost, "/api/v1/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var sess store.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	events := "/api/v1/sessions/" + sess.ID + "/events"

	view := func(body []byte) weather.View {
		t.Helper()
		var v weather.View
		if err := json.Unmarshal(body, &v); err != nil {
			t.Fatalf("decode view: %v", err)
		}
		return v
	}

	_, body = do(t, app, http.MethodPost, events, map[string]any{"type": "mode_changed", "mode": "city"})
	if v := view(body); v.Phase != weather.PhaseNoLocation {
		t.Fatalf("expected no_location, got %s", v.Phase)
	}

	_, body = do(t, app, http.MethodPost, events, map[string]any{"type": "city_changed", "city": "Seoul"})
	if v := view(body); v.Phase != weather.PhaseDataFetched {
		t.Fatalf("expected data_fetched, got %s", v.Phase)
	}

	_, body = do(t, app, http.MethodPost, events, map[string]any{"type": "selection_changed", "selection": []string{}})
	if v := view(body); v.Phase != weather.PhaseNoSelection {
		t.Fatalf("expected no_selection, got %s", v.Phase)
	}
	if fc.calls != 1 {
		t.Fatalf("expected exactly one fetch so far, got %d", fc.calls)
	}

	_, body = do(t, app, http.MethodPost, events, map[string]any{"type": "mode_changed", "mode": "map"})
	if v := view(body); v.Phase != weather.PhaseNoLocation {
		t.Fatalf("map mode without a click should have no location, got %s", v.Phase)
	}

	_, _ = do(t, app, http.MethodPost, events, map[string]any{"type": "selection_changed", "selection": []string{"Relative humidity (%)"}})
	_, body = do(t, app, http.MethodPost, events, map[string]any{"type": "map_clicked", "lat": 35.18, "lon": 129.08})
	v := view(body)
	if v.Phase != weather.PhaseDataFetched || len(v.Selection) != 1 || v.Selection[0].Key != weather.RelativeHumidity2m {
		t.Fatalf("unexpected view after click: %+v", v)
	}

	resp, body = do(t, app, http.MethodGet, "/api/v1/sessions/"+sess.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &sess); err != nil || sess.State.LastClick == nil {
		t.Fatalf("click should be stored: %+v %v", sess.State, err)
	}

	resp, _ = do(t, app, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/view", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp, _ = do(t, app, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/chart", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected chart, got %d", resp.StatusCode)
	}
}

func TestSessionEventValidation(t *testing.T) {
	app, _ := newTestApp()
	_, body := do(t, app, http.MethodPost, "/api/v1/sessions", nil)
	var sess store.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	events := "/api/v1/sessions/" + sess.ID + "/events"

	bad := []map[string]any{
		{"type": "zoomed"},
		{"type": "map_clicked"},
		{"type": "map_clicked", "lat": 95, "lon": 0},
		{"type": "mode_changed", "mode": "satellite"},
		{"type": "selection_changed", "selection": []string{"snow_depth"}},
	}
	for _, ev := range bad {
		resp, _ := do(t, app, http.MethodPost, events, ev)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", ev, resp.StatusCode)
		}
	}

	resp, _ := do(t, app, http.MethodPost, "/api/v1/sessions/unknown/events", map[string]any{"type": "mode_changed", "mode": "city"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.StatusCode)
	}
}

func TestDashboardChartDryDay(t *testing.T) {
	app, fc := newTestApp()
	fc.flat = true

	resp, body := do(t, app, http.MethodGet, "/api/v1/dashboard/chart?mode=city&city=Seoul&variables=precipitation", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for an all-zero series, got %d: %s", resp.StatusCode, body)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatalf("expected a PNG body")
	}
}

func TestSessionEventInlineChart(t *testing.T) {
	app, fc := newTestApp()

	_, body := do(t, app, http.MethodPost, "/api/v1/sessions", nil)
	var sess store.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	events := "/api/v1/sessions/" + sess.ID + "/events"

	resp, body := do(t, app, http.MethodPost, events+"?chart=svg", map[string]any{"type": "map_clicked", "lat": 37.57, "lon": 126.98})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var v viewResponse
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Phase != weather.PhaseDataFetched || len(v.Table.Rows) != weather.TableLimit {
		t.Fatalf("unexpected view %+v", v.View)
	}
	if !strings.HasPrefix(v.ChartImage, "data:image/svg+xml;base64,") {
		t.Fatalf("expected an inline svg chart, got %.40q", v.ChartImage)
	}
	if fc.calls != 1 {
		t.Fatalf("one click should fetch the forecast once, got %d", fc.calls)
	}

	resp, _ = do(t, app, http.MethodPost, events+"?chart=gif", map[string]any{"type": "selection_changed", "selection": []string{"Precipitation (mm)"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown chart format, got %d", resp.StatusCode)
	}
	_, body = do(t, app, http.MethodGet, "/api/v1/sessions/"+sess.ID, nil)
	if err := json.Unmarshal(body, &sess); err != nil || len(sess.State.Selection) != 1 || sess.State.Selection[0] != "Temperature (°C)" {
		t.Fatalf("a rejected event must not change the session: %+v %v", sess.State, err)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/view", nil)
	v = viewResponse{}
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.ChartImage != "" {
		t.Fatalf("chart should only be inlined on request")
	}
}

func TestIndexPage(t *testing.T) {
	app, _ := newTestApp()
	resp, body := do(t, app, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "leaflet") {
		t.Fatalf("expected the dashboard page, got %d", resp.StatusCode)
	}
	page := string(body)
	if !strings.Contains(page, "events?chart=svg") || strings.Contains(page, "/chart?") {
		t.Fatalf("page should take its chart from the event response")
	}
	if strings.Contains(page, "innerHTML") {
		t.Fatalf("page should not write server text through innerHTML")
	}
}
