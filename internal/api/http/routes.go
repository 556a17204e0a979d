package httpapi

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/presenter"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

//go:embed static/index.html
var indexHTML []byte

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, sessions *store.SessionStore) {
	h := &handlers{service: service, sessions: sessions}

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/variables", h.variables)
	v1.Get("/geocode", h.geocode)
	v1.Get("/forecast", h.forecast)
	v1.Get("/dashboard", h.dashboard)
	v1.Get("/dashboard/chart", h.dashboardChart)

	v1.Post("/sessions", h.createSession)
	v1.Get("/sessions/:id", h.getSession)
	v1.Post("/sessions/:id/events", h.applyEvent)
	v1.Get("/sessions/:id/view", h.sessionView)
	v1.Get("/sessions/:id/chart", h.sessionChart)
}

type handlers struct {
	service  *weather.Service
	sessions *store.SessionStore
}

func (h *handlers) variables(c *fiber.Ctx) error {
	catalog := h.service.Catalog()
	return c.JSON(fiber.Map{
		"variables":        catalog.Entries(),
		"defaultSelection": catalog.DefaultSelection(),
		"defaultColor":     weather.DefaultColor,
	})
}

// geocodeQuery holds query parameters of the geocode endpoint.
type geocodeQuery struct {
	Name string `validate:"required"`
}

func (h *handlers) geocode(c *fiber.Ctx) error {
	q := geocodeQuery{Name: strings.TrimSpace(c.Query("name"))}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter 'name' is required")
	}

	place, err := h.service.Geocode(c.UserContext(), q.Name)
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "location not found")
		}
		return fiber.NewError(fiber.StatusBadGateway, "failed to geocode location")
	}
	return c.JSON(place)
}

// coordinateQuery holds a validated latitude/longitude pair.
type coordinateQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func (q coordinateQuery) toCoordinate() weather.Coordinate {
	return weather.Coordinate{Latitude: q.Lat, Longitude: q.Lon}
}

// parseCoordinate reads lat/lon. ok is false when both are absent.
func parseCoordinate(c *fiber.Ctx) (q coordinateQuery, ok bool, err error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return q, false, nil
	}
	if latStr == "" || lonStr == "" {
		return q, false, errors.New("lat and lon must be given together")
	}

	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, false, errors.New("invalid lat parameter")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, false, errors.New("invalid lon parameter")
	}
	if err := validate.Struct(q); err != nil {
		return q, false, err
	}
	return q, true, nil
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Location  coordinateQuery
	Variables []string `validate:"required,min=1,dive,required"`
}

func (h *handlers) forecast(c *fiber.Ctx) error {
	loc, ok, err := parseCoordinate(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "lat and lon parameters are required")
	}

	q := forecastQuery{Location: loc, Variables: common.SplitCSV(c.Query("variables"))}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter 'variables' is required")
	}

	vars, unknown := h.service.Catalog().Select(q.Variables)
	if len(unknown) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "unknown variables: "+strings.Join(unknown, ", "))
	}

	series, err := h.service.Forecast(c.UserContext(), q.Location.toCoordinate(), weather.Keys(vars))
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch forecast")
	}
	return c.JSON(series)
}

// stateFromQuery builds a widget state from query parameters; a missing
// `variables` parameter means the default selection.
func (h *handlers) stateFromQuery(c *fiber.Ctx) (weather.State, error) {
	catalog := h.service.Catalog()
	st := weather.NewState(catalog)

	mode, err := weather.ParseMode(c.Query("mode"))
	if err != nil {
		return st, err
	}
	st.Mode = mode
	st.City = strings.TrimSpace(c.Query("city"))

	loc, ok, err := parseCoordinate(c)
	if err != nil {
		return st, err
	}
	if ok {
		coord := loc.toCoordinate()
		st.LastClick = &coord
	}

	if c.Context().QueryArgs().Has("variables") {
		vars, unknown := catalog.Select(common.SplitCSV(c.Query("variables")))
		if len(unknown) > 0 {
			return st, fmt.Errorf("unknown variables: %s", strings.Join(unknown, ", "))
		}
		st.Selection = make([]string, 0, len(vars))
		for _, v := range vars {
			st.Selection = append(st.Selection, v.Label)
		}
	}
	return st, nil
}

// viewResponse is a render pass plus, when ?chart=png|svg is given, the
// chart of that same pass as a data URI.
type viewResponse struct {
	weather.View
	ChartImage string `json:"chartImage,omitempty"`
}

// inlineChartFormat reads ?chart. An empty format means no inline chart.
func inlineChartFormat(c *fiber.Ctx) (presenter.Format, error) {
	if c.Query("chart") == "" {
		return "", nil
	}
	f, err := presenter.ParseFormat(c.Query("chart"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return f, nil
}

// renderView runs exactly one render pass for st and writes it as JSON.
func (h *handlers) renderView(c *fiber.Ctx, st weather.State) error {
	format, err := inlineChartFormat(c)
	if err != nil {
		return err
	}

	resp := viewResponse{View: h.service.Render(c.UserContext(), st)}
	if format != "" && resp.HasData() {
		var buf bytes.Buffer
		if err := presenter.Render(&buf, resp.ChartTitle, resp.Rows, h.service.Catalog(), format); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
		}
		resp.ChartImage = "data:" + format.ContentType() + ";base64," +
			base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	return c.JSON(resp)
}

func (h *handlers) dashboard(c *fiber.Ctx) error {
	st, err := h.stateFromQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.renderView(c, st)
}

func (h *handlers) dashboardChart(c *fiber.Ctx) error {
	st, err := h.stateFromQuery(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return h.chart(c, st)
}

func (h *handlers) chart(c *fiber.Ctx, st weather.State) error {
	format, err := presenter.ParseFormat(c.Query("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	view := h.service.Render(c.UserContext(), st)
	if !view.HasData() {
		return fiber.NewError(fiber.StatusNotFound, "no chart data for the current selection")
	}

	var buf bytes.Buffer
	if err := presenter.Render(&buf, view.ChartTitle, view.Rows, h.service.Catalog(), format); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render chart")
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

func (h *handlers) createSession(c *fiber.Ctx) error {
	sess := h.sessions.Create(weather.NewState(h.service.Catalog()))
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (h *handlers) lookupSession(c *fiber.Ctx) (store.Session, error) {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return sess, fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return sess, fiber.NewError(fiber.StatusInternalServerError, "failed to load session")
	}
	return sess, nil
}

func (h *handlers) getSession(c *fiber.Ctx) error {
	sess, err := h.lookupSession(c)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

// eventRequest is the body of POST /sessions/:id/events.
type eventRequest struct {
	Type      string   `json:"type" validate:"required,oneof=mode_changed city_changed map_clicked selection_changed"`
	Mode      string   `json:"mode"`
	City      string   `json:"city"`
	Lat       *float64 `json:"lat" validate:"required_if=Type map_clicked,omitempty,gte=-90,lte=90"`
	Lon       *float64 `json:"lon" validate:"required_if=Type map_clicked,omitempty,gte=-180,lte=180"`
	Selection []string `json:"selection"`
}

func (r eventRequest) toEvent() weather.Event {
	ev := weather.Event{
		Type:      weather.EventType(r.Type),
		Mode:      r.Mode,
		City:      r.City,
		Selection: r.Selection,
	}
	if r.Lat != nil && r.Lon != nil {
		ev.Click = &weather.Coordinate{Latitude: *r.Lat, Longitude: *r.Lon}
	}
	return ev
}

func (h *handlers) applyEvent(c *fiber.Ctx) error {
	sess, err := h.lookupSession(c)
	if err != nil {
		return err
	}

	if _, err := inlineChartFormat(c); err != nil {
		return err
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	next, err := weather.Apply(h.service.Catalog(), sess.State, req.toEvent())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if _, err := h.sessions.Save(sess.ID, next); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return h.renderView(c, next)
}

func (h *handlers) sessionView(c *fiber.Ctx) error {
	sess, err := h.lookupSession(c)
	if err != nil {
		return err
	}
	return h.renderView(c, sess.State)
}

func (h *handlers) sessionChart(c *fiber.Ctx) error {
	sess, err := h.lookupSession(c)
	if err != nil {
		return err
	}
	return h.chart(c, sess.State)
}
