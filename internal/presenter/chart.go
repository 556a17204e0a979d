// Package presenter draws the forecast chart of a render pass.
package presenter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Format is the image encoding of a chart.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg"; empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown chart format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to chart")

// timeLayout is the local-time format of Open-Meteo hourly timestamps.
const timeLayout = "2006-01-02T15:04"

// Series is one plotted line.
type Series struct {
	Variable weather.VariableKey
	Color    string
	Times    []time.Time
	Values   []float64
}

// BuildSeries groups long rows into one series per variable, in order of
// first appearance. Missing readings are skipped.
func BuildSeries(rows []weather.LongRow, catalog weather.Catalog) ([]Series, error) {
	var order []weather.VariableKey
	byKey := make(map[weather.VariableKey]*Series)

	for _, r := range rows {
		s, ok := byKey[r.Variable]
		if !ok {
			s = &Series{Variable: r.Variable, Color: catalog.Color(r.Variable)}
			byKey[r.Variable] = s
			order = append(order, r.Variable)
		}
		if r.Missing {
			continue
		}
		ts, err := time.Parse(timeLayout, r.Time)
		if err != nil {
			// Some deployments return full RFC3339 timestamps.
			ts, err = time.Parse(time.RFC3339, r.Time)
			if err != nil {
				return nil, fmt.Errorf("parsing timestamp %q: %w", r.Time, err)
			}
		}
		s.Times = append(s.Times, ts)
		s.Values = append(s.Values, r.Value)
	}

	out := make([]Series, 0, len(order))
	for _, k := range order {
		if len(byKey[k].Times) == 0 {
			continue
		}
		out = append(out, *byKey[k])
	}
	return out, nil
}

// Render writes a multi-line time series chart of rows to w.
func Render(w io.Writer, title string, rows []weather.LongRow, catalog weather.Catalog, format Format) error {
	series, err := BuildSeries(rows, catalog)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return ErrNoData
	}

	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.Style{Show: true},
		Width:      1024,
		Height:     400,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "time",
			NameStyle:      chart.Style{Show: true},
			Style:          chart.Style{Show: true},
			ValueFormatter: hourFormatter,
		},
		YAxis: chart.YAxis{
			Name:      "value",
			NameStyle: chart.Style{Show: true},
			Style:     chart.Style{Show: true},
		},
	}

	for _, s := range series {
		color := colorFromHex(s.Color)
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name: string(s.Variable),
			Style: chart.Style{
				Show:        true,
				StrokeColor: color,
				StrokeWidth: 2,
			},
			XValues: s.Times,
			YValues: s.Values,
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	// go-chart refuses a zero-width range, which a single hour or a flat
	// line (a dry day of precipitation) would otherwise produce.
	xr, yr := bounds(series)
	if xr.Min == xr.Max {
		graph.XAxis.Range = &chart.ContinuousRange{
			Min: xr.Min - float64(time.Hour),
			Max: xr.Max + float64(time.Hour),
		}
	}
	if yr.Min == yr.Max {
		graph.YAxis.Range = &chart.ContinuousRange{Min: yr.Min - 1, Max: yr.Max + 1}
	}

	if format == FormatSVG {
		return graph.Render(chart.SVG, w)
	}
	return graph.Render(chart.PNG, w)
}

// bounds returns the time range (as unix nanoseconds) and value range
// covered by all series.
func bounds(series []Series) (x, y chart.ContinuousRange) {
	first := true
	for _, s := range series {
		for i, ts := range s.Times {
			tx, vy := float64(ts.UnixNano()), s.Values[i]
			if first {
				x = chart.ContinuousRange{Min: tx, Max: tx}
				y = chart.ContinuousRange{Min: vy, Max: vy}
				first = false
				continue
			}
			x.Min, x.Max = math.Min(x.Min, tx), math.Max(x.Max, tx)
			y.Min, y.Max = math.Min(y.Min, vy), math.Max(y.Max, vy)
		}
	}
	return x, y
}

func hourFormatter(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("01-02 15h")
	case float64:
		return time.Unix(0, int64(t)).UTC().Format("01-02 15h")
	}
	return ""
}

func colorFromHex(hex string) drawing.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		hex = strings.TrimPrefix(weather.DefaultColor, "#")
	}
	return drawing.ColorFromHex(hex)
}
