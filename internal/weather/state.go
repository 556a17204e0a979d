package weather

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the dashboard resolves its location.
type Mode string

const (
	ModeMap  Mode = "map"
	ModeCity Mode = "city"
)

// ParseMode accepts "map" or "city" (case-insensitive). Empty means ModeMap.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMap:
		return ModeMap, nil
	case ModeCity:
		return ModeCity, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

var (
	ErrUnknownEvent    = errors.New("unknown event")
	ErrUnknownVariable = errors.New("unknown variable")
)

// State is the widget state that survives between render passes. It is
// treated as immutable: Apply returns a new value and never mutates its input.
type State struct {
	Mode      Mode        `json:"mode"`
	City      string      `json:"city"`
	LastClick *Coordinate `json:"lastClick,omitempty"`
	Selection []string    `json:"selection"`
}

// NewState returns the state of a freshly opened dashboard.
func NewState(catalog Catalog) State {
	return State{Mode: ModeMap, Selection: catalog.DefaultSelection()}
}

func (s State) clone() State {
	out := s
	if s.LastClick != nil {
		c := *s.LastClick
		out.LastClick = &c
	}
	out.Selection = append([]string(nil), s.Selection...)
	return out
}

// EventType names a user action.
type EventType string

const (
	EventModeChanged      EventType = "mode_changed"
	EventCityChanged      EventType = "city_changed"
	EventMapClicked       EventType = "map_clicked"
	EventSelectionChanged EventType = "selection_changed"
)

// Event is one user interaction. Only the fields relevant to Type are read.
type Event struct {
	Type      EventType   `json:"type"`
	Mode      string      `json:"mode,omitempty"`
	City      string      `json:"city,omitempty"`
	Click     *Coordinate `json:"click,omitempty"`
	Selection []string    `json:"selection,omitempty"`
}

// Apply produces the state that follows ev. Selections are normalised to
// catalog labels in catalog order.
func Apply(catalog Catalog, s State, ev Event) (State, error) {
	next := s.clone()

	switch ev.Type {
	case EventModeChanged:
		m, err := ParseMode(ev.Mode)
		if err != nil {
			return s, err
		}
		next.Mode = m

	case EventCityChanged:
		next.City = strings.TrimSpace(ev.City)

	case EventMapClicked:
		if ev.Click == nil {
			return s, errors.New("map_clicked requires a click coordinate")
		}
		if err := ev.Click.Validate(); err != nil {
			return s, err
		}
		c := *ev.Click
		next.LastClick = &c

	case EventSelectionChanged:
		vars, unknown := catalog.Select(ev.Selection)
		if len(unknown) > 0 {
			return s, fmt.Errorf("%w: %s", ErrUnknownVariable, strings.Join(unknown, ", "))
		}
		next.Selection = make([]string, 0, len(vars))
		for _, v := range vars {
			next.Selection = append(next.Selection, v.Label)
		}

	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}

	return next, nil
}
