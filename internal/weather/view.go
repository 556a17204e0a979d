package weather

// Phase is where a render pass stopped.
type Phase string

const (
	PhaseNoLocation       Phase = "no_location"
	PhaseLocationResolved Phase = "location_resolved"
	PhaseNoSelection      Phase = "no_selection"
	PhaseDataFetched      Phase = "data_fetched"
	PhaseDataEmpty        Phase = "data_empty"
)

// NoticeLevel mirrors the success/info/warning banners of the page.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// View is everything one render pass produces for the page.
type View struct {
	Phase      Phase         `json:"phase"`
	State      State         `json:"state"`
	Location   *Place        `json:"location,omitempty"`
	Selection  []Variable    `json:"selection"`
	Notices    []Notice      `json:"notices"`
	ChartTitle string        `json:"chartTitle,omitempty"`
	Rows       []LongRow     `json:"rows,omitempty"`
	Table      *Table        `json:"table,omitempty"`
	Summary    []Summary     `json:"summary,omitempty"`
	Missing    []VariableKey `json:"missing,omitempty"`
}

// HasData reports whether the view carries chartable rows.
func (v View) HasData() bool {
	return v.Phase == PhaseDataFetched && len(v.Rows) > 0
}

func (v *View) notify(level NoticeLevel, text string) {
	v.Notices = append(v.Notices, Notice{Level: level, Text: text})
}
