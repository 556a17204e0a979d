package weather

// VariableKey is the Open-Meteo identifier of an hourly variable.
type VariableKey string

const (
	Temperature2m      VariableKey = "temperature_2m"
	Precipitation      VariableKey = "precipitation"
	WindSpeed10m       VariableKey = "wind_speed_10m"
	RelativeHumidity2m VariableKey = "relative_humidity_2m"
)

// DefaultColor is used for any variable the catalog does not know about.
const DefaultColor = "#808080"

// Variable is a catalog entry.
type Variable struct {
	Label string      `json:"label"`
	Key   VariableKey `json:"key"`
	Color string      `json:"color"`
}

// Catalog is the fixed, ordered set of variables a user can pick.
type Catalog struct {
	entries []Variable
}

var defaultCatalog = Catalog{entries: []Variable{
	{Label: "Temperature (°C)", Key: Temperature2m, Color: "#FF4B4B"},
	{Label: "Precipitation (mm)", Key: Precipitation, Color: "#1F77B4"},
	{Label: "Wind speed (km/h)", Key: WindSpeed10m, Color: "#2CA02C"},
	{Label: "Relative humidity (%)", Key: RelativeHumidity2m, Color: "#9467BD"},
}}

// DefaultCatalog returns the catalog shipped with the dashboard.
func DefaultCatalog() Catalog {
	return defaultCatalog
}

// Entries returns a copy of the catalog in display order.
func (c Catalog) Entries() []Variable {
	out := make([]Variable, len(c.entries))
	copy(out, c.entries)
	return out
}

// DefaultSelection is the selection a fresh dashboard starts with.
func (c Catalog) DefaultSelection() []string {
	if len(c.entries) == 0 {
		return nil
	}
	return []string{c.entries[0].Label}
}

// ByLabel looks up an entry by its display label.
func (c Catalog) ByLabel(label string) (Variable, bool) {
	for _, v := range c.entries {
		if v.Label == label {
			return v, true
		}
	}
	return Variable{}, false
}

// ByKey looks up an entry by its provider key.
func (c Catalog) ByKey(key VariableKey) (Variable, bool) {
	for _, v := range c.entries {
		if v.Key == key {
			return v, true
		}
	}
	return Variable{}, false
}

// Resolve accepts either a label or a provider key.
func (c Catalog) Resolve(name string) (Variable, bool) {
	if v, ok := c.ByLabel(name); ok {
		return v, true
	}
	return c.ByKey(VariableKey(name))
}

// Color returns the display color for key, falling back to DefaultColor.
func (c Catalog) Color(key VariableKey) string {
	if v, ok := c.ByKey(key); ok {
		return v.Color
	}
	return DefaultColor
}

// Select maps labels to catalog entries in catalog order, dropping
// duplicates. Unknown labels are returned separately.
func (c Catalog) Select(labels []string) (selected []Variable, unknown []string) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		v, ok := c.Resolve(l)
		if !ok {
			unknown = append(unknown, l)
			continue
		}
		want[v.Label] = true
	}
	for _, v := range c.entries {
		if want[v.Label] {
			selected = append(selected, v)
		}
	}
	return selected, unknown
}

// Keys extracts the provider keys of vars, without duplicates.
func Keys(vars []Variable) []VariableKey {
	seen := make(map[VariableKey]bool, len(vars))
	keys := make([]VariableKey, 0, len(vars))
	for _, v := range vars {
		if seen[v.Key] {
			continue
		}
		seen[v.Key] = true
		keys = append(keys, v.Key)
	}
	return keys
}
