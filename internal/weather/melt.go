package weather

// TableLimit is the number of timestamps shown in the raw data table.
const TableLimit = 24

// Flatten melts series into long form: one row per timestamp and per key
// present in the series. Rows are ordered by time, then by the order of keys.
func Flatten(series ForecastSeries, keys []VariableKey) []LongRow {
	present := make([]VariableKey, 0, len(keys))
	seen := make(map[VariableKey]bool, len(keys))
	for _, k := range keys {
		if seen[k] || !series.Has(k) {
			continue
		}
		seen[k] = true
		present = append(present, k)
	}

	rows := make([]LongRow, 0, len(series.Time)*len(present))
	for i, ts := range series.Time {
		for _, k := range present {
			r := series.Values[k][i]
			rows = append(rows, LongRow{
				Time:     ts,
				Variable: k,
				Value:    r.Value,
				Missing:  r.Missing,
			})
		}
	}
	return rows
}

// Table is the raw data view: one row per timestamp, one column per variable.
type Table struct {
	Columns []VariableKey `json:"columns"`
	Rows    []TableRow    `json:"rows"`
}

// TableRow is one timestamp of the raw data view. Cells align with
// Table.Columns.
type TableRow struct {
	Time  string    `json:"time"`
	Cells []Reading `json:"cells"`
}

// BuildTable returns the first limit timestamps of series in time order for
// the keys present in it. A non-positive limit means TableLimit.
func BuildTable(series ForecastSeries, keys []VariableKey, limit int) Table {
	if limit <= 0 {
		limit = TableLimit
	}

	var cols []VariableKey
	for _, k := range keys {
		if series.Has(k) {
			cols = append(cols, k)
		}
	}

	n := len(series.Time)
	if n > limit {
		n = limit
	}

	t := Table{Columns: cols, Rows: make([]TableRow, 0, n)}
	for i := 0; i < n; i++ {
		row := TableRow{Time: series.Time[i], Cells: make([]Reading, len(cols))}
		for j, k := range cols {
			row.Cells[j] = series.Values[k][i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
