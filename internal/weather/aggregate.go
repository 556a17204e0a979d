package weather

import "math"

// Summary holds simple statistics of one variable over the series.
type Summary struct {
	Variable VariableKey `json:"variable"`
	Min      float64     `json:"min"`
	Max      float64     `json:"max"`
	Mean     float64     `json:"mean"`
	Count    int         `json:"count"`
	Missing  int         `json:"missing"`
}

// Summarize computes a Summary for every requested key present in the
// series, in the order of keys. Missing hours are counted but not averaged.
func Summarize(series ForecastSeries, keys []VariableKey) []Summary {
	out := make([]Summary, 0, len(keys))

	for _, k := range keys {
		readings, ok := series.Values[k]
		if !ok {
			continue
		}

		sum := Summary{Variable: k, Min: math.Inf(1), Max: math.Inf(-1)}
		var total float64
		for _, r := range readings {
			if r.Missing {
				sum.Missing++
				continue
			}
			sum.Count++
			total += r.Value
			sum.Min = math.Min(sum.Min, r.Value)
			sum.Max = math.Max(sum.Max, r.Value)
		}

		if sum.Count == 0 {
			// No real values; keep the struct JSON-safe.
			sum.Min, sum.Max = 0, 0
		} else {
			sum.Mean = total / float64(sum.Count)
		}
		out = append(out, sum)
	}

	return out
}
