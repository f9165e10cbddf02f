package verdicts

import (
	"math"
	"strconv"
)

// Summary aggregates the numeric verdicts of one group.
type Summary struct {
	Key     GroupKey `json:"key"`
	Count   int      `json:"count"`
	Numeric int      `json:"numeric"`
	Mean    float64  `json:"mean"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
}

// Summarize computes per-group statistics. Verdicts that do not parse as a
// number are counted but left out of Mean, Min and Max.
func Summarize(groups []Group) []Summary {
	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		s := Summary{Key: g.Key, Count: len(g.Records), Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for _, r := range g.Records {
			v, err := strconv.ParseFloat(r.Verdict, 64)
			if err != nil {
				continue
			}
			s.Numeric++
			sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		if s.Numeric == 0 {
			s.Min, s.Max = 0, 0
		} else {
			s.Mean = sum / float64(s.Numeric)
		}
		out = append(out, s)
	}
	return out
}
