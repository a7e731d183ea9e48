// Package timing summarizes repeated wall-clock measurements.
package timing

import (
	"slices"
	"time"
)

// Summary describes the measured (non-warmup) runs of one target.
type Summary struct {
	Count  int           `json:"count" yaml:"count"`
	Warmup int           `json:"warmup" yaml:"warmup"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Median time.Duration `json:"median" yaml:"median"`
	Total  time.Duration `json:"total" yaml:"total"`
}

// Summarize computes a summary of durations. warmup is the number of
// discarded runs and is carried through for reporting.
func Summarize(durations []time.Duration, warmup int) Summary {
	s := Summary{Count: len(durations), Warmup: warmup}
	if len(durations) == 0 {
		return s
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	for _, d := range sorted {
		s.Total += d
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = s.Total / time.Duration(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.Median = sorted[mid]
	} else {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return s
}
