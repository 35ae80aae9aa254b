package batch

import (
	"sort"
)

// Summary is the run-level statistics view. Percentiles cover successful
// rows' durations only; failed-row timings would skew them toward the
// timeout ceiling.
type Summary struct {
	ModelName        string
	RowsTotal        int
	RowsFailed       int
	Workers          int
	Retries          int
	TotalSeconds     float64
	AvgSeconds       float64
	P50Seconds       float64
	P90Seconds       float64
	P95Seconds       float64
	ThroughputPerMin float64
	Incomplete       bool
}

// Summarize partitions results into the summary view. totalSeconds is the
// whole run's wall clock; complete comes from the scheduler.
func Summarize(results []Result, modelName string, workers, retries int, totalSeconds float64, complete bool) Summary {
	s := Summary{
		ModelName:    modelName,
		RowsTotal:    len(results),
		Workers:      workers,
		Retries:      retries,
		TotalSeconds: totalSeconds,
		Incomplete:   !complete,
	}

	var okSeconds []float64
	for _, r := range results {
		if r.OK() {
			okSeconds = append(okSeconds, r.Seconds)
		} else {
			s.RowsFailed++
		}
	}
	if len(okSeconds) > 0 {
		sum := 0.0
		for _, v := range okSeconds {
			sum += v
		}
		s.AvgSeconds = sum / float64(len(okSeconds))
		sort.Float64s(okSeconds)
		s.P50Seconds = quantile(okSeconds, 0.50)
		s.P90Seconds = quantile(okSeconds, 0.90)
		s.P95Seconds = quantile(okSeconds, 0.95)
	}
	if totalSeconds > 0 {
		s.ThroughputPerMin = float64(len(results)) / totalSeconds * 60
	}
	return s
}

// quantile is the linearly interpolated q-quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
