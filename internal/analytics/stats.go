// Package analytics derives per-exercise statistics, progress series and activity
// counts from a snapshot of exercise log records. All functions are pure: they
// never mutate their input and never fail on well-typed input.
package analytics

import (
	"math"
	"sort"

	"github.com/2beens/liftlog/internal/exercises"
)

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// trendThreshold is the percentage change a trend has to exceed to leave stable.
const trendThreshold = 5.0

type ExerciseSummary struct {
	Name            string             `json:"name"`
	Category        exercises.Category `json:"category"`
	Records         []exercises.Record `json:"logs"`
	MaxWeight       float64            `json:"maxWeight"`
	AvgWeight       float64            `json:"avgWeight"`
	TotalSets       int                `json:"totalSets"`
	LastLog         exercises.Record   `json:"lastLog"`
	Trend           TrendDirection     `json:"trend"`
	TrendPercentage float64            `json:"trendPercentage"`
}

// ExerciseStats groups records by exact exercise name and summarizes each group.
// Summaries are ordered by descending record count; equal counts keep the order in
// which the exercise was first seen. The category of a group is that of its first record.
func ExerciseStats(records []exercises.Record) []ExerciseSummary {
	summaries := make([]ExerciseSummary, 0)
	index := make(map[string]int)

	for _, r := range records {
		i, ok := index[r.ExerciseName]
		if !ok {
			index[r.ExerciseName] = len(summaries)
			summaries = append(summaries, ExerciseSummary{
				Name:      r.ExerciseName,
				Category:  r.Category,
				Records:   []exercises.Record{r},
				MaxWeight: r.Weight,
				TotalSets: r.SetCount(),
				LastLog:   r,
			})
			continue
		}

		s := &summaries[i]
		s.Records = append(s.Records, r)
		s.MaxWeight = math.Max(s.MaxWeight, r.Weight)
		s.TotalSets += r.SetCount()
		// on equal dates the later record in the scan wins
		if !r.Date.Before(s.LastLog.Date) {
			s.LastLog = r
		}
	}

	for i := range summaries {
		s := &summaries[i]
		total := 0.0
		for _, r := range s.Records {
			total += r.Weight
		}
		s.AvgWeight = total / float64(len(s.Records))
		s.Trend, s.TrendPercentage = Trend(s.Records)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return len(summaries[i].Records) > len(summaries[j].Records)
	})

	return summaries
}

// Trend compares the chronologically first and last weight of the records.
// Fewer than two records, or a first weight of zero, yield stable with magnitude 0.
func Trend(records []exercises.Record) (TrendDirection, float64) {
	if len(records) < 2 {
		return TrendStable, 0
	}

	sorted := sortedByDate(records)
	first := sorted[0].Weight
	last := sorted[len(sorted)-1].Weight
	if first == 0 {
		return TrendStable, 0
	}

	pct := (last - first) / first * 100
	switch {
	case pct > trendThreshold:
		return TrendUp, math.Abs(pct)
	case pct < -trendThreshold:
		return TrendDown, math.Abs(pct)
	default:
		return TrendStable, math.Abs(pct)
	}
}

// FilterByCategory keeps summaries of the given category. An empty category keeps all.
func FilterByCategory(summaries []ExerciseSummary, category exercises.Category) []ExerciseSummary {
	if category == "" {
		return summaries
	}

	filtered := make([]ExerciseSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Category == category {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// sortedByDate returns a copy of records in ascending log date order, stable for equal dates.
func sortedByDate(records []exercises.Record) []exercises.Record {
	sorted := make([]exercises.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
