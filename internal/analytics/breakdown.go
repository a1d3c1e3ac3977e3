package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/2beens/liftlog/internal/exercises"
)

type CategoryCount struct {
	Category exercises.Category `json:"category"`
	Count    int                `json:"count"`
}

// CategoryBreakdown counts records per category, most logged first.
func CategoryBreakdown(records []exercises.Record) []CategoryCount {
	counts := make([]CategoryCount, 0)
	index := make(map[exercises.Category]int)
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			index[r.Category] = len(counts)
			counts = append(counts, CategoryCount{Category: r.Category, Count: 1})
			continue
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// PreviousBest is the highest weight ever logged for the exact exercise name,
// or nil when the exercise was never logged.
func PreviousBest(records []exercises.Record, exerciseName string) *float64 {
	var best *float64
	for _, r := range records {
		if r.ExerciseName != exerciseName {
			continue
		}
		if best == nil {
			w := r.Weight
			best = &w
			continue
		}
		*best = math.Max(*best, r.Weight)
	}
	return best
}

type DayLogs struct {
	Date    time.Time          `json:"date"`
	Records []exercises.Record `json:"records"`
}

// RecentHistory groups records logged since local midnight 14 days before now by
// calendar day, newest day first. Records within a day keep their input order.
func RecentHistory(records []exercises.Record, now time.Time) []DayLogs {
	loc := now.Location()
	since := StartOfDay(now, loc).AddDate(0, 0, -historyDays)

	days := make([]DayLogs, 0)
	index := make(map[string]int)
	for _, r := range records {
		if r.Date.Before(since) {
			continue
		}
		key := DateKey(r.Date, loc)
		i, ok := index[key]
		if !ok {
			index[key] = len(days)
			days = append(days, DayLogs{Date: StartOfDay(r.Date, loc)})
			i = len(days) - 1
		}
		days[i].Records = append(days[i].Records, r)
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}
