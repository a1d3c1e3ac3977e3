package analytics

import (
	"sort"
	"time"

	"github.com/2beens/liftlog/internal/exercises"
)

const (
	seriesMaxDates     = 30
	recentActivityDays = 30
	historyDays        = 14
)

type WeightPoint struct {
	Date      time.Time `json:"date"`
	AvgWeight float64   `json:"avgWeight"`
}

// WeightSeries averages the weight of all records per calendar date in loc and
// returns the most recent 30 dates in ascending order.
func WeightSeries(records []exercises.Record, loc *time.Location) []WeightPoint {
	type bucket struct {
		day   time.Time
		total float64
		count int
	}

	buckets := make(map[string]*bucket)
	for _, r := range records {
		key := DateKey(r.Date, loc)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{day: StartOfDay(r.Date, loc)}
			buckets[key] = b
		}
		b.total += r.Weight
		b.count++
	}

	points := make([]WeightPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, WeightPoint{
			Date:      b.day,
			AvgWeight: b.total / float64(b.count),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	if len(points) > seriesMaxDates {
		points = points[len(points)-seriesMaxDates:]
	}
	return points
}

// RecentCount counts records logged within the trailing 30 days, inclusive of the boundary.
func RecentCount(records []exercises.Record, now time.Time) int {
	since := now.AddDate(0, 0, -recentActivityDays)
	count := 0
	for _, r := range records {
		if !r.Date.Before(since) {
			count++
		}
	}
	return count
}

// ProgressPercentage compares the mean weight of the chronologically second half of
// records with the first half. With an odd count the extra record goes to the second half.
func ProgressPercentage(records []exercises.Record) float64 {
	sorted := sortedByDate(records)
	split := len(sorted) / 2
	first, second := sorted[:split], sorted[split:]
	if len(first) == 0 || len(second) == 0 {
		return 0
	}

	meanFirst := meanWeight(first)
	if meanFirst == 0 {
		return 0
	}
	return (meanWeight(second) - meanFirst) / meanFirst * 100
}

func meanWeight(records []exercises.Record) float64 {
	total := 0.0
	for _, r := range records {
		total += r.Weight
	}
	return total / float64(len(records))
}
