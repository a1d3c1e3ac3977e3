// Package insights computes profile-level summaries over an owner's exercise log:
// streaks, favorites, weekly frequency and achievements.
package insights

import (
	"math"
	"time"

	"github.com/2beens/liftlog/internal/analytics"
	"github.com/2beens/liftlog/internal/exercises"
)

type TopExercise struct {
	Name     string             `json:"name"`
	Category exercises.Category `json:"category"`
	Count    int                `json:"count"`
}

type Profile struct {
	TotalWorkouts      int                 `json:"totalWorkouts"`
	UniqueExercises    int                 `json:"uniqueExercises"`
	FavoriteCategory   *exercises.Category `json:"favoriteCategory"`
	CurrentStreak      int                 `json:"currentStreak"`
	MaxWeight          float64             `json:"maxWeight"`
	AvgWorkoutsPerWeek float64             `json:"avgWorkoutsPerWeek"`
	FirstWorkoutDate   *time.Time          `json:"firstWorkoutDate"`
	LastWorkoutDate    *time.Time          `json:"lastWorkoutDate"`
	TopExercise        *TopExercise        `json:"topExercise"`
}

// Compute builds the profile of the given records. Calendar days are taken in now's location.
// No records yield the zero profile with nil favorites and dates.
func Compute(records []exercises.Record, now time.Time) Profile {
	if len(records) == 0 {
		return Profile{}
	}

	profile := Profile{
		TotalWorkouts:      len(records),
		FavoriteCategory:   favoriteCategory(records),
		TopExercise:        topExercise(records),
		CurrentStreak:      CurrentStreak(records, now),
		AvgWorkoutsPerWeek: AvgWorkoutsPerWeek(records, now),
		MaxWeight:          math.Inf(-1),
	}

	names := make(map[string]struct{})
	first, last := records[0].Date, records[0].Date
	for _, r := range records {
		names[r.ExerciseName] = struct{}{}
		profile.MaxWeight = math.Max(profile.MaxWeight, r.Weight)
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	profile.UniqueExercises = len(names)
	profile.FirstWorkoutDate = &first
	profile.LastWorkoutDate = &last

	return profile
}

// CurrentStreak counts consecutive calendar days with at least one record, walking
// back from today. A missing today does not end the streak, any later gap does.
func CurrentStreak(records []exercises.Record, now time.Time) int {
	days := workoutDays(records, now.Location())
	if len(days) == 0 {
		return 0
	}

	today := analytics.StartOfDay(now, now.Location())
	streak := 0
	for i := 0; ; i++ {
		key := analytics.DateKey(today.AddDate(0, 0, -i), now.Location())
		if _, ok := days[key]; ok {
			streak++
			continue
		}
		if i > 0 {
			break
		}
	}
	return streak
}

// AvgWorkoutsPerWeek relates distinct workout days to the whole days passed since
// the first workout, at least one.
func AvgWorkoutsPerWeek(records []exercises.Record, now time.Time) float64 {
	if len(records) == 0 {
		return 0
	}

	first := records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
	}

	daysSinceFirst := int(math.Floor(now.Sub(first).Hours() / 24))
	if daysSinceFirst < 1 {
		daysSinceFirst = 1
	}

	distinctDays := len(workoutDays(records, now.Location()))
	return float64(distinctDays) / float64(daysSinceFirst) * 7
}

func workoutDays(records []exercises.Record, loc *time.Location) map[string]struct{} {
	days := make(map[string]struct{}, len(records))
	for _, r := range records {
		days[analytics.DateKey(r.Date, loc)] = struct{}{}
	}
	return days
}

// favoriteCategory is the most logged category; on equal counts the first seen wins.
func favoriteCategory(records []exercises.Record) *exercises.Category {
	breakdown := analytics.CategoryBreakdown(records)
	if len(breakdown) == 0 {
		return nil
	}
	favorite := breakdown[0].Category
	return &favorite
}

// topExercise is the most logged exercise name; on equal counts the first seen wins.
func topExercise(records []exercises.Record) *TopExercise {
	var (
		top    *TopExercise
		order  []string
		counts = make(map[string]*TopExercise)
	)
	for _, r := range records {
		e, ok := counts[r.ExerciseName]
		if !ok {
			e = &TopExercise{Name: r.ExerciseName, Category: r.Category}
			counts[r.ExerciseName] = e
			order = append(order, r.ExerciseName)
		}
		e.Count++
	}

	for _, name := range order {
		if top == nil || counts[name].Count > top.Count {
			top = counts[name]
		}
	}
	return top
}
