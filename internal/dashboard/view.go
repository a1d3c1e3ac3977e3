package dashboard

import (
	"time"

	"github.com/2beens/liftlog/internal/analytics"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/insights"
)

// View is the derived dashboard of one owner, computed from a single record snapshot.
type View struct {
	Owner        string                      `json:"owner"`
	ComputedAt   time.Time                   `json:"computedAt"`
	Category     exercises.Category          `json:"category,omitempty"`
	Exercises    []analytics.ExerciseSummary `json:"exercises"`
	Series       []analytics.WeightPoint     `json:"series"`
	RecentCount  int                         `json:"recentCount"`
	Progress     float64                     `json:"progressPercentage"`
	Categories   []analytics.CategoryCount   `json:"categories"`
	Profile      insights.Profile            `json:"profile"`
	Achievements []insights.Achievement      `json:"achievements"`
}

func Compute(owner string, records []exercises.Record, now time.Time) View {
	profile := insights.Compute(records, now)
	return View{
		Owner:        owner,
		ComputedAt:   now,
		Exercises:    analytics.ExerciseStats(records),
		Series:       analytics.WeightSeries(records, now.Location()),
		RecentCount:  analytics.RecentCount(records, now),
		Progress:     analytics.ProgressPercentage(records),
		Categories:   analytics.CategoryBreakdown(records),
		Profile:      profile,
		Achievements: insights.Achievements(profile),
	}
}

// ForCategory narrows the exercise summaries to one category. Everything else stays
// computed over all records. An empty category returns the view unchanged.
func (v View) ForCategory(category exercises.Category) View {
	if category == "" {
		return v
	}
	v.Category = category
	v.Exercises = analytics.FilterByCategory(v.Exercises, category)
	return v
}
