package insights

const (
	gettingStartedWorkouts   = 10
	dedicatedTrainerWorkouts = 50
	onFireStreakDays         = 7
)

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// Achievements evaluates every achievement against the profile. Nothing is persisted,
// an achievement is unlocked exactly while its condition holds.
func Achievements(profile Profile) []Achievement {
	return []Achievement{
		{
			ID:          "getting-started",
			Title:       "Getting Started",
			Description: "Logged 10 workouts",
			Unlocked:    profile.TotalWorkouts >= gettingStartedWorkouts,
		},
		{
			ID:          "dedicated-trainer",
			Title:       "Dedicated Trainer",
			Description: "Logged 50 workouts",
			Unlocked:    profile.TotalWorkouts >= dedicatedTrainerWorkouts,
		},
		{
			ID:          "on-fire",
			Title:       "On Fire",
			Description: "7 day streak",
			Unlocked:    profile.CurrentStreak >= onFireStreakDays,
		},
	}
}

// Unlocked filters the achievements down to those currently unlocked.
func Unlocked(achievements []Achievement) []Achievement {
	unlocked := make([]Achievement, 0, len(achievements))
	for _, a := range achievements {
		if a.Unlocked {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}
