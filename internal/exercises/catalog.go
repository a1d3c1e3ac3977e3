package exercises

import "strings"

type CatalogEntry struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	ImageURL string   `json:"imageUrl"`
}

// predefined exercises offered when logging; the category assignments are kept as users know them
var catalog = []CatalogEntry{
	{Name: "Pully Push Down", Category: CategoryTriceps, ImageURL: "https://fitliferegime.com/wp-content/uploads/2023/01/Triceps-Pushdown.jpg"},
	{Name: "Overhead Dumbbell", Category: CategoryShoulder, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2024/09/Fit-and-muscular-man-performing-a-incline-dumbbell-press-for-his-dumbell-chest-and-shoulder-workout.jpg?quality=86&strip=all"},
	{Name: "Barbell Curl", Category: CategoryBack, ImageURL: "https://cdn.prod.website-files.com/5fe33d036237252135e3e74d/6259c9b471bafda9fad96b33_barbell%20curl%20exercise%20by%20cult.fit.jpg"},
	{Name: "Pull Ups", Category: CategoryBack, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2019/06/Man-Pullup-Park-Blue-Skies.jpg?quality=86&strip=all"},
	{Name: "Overhead Press", Category: CategoryShoulder, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/military-overhead-press.jpg"},
	{Name: "Inclined Bar Press", Category: CategoryChest, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2019/12/Incline-Barbell-Bench-Press.jpg?quality=86&strip=all"},
	{Name: "Deadlift", Category: CategoryLegs, ImageURL: "https://images.unsplash.com/photo-1549060279-7e168fcee0c2?w=400&h=400&fit=crop&q=80"},
	{Name: "Lats Pull Down", Category: CategoryBack, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2024/06/A-strong-male-working-out-his-back-muscles-with-lat-pulldown-variations.jpg?quality=86&strip=all"},
	{Name: "Wide Grip Rowing", Category: CategoryBack, ImageURL: "https://i.ytimg.com/vi/YKAeU55CkVk/maxresdefault.jpg"},
	{Name: "Close Grip Lats Pull Down", Category: CategoryBack, ImageURL: "https://www.puregym.com/media/5jqls0nn/close-grip-lat-pulldown.jpg?quality=80"},
	{Name: "Overhead Rope Extension", Category: CategoryTriceps, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/overhead-rope-tricep-extension.jpg"},
	{Name: "Chest Supported Dumbbell Row", Category: CategoryBack, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/chest-supported-dumbbell-row-1.jpg"},
	{Name: "Bench Press", Category: CategoryChest, ImageURL: "https://images.ctfassets.net/8urtyqugdt2l/4wPk3KafRwgpwIcJzb0VRX/4894054c6182c62c1d850628935a4b0b/desktop-best-chest-exercises.jpg"},
	{Name: "Dumbbell Flyes", Category: CategoryChest, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/dumbbell-fly.jpg"},
	{Name: "Cable Crossover", Category: CategoryChest, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/cable-iron-cross-1.jpg"},
	{Name: "Tricep Dips", Category: CategoryTriceps, ImageURL: "https://hips.hearstapps.com/hmg-prod/images/gym-bench-and-man-with-dips-workout-for-body-royalty-free-image-1720005714.jpg?resize=980:*"},
	{Name: "Skull Crushers", Category: CategoryTriceps, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/ez-bar-skullcrusher_0.jpg"},
	{Name: "Lateral Raises", Category: CategoryShoulder, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2019/06/Jeremy-Buendia-Lateral-Dumbbell-Raise.jpg?quality=86&strip=all"},
	{Name: "Front Raises", Category: CategoryShoulder, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2025/03/Young-fit-man-performing-a-dumbbell-front-raise-exercise-for-his-shoulder-workout.jpg?quality=86&strip=all"},
	{Name: "Squats", Category: CategoryLegs, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/squat-variations-feature.jpg"},
	{Name: "Leg Press", Category: CategoryLegs, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2018/04/1109-machine-leg-press.jpg?quality=86&strip=all"},
	{Name: "Leg Curl", Category: CategoryLegs, ImageURL: "https://i0.wp.com/www.muscleandfitness.com/wp-content/uploads/2015/02/big-wheels-rate-my-workout-promo.jpg?quality=86&strip=all"},
	{Name: "Leg Extension", Category: CategoryLegs, ImageURL: "https://cdn.muscleandstrength.com/sites/default/files/leg-extension.jpg"},
}

func Catalog() []CatalogEntry {
	return append([]CatalogEntry(nil), catalog...)
}

// SearchCatalog returns catalog entries whose name contains query (case-insensitive),
// restricted to category unless it is empty. Catalog order is kept.
func SearchCatalog(query string, category Category) []CatalogEntry {
	query = strings.ToLower(strings.TrimSpace(query))

	found := make([]CatalogEntry, 0, len(catalog))
	for _, entry := range catalog {
		if category != "" && entry.Category != category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(entry.Name), query) {
			continue
		}
		found = append(found, entry)
	}
	return found
}
