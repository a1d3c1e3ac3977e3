package exercises_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/liftlog/internal/exercises"
)

func intPtr(i int) *int {
	return &i
}

func TestParseCategory(t *testing.T) {
	c, err := exercises.ParseCategory("chest")
	require.NoError(t, err)
	assert.Equal(t, exercises.CategoryChest, c)

	c, err = exercises.ParseCategory(" Legs ")
	require.NoError(t, err)
	assert.Equal(t, exercises.CategoryLegs, c)

	_, err = exercises.ParseCategory("Cardio")
	assert.True(t, errors.Is(err, exercises.ErrInvalidRecord))

	assert.Len(t, exercises.Categories(), 6)
}

func TestRecord_SetCount(t *testing.T) {
	assert.Equal(t, 1, exercises.Record{}.SetCount())
	assert.Equal(t, 1, exercises.Record{Sets: intPtr(0)}.SetCount())
	assert.Equal(t, 4, exercises.Record{Sets: intPtr(4)}.SetCount())
}

func TestNewRecordParams_Validate(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	laterToday := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	valid := exercises.NewRecordParams{
		ExerciseName: "Bench Press",
		Category:     exercises.CategoryChest,
		Weight:       60,
	}
	require.NoError(t, valid.Validate(now))

	withWeight := func(w float64) exercises.NewRecordParams {
		p := valid
		p.Weight = w
		return p
	}
	withDate := func(d time.Time) exercises.NewRecordParams {
		p := valid
		p.Date = &d
		return p
	}

	assert.NoError(t, withWeight(0).Validate(now))
	assert.NoError(t, withDate(laterToday).Validate(now))

	for name, params := range map[string]exercises.NewRecordParams{
		"empty name":       {Category: exercises.CategoryChest, Weight: 10},
		"blank name":       {ExerciseName: "   ", Category: exercises.CategoryChest, Weight: 10},
		"unknown category": {ExerciseName: "Run", Category: "Cardio", Weight: 10},
		"negative weight":  withWeight(-1),
		"negative reps":    {ExerciseName: "Squats", Category: exercises.CategoryLegs, Reps: intPtr(-2)},
		"negative sets":    {ExerciseName: "Squats", Category: exercises.CategoryLegs, Sets: intPtr(-1)},
		"future date":      withDate(tomorrow),
	} {
		t.Run(name, func(t *testing.T) {
			err := params.Validate(now)
			assert.True(t, errors.Is(err, exercises.ErrInvalidRecord), "got: %v", err)
		})
	}
}

func TestSearchCatalog(t *testing.T) {
	all := exercises.Catalog()
	require.Len(t, all, 23)
	assert.Equal(t, "Pully Push Down", all[0].Name)

	assert.Equal(t, all, exercises.SearchCatalog("", ""))

	legs := exercises.SearchCatalog("", exercises.CategoryLegs)
	require.Len(t, legs, 5)
	for _, e := range legs {
		assert.Equal(t, exercises.CategoryLegs, e.Category)
	}

	pullDowns := exercises.SearchCatalog("pull down", "")
	require.Len(t, pullDowns, 2)
	assert.Equal(t, "Lats Pull Down", pullDowns[0].Name)
	assert.Equal(t, "Close Grip Lats Pull Down", pullDowns[1].Name)

	assert.Empty(t, exercises.SearchCatalog("curl", exercises.CategoryBiceps))
	assert.Empty(t, exercises.SearchCatalog("zumba", ""))
}
