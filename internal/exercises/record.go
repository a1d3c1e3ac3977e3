package exercises

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrInvalidIdentity is returned by create/delete when the owner identity is absent.
	ErrInvalidIdentity = errors.New("invalid owner identity")
	ErrRecordNotFound  = errors.New("record not found")
	ErrInvalidRecord   = errors.New("invalid record")
)

type Category string

const (
	CategoryChest    Category = "Chest"
	CategoryBack     Category = "Back"
	CategoryShoulder Category = "Shoulder"
	CategoryTriceps  Category = "Triceps"
	CategoryBiceps   Category = "Biceps"
	CategoryLegs     Category = "Legs"
)

var categories = []Category{
	CategoryChest,
	CategoryBack,
	CategoryShoulder,
	CategoryTriceps,
	CategoryBiceps,
	CategoryLegs,
}

// Categories returns all categories in their canonical order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the known categories, ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, known := range categories {
		if strings.EqualFold(string(known), s) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, s)
}

// Record is one logged exercise entry. Records are never mutated after creation.
type Record struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	ExerciseName string    `json:"exerciseName"`
	Category     Category  `json:"category"`
	Weight       float64   `json:"weight"`
	Reps         *int      `json:"reps,omitempty"`
	Sets         *int      `json:"sets,omitempty"`
	Notes        string    `json:"notes"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SetCount is the number of sets the record stands for; absent or zero means one set.
func (r Record) SetCount() int {
	if r.Sets == nil || *r.Sets <= 0 {
		return 1
	}
	return *r.Sets
}

type NewRecordParams struct {
	ExerciseName string     `json:"exerciseName"`
	Category     Category   `json:"category"`
	Weight       float64    `json:"weight"`
	Reps         *int       `json:"reps,omitempty"`
	Sets         *int       `json:"sets,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
}

// Validate checks the params against the record constraints. The log date, when set,
// must not fall on a calendar day after now.
func (p NewRecordParams) Validate(now time.Time) error {
	if strings.TrimSpace(p.ExerciseName) == "" {
		return fmt.Errorf("%w: exercise name empty", ErrInvalidRecord)
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidRecord, p.Category)
	}
	if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight < 0 {
		return fmt.Errorf("%w: weight must be a non-negative number", ErrInvalidRecord)
	}
	if p.Reps != nil && *p.Reps < 0 {
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidRecord)
	}
	if p.Sets != nil && *p.Sets < 0 {
		return fmt.Errorf("%w: sets must not be negative", ErrInvalidRecord)
	}
	if p.Date != nil {
		y, m, d := now.Date()
		startOfTomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
		if !p.Date.Before(startOfTomorrow) {
			return fmt.Errorf("%w: log date is in the future", ErrInvalidRecord)
		}
	}
	return nil
}

// toRecord builds the record to persist; the store assigns ID.
func (p NewRecordParams) toRecord(owner string, now time.Time) Record {
	date := now
	if p.Date != nil {
		date = *p.Date
	}
	return Record{
		Owner:        owner,
		ExerciseName: p.ExerciseName,
		Category:     p.Category,
		Weight:       p.Weight,
		Reps:         p.Reps,
		Sets:         p.Sets,
		Notes:        p.Notes,
		Date:         date,
		CreatedAt:    now,
	}
}
