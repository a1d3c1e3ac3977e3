package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/analytics"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/insights"
)

// recordsSource provides the full record snapshot of an owner.
type recordsSource interface {
	Snapshot(ctx context.Context, owner string) ([]exercises.Record, error)
}

// analyticsService provides the derived analytics exposed as MCP tools.
// Used by Handler for testability.
type analyticsService interface {
	ExerciseStats(ctx context.Context, owner, category string) ([]analytics.ExerciseSummary, error)
	ProfileInsights(ctx context.Context, owner string) (*ProfileReport, error)
	WeightSeries(ctx context.Context, owner, exerciseName string) ([]analytics.WeightPoint, error)
	SearchCatalog(query, category string) ([]exercises.CatalogEntry, error)
}

// ProfileReport is the profile summary of an owner together with the achievement list.
type ProfileReport struct {
	Profile      insights.Profile       `json:"profile"`
	Achievements []insights.Achievement `json:"achievements"`
}

// AnalyticsService loads owner snapshots and runs the analytics and insight engines over them.
type AnalyticsService struct {
	records recordsSource
	now     func() time.Time
}

func NewAnalyticsService(records recordsSource, now func() time.Time) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		records: records,
		now:     now,
	}
}

func (s *AnalyticsService) snapshot(ctx context.Context, owner string) ([]exercises.Record, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, exercises.ErrInvalidIdentity
	}
	records, err := s.records.Snapshot(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load records of %s: %w", owner, err)
	}
	return records, nil
}

// ExerciseStats returns per-exercise summaries of the owner, optionally limited to one category.
func (s *AnalyticsService) ExerciseStats(ctx context.Context, owner, category string) ([]analytics.ExerciseSummary, error) {
	filter, err := parseOptionalCategory(category)
	if err != nil {
		return nil, err
	}
	records, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return analytics.FilterByCategory(analytics.ExerciseStats(records), filter), nil
}

// ProfileInsights returns the profile summary and achievements of the owner.
func (s *AnalyticsService) ProfileInsights(ctx context.Context, owner string) (*ProfileReport, error) {
	records, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	profile := insights.Compute(records, s.now())
	return &ProfileReport{
		Profile:      profile,
		Achievements: insights.Achievements(profile),
	}, nil
}

// WeightSeries returns the daily average weight series of the owner over the last 30 logged dates.
// A non-empty exerciseName limits the series to that exercise, matched exactly.
func (s *AnalyticsService) WeightSeries(ctx context.Context, owner, exerciseName string) ([]analytics.WeightPoint, error) {
	records, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	if exerciseName != "" {
		filtered := make([]exercises.Record, 0, len(records))
		for _, r := range records {
			if r.ExerciseName == exerciseName {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return analytics.WeightSeries(records, s.now().Location()), nil
}

// SearchCatalog searches the predefined exercise catalog.
func (s *AnalyticsService) SearchCatalog(query, category string) ([]exercises.CatalogEntry, error) {
	filter, err := parseOptionalCategory(category)
	if err != nil {
		return nil, err
	}
	return exercises.SearchCatalog(query, filter), nil
}

func parseOptionalCategory(category string) (exercises.Category, error) {
	if category == "" || strings.EqualFold(category, "all") {
		return "", nil
	}
	return exercises.ParseCategory(category)
}
