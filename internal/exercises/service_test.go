package exercises_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
)

var fixedNow = time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockrecordsRepo(ctrl)
	publisherMock := NewMocksnapshotPublisher(ctrl)
	metricsManager := metrics.NewTestManager()
	service := exercises.NewService(repoMock, publisherMock, metricsManager, fixedClock)

	ctx := context.Background()
	params := exercises.NewRecordParams{
		ExerciseName: "Bench Press",
		Category:     exercises.CategoryChest,
		Weight:       62.5,
		Reps:         intPtr(8),
	}

	stored := exercises.Record{
		ID:           "c8b2f8f4-0bd0-4f40-9c3c-6f1e1a3f3a11",
		Owner:        "lifter@example.com",
		ExerciseName: "Bench Press",
		Category:     exercises.CategoryChest,
		Weight:       62.5,
		Reps:         intPtr(8),
		Date:         fixedNow,
		CreatedAt:    fixedNow,
	}
	snapshot := []exercises.Record{stored}

	gomock.InOrder(
		repoMock.EXPECT().
			Add(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, r exercises.Record) (*exercises.Record, error) {
				assert.Empty(t, r.ID)
				assert.Equal(t, "lifter@example.com", r.Owner)
				assert.Equal(t, "Bench Press", r.ExerciseName)
				assert.Equal(t, fixedNow, r.Date)
				assert.Equal(t, fixedNow, r.CreatedAt)
				assert.Nil(t, r.Sets)
				assert.Equal(t, "", r.Notes)
				return &stored, nil
			}),
		repoMock.EXPECT().ListAll(ctx, "lifter@example.com").Return(snapshot, nil),
		publisherMock.EXPECT().Publish(ctx, "lifter@example.com", snapshot),
	)

	added, err := service.Create(ctx, " lifter@example.com ", params)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, added.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRecordsCreated))
}

func TestService_Create_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockrecordsRepo(ctrl)
	publisherMock := NewMocksnapshotPublisher(ctrl)
	service := exercises.NewService(repoMock, publisherMock, metrics.NewTestManager(), fixedClock)

	valid := exercises.NewRecordParams{
		ExerciseName: "Squats",
		Category:     exercises.CategoryLegs,
		Weight:       100,
	}

	_, err := service.Create(context.Background(), "", valid)
	assert.ErrorIs(t, err, exercises.ErrInvalidIdentity)

	invalid := valid
	invalid.Weight = -5
	_, err = service.Create(context.Background(), "lifter@example.com", invalid)
	assert.ErrorIs(t, err, exercises.ErrInvalidRecord)
}

func TestService_Create_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockrecordsRepo(ctrl)
	publisherMock := NewMocksnapshotPublisher(ctrl)
	service := exercises.NewService(repoMock, publisherMock, metrics.NewTestManager(), fixedClock)

	repoMock.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk on fire"))

	_, err := service.Create(context.Background(), "lifter@example.com", exercises.NewRecordParams{
		ExerciseName: "Squats",
		Category:     exercises.CategoryLegs,
		Weight:       100,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockrecordsRepo(ctrl)
	publisherMock := NewMocksnapshotPublisher(ctrl)
	metricsManager := metrics.NewTestManager()
	service := exercises.NewService(repoMock, publisherMock, metricsManager, fixedClock)

	ctx := context.Background()

	assert.ErrorIs(t, service.Delete(ctx, "", "some-id"), exercises.ErrInvalidIdentity)
	assert.ErrorIs(t, service.Delete(ctx, "lifter@example.com", ""), exercises.ErrRecordNotFound)

	repoMock.EXPECT().Delete(ctx, "lifter@example.com", "missing").Return(exercises.ErrRecordNotFound)
	assert.ErrorIs(t, service.Delete(ctx, "lifter@example.com", "missing"), exercises.ErrRecordNotFound)

	gomock.InOrder(
		repoMock.EXPECT().Delete(ctx, "lifter@example.com", "id-1").Return(nil),
		repoMock.EXPECT().ListAll(ctx, "lifter@example.com").Return([]exercises.Record{}, nil),
		publisherMock.EXPECT().Publish(ctx, "lifter@example.com", []exercises.Record{}),
	)
	require.NoError(t, service.Delete(ctx, "lifter@example.com", "id-1"))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRecordsDeleted))
}

func TestService_Snapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockrecordsRepo(ctrl)
	service := exercises.NewService(repoMock, nil, metrics.NewTestManager(), fixedClock)

	records, err := service.Snapshot(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, records)

	expected := []exercises.Record{{ID: "a"}, {ID: "b"}}
	repoMock.EXPECT().ListAll(gomock.Any(), "lifter@example.com").Return(expected, nil)
	records, err = service.Snapshot(context.Background(), "lifter@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, records)
}
