package exercises

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=exercises_test

type recordsRepo interface {
	Add(ctx context.Context, record Record) (*Record, error)
	Delete(ctx context.Context, owner, id string) error
	ListAll(ctx context.Context, owner string) ([]Record, error)
}

// snapshotPublisher receives the full record set of an owner after every change.
type snapshotPublisher interface {
	Publish(ctx context.Context, owner string, records []Record)
}

// Service is the log store: it owns record creation and deletion, and pushes the
// owner's complete, newest-first snapshot to the publisher after each change.
type Service struct {
	repo      recordsRepo
	publisher snapshotPublisher
	metrics   *metrics.Manager
	now       func() time.Time
}

func NewService(
	repo recordsRepo,
	publisher snapshotPublisher,
	metricsManager *metrics.Manager,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metricsManager,
		now:       now,
	}
}

func (s *Service) Create(ctx context.Context, owner string, params NewRecordParams) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.exercises.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidIdentity
	}

	now := s.now()
	if err := params.Validate(now); err != nil {
		return nil, err
	}

	added, err := s.repo.Add(ctx, params.toRecord(owner, now))
	if err != nil {
		return nil, fmt.Errorf("add record: %w", err)
	}
	span.SetAttributes(attribute.String("record.id", added.ID))
	s.metrics.CounterRecordsCreated.Inc()

	s.publish(ctx, owner)

	return added, nil
}

func (s *Service) Delete(ctx context.Context, owner, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owner = strings.TrimSpace(owner)
	if owner == "" {
		return ErrInvalidIdentity
	}
	if id == "" {
		return ErrRecordNotFound
	}

	if err := s.repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	s.metrics.CounterRecordsDeleted.Inc()

	s.publish(ctx, owner)

	return nil
}

// Snapshot returns all records of the owner, newest first. An empty owner yields an empty set.
func (s *Service) Snapshot(ctx context.Context, owner string) ([]Record, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return []Record{}, nil
	}
	return s.repo.ListAll(ctx, owner)
}

func (s *Service) publish(ctx context.Context, owner string) {
	if s.publisher == nil {
		return
	}

	records, err := s.repo.ListAll(ctx, owner)
	if err != nil {
		// the change itself succeeded, subscribers catch up on the next one
		log.Errorf("list records for snapshot [%s]: %s", owner, err)
		return
	}

	s.publisher.Publish(ctx, owner, records)
}
