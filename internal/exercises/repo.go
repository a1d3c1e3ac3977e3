package exercises

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
)

// Repo stores exercise log records in postgres.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, record Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("record.id", record.ID))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO exercise_log
				(id, owner, exercise_name, category, weight, reps, sets, notes, log_date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		record.ID, record.Owner, record.ExerciseName, string(record.Category), record.Weight,
		record.Reps, record.Sets, record.Notes, record.Date, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return &record, nil
}

// Delete removes the record with the given id, but only when it belongs to owner.
func (r *Repo) Delete(ctx context.Context, owner, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("record.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return ErrRecordNotFound
	}

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercise_log WHERE id = $1 AND owner = $2`,
		id, owner,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListAll returns all records of the owner, newest log date first.
func (r *Repo) ListAll(ctx context.Context, owner string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, owner, exercise_name, category, weight, reps, sets, notes, log_date, created_at
			FROM exercise_log
			WHERE owner = $1
			ORDER BY log_date DESC, created_at DESC;`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := r.rows2records(rows)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("records.count", len(records)))

	return records, nil
}

func (r *Repo) rows2records(rows pgx.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		var (
			id           uuid.UUID
			owner        string
			exerciseName string
			category     string
			weight       float64
			reps         *int
			sets         *int
			notes        string
			logDate      time.Time
			createdAt    time.Time
		)
		if err := rows.Scan(&id, &owner, &exerciseName, &category, &weight, &reps, &sets, &notes, &logDate, &createdAt); err != nil {
			return nil, err
		}

		records = append(records, Record{
			ID:           id.String(),
			Owner:        owner,
			ExerciseName: exerciseName,
			Category:     Category(category),
			Weight:       weight,
			Reps:         reps,
			Sets:         sets,
			Notes:        notes,
			Date:         logDate,
			CreatedAt:    createdAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
