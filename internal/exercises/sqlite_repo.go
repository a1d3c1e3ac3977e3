package exercises

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type exerciseLogRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Owner        string    `gorm:"not null;index:ix_exercise_log_owner_date,priority:1"`
	ExerciseName string    `gorm:"not null"`
	Category     string    `gorm:"not null"`
	Weight       float64   `gorm:"not null"`
	Reps         *int
	Sets         *int
	Notes        string    `gorm:"not null;default:''"`
	LogDate      time.Time `gorm:"not null;index:ix_exercise_log_owner_date,priority:2"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (exerciseLogRow) TableName() string {
	return "exercise_log"
}

func (row exerciseLogRow) toRecord() Record {
	return Record{
		ID:           row.ID,
		Owner:        row.Owner,
		ExerciseName: row.ExerciseName,
		Category:     Category(row.Category),
		Weight:       row.Weight,
		Reps:         row.Reps,
		Sets:         row.Sets,
		Notes:        row.Notes,
		Date:         row.LogDate,
		CreatedAt:    row.CreatedAt,
	}
}

// SQLiteRepo is the single-node record store, used when storage is set to sqlite.
type SQLiteRepo struct {
	database *gorm.DB
}

func NewSQLiteRepo(database *gorm.DB) (*SQLiteRepo, error) {
	if err := database.AutoMigrate(&exerciseLogRow{}); err != nil {
		return nil, fmt.Errorf("migrate exercise_log: %w", err)
	}
	return &SQLiteRepo{database: database}, nil
}

func (r *SQLiteRepo) Add(ctx context.Context, record Record) (*Record, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	row := exerciseLogRow{
		ID:           record.ID,
		Owner:        record.Owner,
		ExerciseName: record.ExerciseName,
		Category:     string(record.Category),
		Weight:       record.Weight,
		Reps:         record.Reps,
		Sets:         record.Sets,
		Notes:        record.Notes,
		LogDate:      record.Date,
		CreatedAt:    record.CreatedAt,
	}
	if err := r.database.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return &record, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, owner, id string) error {
	result := r.database.WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		Delete(&exerciseLogRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *SQLiteRepo) ListAll(ctx context.Context, owner string) ([]Record, error) {
	rows := make([]exerciseLogRow, 0)
	if err := r.database.WithContext(ctx).
		Where("owner = ?", owner).
		Order("log_date DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}
