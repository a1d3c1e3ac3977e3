package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

// AccountsRepo keeps accounts in postgres.
type AccountsRepo struct {
	db *pgxpool.Pool
}

func NewAccountsRepo(db *pgxpool.Pool) *AccountsRepo {
	return &AccountsRepo{db: db}
}

func (r *AccountsRepo) Add(ctx context.Context, email, passwordHash string, createdAt time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO account (email, password_hash, created_at) VALUES ($1, $2, $3);`,
		email, passwordHash, createdAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountsRepo) PasswordHash(ctx context.Context, email string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.accounts.password_hash")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var hash string
	err = r.db.QueryRow(ctx, `SELECT password_hash FROM account WHERE email = $1`, email).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

type accountRow struct {
	Email        string    `gorm:"primaryKey"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (accountRow) TableName() string {
	return "account"
}

// SQLiteAccounts keeps accounts in the local sqlite database.
type SQLiteAccounts struct {
	database *gorm.DB
}

func NewSQLiteAccounts(database *gorm.DB) (*SQLiteAccounts, error) {
	if err := database.AutoMigrate(&accountRow{}); err != nil {
		return nil, fmt.Errorf("migrate account: %w", err)
	}
	return &SQLiteAccounts{database: database}, nil
}

func (r *SQLiteAccounts) Add(ctx context.Context, email, passwordHash string, createdAt time.Time) error {
	return r.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&accountRow{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAccountExists
		}
		return tx.Create(&accountRow{
			Email:        email,
			PasswordHash: passwordHash,
			CreatedAt:    createdAt,
		}).Error
	})
}

func (r *SQLiteAccounts) PasswordHash(ctx context.Context, email string) (string, error) {
	row := accountRow{}
	result := r.database.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&row)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrAccountNotFound
	}
	return row.PasswordHash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
