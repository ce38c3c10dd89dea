package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mfms/mess-api/internal/models"
)

// MessRepository handles persistence for messes and their meal timings.
type MessRepository struct {
	db *sqlx.DB
}

// NewMessRepository constructs the repository.
func NewMessRepository(db *sqlx.DB) *MessRepository {
	return &MessRepository{db: db}
}

// Create inserts a new mess.
func (r *MessRepository) Create(ctx context.Context, mess *models.Mess) error {
	if mess.ID == "" {
		mess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mess.CreatedAt.IsZero() {
		mess.CreatedAt = now
	}
	mess.UpdatedAt = now

	const query = `INSERT INTO messes (id, name, mess_code, manager_id, location, meal_timings, created_at, updated_at)
VALUES (:id, :name, :mess_code, :manager_id, :location, :meal_timings, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mess); err != nil {
		return fmt.Errorf("create mess: %w", err)
	}
	return nil
}

// FindByID returns a mess by identifier.
func (r *MessRepository) FindByID(ctx context.Context, id string) (*models.Mess, error) {
	const query = `SELECT id, name, mess_code, manager_id, location, meal_timings, created_at, updated_at FROM messes WHERE id = $1 LIMIT 1`
	var mess models.Mess
	if err := r.db.GetContext(ctx, &mess, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mess by id: %w", err)
	}
	return &mess, nil
}

// FindByCode returns a mess by its join code.
func (r *MessRepository) FindByCode(ctx context.Context, code string) (*models.Mess, error) {
	const query = `SELECT id, name, mess_code, manager_id, location, meal_timings, created_at, updated_at FROM messes WHERE mess_code = $1 LIMIT 1`
	var mess models.Mess
	if err := r.db.GetContext(ctx, &mess, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mess by code: %w", err)
	}
	return &mess, nil
}

// GetTimings returns only the meal_timings column for a mess.
func (r *MessRepository) GetTimings(ctx context.Context, messID string) (models.MealTimings, error) {
	const query = `SELECT meal_timings FROM messes WHERE id = $1 LIMIT 1`
	var timings models.MealTimings
	if err := r.db.GetContext(ctx, &timings, query, messID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get meal timings: %w", err)
	}
	return timings, nil
}

// UpdateTimings replaces the meal_timings document wholesale.
func (r *MessRepository) UpdateTimings(ctx context.Context, messID string, timings models.MealTimings) error {
	const query = `UPDATE messes SET meal_timings = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, messID, timings, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update meal timings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
