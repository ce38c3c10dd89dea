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

// MenuRepository handles persistence for daily overrides and weekly templates.
type MenuRepository struct {
	db *sqlx.DB
}

// NewMenuRepository constructs the repository.
func NewMenuRepository(db *sqlx.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// UpsertDaily stores the menu for one date, replacing any previous one.
func (r *MenuRepository) UpsertDaily(ctx context.Context, menu *models.DailyMenu) (*models.DailyMenu, error) {
	now := time.Now().UTC()
	if menu.ID == "" {
		menu.ID = uuid.NewString()
	}
	if menu.CreatedAt.IsZero() {
		menu.CreatedAt = now
	}
	menu.UpdatedAt = now
	const query = `INSERT INTO daily_menus (id, mess_id, date, items, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (mess_id, date)
DO UPDATE SET items = EXCLUDED.items, updated_at = EXCLUDED.updated_at
RETURNING id, mess_id, date, items, created_at, updated_at`
	var stored models.DailyMenu
	if err := r.db.GetContext(ctx, &stored, query, menu.ID, menu.MessID, menu.Date, menu.Items, menu.CreatedAt, menu.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert daily menu: %w", err)
	}
	return &stored, nil
}

// FindDaily returns the override for a mess and date, if any.
func (r *MenuRepository) FindDaily(ctx context.Context, messID string, date time.Time) (*models.DailyMenu, error) {
	const query = `SELECT id, mess_id, date, items, created_at, updated_at FROM daily_menus WHERE mess_id = $1 AND date = $2 LIMIT 1`
	var menu models.DailyMenu
	if err := r.db.GetContext(ctx, &menu, query, messID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find daily menu: %w", err)
	}
	return &menu, nil
}

// UpsertWeekly replaces the weekly template for a mess.
func (r *MenuRepository) UpsertWeekly(ctx context.Context, menu *models.WeeklyMenu) (*models.WeeklyMenu, error) {
	now := time.Now().UTC()
	if menu.ID == "" {
		menu.ID = uuid.NewString()
	}
	if menu.CreatedAt.IsZero() {
		menu.CreatedAt = now
	}
	menu.UpdatedAt = now
	const query = `INSERT INTO weekly_menus (id, mess_id, days, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (mess_id)
DO UPDATE SET days = EXCLUDED.days, updated_at = EXCLUDED.updated_at
RETURNING id, mess_id, days, created_at, updated_at`
	var stored models.WeeklyMenu
	if err := r.db.GetContext(ctx, &stored, query, menu.ID, menu.MessID, menu.Days, menu.CreatedAt, menu.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert weekly menu: %w", err)
	}
	return &stored, nil
}

// FindWeekly returns the weekly template for a mess, if any.
func (r *MenuRepository) FindWeekly(ctx context.Context, messID string) (*models.WeeklyMenu, error) {
	const query = `SELECT id, mess_id, days, created_at, updated_at FROM weekly_menus WHERE mess_id = $1 LIMIT 1`
	var menu models.WeeklyMenu
	if err := r.db.GetContext(ctx, &menu, query, messID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find weekly menu: %w", err)
	}
	return &menu, nil
}
