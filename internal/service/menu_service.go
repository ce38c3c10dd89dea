package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type menuRepository interface {
	UpsertDaily(ctx context.Context, menu *models.DailyMenu) (*models.DailyMenu, error)
	FindDaily(ctx context.Context, messID string, date time.Time) (*models.DailyMenu, error)
	UpsertWeekly(ctx context.Context, menu *models.WeeklyMenu) (*models.WeeklyMenu, error)
	FindWeekly(ctx context.Context, messID string) (*models.WeeklyMenu, error)
}

// EffectiveMenu is what the kitchen serves on one date after applying the
// daily override on top of the weekly template.
type EffectiveMenu struct {
	Date   string         `json:"date"`
	Source string         `json:"source"`
	Items  models.MenuSet `json:"items"`
}

// MenuService manages daily overrides and the weekly menu template.
type MenuService struct {
	repo   menuRepository
	logger *zap.Logger
}

// NewMenuService constructs a MenuService.
func NewMenuService(repo menuRepository, logger *zap.Logger) *MenuService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{repo: repo, logger: logger}
}

// SaveDaily stores the menu for a specific date, replacing any earlier one.
func (s *MenuService) SaveDaily(ctx context.Context, manager *models.User, date time.Time, items models.MenuSet) (*models.DailyMenu, error) {
	if manager.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	menu := &models.DailyMenu{MessID: *manager.MessID, Date: date, Items: items}
	stored, err := s.repo.UpsertDaily(ctx, menu)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save daily menu")
	}
	return stored, nil
}

// SaveWeekly replaces the weekly template for the manager's mess.
func (s *MenuService) SaveWeekly(ctx context.Context, manager *models.User, days models.WeekTemplate) (*models.WeeklyMenu, error) {
	if manager.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	if len(days) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "weekly menu payload is empty")
	}
	menu := &models.WeeklyMenu{MessID: *manager.MessID, Days: days}
	stored, err := s.repo.UpsertWeekly(ctx, menu)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save weekly menu")
	}
	return stored, nil
}

// Weekly returns the weekly template, or an empty one when none is stored.
func (s *MenuService) Weekly(ctx context.Context, messID string) (models.WeekTemplate, error) {
	menu, err := s.repo.FindWeekly(ctx, messID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WeekTemplate{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly menu")
	}
	if menu.Days == nil {
		return models.WeekTemplate{}, nil
	}
	return menu.Days, nil
}

// Effective resolves the menu for one date. A daily override wins over the
// weekly template slot for that weekday; with neither, the menu is empty.
func (s *MenuService) Effective(ctx context.Context, messID string, date time.Time) (*EffectiveMenu, error) {
	result := &EffectiveMenu{Date: date.Format("2006-01-02"), Source: "none", Items: models.EmptyMenuSet()}

	daily, err := s.repo.FindDaily(ctx, messID, date)
	if err == nil {
		result.Source = "daily"
		result.Items = daily.Items
		return result, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily menu")
	}

	weekly, err := s.repo.FindWeekly(ctx, messID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly menu")
	}
	if items, ok := weekly.Days[models.WeekdayKey(date)]; ok {
		result.Source = "weekly"
		result.Items = items
	}
	return result, nil
}
