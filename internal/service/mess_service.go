package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/mealclock"
)

type messRepository interface {
	FindByID(ctx context.Context, id string) (*models.Mess, error)
	GetTimings(ctx context.Context, messID string) (models.MealTimings, error)
	UpdateTimings(ctx context.Context, messID string, timings models.MealTimings) error
}

// CanRequestResult is the advisory answer for the pre-flight deadline check.
type CanRequestResult struct {
	Meal        models.MealType `json:"meal"`
	CanRequest  bool            `json:"canRequest"`
	Deadline    string          `json:"deadline,omitempty"`
	CurrentTime string          `json:"currentTime"`
}

// MessService exposes meal timing configuration and deadline queries.
type MessService struct {
	repo     messRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewMessService constructs a MessService.
func NewMessService(repo messRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *MessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &MessService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

func timingsCacheKey(messID string) string {
	return fmt.Sprintf("mess:timings:%s", messID)
}

// Timings returns the meal timing configuration for a mess, reading through
// the cache. A mess with no stored document falls back to the defaults.
func (s *MessService) Timings(ctx context.Context, messID string) (models.MealTimings, error) {
	key := timingsCacheKey(messID)
	var cached models.MealTimings
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	timings, err := s.repo.GetTimings(ctx, messID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mess not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load meal timings")
	}
	if len(timings) == 0 {
		timings = models.DefaultMealTimings()
	}

	if err := s.cache.Set(ctx, key, timings, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache meal timings", zap.String("mess_id", messID), zap.Error(err))
	}
	return timings, nil
}

// UpdateTimings replaces the whole timing document for the manager's mess.
// Values are stored verbatim; the clients own input validation and the lock
// rule treats malformed strings by plain string comparison.
func (s *MessService) UpdateTimings(ctx context.Context, manager *models.User, raw map[string]models.MealWindow) (models.MealTimings, error) {
	if manager.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	if len(raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timings payload is empty")
	}

	mess, err := s.repo.FindByID(ctx, *manager.MessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mess not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mess")
	}
	if mess.ManagerID != manager.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the mess manager can change timings")
	}

	timings := make(models.MealTimings, len(raw))
	for meal, window := range raw {
		timings[models.NormalizeMealType(meal)] = window
	}

	if err := s.repo.UpdateTimings(ctx, mess.ID, timings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mess not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update meal timings")
	}

	if err := s.cache.Invalidate(ctx, timingsCacheKey(mess.ID)); err != nil {
		s.logger.Warn("failed to invalidate timings cache", zap.String("mess_id", mess.ID), zap.Error(err))
	}
	return timings, nil
}

// CanRequest answers the pre-flight question "could I still change this meal
// right now". It is advisory only; the write path re-checks the deadline. A
// meal with no configured window defaults to allowed. Note the asymmetry
// with the write path: here equality with the deadline already counts as
// closed on writes, while this check uses strict less-than.
func (s *MessService) CanRequest(ctx context.Context, messID string, meal models.MealType) (*CanRequestResult, error) {
	if !meal.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown meal type %q", meal))
	}

	current := mealclock.HHMM(s.now())
	result := &CanRequestResult{Meal: meal, CanRequest: true, CurrentTime: current}

	timings, err := s.Timings(ctx, messID)
	if err != nil {
		// An unknown mess counts as having no timings on this path.
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return result, nil
		}
		return nil, err
	}

	window, ok := timings.Window(meal)
	if !ok || window.RequestDeadline == "" {
		return result, nil
	}
	result.Deadline = window.RequestDeadline
	result.CanRequest = current < window.RequestDeadline
	return result, nil
}

// Details returns the mess profile for its members.
func (s *MessService) Details(ctx context.Context, messID string) (*models.Mess, error) {
	mess, err := s.repo.FindByID(ctx, messID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mess not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mess")
	}
	return mess, nil
}
