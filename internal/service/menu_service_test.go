package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type menuRepoStub struct {
	daily  map[string]models.DailyMenu
	weekly *models.WeeklyMenu
	err    error
}

func menuKey(messID string, date time.Time) string {
	return messID + "|" + date.Format("2006-01-02")
}

func (s *menuRepoStub) UpsertDaily(ctx context.Context, menu *models.DailyMenu) (*models.DailyMenu, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.daily == nil {
		s.daily = make(map[string]models.DailyMenu)
	}
	menu.ID = "d1"
	s.daily[menuKey(menu.MessID, menu.Date)] = *menu
	return menu, nil
}

func (s *menuRepoStub) FindDaily(ctx context.Context, messID string, date time.Time) (*models.DailyMenu, error) {
	if s.err != nil {
		return nil, s.err
	}
	if m, ok := s.daily[menuKey(messID, date)]; ok {
		return &m, nil
	}
	return nil, sql.ErrNoRows
}

func (s *menuRepoStub) UpsertWeekly(ctx context.Context, menu *models.WeeklyMenu) (*models.WeeklyMenu, error) {
	if s.err != nil {
		return nil, s.err
	}
	menu.ID = "w1"
	s.weekly = menu
	return menu, nil
}

func (s *menuRepoStub) FindWeekly(ctx context.Context, messID string) (*models.WeeklyMenu, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.weekly == nil || s.weekly.MessID != messID {
		return nil, sql.ErrNoRows
	}
	return s.weekly, nil
}

func menuManager() *models.User {
	messID := "m1"
	return &models.User{ID: "mgr1", Role: models.RoleManager, MessID: &messID}
}

// 2025-03-10 is a Monday.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestEffectivePrefersDailyOverride(t *testing.T) {
	repo := &menuRepoStub{}
	svc := NewMenuService(repo, nil)
	manager := menuManager()

	_, err := svc.SaveWeekly(context.Background(), manager, models.WeekTemplate{
		"monday": {Lunch: []string{"rajma", "rice"}},
	})
	require.NoError(t, err)
	_, err = svc.SaveDaily(context.Background(), manager, monday, models.MenuSet{Lunch: []string{"biryani"}})
	require.NoError(t, err)

	menu, err := svc.Effective(context.Background(), "m1", monday)
	require.NoError(t, err)
	assert.Equal(t, "daily", menu.Source)
	assert.Equal(t, []string{"biryani"}, menu.Items.Lunch)
}

func TestEffectiveFallsBackToWeeklySlot(t *testing.T) {
	repo := &menuRepoStub{}
	svc := NewMenuService(repo, nil)

	_, err := svc.SaveWeekly(context.Background(), menuManager(), models.WeekTemplate{
		"monday": {Lunch: []string{"rajma", "rice"}},
	})
	require.NoError(t, err)

	menu, err := svc.Effective(context.Background(), "m1", monday)
	require.NoError(t, err)
	assert.Equal(t, "weekly", menu.Source)
	assert.Equal(t, []string{"rajma", "rice"}, menu.Items.Lunch)
}

func TestEffectiveEmptyWhenNothingStored(t *testing.T) {
	svc := NewMenuService(&menuRepoStub{}, nil)

	menu, err := svc.Effective(context.Background(), "m1", monday)
	require.NoError(t, err)
	assert.Equal(t, "none", menu.Source)
	assert.Empty(t, menu.Items.Lunch)
	assert.NotNil(t, menu.Items.Lunch)
}

func TestWeeklyReturnsEmptyTemplateWhenMissing(t *testing.T) {
	svc := NewMenuService(&menuRepoStub{}, nil)

	days, err := svc.Weekly(context.Background(), "m1")
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestSaveWeeklyRequiresPayload(t *testing.T) {
	svc := NewMenuService(&menuRepoStub{}, nil)

	_, err := svc.SaveWeekly(context.Background(), menuManager(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveDailyRequiresMess(t *testing.T) {
	svc := NewMenuService(&menuRepoStub{}, nil)
	manager := &models.User{ID: "mgr1", Role: models.RoleManager}

	_, err := svc.SaveDaily(context.Background(), manager, monday, models.MenuSet{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
