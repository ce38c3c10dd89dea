package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type feedbackRepoStub struct {
	created []models.Feedback
	entries []models.FeedbackEntry
	err     error
}

func (s *feedbackRepoStub) Create(ctx context.Context, fb *models.Feedback) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *fb)
	return nil
}

func (s *feedbackRepoStub) ListByMess(ctx context.Context, messID string, page, pageSize int) ([]models.FeedbackEntry, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.entries, len(s.entries), nil
}

func feedbackStudent() *models.User {
	messID := "m1"
	return &models.User{ID: "s1", Role: models.RoleStudent, MessID: &messID}
}

func TestAddFeedbackCensorsMessage(t *testing.T) {
	repo := &feedbackRepoStub{}
	svc := NewFeedbackService(repo, validator.New(), nil)

	fb, err := svc.Add(context.Background(), feedbackStudent(), FeedbackRequest{Message: "the food was shit today", Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, "the food was **** today", fb.Message)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "m1", repo.created[0].MessID)
}

func TestAddFeedbackRatingOutOfRange(t *testing.T) {
	svc := NewFeedbackService(&feedbackRepoStub{}, validator.New(), nil)

	_, err := svc.Add(context.Background(), feedbackStudent(), FeedbackRequest{Message: "fine food", Rating: 6})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddFeedbackRequiresMess(t *testing.T) {
	svc := NewFeedbackService(&feedbackRepoStub{}, validator.New(), nil)
	student := &models.User{ID: "s1", Role: models.RoleStudent}

	_, err := svc.Add(context.Background(), student, FeedbackRequest{Message: "nice dal", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListFeedbackNeverReturnsNil(t *testing.T) {
	svc := NewFeedbackService(&feedbackRepoStub{}, validator.New(), nil)

	entries, pagination, err := svc.List(context.Background(), "m1", 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}
