package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/profanity"
)

type feedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	ListByMess(ctx context.Context, messID string, page, pageSize int) ([]models.FeedbackEntry, int, error)
}

// FeedbackRequest is the submission payload.
type FeedbackRequest struct {
	Message string `json:"message" validate:"required,min=3,max=1000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// FeedbackService accepts and lists mess feedback. Submitted text is run
// through the profanity filter before it is stored.
type FeedbackService struct {
	repo      feedbackRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(repo feedbackRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, validator: validate, logger: logger}
}

// Add stores a feedback entry for the student's mess.
func (s *FeedbackService) Add(ctx context.Context, student *models.User, req FeedbackRequest) (*models.Feedback, error) {
	if student.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "join a mess before sending feedback")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	fb := &models.Feedback{
		StudentID: student.ID,
		MessID:    *student.MessID,
		Message:   profanity.Censor(req.Message),
		Rating:    req.Rating,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	return fb, nil
}

// List returns feedback for a mess, newest first.
func (s *FeedbackService) List(ctx context.Context, messID string, page, pageSize int) ([]models.FeedbackEntry, *models.Pagination, error) {
	entries, total, err := s.repo.ListByMess(ctx, messID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	if entries == nil {
		entries = []models.FeedbackEntry{}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
