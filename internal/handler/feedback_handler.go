package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mfms/mess-api/internal/models"
	"github.com/mfms/mess-api/internal/service"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/response"
)

type feedbackService interface {
	Add(ctx context.Context, student *models.User, req service.FeedbackRequest) (*models.Feedback, error)
	List(ctx context.Context, messID string, page, pageSize int) ([]models.FeedbackEntry, *models.Pagination, error)
}

// FeedbackHandler exposes feedback endpoints.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler builds a new handler.
func NewFeedbackHandler(service feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Add godoc
// @Summary Submit feedback for the mess
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.FeedbackRequest true "Message and rating"
// @Success 201 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Add(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	fb, err := h.service.Add(c.Request.Context(), userFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fb)
}

// List godoc
// @Summary Feedback for the mess, newest first
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user has no mess"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	entries, pagination, err := h.service.List(c.Request.Context(), *user.MessID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
