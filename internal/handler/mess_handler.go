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

type messService interface {
	Details(ctx context.Context, messID string) (*models.Mess, error)
	Timings(ctx context.Context, messID string) (models.MealTimings, error)
	UpdateTimings(ctx context.Context, manager *models.User, raw map[string]models.MealWindow) (models.MealTimings, error)
	CanRequest(ctx context.Context, messID string, meal models.MealType) (*service.CanRequestResult, error)
}

type studentAdminService interface {
	List(ctx context.Context, manager *models.User, page, pageSize int) ([]models.StudentInfo, *models.Pagination, error)
	ListUnverified(ctx context.Context, manager *models.User) ([]models.StudentInfo, error)
	CountUnverified(ctx context.Context, manager *models.User) (int, error)
	VerifyAll(ctx context.Context, manager *models.User) (int, error)
	SetVerified(ctx context.Context, manager *models.User, studentID string, verified bool) error
	Remove(ctx context.Context, manager *models.User, studentID string) error
}

// MessHandler exposes mess configuration and membership endpoints.
type MessHandler struct {
	messes   messService
	students studentAdminService
}

// NewMessHandler builds a new handler.
func NewMessHandler(messes messService, students studentAdminService) *MessHandler {
	return &MessHandler{messes: messes, students: students}
}

// Details godoc
// @Summary Mess profile for the current user
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mess [get]
func (h *MessHandler) Details(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user has no mess"))
		return
	}
	mess, err := h.messes.Details(c.Request.Context(), *user.MessID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mess, nil)
}

// Timings godoc
// @Summary Meal timing configuration
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mess/timings [get]
func (h *MessHandler) Timings(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user has no mess"))
		return
	}
	timings, err := h.messes.Timings(c.Request.Context(), *user.MessID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timings, nil)
}

// UpdateTimings godoc
// @Summary Replace meal timing configuration
// @Tags Mess
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body map[string]models.MealWindow true "Timing document, replaced wholesale"
// @Success 200 {object} response.Envelope
// @Router /mess/timings [post]
func (h *MessHandler) UpdateTimings(c *gin.Context) {
	var req map[string]models.MealWindow
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timings payload"))
		return
	}
	timings, err := h.messes.UpdateTimings(c.Request.Context(), userFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timings, nil)
}

// CanRequest godoc
// @Summary Pre-flight deadline check for a meal
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Param meal path string true "Meal type"
// @Success 200 {object} response.Envelope
// @Router /mess/can-request/{meal} [get]
func (h *MessHandler) CanRequest(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user has no mess"))
		return
	}
	meal := models.NormalizeMealType(c.Param("meal"))
	result, err := h.messes.CanRequest(c.Request.Context(), *user.MessID, meal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListStudents godoc
// @Summary Students of the manager's mess
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /mess/students [get]
func (h *MessHandler) ListStudents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	students, pagination, err := h.students.List(c.Request.Context(), userFromContext(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// ListUnverifiedStudents godoc
// @Summary Students awaiting approval
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mess/students/unverified [get]
func (h *MessHandler) ListUnverifiedStudents(c *gin.Context) {
	students, err := h.students.ListUnverified(c.Request.Context(), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// CountUnverifiedStudents godoc
// @Summary Number of students awaiting approval
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mess/students/unverified/count [get]
func (h *MessHandler) CountUnverifiedStudents(c *gin.Context) {
	count, err := h.students.CountUnverified(c.Request.Context(), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count}, nil)
}

// VerifyAllStudents godoc
// @Summary Approve all pending students
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mess/students/verify-all [post]
func (h *MessHandler) VerifyAllStudents(c *gin.Context) {
	count, err := h.students.VerifyAll(c.Request.Context(), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"verified": count}, nil)
}

type verifyStudentRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// VerifyStudent godoc
// @Summary Approve or suspend a student
// @Tags Mess
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body verifyStudentRequest true "Verification flag"
// @Success 200 {object} response.Envelope
// @Router /mess/students/{id}/verify [patch]
func (h *MessHandler) VerifyStudent(c *gin.Context) {
	var req verifyStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.students.SetVerified(c.Request.Context(), userFromContext(c), c.Param("id"), *req.Verified); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "verified": *req.Verified}, nil)
}

// RemoveStudent godoc
// @Summary Remove a student from the mess
// @Tags Mess
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204 "No Content"
// @Router /mess/students/{id} [delete]
func (h *MessHandler) RemoveStudent(c *gin.Context) {
	if err := h.students.Remove(c.Request.Context(), userFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
