package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfms/mess-api/internal/models"
	"github.com/mfms/mess-api/internal/service"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/response"
)

type attendanceService interface {
	Get(ctx context.Context, student *models.User, date time.Time) (*service.AttendanceDay, error)
	Update(ctx context.Context, student *models.User, date time.Time, rawMeal string, status bool) (*service.AttendanceDay, error)
	Stats(ctx context.Context, messID string, date time.Time) (*models.MessMealStats, error)
	ExportStats(ctx context.Context, messID string, date time.Time, format string) ([]byte, string, error)
}

// AttendanceHandler exposes meal opt-in endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds a new handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

type updateAttendanceRequest struct {
	Date   string `json:"date" binding:"required"`
	Meal   string `json:"meal" binding:"required"`
	Status *bool  `json:"status" binding:"required"`
}

// Get godoc
// @Summary Meal flags for one day
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	day, err := h.service.Get(c.Request.Context(), userFromContext(c), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Update godoc
// @Summary Opt in or out of a meal
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body updateAttendanceRequest true "Meal change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "PAST_DATE or DEADLINE_PASSED"
// @Router /attendance [post]
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	day, err := h.service.Update(c.Request.Context(), userFromContext(c), date, req.Meal, *req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Stats godoc
// @Summary Expected head counts per meal
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess"))
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), *user.MessID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportStats godoc
// @Summary Download head counts as CSV or PDF
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /attendance/stats/export [get]
func (h *AttendanceHandler) ExportStats(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess"))
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	data, contentType, err := h.service.ExportStats(c.Request.Context(), *user.MessID, date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if format == "pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("attendance-%s.%s", date.Format("2006-01-02"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
