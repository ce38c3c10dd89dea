package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfms/mess-api/internal/models"
	"github.com/mfms/mess-api/internal/service"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/response"
)

type menuService interface {
	SaveDaily(ctx context.Context, manager *models.User, date time.Time, items models.MenuSet) (*models.DailyMenu, error)
	SaveWeekly(ctx context.Context, manager *models.User, days models.WeekTemplate) (*models.WeeklyMenu, error)
	Weekly(ctx context.Context, messID string) (models.WeekTemplate, error)
	Effective(ctx context.Context, messID string, date time.Time) (*service.EffectiveMenu, error)
}

// MenuHandler exposes daily and weekly menu endpoints.
type MenuHandler struct {
	service menuService
}

// NewMenuHandler builds a new handler.
func NewMenuHandler(service menuService) *MenuHandler {
	return &MenuHandler{service: service}
}

type saveDailyMenuRequest struct {
	Date  string         `json:"date" binding:"required"`
	Items models.MenuSet `json:"items"`
}

// Effective godoc
// @Summary Menu served on a date
// @Tags Menu
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /menu [get]
func (h *MenuHandler) Effective(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user has no mess"))
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	menu, err := h.service.Effective(c.Request.Context(), *user.MessID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, menu, nil)
}

// Weekly godoc
// @Summary Weekly menu template
// @Tags Menu
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /menu/weekly [get]
func (h *MenuHandler) Weekly(c *gin.Context) {
	user := userFromContext(c)
	if user.MessID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user has no mess"))
		return
	}
	days, err := h.service.Weekly(c.Request.Context(), *user.MessID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// SaveDaily godoc
// @Summary Set the menu for one date
// @Tags Menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body saveDailyMenuRequest true "Menu for the date"
// @Success 200 {object} response.Envelope
// @Router /menu/daily [post]
func (h *MenuHandler) SaveDaily(c *gin.Context) {
	var req saveDailyMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid menu payload"))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	menu, err := h.service.SaveDaily(c.Request.Context(), userFromContext(c), date, req.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, menu, nil)
}

// SaveWeekly godoc
// @Summary Replace the weekly menu template
// @Tags Menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.WeekTemplate true "Weekday to menu mapping"
// @Success 200 {object} response.Envelope
// @Router /menu/weekly [post]
func (h *MenuHandler) SaveWeekly(c *gin.Context) {
	var req models.WeekTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid menu payload"))
		return
	}
	menu, err := h.service.SaveWeekly(c.Request.Context(), userFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, menu, nil)
}
