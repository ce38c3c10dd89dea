package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/middleware"
	"github.com/mfms/mess-api/internal/models"
	"github.com/mfms/mess-api/internal/service"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type attendanceServiceMock struct {
	day       *service.AttendanceDay
	stats     *models.MessMealStats
	updateErr error
	gotMeal   string
	gotStatus bool
}

func (m *attendanceServiceMock) Get(ctx context.Context, student *models.User, date time.Time) (*service.AttendanceDay, error) {
	return m.day, nil
}

func (m *attendanceServiceMock) Update(ctx context.Context, student *models.User, date time.Time, rawMeal string, status bool) (*service.AttendanceDay, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.gotMeal = rawMeal
	m.gotStatus = status
	return m.day, nil
}

func (m *attendanceServiceMock) Stats(ctx context.Context, messID string, date time.Time) (*models.MessMealStats, error) {
	return m.stats, nil
}

func (m *attendanceServiceMock) ExportStats(ctx context.Context, messID string, date time.Time, format string) ([]byte, string, error) {
	return []byte("Meal,Expected\n"), "text/csv", nil
}

func testContextUser() *models.User {
	messID := "m1"
	return &models.User{ID: "s1", Role: models.RoleStudent, MessID: &messID}
}

func newTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, testContextUser())
	return c, w
}

func TestAttendanceUpdatePassesPayloadThrough(t *testing.T) {
	mock := &attendanceServiceMock{day: &service.AttendanceDay{Date: "2025-03-10", Meals: models.DefaultMealFlags()}}
	h := NewAttendanceHandler(mock)

	body, _ := json.Marshal(map[string]interface{}{"date": "2025-03-10", "meal": "hightea", "status": false})
	c, w := newTestContext(t, http.MethodPost, "/attendance", body)

	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hightea", mock.gotMeal)
	assert.False(t, mock.gotStatus)
}

func TestAttendanceUpdateRejectsBadDate(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{})

	body, _ := json.Marshal(map[string]interface{}{"date": "10-03-2025", "meal": "lunch", "status": false})
	c, w := newTestContext(t, http.MethodPost, "/attendance", body)

	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceUpdateMissingStatus(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{})

	body, _ := json.Marshal(map[string]interface{}{"date": "2025-03-10", "meal": "lunch"})
	c, w := newTestContext(t, http.MethodPost, "/attendance", body)

	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceUpdateSurfacesDeadlineError(t *testing.T) {
	mock := &attendanceServiceMock{updateErr: appErrors.Clone(appErrors.ErrDeadlinePassed, "Request for lunch is closed. Deadline was 11:00")}
	h := NewAttendanceHandler(mock)

	body, _ := json.Marshal(map[string]interface{}{"date": "2025-03-10", "meal": "lunch", "status": false})
	c, w := newTestContext(t, http.MethodPost, "/attendance", body)

	h.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DEADLINE_PASSED")
	assert.Contains(t, w.Body.String(), "Deadline was 11:00")
}

func TestAttendanceGetDefaultsToToday(t *testing.T) {
	mock := &attendanceServiceMock{day: &service.AttendanceDay{Date: time.Now().Format("2006-01-02"), Meals: models.DefaultMealFlags()}}
	h := NewAttendanceHandler(mock)

	c, w := newTestContext(t, http.MethodGet, "/attendance", nil)

	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"breakfast":true`)
}

func TestAttendanceExportSetsDisposition(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{})

	c, w := newTestContext(t, http.MethodGet, "/attendance/stats/export?date=2025-03-10&format=csv", nil)

	h.ExportStats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance-2025-03-10.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
