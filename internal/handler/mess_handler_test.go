package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
	"github.com/mfms/mess-api/internal/service"
)

type messServiceMock struct {
	timings    models.MealTimings
	canRequest *service.CanRequestResult
	gotUpdate  map[string]models.MealWindow
	gotMeal    models.MealType
}

func (m *messServiceMock) Details(ctx context.Context, messID string) (*models.Mess, error) {
	return &models.Mess{ID: messID, Name: "North Mess", MessCode: "NORTH1"}, nil
}

func (m *messServiceMock) Timings(ctx context.Context, messID string) (models.MealTimings, error) {
	return m.timings, nil
}

func (m *messServiceMock) UpdateTimings(ctx context.Context, manager *models.User, raw map[string]models.MealWindow) (models.MealTimings, error) {
	m.gotUpdate = raw
	timings := make(models.MealTimings, len(raw))
	for k, v := range raw {
		timings[models.NormalizeMealType(k)] = v
	}
	return timings, nil
}

func (m *messServiceMock) CanRequest(ctx context.Context, messID string, meal models.MealType) (*service.CanRequestResult, error) {
	m.gotMeal = meal
	return m.canRequest, nil
}

type studentAdminMock struct {
	removed string
}

func (m *studentAdminMock) List(ctx context.Context, manager *models.User, page, pageSize int) ([]models.StudentInfo, *models.Pagination, error) {
	return []models.StudentInfo{{ID: "s1", Name: "Asha"}}, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: 1}, nil
}

func (m *studentAdminMock) ListUnverified(ctx context.Context, manager *models.User) ([]models.StudentInfo, error) {
	return []models.StudentInfo{}, nil
}

func (m *studentAdminMock) CountUnverified(ctx context.Context, manager *models.User) (int, error) {
	return 0, nil
}

func (m *studentAdminMock) VerifyAll(ctx context.Context, manager *models.User) (int, error) {
	return 0, nil
}

func (m *studentAdminMock) SetVerified(ctx context.Context, manager *models.User, studentID string, verified bool) error {
	return nil
}

func (m *studentAdminMock) Remove(ctx context.Context, manager *models.User, studentID string) error {
	m.removed = studentID
	return nil
}

func TestUpdateTimingsAcceptsArbitraryStrings(t *testing.T) {
	mock := &messServiceMock{}
	h := NewMessHandler(mock, &studentAdminMock{})

	body, _ := json.Marshal(map[string]models.MealWindow{
		"lunch": {ServingStart: "25:99", ServingEnd: "xx", RequestDeadline: "25:99"},
	})
	c, w := newTestContext(t, http.MethodPost, "/mess/timings", body)

	h.UpdateTimings(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, mock.gotUpdate, "lunch")
	assert.Equal(t, "25:99", mock.gotUpdate["lunch"].RequestDeadline)
	assert.Contains(t, w.Body.String(), "25:99")
}

func TestCanRequestNormalizesMealAlias(t *testing.T) {
	mock := &messServiceMock{canRequest: &service.CanRequestResult{Meal: models.MealHighTea, CanRequest: true, CurrentTime: "10:00"}}
	h := NewMessHandler(mock, &studentAdminMock{})

	c, w := newTestContext(t, http.MethodGet, "/mess/can-request/hightea", nil)
	c.Params = gin.Params{{Key: "meal", Value: "hightea"}}

	h.CanRequest(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MealHighTea, mock.gotMeal)
	assert.Contains(t, w.Body.String(), `"canRequest":true`)
}

func TestRemoveStudentReturnsNoContent(t *testing.T) {
	students := &studentAdminMock{}
	h := NewMessHandler(&messServiceMock{}, students)

	c, w := newTestContext(t, http.MethodDelete, "/mess/students/s1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	h.RemoveStudent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s1", students.removed)
}

func TestTimingsRequiresMess(t *testing.T) {
	h := NewMessHandler(&messServiceMock{}, &studentAdminMock{})

	c, w := newTestContext(t, http.MethodGet, "/mess/timings", nil)
	c.Set("currentUser", &models.User{ID: "u1", Role: models.RoleStudent})

	h.Timings(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
