package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type attendanceRepoStub struct {
	records map[string]models.Attendance
	err     error
	optOuts models.MealOptOuts
	writes  int
}

func attKey(studentID string, date time.Time) string {
	return studentID + "|" + date.Format("2006-01-02")
}

func (s *attendanceRepoStub) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.Attendance, error) {
	if s.err != nil {
		return nil, s.err
	}
	if rec, ok := s.records[attKey(studentID, date)]; ok {
		return &rec, nil
	}
	return nil, sql.ErrNoRows
}

func (s *attendanceRepoStub) Upsert(ctx context.Context, rec *models.Attendance) (*models.Attendance, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.records == nil {
		s.records = make(map[string]models.Attendance)
	}
	s.writes++
	s.records[attKey(rec.StudentID, rec.Date)] = *rec
	return rec, nil
}

func (s *attendanceRepoStub) OptOutCounts(ctx context.Context, messID string, date time.Time) (*models.MealOptOuts, error) {
	if s.err != nil {
		return nil, s.err
	}
	counts := s.optOuts
	return &counts, nil
}

type studentCountStub struct {
	count int
	err   error
}

func (s studentCountStub) CountVerifiedStudents(ctx context.Context, messID string) (int, error) {
	return s.count, s.err
}

type timingsStub struct {
	timings models.MealTimings
	err     error
	calls   int
}

func (s *timingsStub) Timings(ctx context.Context, messID string) (models.MealTimings, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.timings, nil
}

func testStudent() *models.User {
	messID := "m1"
	return &models.User{ID: "s1", Role: models.RoleStudent, MessID: &messID, IsVerified: true}
}

func fixedClock(hhmm string) func() time.Time {
	return func() time.Time {
		t, _ := time.Parse("2006-01-02 15:04", "2025-03-10 "+hhmm)
		return t
	}
}

func newAttendanceService(repo *attendanceRepoStub, timings *timingsStub, nowHHMM string) *AttendanceService {
	svc := NewAttendanceService(repo, studentCountStub{count: 100}, timings, nil, nil)
	svc.now = fixedClock(nowHHMM)
	return svc
}

func TestUpdateBeforeDeadlineSucceeds(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.DefaultMealTimings()}
	svc := newAttendanceService(repo, timings, "10:30")

	today := svc.now()
	day, err := svc.Update(context.Background(), testStudent(), today, "lunch", false)
	require.NoError(t, err)
	assert.False(t, day.Meals.Lunch)
	assert.True(t, day.Meals.Breakfast)
	assert.Equal(t, 1, repo.writes)
}

func TestUpdateAtDeadlineIsRejected(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.DefaultMealTimings()}
	svc := newAttendanceService(repo, timings, "11:00")

	today := svc.now()
	_, err := svc.Update(context.Background(), testStudent(), today, "lunch", false)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Deadline was 11:00")
	assert.Equal(t, 0, repo.writes)
}

func TestUpdateAfterDeadlineIsRejected(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.DefaultMealTimings()}
	svc := newAttendanceService(repo, timings, "13:45")

	today := svc.now()
	_, err := svc.Update(context.Background(), testStudent(), today, "lunch", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)
}

func TestUpdateFutureDateSkipsDeadlineCheck(t *testing.T) {
	repo := &attendanceRepoStub{}
	// Timings that would fail if consulted prove the future path never
	// reads the configuration.
	timings := &timingsStub{err: errors.New("should not be called")}
	svc := newAttendanceService(repo, timings, "23:50")

	tomorrow := svc.now().AddDate(0, 0, 1)
	day, err := svc.Update(context.Background(), testStudent(), tomorrow, "dinner", false)
	require.NoError(t, err)
	assert.False(t, day.Meals.Dinner)
	assert.Equal(t, 0, timings.calls)
}

func TestUpdatePastDateIsRejected(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.DefaultMealTimings()}
	svc := newAttendanceService(repo, timings, "08:00")

	yesterday := svc.now().AddDate(0, 0, -1)
	_, err := svc.Update(context.Background(), testStudent(), yesterday, "breakfast", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastDate.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, repo.writes)
}

func TestUpdateMalformedDeadlineComparesAsString(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.MealTimings{
		models.MealLunch: {ServingStart: "12:00", ServingEnd: "14:00", RequestDeadline: "25:99"},
	}}
	svc := newAttendanceService(repo, timings, "09:30")

	// "09:30" < "25:99" lexicographically, so the change goes through.
	today := svc.now()
	day, err := svc.Update(context.Background(), testStudent(), today, "lunch", false)
	require.NoError(t, err)
	assert.False(t, day.Meals.Lunch)
}

func TestUpdateHighTeaAliasAccepted(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.DefaultMealTimings()}
	svc := newAttendanceService(repo, timings, "10:00")

	today := svc.now()
	day, err := svc.Update(context.Background(), testStudent(), today, "hightea", false)
	require.NoError(t, err)
	assert.False(t, day.Meals.HighTea)
}

func TestUpdateUnknownMealRejected(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, &timingsStub{timings: models.DefaultMealTimings()}, "10:00")
	_, err := svc.Update(context.Background(), testStudent(), svc.now(), "brunch", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateLastWriteWins(t *testing.T) {
	repo := &attendanceRepoStub{}
	timings := &timingsStub{timings: models.DefaultMealTimings()}
	svc := newAttendanceService(repo, timings, "09:00")

	today := svc.now()
	student := testStudent()
	_, err := svc.Update(context.Background(), student, today, "lunch", false)
	require.NoError(t, err)
	day, err := svc.Update(context.Background(), student, today, "lunch", true)
	require.NoError(t, err)
	assert.True(t, day.Meals.Lunch)
	assert.Equal(t, 2, repo.writes)
}

func TestGetWithoutRecordReturnsDefaultsWithoutWriting(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, &timingsStub{timings: models.DefaultMealTimings()}, "09:00")

	day, err := svc.Get(context.Background(), testStudent(), svc.now())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMealFlags(), day.Meals)
	assert.Equal(t, 0, repo.writes)
}

func TestStatsSubtractsOptOutsAndClamps(t *testing.T) {
	repo := &attendanceRepoStub{optOuts: models.MealOptOuts{Breakfast: 10, Lunch: 7, HighTea: 0, Dinner: 9}}
	svc := NewAttendanceService(repo, studentCountStub{count: 5}, &timingsStub{}, nil, nil)

	stats, err := svc.Stats(context.Background(), "m1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Breakfast)
	assert.Equal(t, 0, stats.Lunch)
	assert.Equal(t, 5, stats.HighTea)
	assert.Equal(t, 0, stats.Dinner)
	assert.Equal(t, 5, stats.TotalStudents)
}

func TestExportStatsCSV(t *testing.T) {
	repo := &attendanceRepoStub{optOuts: models.MealOptOuts{Lunch: 2}}
	svc := NewAttendanceService(repo, studentCountStub{count: 40}, &timingsStub{}, nil, nil)

	data, contentType, err := svc.ExportStats(context.Background(), "m1", time.Now(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(data), "Lunch,38")
}

func TestExportStatsUnknownFormat(t *testing.T) {
	svc := NewAttendanceService(&attendanceRepoStub{}, studentCountStub{count: 1}, &timingsStub{}, nil, nil)
	_, _, err := svc.ExportStats(context.Background(), "m1", time.Now(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
