package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/export"
	"github.com/mfms/mess-api/pkg/mealclock"
)

type attendanceRepository interface {
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.Attendance, error)
	Upsert(ctx context.Context, rec *models.Attendance) (*models.Attendance, error)
	OptOutCounts(ctx context.Context, messID string, date time.Time) (*models.MealOptOuts, error)
}

type attendanceUserRepository interface {
	CountVerifiedStudents(ctx context.Context, messID string) (int, error)
}

type timingsProvider interface {
	Timings(ctx context.Context, messID string) (models.MealTimings, error)
}

// AttendanceDay is the read projection for one student and date.
type AttendanceDay struct {
	Date  string           `json:"date"`
	Meals models.MealFlags `json:"meals"`
}

// AttendanceService owns the opt-in/opt-out flow and its deadline gate.
type AttendanceService struct {
	repo    attendanceRepository
	users   attendanceUserRepository
	timings timingsProvider
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, users attendanceUserRepository, timings timingsProvider, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, users: users, timings: timings, metrics: metrics, logger: logger, now: time.Now}
}

// Get returns the student's flags for one day. A day with no stored record
// reads as opted in everywhere; nothing is written on the read path.
func (s *AttendanceService) Get(ctx context.Context, student *models.User, date time.Time) (*AttendanceDay, error) {
	if student.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "join a mess before using attendance")
	}

	day := &AttendanceDay{Date: date.Format("2006-01-02"), Meals: models.DefaultMealFlags()}
	rec, err := s.repo.FindByStudentAndDate(ctx, student.ID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return day, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	day.Meals = models.MealFlags{Breakfast: rec.Breakfast, Lunch: rec.Lunch, HighTea: rec.HighTea, Dinner: rec.Dinner}
	return day, nil
}

// Update changes one meal flag for a date. Preconditions run in a fixed
// order: the date must not be in the past, and for today the meal's request
// deadline must not have been reached yet. Future dates are never gated.
// Once a minute matches the deadline the meal counts as closed.
func (s *AttendanceService) Update(ctx context.Context, student *models.User, date time.Time, rawMeal string, status bool) (*AttendanceDay, error) {
	if student.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "join a mess before using attendance")
	}
	meal := models.NormalizeMealType(rawMeal)
	if !meal.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown meal type %q", rawMeal))
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, date.Location())
	target := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	if target.Before(today) {
		return nil, appErrors.Clone(appErrors.ErrPastDate, "")
	}
	if target.Equal(today) {
		timings, err := s.timings.Timings(ctx, *student.MessID)
		if err != nil {
			return nil, err
		}
		if window, ok := timings.Window(meal); ok && mealclock.LockedAt(window.RequestDeadline, now) {
			s.metrics.RecordDeadlineRejection()
			return nil, appErrors.Clone(appErrors.ErrDeadlinePassed,
				fmt.Sprintf("Request for %s is closed. Deadline was %s", meal, window.RequestDeadline))
		}
	}

	rec, err := s.repo.FindByStudentAndDate(ctx, student.ID, target)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
		}
		rec = &models.Attendance{
			StudentID: student.ID,
			MessID:    *student.MessID,
			Date:      target,
			Breakfast: true,
			Lunch:     true,
			HighTea:   true,
			Dinner:    true,
		}
	}

	if err := rec.SetMeal(meal, status); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	stored, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance")
	}
	s.metrics.RecordAttendanceUpdate(meal)
	s.logger.Info("attendance updated",
		zap.String("student_id", student.ID),
		zap.String("meal", string(meal)),
		zap.Bool("status", status),
		zap.String("date", target.Format("2006-01-02")),
	)

	return &AttendanceDay{
		Date:  target.Format("2006-01-02"),
		Meals: models.MealFlags{Breakfast: stored.Breakfast, Lunch: stored.Lunch, HighTea: stored.HighTea, Dinner: stored.Dinner},
	}, nil
}

// Stats computes expected head counts for a mess and day. Every verified
// student counts as attending unless they explicitly opted out, so the
// figure is verified minus opt-outs, floored at zero.
func (s *AttendanceService) Stats(ctx context.Context, messID string, date time.Time) (*models.MessMealStats, error) {
	total, err := s.users.CountVerifiedStudents(ctx, messID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	optOuts, err := s.repo.OptOutCounts(ctx, messID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count opt-outs")
	}

	clamp := func(n int) int {
		if n < 0 {
			return 0
		}
		return n
	}
	return &models.MessMealStats{
		Breakfast:     clamp(total - optOuts.Breakfast),
		Lunch:         clamp(total - optOuts.Lunch),
		HighTea:       clamp(total - optOuts.HighTea),
		Dinner:        clamp(total - optOuts.Dinner),
		TotalStudents: total,
	}, nil
}

// ExportStats renders the day's stats as CSV or PDF for download.
func (s *AttendanceService) ExportStats(ctx context.Context, messID string, date time.Time, format string) ([]byte, string, error) {
	stats, err := s.Stats(ctx, messID, date)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Headers: []string{"Meal", "Expected"},
		Rows: []map[string]string{
			{"Meal": "Breakfast", "Expected": strconv.Itoa(stats.Breakfast)},
			{"Meal": "Lunch", "Expected": strconv.Itoa(stats.Lunch)},
			{"Meal": "High Tea", "Expected": strconv.Itoa(stats.HighTea)},
			{"Meal": "Dinner", "Expected": strconv.Itoa(stats.Dinner)},
			{"Meal": "Total Students", "Expected": strconv.Itoa(stats.TotalStudents)},
		},
	}

	switch format {
	case "csv", "":
		data, err := export.CSV(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := export.PDF(table, fmt.Sprintf("Meal Attendance %s", date.Format("2006-01-02")))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
