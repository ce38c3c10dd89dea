package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mfms/mess-api/internal/models"
)

// AttendanceRepository handles persistence for per-day meal opt-in records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByStudentAndDate returns the stored record for a student and day.
// sql.ErrNoRows means the student never changed anything for that day and
// the all-true defaults apply.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.Attendance, error) {
	const query = `SELECT id, student_id, mess_id, date, breakfast, lunch, high_tea, dinner, last_modified_at, created_at, updated_at
FROM attendance WHERE student_id = $1 AND date = $2 LIMIT 1`
	var rec models.Attendance
	if err := r.db.GetContext(ctx, &rec, query, studentID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &rec, nil
}

// Upsert inserts or replaces the record for (student, date). Last write wins.
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.LastModifiedAt = now
	const query = `INSERT INTO attendance (id, student_id, mess_id, date, breakfast, lunch, high_tea, dinner, last_modified_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (student_id, date)
DO UPDATE SET breakfast = EXCLUDED.breakfast, lunch = EXCLUDED.lunch, high_tea = EXCLUDED.high_tea,
dinner = EXCLUDED.dinner, last_modified_at = EXCLUDED.last_modified_at, updated_at = EXCLUDED.updated_at
RETURNING id, student_id, mess_id, date, breakfast, lunch, high_tea, dinner, last_modified_at, created_at, updated_at`
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		rec.ID, rec.StudentID, rec.MessID, rec.Date,
		rec.Breakfast, rec.Lunch, rec.HighTea, rec.Dinner,
		rec.LastModifiedAt, rec.CreatedAt, rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// OptOutCounts counts stored opt-outs per meal for a mess and day. Students
// with no record that day count as opted in everywhere, so only explicit
// false flags contribute.
func (r *AttendanceRepository) OptOutCounts(ctx context.Context, messID string, date time.Time) (*models.MealOptOuts, error) {
	const query = `SELECT
COUNT(*) FILTER (WHERE NOT breakfast) AS breakfast_opt_out,
COUNT(*) FILTER (WHERE NOT lunch) AS lunch_opt_out,
COUNT(*) FILTER (WHERE NOT high_tea) AS high_tea_opt_out,
COUNT(*) FILTER (WHERE NOT dinner) AS dinner_opt_out
FROM attendance WHERE mess_id = $1 AND date = $2`
	var counts models.MealOptOuts
	if err := r.db.GetContext(ctx, &counts, query, messID, date); err != nil {
		return nil, fmt.Errorf("opt-out counts: %w", err)
	}
	return &counts, nil
}
