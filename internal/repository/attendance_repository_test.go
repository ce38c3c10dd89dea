package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByStudentAndDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "mess_id", "date", "breakfast", "lunch", "high_tea", "dinner", "last_modified_at", "created_at", "updated_at"}).
		AddRow("a1", "s1", "m1", date, true, false, true, true, now, now, now)
	mock.ExpectQuery("SELECT id, student_id, mess_id, date, breakfast, lunch, high_tea, dinner").
		WithArgs("s1", date).
		WillReturnRows(rows)

	rec, err := repo.FindByStudentAndDate(context.Background(), "s1", date)
	require.NoError(t, err)
	assert.False(t, rec.Lunch)
	assert.True(t, rec.Breakfast)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByStudentAndDateNoRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, student_id, mess_id, date, breakfast").
		WithArgs("s1", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByStudentAndDate(context.Background(), "s1", date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAttendance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "mess_id", "date", "breakfast", "lunch", "high_tea", "dinner", "last_modified_at", "created_at", "updated_at"}).
		AddRow("a1", "s1", "m1", date, true, false, true, true, now, now, now)
	mock.ExpectQuery("INSERT INTO attendance").WillReturnRows(rows)

	rec := &models.Attendance{StudentID: "s1", MessID: "m1", Date: date, Breakfast: true, Lunch: false, HighTea: true, Dinner: true}
	stored, err := repo.Upsert(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.ID)
	assert.False(t, stored.Lunch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptOutCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"breakfast_opt_out", "lunch_opt_out", "high_tea_opt_out", "dinner_opt_out"}).
		AddRow(2, 5, 0, 1)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE mess_id = $1 AND date = $2")).
		WithArgs("m1", date).
		WillReturnRows(rows)

	counts, err := repo.OptOutCounts(context.Background(), "m1", date)
	require.NoError(t, err)
	assert.Equal(t, 5, counts.Lunch)
	assert.Equal(t, 0, counts.HighTea)
	assert.NoError(t, mock.ExpectationsWereMet())
}
