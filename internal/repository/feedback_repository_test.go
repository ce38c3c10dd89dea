package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
)

func TestCreateFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").WillReturnResult(sqlmock.NewResult(1, 1))

	fb := &models.Feedback{StudentID: "s1", MessID: "m1", Message: "too salty", Rating: 2}
	err := repo.Create(context.Background(), fb)
	require.NoError(t, err)
	assert.NotEmpty(t, fb.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFeedbackByMess(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "mess_id", "message", "rating", "created_at", "student_name", "student_email", "student_avatar"}).
		AddRow("f1", "s1", "m1", "great lunch", 5, now, "Asha", "asha@example.com", nil)
	mock.ExpectQuery("SELECT f.id, f.student_id, f.mess_id, f.message, f.rating").
		WithArgs("m1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback WHERE mess_id = $1")).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.ListByMess(context.Background(), "m1", 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Asha", entries[0].StudentName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
