package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mfms/mess-api/internal/models"
)

// FeedbackRepository handles persistence for mess feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs the repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO feedback (id, student_id, mess_id, message, rating, created_at)
VALUES (:id, :student_id, :mess_id, :message, :rating, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fb); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListByMess returns feedback for a mess, newest first, joined with the
// submitting student's profile.
func (r *FeedbackRepository) ListByMess(ctx context.Context, messID string, page, pageSize int) ([]models.FeedbackEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT f.id, f.student_id, f.mess_id, f.message, f.rating, f.created_at,
u.name AS student_name, u.email AS student_email, u.avatar AS student_avatar
FROM feedback f
JOIN users u ON u.id = f.student_id
WHERE f.mess_id = $1
ORDER BY f.created_at DESC
LIMIT %d OFFSET %d`, pageSize, offset)
	var entries []models.FeedbackEntry
	if err := r.db.SelectContext(ctx, &entries, query, messID); err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM feedback WHERE mess_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, messID); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}
	return entries, total, nil
}
