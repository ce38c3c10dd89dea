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

const userColumns = `id, name, email, password_hash, role, mess_id, is_verified, phone, gender, avatar,
is_email_verified, email_verification_token, email_verification_expires,
password_reset_token, password_reset_expires, created_at, updated_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, name, email, password_hash, role, mess_id, is_verified, phone, gender, avatar,
is_email_verified, email_verification_token, email_verification_expires, created_at, updated_at)
VALUES (:id, :name, :email, :password_hash, :role, :mess_id, :is_verified, :phone, :gender, :avatar,
:is_email_verified, :email_verification_token, :email_verification_expires, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByEmailVerificationToken returns the user holding an unexpired
// verification token hash.
func (r *UserRepository) FindByEmailVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email_verification_token = $1 AND email_verification_expires > $2 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, tokenHash, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by verification token: %w", err)
	}
	return &user, nil
}

// FindByPasswordResetToken returns the user holding an unexpired reset token hash.
func (r *UserRepository) FindByPasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE password_reset_token = $1 AND password_reset_expires > $2 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, tokenHash, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by reset token: %w", err)
	}
	return &user, nil
}

// MarkEmailVerified flips the verification flag and clears the token pair.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_email_verified = TRUE, email_verification_token = NULL, email_verification_expires = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

// SetPasswordResetToken stores the hashed reset token and its expiry.
func (r *UserRepository) SetPasswordResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	const query = `UPDATE users SET password_reset_token = $2, password_reset_expires = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tokenHash, expires, time.Now().UTC()); err != nil {
		return fmt.Errorf("set password reset token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash and clears any pending reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, password_reset_token = NULL, password_reset_expires = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// AssignMess links a user to a mess.
func (r *UserRepository) AssignMess(ctx context.Context, id, messID string) error {
	const query = `UPDATE users SET mess_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, messID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign mess: %w", err)
	}
	return nil
}

// ListStudentsByMess returns students of a mess with total count.
func (r *UserRepository) ListStudentsByMess(ctx context.Context, messID string, page, pageSize int) ([]models.StudentInfo, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, name, email, phone, avatar, is_verified FROM users WHERE mess_id = $1 AND role = 'student' ORDER BY name ASC LIMIT %d OFFSET %d`, pageSize, offset)
	var students []models.StudentInfo
	if err := r.db.SelectContext(ctx, &students, query, messID); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM users WHERE mess_id = $1 AND role = 'student'`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, messID); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListUnverifiedStudents returns students of a mess awaiting manager approval.
func (r *UserRepository) ListUnverifiedStudents(ctx context.Context, messID string) ([]models.StudentInfo, error) {
	const query = `SELECT id, name, email, phone, avatar, is_verified FROM users WHERE mess_id = $1 AND role = 'student' AND is_verified = FALSE ORDER BY name ASC`
	var students []models.StudentInfo
	if err := r.db.SelectContext(ctx, &students, query, messID); err != nil {
		return nil, fmt.Errorf("list unverified students: %w", err)
	}
	return students, nil
}

// CountUnverifiedStudents counts students of a mess awaiting manager approval.
func (r *UserRepository) CountUnverifiedStudents(ctx context.Context, messID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE mess_id = $1 AND role = 'student' AND is_verified = FALSE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, messID); err != nil {
		return 0, fmt.Errorf("count unverified students: %w", err)
	}
	return total, nil
}

// VerifyAllStudents approves every pending student of a mess and reports how
// many rows changed.
func (r *UserRepository) VerifyAllStudents(ctx context.Context, messID string) (int, error) {
	const query = `UPDATE users SET is_verified = TRUE, updated_at = $2 WHERE mess_id = $1 AND role = 'student' AND is_verified = FALSE`
	res, err := r.db.ExecContext(ctx, query, messID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("verify all students: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("verify all students: %w", err)
	}
	return int(n), nil
}

// SetStudentVerified sets the manager-approval flag on a student.
func (r *UserRepository) SetStudentVerified(ctx context.Context, id string, verified bool) error {
	const query = `UPDATE users SET is_verified = $2, updated_at = $3 WHERE id = $1 AND role = 'student'`
	res, err := r.db.ExecContext(ctx, query, id, verified, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set student verified: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RemoveStudent detaches a student from their mess and drops verification.
func (r *UserRepository) RemoveStudent(ctx context.Context, id string) error {
	const query = `UPDATE users SET mess_id = NULL, is_verified = FALSE, updated_at = $2 WHERE id = $1 AND role = 'student'`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("remove student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountVerifiedStudents counts manager-approved students of a mess.
func (r *UserRepository) CountVerifiedStudents(ctx context.Context, messID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE mess_id = $1 AND role = 'student' AND is_verified = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, messID); err != nil {
		return 0, fmt.Errorf("count verified students: %w", err)
	}
	return total, nil
}
