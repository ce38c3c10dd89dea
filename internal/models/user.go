package models

import "time"

// UserRole represents the available roles in a mess.
type UserRole string

const (
	RoleManager UserRole = "manager"
	RoleStudent UserRole = "student"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	return r == RoleManager || r == RoleStudent
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	MessID       *string    `db:"mess_id" json:"mess_id,omitempty"`
	IsVerified   bool       `db:"is_verified" json:"is_verified"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Gender       *string    `db:"gender" json:"gender,omitempty"`
	Avatar       *string    `db:"avatar" json:"avatar,omitempty"`

	IsEmailVerified          bool       `db:"is_email_verified" json:"is_email_verified"`
	EmailVerificationToken   *string    `db:"email_verification_token" json:"-"`
	EmailVerificationExpires *time.Time `db:"email_verification_expires" json:"-"`
	PasswordResetToken       *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires     *time.Time `db:"password_reset_expires" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentInfo is the trimmed projection returned to managers.
type StudentInfo struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Email      string  `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	Avatar     *string `db:"avatar" json:"avatar,omitempty"`
	IsVerified bool    `db:"is_verified" json:"is_verified"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
