package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest covers both manager and student sign-up. Managers create a
// mess; students join an existing one by code.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=manager student"`
	MessCode string `json:"messCode"`
	MessName string `json:"messName"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other prefer_not_to_say"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the issued token and the user's profile together with
// the mess they belong to, mirroring what the clients render after login.
type AuthResponse struct {
	Token      string   `json:"token"`
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	Phone      *string  `json:"phone,omitempty"`
	Gender     *string  `json:"gender,omitempty"`
	Avatar     *string  `json:"avatar,omitempty"`
	MessID     *string  `json:"messId,omitempty"`
	MessName   string   `json:"messName,omitempty"`
	MessCode   string   `json:"messCode,omitempty"`
	Location   *string  `json:"location,omitempty"`
	IsVerified bool     `json:"isVerified"`
}

// ForgotPasswordRequest initiates the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
