package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
	"github.com/mfms/mess-api/pkg/mailer"
)

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmailVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	FindByPasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	SetPasswordResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	AssignMess(ctx context.Context, id, messID string) error
}

type authMessRepository interface {
	Create(ctx context.Context, mess *models.Mess) error
	FindByID(ctx context.Context, id string) (*models.Mess, error)
	FindByCode(ctx context.Context, code string) (*models.Mess, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// AuthService provides registration, login and credential recovery.
type AuthService struct {
	users     authUserRepository
	messes    authMessRepository
	mail      mailer.Mailer
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, messes authMessRepository, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.JWTExpiry <= 0 {
		config.JWTExpiry = 720 * time.Hour
	}
	if config.VerifyTTL <= 0 {
		config.VerifyTTL = 24 * time.Hour
	}
	if config.ResetTTL <= 0 {
		config.ResetTTL = time.Hour
	}
	return &AuthService{users: users, messes: messes, mail: mail, validator: validate, logger: logger, config: config}
}

// Register creates a new account. Managers get a fresh mess seeded with the
// default meal timings; students join an existing mess by code and start out
// unverified until the manager approves them.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.Gender != "" {
		user.Gender = &req.Gender
	}

	var mess *models.Mess
	switch user.Role {
	case models.RoleManager:
		if strings.TrimSpace(req.MessName) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "messName is required for managers")
		}
		// Managers are trusted implicitly; there is no approval step above them.
		user.IsVerified = true
	case models.RoleStudent:
		if strings.TrimSpace(req.MessCode) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "messCode is required for students")
		}
		mess, err = s.messes.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(req.MessCode)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "no mess found for this code")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up mess")
		}
		user.MessID = &mess.ID
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be manager or student")
	}

	rawVerify, verifyHash, err := generateToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create verification token")
	}
	expires := time.Now().UTC().Add(s.config.VerifyTTL)
	user.EmailVerificationToken = &verifyHash
	user.EmailVerificationExpires = &expires

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	if user.Role == models.RoleManager {
		mess = &models.Mess{
			Name:        strings.TrimSpace(req.MessName),
			ManagerID:   user.ID,
			MealTimings: models.DefaultMealTimings(),
		}
		if req.Location != "" {
			mess.Location = &req.Location
		}
		if err := s.createMessWithCode(ctx, mess); err != nil {
			return nil, err
		}
		if err := s.users.AssignMess(ctx, user.ID, mess.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link manager to mess")
		}
		user.MessID = &mess.ID
	}

	if s.mail != nil {
		if err := s.mail.SendVerificationEmail(ctx, user.Email, user.Name, rawVerify); err != nil {
			s.logger.Warn("failed to send verification email", zap.String("email", user.Email), zap.Error(err))
		}
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return s.buildAuthResponse(token, user, mess), nil
}

// Login authenticates a user and returns an access token with their profile.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	var mess *models.Mess
	if user.MessID != nil {
		mess, err = s.messes.FindByID(ctx, *user.MessID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mess")
		}
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return s.buildAuthResponse(token, user, mess), nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return appErrors.Clone(appErrors.ErrValidation, "verification token is required")
	}
	user, err := s.users.FindByEmailVerificationToken(ctx, hashToken(token), time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "verification token is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up token")
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark email verified")
	}
	return nil
}

// ForgotPassword issues a reset token when the email exists. Unknown emails
// return success too, so the endpoint cannot be used to probe accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	raw, tokenHash, err := generateToken()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reset token")
	}
	expires := time.Now().UTC().Add(s.config.ResetTTL)
	if err := s.users.SetPasswordResetToken(ctx, user.ID, tokenHash, expires); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reset token")
	}

	if s.mail != nil {
		if err := s.mail.SendPasswordResetEmail(ctx, user.Email, user.Name, raw); err != nil {
			s.logger.Warn("failed to send reset email", zap.String("email", user.Email), zap.Error(err))
		}
	}
	return nil
}

// ResetPassword completes the reset flow and clears the token.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	user, err := s.users.FindByPasswordResetToken(ctx, hashToken(req.Token), time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "reset token is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// Me returns the current profile and mess for an authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.AuthResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	var mess *models.Mess
	if user.MessID != nil {
		mess, err = s.messes.FindByID(ctx, *user.MessID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mess")
		}
	}
	return s.buildAuthResponse("", user, mess), nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) buildAuthResponse(token string, user *models.User, mess *models.Mess) *models.AuthResponse {
	resp := &models.AuthResponse{
		Token:      token,
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Phone:      user.Phone,
		Gender:     user.Gender,
		Avatar:     user.Avatar,
		MessID:     user.MessID,
		IsVerified: user.IsVerified,
	}
	if mess != nil {
		resp.MessName = mess.Name
		resp.MessCode = mess.MessCode
		resp.Location = mess.Location
	}
	return resp
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateToken returns a raw token for the email link and its sha256 hash
// for storage. Only the hash ever touches the database.
func generateToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

const (
	messCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	messCodeAttempts = 3
)

// generateMessCode builds a short join code. Ambiguous characters are left
// out of the alphabet.
// createMessWithCode persists a new mess under a freshly generated join code,
// regenerating the code when it collides with an existing one.
func (s *AuthService) createMessWithCode(ctx context.Context, mess *models.Mess) error {
	for attempt := 0; attempt < messCodeAttempts; attempt++ {
		code, err := generateMessCode()
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mess code")
		}
		mess.MessCode = code

		err = s.messes.Create(ctx, mess)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mess")
		}
		s.logger.Warn("mess code collision, regenerating", zap.String("mess_code", code))
	}
	return appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique mess code")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func generateMessCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = messCodeAlphabet[int(b)%len(messCodeAlphabet)]
	}
	return string(out), nil
}
