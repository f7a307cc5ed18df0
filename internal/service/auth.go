package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

const AuthCookieName = "auth_token"

type authMailer interface {
	SendWelcomeEmail(ctx context.Context, user model.User) error
	SendVerificationEmail(ctx context.Context, user model.User, token string) error
	SendPasswordResetEmail(ctx context.Context, user model.User, token string) error
}

type AuthService struct {
	userRepository           repository.UserRepository
	tokenRepository          repository.TokenRepository
	emailService             authMailer
	jwtSecret                string
	isProduction             bool
	jwtExpiry                time.Duration
	tokenEmailVerifyExpiry   time.Duration
	tokenPasswordResetExpiry time.Duration
	tokenRetention           time.Duration
	now                      func() time.Time
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	emailService authMailer,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
	tokenEmailVerifyExpiry time.Duration,
	tokenPasswordResetExpiry time.Duration,
	tokenRetention time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:           userRepository,
		tokenRepository:          tokenRepository,
		emailService:             emailService,
		jwtSecret:                jwtSecret,
		isProduction:             isProduction,
		jwtExpiry:                jwtExpiry,
		tokenEmailVerifyExpiry:   tokenEmailVerifyExpiry,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
		tokenRetention:           tokenRetention,
		now:                      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, invalid("%s", err)
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, invalid("%s", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, invalid("%s", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:                 uuid.New().String(),
		Email:              email,
		Name:               name,
		PasswordHash:       hash,
		MilestoneReminders: true,
		WeeklyDigest:       true,
		CreatedAt:          s.now(),
	}

	err = s.userRepository.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Log error but don't fail the registration; the user can ask again.
	err = s.SendVerification(ctx, user)
	if err != nil {
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) User(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

// SendVerification replaces any pending verification token of user and
// mails a fresh one.
func (s *AuthService) SendVerification(ctx context.Context, user *model.User) error {
	if user.IsVerified() {
		return nil
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenTypeEmailVerify, s.tokenEmailVerifyExpiry)
	if err != nil {
		return err
	}

	if s.emailService == nil {
		return nil
	}
	return s.emailService.SendVerificationEmail(ctx, *user, token)
}

// VerifyEmail consumes a verification token and marks its owner verified.
// The welcome e-mail goes out once the address is confirmed.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	t, err := s.consumeToken(ctx, token, model.TokenTypeEmailVerify)
	if err != nil {
		return nil, err
	}

	err = s.userRepository.MarkEmailVerified(ctx, t.UserID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	user, err := s.userRepository.ByID(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if s.emailService != nil {
		err = s.emailService.SendWelcomeEmail(ctx, *user)
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("email verified", "user_id", user.ID)
	return user, nil
}

// ForgotPassword mails a password reset link. Unknown addresses succeed
// silently so the endpoint can't be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validation.ValidateEmail(email); err != nil {
		return invalid("%s", err)
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenTypePasswordReset, s.tokenPasswordResetExpiry)
	if err != nil {
		return err
	}

	if s.emailService != nil {
		err = s.emailService.SendPasswordResetEmail(ctx, *user, token)
		if err != nil {
			slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password for the owner of a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*model.User, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return nil, invalid("%s", err)
	}

	t, err := s.consumeToken(ctx, token, model.TokenTypePasswordReset)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.UpdatePassword(ctx, t.UserID, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	// Following the reset link proves control of the mailbox.
	err = s.userRepository.MarkEmailVerified(ctx, t.UserID, s.now())
	if err != nil {
		slog.Warn("failed to mark email verified", "error", err, "user_id", t.UserID)
	}

	user, err := s.userRepository.ByID(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return user, nil
}

// CleanupTokens purges tokens that were used or expired longer ago than
// the retention window.
func (s *AuthService) CleanupTokens(ctx context.Context) (int64, error) {
	n, err := s.tokenRepository.CleanupExpired(ctx, s.now().Add(-s.tokenRetention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tokens: %w", err)
	}

	slog.Info("expired tokens cleaned up", "count", n)
	return n, nil
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *AuthService) issueToken(ctx context.Context, userID, tokenType string, ttl time.Duration) (string, error) {
	err := s.tokenRepository.DeleteByUserAndType(ctx, userID, tokenType)
	if err != nil {
		slog.Warn("failed to delete old tokens", "error", err, "user_id", userID, "type", tokenType)
	}

	value, err := s.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	err = s.tokenRepository.Create(ctx, &model.Token{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      tokenType,
		Token:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return value, nil
}

func (s *AuthService) consumeToken(ctx context.Context, token, tokenType string) (*model.Token, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	t, err := s.tokenRepository.Consume(ctx, token, tokenType, s.now())
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	return t, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateJWT returns a signed token and its expiry.
func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiry, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// UserID extracts the subject of a verified token.
func (s *AuthService) UserID(tokenString string) (string, error) {
	claims, err := s.VerifyJWT(tokenString)
	if err != nil {
		return "", err
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
