package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/templui/goaltracker/internal/model"
)

// authOutbox records the links AuthService mails out.
type authOutbox struct {
	welcome []string
	verify  map[string]string
	reset   map[string]string
	err     error
}

func newAuthOutbox() *authOutbox {
	return &authOutbox{verify: map[string]string{}, reset: map[string]string{}}
}

func (o *authOutbox) SendWelcomeEmail(_ context.Context, user model.User) error {
	o.welcome = append(o.welcome, user.Email)
	return o.err
}

func (o *authOutbox) SendVerificationEmail(_ context.Context, user model.User, token string) error {
	o.verify[user.Email] = token
	return o.err
}

func (o *authOutbox) SendPasswordResetEmail(_ context.Context, user model.User, token string) error {
	o.reset[user.Email] = token
	return o.err
}

type authFixture struct {
	auth   *AuthService
	users  memUsers
	tokens *memTokens
	mail   *authOutbox
	clock  time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  memUsers{newMemStore()},
		tokens: newMemTokens(),
		mail:   newAuthOutbox(),
		clock:  time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC),
	}
	f.auth = NewAuthService(f.users, f.tokens, f.mail, "secret", false, time.Hour, 24*time.Hour, time.Hour, 7*24*time.Hour)
	f.auth.now = func() time.Time { return f.clock }
	return f
}

func TestAuthRegisterLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.mail.err = errMailFailed
	auth := f.auth

	user, err := auth.Register(ctx, " Ada@Example.com ", "correct-horse-1", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" || !user.MilestoneReminders || !user.WeeklyDigest {
		t.Fatalf("user = %+v", user)
	}
	if user.PasswordHash == "correct-horse-1" {
		t.Fatal("password stored in plain text")
	}
	if user.IsVerified() {
		t.Fatal("new user is already verified")
	}
	if _, ok := f.mail.verify["ada@example.com"]; !ok {
		t.Fatalf("verification e-mails = %v", f.mail.verify)
	}
	if len(f.mail.welcome) != 0 {
		t.Fatalf("welcome sent before verification: %v", f.mail.welcome)
	}

	if _, err := auth.Register(ctx, "ada@example.com", "correct-horse-1", "Ada"); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrEmailAlreadyExists", err)
	}
	if _, err := auth.Register(ctx, "not-an-email", "correct-horse-1", "Ada"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	if _, err := auth.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	got, err := auth.Login(ctx, "ADA@example.com", "correct-horse-1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("logged in as %s, want %s", got.ID, user.ID)
	}
}

func TestAuthVerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	user, err := f.auth.Register(ctx, "ada@example.com", "correct-horse-1", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	token := f.mail.verify["ada@example.com"]

	if _, err := f.auth.VerifyEmail(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bad token err = %v, want ErrInvalidToken", err)
	}

	verified, err := f.auth.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if verified.ID != user.ID || !verified.IsVerified() {
		t.Fatalf("verified user = %+v", verified)
	}
	if len(f.mail.welcome) != 1 {
		t.Errorf("welcome e-mails = %v, want one after verification", f.mail.welcome)
	}

	if _, err := f.auth.VerifyEmail(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthVerifyEmailExpired(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	if _, err := f.auth.Register(ctx, "ada@example.com", "correct-horse-1", "Ada"); err != nil {
		t.Fatal(err)
	}
	f.clock = f.clock.Add(25 * time.Hour)

	if _, err := f.auth.VerifyEmail(ctx, f.mail.verify["ada@example.com"]); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	user, err := f.auth.Register(ctx, "ada@example.com", "correct-horse-1", "Ada")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.auth.ForgotPassword(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email err = %v, want nil", err)
	}
	if len(f.mail.reset) != 0 {
		t.Fatalf("reset mailed for unknown address: %v", f.mail.reset)
	}

	if err := f.auth.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatal(err)
	}
	first := f.mail.reset["ada@example.com"]
	if err := f.auth.ForgotPassword(ctx, " ADA@example.com"); err != nil {
		t.Fatal(err)
	}
	token := f.mail.reset["ada@example.com"]
	if token == "" || token == first {
		t.Fatalf("second request did not issue a fresh token")
	}

	if _, err := f.auth.ResetPassword(ctx, first, "battery-staple-2"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("superseded token err = %v, want ErrInvalidToken", err)
	}
	if _, err := f.auth.ResetPassword(ctx, token, "short"); !errors.Is(err, ErrValidation) {
		t.Errorf("weak password err = %v, want ErrValidation", err)
	}

	got, err := f.auth.ResetPassword(ctx, token, "battery-staple-2")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if got.ID != user.ID || !got.IsVerified() {
		t.Errorf("reset user = %+v", got)
	}

	if _, err := f.auth.Login(ctx, "ada@example.com", "correct-horse-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := f.auth.Login(ctx, "ada@example.com", "battery-staple-2"); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	if _, err := f.auth.ResetPassword(ctx, token, "another-staple-3"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthPasswordResetExpired(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	if _, err := f.auth.Register(ctx, "ada@example.com", "correct-horse-1", "Ada"); err != nil {
		t.Fatal(err)
	}
	if err := f.auth.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatal(err)
	}
	f.clock = f.clock.Add(time.Hour)

	if _, err := f.auth.ResetPassword(ctx, f.mail.reset["ada@example.com"], "battery-staple-2"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthCleanupTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	if _, err := f.auth.Register(ctx, "ada@example.com", "correct-horse-1", "Ada"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.auth.VerifyEmail(ctx, f.mail.verify["ada@example.com"]); err != nil {
		t.Fatal(err)
	}
	if err := f.auth.ForgotPassword(ctx, "ada@example.com"); err != nil {
		t.Fatal(err)
	}

	n, err := f.auth.CleanupTokens(ctx)
	if err != nil || n != 0 {
		t.Fatalf("early cleanup = %d, %v; want nothing inside the retention window", n, err)
	}

	// The used verify token and the expired reset token age out together.
	f.clock = f.clock.Add(8 * 24 * time.Hour)
	n, err = f.auth.CleanupTokens(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || f.tokens.len() != 0 {
		t.Errorf("cleaned %d, %d left; want 2, 0", n, f.tokens.len())
	}
}

func TestAuthJWT(t *testing.T) {
	newAuth := func(secret string, expiry time.Duration) *AuthService {
		return NewAuthService(memUsers{newMemStore()}, newMemTokens(), nil, secret, true, expiry, time.Hour, time.Hour, time.Hour)
	}
	auth := newAuth("secret", time.Hour)
	user := &model.User{ID: "u1", Email: "u1@example.com"}

	token, expiry, err := auth.GenerateJWT(user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if time.Until(expiry) <= 0 {
		t.Fatalf("expiry %s is in the past", expiry)
	}

	id, err := auth.UserID(token)
	if err != nil || id != "u1" {
		t.Fatalf("UserID = %q, %v", id, err)
	}

	if _, err := newAuth("different", time.Hour).UserID(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}

	old, _, err := newAuth("secret", -time.Minute).GenerateJWT(user)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := auth.UserID(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}

	rec := httptest.NewRecorder()
	auth.SetJWTCookie(rec, token, expiry)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AuthCookieName || !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("cookies = %+v", cookies)
	}
}
