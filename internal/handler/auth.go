package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/goaltracker/internal/ctxkeys"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type session struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.startSession(w, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created(w, "account created", s)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("password login failed", "error", err)
		writeError(w, r, err)
		return
	}

	s, err := h.startSession(w, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	ok(w, s)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	message(w, "logged out")
}

// VerifyEmail confirms the address behind a mailed verification link.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.VerifyEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, user)
}

// ResendVerification mails a fresh verification link to the signed-in user.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.User(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.SendVerification(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message(w, "verification email sent")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message(w, "if an account exists for this email, a reset link has been sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.ResetPassword(r.Context(), r.PathValue("token"), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.startSession(w, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, s)
}

// startSession issues a JWT both as cookie and in the body for API clients.
func (h *AuthHandler) startSession(w http.ResponseWriter, user *model.User) (*session, error) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		return nil, err
	}
	h.authService.SetJWTCookie(w, token, expiry)

	return &session{
		Token:     token,
		ExpiresAt: expiry.UTC().Format(time.RFC3339),
		User:      user,
	}, nil
}
