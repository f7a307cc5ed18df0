package handler

import (
	"net/http"

	"github.com/templui/goaltracker/internal/ctxkeys"
	"github.com/templui/goaltracker/internal/service"
)

type AccountHandler struct {
	userService *service.UserService
}

func NewAccountHandler(userService *service.UserService) *AccountHandler {
	return &AccountHandler{userService: userService}
}

func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, user)
}

// UpdateProfile changes the display name.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string `json:"name"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil {
		fail(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.userService.UpdatePreferences(r.Context(), ctxkeys.UserID(r.Context()), service.PreferencesUpdate{
		Name: req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, user)
}

func (h *AccountHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name               *string `json:"name"`
		MilestoneReminders *bool   `json:"milestoneReminders"`
		WeeklyDigest       *bool   `json:"weeklyDigest"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.UpdatePreferences(r.Context(), ctxkeys.UserID(r.Context()), service.PreferencesUpdate{
		Name:               req.Name,
		MilestoneReminders: req.MilestoneReminders,
		WeeklyDigest:       req.WeeklyDigest,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, user)
}
