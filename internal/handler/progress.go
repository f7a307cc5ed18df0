package handler

import (
	"net/http"
	"time"

	"github.com/templui/goaltracker/internal/ctxkeys"
	"github.com/templui/goaltracker/internal/service"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

type progressRequest struct {
	GoalID             string   `json:"goalId"`
	WeekStartDate      string   `json:"weekStartDate"`
	WeekEndDate        string   `json:"weekEndDate"`
	Notes              *string  `json:"notes"`
	ProgressPercentage *int     `json:"progressPercentage"`
	HoursSpent         *float64 `json:"hoursSpent"`
}

// Log records this week's entry. Missing week dates default to the current
// Sunday-start week.
func (h *ProgressHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := service.ProgressEntryInput{GoalID: req.GoalID}
	in.WeekStartDate, in.WeekEndDate = service.WeekBounds(time.Now())
	if req.WeekStartDate != "" {
		t, err := parseDate("weekStartDate", req.WeekStartDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.WeekStartDate = t
	}
	if req.WeekEndDate != "" {
		t, err := parseDate("weekEndDate", req.WeekEndDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.WeekEndDate = t
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	if req.ProgressPercentage != nil {
		in.ProgressPercentage = *req.ProgressPercentage
	}
	if req.HoursSpent != nil {
		in.HoursSpent = *req.HoursSpent
	}

	entry, err := h.progressService.Log(r.Context(), ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created(w, "progress logged", entry)
}

func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultHistoryLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.progressService.History(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("goalId"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, entries)
}

func (h *ProgressHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progressService.Weekly(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, entries)
}

func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.progressService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.ProgressEntryUpdate{
		Notes:              req.Notes,
		ProgressPercentage: req.ProgressPercentage,
		HoursSpent:         req.HoursSpent,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, entry)
}

func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.progressService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	message(w, "progress entry deleted")
}
