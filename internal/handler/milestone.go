package handler

import (
	"net/http"

	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/ctxkeys"
	"github.com/templui/goaltracker/internal/service"
)

type MilestoneHandler struct {
	milestoneService *service.MilestoneService
}

func NewMilestoneHandler(milestoneService *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

type milestoneRequest struct {
	GoalID      string  `json:"goalId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   *bool   `json:"completed"`
	Order       *int    `json:"order"`
}

func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req milestoneRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := service.MilestoneInput{GoalID: req.GoalID, Order: req.Order}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.DueDate != nil {
		due, err := parseDate("dueDate", *req.DueDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.DueDate = due
	}

	change, err := h.milestoneService.Create(r.Context(), ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created(w, "milestone created", change)
}

func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req milestoneRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	due, err := parseOptionalDate("dueDate", req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	change, err := h.milestoneService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.MilestoneUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Completed:   req.Completed,
		Order:       req.Order,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, change)
}

func (h *MilestoneHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	change, err := h.milestoneService.Toggle(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, change)
}

func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	goal, err := h.milestoneService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, service.MilestoneChange{Goal: *goal})
}

func (h *MilestoneHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", analytics.UpcomingWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	due, err := h.milestoneService.Upcoming(r.Context(), ctxkeys.UserID(r.Context()), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if due == nil {
		due = []analytics.DueMilestone{}
	}

	ok(w, due)
}
