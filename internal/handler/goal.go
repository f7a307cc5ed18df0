package handler

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/templui/goaltracker/internal/ctxkeys"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/service"
)

var goalSorts = []string{
	repository.GoalSortRecent,
	repository.GoalSortDueDate,
	repository.GoalSortPriority,
	repository.GoalSortProgress,
	repository.GoalSortTitle,
}

type GoalHandler struct {
	goalService      *service.GoalService
	milestoneService *service.MilestoneService
	exportService    *service.ExportService
}

func NewGoalHandler(
	goalService *service.GoalService,
	milestoneService *service.MilestoneService,
	exportService *service.ExportService,
) *GoalHandler {
	return &GoalHandler{
		goalService:      goalService,
		milestoneService: milestoneService,
		exportService:    exportService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.GoalFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}

	if s := q.Get("status"); s != "" {
		status, err := model.ParseGoalStatus(s)
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	if c := q.Get("category"); c != "" {
		category, err := model.ParseCategory(c)
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Category = category
	}
	if filter.Sort != "" && !slices.Contains(goalSorts, filter.Sort) {
		fail(w, http.StatusBadRequest, "invalid sort "+filter.Sort)
		return
	}

	goals, err := h.goalService.Goals(r.Context(), ctxkeys.UserID(r.Context()), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, goals)
}

type goalRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *model.Category   `json:"category"`
	Priority    *model.Priority   `json:"priority"`
	TargetDate  *string           `json:"targetDate"`
	Status      *model.GoalStatus `json:"status"`

	// Derived fields are rejected instead of silently dropped.
	Progress    json.RawMessage `json:"progress"`
	CompletedAt json.RawMessage `json:"completedAt"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Progress != nil || req.CompletedAt != nil {
		fail(w, http.StatusBadRequest, "progress and completedAt are derived from milestones")
		return
	}

	in := service.GoalInput{}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Category != nil {
		in.Category = *req.Category
	}
	if req.Priority != nil {
		in.Priority = *req.Priority
	}
	if req.TargetDate != nil {
		t, err := parseDate("targetDate", *req.TargetDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.TargetDate = t
	}

	goal, err := h.goalService.Create(r.Context(), ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created(w, "goal created", goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.ByID(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Progress != nil || req.CompletedAt != nil {
		fail(w, http.StatusBadRequest, "progress and completedAt are derived from milestones")
		return
	}

	target, err := parseOptionalDate("targetDate", req.TargetDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Update(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), service.GoalUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		TargetDate:  target,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok(w, goal)
}

func (h *GoalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.Archive(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	message(w, "goal deleted")
}

func (h *GoalHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.milestoneService.ByGoal(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, milestones)
}

func (h *GoalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.goalService.Stats(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, stats)
}

func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.exportService.Export(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, res)
}
