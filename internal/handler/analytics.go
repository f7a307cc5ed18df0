package handler

import (
	"net/http"

	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/ctxkeys"
	"github.com/templui/goaltracker/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analyticsService.Overview(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, overview)
}

func (h *AnalyticsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", analytics.DefaultMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.analyticsService.Monthly(r.Context(), ctxkeys.UserID(r.Context()), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, stats)
}

func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.analyticsService.Categories(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, categories)
}

func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	trend, err := h.analyticsService.Trends(r.Context(), ctxkeys.UserID(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, trend)
}

func (h *AnalyticsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.analyticsService.Streak(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, map[string]int{"streak": streak})
}
