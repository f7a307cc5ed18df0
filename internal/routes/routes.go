package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/templui/goaltracker/internal/app"
	"github.com/templui/goaltracker/internal/handler"
	"github.com/templui/goaltracker/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	account := handler.NewAccountHandler(app.UserService)
	goal := handler.NewGoalHandler(app.GoalService, app.MilestoneService, app.ExportService)
	milestone := handler.NewMilestoneHandler(app.MilestoneService)
	progress := handler.NewProgressHandler(app.ProgressService)
	analytics := handler.NewAnalyticsHandler(app.AnalyticsService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/verify-email/{token}", auth.VerifyEmail)
	mux.HandleFunc("POST /api/auth/resend-verification", rateLimiter(middleware.RequireAuth(auth.ResendVerification)))
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password/{token}", rateLimiter(auth.ResetPassword))

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Account
	mux.HandleFunc("GET /api/account", middleware.RequireAuth(account.Account))
	mux.HandleFunc("PUT /api/account", middleware.RequireAuth(account.UpdateProfile))
	mux.HandleFunc("PATCH /api/account/preferences", middleware.RequireAuth(account.UpdatePreferences))

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/stats", middleware.RequireAuth(goal.Stats))
	mux.HandleFunc("GET /api/goals/export", middleware.RequireAuth(goal.Export))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PUT /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("PATCH /api/goals/{id}/archive", middleware.RequireAuth(goal.Archive))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))
	mux.HandleFunc("GET /api/goals/{id}/milestones", middleware.RequireAuth(goal.Milestones))

	// Milestones
	mux.HandleFunc("POST /api/milestones", middleware.RequireAuth(milestone.Create))
	mux.HandleFunc("GET /api/milestones/upcoming", middleware.RequireAuth(milestone.Upcoming))
	mux.HandleFunc("PUT /api/milestones/{id}", middleware.RequireAuth(milestone.Update))
	mux.HandleFunc("PATCH /api/milestones/{id}/toggle", middleware.RequireAuth(milestone.Toggle))
	mux.HandleFunc("DELETE /api/milestones/{id}", middleware.RequireAuth(milestone.Delete))

	// Weekly progress
	mux.HandleFunc("POST /api/progress", middleware.RequireAuth(progress.Log))
	mux.HandleFunc("GET /api/progress/goal/{goalId}", middleware.RequireAuth(progress.History))
	mux.HandleFunc("GET /api/progress/weekly", middleware.RequireAuth(progress.Weekly))
	mux.HandleFunc("PUT /api/progress/{id}", middleware.RequireAuth(progress.Update))
	mux.HandleFunc("DELETE /api/progress/{id}", middleware.RequireAuth(progress.Delete))

	// Analytics
	mux.HandleFunc("GET /api/analytics/overview", middleware.RequireAuth(analytics.Overview))
	mux.HandleFunc("GET /api/analytics/monthly", middleware.RequireAuth(analytics.Monthly))
	mux.HandleFunc("GET /api/analytics/categories", middleware.RequireAuth(analytics.Categories))
	mux.HandleFunc("GET /api/analytics/trends", middleware.RequireAuth(analytics.Trends))
	mux.HandleFunc("GET /api/analytics/streak", middleware.RequireAuth(analytics.Streak))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging, // Last, so it sees the matched route pattern
	)

	return handler
}
