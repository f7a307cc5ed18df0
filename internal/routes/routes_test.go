package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/templui/goaltracker/internal/app"
	"github.com/templui/goaltracker/internal/config"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) (int, apiResponse) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	var res apiResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			c.t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, res
}

func (c *client) must(method, path string, body any, wantStatus int, dst any) {
	c.t.Helper()
	status, res := c.do(method, path, body)
	if status != wantStatus {
		c.t.Fatalf("%s %s: status = %d (%s), want %d", method, path, status, res.Message, wantStatus)
	}
	if dst != nil {
		if err := json.Unmarshal(res.Data, dst); err != nil {
			c.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		AppName:        "Goal Tracker",
		AppEnv:         "development",
		AppURL:         "http://localhost:8090",
		DBDriver:       "sqlite",
		DBConnection:   ":memory:",
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		MetricsEnabled: true,

		TokenEmailVerifyExpiry:   24 * time.Hour,
		TokenPasswordResetExpiry: time.Hour,
		TokenRetention:           24 * time.Hour,
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return SetupRoutes(a)
}

func register(t *testing.T, h http.Handler, email string) *client {
	t.Helper()
	c := &client{t: t, h: h}
	var s struct {
		Token string `json:"token"`
	}
	c.must(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "long-enough-secret",
		"name":     "Tester",
	}, http.StatusCreated, &s)
	c.token = s.Token
	return c
}

type goalJSON struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completedAt"`
	Milestones  []struct {
		ID string `json:"id"`
	} `json:"milestones"`
}

type changeJSON struct {
	Milestone struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
	} `json:"milestone"`
	Goal goalJSON `json:"goal"`
}

func TestGoalLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t)
	alice := register(t, h, "alice@example.com")

	target := time.Now().UTC().AddDate(0, 2, 0).Format(time.DateOnly)
	var goal goalJSON
	alice.must(http.MethodPost, "/api/goals", map[string]any{
		"title":      "Run a marathon",
		"category":   "health",
		"priority":   "high",
		"targetDate": target,
	}, http.StatusCreated, &goal)
	if goal.Status != "not-started" || goal.Progress != 0 {
		t.Fatalf("new goal = %+v", goal)
	}

	var ids []string
	for i := range 4 {
		var c changeJSON
		alice.must(http.MethodPost, "/api/milestones", map[string]any{
			"goalId":  goal.ID,
			"title":   "step",
			"dueDate": time.Now().UTC().AddDate(0, 0, i+1).Format(time.DateOnly),
		}, http.StatusCreated, &c)
		ids = append(ids, c.Milestone.ID)
	}

	var c changeJSON
	alice.must(http.MethodPatch, "/api/milestones/"+ids[0]+"/toggle", nil, http.StatusOK, &c)
	if c.Goal.Progress != 25 || c.Goal.Status != "in-progress" {
		t.Fatalf("after first toggle goal = %+v", c.Goal)
	}
	for _, id := range ids[1:] {
		alice.must(http.MethodPatch, "/api/milestones/"+id+"/toggle", nil, http.StatusOK, &c)
	}
	if c.Goal.Progress != 100 || c.Goal.Status != "completed" || c.Goal.CompletedAt == nil {
		t.Fatalf("after all toggles goal = %+v", c.Goal)
	}

	alice.must(http.MethodPatch, "/api/milestones/"+ids[0]+"/toggle", nil, http.StatusOK, &c)
	alice.must(http.MethodDelete, "/api/milestones/"+ids[1], nil, http.StatusOK, &c)
	if c.Goal.Progress != 67 || c.Goal.Status != "in-progress" || c.Goal.CompletedAt != nil {
		t.Fatalf("after reopen and delete goal = %+v", c.Goal)
	}

	var detail goalJSON
	alice.must(http.MethodGet, "/api/goals/"+goal.ID, nil, http.StatusOK, &detail)
	if len(detail.Milestones) != 3 || detail.Progress != 67 {
		t.Fatalf("detail = %+v", detail)
	}

	var streak struct {
		Streak int `json:"streak"`
	}
	alice.must(http.MethodGet, "/api/analytics/streak", nil, http.StatusOK, &streak)
	if streak.Streak != 1 {
		t.Fatalf("streak = %d, want 1", streak.Streak)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t)
	alice := register(t, h, "alice@example.com")
	bob := register(t, h, "bob@example.com")

	target := time.Now().UTC().AddDate(0, 1, 0)
	var goal goalJSON
	alice.must(http.MethodPost, "/api/goals", map[string]any{
		"title":      "Private",
		"targetDate": target.Format(time.RFC3339),
	}, http.StatusCreated, &goal)

	tests := []struct {
		name   string
		c      *client
		method string
		path   string
		body   any
		want   int
	}{
		{"anonymous", &client{t: t, h: h}, http.MethodGet, "/api/goals", nil, http.StatusUnauthorized},
		{"other user's goal", bob, http.MethodGet, "/api/goals/" + goal.ID, nil, http.StatusForbidden},
		{"unknown goal", alice, http.MethodGet, "/api/goals/missing", nil, http.StatusNotFound},
		{"progress is derived", alice, http.MethodPut, "/api/goals/" + goal.ID, map[string]any{"progress": 80}, http.StatusBadRequest},
		{"bad status", alice, http.MethodPut, "/api/goals/" + goal.ID, map[string]any{"status": "done"}, http.StatusBadRequest},
		{"bad date", alice, http.MethodPost, "/api/goals", map[string]any{"title": "x", "targetDate": "next week"}, http.StatusBadRequest},
		{"due after target", alice, http.MethodPost, "/api/milestones", map[string]any{
			"goalId":  goal.ID,
			"title":   "late",
			"dueDate": target.AddDate(0, 0, 1).Format(time.DateOnly),
		}, http.StatusBadRequest},
		{"bad trend period", alice, http.MethodGet, "/api/analytics/trends?period=year", nil, http.StatusBadRequest},
		{"bad sort", alice, http.MethodGet, "/api/goals?sort=random", nil, http.StatusBadRequest},
		{"duplicate email", &client{t: t, h: h}, http.MethodPost, "/api/auth/register", map[string]string{
			"email": "alice@example.com", "password": "long-enough-secret", "name": "Again",
		}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.c.t = t
			status, res := tt.c.do(tt.method, tt.path, tt.body)
			if status != tt.want {
				t.Fatalf("status = %d (%s), want %d", status, res.Message, tt.want)
			}
			if res.Success {
				t.Fatal("error response has success=true")
			}
		})
	}
}

func TestWeeklyProgressOverHTTP(t *testing.T) {
	h := newTestServer(t)
	alice := register(t, h, "alice@example.com")

	var goal goalJSON
	alice.must(http.MethodPost, "/api/goals", map[string]any{
		"title":      "Study",
		"targetDate": time.Now().UTC().AddDate(0, 1, 0).Format(time.DateOnly),
	}, http.StatusCreated, &goal)

	entry := map[string]any{"goalId": goal.ID, "notes": "chapter 1", "progressPercentage": 20, "hoursSpent": 3}
	alice.must(http.MethodPost, "/api/progress", entry, http.StatusCreated, nil)

	status, _ := alice.do(http.MethodPost, "/api/progress", entry)
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate week status = %d, want 400", status)
	}

	var weekly []map[string]any
	alice.must(http.MethodGet, "/api/progress/weekly", nil, http.StatusOK, &weekly)
	if len(weekly) != 1 {
		t.Fatalf("weekly = %v", weekly)
	}

	var history []map[string]any
	alice.must(http.MethodGet, "/api/progress/goal/"+goal.ID+"?limit=5", nil, http.StatusOK, &history)
	if len(history) != 1 {
		t.Fatalf("history = %v", history)
	}

	var detail goalJSON
	alice.must(http.MethodGet, "/api/goals/"+goal.ID, nil, http.StatusOK, &detail)
	if detail.Progress != 0 {
		t.Fatalf("progress entry changed goal progress to %d", detail.Progress)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("goaltracker_")) {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

func TestAccountRecoveryOverHTTP(t *testing.T) {
	h := newTestServer(t)
	ada := register(t, h, "ada@example.com")

	var me struct {
		Name            string     `json:"name"`
		EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	}
	ada.must(http.MethodGet, "/api/account", nil, http.StatusOK, &me)
	if me.EmailVerifiedAt != nil {
		t.Fatalf("fresh account already verified at %v", me.EmailVerifiedAt)
	}

	ada.must(http.MethodPut, "/api/account", map[string]string{"name": "Ada Lovelace"}, http.StatusOK, &me)
	if me.Name != "Ada Lovelace" {
		t.Fatalf("name = %q", me.Name)
	}
	ada.must(http.MethodPut, "/api/account", map[string]string{}, http.StatusBadRequest, nil)

	anon := &client{t: t, h: h}
	status, res := anon.do(http.MethodGet, "/api/auth/verify-email/not-a-real-token", nil)
	if status != http.StatusBadRequest || res.Message != "invalid or expired token" {
		t.Fatalf("verify bad token = %d %q", status, res.Message)
	}
	anon.must(http.MethodPost, "/api/auth/reset-password/not-a-real-token", map[string]string{
		"password": "brand-new-secret",
	}, http.StatusBadRequest, nil)

	// Unknown and known addresses get the same answer.
	anon.must(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@example.com"}, http.StatusOK, nil)
	anon.must(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "ada@example.com"}, http.StatusOK, nil)
}
