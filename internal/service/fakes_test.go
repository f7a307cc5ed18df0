package service

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/repository"
)

// memStore is an in-memory stand-in for the SQL repositories. WithTx restores
// the previous state when the callback fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users      map[string]model.User
	goals      map[string]model.Goal
	milestones map[string]model.Milestone
	entries    map[string]model.ProgressEntry
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]model.User{},
		goals:      map[string]model.Goal{},
		milestones: map[string]model.Milestone{},
		entries:    map[string]model.ProgressEntry{},
	}
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Goals:           memGoals{s},
		Milestones:      memMilestones{s},
		ProgressEntries: memEntries{s},
	}
}

func (s *memStore) WithTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	goals := maps.Clone(s.goals)
	milestones := maps.Clone(s.milestones)
	entries := maps.Clone(s.entries)
	s.mu.Unlock()

	err := fn(s.repos())
	if err != nil {
		s.mu.Lock()
		s.goals, s.milestones, s.entries = goals, milestones, entries
		s.mu.Unlock()
	}
	return err
}

type memGoals struct{ s *memStore }

func (r memGoals) Create(_ context.Context, g *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.goals[g.ID] = *g
	return nil
}

func (r memGoals) ByID(_ context.Context, id string) (*model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[id]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	return &g, nil
}

func (r memGoals) Goals(_ context.Context, userID string, f repository.GoalFilter) ([]model.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Goal
	for _, g := range r.s.goals {
		if g.UserID != userID {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if f.Category != "" && g.Category != f.Category {
			continue
		}
		if q := strings.ToLower(f.Search); q != "" &&
			!strings.Contains(strings.ToLower(g.Title), q) && !strings.Contains(strings.ToLower(g.Description), q) {
			continue
		}
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b model.Goal) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r memGoals) Update(_ context.Context, g *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.goals[g.ID]
	if !ok {
		return repository.ErrGoalNotFound
	}
	progress := cur.Progress
	cur = *g
	cur.Progress = progress
	r.s.goals[g.ID] = cur
	return nil
}

func (r memGoals) SaveProgress(_ context.Context, g *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.goals[g.ID]
	if !ok {
		return repository.ErrGoalNotFound
	}
	cur.Progress, cur.Status, cur.CompletedAt = g.Progress, g.Status, g.CompletedAt
	r.s.goals[g.ID] = cur
	return nil
}

func (r memGoals) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.goals[id]; !ok {
		return repository.ErrGoalNotFound
	}
	delete(r.s.goals, id)
	return nil
}

type memMilestones struct{ s *memStore }

func (r memMilestones) Create(_ context.Context, m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.milestones[m.ID] = *m
	return nil
}

func (r memMilestones) ByID(_ context.Context, id string) (*model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.milestones[id]
	if !ok {
		return nil, repository.ErrMilestoneNotFound
	}
	return &m, nil
}

func (r memMilestones) ByGoal(_ context.Context, goalID string) ([]model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Milestone
	for _, m := range r.s.milestones {
		if m.GoalID == goalID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b model.Milestone) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.DueDate.Compare(b.DueDate)
	})
	return out, nil
}

func (r memMilestones) ByUser(_ context.Context, userID string) ([]model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Milestone
	for _, m := range r.s.milestones {
		if g, ok := r.s.goals[m.GoalID]; ok && g.UserID == userID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b model.Milestone) int { return a.DueDate.Compare(b.DueDate) })
	return out, nil
}

func (r memMilestones) NextOrder(ctx context.Context, goalID string) (int, error) {
	list, _ := r.ByGoal(ctx, goalID)
	next := 0
	for _, m := range list {
		if m.Order >= next {
			next = m.Order + 1
		}
	}
	return next, nil
}

func (r memMilestones) Update(_ context.Context, m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.milestones[m.ID]; !ok {
		return repository.ErrMilestoneNotFound
	}
	r.s.milestones[m.ID] = *m
	return nil
}

func (r memMilestones) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.milestones[id]; !ok {
		return repository.ErrMilestoneNotFound
	}
	delete(r.s.milestones, id)
	return nil
}

func (r memMilestones) DeleteAllByGoal(_ context.Context, goalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.milestones {
		if m.GoalID == goalID {
			delete(r.s.milestones, id)
		}
	}
	return nil
}

type memEntries struct{ s *memStore }

func (r memEntries) Create(_ context.Context, e *model.ProgressEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.entries {
		if cur.UserID == e.UserID && cur.GoalID == e.GoalID && cur.WeekStartDate.Equal(e.WeekStartDate) {
			return repository.ErrDuplicateProgressEntry
		}
	}
	r.s.entries[e.ID] = *e
	return nil
}

func (r memEntries) ByID(_ context.Context, id string) (*model.ProgressEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, repository.ErrProgressEntryNotFound
	}
	return &e, nil
}

func (r memEntries) ByWeek(_ context.Context, userID, goalID string, weekStart time.Time) (*model.ProgressEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.UserID == userID && e.GoalID == goalID && e.WeekStartDate.Equal(weekStart) {
			return &e, nil
		}
	}
	return nil, repository.ErrProgressEntryNotFound
}

func (r memEntries) History(_ context.Context, userID, goalID string, limit int) ([]model.ProgressEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ProgressEntry
	for _, e := range r.s.entries {
		if e.UserID == userID && e.GoalID == goalID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b model.ProgressEntry) int { return b.WeekStartDate.Compare(a.WeekStartDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memEntries) InWeek(_ context.Context, userID string, start, end time.Time) ([]model.ProgressEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ProgressEntry
	for _, e := range r.s.entries {
		if e.UserID == userID && !e.WeekStartDate.Before(start) && !e.WeekStartDate.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEntries) Update(_ context.Context, e *model.ProgressEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entries[e.ID]; !ok {
		return repository.ErrProgressEntryNotFound
	}
	r.s.entries[e.ID] = *e
	return nil
}

func (r memEntries) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.entries[id]; !ok {
		return repository.ErrProgressEntryNotFound
	}
	delete(r.s.entries, id)
	return nil
}

func (r memEntries) DeleteAllByGoal(_ context.Context, goalID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.entries {
		if e.GoalID == goalID {
			delete(r.s.entries, id)
		}
	}
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.users {
		if cur.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) ByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) ByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r memUsers) UpdatePreferences(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	cur.Name, cur.MilestoneReminders, cur.WeeklyDigest = u.Name, u.MilestoneReminders, u.WeeklyDigest
	r.s.users[u.ID] = cur
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	cur.PasswordHash = hash
	r.s.users[id] = cur
	return nil
}

func (r memUsers) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if cur.EmailVerifiedAt == nil {
		cur.EmailVerifiedAt = &at
	}
	r.s.users[id] = cur
	return nil
}

// memTokens mirrors the SQL token store, including the single-use guard.
type memTokens struct {
	mu     sync.Mutex
	tokens map[string]model.Token
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]model.Token{}}
}

func (r *memTokens) Create(_ context.Context, t *model.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Token] = *t
	return nil
}

func (r *memTokens) Consume(_ context.Context, token, tokenType string, now time.Time) (*model.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.Type != tokenType || t.IsUsed() || t.IsExpired(now) {
		return nil, repository.ErrTokenNotFound
	}
	t.UsedAt = &now
	r.tokens[token] = t
	return &t, nil
}

func (r *memTokens) DeleteByUserAndType(_ context.Context, userID, tokenType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID && t.Type == tokenType {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *memTokens) CleanupExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if (t.UsedAt != nil && t.UsedAt.Before(cutoff)) || t.ExpiresAt.Before(cutoff) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memTokens) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

func (r memUsers) filter(keep func(model.User) bool) []model.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.Email, b.Email) })
	return out
}

func (r memUsers) WithReminders(context.Context) ([]model.User, error) {
	return r.filter(func(u model.User) bool { return u.MilestoneReminders }), nil
}

func (r memUsers) WithDigest(context.Context) ([]model.User, error) {
	return r.filter(func(u model.User) bool { return u.WeeklyDigest }), nil
}

// fixture wires every service to one memStore with a fixed clock.
type fixture struct {
	store      *memStore
	clock      time.Time
	goals      *GoalService
	milestones *MilestoneService
	progress   *ProgressService
	analytics  *AnalyticsService
}

func newFixture() *fixture {
	f := &fixture{
		store: newMemStore(),
		clock: time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), // Wednesday
	}
	repos := f.store.repos()
	locks := NewGoalLocks()
	now := func() time.Time { return f.clock }

	f.goals = NewGoalService(repos.Goals, repos.Milestones, f.store, locks)
	f.goals.now = now
	f.milestones = NewMilestoneService(repos.Goals, repos.Milestones, f.store, locks)
	f.milestones.now = now
	f.progress = NewProgressService(repos.Goals, repos.ProgressEntries)
	f.progress.now = now
	f.analytics = NewAnalyticsService(repos.Goals, repos.Milestones)
	f.analytics.now = now
	return f
}

func (f *fixture) goal(userID, title string) *model.Goal {
	g, err := f.goals.Create(context.Background(), userID, GoalInput{
		Title:      title,
		TargetDate: f.clock.AddDate(0, 1, 0),
	})
	if err != nil {
		panic(err)
	}
	return g
}

func (f *fixture) milestone(userID, goalID, title string, due time.Time) *model.Milestone {
	c, err := f.milestones.Create(context.Background(), userID, MilestoneInput{
		GoalID:  goalID,
		Title:   title,
		DueDate: due,
	})
	if err != nil {
		panic(err)
	}
	return c.Milestone
}

// fakeMailer records deliveries and can fail for chosen addresses.
type fakeMailer struct {
	mu        sync.Mutex
	reminders map[string][]analytics.DueMilestone
	digests   map[string]analytics.WeeklyStats
	failFor   map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		reminders: map[string][]analytics.DueMilestone{},
		digests:   map[string]analytics.WeeklyStats{},
		failFor:   map[string]bool{},
	}
}

func (m *fakeMailer) SendMilestoneReminder(_ context.Context, u model.User, due []analytics.DueMilestone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[u.Email] {
		return errMailFailed
	}
	m.reminders[u.Email] = due
	return nil
}

func (m *fakeMailer) SendWeeklyDigest(_ context.Context, u model.User, stats analytics.WeeklyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[u.Email] {
		return errMailFailed
	}
	m.digests[u.Email] = stats
	return nil
}

// memDeduper claims each key once.
type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}
