// Package analytics builds read-only views over a user's goals and milestones.
// Every function is computed from a snapshot on demand and has no side effects.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/progress"
)

var ErrInvalidPeriod = errors.New("invalid trend period")

const (
	DefaultMonths = 6
	MaxMonths     = 60

	UpcomingWindowDays = 7
)

type CategorySummary struct {
	Category    model.Category `json:"category"`
	Label       string         `json:"label"`
	Total       int            `json:"total"`
	Active      int            `json:"active"`
	Completed   int            `json:"completed"`
	AvgProgress int            `json:"avgProgress"`
}

// average returns round-half-up(sum/n), or 0 when n is 0.
func average(sum, n int) int {
	if n == 0 {
		return 0
	}
	return (2*sum + n) / (2 * n)
}

// CategoryBreakdown reports every category, including empty ones, sorted by
// total descending. Ties keep the order of model.Categories.
func CategoryBreakdown(goals []model.Goal) []CategorySummary {
	index := make(map[model.Category]int, len(model.Categories))
	out := make([]CategorySummary, len(model.Categories))
	sums := make([]int, len(model.Categories))
	for i, c := range model.Categories {
		index[c] = i
		out[i] = CategorySummary{Category: c, Label: c.Label()}
	}

	for _, g := range goals {
		i, ok := index[g.Category]
		if !ok {
			i = index[model.CategoryOther]
		}
		out[i].Total++
		sums[i] += g.Progress
		switch {
		case g.Status.IsActive():
			out[i].Active++
		case g.Status == model.GoalStatusCompleted:
			out[i].Completed++
		}
	}

	for i := range out {
		out[i].AvgProgress = average(sums[i], out[i].Total)
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Total > out[b].Total })
	return out
}

type MonthStats struct {
	Month          string     `json:"month"`
	Year           int        `json:"year"`
	MonthNumber    time.Month `json:"monthNumber"`
	GoalsCreated   int        `json:"goalsCreated"`
	GoalsCompleted int        `json:"goalsCompleted"`
}

// MonthlyStats reports the trailing months (oldest first, current month last)
// in UTC calendar months.
func MonthlyStats(goals []model.Goal, months int, now time.Time) []MonthStats {
	if months <= 0 {
		months = DefaultMonths
	}
	if months > MaxMonths {
		months = MaxMonths
	}

	y, m, _ := now.UTC().Date()
	current := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	out := make([]MonthStats, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		ms := MonthStats{
			Month:       start.Format("Jan 2006"),
			Year:        start.Year(),
			MonthNumber: start.Month(),
		}
		for _, g := range goals {
			if inRange(g.CreatedAt, start, end) {
				ms.GoalsCreated++
			}
			if g.Status == model.GoalStatusCompleted && g.CompletedAt != nil && inRange(*g.CompletedAt, start, end) {
				ms.GoalsCompleted++
			}
		}
		out = append(out, ms)
	}

	return out
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodWeek, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Window is the trailing range covered by a trend of this period.
func (p Period) Window() time.Duration {
	switch p {
	case PeriodDay:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 365 * 24 * time.Hour
	default:
		return 28 * 24 * time.Hour
	}
}

// BucketKey formats t as the bucket it falls in. Week keys use the
// Sunday-based week of the year (strftime %U), so days before the first
// Sunday belong to week 00.
func (p Period) BucketKey(t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodDay:
		return t.Format("2006-01-02")
	case PeriodMonth:
		return t.Format("2006-01")
	default:
		week := (t.YearDay() - 1 + 7 - int(t.Weekday())) / 7
		return fmt.Sprintf("%04d-W%02d", t.Year(), week)
	}
}

type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type Trend struct {
	Period     Period   `json:"period"`
	Goals      []Bucket `json:"goals"`
	Milestones []Bucket `json:"milestones"`
}

// CompletionTrend buckets completed goals and milestones inside the period's
// trailing window. Buckets are sorted by key ascending.
func CompletionTrend(goals []model.Goal, milestones []model.Milestone, period Period, now time.Time) Trend {
	since := now.Add(-period.Window())

	goalCounts := map[string]int{}
	for _, g := range goals {
		if g.Status != model.GoalStatusCompleted || g.CompletedAt == nil || g.CompletedAt.Before(since) {
			continue
		}
		goalCounts[period.BucketKey(*g.CompletedAt)]++
	}

	milestoneCounts := map[string]int{}
	for _, m := range milestones {
		if !m.Completed || m.CompletedAt == nil || m.CompletedAt.Before(since) {
			continue
		}
		milestoneCounts[period.BucketKey(*m.CompletedAt)]++
	}

	return Trend{
		Period:     period,
		Goals:      buckets(goalCounts),
		Milestones: buckets(milestoneCounts),
	}
}

func buckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for k, c := range counts {
		out = append(out, Bucket{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CompletionTimes returns the completion timestamps of completed milestones,
// the input to progress.Streak.
func CompletionTimes(milestones []model.Milestone) []time.Time {
	var out []time.Time
	for _, m := range milestones {
		if m.Completed && m.CompletedAt != nil {
			out = append(out, *m.CompletedAt)
		}
	}
	return out
}

type Overview struct {
	TotalGoals              int `json:"totalGoals"`
	ActiveGoals             int `json:"activeGoals"`
	CompletedGoals          int `json:"completedGoals"`
	TotalMilestones         int `json:"totalMilestones"`
	CompletedMilestones     int `json:"completedMilestones"`
	CompletionRate          int `json:"completionRate"`
	AvgProgress             int `json:"avgProgress"`
	CurrentStreak           int `json:"currentStreak"`
	GoalsCompletedThisMonth int `json:"goalsCompletedThisMonth"`
	UpcomingMilestones      int `json:"upcomingMilestones"`
}

func BuildOverview(goals []model.Goal, milestones []model.Milestone, now time.Time) Overview {
	o := Overview{
		TotalGoals:      len(goals),
		TotalMilestones: len(milestones),
	}

	y, m, _ := now.UTC().Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	activeSum := 0
	for _, g := range goals {
		switch {
		case g.Status.IsActive():
			o.ActiveGoals++
			activeSum += g.Progress
		case g.Status == model.GoalStatusCompleted:
			o.CompletedGoals++
			if g.CompletedAt != nil && !g.CompletedAt.Before(monthStart) {
				o.GoalsCompletedThisMonth++
			}
		}
	}

	upcomingEnd := now.AddDate(0, 0, UpcomingWindowDays)
	for _, ms := range milestones {
		if ms.Completed {
			o.CompletedMilestones++
			continue
		}
		if !ms.DueDate.Before(now) && !ms.DueDate.After(upcomingEnd) {
			o.UpcomingMilestones++
		}
	}

	o.CompletionRate = progress.Percent(o.CompletedGoals, o.TotalGoals)
	o.AvgProgress = average(activeSum, o.ActiveGoals)
	o.CurrentStreak = progress.Streak(CompletionTimes(milestones), now)

	return o
}

type GoalStats struct {
	Total             int                    `json:"total"`
	Active            int                    `json:"active"`
	Completed         int                    `json:"completed"`
	Archived          int                    `json:"archived"`
	AvgProgress       int                    `json:"avgProgress"`
	CategoryBreakdown map[model.Category]int `json:"categoryBreakdown"`
	PriorityBreakdown map[model.Priority]int `json:"priorityBreakdown"`
}

func BuildGoalStats(goals []model.Goal) GoalStats {
	s := GoalStats{
		Total:             len(goals),
		CategoryBreakdown: map[model.Category]int{},
		PriorityBreakdown: map[model.Priority]int{},
	}

	activeSum := 0
	for _, g := range goals {
		switch {
		case g.Status.IsActive():
			s.Active++
			activeSum += g.Progress
		case g.Status == model.GoalStatusCompleted:
			s.Completed++
		case g.Status == model.GoalStatusArchived:
			s.Archived++
		}
		s.CategoryBreakdown[g.Category]++
		s.PriorityBreakdown[g.Priority]++
	}
	s.AvgProgress = average(activeSum, s.Active)

	return s
}
