package analytics

import (
	"testing"
	"time"

	"github.com/templui/goaltracker/internal/model"
)

func TestDueMilestones(t *testing.T) {
	goals := []model.Goal{
		{ID: "run", Title: "Run a marathon", Status: model.GoalStatusInProgress},
		{ID: "save", Title: "Save money", Status: model.GoalStatusNotStarted},
		{ID: "old", Title: "Archived", Status: model.GoalStatusArchived},
		{ID: "done", Title: "Done", Status: model.GoalStatusCompleted},
	}
	milestones := []model.Milestone{
		{ID: "m1", GoalID: "run", Title: "10k", DueDate: now.AddDate(0, 0, 2)},
		{ID: "m2", GoalID: "save", Title: "Budget", DueDate: now.Add(time.Hour)},
		{ID: "m3", GoalID: "run", Title: "Half", DueDate: now.AddDate(0, 0, 5)},
		{ID: "m4", GoalID: "run", Title: "Shoes", DueDate: now.AddDate(0, 0, 1), Completed: true, CompletedAt: ptr(now)},
		{ID: "m5", GoalID: "old", Title: "Ignored", DueDate: now.AddDate(0, 0, 1)},
		{ID: "m6", GoalID: "done", Title: "Ignored", DueDate: now.AddDate(0, 0, 1)},
		{ID: "m7", GoalID: "run", Title: "Overdue", DueDate: now.Add(-time.Hour)},
	}

	got := DueMilestones(goals, milestones, now, DefaultReminderWindowDays)
	if len(got) != 2 {
		t.Fatalf("got %d reminders, want 2: %+v", len(got), got)
	}
	if got[0].Title != "Budget" || got[0].GoalTitle != "Save money" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Title != "10k" || got[1].GoalTitle != "Run a marathon" || !got[1].DueDate.Equal(now.AddDate(0, 0, 2)) {
		t.Errorf("second = %+v", got[1])
	}

	if n := len(DueMilestones(goals, milestones, now, 7)); n != 3 {
		t.Errorf("7 day window = %d, want 3", n)
	}
}

func TestBuildWeeklyStats(t *testing.T) {
	goals := []model.Goal{
		{Status: model.GoalStatusInProgress, Progress: 60},
		{Status: model.GoalStatusNotStarted, Progress: 0},
		{Status: model.GoalStatusCompleted, Progress: 100},
	}
	milestones := []model.Milestone{
		{Completed: true, CompletedAt: ptr(now.AddDate(0, 0, -1))},
		{Completed: true, CompletedAt: ptr(now.AddDate(0, 0, -6))},
		{Completed: true, CompletedAt: ptr(now.AddDate(0, 0, -8))},
		{Completed: false},
	}

	got := BuildWeeklyStats(goals, milestones, now)
	want := WeeklyStats{MilestonesCompleted: 2, ActiveGoals: 2, TotalProgress: 30}
	if got != want {
		t.Errorf("weekly stats = %+v, want %+v", got, want)
	}

	if empty := BuildWeeklyStats(nil, nil, now); empty != (WeeklyStats{}) {
		t.Errorf("empty stats = %+v", empty)
	}
}
