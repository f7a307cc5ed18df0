package model

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Category string

const (
	CategoryHealth    Category = "health"
	CategoryCareer    Category = "career"
	CategoryEducation Category = "education"
	CategoryFinance   Category = "finance"
	CategoryPersonal  Category = "personal"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryHealth,
	CategoryCareer,
	CategoryEducation,
	CategoryFinance,
	CategoryPersonal,
	CategoryOther,
}

func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// Label returns the human readable name used in e-mails and reports.
// Casers are stateful, so each call builds its own.
func (c Category) Label() string {
	return cases.Title(language.English).String(string(c))
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not-started"
	GoalStatusInProgress GoalStatus = "in-progress"
	GoalStatusCompleted  GoalStatus = "completed"
	GoalStatusArchived   GoalStatus = "archived"
)

var GoalStatuses = []GoalStatus{
	GoalStatusNotStarted,
	GoalStatusInProgress,
	GoalStatusCompleted,
	GoalStatusArchived,
}

func ParseGoalStatus(s string) (GoalStatus, error) {
	for _, st := range GoalStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// IsActive reports whether the goal still counts as being worked on.
func (s GoalStatus) IsActive() bool {
	return s == GoalStatusNotStarted || s == GoalStatusInProgress
}

type Goal struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"userId"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Category    Category   `db:"category" json:"category"`
	Priority    Priority   `db:"priority" json:"priority"`
	TargetDate  time.Time  `db:"target_date" json:"targetDate"`
	Status      GoalStatus `db:"status" json:"status"`
	Progress    int        `db:"progress" json:"progress"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}
