package model

import (
	"time"
)

// ProgressEntry is a weekly journal record for a goal. It never feeds the
// milestone-derived Goal.Progress.
type ProgressEntry struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"userId"`
	GoalID             string    `db:"goal_id" json:"goalId"`
	WeekStartDate      time.Time `db:"week_start_date" json:"weekStartDate"`
	WeekEndDate        time.Time `db:"week_end_date" json:"weekEndDate"`
	Notes              string    `db:"notes" json:"notes"`
	ProgressPercentage int       `db:"progress_percentage" json:"progressPercentage"`
	HoursSpent         float64   `db:"hours_spent" json:"hoursSpent"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}
