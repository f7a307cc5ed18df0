package model

import (
	"time"
)

type Milestone struct {
	ID          string     `db:"id" json:"id"`
	GoalID      string     `db:"goal_id" json:"goalId"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	DueDate     time.Time  `db:"due_date" json:"dueDate"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
	Order       int        `db:"sort_order" json:"order"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// SetCompleted flips the completion flag and keeps CompletedAt in step with it.
func (m *Milestone) SetCompleted(completed bool, now time.Time) {
	m.Completed = completed
	if completed {
		t := now
		m.CompletedAt = &t
		return
	}
	m.CompletedAt = nil
}
