package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/templui/goaltracker/internal/model"
)

var ErrInvariantViolation = errors.New("goal invariant violated")

// ApplyStatusChange performs a user-driven status edit. Moving to completed
// stamps CompletedAt if it is unset; moving anywhere else clears it. Milestone
// progress is not consulted; the next milestone mutation runs Recompute again.
func ApplyStatusChange(goal *model.Goal, status model.GoalStatus, now time.Time) {
	goal.Status = status
	if status == model.GoalStatusCompleted {
		if goal.CompletedAt == nil {
			t := now
			goal.CompletedAt = &t
		}
		return
	}
	goal.CompletedAt = nil
}

// CheckInvariants validates a goal whose status was last set by Recompute.
// A failure means a bug upstream, never bad user input.
func CheckInvariants(goal model.Goal) error {
	if goal.Progress < 0 || goal.Progress > 100 {
		return fmt.Errorf("%w: goal %s progress %d out of range", ErrInvariantViolation, goal.ID, goal.Progress)
	}

	completed := goal.Status == model.GoalStatusCompleted
	if completed != (goal.CompletedAt != nil) {
		return fmt.Errorf("%w: goal %s status %s with completedAt=%v", ErrInvariantViolation, goal.ID, goal.Status, goal.CompletedAt)
	}

	if goal.Status == model.GoalStatusArchived {
		return nil
	}

	if completed != (goal.Progress == 100) {
		return fmt.Errorf("%w: goal %s status %s with progress %d", ErrInvariantViolation, goal.ID, goal.Status, goal.Progress)
	}

	return nil
}
