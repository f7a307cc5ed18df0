// Package progress holds the rules that keep a goal's derived progress and
// status consistent with its milestones, plus the activity streak.
//
// Everything here is pure: callers load state, call these functions and
// persist the result.
package progress

import (
	"time"

	"github.com/templui/goaltracker/internal/model"
)

// Result is the derived state of a goal after recalculation.
type Result struct {
	Progress    int
	Status      model.GoalStatus
	CompletedAt *time.Time
}

// Apply copies the derived fields onto goal.
func (r Result) Apply(goal *model.Goal) {
	goal.Progress = r.Progress
	goal.Status = r.Status
	goal.CompletedAt = r.CompletedAt
}

// Changed reports whether applying r would modify goal.
func (r Result) Changed(goal model.Goal) bool {
	if r.Progress != goal.Progress || r.Status != goal.Status {
		return true
	}
	if (r.CompletedAt == nil) != (goal.CompletedAt == nil) {
		return true
	}
	return r.CompletedAt != nil && !r.CompletedAt.Equal(*goal.CompletedAt)
}

// Percent returns round-half-up(100*completed/total), or 0 when total is 0.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return (200*completed + total) / (2 * total)
}

// Recompute derives progress from milestones and applies the milestone-driven
// status transitions. Archived goals get a fresh progress value but keep their
// status and completion timestamp.
func Recompute(goal model.Goal, milestones []model.Milestone, now time.Time) Result {
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}

	res := Result{
		Progress:    Percent(done, len(milestones)),
		Status:      goal.Status,
		CompletedAt: goal.CompletedAt,
	}

	if res.Status == model.GoalStatusArchived {
		return res
	}

	// auto-complete
	if res.Progress == 100 && res.Status != model.GoalStatusCompleted {
		res.Status = model.GoalStatusCompleted
		if res.CompletedAt == nil {
			t := now
			res.CompletedAt = &t
		}
	}

	// auto-start
	if res.Progress > 0 && res.Status == model.GoalStatusNotStarted {
		res.Status = model.GoalStatusInProgress
	}

	// auto-revert; also covers the empty milestone set
	if res.Progress < 100 && res.Status == model.GoalStatusCompleted {
		res.Status = model.GoalStatusInProgress
		res.CompletedAt = nil
	}

	return res
}
