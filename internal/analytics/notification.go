package analytics

import (
	"sort"
	"time"

	"github.com/templui/goaltracker/internal/model"
)

const DefaultReminderWindowDays = 3

// DueMilestone is the reminder payload for one milestone.
type DueMilestone struct {
	MilestoneID string    `json:"milestoneId"`
	GoalID      string    `json:"goalId"`
	Title       string    `json:"title"`
	DueDate     time.Time `json:"dueDate"`
	GoalTitle   string    `json:"goalTitle"`
}

// DueMilestones lists incomplete milestones of active goals that fall due
// within [now, now+windowDays], earliest first.
func DueMilestones(goals []model.Goal, milestones []model.Milestone, now time.Time, windowDays int) []DueMilestone {
	if windowDays < 0 {
		windowDays = 0
	}
	end := now.AddDate(0, 0, windowDays)

	active := make(map[string]model.Goal, len(goals))
	for _, g := range goals {
		if g.Status.IsActive() {
			active[g.ID] = g
		}
	}

	var out []DueMilestone
	for _, m := range milestones {
		g, ok := active[m.GoalID]
		if !ok || m.Completed {
			continue
		}
		if m.DueDate.Before(now) || m.DueDate.After(end) {
			continue
		}
		out = append(out, DueMilestone{
			MilestoneID: m.ID,
			GoalID:      g.ID,
			Title:       m.Title,
			DueDate:     m.DueDate,
			GoalTitle:   g.Title,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// WeeklyStats is the digest payload.
type WeeklyStats struct {
	MilestonesCompleted int `json:"milestonesCompleted"`
	ActiveGoals         int `json:"activeGoals"`
	TotalProgress       int `json:"totalProgress"`
}

// BuildWeeklyStats counts milestones completed during the seven days before
// now and averages the progress of active goals.
func BuildWeeklyStats(goals []model.Goal, milestones []model.Milestone, now time.Time) WeeklyStats {
	weekAgo := now.AddDate(0, 0, -7)

	var s WeeklyStats
	for _, m := range milestones {
		if m.Completed && m.CompletedAt != nil && !m.CompletedAt.Before(weekAgo) {
			s.MilestonesCompleted++
		}
	}

	sum := 0
	for _, g := range goals {
		if g.Status.IsActive() {
			s.ActiveGoals++
			sum += g.Progress
		}
	}
	s.TotalProgress = average(sum, s.ActiveGoals)

	return s
}
