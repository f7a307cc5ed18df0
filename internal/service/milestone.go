package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/metrics"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/progress"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/validation"
)

type MilestoneInput struct {
	GoalID      string
	Title       string
	Description string
	DueDate     time.Time
	Order       *int
}

// MilestoneUpdate is a partial edit; nil fields are left untouched.
type MilestoneUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
	Order       *int
}

// MilestoneChange is the result of a milestone mutation: the milestone as
// stored and its goal after recalculation.
type MilestoneChange struct {
	Milestone *model.Milestone `json:"milestone,omitempty"`
	Goal      model.Goal       `json:"goal"`
}

type MilestoneService struct {
	goals      repository.GoalRepository
	milestones repository.MilestoneRepository
	tx         repository.Transactor
	locks      *GoalLocks
	now        func() time.Time
}

func NewMilestoneService(
	goals repository.GoalRepository,
	milestones repository.MilestoneRepository,
	tx repository.Transactor,
	locks *GoalLocks,
) *MilestoneService {
	return &MilestoneService{
		goals:      goals,
		milestones: milestones,
		tx:         tx,
		locks:      locks,
		now:        time.Now,
	}
}

func (s *MilestoneService) Create(ctx context.Context, userID string, in MilestoneInput) (*MilestoneChange, error) {
	err := validateMilestoneText(in.Title, in.Description)
	if err != nil {
		return nil, err
	}
	if in.DueDate.IsZero() {
		return nil, invalid("due date is required")
	}
	if in.GoalID == "" {
		return nil, invalid("goal id is required")
	}

	var created model.Milestone
	goal, err := s.mutate(ctx, userID, in.GoalID, "create", func(repos repository.Repositories, goal *model.Goal) error {
		if err := checkDueDate(in.DueDate, goal.TargetDate); err != nil {
			return err
		}

		order := 0
		if in.Order != nil {
			order = *in.Order
		} else {
			next, err := repos.Milestones.NextOrder(ctx, goal.ID)
			if err != nil {
				return err
			}
			order = next
		}

		now := s.now()
		created = model.Milestone{
			ID:          uuid.New().String(),
			GoalID:      goal.ID,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			DueDate:     in.DueDate.UTC(),
			Order:       order,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return repos.Milestones.Create(ctx, &created)
	})
	if err != nil {
		return nil, err
	}

	return &MilestoneChange{Milestone: &created, Goal: *goal}, nil
}

func (s *MilestoneService) Update(ctx context.Context, userID, milestoneID string, upd MilestoneUpdate) (*MilestoneChange, error) {
	return s.change(ctx, userID, milestoneID, "update", func(m *model.Milestone, goal *model.Goal) error {
		if upd.Title != nil {
			m.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Description != nil {
			m.Description = *upd.Description
		}
		if upd.DueDate != nil {
			m.DueDate = upd.DueDate.UTC()
		}
		if upd.Order != nil {
			m.Order = *upd.Order
		}
		if upd.Completed != nil && *upd.Completed != m.Completed {
			m.SetCompleted(*upd.Completed, s.now())
		}

		if err := validateMilestoneText(m.Title, m.Description); err != nil {
			return err
		}
		if upd.DueDate == nil {
			return nil
		}
		return checkDueDate(m.DueDate, goal.TargetDate)
	})
}

// Toggle flips the completion state of a milestone.
func (s *MilestoneService) Toggle(ctx context.Context, userID, milestoneID string) (*MilestoneChange, error) {
	return s.change(ctx, userID, milestoneID, "toggle", func(m *model.Milestone, _ *model.Goal) error {
		m.SetCompleted(!m.Completed, s.now())
		return nil
	})
}

func (s *MilestoneService) Delete(ctx context.Context, userID, milestoneID string) (*model.Goal, error) {
	m, err := s.milestones.ByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, m.GoalID, "delete", func(repos repository.Repositories, _ *model.Goal) error {
		return repos.Milestones.Delete(ctx, milestoneID)
	})
}

func (s *MilestoneService) ByGoal(ctx context.Context, userID, goalID string) ([]model.Milestone, error) {
	_, err := owned(ctx, s.goals, userID, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.milestones.ByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}
	if milestones == nil {
		milestones = []model.Milestone{}
	}
	return milestones, nil
}

// Upcoming lists incomplete milestones of active goals due in the next days.
func (s *MilestoneService) Upcoming(ctx context.Context, userID string, days int) ([]analytics.DueMilestone, error) {
	if days <= 0 {
		days = analytics.UpcomingWindowDays
	}
	if days > 365 {
		return nil, invalid("days must be at most 365")
	}

	goals, err := s.goals.Goals(ctx, userID, repository.GoalFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	milestones, err := s.milestones.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}

	return analytics.DueMilestones(goals, milestones, s.now(), days), nil
}

// change loads a milestone, lets fn edit it and stores it together with the
// recalculated goal.
func (s *MilestoneService) change(
	ctx context.Context,
	userID, milestoneID, trigger string,
	fn func(m *model.Milestone, goal *model.Goal) error,
) (*MilestoneChange, error) {
	current, err := s.milestones.ByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	var updated model.Milestone
	goal, err := s.mutate(ctx, userID, current.GoalID, trigger, func(repos repository.Repositories, goal *model.Goal) error {
		m, err := repos.Milestones.ByID(ctx, milestoneID)
		if err != nil {
			return err
		}
		if err := fn(m, goal); err != nil {
			return err
		}
		if err := repos.Milestones.Update(ctx, m); err != nil {
			return err
		}
		updated = *m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &MilestoneChange{Milestone: &updated, Goal: *goal}, nil
}

// mutate runs write inside one transaction with the goal locked, then
// recalculates the goal from its milestones and saves it. Nothing is stored
// when the recalculated goal breaks an invariant.
func (s *MilestoneService) mutate(
	ctx context.Context,
	userID, goalID, trigger string,
	write func(repos repository.Repositories, goal *model.Goal) error,
) (*model.Goal, error) {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	var (
		saved model.Goal
		from  model.GoalStatus
	)
	err := s.tx.WithTx(ctx, func(repos repository.Repositories) error {
		goal, err := owned(ctx, repos.Goals, userID, goalID)
		if err != nil {
			return err
		}
		from = goal.Status

		if err := write(repos, goal); err != nil {
			return err
		}

		milestones, err := repos.Milestones.ByGoal(ctx, goalID)
		if err != nil {
			return fmt.Errorf("failed to load milestones: %w", err)
		}

		res := progress.Recompute(*goal, milestones, s.now())
		res.Apply(goal)

		if err := progress.CheckInvariants(goal); err != nil {
			metrics.InvariantViolations.Inc()
			slog.Error("refusing to save goal", "error", err, "goal_id", goalID, "progress", goal.Progress, "status", goal.Status)
			return fmt.Errorf("goal %s: %w", goalID, err)
		}

		if err := repos.Goals.SaveProgress(ctx, goal); err != nil {
			return fmt.Errorf("failed to save goal progress: %w", err)
		}
		saved = *goal
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRecalculation(trigger)
	metrics.RecordStatusTransition(string(from), string(saved.Status), "milestone")
	if from != saved.Status {
		slog.Info("goal status changed", "goal_id", goalID, "from", from, "to", saved.Status, "progress", saved.Progress)
	}

	return &saved, nil
}

func validateMilestoneText(title, description string) error {
	if err := validation.ValidateTitle(title); err != nil {
		return invalid("%s", err)
	}
	if err := validation.ValidateMaxLength("description", description, validation.MaxMilestoneDescriptionLength); err != nil {
		return invalid("%s", err)
	}
	return nil
}

// checkDueDate compares calendar days in UTC.
func checkDueDate(due, target time.Time) error {
	if progress.Day(due).After(progress.Day(target)) {
		return invalid("due date %s is after the goal's target date %s",
			due.UTC().Format(time.DateOnly), target.UTC().Format(time.DateOnly))
	}
	return nil
}

// sortMilestones orders milestones by order, then due date.
func sortMilestones(milestones []model.Milestone) []model.Milestone {
	slices.SortStableFunc(milestones, func(a, b model.Milestone) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.DueDate.Compare(b.DueDate)
	})
	return milestones
}

// IsInvariantViolation reports whether err came from a refused goal save.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, progress.ErrInvariantViolation)
}
