package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/markdown"
	"github.com/templui/goaltracker/internal/metrics"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/progress"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/validation"
)

// GoalInput carries the user-editable fields of a new goal.
type GoalInput struct {
	Title       string
	Description string
	Category    model.Category
	Priority    model.Priority
	TargetDate  time.Time
}

// GoalUpdate is a partial edit; nil fields are left untouched.
type GoalUpdate struct {
	Title       *string
	Description *string
	Category    *model.Category
	Priority    *model.Priority
	TargetDate  *time.Time
	Status      *model.GoalStatus
}

// GoalDetail is a goal together with its milestones.
type GoalDetail struct {
	model.Goal
	Milestones          []model.Milestone `json:"milestones"`
	CompletedMilestones int               `json:"completedMilestones"`
	TotalMilestones     int               `json:"totalMilestones"`
	DescriptionHTML     string            `json:"descriptionHtml,omitempty"`
}

func newGoalDetail(goal model.Goal, milestones []model.Milestone) GoalDetail {
	if milestones == nil {
		milestones = []model.Milestone{}
	}
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	return GoalDetail{
		Goal:                goal,
		Milestones:          milestones,
		CompletedMilestones: done,
		TotalMilestones:     len(milestones),
	}
}

type GoalService struct {
	goals      repository.GoalRepository
	milestones repository.MilestoneRepository
	tx         repository.Transactor
	locks      *GoalLocks
	markdown   *markdown.Parser
	now        func() time.Time
}

func NewGoalService(
	goals repository.GoalRepository,
	milestones repository.MilestoneRepository,
	tx repository.Transactor,
	locks *GoalLocks,
) *GoalService {
	return &GoalService{
		goals:      goals,
		milestones: milestones,
		tx:         tx,
		locks:      locks,
		markdown:   markdown.NewParser(),
		now:        time.Now,
	}
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*model.Goal, error) {
	err := validateGoalInput(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		TargetDate:  in.TargetDate.UTC(),
		Status:      model.GoalStatusNotStarted,
		Progress:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if goal.Category == "" {
		goal.Category = model.CategoryOther
	}
	if goal.Priority == "" {
		goal.Priority = model.PriorityMedium
	}

	err = s.goals.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	slog.Info("goal created", "goal_id", goal.ID, "user_id", userID)
	return goal, nil
}

func validateGoalInput(in GoalInput) error {
	if err := validation.ValidateTitle(in.Title); err != nil {
		return invalid("%s", err)
	}
	if err := validation.ValidateMaxLength("description", in.Description, validation.MaxGoalDescriptionLength); err != nil {
		return invalid("%s", err)
	}
	if in.TargetDate.IsZero() {
		return invalid("target date is required")
	}
	if in.Category != "" && !slices.Contains(model.Categories, in.Category) {
		return invalid("invalid category %q", in.Category)
	}
	if in.Priority != "" && !slices.Contains(model.Priorities, in.Priority) {
		return invalid("invalid priority %q", in.Priority)
	}
	return nil
}

// owned loads a goal and checks that userID owns it.
func owned(ctx context.Context, goals repository.GoalRepository, userID, goalID string) (*model.Goal, error) {
	goal, err := goals.ByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, ErrForbidden
	}
	return goal, nil
}

func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*GoalDetail, error) {
	goal, err := owned(ctx, s.goals, userID, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.milestones.ByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}

	detail := newGoalDetail(*goal, milestones)
	detail.DescriptionHTML, err = s.markdown.Render(goal.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to render description: %w", err)
	}
	return &detail, nil
}

// Goals lists a user's goals with their milestones attached.
func (s *GoalService) Goals(ctx context.Context, userID string, filter repository.GoalFilter) ([]GoalDetail, error) {
	goals, err := s.goals.Goals(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	milestones, err := s.milestones.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}

	byGoal := make(map[string][]model.Milestone, len(goals))
	for _, m := range milestones {
		byGoal[m.GoalID] = append(byGoal[m.GoalID], m)
	}

	details := make([]GoalDetail, 0, len(goals))
	for _, g := range goals {
		details = append(details, newGoalDetail(g, sortMilestones(byGoal[g.ID])))
	}

	return details, nil
}

// Update applies a partial edit. A status in the edit is a user-driven
// transition: it may leave the goal completed below 100% until the next
// milestone change recalculates it.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, upd GoalUpdate) (*GoalDetail, error) {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	goal, err := owned(ctx, s.goals, userID, goalID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		goal.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		goal.Description = *upd.Description
	}
	if upd.Category != nil {
		goal.Category = *upd.Category
	}
	if upd.Priority != nil {
		goal.Priority = *upd.Priority
	}
	if upd.TargetDate != nil {
		goal.TargetDate = upd.TargetDate.UTC()
	}

	err = validateGoalInput(GoalInput{
		Title:       goal.Title,
		Description: goal.Description,
		Category:    goal.Category,
		Priority:    goal.Priority,
		TargetDate:  goal.TargetDate,
	})
	if err != nil {
		return nil, err
	}

	milestones, err := s.milestones.ByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestones: %w", err)
	}
	if upd.TargetDate != nil {
		for _, m := range milestones {
			if progress.Day(m.DueDate).After(progress.Day(goal.TargetDate)) {
				return nil, invalid("target date %s is before the due date of milestone %q (%s)",
					goal.TargetDate.Format(time.DateOnly), m.Title, m.DueDate.UTC().Format(time.DateOnly))
			}
		}
	}

	from := goal.Status
	if upd.Status != nil {
		if !slices.Contains(model.GoalStatuses, *upd.Status) {
			return nil, invalid("invalid status %q", *upd.Status)
		}
		progress.ApplyStatusChange(goal, *upd.Status, s.now())
	}

	err = s.goals.Update(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	metrics.RecordStatusTransition(string(from), string(goal.Status), "user")

	detail := newGoalDetail(*goal, milestones)
	return &detail, nil
}

func (s *GoalService) Archive(ctx context.Context, userID, goalID string) (*GoalDetail, error) {
	archived := model.GoalStatusArchived
	return s.Update(ctx, userID, goalID, GoalUpdate{Status: &archived})
}

// Delete removes the goal with its milestones and progress entries.
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	unlock := s.locks.Lock(goalID)
	defer unlock()

	_, err := owned(ctx, s.goals, userID, goalID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Milestones.DeleteAllByGoal(ctx, goalID); err != nil {
			return fmt.Errorf("failed to delete milestones: %w", err)
		}
		if err := repos.ProgressEntries.DeleteAllByGoal(ctx, goalID); err != nil {
			return fmt.Errorf("failed to delete progress entries: %w", err)
		}
		return repos.Goals.Delete(ctx, goalID)
	})
	if err != nil {
		return err
	}

	slog.Info("goal deleted", "goal_id", goalID, "user_id", userID)
	return nil
}

func (s *GoalService) Stats(ctx context.Context, userID string) (analytics.GoalStats, error) {
	goals, err := s.goals.Goals(ctx, userID, repository.GoalFilter{})
	if err != nil {
		return analytics.GoalStats{}, fmt.Errorf("failed to list goals: %w", err)
	}
	return analytics.BuildGoalStats(goals), nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrGoalNotFound) ||
		errors.Is(err, repository.ErrMilestoneNotFound) ||
		errors.Is(err, repository.ErrProgressEntryNotFound) ||
		errors.Is(err, repository.ErrUserNotFound)
}
