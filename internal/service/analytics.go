package service

import (
	"context"
	"fmt"
	"time"

	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/progress"
	"github.com/templui/goaltracker/internal/repository"
)

// AnalyticsService loads a user's snapshot and hands it to the analytics
// package. Nothing is cached.
type AnalyticsService struct {
	goals      repository.GoalRepository
	milestones repository.MilestoneRepository
	now        func() time.Time
}

func NewAnalyticsService(goals repository.GoalRepository, milestones repository.MilestoneRepository) *AnalyticsService {
	return &AnalyticsService{
		goals:      goals,
		milestones: milestones,
		now:        time.Now,
	}
}

func (s *AnalyticsService) snapshot(ctx context.Context, userID string) ([]model.Goal, []model.Milestone, error) {
	goals, err := s.goals.Goals(ctx, userID, repository.GoalFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list goals: %w", err)
	}
	milestones, err := s.milestones.ByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load milestones: %w", err)
	}
	return goals, milestones, nil
}

func (s *AnalyticsService) Overview(ctx context.Context, userID string) (analytics.Overview, error) {
	goals, milestones, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.Overview{}, err
	}
	return analytics.BuildOverview(goals, milestones, s.now()), nil
}

func (s *AnalyticsService) Monthly(ctx context.Context, userID string, months int) ([]analytics.MonthStats, error) {
	goals, err := s.goals.Goals(ctx, userID, repository.GoalFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return analytics.MonthlyStats(goals, months, s.now()), nil
}

func (s *AnalyticsService) Categories(ctx context.Context, userID string) ([]analytics.CategorySummary, error) {
	goals, err := s.goals.Goals(ctx, userID, repository.GoalFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return analytics.CategoryBreakdown(goals), nil
}

func (s *AnalyticsService) Trends(ctx context.Context, userID, period string) (analytics.Trend, error) {
	p, err := analytics.ParsePeriod(period)
	if err != nil {
		return analytics.Trend{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	goals, milestones, err := s.snapshot(ctx, userID)
	if err != nil {
		return analytics.Trend{}, err
	}
	return analytics.CompletionTrend(goals, milestones, p, s.now()), nil
}

// Streak counts consecutive UTC days with at least one completed milestone.
func (s *AnalyticsService) Streak(ctx context.Context, userID string) (int, error) {
	milestones, err := s.milestones.ByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load milestones: %w", err)
	}
	return progress.Streak(analytics.CompletionTimes(milestones), s.now()), nil
}
