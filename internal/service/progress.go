package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/progress"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/validation"
)

const DefaultHistoryLimit = 10

type ProgressEntryInput struct {
	GoalID             string
	WeekStartDate      time.Time
	WeekEndDate        time.Time
	Notes              string
	ProgressPercentage int
	HoursSpent         float64
}

type ProgressEntryUpdate struct {
	Notes              *string
	ProgressPercentage *int
	HoursSpent         *float64
}

// ProgressService keeps the weekly progress journal. Entries are informational
// and never change a goal's milestone-derived progress.
type ProgressService struct {
	goals   repository.GoalRepository
	entries repository.ProgressEntryRepository
	now     func() time.Time
}

func NewProgressService(goals repository.GoalRepository, entries repository.ProgressEntryRepository) *ProgressService {
	return &ProgressService{
		goals:   goals,
		entries: entries,
		now:     time.Now,
	}
}

// Log records the entry for one goal and week. A second entry for the same
// week is rejected.
func (s *ProgressService) Log(ctx context.Context, userID string, in ProgressEntryInput) (*model.ProgressEntry, error) {
	if in.GoalID == "" {
		return nil, invalid("goal id is required")
	}
	if in.WeekStartDate.IsZero() || in.WeekEndDate.IsZero() {
		return nil, invalid("week start and end dates are required")
	}
	start := progress.Day(in.WeekStartDate)
	end := in.WeekEndDate.UTC()
	if end.Before(start) {
		return nil, invalid("week end date must not be before week start date")
	}
	err := validateEntryFields(in.Notes, in.ProgressPercentage, in.HoursSpent)
	if err != nil {
		return nil, err
	}

	_, err = owned(ctx, s.goals, userID, in.GoalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &model.ProgressEntry{
		ID:                 uuid.New().String(),
		UserID:             userID,
		GoalID:             in.GoalID,
		WeekStartDate:      start,
		WeekEndDate:        end,
		Notes:              in.Notes,
		ProgressPercentage: in.ProgressPercentage,
		HoursSpent:         in.HoursSpent,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.entries.Create(ctx, entry)
	if errors.Is(err, repository.ErrDuplicateProgressEntry) {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to log progress: %w", err)
	}

	slog.Info("progress logged", "entry_id", entry.ID, "goal_id", entry.GoalID, "week", start.Format(time.DateOnly))
	return entry, nil
}

// History returns a goal's entries newest first.
func (s *ProgressService) History(ctx context.Context, userID, goalID string, limit int) ([]model.ProgressEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	_, err := owned(ctx, s.goals, userID, goalID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries.History(ctx, userID, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress history: %w", err)
	}
	if entries == nil {
		entries = []model.ProgressEntry{}
	}
	return entries, nil
}

// WeekBounds returns the Sunday-start UTC week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := progress.Day(t)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// Weekly returns the user's entries for the current week across all goals.
func (s *ProgressService) Weekly(ctx context.Context, userID string) ([]model.ProgressEntry, error) {
	start, end := WeekBounds(s.now())

	entries, err := s.entries.InWeek(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly progress: %w", err)
	}
	if entries == nil {
		entries = []model.ProgressEntry{}
	}
	return entries, nil
}

func (s *ProgressService) Update(ctx context.Context, userID, entryID string, upd ProgressEntryUpdate) (*model.ProgressEntry, error) {
	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	if upd.Notes != nil {
		entry.Notes = *upd.Notes
	}
	if upd.ProgressPercentage != nil {
		entry.ProgressPercentage = *upd.ProgressPercentage
	}
	if upd.HoursSpent != nil {
		entry.HoursSpent = *upd.HoursSpent
	}

	err = validateEntryFields(entry.Notes, entry.ProgressPercentage, entry.HoursSpent)
	if err != nil {
		return nil, err
	}

	err = s.entries.Update(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress entry: %w", err)
	}

	return entry, nil
}

func (s *ProgressService) Delete(ctx context.Context, userID, entryID string) error {
	_, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}

	return s.entries.Delete(ctx, entryID)
}

func (s *ProgressService) ownedEntry(ctx context.Context, userID, entryID string) (*model.ProgressEntry, error) {
	entry, err := s.entries.ByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return entry, nil
}

func validateEntryFields(notes string, percentage int, hours float64) error {
	if err := validation.ValidateMaxLength("notes", notes, validation.MaxNotesLength); err != nil {
		return invalid("%s", err)
	}
	if err := validation.ValidatePercentage("progress percentage", percentage); err != nil {
		return invalid("%s", err)
	}
	if hours < 0 {
		return invalid("hours spent must not be negative")
	}
	return nil
}
