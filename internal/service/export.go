package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/storage"
)

// GoalExport is the downloadable snapshot of a user's goals.
type GoalExport struct {
	ExportedAt      time.Time             `json:"exportedAt"`
	Goals           []GoalDetail          `json:"goals"`
	ProgressEntries []model.ProgressEntry `json:"progressEntries"`
}

// ExportResult carries either a download URL (when storage is configured) or
// the export itself.
type ExportResult struct {
	URL    string      `json:"url,omitempty"`
	Export *GoalExport `json:"export,omitempty"`
}

type ExportService struct {
	goalService *GoalService
	entries     repository.ProgressEntryRepository
	storage     storage.Storage
	now         func() time.Time
}

// NewExportService builds the service. store may be nil.
func NewExportService(goalService *GoalService, entries repository.ProgressEntryRepository, store storage.Storage) *ExportService {
	return &ExportService{
		goalService: goalService,
		entries:     entries,
		storage:     store,
		now:         time.Now,
	}
}

func (s *ExportService) Build(ctx context.Context, userID string) (*GoalExport, error) {
	goals, err := s.goalService.Goals(ctx, userID, repository.GoalFilter{Sort: repository.GoalSortRecent})
	if err != nil {
		return nil, err
	}

	entries := []model.ProgressEntry{}
	for _, g := range goals {
		history, err := s.entries.History(ctx, userID, g.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load progress history: %w", err)
		}
		entries = append(entries, history...)
	}

	return &GoalExport{
		ExportedAt:      s.now().UTC(),
		Goals:           goals,
		ProgressEntries: entries,
	}, nil
}

// Export uploads the snapshot and returns a presigned link, or returns the
// snapshot inline when no storage is configured.
func (s *ExportService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	export, err := s.Build(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.storage == nil {
		return &ExportResult{Export: export}, nil
	}

	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	path := exportPath(userID, export.ExportedAt)
	err = s.storage.Save(ctx, path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	url, err := s.storage.DownloadURL(ctx, path)
	if err != nil {
		if delErr := s.storage.Delete(ctx, path); delErr != nil {
			slog.Warn("failed to remove unreachable export", "error", delErr, "path", path)
		}
		return nil, err
	}

	slog.Info("goal export stored", "user_id", userID, "path", path, "goals", len(export.Goals))
	return &ExportResult{URL: url}, nil
}

func exportPath(userID string, at time.Time) string {
	return fmt.Sprintf("exports/%s/goals-%s.json", userID, at.UTC().Format("20060102-150405"))
}
