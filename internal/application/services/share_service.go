package services

import (
	"fmt"

	"github.com/priospace/core/internal/application/merge"
	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

// ShareService handles full backups and peer snapshot merges.
type ShareService struct {
	store  *store.Store
	engine *merge.Engine
	logger *logger.Logger
}

// NewShareService creates a new share service.
func NewShareService(s *store.Store, logger *logger.Logger) *ShareService {
	return &ShareService{
		store:  s,
		engine: merge.New(s, logger),
		logger: logger,
	}
}

// ExportBackup snapshots the entire store.
func (s *ShareService) ExportBackup() *entities.Snapshot {
	return s.store.Export()
}

// ImportBackup replaces the entire store with the snapshot's contents.
// Unlike a merge, this is a wholesale restore.
func (s *ShareService) ImportBackup(snap *entities.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("backup payload is required")
	}
	if snap.Version != "" && snap.Version != entities.SnapshotVersion {
		s.logger.Warn("Importing backup with unexpected version", "version", snap.Version)
	}
	s.store.Import(snap)
	s.logger.Info("Backup imported",
		"dates", len(snap.DailyTasks),
		"tags", len(snap.CustomTags),
		"habits", len(snap.Habits))
	return nil
}

// Settings returns the current display preferences.
func (s *ShareService) Settings() entities.Settings {
	return s.store.Settings()
}

// UpdateSettings patches display preferences. Settings never replicate to
// the remote backend; they travel between devices only inside snapshots.
func (s *ShareService) UpdateSettings(req ports.UpdateSettingsRequest) entities.Settings {
	current := s.store.Settings()
	if req.DarkMode != nil {
		current.DarkMode = *req.DarkMode
	}
	if req.Theme != nil && *req.Theme != "" {
		current.Theme = *req.Theme
	}
	s.store.SetSettings(current)
	return current
}

// MergeShare folds a peer snapshot into the store. Settings changes are
// applied only when the caller pre-approved them.
func (s *ShareService) MergeShare(payload *entities.SharePayload, confirmSettings bool) *merge.Report {
	return s.engine.Merge(payload, merge.Options{
		ConfirmSettings: func([]string) bool { return confirmSettings },
	})
}
