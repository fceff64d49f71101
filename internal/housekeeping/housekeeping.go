package housekeeping

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"aircheck/internal/config"
	"aircheck/internal/logging"
	"aircheck/internal/notifications"
	"aircheck/internal/services"
	"aircheck/internal/store"
)

// ItemError is one failed removal inside an otherwise completed sweep.
// Path is set for filesystem items, RecordingID for orphaned rows.
type ItemError struct {
	Path        string
	RecordingID int64
	Err         error
}

// Result summarizes one housekeeping pass.
type Result struct {
	FilesRemoved   int
	RecordsCleaned int
	ReclaimedBytes int64
	Errors         []ItemError
}

// Sweeper removes the debris recording sessions leave behind: zero-byte
// artifacts from captures that produced nothing, Recording rows whose
// artifact disappeared, and stale probe files in the test directory. Items
// younger than the configured grace period are left alone so in-progress
// writes are never raced.
type Sweeper struct {
	cfg      *config.Config
	store    *store.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// Option configures the sweeper.
type Option func(*Sweeper)

// WithNotifier injects the notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(s *Sweeper) {
		if svc != nil {
			s.notifier = svc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a sweeper over the shared store.
func New(cfg *config.Config, st *store.Store, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		cfg:      cfg,
		store:    st,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	return sweeper
}

// Sweep runs one full housekeeping pass. Per-item failures are collected
// and skipped so a single bad entry never aborts the rest.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var result Result

	ctx = services.WithComponent(ctx, "housekeeping")
	log := logging.WithContext(ctx, s.logger)
	cutoff := time.Now().UTC().Add(-time.Duration(s.cfg.Housekeeping.GraceMinutes) * time.Minute)

	if err := s.sweepEmptyArtifacts(ctx, cutoff, &result, log); err != nil {
		return result, err
	}
	if err := s.sweepOrphanRows(ctx, cutoff, &result, log); err != nil {
		return result, err
	}
	if err := s.sweepTestLeftovers(ctx, cutoff, &result, log); err != nil {
		return result, err
	}

	if result.FilesRemoved > 0 || result.RecordsCleaned > 0 || len(result.Errors) > 0 {
		log.Info("housekeeping sweep finished",
			logging.Int("files_removed", result.FilesRemoved),
			logging.Int("records_cleaned", result.RecordsCleaned),
			logging.Int64("reclaimed_bytes", result.ReclaimedBytes),
			logging.Int("errors", len(result.Errors)))
	}
	if removed := result.FilesRemoved + result.RecordsCleaned; removed > 0 {
		if err := s.notifier.NotifySweepCompleted(ctx, "housekeeping sweep", removed, result.ReclaimedBytes); err != nil {
			log.Warn("sweep notification failed", logging.Error(err))
		}
	}
	return result, nil
}

// sweepEmptyArtifacts removes zero-byte files in the library older than the
// grace period. Sessions only persist rows for non-empty artifacts, so these
// files are always rowless leftovers from captures that produced nothing.
func (s *Sweeper) sweepEmptyArtifacts(ctx context.Context, cutoff time.Time, result *Result, log *slog.Logger) error {
	entries, err := os.ReadDir(s.cfg.Paths.LibraryDir)
	if err != nil {
		// The library may live on external storage that is temporarily
		// offline. Skip the pass rather than fail the whole sweep.
		log.Warn("library directory unavailable, skipping empty-artifact pass", logging.Error(err))
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() != 0 || !info.ModTime().UTC().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.Paths.LibraryDir, entry.Name())
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, ItemError{Path: path, Err: err})
			log.Warn("failed to remove empty artifact",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		result.FilesRemoved++
		log.Info("removed empty artifact", logging.String("filename", entry.Name()))
	}
	return nil
}

// sweepOrphanRows removes Recording rows whose artifact no longer exists on
// disk, bounded by recorded_at so freshly started sessions are never touched.
func (s *Sweeper) sweepOrphanRows(ctx context.Context, cutoff time.Time, result *Result, log *slog.Logger) error {
	rows, err := s.store.RecordingsBefore(ctx, cutoff)
	if err != nil {
		return services.Wrap(services.ErrStorage, "housekeeping", "sweep", "load recordings for orphan scan", err)
	}

	for _, rec := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := os.Stat(rec.ArtifactPath(s.cfg.Paths.LibraryDir)); err == nil || !os.IsNotExist(err) {
			continue
		}
		if _, err := s.store.RemoveRecording(ctx, rec.ID); err != nil {
			result.Errors = append(result.Errors, ItemError{RecordingID: rec.ID, Err: err})
			log.Warn("failed to remove orphaned recording row",
				logging.Int64("recording_id", rec.ID),
				logging.Error(err))
			continue
		}
		result.RecordsCleaned++
		log.Info("removed orphaned recording row",
			logging.Int64("recording_id", rec.ID),
			logging.String("filename", rec.Filename))
	}
	return nil
}

// sweepTestLeftovers clears the probe scratch area of anything older than
// the grace period. Probes delete their own artifacts on the happy path, so
// leftovers only accumulate after crashes.
func (s *Sweeper) sweepTestLeftovers(ctx context.Context, cutoff time.Time, result *Result, log *slog.Logger) error {
	entries, err := os.ReadDir(s.cfg.Paths.TestDir)
	if err != nil {
		log.Warn("test directory unavailable, skipping leftover pass", logging.Error(err))
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().UTC().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.Paths.TestDir, entry.Name())
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, ItemError{Path: path, Err: err})
			log.Warn("failed to remove stale test artifact",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		result.FilesRemoved++
		result.ReclaimedBytes += info.Size()
		log.Info("removed stale test artifact", logging.String("filename", entry.Name()))
	}
	return nil
}
