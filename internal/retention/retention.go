package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"aircheck/internal/config"
	"aircheck/internal/logging"
	"aircheck/internal/notifications"
	"aircheck/internal/services"
	"aircheck/internal/store"
)

// ErrIndefinite marks operations that need an expiry date on a recording
// that never expires.
var ErrIndefinite = errors.New("recording never expires")

// Override is a per-recording TTL that takes precedence over the show
// default.
type Override struct {
	Value int
	Unit  store.TTLUnit
}

// ComputeExpiry applies the TTL policy to one recording: an override wins
// over the show default, and the indefinite unit yields nil. Expiry is
// calendar-relative to the recording time, so a month is a calendar month,
// not thirty days.
func ComputeExpiry(recordedAt time.Time, override *Override, showValue int, showUnit store.TTLUnit) *time.Time {
	if override != nil {
		return expiryFor(recordedAt, override.Value, override.Unit)
	}
	return expiryFor(recordedAt, showValue, showUnit)
}

func expiryFor(recordedAt time.Time, value int, unit store.TTLUnit) *time.Time {
	switch unit {
	case store.TTLIndefinite:
		return nil
	case store.TTLWeeks:
		t := recordedAt.AddDate(0, 0, 7*value)
		return &t
	case store.TTLMonths:
		t := recordedAt.AddDate(0, value, 0)
		return &t
	default:
		t := recordedAt.AddDate(0, 0, value)
		return &t
	}
}

// Result summarizes one expiration sweep.
type Result struct {
	Removed        int
	ReclaimedBytes int64
	Errors         []ItemError
}

// ItemError records a single recording the sweep could not dispose of.
type ItemError struct {
	RecordingID int64
	Filename    string
	Err         error
}

// Manager owns TTL writes: show defaults, per-recording overrides, expiry
// extension, and the expiration sweep.
type Manager struct {
	store    *store.Store
	cfg      *config.Config
	notifier notifications.Service
	logger   *slog.Logger
}

// Option configures the manager.
type Option func(*Manager)

// WithNotifier injects the notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(m *Manager) {
		if svc != nil {
			m.notifier = svc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New constructs a retention manager.
func New(cfg *config.Config, st *store.Store, opts ...Option) *Manager {
	manager := &Manager{
		store:    st,
		cfg:      cfg,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// UpdateShowDefault persists a show's default TTL and recomputes expiry for
// every recording of the show still inheriting the default. Overridden
// recordings keep their own schedule. Returns the number of recordings
// recomputed.
func (m *Manager) UpdateShowDefault(ctx context.Context, showID int64, value int, unit store.TTLUnit) (int, error) {
	normalized, ok := store.ParseTTLUnit(string(unit))
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "retention", "update show default", fmt.Sprintf("unknown ttl unit %q", unit), nil)
	}
	if normalized != store.TTLIndefinite && value < 1 {
		return 0, services.Wrap(services.ErrValidation, "retention", "update show default", "ttl value must be at least 1", nil)
	}

	show, err := m.store.ShowByID(ctx, showID)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "retention", "update show default", "load show", err)
	}
	if show == nil {
		return 0, services.Wrap(services.ErrNotFound, "retention", "update show default", fmt.Sprintf("show %d", showID), nil)
	}

	if err := m.store.SetShowRetention(ctx, showID, value, normalized); err != nil {
		return 0, services.Wrap(services.ErrStorage, "retention", "update show default", "persist show default", err)
	}

	inheriting, err := m.store.RecordingsWithDefaultTTL(ctx, showID)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "retention", "update show default", "load inheriting recordings", err)
	}
	for _, rec := range inheriting {
		expiry := expiryFor(rec.RecordedAt, value, normalized)
		if err := m.store.SetRecordingExpiry(ctx, rec.ID, expiry); err != nil {
			return 0, services.Wrap(services.ErrStorage, "retention", "update show default", fmt.Sprintf("recompute recording %d", rec.ID), err)
		}
	}
	return len(inheriting), nil
}

// SetOverride pins a recording to its own TTL, computed from the
// recording's own capture time, and returns the new expiry (nil when
// indefinite).
func (m *Manager) SetOverride(ctx context.Context, recordingID int64, value int, unit store.TTLUnit) (*time.Time, error) {
	normalized, ok := store.ParseTTLUnit(string(unit))
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "retention", "set override", fmt.Sprintf("unknown ttl unit %q", unit), nil)
	}
	if normalized != store.TTLIndefinite && value < 1 {
		return nil, services.Wrap(services.ErrValidation, "retention", "set override", "ttl value must be at least 1", nil)
	}

	rec, err := m.store.RecordingByID(ctx, recordingID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "set override", "load recording", err)
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrNotFound, "retention", "set override", fmt.Sprintf("recording %d", recordingID), nil)
	}

	expiry := expiryFor(rec.RecordedAt, value, normalized)
	var valueArg *int
	if normalized != store.TTLIndefinite {
		v := value
		valueArg = &v
	}
	if err := m.store.SetRecordingTTL(ctx, recordingID, valueArg, &normalized, expiry); err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "set override", "persist override", err)
	}
	return expiry, nil
}

// ClearOverride drops a recording's override and recomputes its expiry from
// the show default.
func (m *Manager) ClearOverride(ctx context.Context, recordingID int64) (*time.Time, error) {
	rec, err := m.store.RecordingByID(ctx, recordingID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "clear override", "load recording", err)
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrNotFound, "retention", "clear override", fmt.Sprintf("recording %d", recordingID), nil)
	}
	show, err := m.store.ShowByID(ctx, rec.ShowID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "clear override", "load show", err)
	}
	if show == nil {
		return nil, services.Wrap(services.ErrNotFound, "retention", "clear override", fmt.Sprintf("show %d", rec.ShowID), nil)
	}

	expiry := expiryFor(rec.RecordedAt, show.RetentionDays, show.TTLUnit)
	if err := m.store.SetRecordingTTL(ctx, recordingID, nil, nil, expiry); err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "clear override", "persist cleared override", err)
	}
	return expiry, nil
}

// Extend pushes a recording's expiry out by additionalDays. Indefinite
// recordings have nothing to extend and report ErrIndefinite.
func (m *Manager) Extend(ctx context.Context, recordingID int64, additionalDays int) (*time.Time, error) {
	if additionalDays < 1 {
		return nil, services.Wrap(services.ErrValidation, "retention", "extend", "additional days must be at least 1", nil)
	}
	rec, err := m.store.RecordingByID(ctx, recordingID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "extend", "load recording", err)
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrNotFound, "retention", "extend", fmt.Sprintf("recording %d", recordingID), nil)
	}
	if rec.ExpiresAt == nil {
		return nil, fmt.Errorf("recording %d: %w", recordingID, ErrIndefinite)
	}

	extended := rec.ExpiresAt.AddDate(0, 0, additionalDays)
	if err := m.store.SetRecordingExpiry(ctx, recordingID, &extended); err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "extend", "persist extended expiry", err)
	}
	return &extended, nil
}

// Remove deletes one recording's artifact and row regardless of expiry.
// Returns the removed record so callers can report what was reclaimed.
func (m *Manager) Remove(ctx context.Context, recordingID int64) (*store.Recording, error) {
	rec, err := m.store.RecordingByID(ctx, recordingID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "remove", "load recording", err)
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrNotFound, "retention", "remove", fmt.Sprintf("recording %d", recordingID), nil)
	}

	artifact := rec.ArtifactPath(m.cfg.Paths.LibraryDir)
	if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
		return nil, services.Wrap(services.ErrExternalTool, "retention", "remove", "remove artifact", err)
	}
	if _, err := m.store.RemoveRecording(ctx, recordingID); err != nil {
		return nil, services.Wrap(services.ErrStorage, "retention", "remove", "remove recording row", err)
	}

	log := logging.WithContext(services.WithComponent(ctx, "retention"), m.logger)
	log.Info("recording removed",
		logging.Int64("recording_id", rec.ID),
		logging.String("filename", rec.Filename),
		logging.Int64("size_bytes", rec.FileSizeBytes))
	return rec, nil
}

// SweepExpired deletes the artifact and row of every recording whose expiry
// has passed. Per-item failures are collected and skipped; the row survives
// so the next sweep retries it.
func (m *Manager) SweepExpired(ctx context.Context) (Result, error) {
	var result Result

	ctx = services.WithComponent(ctx, "retention")
	log := logging.WithContext(ctx, m.logger)

	expired, err := m.store.ExpiredRecordings(ctx, time.Now().UTC())
	if err != nil {
		return result, services.Wrap(services.ErrStorage, "retention", "sweep", "load expired recordings", err)
	}

	for _, rec := range expired {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		artifact := rec.ArtifactPath(m.cfg.Paths.LibraryDir)
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, ItemError{RecordingID: rec.ID, Filename: rec.Filename, Err: err})
			log.Warn("failed to remove expired artifact",
				logging.Int64("recording_id", rec.ID),
				logging.String("filename", rec.Filename),
				logging.Error(err))
			continue
		}
		if _, err := m.store.RemoveRecording(ctx, rec.ID); err != nil {
			result.Errors = append(result.Errors, ItemError{RecordingID: rec.ID, Filename: rec.Filename, Err: err})
			log.Warn("failed to remove expired recording row",
				logging.Int64("recording_id", rec.ID),
				logging.Error(err))
			continue
		}
		result.Removed++
		result.ReclaimedBytes += rec.FileSizeBytes
	}

	if result.Removed > 0 || len(result.Errors) > 0 {
		log.Info("retention sweep finished",
			logging.Int("removed", result.Removed),
			logging.Int64("reclaimed_bytes", result.ReclaimedBytes),
			logging.Int("errors", len(result.Errors)))
	}
	if result.Removed > 0 {
		if err := m.notifier.NotifySweepCompleted(ctx, "retention sweep", result.Removed, result.ReclaimedBytes); err != nil {
			log.Warn("sweep notification failed", logging.Error(err))
		}
	}
	return result, nil
}
