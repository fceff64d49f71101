package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"aircheck/internal/capture"
	"aircheck/internal/config"
	"aircheck/internal/logging"
	"aircheck/internal/notifications"
	"aircheck/internal/retention"
	"aircheck/internal/services"
	"aircheck/internal/store"
	"aircheck/internal/textutil"
)

// ErrSessionActive marks a show that already has a capture in flight. A
// live window cannot be replayed, so concurrent starts are rejected rather
// than queued.
var ErrSessionActive = errors.New("recording session already active")

// Options tunes one recording session.
type Options struct {
	// Purpose defaults to a scheduled capture. Test captures go to the
	// non-retained test directory and never create a Recording row.
	Purpose store.SourceType
	// Duration overrides the show's scheduled duration when positive.
	Duration time.Duration
}

// Runner executes recording sessions: one bounded capture per show at a
// time, with backend fallback and persistence on success.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	registry *capture.Registry
	executor capture.Executor
	notifier notifications.Service
	logger   *slog.Logger

	mu     sync.Mutex
	active map[int64]struct{}
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom process executor (primarily for tests).
func WithExecutor(executor capture.Executor) Option {
	return func(r *Runner) {
		if executor != nil {
			r.executor = executor
		}
	}
}

// WithNotifier injects the notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(r *Runner) {
		if svc != nil {
			r.notifier = svc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a session runner.
func New(cfg *config.Config, st *store.Store, registry *capture.Registry, opts ...Option) *Runner {
	runner := &Runner{
		cfg:      cfg,
		store:    st,
		registry: registry,
		executor: capture.NewExecutor(),
		notifier: notifications.NewService(cfg),
		logger:   logging.NewNop(),
		active:   make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Record runs one capture session for the show. Scheduled and on-demand
// successes persist a Recording row and return it; test captures return
// (nil, nil) since they never create rows. A show with a session already in
// flight fails fast with ErrSessionActive.
func (r *Runner) Record(ctx context.Context, show *store.Show, opts Options) (*store.Recording, error) {
	if show == nil {
		return nil, services.Wrap(services.ErrValidation, "recorder", "record", "show required", nil)
	}
	purpose := opts.Purpose
	if purpose == "" {
		purpose = store.SourceScheduled
	}
	switch purpose {
	case store.SourceScheduled, store.SourceTest, store.SourceOnDemand:
	default:
		return nil, services.Wrap(services.ErrValidation, "recorder", "record", fmt.Sprintf("purpose %q cannot start a session", purpose), nil)
	}

	if !r.tryAcquire(show.ID) {
		return nil, fmt.Errorf("show %d: %w", show.ID, ErrSessionActive)
	}
	defer r.release(show.ID)

	station, err := r.store.StationByID(ctx, show.StationID)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "recorder", "record", "load station", err)
	}
	if station == nil {
		return nil, services.Wrap(services.ErrNotFound, "recorder", "record", fmt.Sprintf("station %d", show.StationID), nil)
	}

	sessionID := uuid.NewString()
	ctx = services.WithComponent(ctx, "recorder")
	ctx = services.WithShowID(ctx, show.ID)
	ctx = services.WithStationID(ctx, station.ID)
	ctx = services.WithSessionID(ctx, sessionID)
	log := logging.WithContext(ctx, r.logger)

	duration := opts.Duration
	if duration <= 0 {
		if purpose == store.SourceTest {
			duration = time.Duration(r.cfg.StreamTest.DurationSeconds) * time.Second
		} else {
			duration = show.Duration()
		}
	}
	if duration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "recorder", "record", "session duration required", nil)
	}

	startedAt := time.Now()
	location, locErr := station.Location()
	if locErr != nil {
		log.Warn("invalid station timezone, stamping in local time",
			logging.String("timezone", station.Timezone),
			logging.Error(locErr))
		location = time.Local
	}
	filename := buildFilename(station, show, purpose, startedAt.In(location), r.cfg.Recording.FileExtension)
	outputDir := r.cfg.Paths.LibraryDir
	if purpose == store.SourceTest {
		outputDir = r.cfg.Paths.TestDir
	}
	outputPath := filepath.Join(outputDir, filename)
	grace := time.Duration(r.cfg.Recording.GraceSeconds) * time.Second

	log.Info("recording session starting",
		logging.String("show", show.Name),
		logging.String("purpose", string(purpose)),
		logging.Duration("duration", duration),
		logging.String("filename", filename))

	exclude := make(map[string]struct{})
	var attemptErrs error
	var result capture.Result
	var winner capture.Backend
	var agent string
	succeeded := false

	for len(exclude) < r.registry.Len() {
		backend, candidateAgent, selectErr := r.registry.Select(station, exclude)
		if selectErr != nil {
			attemptErrs = multierror.Append(attemptErrs, selectErr)
			break
		}
		req := capture.Request{
			StreamURL:  station.StreamURL,
			UserAgent:  candidateAgent,
			Duration:   duration,
			OutputPath: outputPath,
		}
		result, err = capture.Run(ctx, r.executor, backend, req, grace)
		if err == nil {
			winner = backend
			agent = candidateAgent
			succeeded = true
			break
		}
		if ctx.Err() != nil {
			return nil, err
		}
		// Live sessions never rotate user agents on a rejection; the
		// offline tester repairs the sticky preference out-of-band.
		attemptErrs = multierror.Append(attemptErrs, fmt.Errorf("%s: %w", backend.Name(), err))
		exclude[backend.Name()] = struct{}{}
		log.Warn("capture attempt failed, excluding backend",
			logging.String(logging.FieldBackend, backend.Name()),
			logging.Error(err))
	}

	if !succeeded {
		failure := services.Wrap(services.ErrExternalTool, "recorder", "record", "every capture backend failed", attemptErrs)
		log.Error("recording session failed", logging.Error(failure))
		if purpose != store.SourceTest {
			if notifyErr := r.notifier.NotifyRecordingFailed(ctx, show.Name, failure); notifyErr != nil {
				log.Warn("failure notification failed", logging.Error(notifyErr))
			}
		}
		return nil, failure
	}

	elapsedSeconds := int(result.Elapsed.Round(time.Second) / time.Second)
	log.Info("capture finished",
		logging.String(logging.FieldBackend, winner.Name()),
		logging.Int64("size_bytes", result.Size),
		logging.Int("elapsed_seconds", elapsedSeconds),
		logging.Bool("deadline_killed", result.Killed))

	if purpose == store.SourceTest {
		return nil, nil
	}

	if winner.Name() != station.RecommendedBackend || agent != station.RecommendedUserAgent {
		if err := r.store.SetStationRecommendation(ctx, station.ID, winner.Name(), agent); err != nil {
			log.Warn("sticky recommendation write-back failed", logging.Error(err))
		}
	}

	recordedAt := startedAt.UTC()
	stored, err := r.store.InsertRecording(ctx, &store.Recording{
		ShowID:          show.ID,
		Filename:        filename,
		RecordedAt:      recordedAt,
		DurationSeconds: elapsedSeconds,
		FileSizeBytes:   result.Size,
		SourceType:      purpose,
		ExpiresAt:       retention.ComputeExpiry(recordedAt, nil, show.RetentionDays, show.TTLUnit),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "recorder", "record", "persist recording", err)
	}

	if notifyErr := r.notifier.NotifyRecordingCompleted(ctx, show.Name, stored.Filename, stored.FileSizeBytes); notifyErr != nil {
		log.Warn("completion notification failed", logging.Error(notifyErr))
	}
	return stored, nil
}

// Active reports whether a show has a session in flight.
func (r *Runner) Active(showID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.active[showID]
	return busy
}

func (r *Runner) tryAcquire(showID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[showID]; busy {
		return false
	}
	r.active[showID] = struct{}{}
	return true
}

func (r *Runner) release(showID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, showID)
}

// buildFilename renders the deterministic artifact name:
// {CALL_LETTERS}_{purpose}_{YYYYMMDD-HHMMSS}.{ext}, where purpose is the
// slugified show name for scheduled captures and a literal token otherwise.
// The timestamp is rendered in the station's local time.
func buildFilename(station *store.Station, show *store.Show, purpose store.SourceType, stamp time.Time, ext string) string {
	var label string
	switch purpose {
	case store.SourceTest:
		label = "test"
	case store.SourceOnDemand:
		label = "on-demand"
	default:
		label = textutil.Slug(show.Name)
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "mp3"
	}
	return fmt.Sprintf("%s_%s_%s.%s",
		textutil.NormalizeCallLetters(station.CallLetters),
		label,
		stamp.Format("20060102-150405"),
		ext)
}
