package streamtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
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
	"aircheck/internal/services"
	"aircheck/internal/store"
)

// Verdict summarizes one tester run for a station.
type Verdict struct {
	StationID  int64
	RunID      string
	Compatible bool
	Backend    string
	UserAgent  string
	StreamURL  string
	Attempts   int
	Log        string
	// Failure aggregates every attempt error when no combination worked.
	Failure error
}

// Tester searches offline for a working (backend, user agent, URL)
// combination so live sessions never burn air time on discovery.
type Tester struct {
	store    *store.Store
	registry *capture.Registry
	executor capture.Executor
	notifier notifications.Service
	logger   *slog.Logger
	cfg      *config.Config

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Option configures the tester.
type Option func(*Tester)

// WithExecutor injects a custom process executor (primarily for tests).
func WithExecutor(executor capture.Executor) Option {
	return func(t *Tester) {
		if executor != nil {
			t.executor = executor
		}
	}
}

// WithNotifier injects the notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(t *Tester) {
		if svc != nil {
			t.notifier = svc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tester) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New constructs a stream tester.
func New(cfg *config.Config, st *store.Store, registry *capture.Registry, opts ...Option) *Tester {
	tester := &Tester{
		store:    st,
		registry: registry,
		executor: capture.NewExecutor(),
		notifier: notifications.NewService(cfg),
		logger:   logging.NewNop(),
		cfg:      cfg,
		locks:    make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(tester)
	}
	return tester
}

// Test searches for a working combination and persists the verdict onto the
// station. A completed search returns a nil error even when the station is
// incompatible; the Verdict carries the outcome and the aggregated attempt
// failures. The error return reports infrastructure problems only. Runs for
// the same station serialize on a keyed lock; distinct stations may run in
// parallel.
func (t *Tester) Test(ctx context.Context, station *store.Station) (Verdict, error) {
	var verdict Verdict
	if station == nil {
		return verdict, services.Wrap(services.ErrValidation, "streamtest", "test", "station required", nil)
	}
	verdict.StationID = station.ID
	verdict.RunID = uuid.NewString()
	verdict.StreamURL = station.StreamURL

	lock := t.stationLock(station.ID)
	lock.Lock()
	defer lock.Unlock()

	ctx = services.WithComponent(ctx, "streamtest")
	ctx = services.WithStationID(ctx, station.ID)
	ctx = services.WithSessionID(ctx, verdict.RunID)
	log := logging.WithContext(ctx, t.logger)

	urls := []string{station.StreamURL}
	if t.cfg.StreamTest.TryURLVariants {
		urls = append(urls, Variants(station.StreamURL)...)
	}

	var trail []string
	var failures error
	wasCompatible := station.Compatibility == store.CompatibilityCompatible

	log.Info("stream test started",
		logging.String("call_letters", station.CallLetters),
		logging.Int("url_candidates", len(urls)))

	for _, streamURL := range urls {
		for _, backend := range t.registry.Backends() {
			if _, available := backend.Available(); !available {
				trail = append(trail, fmt.Sprintf("%s: skipped, executable not found", backend.Name()))
				continue
			}
			for _, agent := range t.agentRotation(station, backend) {
				if err := ctx.Err(); err != nil {
					return verdict, err
				}
				verdict.Attempts++
				label := attemptLabel(backend.Name(), agent, streamURL)
				result, err := t.attempt(ctx, station, backend, agent, streamURL, verdict.RunID, verdict.Attempts)
				t.recordAttempt(ctx, log, station.ID, backend.Name(), agent, streamURL, result, err)
				if err == nil {
					trail = append(trail, fmt.Sprintf("%s: ok, %d bytes in %s", label, result.Size, result.Elapsed.Round(time.Millisecond)))
					verdict.Compatible = true
					verdict.Backend = backend.Name()
					verdict.UserAgent = agent
					verdict.StreamURL = streamURL
					verdict.Log = strings.Join(trail, "\n")
					if persistErr := t.persistSuccess(ctx, station, verdict); persistErr != nil {
						return verdict, persistErr
					}
					log.Info("stream test succeeded",
						logging.String(logging.FieldBackend, verdict.Backend),
						logging.String("user_agent", agent),
						logging.String("stream_url", streamURL),
						logging.Int("attempts", verdict.Attempts))
					if !wasCompatible {
						if notifyErr := t.notifier.NotifyStationRepaired(ctx, station.CallLetters, verdict.Backend); notifyErr != nil {
							log.Warn("station repaired notification failed", logging.Error(notifyErr))
						}
					}
					return verdict, nil
				}
				if ctx.Err() != nil {
					return verdict, ctx.Err()
				}
				if authRejected(result.Tail) {
					failures = multierror.Append(failures, fmt.Errorf("%s: %w", label, ErrAuthRequired))
					trail = append(trail, fmt.Sprintf("%s: rejected by host, rotating user agent", label))
					continue
				}
				failures = multierror.Append(failures, fmt.Errorf("%s: %w", label, err))
				trail = append(trail, fmt.Sprintf("%s: %v", label, err))
				break
			}
		}
	}

	verdict.Log = strings.Join(trail, "\n")
	verdict.Failure = failures
	if persistErr := t.persistFailure(ctx, station, verdict); persistErr != nil {
		return verdict, persistErr
	}
	log.Warn("stream test exhausted all combinations",
		logging.String("call_letters", station.CallLetters),
		logging.Int("attempts", verdict.Attempts))
	if wasCompatible {
		if notifyErr := t.notifier.NotifyStationBroken(ctx, station.CallLetters); notifyErr != nil {
			log.Warn("station broken notification failed", logging.Error(notifyErr))
		}
	}
	return verdict, nil
}

// TestAll retests every station still lacking a compatible verdict. Stations
// run in parallel; the per-station lock inside Test still serializes
// overlapping runs for the same station.
func (t *Tester) TestAll(ctx context.Context) ([]Verdict, error) {
	stations, err := t.store.StationsForRetest(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "streamtest", "list stations", "load retest candidates", err)
	}
	verdicts := make([]Verdict, len(stations))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var runErrs error
	for i, station := range stations {
		wg.Add(1)
		go func(i int, station *store.Station) {
			defer wg.Done()
			verdict, testErr := t.Test(ctx, station)
			mu.Lock()
			defer mu.Unlock()
			verdicts[i] = verdict
			if testErr != nil {
				runErrs = multierror.Append(runErrs, fmt.Errorf("station %s: %w", station.CallLetters, testErr))
			}
		}(i, station)
	}
	wg.Wait()
	return verdicts, runErrs
}

// agentRotation builds the ordered user agents for one backend: the saved
// agent first, then no agent, then the configured generic rotation, deduped.
// Backends that cannot send a user agent collapse to a single bare attempt.
func (t *Tester) agentRotation(station *store.Station, backend capture.Backend) []string {
	if !backend.SupportsUserAgent() {
		return []string{""}
	}
	agents := make([]string, 0, len(t.cfg.StreamTest.UserAgents)+2)
	seen := make(map[string]struct{})
	add := func(agent string) {
		agent = strings.TrimSpace(agent)
		if _, dup := seen[agent]; dup {
			return
		}
		seen[agent] = struct{}{}
		agents = append(agents, agent)
	}
	add(station.RecommendedUserAgent)
	add("")
	for _, agent := range t.cfg.StreamTest.UserAgents {
		add(agent)
	}
	return agents
}

func (t *Tester) attempt(ctx context.Context, station *store.Station, backend capture.Backend, agent, streamURL, runID string, seq int) (capture.Result, error) {
	name := fmt.Sprintf("%s-probe-%s-%03d.%s",
		strings.ToLower(station.CallLetters), runID, seq, t.cfg.Recording.FileExtension)
	outputPath := filepath.Join(t.cfg.Paths.TestDir, name)
	req := capture.Request{
		StreamURL:  streamURL,
		UserAgent:  agent,
		Duration:   time.Duration(t.cfg.StreamTest.DurationSeconds) * time.Second,
		OutputPath: outputPath,
	}
	grace := time.Duration(t.cfg.Recording.GraceSeconds) * time.Second
	result, err := capture.Run(ctx, t.executor, backend, req, grace)
	// Probe artifacts carry no value once sized; anything left behind is for
	// housekeeping.
	_ = os.Remove(outputPath)
	return result, err
}

// recordAttempt appends the per-attempt audit row. Persistence failures here
// never abort the search; the verdict row is the authoritative outcome.
func (t *Tester) recordAttempt(ctx context.Context, log *slog.Logger, stationID int64, backendName, agent, streamURL string, result capture.Result, attemptErr error) {
	detail := "ok"
	if attemptErr != nil {
		detail = attemptErr.Error()
		if tail := strings.TrimSpace(result.Tail); tail != "" {
			detail = detail + "\n" + tail
		}
	}
	row := &store.ToolTestResult{
		StationID: stationID,
		Backend:   backendName,
		UserAgent: agent,
		StreamURL: streamURL,
		Success:   attemptErr == nil,
		Detail:    detail,
	}
	if err := t.store.AppendToolTestResult(ctx, row); err != nil {
		log.Warn("failed to record tool test attempt", logging.Error(err))
	}
}

func (t *Tester) persistSuccess(ctx context.Context, station *store.Station, verdict Verdict) error {
	if err := t.store.SetStationVerdict(ctx, station.ID, verdict.Backend, verdict.UserAgent, store.CompatibilityCompatible, verdict.Log); err != nil {
		return services.Wrap(services.ErrStorage, "streamtest", "persist verdict", "record compatible verdict", err)
	}
	if verdict.StreamURL != station.StreamURL {
		if err := t.store.SetStationStreamURL(ctx, station.ID, verdict.StreamURL); err != nil {
			return services.Wrap(services.ErrStorage, "streamtest", "persist verdict", "record working url variant", err)
		}
	}
	return nil
}

// persistFailure records the incompatible verdict while leaving any prior
// sticky recommendation in place; a failed search never silently clears a
// combination that once worked.
func (t *Tester) persistFailure(ctx context.Context, station *store.Station, verdict Verdict) error {
	err := t.store.SetStationVerdict(ctx, station.ID, station.RecommendedBackend, station.RecommendedUserAgent, store.CompatibilityIncompatible, verdict.Log)
	if err != nil {
		return services.Wrap(services.ErrStorage, "streamtest", "persist verdict", "record incompatible verdict", err)
	}
	return nil
}

func (t *Tester) stationLock(id int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[id] = lock
	}
	return lock
}

func attemptLabel(backendName, agent, streamURL string) string {
	agentLabel := "no agent"
	if agent != "" {
		agentLabel = fmt.Sprintf("agent %q", agent)
	}
	return fmt.Sprintf("%s (%s) %s", backendName, agentLabel, streamURL)
}
