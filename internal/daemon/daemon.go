package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"aircheck/internal/capture"
	"aircheck/internal/config"
	"aircheck/internal/deps"
	"aircheck/internal/housekeeping"
	"aircheck/internal/logging"
	"aircheck/internal/notifications"
	"aircheck/internal/recorder"
	"aircheck/internal/retention"
	"aircheck/internal/scheduler"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	recorder *recorder.Runner
	tester   *streamtest.Tester
	sweeper  *housekeeping.Sweeper
	ttl      *retention.Manager
	sched    *scheduler.Scheduler
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Components bundles the services the daemon drives and exposes over IPC.
type Components struct {
	Recorder    *recorder.Runner
	Tester      *streamtest.Tester
	Housekeeper *housekeeping.Sweeper
	Retention   *retention.Manager
	Scheduler   *scheduler.Scheduler
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DBPath       string
	LockFilePath string
	Summary      store.Summary
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, logPath string, comps Components) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}
	if comps.Recorder == nil || comps.Tester == nil || comps.Housekeeper == nil || comps.Retention == nil || comps.Scheduler == nil {
		return nil, errors.New("daemon requires recorder, tester, housekeeper, retention, and scheduler")
	}

	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		recorder: comps.Recorder,
		tester:   comps.Tester,
		sweeper:  comps.Housekeeper,
		ttl:      comps.Retention,
		sched:    comps.Scheduler,
		logPath:  logPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the scheduler and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another aircheck daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.sched.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("aircheck daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing, waits for in-flight sessions, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.sched.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("aircheck daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the scheduler is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
		Dependencies: deps.Check(capture.NewRegistry(d.cfg)),
	}
	summary, err := d.store.Summarize(ctx)
	if err != nil {
		d.logger.Warn("store summary unavailable", logging.Error(err))
	} else {
		status.Summary = summary
	}
	return status
}

// ListStations returns all stations.
func (d *Daemon) ListStations(ctx context.Context) ([]*store.Station, error) {
	return d.store.ListStations(ctx)
}

// DescribeStation resolves a station reference and returns the station with
// its most recent tool test attempts.
func (d *Daemon) DescribeStation(ctx context.Context, ref string) (*store.Station, []*store.ToolTestResult, error) {
	station, err := d.store.FindStation(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if station == nil {
		return nil, nil, fmt.Errorf("station %q not found", ref)
	}
	tests, err := d.store.ToolTestResultsForStation(ctx, station.ID, 10)
	if err != nil {
		return nil, nil, err
	}
	return station, tests, nil
}

// AddStation registers a new station.
func (d *Daemon) AddStation(ctx context.Context, station *store.Station) (*store.Station, error) {
	stored, err := d.store.AddStation(ctx, station)
	if err != nil {
		return nil, err
	}
	d.logger.Info("station added",
		logging.Int64("station_id", stored.ID),
		logging.String("call_letters", stored.CallLetters))
	return stored, nil
}

// ListShows returns shows, optionally narrowed to one station.
func (d *Daemon) ListShows(ctx context.Context, stationRef string) ([]*store.Show, error) {
	if stationRef == "" {
		return d.store.ListShows(ctx)
	}
	station, err := d.store.FindStation(ctx, stationRef)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, fmt.Errorf("station %q not found", stationRef)
	}
	return d.store.ShowsForStation(ctx, station.ID)
}

// AddShow registers a new show under the referenced station.
func (d *Daemon) AddShow(ctx context.Context, stationRef string, show *store.Show) (*store.Show, error) {
	station, err := d.store.FindStation(ctx, stationRef)
	if err != nil {
		return nil, err
	}
	if station == nil {
		return nil, fmt.Errorf("station %q not found", stationRef)
	}
	show.StationID = station.ID
	stored, err := d.store.AddShow(ctx, show)
	if err != nil {
		return nil, err
	}
	d.logger.Info("show added",
		logging.Int64("show_id", stored.ID),
		logging.String("show", stored.Name),
		logging.String("station", station.CallLetters))
	return stored, nil
}

// SetShowActive flips a show's scheduling eligibility.
func (d *Daemon) SetShowActive(ctx context.Context, ref string, active bool) (*store.Show, error) {
	show, err := d.store.FindShow(ctx, ref)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, fmt.Errorf("show %q not found", ref)
	}
	if _, err := d.store.SetShowActive(ctx, show.ID, active); err != nil {
		return nil, err
	}
	return d.store.ShowByID(ctx, show.ID)
}

// ListRecordings returns recordings, optionally narrowed to one show.
func (d *Daemon) ListRecordings(ctx context.Context, showRef string) ([]*store.Recording, error) {
	if showRef == "" {
		return d.store.ListRecordings(ctx)
	}
	show, err := d.store.FindShow(ctx, showRef)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, fmt.Errorf("show %q not found", showRef)
	}
	return d.store.RecordingsForShow(ctx, show.ID)
}

// RemoveRecording deletes one recording's artifact and row.
func (d *Daemon) RemoveRecording(ctx context.Context, id int64) (*store.Recording, error) {
	return d.ttl.Remove(ctx, id)
}

// ImportRecording copies an external audio file into the library for a show.
func (d *Daemon) ImportRecording(ctx context.Context, showRef, sourcePath string, opts recorder.ImportOptions) (*store.Recording, error) {
	show, err := d.store.FindShow(ctx, showRef)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, fmt.Errorf("show %q not found", showRef)
	}
	return d.recorder.Import(ctx, show, sourcePath, opts)
}

// ExtendRecording pushes a recording's expiry out by additional days.
func (d *Daemon) ExtendRecording(ctx context.Context, id int64, additionalDays int) (*time.Time, error) {
	return d.ttl.Extend(ctx, id, additionalDays)
}

// SetRecordingTTL pins a per-recording TTL override.
func (d *Daemon) SetRecordingTTL(ctx context.Context, id int64, value int, unit store.TTLUnit) (*time.Time, error) {
	return d.ttl.SetOverride(ctx, id, value, unit)
}

// ClearRecordingTTL drops a recording's override, reverting to the show
// default.
func (d *Daemon) ClearRecordingTTL(ctx context.Context, id int64) (*time.Time, error) {
	return d.ttl.ClearOverride(ctx, id)
}

// TestStation runs the compatibility tester against one station.
func (d *Daemon) TestStation(ctx context.Context, ref string) (streamtest.Verdict, error) {
	station, err := d.store.FindStation(ctx, ref)
	if err != nil {
		return streamtest.Verdict{}, err
	}
	if station == nil {
		return streamtest.Verdict{}, fmt.Errorf("station %q not found", ref)
	}
	return d.tester.Test(ctx, station)
}

// TestAllStations retests every station not currently known compatible.
func (d *Daemon) TestAllStations(ctx context.Context) ([]streamtest.Verdict, error) {
	return d.tester.TestAll(ctx)
}

// StartRecording launches an on-demand session for the show in the
// background. The session is bounded by the show duration (or the override)
// plus grace, and survives the IPC request that started it.
func (d *Daemon) StartRecording(ctx context.Context, showRef string, duration time.Duration) (*store.Show, error) {
	if !d.running.Load() {
		return nil, errors.New("daemon not running")
	}
	show, err := d.store.FindShow(ctx, showRef)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, fmt.Errorf("show %q not found", showRef)
	}
	if d.recorder.Active(show.ID) {
		return nil, fmt.Errorf("show %q: %w", show.Name, recorder.ErrSessionActive)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		rec, err := d.recorder.Record(d.ctx, show, recorder.Options{
			Purpose:  store.SourceOnDemand,
			Duration: duration,
		})
		switch {
		case errors.Is(err, recorder.ErrSessionActive):
			d.logger.Info("on-demand session skipped, already active",
				logging.String("show", show.Name))
		case err != nil:
			d.logger.Error("on-demand session failed",
				logging.String("show", show.Name),
				logging.Error(err))
		case rec != nil:
			d.logger.Info("on-demand session completed",
				logging.String("show", show.Name),
				logging.String("filename", rec.Filename))
		}
	}()
	return show, nil
}

// RunHousekeeping triggers one housekeeping sweep.
func (d *Daemon) RunHousekeeping(ctx context.Context) (housekeeping.Result, error) {
	return d.sweeper.Sweep(ctx)
}

// RunRetentionSweep triggers one TTL expiration sweep.
func (d *Daemon) RunRetentionSweep(ctx context.Context) (retention.Result, error) {
	return d.ttl.SweepExpired(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	if d.store == nil {
		return store.DatabaseHealth{}, errors.New("store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
