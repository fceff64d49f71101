package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"aircheck/internal/config"
	"aircheck/internal/housekeeping"
	"aircheck/internal/logging"
	"aircheck/internal/recorder"
	"aircheck/internal/retention"
	"aircheck/internal/schedule"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
)

// SessionRunner starts recording sessions. *recorder.Runner satisfies it.
type SessionRunner interface {
	Record(ctx context.Context, show *store.Show, opts recorder.Options) (*store.Recording, error)
}

// StationTester reruns compatibility probes. *streamtest.Tester satisfies it.
type StationTester interface {
	TestAll(ctx context.Context) ([]streamtest.Verdict, error)
}

// HousekeepingSweeper clears session debris. *housekeeping.Sweeper satisfies it.
type HousekeepingSweeper interface {
	Sweep(ctx context.Context) (housekeeping.Result, error)
}

// RetentionSweeper removes expired recordings. *retention.Manager satisfies it.
type RetentionSweeper interface {
	SweepExpired(ctx context.Context) (retention.Result, error)
}

// Scheduler drives the daemon's periodic work: a minute-aligned tick that
// launches sessions for shows inside their recording window, plus interval
// jobs for stream retests, housekeeping, TTL sweeps, and log pruning. Show
// state is reloaded from the store every tick, so schedule edits take
// effect without a restart.
type Scheduler struct {
	cfg         *config.Config
	store       *store.Store
	runner      SessionRunner
	tester      StationTester
	housekeeper HousekeepingSweeper
	ttl         RetentionSweeper
	logger      *slog.Logger
	pruneLogs   func(context.Context)

	mu      sync.Mutex
	running bool
	// fired maps a show to the window start it last launched for, so a
	// window fires exactly once even though every tick inside it matches.
	fired map[int64]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogPruner installs a log retention job that runs once a day. The
// caller owns the exclusion of its active log file.
func WithLogPruner(prune func(context.Context)) Option {
	return func(s *Scheduler) {
		s.pruneLogs = prune
	}
}

// New constructs a scheduler over the shared store and the daemon's
// long-lived components.
func New(
	cfg *config.Config,
	st *store.Store,
	runner SessionRunner,
	tester StationTester,
	housekeeper HousekeepingSweeper,
	ttl RetentionSweeper,
	opts ...Option,
) *Scheduler {
	sched := &Scheduler{
		cfg:         cfg,
		store:       st,
		runner:      runner,
		tester:      tester,
		housekeeper: housekeeper,
		ttl:         ttl,
		logger:      logging.NewNop(),
		fired:       make(map[int64]time.Time),
	}
	for _, opt := range opts {
		opt(sched)
	}
	return sched
}

// Start launches the tick loop and interval jobs. The first tick runs
// immediately so a daemon restarted mid-window still captures the rest of
// the show.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop()

	s.startIntervalJob("stream retest", s.cfg.StreamTest.IntervalMinutes, s.runRetest)
	s.startIntervalJob("housekeeping", s.cfg.Housekeeping.IntervalMinutes, s.runHousekeeping)
	s.startIntervalJob("retention sweep", s.cfg.Retention.SweepIntervalMinutes, s.runRetentionSweep)
	if s.pruneLogs != nil {
		s.startIntervalJob("log pruning", 24*60, s.pruneLogs)
	}
	return nil
}

// Stop cancels the loop and waits for in-flight work, including any
// recording sessions the scheduler launched.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	s.tick(time.Now())

	timer := time.NewTimer(untilNextMinute(time.Now()))
	defer timer.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-timer.C:
			s.tick(now)
			timer.Reset(untilNextMinute(time.Now()))
		}
	}
}

// untilNextMinute returns the wait to the next wall-clock minute boundary,
// so window starts fire on time rather than up to a minute late.
func untilNextMinute(now time.Time) time.Duration {
	wait := time.Until(now.Truncate(time.Minute).Add(time.Minute))
	if wait <= 0 {
		wait = time.Second
	}
	return wait
}

func (s *Scheduler) tick(now time.Time) {
	ctx := s.ctx
	if ctx == nil || ctx.Err() != nil {
		return
	}
	log := logging.WithContext(ctx, s.logger)

	shows, err := s.store.ActiveShows(ctx)
	if err != nil {
		log.Warn("schedule tick failed to load shows", logging.Error(err))
		return
	}

	stations := make(map[int64]*store.Station)
	due := 0
	for _, show := range shows {
		if !show.Scheduled() {
			continue
		}
		station, ok := stations[show.StationID]
		if !ok {
			station, err = s.store.StationByID(ctx, show.StationID)
			if err != nil {
				log.Warn("schedule tick failed to load station",
					logging.Int64("station_id", show.StationID),
					logging.Error(err))
				continue
			}
			stations[show.StationID] = station
		}
		if station == nil {
			continue
		}

		location, locErr := station.Location()
		if locErr != nil {
			log.Warn("invalid station timezone, evaluating in local time",
				logging.String("timezone", station.Timezone),
				logging.Int64("station_id", station.ID),
				logging.Error(locErr))
			location = time.Local
		}

		window, active := schedule.Evaluate(show.SchedulePattern, show.Duration(), location, now)
		if !active {
			continue
		}
		if !s.claimWindow(show.ID, window.Start) {
			continue
		}
		due++
		s.launch(show, window)
	}

	s.pruneFired(shows)

	if due > 0 {
		log.Info("schedule tick launched sessions", logging.Int("count", due))
	}
}

// claimWindow records the launch so later ticks inside the same window do
// not start a second session. It returns false when already claimed.
func (s *Scheduler) claimWindow(showID int64, windowStart time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.fired[showID]; ok && last.Equal(windowStart) {
		return false
	}
	s.fired[showID] = windowStart
	return true
}

// pruneFired drops launch markers for shows that are gone or disabled so
// the map does not grow with schedule churn.
func (s *Scheduler) pruneFired(shows []*store.Show) {
	live := make(map[int64]struct{}, len(shows))
	for _, show := range shows {
		live[show.ID] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.fired {
		if _, ok := live[id]; !ok {
			delete(s.fired, id)
		}
	}
}

// launch starts one session in the background. The capture blocks for the
// remainder of the window, so each fire gets its own goroutine.
func (s *Scheduler) launch(show *store.Show, window schedule.Window) {
	ctx := s.ctx
	log := logging.WithContext(ctx, s.logger)

	// A restart mid-window records the remainder, not a full duration that
	// would run past the end of the show.
	remaining := time.Until(window.End)
	if remaining <= 0 {
		return
	}

	log.Info("launching scheduled session",
		logging.Int64("show_id", show.ID),
		logging.String("show", show.Name),
		logging.Duration("remaining", remaining))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rec, err := s.runner.Record(ctx, show, recorder.Options{Duration: remaining})
		switch {
		case errors.Is(err, recorder.ErrSessionActive):
			log.Info("session already in flight, scheduled fire skipped",
				logging.Int64("show_id", show.ID))
		case err != nil:
			log.Error("scheduled session failed",
				logging.Int64("show_id", show.ID),
				logging.String("show", show.Name),
				logging.Error(err))
		case rec != nil:
			log.Info("scheduled session recorded",
				logging.Int64("show_id", show.ID),
				logging.String("filename", rec.Filename))
		}
	}()
}

// startIntervalJob runs fn every interval until shutdown. A non-positive
// interval disables the job.
func (s *Scheduler) startIntervalJob(name string, minutes int, fn func(context.Context)) {
	log := logging.WithContext(s.ctx, s.logger)
	if minutes <= 0 {
		log.Info("interval job disabled", logging.String("job", name))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Duration(minutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				fn(s.ctx)
			}
		}
	}()
}

func (s *Scheduler) runRetest(ctx context.Context) {
	log := logging.WithContext(ctx, s.logger)
	verdicts, err := s.tester.TestAll(ctx)
	if err != nil {
		log.Warn("interval stream retest finished with errors", logging.Error(err))
	}
	compatible := 0
	for _, verdict := range verdicts {
		if verdict.Compatible {
			compatible++
		}
	}
	if len(verdicts) > 0 {
		log.Info("interval stream retest finished",
			logging.Int("tested", len(verdicts)),
			logging.Int("compatible", compatible))
	}
}

func (s *Scheduler) runHousekeeping(ctx context.Context) {
	if _, err := s.housekeeper.Sweep(ctx); err != nil {
		logging.WithContext(ctx, s.logger).Warn("interval housekeeping sweep failed", logging.Error(err))
	}
}

func (s *Scheduler) runRetentionSweep(ctx context.Context) {
	if _, err := s.ttl.SweepExpired(ctx); err != nil {
		logging.WithContext(ctx, s.logger).Warn("interval retention sweep failed", logging.Error(err))
	}
}
