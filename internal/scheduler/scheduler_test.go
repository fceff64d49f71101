package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"aircheck/internal/housekeeping"
	"aircheck/internal/recorder"
	"aircheck/internal/retention"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
	"aircheck/internal/testsupport"
)

type sessionCall struct {
	showID   int64
	duration time.Duration
}

type stubRunner struct {
	mu    sync.Mutex
	calls []sessionCall
	err   error
}

func (r *stubRunner) Record(_ context.Context, show *store.Show, opts recorder.Options) (*store.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sessionCall{showID: show.ID, duration: opts.Duration})
	if r.err != nil {
		return nil, r.err
	}
	return &store.Recording{ShowID: show.ID, Filename: "stub.mp3"}, nil
}

func (r *stubRunner) snapshot() []sessionCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sessionCall, len(r.calls))
	copy(out, r.calls)
	return out
}

type stubTester struct {
	mu    sync.Mutex
	runs  int
	batch []streamtest.Verdict
}

func (t *stubTester) TestAll(context.Context) ([]streamtest.Verdict, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs++
	return t.batch, nil
}

type stubSweeper struct{}

func (stubSweeper) Sweep(context.Context) (housekeeping.Result, error) {
	return housekeeping.Result{}, nil
}

type stubTTL struct{}

func (stubTTL) SweepExpired(context.Context) (retention.Result, error) {
	return retention.Result{}, nil
}

func newTestScheduler(t *testing.T, runner SessionRunner) (*Scheduler, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sched := New(cfg, st, runner, &stubTester{}, stubSweeper{}, stubTTL{})
	sched.ctx = context.Background()
	return sched, st
}

// patternAt builds a daily schedule whose window contains the given moment.
func patternAt(now time.Time) string {
	return fmt.Sprintf("%d %d * * *", now.Minute(), now.Hour())
}

func TestTickLaunchesDueShowOnce(t *testing.T) {
	runner := &stubRunner{}
	sched, st := newTestScheduler(t, runner)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")

	now := time.Now()
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", patternAt(now), 60)

	sched.tick(now)
	sched.wg.Wait()

	calls := runner.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one session launch, got %d", len(calls))
	}
	if calls[0].showID != show.ID {
		t.Fatalf("launched show %d, want %d", calls[0].showID, show.ID)
	}
	if calls[0].duration <= 58*time.Minute || calls[0].duration > 60*time.Minute {
		t.Fatalf("expected roughly the remaining window, got %v", calls[0].duration)
	}

	// Every later tick inside the same window is a no-op.
	sched.tick(now)
	sched.tick(now.Add(30 * time.Minute))
	sched.wg.Wait()
	if got := len(runner.snapshot()); got != 1 {
		t.Fatalf("window fired %d times, want 1", got)
	}
}

func TestTickIgnoresShowsOutsideTheirWindow(t *testing.T) {
	runner := &stubRunner{}
	sched, st := newTestScheduler(t, runner)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")

	now := time.Now()
	offHour := (now.Hour() + 6) % 24
	testsupport.NewShow(t, st, station.ID, "Late Night", fmt.Sprintf("0 %d * * *", offHour), 60)

	sched.tick(now)
	sched.wg.Wait()

	if got := len(runner.snapshot()); got != 0 {
		t.Fatalf("expected no launches outside the window, got %d", got)
	}
}

func TestTickEvaluatesInStationTimezone(t *testing.T) {
	if _, err := time.LoadLocation("America/Chicago"); err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}

	runner := &stubRunner{}
	sched, st := newTestScheduler(t, runner)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	station.Timezone = "America/Chicago"
	if err := st.UpdateStation(context.Background(), station); err != nil {
		t.Fatalf("UpdateStation: %v", err)
	}

	loc, _ := time.LoadLocation("America/Chicago")
	now := time.Now()
	show := testsupport.NewShow(t, st, station.ID, "Drive Time", patternAt(now.In(loc)), 60)

	sched.tick(now)
	sched.wg.Wait()

	calls := runner.snapshot()
	if len(calls) != 1 || calls[0].showID != show.ID {
		t.Fatalf("expected the station-local window to be active, got %+v", calls)
	}
}

func TestClaimWindow(t *testing.T) {
	sched := &Scheduler{fired: make(map[int64]time.Time)}
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	if !sched.claimWindow(7, start) {
		t.Fatal("first claim must win")
	}
	if sched.claimWindow(7, start) {
		t.Fatal("second claim of the same window must lose")
	}
	if !sched.claimWindow(7, start.AddDate(0, 0, 1)) {
		t.Fatal("the next occurrence is a fresh window")
	}
	if !sched.claimWindow(8, start) {
		t.Fatal("claims are per show")
	}
}

func TestPruneFiredDropsDepartedShows(t *testing.T) {
	sched := &Scheduler{fired: map[int64]time.Time{
		1: time.Now(),
		2: time.Now(),
	}}

	sched.pruneFired([]*store.Show{{ID: 2}})

	if _, ok := sched.fired[1]; ok {
		t.Fatal("departed show marker should be pruned")
	}
	if _, ok := sched.fired[2]; !ok {
		t.Fatal("live show marker must survive")
	}
}

func TestUntilNextMinute(t *testing.T) {
	now := time.Date(2026, 3, 2, 6, 0, 30, 0, time.UTC)
	wait := untilNextMinute(now)
	if wait <= 0 || wait > time.Minute {
		t.Fatalf("wait = %v, want within (0, 1m]", wait)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	runner := &stubRunner{}
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sched := New(cfg, st, runner, &stubTester{}, stubSweeper{}, stubTTL{})

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sched.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail while running")
	}
	sched.Stop()

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	sched.Stop()
}
