package streamtest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"aircheck/internal/capture"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
	"aircheck/internal/testsupport"
)

// step scripts one executor invocation: write output bytes, emit lines, fail.
type step struct {
	writeBytes int
	lines      []string
	err        error
}

type scriptedExecutor struct {
	mu    sync.Mutex
	steps []step
	calls [][]string
}

func (s *scriptedExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	s.mu.Lock()
	idx := len(s.calls)
	s.calls = append(s.calls, append([]string{binary}, args...))
	var current step
	if len(s.steps) > 0 {
		if idx >= len(s.steps) {
			current = s.steps[len(s.steps)-1]
		} else {
			current = s.steps[idx]
		}
	}
	s.mu.Unlock()

	for _, line := range current.lines {
		onOutput(line)
	}
	if current.writeBytes > 0 {
		if out := probeOutputPath(args); out != "" {
			if err := os.WriteFile(out, make([]byte, current.writeBytes), 0o644); err != nil {
				return err
			}
		}
	}
	return current.err
}

func (s *scriptedExecutor) invocations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// probeOutputPath recovers the artifact path from backend argument shapes:
// wget's -O flag, streamripper's -d/-a pair, or ffmpeg's trailing argument.
func probeOutputPath(args []string) string {
	var dir, base string
	for i, arg := range args {
		switch arg {
		case "-O":
			if i+1 < len(args) {
				return args[i+1]
			}
		case "-d":
			if i+1 < len(args) {
				dir = args[i+1]
			}
		case "-a":
			if i+1 < len(args) {
				base = args[i+1]
			}
		}
	}
	if dir != "" && base != "" {
		return filepath.Join(dir, base)
	}
	if len(args) > 0 {
		return args[len(args)-1]
	}
	return ""
}

type recordingNotifier struct {
	mu       sync.Mutex
	repaired []string
	broken   []string
}

func (r *recordingNotifier) NotifyRecordingCompleted(context.Context, string, string, int64) error {
	return nil
}
func (r *recordingNotifier) NotifyRecordingFailed(context.Context, string, error) error { return nil }
func (r *recordingNotifier) NotifyStationRepaired(_ context.Context, callLetters, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repaired = append(r.repaired, callLetters)
	return nil
}
func (r *recordingNotifier) NotifyStationBroken(_ context.Context, callLetters string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broken = append(r.broken, callLetters)
	return nil
}
func (r *recordingNotifier) NotifySweepCompleted(context.Context, string, int, int64) error {
	return nil
}
func (r *recordingNotifier) NotifyError(context.Context, error, string) error { return nil }
func (r *recordingNotifier) TestNotification(context.Context) error           { return nil }

func TestTesterFirstBackendWins(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")

	exec := &scriptedExecutor{steps: []step{{writeBytes: 4096}}}
	tester := streamtest.New(cfg, st, capture.NewRegistry(cfg), streamtest.WithExecutor(exec))

	verdict, err := tester.Test(context.Background(), station)
	if err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if !verdict.Compatible {
		t.Fatalf("expected compatible verdict, got %+v", verdict)
	}
	if verdict.Backend != capture.NameStreamripper {
		t.Fatalf("expected streamripper to win, got %q", verdict.Backend)
	}
	if verdict.UserAgent != "" {
		t.Fatalf("streamripper cannot carry a user agent, got %q", verdict.UserAgent)
	}
	if verdict.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", verdict.Attempts)
	}

	updated, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if updated.Compatibility != store.CompatibilityCompatible {
		t.Fatalf("expected compatible status, got %s", updated.Compatibility)
	}
	if updated.RecommendedBackend != capture.NameStreamripper {
		t.Fatalf("expected sticky backend streamripper, got %q", updated.RecommendedBackend)
	}
	if updated.LastTestedAt == nil {
		t.Fatal("expected last_tested_at to be set")
	}
	if !strings.Contains(updated.TestLog, "streamripper") {
		t.Fatalf("expected attempt trail in test log, got %q", updated.TestLog)
	}

	results, err := st.ToolTestResultsForStation(context.Background(), station.ID, 0)
	if err != nil {
		t.Fatalf("ToolTestResultsForStation: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected one successful audit row, got %+v", results)
	}

	entries, err := os.ReadDir(cfg.Paths.TestDir)
	if err != nil {
		t.Fatalf("read test dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected probe artifacts to be removed, found %d entries", len(entries))
	}
}

func TestTesterRotatesUserAgentOnAuthRejection(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("wget"),
		testsupport.WithUserAgents("AgentA/1.0", "AgentB/1.0"),
	)
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Forbidden FM", "KFBD", "http://stream.example.org/live")

	toolErr := errors.New("exit status 8")
	exec := &scriptedExecutor{steps: []step{
		{lines: []string{"HTTP request sent, awaiting response... 403 Forbidden"}, err: toolErr},
		{lines: []string{"HTTP request sent, awaiting response... 403 Forbidden"}, err: toolErr},
		{writeBytes: 1024},
	}}
	registry := capture.NewRegistryWithBackends(capture.NewWget(cfg.Backends.Wget))
	tester := streamtest.New(cfg, st, registry, streamtest.WithExecutor(exec))

	verdict, err := tester.Test(context.Background(), station)
	if err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if !verdict.Compatible {
		t.Fatalf("expected compatible verdict, got failure log:\n%s", verdict.Log)
	}
	if verdict.UserAgent != "AgentB/1.0" {
		t.Fatalf("expected second rotation agent to win, got %q", verdict.UserAgent)
	}
	if verdict.Attempts != 3 {
		t.Fatalf("expected 3 attempts (no agent, AgentA, AgentB), got %d", verdict.Attempts)
	}

	updated, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if updated.RecommendedUserAgent != "AgentB/1.0" {
		t.Fatalf("expected sticky agent AgentB/1.0, got %q", updated.RecommendedUserAgent)
	}

	results, err := st.ToolTestResultsForStation(context.Background(), station.ID, 0)
	if err != nil {
		t.Fatalf("ToolTestResultsForStation: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 audit rows, got %d", len(results))
	}
	if !results[0].Success || results[1].Success || results[2].Success {
		t.Fatalf("expected newest row successful and older rows failed, got %+v", results)
	}
}

func TestTesterAdvancesBackendOnOtherFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("wget", "ffmpeg"),
		testsupport.WithUserAgents(),
	)
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Refused FM", "KRFD", "http://stream.example.org/live")

	exec := &scriptedExecutor{steps: []step{
		{lines: []string{"failed: Connection refused."}, err: errors.New("exit status 4")},
		{writeBytes: 512},
	}}
	registry := capture.NewRegistryWithBackends(
		capture.NewWget(cfg.Backends.Wget),
		capture.NewFFmpeg(cfg.Backends.FFmpeg),
	)
	tester := streamtest.New(cfg, st, registry, streamtest.WithExecutor(exec))

	verdict, err := tester.Test(context.Background(), station)
	if err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if !verdict.Compatible || verdict.Backend != capture.NameFFmpeg {
		t.Fatalf("expected ffmpeg to win after wget failure, got %+v", verdict)
	}
	if verdict.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", verdict.Attempts)
	}
}

func TestTesterTriesURLVariantsAfterExhaustion(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("wget"),
		testsupport.WithUserAgents(),
	)
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Variant FM", "KVAR", "http://radio.example.com/stream")

	exec := &scriptedExecutor{steps: []step{
		{lines: []string{"failed: Connection refused."}, err: errors.New("exit status 4")},
		{lines: []string{"failed: Connection refused."}, err: errors.New("exit status 4")},
		{writeBytes: 256},
	}}
	registry := capture.NewRegistryWithBackends(capture.NewWget(cfg.Backends.Wget))
	tester := streamtest.New(cfg, st, registry, streamtest.WithExecutor(exec))

	verdict, err := tester.Test(context.Background(), station)
	if err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if !verdict.Compatible {
		t.Fatalf("expected a variant to succeed, log:\n%s", verdict.Log)
	}
	if verdict.StreamURL != "http://radio.example.com/listen" {
		t.Fatalf("expected /listen variant to win, got %q", verdict.StreamURL)
	}

	updated, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if updated.StreamURL != "http://radio.example.com/listen" {
		t.Fatalf("expected station URL updated to working variant, got %q", updated.StreamURL)
	}
}

func TestTesterKeepsStickyOnTotalFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("wget"),
		testsupport.WithUserAgents(),
	)
	cfg.StreamTest.TryURLVariants = false
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Sticky FM", "KSTK", "http://stream.example.org/live")
	if err := st.SetStationRecommendation(context.Background(), station.ID, "wget", "Saved/1.0"); err != nil {
		t.Fatalf("SetStationRecommendation: %v", err)
	}
	station, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}

	exec := &scriptedExecutor{steps: []step{
		{lines: []string{"HTTP request sent, awaiting response... 403 Forbidden"}, err: errors.New("exit status 8")},
	}}
	registry := capture.NewRegistryWithBackends(capture.NewWget(cfg.Backends.Wget))
	tester := streamtest.New(cfg, st, registry, streamtest.WithExecutor(exec))

	verdict, err := tester.Test(context.Background(), station)
	if err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if verdict.Compatible {
		t.Fatal("expected incompatible verdict")
	}
	if verdict.Failure == nil {
		t.Fatal("expected aggregated attempt failures")
	}
	if verdict.Attempts != 2 {
		t.Fatalf("expected saved agent plus bare attempt, got %d attempts", verdict.Attempts)
	}
	if !errors.Is(verdict.Failure, streamtest.ErrAuthRequired) {
		t.Fatalf("expected auth rejection in failure trail, got %v", verdict.Failure)
	}

	updated, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if updated.Compatibility != store.CompatibilityIncompatible {
		t.Fatalf("expected incompatible status, got %s", updated.Compatibility)
	}
	if updated.RecommendedBackend != "wget" || updated.RecommendedUserAgent != "Saved/1.0" {
		t.Fatalf("expected sticky recommendation preserved, got %q/%q", updated.RecommendedBackend, updated.RecommendedUserAgent)
	}
}

func TestTesterNotifiesOnTransition(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("wget"),
		testsupport.WithUserAgents(),
	)
	cfg.StreamTest.TryURLVariants = false
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Transition FM", "KTRN", "http://stream.example.org/live")

	notifier := &recordingNotifier{}
	registry := capture.NewRegistryWithBackends(capture.NewWget(cfg.Backends.Wget))

	// unknown -> compatible announces the repair.
	tester := streamtest.New(cfg, st, registry,
		streamtest.WithExecutor(&scriptedExecutor{steps: []step{{writeBytes: 128}}}),
		streamtest.WithNotifier(notifier),
	)
	if _, err := tester.Test(context.Background(), station); err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if len(notifier.repaired) != 1 || notifier.repaired[0] != "KTRN" {
		t.Fatalf("expected repair notification for KTRN, got %+v", notifier.repaired)
	}

	// compatible -> incompatible announces the break.
	station, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	tester = streamtest.New(cfg, st, registry,
		streamtest.WithExecutor(&scriptedExecutor{steps: []step{{err: errors.New("exit status 4")}}}),
		streamtest.WithNotifier(notifier),
	)
	if _, err := tester.Test(context.Background(), station); err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if len(notifier.broken) != 1 || notifier.broken[0] != "KTRN" {
		t.Fatalf("expected broken notification for KTRN, got %+v", notifier.broken)
	}
}

func TestTesterSkipsUnavailableBackends(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUserAgents())
	cfg.StreamTest.TryURLVariants = false
	t.Setenv("PATH", t.TempDir())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Bare FM", "KBAR", "http://stream.example.org/live")

	exec := &scriptedExecutor{}
	tester := streamtest.New(cfg, st, capture.NewRegistry(cfg), streamtest.WithExecutor(exec))

	verdict, err := tester.Test(context.Background(), station)
	if err != nil {
		t.Fatalf("Test returned error: %v", err)
	}
	if verdict.Compatible {
		t.Fatal("expected incompatible verdict with no backends installed")
	}
	if exec.invocations() != 0 {
		t.Fatalf("expected no tool invocations, got %d", exec.invocations())
	}
	if !strings.Contains(verdict.Log, "executable not found") {
		t.Fatalf("expected skip entries in trail, got:\n%s", verdict.Log)
	}
}

func TestTestAllRetestsNonCompatibleStations(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries("wget"),
		testsupport.WithUserAgents(),
	)
	cfg.StreamTest.TryURLVariants = false
	st := testsupport.MustOpenStore(t, cfg)
	first := testsupport.NewStation(t, st, "First FM", "KONE", "http://one.example.org/live")
	second := testsupport.NewStation(t, st, "Second FM", "KTWO", "http://two.example.org/live")
	compatible := testsupport.NewStation(t, st, "Settled FM", "KSET", "http://set.example.org/live")
	if err := st.SetStationVerdict(context.Background(), compatible.ID, "wget", "", store.CompatibilityCompatible, "ok"); err != nil {
		t.Fatalf("SetStationVerdict: %v", err)
	}

	exec := &scriptedExecutor{steps: []step{{writeBytes: 64}}}
	registry := capture.NewRegistryWithBackends(capture.NewWget(cfg.Backends.Wget))
	tester := streamtest.New(cfg, st, registry, streamtest.WithExecutor(exec))

	verdicts, err := tester.TestAll(context.Background())
	if err != nil {
		t.Fatalf("TestAll returned error: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected verdicts for the 2 non-compatible stations, got %d", len(verdicts))
	}
	seen := map[int64]bool{}
	for _, v := range verdicts {
		if !v.Compatible {
			t.Fatalf("expected compatible verdicts, got %+v", v)
		}
		seen[v.StationID] = true
	}
	if !seen[first.ID] || !seen[second.ID] {
		t.Fatalf("expected verdicts for stations %d and %d, got %+v", first.ID, second.ID, verdicts)
	}
}
