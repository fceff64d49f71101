package recorder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"aircheck/internal/capture"
	"aircheck/internal/recorder"
	"aircheck/internal/services"
	"aircheck/internal/store"
	"aircheck/internal/testsupport"
)

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
		if out := outputPathFromArgs(args); out != "" {
			if err := os.WriteFile(out, make([]byte, current.writeBytes), 0o644); err != nil {
				return err
			}
		}
	}
	return current.err
}

func (s *scriptedExecutor) call(i int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.calls) {
		return nil
	}
	return s.calls[i]
}

func outputPathFromArgs(args []string) string {
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

// blockingExecutor holds the capture open until released, so overlap tests
// can observe an in-flight session.
type blockingExecutor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	if out := outputPathFromArgs(args); out != "" {
		return os.WriteFile(out, make([]byte, 512), 0o644)
	}
	return nil
}

var filenamePattern = regexp.MustCompile(`^KTST_[a-z0-9-]+_\d{8}-\d{6}\.mp3$`)

func TestRecordScheduledSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	exec := &scriptedExecutor{steps: []step{{writeBytes: 4096}}}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(exec))

	rec, err := runner.Record(context.Background(), show, recorder.Options{})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a recording row")
	}
	if rec.ShowID != show.ID || rec.SourceType != store.SourceScheduled {
		t.Fatalf("unexpected row: %+v", rec)
	}
	if rec.FileSizeBytes != 4096 {
		t.Fatalf("expected measured size 4096, got %d", rec.FileSizeBytes)
	}
	if !filenamePattern.MatchString(rec.Filename) {
		t.Fatalf("filename %q does not match the deterministic pattern", rec.Filename)
	}
	if !strings.Contains(rec.Filename, "_morning-drive_") {
		t.Fatalf("expected slugified show name in filename, got %q", rec.Filename)
	}
	if rec.ExpiresAt == nil {
		t.Fatal("expected an initial expiry from the show default")
	}
	wantExpiry := rec.RecordedAt.AddDate(0, 0, 30)
	if !rec.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiry = %v, want %v", rec.ExpiresAt, wantExpiry)
	}

	if _, err := os.Stat(rec.ArtifactPath(cfg.Paths.LibraryDir)); err != nil {
		t.Fatalf("expected artifact on disk: %v", err)
	}

	updated, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if updated.RecommendedBackend != capture.NameStreamripper {
		t.Fatalf("expected sticky write-back to streamripper, got %q", updated.RecommendedBackend)
	}
}

func TestRecordHonorsStickyBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	if err := st.SetStationRecommendation(context.Background(), station.ID, capture.NameWget, "Saved/1.0"); err != nil {
		t.Fatalf("SetStationRecommendation: %v", err)
	}
	show := testsupport.NewShow(t, st, station.ID, "Evening Jazz", "0 20 * * 5", 120)

	exec := &scriptedExecutor{steps: []step{{writeBytes: 1024}}}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(exec))

	if _, err := runner.Record(context.Background(), show, recorder.Options{}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	first := exec.call(0)
	if first == nil || !strings.HasSuffix(first[0], "wget") {
		t.Fatalf("expected sticky wget to run first, got %v", first)
	}
	joined := strings.Join(first, " ")
	if !strings.Contains(joined, "--user-agent=Saved/1.0") {
		t.Fatalf("expected saved user agent on the command line, got %q", joined)
	}
}

func TestRecordFallsBackAndOverwritesSticky(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	if err := st.SetStationRecommendation(context.Background(), station.ID, capture.NameWget, "Saved/1.0"); err != nil {
		t.Fatalf("SetStationRecommendation: %v", err)
	}
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	exec := &scriptedExecutor{steps: []step{
		{lines: []string{"failed: Connection refused."}, err: errors.New("exit status 4")},
		{writeBytes: 2048},
	}}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(exec))

	rec, err := runner.Record(context.Background(), show, recorder.Options{})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.FileSizeBytes != 2048 {
		t.Fatalf("expected fallback capture size 2048, got %d", rec.FileSizeBytes)
	}

	updated, err := st.StationByID(context.Background(), station.ID)
	if err != nil {
		t.Fatalf("StationByID: %v", err)
	}
	if updated.RecommendedBackend != capture.NameStreamripper {
		t.Fatalf("expected sticky overwritten by the backend that worked, got %q", updated.RecommendedBackend)
	}
	if updated.RecommendedUserAgent != "" {
		t.Fatalf("expected cleared user agent with the new sticky, got %q", updated.RecommendedUserAgent)
	}
}

func TestRecordRejectsConcurrentSession(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	blocker := &blockingExecutor{started: make(chan struct{}), release: make(chan struct{})}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(blocker))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = runner.Record(context.Background(), show, recorder.Options{})
	}()

	<-blocker.started
	if !runner.Active(show.ID) {
		t.Fatal("expected the show to report an active session")
	}
	if _, err := runner.Record(context.Background(), show, recorder.Options{}); !errors.Is(err, recorder.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	close(blocker.release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first session failed: %v", firstErr)
	}
	if runner.Active(show.ID) {
		t.Fatal("expected the session lock to be released")
	}
}

func TestRecordFailsWhenAllBackendsFail(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	exec := &scriptedExecutor{steps: []step{
		{lines: []string{"failed: Connection refused."}, err: errors.New("exit status 4")},
	}}
	notifier := &recordingNotifier{}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg),
		recorder.WithExecutor(exec),
		recorder.WithNotifier(notifier),
	)

	rec, err := runner.Record(context.Background(), show, recorder.Options{})
	if rec != nil {
		t.Fatalf("expected no recording row, got %+v", rec)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool failure, got %v", err)
	}

	rows, listErr := st.ListRecordings(context.Background())
	if listErr != nil {
		t.Fatalf("ListRecordings: %v", listErr)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows after total failure, got %d", len(rows))
	}
	if len(notifier.failed) != 1 || notifier.failed[0] != "Morning Drive" {
		t.Fatalf("expected one failure notification, got %+v", notifier.failed)
	}
	if exec.invocations() != 3 {
		t.Fatalf("expected one attempt per backend, got %d", exec.invocations())
	}
}

func (s *scriptedExecutor) invocations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestRecordTestPurposeSkipsRow(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	exec := &scriptedExecutor{steps: []step{{writeBytes: 256}}}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(exec))

	rec, err := runner.Record(context.Background(), show, recorder.Options{Purpose: store.SourceTest})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec != nil {
		t.Fatalf("test capture must not create a row, got %+v", rec)
	}

	rows, err := st.ListRecordings(context.Background())
	if err != nil {
		t.Fatalf("ListRecordings: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}

	entries, err := os.ReadDir(cfg.Paths.TestDir)
	if err != nil {
		t.Fatalf("read test dir: %v", err)
	}
	if len(entries) != 1 || !strings.Contains(entries[0].Name(), "_test_") {
		t.Fatalf("expected one test artifact with the test label, got %v", entries)
	}

	libEntries, err := os.ReadDir(cfg.Paths.LibraryDir)
	if err == nil && len(libEntries) != 0 {
		t.Fatalf("expected nothing in the library dir, got %v", libEntries)
	}
}

func TestRecordOnDemandLabelAndDurationOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	exec := &scriptedExecutor{steps: []step{{writeBytes: 640}}}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(exec))

	rec, err := runner.Record(context.Background(), show, recorder.Options{
		Purpose:  store.SourceOnDemand,
		Duration: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.SourceType != store.SourceOnDemand {
		t.Fatalf("expected on_demand source, got %s", rec.SourceType)
	}
	if !strings.Contains(rec.Filename, "_on-demand_") {
		t.Fatalf("expected on-demand label in filename, got %q", rec.Filename)
	}

	// The streamripper argv carries the requested duration in seconds.
	first := exec.call(0)
	joined := strings.Join(first, " ")
	if !strings.Contains(joined, " -l 300") {
		t.Fatalf("expected 300 second limit on the command line, got %q", joined)
	}
}

func TestRecordStampsFilenameInStationTimezone(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	station.Timezone = "America/Chicago"
	if err := st.UpdateStation(context.Background(), station); err != nil {
		t.Fatalf("UpdateStation: %v", err)
	}
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	exec := &scriptedExecutor{steps: []step{{writeBytes: 128}}}
	runner := recorder.New(cfg, st, capture.NewRegistry(cfg), recorder.WithExecutor(exec))

	rec, err := runner.Record(context.Background(), show, recorder.Options{})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	parts := strings.Split(strings.TrimSuffix(rec.Filename, ".mp3"), "_")
	if len(parts) != 3 {
		t.Fatalf("unexpected filename shape %q", rec.Filename)
	}
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	stamp, err := time.ParseInLocation("20060102-150405", parts[2], loc)
	if err != nil {
		t.Fatalf("parse filename stamp: %v", err)
	}
	if drift := time.Since(stamp); drift < -2*time.Minute || drift > 2*time.Minute {
		t.Fatalf("stamp %v not rendered in station timezone (drift %v)", stamp, drift)
	}
}

func TestRecordRejectsUploadedPurpose(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	station := testsupport.NewStation(t, st, "Test FM", "KTST", "http://stream.example.org/live")
	show := testsupport.NewShow(t, st, station.ID, "Morning Drive", "0 6 * * 1-5", 60)

	runner := recorder.New(cfg, st, capture.NewRegistry(cfg),
		recorder.WithExecutor(&scriptedExecutor{}))

	if _, err := runner.Record(context.Background(), show, recorder.Options{Purpose: store.SourceUploaded}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (r *recordingNotifier) NotifyRecordingCompleted(_ context.Context, showName, _ string, _ int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, showName)
	return nil
}

func (r *recordingNotifier) NotifyRecordingFailed(_ context.Context, showName string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, showName)
	return nil
}

func (r *recordingNotifier) NotifyStationRepaired(context.Context, string, string) error { return nil }
func (r *recordingNotifier) NotifyStationBroken(context.Context, string) error           { return nil }
func (r *recordingNotifier) NotifySweepCompleted(context.Context, string, int, int64) error {
	return nil
}
func (r *recordingNotifier) NotifyError(context.Context, error, string) error { return nil }
func (r *recordingNotifier) TestNotification(context.Context) error           { return nil }
