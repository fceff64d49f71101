package capture_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aircheck/internal/capture"
	"aircheck/internal/services"
)

// scriptedExecutor fakes tool behavior: optionally writing output bytes,
// emitting lines, failing, or blocking until the deadline kills it.
type scriptedExecutor struct {
	writeBytes  int
	lines       []string
	err         error
	blockOnCtx  bool
	invocations int
	lastBinary  string
	lastArgs    []string
}

func (s *scriptedExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	s.invocations++
	s.lastBinary = binary
	s.lastArgs = append([]string(nil), args...)
	for _, line := range s.lines {
		onOutput(line)
	}
	if s.writeBytes > 0 {
		out := outputPathFromArgs(args)
		if out != "" {
			if err := os.WriteFile(out, make([]byte, s.writeBytes), 0o644); err != nil {
				return err
			}
		}
	}
	if s.blockOnCtx {
		<-ctx.Done()
		return fmt.Errorf("wait command: %w", ctx.Err())
	}
	return s.err
}

func outputPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "-O" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if len(args) > 0 {
		return args[len(args)-1]
	}
	return ""
}

func availableWget(t *testing.T) capture.Backend {
	t.Helper()
	return capture.NewWget(writeStub(t, t.TempDir(), "wget"))
}

func TestRunSuccess(t *testing.T) {
	exec := &scriptedExecutor{writeBytes: 2048, lines: []string{"saving to output"}}
	out := filepath.Join(t.TempDir(), "captures", "KTST_test_20260825-120000.mp3")

	result, err := capture.Run(context.Background(), exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   time.Second,
		OutputPath: out,
	}, time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Size != 2048 {
		t.Fatalf("expected measured size 2048, got %d", result.Size)
	}
	if result.Killed {
		t.Fatal("clean exit must not be reported as killed")
	}
	if !strings.Contains(result.Tail, "saving to output") {
		t.Fatalf("expected tool output in tail, got %q", result.Tail)
	}
	if exec.invocations != 1 {
		t.Fatalf("expected a single invocation, got %d", exec.invocations)
	}
}

func TestRunToolFailureWrapsExternalTool(t *testing.T) {
	exec := &scriptedExecutor{err: errors.New("exit status 1"), lines: []string{"Connection refused"}}
	out := filepath.Join(t.TempDir(), "out.mp3")

	result, err := capture.Run(context.Background(), exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   time.Second,
		OutputPath: out,
	}, 0)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(result.Tail, "Connection refused") {
		t.Fatalf("expected diagnostic tail, got %q", result.Tail)
	}
}

func TestRunEmptyArtifact(t *testing.T) {
	exec := &scriptedExecutor{writeBytes: 0}
	out := filepath.Join(t.TempDir(), "out.mp3")

	_, err := capture.Run(context.Background(), exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   time.Second,
		OutputPath: out,
	}, 0)
	if !errors.Is(err, capture.ErrEmptyArtifact) {
		t.Fatalf("expected ErrEmptyArtifact, got %v", err)
	}
}

func TestRunDeadlineKillWithOutputIsSuccess(t *testing.T) {
	exec := &scriptedExecutor{writeBytes: 512, blockOnCtx: true}
	out := filepath.Join(t.TempDir(), "out.mp3")

	result, err := capture.Run(context.Background(), exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   30 * time.Millisecond,
		OutputPath: out,
	}, 0)
	if err != nil {
		t.Fatalf("expected deadline kill with output to succeed, got %v", err)
	}
	if !result.Killed {
		t.Fatal("expected the result to be marked killed")
	}
	if result.Size != 512 {
		t.Fatalf("expected measured size 512, got %d", result.Size)
	}
}

func TestRunDeadlineKillWithoutOutputFails(t *testing.T) {
	exec := &scriptedExecutor{blockOnCtx: true}
	out := filepath.Join(t.TempDir(), "out.mp3")

	_, err := capture.Run(context.Background(), exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   30 * time.Millisecond,
		OutputPath: out,
	}, 0)
	if !errors.Is(err, capture.ErrEmptyArtifact) {
		t.Fatalf("expected ErrEmptyArtifact, got %v", err)
	}
}

func TestRunCallerCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &scriptedExecutor{writeBytes: 100}
	out := filepath.Join(t.TempDir(), "out.mp3")

	_, err := capture.Run(ctx, exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   time.Second,
		OutputPath: out,
	}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunUnavailableBackend(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	exec := &scriptedExecutor{}

	_, err := capture.Run(context.Background(), exec, capture.NewWget(""), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   time.Second,
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
	}, 0)
	if !errors.Is(err, capture.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if exec.invocations != 0 {
		t.Fatal("unavailable backend must never be invoked")
	}
}

func TestRunKeepsOnlyTailLines(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%02d", i)
	}
	exec := &scriptedExecutor{writeBytes: 10, lines: lines}
	out := filepath.Join(t.TempDir(), "out.mp3")

	result, err := capture.Run(context.Background(), exec, availableWget(t), capture.Request{
		StreamURL:  "http://stream.example.org/live",
		Duration:   time.Second,
		OutputPath: out,
	}, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.Contains(result.Tail, "line-00") {
		t.Fatal("expected early lines to be dropped from the tail")
	}
	if !strings.Contains(result.Tail, "line-29") {
		t.Fatal("expected the final line in the tail")
	}
}
