package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aircheck/internal/services"
)

// Result describes one finished capture attempt. It is populated for
// diagnostics even when Run returns an error.
type Result struct {
	Backend string
	Binary  string
	Args    []string
	Elapsed time.Duration
	Size    int64
	// Killed reports that the duration+grace deadline ended the process.
	// Tools without a native duration limit end every capture this way.
	Killed bool
	// Tail holds the last lines the tool printed, for attempt logs.
	Tail string
}

const tailLines = 12

// Run invokes one backend once and judges the outcome by the only signals
// external capture tools give us: exit status and output size. The process
// is bounded by the requested duration plus the grace period; a deadline
// kill with a non-empty artifact is a success, since tools like wget never
// exit on their own. A non-empty artifact left behind by a failed attempt
// is not removed here; housekeeping owns leftovers.
func Run(ctx context.Context, executor Executor, backend Backend, req Request, grace time.Duration) (Result, error) {
	result := Result{Backend: backend.Name()}

	if req.Duration <= 0 {
		return result, errors.New("capture duration required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return result, errors.New("capture output path required")
	}
	if _, ok := backend.Available(); !ok {
		return result, fmt.Errorf("%s: %w", backend.Name(), ErrBackendUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return result, fmt.Errorf("create capture directory: %w", err)
	}

	binary, args := backend.Command(req)
	result.Binary = binary
	result.Args = args

	if grace < 0 {
		grace = 0
	}
	runCtx, cancel := context.WithTimeout(ctx, req.Duration+grace)
	defer cancel()

	var tail []string
	collect := func(line string) {
		if len(tail) == tailLines {
			copy(tail, tail[1:])
			tail = tail[:tailLines-1]
		}
		tail = append(tail, line)
	}

	started := time.Now()
	runErr := executor.Run(runCtx, binary, args, collect)
	result.Elapsed = time.Since(started)
	result.Tail = strings.Join(tail, "\n")
	result.Killed = errors.Is(runCtx.Err(), context.DeadlineExceeded)

	if info, err := os.Stat(req.OutputPath); err == nil && !info.IsDir() {
		result.Size = info.Size()
	}

	// Daemon shutdown or caller cancellation is not a capture verdict.
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	if runErr != nil && !result.Killed {
		return result, services.Wrap(services.ErrExternalTool, "capture", backend.Name(), "capture tool failed", runErr)
	}
	if result.Size == 0 {
		return result, fmt.Errorf("%s: %w", backend.Name(), ErrEmptyArtifact)
	}
	return result, nil
}
