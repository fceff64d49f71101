package capture

import (
	"errors"
	"os"
	"os/exec"
	"time"
)

// Backend names in fallback order.
const (
	NameStreamripper = "streamripper"
	NameWget         = "wget"
	NameFFmpeg       = "ffmpeg"
)

var (
	// ErrBackendUnavailable marks a backend whose executable cannot be
	// found. Selection skips it; it is never a runtime failure.
	ErrBackendUnavailable = errors.New("capture backend unavailable")
	// ErrEmptyArtifact marks a capture that exited without writing a byte.
	ErrEmptyArtifact = errors.New("capture produced an empty artifact")
)

// Request describes one capture invocation.
type Request struct {
	StreamURL  string
	UserAgent  string
	Duration   time.Duration
	OutputPath string
}

// Backend is one external capture program. Implementations build the
// command line; they never execute anything themselves.
type Backend interface {
	// Name returns the stable identifier stored in sticky recommendations.
	Name() string
	// Available resolves the executable: the configured fixed path first,
	// then a PATH lookup of the bare name.
	Available() (string, bool)
	// Command returns the resolved binary and its argument list.
	Command(req Request) (string, []string)
	// SupportsUserAgent reports whether the program honors a custom
	// user-agent string.
	SupportsUserAgent() bool
}

func resolveBinary(fixedPath, name string) (string, bool) {
	if fixedPath != "" {
		if info, err := os.Stat(fixedPath); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return fixedPath, true
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	return "", false
}

func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}
