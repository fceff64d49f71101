package capture

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Streamripper drives the streamripper stream dumper. It rips the raw
// stream into a single file and honors a duration limit natively. It sends
// its own fixed relay-style identity, so custom user agents are ignored.
type Streamripper struct {
	path string
}

// NewStreamripper builds the backend around an optional fixed executable path.
func NewStreamripper(path string) *Streamripper {
	return &Streamripper{path: strings.TrimSpace(path)}
}

func (s *Streamripper) Name() string { return NameStreamripper }

func (s *Streamripper) Available() (string, bool) {
	return resolveBinary(s.path, NameStreamripper)
}

func (s *Streamripper) SupportsUserAgent() bool { return false }

func (s *Streamripper) Command(req Request) (string, []string) {
	binary, ok := resolveBinary(s.path, NameStreamripper)
	if !ok {
		binary = NameStreamripper
	}
	args := []string{
		req.StreamURL,
		"-d", filepath.Dir(req.OutputPath),
		"-a", filepath.Base(req.OutputPath),
		"-A",
		"-s",
	}
	if secs := durationSeconds(req.Duration); secs > 0 {
		args = append(args, "-l", strconv.Itoa(secs))
	}
	return binary, args
}
