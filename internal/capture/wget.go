package capture

import "strings"

// Wget drives the wget HTTP downloader. It follows redirects and honors
// custom user agents but has no duration limit of its own: the runner's
// hard kill bounds it, and a kill after a non-empty write counts as a
// clean capture.
type Wget struct {
	path string
}

// NewWget builds the backend around an optional fixed executable path.
func NewWget(path string) *Wget {
	return &Wget{path: strings.TrimSpace(path)}
}

func (w *Wget) Name() string { return NameWget }

func (w *Wget) Available() (string, bool) {
	return resolveBinary(w.path, NameWget)
}

func (w *Wget) SupportsUserAgent() bool { return true }

func (w *Wget) Command(req Request) (string, []string) {
	binary, ok := resolveBinary(w.path, NameWget)
	if !ok {
		binary = NameWget
	}
	args := []string{"-O", req.OutputPath, "-q", "--tries=1"}
	if req.UserAgent != "" {
		args = append(args, "--user-agent="+req.UserAgent)
	}
	args = append(args, req.StreamURL)
	return binary, args
}
