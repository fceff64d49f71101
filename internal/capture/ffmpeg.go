package capture

import (
	"strconv"
	"strings"
)

// FFmpeg drives ffmpeg as a general stream client. The audio codec is
// copied rather than transcoded; the container follows the output path
// extension.
type FFmpeg struct {
	path string
}

// NewFFmpeg builds the backend around an optional fixed executable path.
func NewFFmpeg(path string) *FFmpeg {
	return &FFmpeg{path: strings.TrimSpace(path)}
}

func (f *FFmpeg) Name() string { return NameFFmpeg }

func (f *FFmpeg) Available() (string, bool) {
	return resolveBinary(f.path, NameFFmpeg)
}

func (f *FFmpeg) SupportsUserAgent() bool { return true }

func (f *FFmpeg) Command(req Request) (string, []string) {
	binary, ok := resolveBinary(f.path, NameFFmpeg)
	if !ok {
		binary = NameFFmpeg
	}
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	if req.UserAgent != "" {
		args = append(args, "-user_agent", req.UserAgent)
	}
	args = append(args, "-i", req.StreamURL)
	if secs := durationSeconds(req.Duration); secs > 0 {
		args = append(args, "-t", strconv.Itoa(secs))
	}
	args = append(args, "-c", "copy", "-y", req.OutputPath)
	return binary, args
}
