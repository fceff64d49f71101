package streamtest

import (
	"errors"
	"strings"
)

// ErrAuthRequired marks an attempt the stream host rejected with an HTTP
// 403-class status. The search rotates user agents on this class instead of
// abandoning the backend.
var ErrAuthRequired = errors.New("stream host rejected client")

// Capture tools surface HTTP rejections only as text on stderr, so the
// output tail of a failed attempt is the classification signal. Markers are
// matched case-insensitively.
var authMarkers = []string{
	"403",
	"401",
	"forbidden",
	"unauthorized",
	"access denied",
}

func authRejected(tail string) bool {
	lowered := strings.ToLower(tail)
	for _, marker := range authMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
