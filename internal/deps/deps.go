package deps

import (
	"fmt"

	"aircheck/internal/capture"
)

// Status reports the availability of one external capture program.
type Status struct {
	Name        string
	Path        string
	Description string
	Available   bool
	Detail      string
}

var descriptions = map[string]string{
	capture.NameStreamripper: "Preferred ripper, enforces duration limits natively",
	capture.NameWget:         "Plain HTTP dump fallback, supports custom user agents",
	capture.NameFFmpeg:       "Remux fallback for endpoints the simpler tools reject",
}

// Check resolves every backend in the registry against its configured fixed
// path or PATH. Each backend is individually optional; preflight enforces
// the at-least-one rule.
func Check(registry *capture.Registry) []Status {
	statuses := make([]Status, 0, registry.Len())
	for _, backend := range registry.Backends() {
		status := Status{
			Name:        backend.Name(),
			Description: descriptions[backend.Name()],
		}
		if path, ok := backend.Available(); ok {
			status.Available = true
			status.Path = path
		} else {
			status.Detail = fmt.Sprintf("executable %q not found", backend.Name())
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// AnyAvailable reports whether at least one capture backend can run.
func AnyAvailable(statuses []Status) bool {
	for _, status := range statuses {
		if status.Available {
			return true
		}
	}
	return false
}
