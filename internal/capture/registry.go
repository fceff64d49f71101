package capture

import (
	"fmt"
	"strings"

	"aircheck/internal/config"
	"aircheck/internal/store"
)

// Registry holds the capture backends in fixed fallback order:
// streamripper, wget, ffmpeg.
type Registry struct {
	backends []Backend
}

// NewRegistry builds the default registry from configured backend paths.
func NewRegistry(cfg *config.Config) *Registry {
	return NewRegistryWithBackends(
		NewStreamripper(cfg.Backends.Streamripper),
		NewWget(cfg.Backends.Wget),
		NewFFmpeg(cfg.Backends.FFmpeg),
	)
}

// NewRegistryWithBackends builds a registry over an explicit backend list.
func NewRegistryWithBackends(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

// Backends returns the registry contents in fallback order.
func (r *Registry) Backends() []Backend {
	out := make([]Backend, len(r.backends))
	copy(out, r.backends)
	return out
}

// Len returns the number of registered backends. Retry loops use it as
// their attempt bound.
func (r *Registry) Len() int {
	return len(r.backends)
}

// ByName returns the backend with the given name.
func (r *Registry) ByName(name string) (Backend, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, backend := range r.backends {
		if backend.Name() == name {
			return backend, true
		}
	}
	return nil, false
}

// Select picks the backend for a capture attempt. The station's sticky
// recommendation wins when it is set, not excluded, and available; its
// paired user agent rides along. Otherwise the first available registry
// backend outside the exclusion set is returned with no user agent. The
// exclusion set bounds retries to at most one attempt per backend.
func (r *Registry) Select(station *store.Station, exclude map[string]struct{}) (Backend, string, error) {
	if station != nil && station.HasRecommendation() {
		name := strings.TrimSpace(strings.ToLower(station.RecommendedBackend))
		if _, skip := exclude[name]; !skip {
			if backend, ok := r.ByName(name); ok {
				if _, available := backend.Available(); available {
					return backend, station.RecommendedUserAgent, nil
				}
			}
		}
	}
	for _, backend := range r.backends {
		if _, skip := exclude[backend.Name()]; skip {
			continue
		}
		if _, available := backend.Available(); available {
			return backend, "", nil
		}
	}
	return nil, "", fmt.Errorf("no usable capture backend: %w", ErrBackendUnavailable)
}
