package services

import "context"

type contextKey string

const (
	stationIDKey contextKey = "station_id"
	showIDKey    contextKey = "show_id"
	componentKey contextKey = "component"
	sessionIDKey contextKey = "session_id"
)

// WithStationID annotates context with the station identifier.
func WithStationID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, stationIDKey, id)
}

// StationIDFromContext extracts the station identifier if present.
func StationIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(stationIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithShowID annotates context with the show identifier.
func WithShowID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, showIDKey, id)
}

// ShowIDFromContext extracts the show identifier if present.
func ShowIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(showIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithComponent annotates context with the orchestrator component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(componentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSessionID annotates context with a capture session correlation id.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the capture session correlation id if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
