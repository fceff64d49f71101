// Package scheduler turns stored show schedules into recording sessions.
// A minute-aligned loop reloads active shows each tick, evaluates their
// windows in each station's timezone, and launches one session per window
// occurrence; restarts mid-window capture the remainder. Stream retests,
// housekeeping, TTL sweeps, and log pruning run as independent interval
// jobs under the same lifecycle.
package scheduler
