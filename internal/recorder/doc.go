// Package recorder runs bounded capture sessions for shows.
//
// A session actually records air time, so the runner rejects a second start
// for the same show instead of queueing it, walks the backend fallback
// order at most once per backend, and bounds every subprocess by the
// requested duration plus a grace period. A successful session persists the
// Recording row with its initial expiry and writes the winning combination
// back to the station as the new sticky preference when it differs from the
// current one.
package recorder
