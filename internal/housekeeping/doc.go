// Package housekeeping reconciles the recording library with the database.
// Failed captures leave zero-byte artifacts with no row, and externally
// deleted files leave rows with no artifact; the sweeper removes both once
// they age past a grace period that protects in-progress sessions. It also
// clears stale probe files from the stream-test scratch directory.
package housekeeping
