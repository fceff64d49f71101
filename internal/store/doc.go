// Package store persists stations, shows, recordings, and stream test
// results in SQLite.
//
// The Store manages database connections, embedded schema migrations, and
// the queries the rest of the system coordinates through: sticky backend
// recommendations written by the tester and live sessions, recording rows
// with their TTL override pairs and derived expiry, and the per-attempt
// tool test trail.
//
// Recording rows are created by the session runner and the import command,
// expiry fields are mutated by the retention manager, and rows are deleted
// by the housekeeping and retention sweeps or explicit removal. Timestamps
// are stored as RFC 3339 UTC strings so lexicographic comparison in SQL
// matches chronological order.
package store
