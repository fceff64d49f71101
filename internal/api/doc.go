// Package api defines wire-format types and converters for the IPC layer.
// It translates internal store models into transport-friendly DTOs so CLI
// and daemon exchange payloads without coupling to internal types.
//
// # Key Types
//
// Station/Show/Recording: transport representations of catalog records with
// compatibility verdicts, schedule metadata, and TTL overrides.
//
// TestVerdict: outcome of one stream-compatibility run, failure flattened to
// a string for transport.
//
// DaemonStatus: aggregated runtime information including store counters,
// environment checks, and capture backend availability.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (store.CompatibilityStatus,
// store.SourceType, store.TTLUnit) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds in UTC; zero times are omitted.
package api
