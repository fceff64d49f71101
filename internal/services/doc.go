// Package services defines shared utilities consumed by the capture
// orchestrator components and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp station, show, and capture session
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     consistently (recoverable capture failures vs fatal storage errors).
//
// Use these helpers when wiring new orchestrator logic so operational
// behaviour (error handling, observability, retries) stays uniform.
package services
