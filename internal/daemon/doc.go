// Package daemon coordinates the long-running aircheck process and system
// integration points.
//
// It wires configuration, the store, the scheduler, and the capture services
// into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon exposes catalog and retention operations to the IPC
// layer, launches on-demand sessions in the background, and emits dependency
// health summaries.
//
// Keep orchestration logic here: capture, testing, and sweep mechanics live
// in their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
