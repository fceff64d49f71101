// Package notifications delivers recorder and tester events via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and gracefully degrades to a no-op when no topic is set. Per-category
// toggles (recordings, stream tests, sweeps, errors) suppress categories the
// operator does not care about.
//
// Extend this package if you need alternative transports; callers depend only
// on the Service interface.
package notifications
