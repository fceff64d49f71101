// Package preflight validates the environment before the daemon starts
// work: directory access, database health, capture backend availability,
// and ntfy reachability. Checks return results instead of failing fast so
// status output can show everything at once.
package preflight
