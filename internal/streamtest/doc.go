// Package streamtest discovers working capture combinations for stations.
//
// The tester walks backends in registry order and, within each backend, a
// user-agent rotation: the station's saved agent, no agent, then a fixed set
// of known-good generic identities. An HTTP 403-class rejection rotates the
// agent; any other failure moves to the next backend. When every combination
// fails against the stored URL, the search restarts against derived URL
// variants for recognized provider shapes.
//
// Probes capture a few seconds into the non-retained test directory. The
// winning combination is written back to the station as its sticky
// recommendation together with the compatibility verdict; every attempt is
// also recorded as an audit row.
package streamtest
