// Command aircheck is the CLI for the aircheck recording daemon.
//
// Most subcommands talk to a running daemon over its Unix socket; `aircheck
// daemon` runs the daemon itself in the foreground and `aircheck start`
// launches it detached. Catalog commands manage stations, shows, and
// recordings; `record` starts an on-demand session; `stations test` runs the
// stream compatibility tester.
package main
