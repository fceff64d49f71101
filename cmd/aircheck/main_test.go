package main

import "testing"

func TestRootHelpListsCommands(t *testing.T) {
	stdout, _, err := runCLI(t, []string{"--help"}, "unused.sock", "")
	if err != nil {
		t.Fatalf("--help: %v", err)
	}
	for _, name := range []string{"start", "stop", "status", "stations", "shows", "recordings", "record", "logs", "config"} {
		requireContains(t, stdout, name)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	_, _, err := runCLI(t, []string{"frobnicate"}, "unused.sock", "")
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestCommandsFailWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.server.Close()

	_, _, err := runCLI(t, []string{"stations", "list"}, env.socketPath+".gone", env.configPath)
	if err == nil {
		t.Fatal("expected dial error against missing socket")
	}
	requireContains(t, err.Error(), "connect to daemon")
}
