package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"aircheck/internal/testsupport"
)

func TestHousekeepingSweepRemovesEmptyArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)

	empty := filepath.Join(env.cfg.Paths.LibraryDir, "dead-air.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("create empty artifact: %v", err)
	}
	testsupport.AgeFile(t, empty, 48*time.Hour)

	stdout, _, err := runCLI(t, []string{"housekeeping", "sweep"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("housekeeping sweep: %v", err)
	}
	requireContains(t, stdout, "Housekeeping sweep removed 1 files")

	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatalf("expected empty artifact removed, stat err=%v", err)
	}
}

func TestRetentionSweepNoExpiredRecordings(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"retention", "sweep"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("retention sweep: %v", err)
	}
	requireContains(t, stdout, "Retention sweep removed 0 files and 0 rows")
}
