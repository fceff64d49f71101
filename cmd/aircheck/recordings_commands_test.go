package main

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"aircheck/internal/store"
	"aircheck/internal/testsupport"
)

func seedRecording(t *testing.T, env *cliTestEnv, showID int64, filename string, size int64) *store.Recording {
	t.Helper()

	recordedAt := time.Now().UTC().Add(-24 * time.Hour)
	expires := recordedAt.AddDate(0, 0, 30)
	rec, err := env.store.InsertRecording(context.Background(), &store.Recording{
		ShowID:          showID,
		Filename:        filename,
		RecordedAt:      recordedAt,
		DurationSeconds: 3600,
		FileSizeBytes:   size,
		SourceType:      store.SourceScheduled,
		ExpiresAt:       &expires,
	})
	if err != nil {
		t.Fatalf("insert recording: %v", err)
	}
	testsupport.WriteFile(t, rec.ArtifactPath(env.cfg.Paths.LibraryDir), size)
	return rec
}

func seedShow(t *testing.T, env *cliTestEnv) int64 {
	t.Helper()
	station := testsupport.NewStation(t, env.store, "KEXP", "KEXP", "http://stream.example.com/kexp")
	show := testsupport.NewShow(t, env.store, station.ID, "Morning Show", "0 9 * * 1-5", 60)
	return show.ID
}

func TestRecordingsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"recordings", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings list: %v", err)
	}
	requireContains(t, stdout, "No recordings stored")
}

func TestRecordingsListShowsRows(t *testing.T) {
	env := setupCLITestEnv(t)
	showID := seedShow(t, env)
	seedRecording(t, env, showID, "morning-show-20260830.mp3", 4096)

	stdout, _, err := runCLI(t, []string{"recordings", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings list: %v", err)
	}
	requireContains(t, stdout, "morning-show-20260830.mp3")
	requireContains(t, stdout, "scheduled")
	requireContains(t, stdout, "1h0m0s")
}

func TestRecordingsRemoveDeletesArtifact(t *testing.T) {
	env := setupCLITestEnv(t)
	showID := seedShow(t, env)
	rec := seedRecording(t, env, showID, "morning-show-20260830.mp3", 4096)
	artifact := rec.ArtifactPath(env.cfg.Paths.LibraryDir)

	stdout, _, err := runCLI(t, []string{"recordings", "remove", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings remove: %v", err)
	}
	requireContains(t, stdout, "Removed recording 1")

	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Fatalf("expected artifact removed, stat err=%v", err)
	}
	reloaded, err := env.store.RecordingByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("reload recording: %v", err)
	}
	if reloaded != nil {
		t.Fatal("expected recording row removed")
	}
}

func TestRecordingsSetTTLIndefinite(t *testing.T) {
	env := setupCLITestEnv(t)
	showID := seedShow(t, env)
	rec := seedRecording(t, env, showID, "morning-show-20260830.mp3", 4096)

	stdout, _, err := runCLI(t, []string{
		"recordings", "set-ttl", "1", "--unit", "indefinite",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings set-ttl: %v", err)
	}
	requireContains(t, stdout, "Recording 1 never expires")

	reloaded, err := env.store.RecordingByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("reload recording: %v", err)
	}
	if reloaded.ExpiresAt != nil {
		t.Fatalf("expected nil expiry, got %v", reloaded.ExpiresAt)
	}
}

func TestRecordingsSetTTLRequiresUnitOrClear(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"recordings", "set-ttl", "1"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error without --unit or --clear")
	}
	if !strings.Contains(err.Error(), "--clear") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordingsSetTTLClearRevertsToShowDefault(t *testing.T) {
	env := setupCLITestEnv(t)
	showID := seedShow(t, env)
	rec := seedRecording(t, env, showID, "morning-show-20260830.mp3", 4096)

	if _, _, err := runCLI(t, []string{
		"recordings", "set-ttl", "1", "--unit", "indefinite",
	}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("recordings set-ttl: %v", err)
	}

	stdout, _, err := runCLI(t, []string{
		"recordings", "set-ttl", "1", "--clear",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings set-ttl --clear: %v", err)
	}
	requireContains(t, stdout, "Recording 1 expires")

	reloaded, err := env.store.RecordingByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("reload recording: %v", err)
	}
	if reloaded.ExpiresAt == nil {
		t.Fatal("expected expiry recomputed from the show default")
	}
}

func TestRecordingsExtend(t *testing.T) {
	env := setupCLITestEnv(t)
	showID := seedShow(t, env)
	rec := seedRecording(t, env, showID, "morning-show-20260830.mp3", 4096)
	originalExpiry := *rec.ExpiresAt

	stdout, _, err := runCLI(t, []string{
		"recordings", "extend", "1", "--days", "7",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings extend: %v", err)
	}
	requireContains(t, stdout, "Recording 1 now expires")

	reloaded, err := env.store.RecordingByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("reload recording: %v", err)
	}
	if reloaded.ExpiresAt == nil {
		t.Fatal("expected expiry set")
	}
	if got, want := *reloaded.ExpiresAt, originalExpiry.AddDate(0, 0, 7); !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}
}

func TestRecordingsImport(t *testing.T) {
	env := setupCLITestEnv(t)
	showID := seedShow(t, env)

	source := env.cfg.Paths.TestDir + "/upload.mp3"
	testsupport.WriteFile(t, source, 2048)

	stdout, _, err := runCLI(t, []string{
		"recordings", "import", "Morning Show", source,
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("recordings import: %v", err)
	}
	requireContains(t, stdout, "Imported")

	recs, err := env.store.RecordingsForShow(context.Background(), showID)
	if err != nil {
		t.Fatalf("list recordings: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(recs))
	}
	if recs[0].SourceType != store.SourceUploaded {
		t.Fatalf("source type = %s, want %s", recs[0].SourceType, store.SourceUploaded)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("expected original file left in place: %v", err)
	}
}
