package services_test

import (
	"errors"
	"strings"
	"testing"

	"aircheck/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "recorder", "capture", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"recorder", "capture", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "tester", "probe", "no response", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestRecoverableClassification(t *testing.T) {
	toolErr := services.Wrap(services.ErrExternalTool, "recorder", "capture", "exit 1", errors.New("exit status 1"))
	if !services.Recoverable(toolErr) {
		t.Fatalf("expected tool failure to be recoverable, got %v", toolErr)
	}

	storageErr := services.Wrap(services.ErrStorage, "recorder", "persist", "insert failed", errors.New("disk full"))
	if services.Recoverable(storageErr) {
		t.Fatalf("expected storage failure to be non-recoverable, got %v", storageErr)
	}

	configErr := services.Wrap(services.ErrConfiguration, "daemon", "startup", "bad path", nil)
	if services.Recoverable(configErr) {
		t.Fatalf("expected configuration failure to be non-recoverable, got %v", configErr)
	}

	if !services.Recoverable(nil) {
		t.Fatal("expected nil error to be recoverable")
	}
}
