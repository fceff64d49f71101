package deps_test

import (
	"strings"
	"testing"

	"aircheck/internal/capture"
	"aircheck/internal/deps"
	"aircheck/internal/testsupport"
)

func TestCheckReportsStubbedBackends(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses := deps.Check(capture.NewRegistry(cfg))
	if len(statuses) != 3 {
		t.Fatalf("expected one status per backend, got %d", len(statuses))
	}
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("%s should resolve against the stub bin dir: %+v", status.Name, status)
		}
		if !strings.HasPrefix(status.Path, testsupport.BinDir(cfg)) {
			t.Fatalf("%s resolved outside the stub dir: %q", status.Name, status.Path)
		}
	}
	if !deps.AnyAvailable(statuses) {
		t.Fatal("AnyAvailable must be true with stubs present")
	}
}

func TestCheckReportsMissingBackends(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	t.Setenv("PATH", t.TempDir())

	statuses := deps.Check(capture.NewRegistry(cfg))
	for _, status := range statuses {
		if status.Available {
			t.Fatalf("%s should be unavailable without binaries: %+v", status.Name, status)
		}
		if status.Detail == "" {
			t.Fatalf("%s missing a detail message", status.Name)
		}
	}
	if deps.AnyAvailable(statuses) {
		t.Fatal("AnyAvailable must be false with no binaries")
	}
}
