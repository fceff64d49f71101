package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"aircheck/internal/capture"
	"aircheck/internal/config"
	"aircheck/internal/deps"
	"aircheck/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase verifies the store is open, the schema is complete, and the
// SQLite integrity check passes.
func CheckDatabase(ctx context.Context, st *store.Store) Result {
	const name = "Database"

	if st == nil {
		return Result{Name: name, Detail: "not open"}
	}
	health, err := st.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.DatabaseExists {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", health.DBPath)}
	}
	if len(health.MissingTables) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("missing tables: %s", strings.Join(health.MissingTables, ", "))}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: "integrity check failed"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d recordings)", health.DBPath, health.TotalRecordings)}
}

// CheckBackends verifies at least one capture backend executable resolves.
// Individual backends are optional; recording anything requires one.
func CheckBackends(cfg *config.Config) Result {
	const name = "Capture backends"

	statuses := deps.Check(capture.NewRegistry(cfg))
	var available []string
	for _, status := range statuses {
		if status.Available {
			available = append(available, status.Name)
		}
	}
	if len(available) == 0 {
		return Result{Name: name, Detail: "no capture backend executables found"}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(available, ", ")}
}

// CheckNtfy verifies the configured ntfy topic answers a poll request.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "Notifications"

	endpoint := strings.TrimRight(strings.TrimSpace(topic), "/")
	if endpoint == "" {
		return Result{Name: name, Detail: "missing topic url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint+"/json?poll=1", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "ntfy reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "ntfy rejected the request (protected topic?)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%d)", resp.StatusCode)}
	}
}

// CheckSystemDeps reports per-backend availability for status output. Both
// the daemon snapshot and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.Check(capture.NewRegistry(cfg))
}
