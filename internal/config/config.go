package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir  string `toml:"library_dir"`
	TestDir     string `toml:"test_dir"`
	LogDir      string `toml:"log_dir"`
	DatabaseDir string `toml:"database_dir"`
}

// Recording contains capture session settings.
type Recording struct {
	// GraceSeconds is added to the requested duration before the capture
	// subprocess is hard-killed. Bounds stuck backends on stream stalls.
	GraceSeconds int `toml:"grace_seconds"`
	// FileExtension is the artifact extension used in recording filenames.
	FileExtension string `toml:"file_extension"`
}

// StreamTest contains stream tester settings.
type StreamTest struct {
	// DurationSeconds is the short capture length used to probe a stream.
	DurationSeconds int `toml:"duration_seconds"`
	// IntervalMinutes is how often the daemon retests stations that are not
	// known compatible. 0 disables background testing.
	IntervalMinutes int `toml:"interval_minutes"`
	// TryURLVariants enables the URL-variant search after all direct
	// combinations fail.
	TryURLVariants bool `toml:"try_url_variants"`
	// UserAgents is the rotation of known-good generic user agents tried
	// after the saved and empty user agents fail.
	UserAgents []string `toml:"user_agents"`
}

// Housekeeping contains sweeper settings.
type Housekeeping struct {
	IntervalMinutes int `toml:"interval_minutes"`
	// GraceMinutes is the minimum age before an empty artifact or orphaned
	// row may be removed, bounding the race against in-progress writes.
	GraceMinutes int `toml:"grace_minutes"`
}

// Retention contains TTL sweep settings.
type Retention struct {
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// BackendPaths contains fixed executable locations for the capture backends.
// A missing or wrong path falls back to a PATH lookup of the bare name.
type BackendPaths struct {
	Streamripper string `toml:"streamripper"`
	Wget         string `toml:"wget"`
	FFmpeg       string `toml:"ffmpeg"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Recordings     bool   `toml:"recordings"`
	StreamTests    bool   `toml:"stream_tests"`
	Sweeps         bool   `toml:"sweeps"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Aircheck.
//
// Configuration sections by subsystem:
//   - Paths: recording library, test capture, log, and database directories
//   - Recording: capture session kill grace and artifact naming
//   - StreamTest: probe duration, retest interval, user-agent rotation
//   - Housekeeping: sweep interval and write-race grace period
//   - Retention: TTL sweep interval
//   - Backends: fixed executable paths for the capture programs
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Recording     Recording     `toml:"recording"`
	StreamTest    StreamTest    `toml:"stream_test"`
	Housekeeping  Housekeeping  `toml:"housekeeping"`
	Retention     Retention     `toml:"retention"`
	Backends      BackendPaths  `toml:"backends"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/aircheck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/aircheck/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("aircheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TestDir, c.Paths.LogDir, c.Paths.DatabaseDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// DatabasePath returns the on-disk location of the SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DatabaseDir, "aircheck.db")
}

// SocketPath returns the Unix socket used for daemon IPC.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "aircheck.sock")
}

// PIDFilePath returns the daemon PID file location.
func (c *Config) PIDFilePath() string {
	return filepath.Join(c.Paths.LogDir, "aircheck.pid")
}

// LockFilePath returns the daemon single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "aircheckd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
