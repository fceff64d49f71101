package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecording()
	c.normalizeStreamTest()
	c.normalizeBackends()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TestDir) == "" {
		c.Paths.TestDir = defaultTestDir
	}
	if c.Paths.TestDir, err = expandPath(c.Paths.TestDir); err != nil {
		return fmt.Errorf("paths.test_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabaseDir) == "" {
		c.Paths.DatabaseDir = defaultDatabaseDir
	}
	if c.Paths.DatabaseDir, err = expandPath(c.Paths.DatabaseDir); err != nil {
		return fmt.Errorf("paths.database_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecording() {
	if c.Recording.GraceSeconds <= 0 {
		c.Recording.GraceSeconds = defaultGraceSeconds
	}
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Recording.FileExtension)), ".")
	if ext == "" {
		ext = defaultFileExtension
	}
	c.Recording.FileExtension = ext
}

func (c *Config) normalizeStreamTest() {
	if c.StreamTest.DurationSeconds <= 0 {
		c.StreamTest.DurationSeconds = defaultTestDurationSeconds
	}
	if c.StreamTest.IntervalMinutes < 0 {
		c.StreamTest.IntervalMinutes = 0
	}
	agents := make([]string, 0, len(c.StreamTest.UserAgents))
	seen := make(map[string]struct{}, len(c.StreamTest.UserAgents))
	for _, agent := range c.StreamTest.UserAgents {
		trimmed := strings.TrimSpace(agent)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		agents = append(agents, trimmed)
	}
	if len(agents) == 0 {
		agents = defaultUserAgents()
	}
	c.StreamTest.UserAgents = agents
}

func (c *Config) normalizeBackends() {
	c.Backends.Streamripper = strings.TrimSpace(c.Backends.Streamripper)
	c.Backends.Wget = strings.TrimSpace(c.Backends.Wget)
	c.Backends.FFmpeg = strings.TrimSpace(c.Backends.FFmpeg)
	if c.Backends.Streamripper == "" {
		c.Backends.Streamripper = defaultStreamripperPath
	}
	if c.Backends.Wget == "" {
		c.Backends.Wget = defaultWgetPath
	}
	if c.Backends.FFmpeg == "" {
		c.Backends.FFmpeg = defaultFFmpegPath
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("AIRCHECK_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
