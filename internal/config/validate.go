package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validateStreamTest(); err != nil {
		return err
	}
	if err := c.validateSweeps(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.TestDir == c.Paths.LibraryDir {
		return errors.New("paths.test_dir must differ from paths.library_dir; test captures are not retained")
	}
	return nil
}

func (c *Config) validateRecording() error {
	return ensurePositiveMap(map[string]int{
		"recording.grace_seconds": c.Recording.GraceSeconds,
	})
}

func (c *Config) validateStreamTest() error {
	if err := ensurePositiveMap(map[string]int{
		"stream_test.duration_seconds": c.StreamTest.DurationSeconds,
	}); err != nil {
		return err
	}
	if len(c.StreamTest.UserAgents) == 0 {
		return errors.New("stream_test.user_agents must include at least one entry")
	}
	return nil
}

func (c *Config) validateSweeps() error {
	return ensurePositiveMap(map[string]int{
		"housekeeping.interval_minutes":    c.Housekeeping.IntervalMinutes,
		"housekeeping.grace_minutes":       c.Housekeeping.GraceMinutes,
		"retention.sweep_interval_minutes": c.Retention.SweepIntervalMinutes,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
