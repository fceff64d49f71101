package config

const (
	defaultLibraryDir               = "~/recordings"
	defaultTestDir                  = "~/.local/share/aircheck/tests"
	defaultLogDir                   = "~/.local/share/aircheck/logs"
	defaultDatabaseDir              = "~/.local/share/aircheck"
	defaultLogRetentionDays         = 60
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultGraceSeconds             = 30
	defaultFileExtension            = "mp3"
	defaultTestDurationSeconds      = 10
	defaultTestIntervalMinutes      = 360
	defaultHousekeepingInterval     = 60
	defaultHousekeepingGraceMinutes = 60
	defaultRetentionSweepMinutes    = 60
	defaultNotifyRequestTimeout     = 10
	defaultStreamripperPath         = "/usr/bin/streamripper"
	defaultWgetPath                 = "/usr/bin/wget"
	defaultFFmpegPath               = "/usr/bin/ffmpeg"
)

// defaultUserAgents is the rotation of known-good generic user agents the
// stream tester tries after the saved and empty user agents fail. Some
// stream hosts reject unknown clients with 403 but accept mainstream
// browser or player identities.
func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"VLC/3.0.20 LibVLC/3.0.20",
		"iTunes/12.9.5 (Macintosh; OS X 10.14.5)",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:  defaultLibraryDir,
			TestDir:     defaultTestDir,
			LogDir:      defaultLogDir,
			DatabaseDir: defaultDatabaseDir,
		},
		Recording: Recording{
			GraceSeconds:  defaultGraceSeconds,
			FileExtension: defaultFileExtension,
		},
		StreamTest: StreamTest{
			DurationSeconds: defaultTestDurationSeconds,
			IntervalMinutes: defaultTestIntervalMinutes,
			TryURLVariants:  true,
			UserAgents:      defaultUserAgents(),
		},
		Housekeeping: Housekeeping{
			IntervalMinutes: defaultHousekeepingInterval,
			GraceMinutes:    defaultHousekeepingGraceMinutes,
		},
		Retention: Retention{
			SweepIntervalMinutes: defaultRetentionSweepMinutes,
		},
		Backends: BackendPaths{
			Streamripper: defaultStreamripperPath,
			Wget:         defaultWgetPath,
			FFmpeg:       defaultFFmpegPath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Recordings:     true,
			StreamTests:    true,
			Sweeps:         false,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
