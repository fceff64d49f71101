package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Station describes a radio station in a transport-friendly format.
type Station struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	CallLetters          string `json:"callLetters"`
	StreamURL            string `json:"streamUrl"`
	Timezone             string `json:"timezone,omitempty"`
	RecommendedBackend   string `json:"recommendedBackend,omitempty"`
	RecommendedUserAgent string `json:"recommendedUserAgent,omitempty"`
	Compatibility        string `json:"compatibility"`
	LastTestedAt         string `json:"lastTestedAt,omitempty"`
	TestLog              string `json:"testLog,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`
	UpdatedAt            string `json:"updatedAt,omitempty"`
}

// Show describes a scheduled program in a transport-friendly format.
type Show struct {
	ID              int64  `json:"id"`
	StationID       int64  `json:"stationId"`
	Name            string `json:"name"`
	SchedulePattern string `json:"schedulePattern,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	RetentionDays   int    `json:"retentionDays"`
	TTLUnit         string `json:"ttlUnit"`
	Active          bool   `json:"active"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// Recording describes a stored capture artifact.
type Recording struct {
	ID              int64  `json:"id"`
	ShowID          int64  `json:"showId"`
	Filename        string `json:"filename"`
	RecordedAt      string `json:"recordedAt,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	FileSizeBytes   int64  `json:"fileSizeBytes"`
	SourceType      string `json:"sourceType"`
	TTLValue        *int   `json:"ttlValue,omitempty"`
	TTLUnit         string `json:"ttlUnit,omitempty"`
	ExpiresAt       string `json:"expiresAt,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// ToolTest is one persisted capture attempt from the stream tester.
type ToolTest struct {
	ID        int64  `json:"id"`
	StationID int64  `json:"stationId"`
	Backend   string `json:"backend"`
	UserAgent string `json:"userAgent,omitempty"`
	StreamURL string `json:"streamUrl"`
	Success   bool   `json:"success"`
	Detail    string `json:"detail,omitempty"`
	TestedAt  string `json:"testedAt,omitempty"`
}

// TestVerdict summarizes one stream-compatibility test run.
type TestVerdict struct {
	StationID  int64  `json:"stationId"`
	RunID      string `json:"runId"`
	Compatible bool   `json:"compatible"`
	Backend    string `json:"backend,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
	StreamURL  string `json:"streamUrl,omitempty"`
	Attempts   int    `json:"attempts"`
	Failure    string `json:"failure,omitempty"`
}

// SweepResult reports what a housekeeping or retention sweep disposed of.
type SweepResult struct {
	FilesRemoved   int    `json:"filesRemoved"`
	RecordsCleaned int    `json:"recordsCleaned"`
	ReclaimedBytes int64  `json:"reclaimedBytes"`
	Errors         int    `json:"errors"`
	Detail         string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of a capture backend executable.
type DependencyStatus struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// PreflightResult mirrors one startup environment check.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StoreSummary aggregates database counts for status output.
type StoreSummary struct {
	Stations    int   `json:"stations"`
	Shows       int   `json:"shows"`
	ActiveShows int   `json:"activeShows"`
	Recordings  int   `json:"recordings"`
	StoredBytes int64 `json:"storedBytes"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DBPath       string             `json:"dbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Summary      StoreSummary       `json:"summary"`
	Preflight    []PreflightResult  `json:"preflight,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// StationListResponse wraps a collection of stations.
type StationListResponse struct {
	Stations []Station `json:"stations"`
}

// ShowListResponse wraps a collection of shows.
type ShowListResponse struct {
	Shows []Show `json:"shows"`
}

// RecordingListResponse wraps a collection of recordings.
type RecordingListResponse struct {
	Recordings []Recording `json:"recordings"`
}
