package ipc

import "aircheck/internal/api"

// Station mirrors the API station DTO for internal IPC callers.
type Station = api.Station

// Show mirrors the API show DTO.
type Show = api.Show

// Recording mirrors the API recording DTO.
type Recording = api.Recording

// ToolTest mirrors the API tool test DTO.
type ToolTest = api.ToolTest

// TestVerdict mirrors the API stream test verdict DTO.
type TestVerdict = api.TestVerdict

// SweepResult mirrors the API sweep result DTO.
type SweepResult = api.SweepResult

// DependencyStatus describes availability of a capture backend.
type DependencyStatus = api.DependencyStatus

// StoreSummary mirrors the API store counter DTO.
type StoreSummary = api.StoreSummary

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports the daemon process and scheduler state.
type PingResponse struct {
	PID     int  `json:"pid"`
	Running bool `json:"running"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/store status information.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DBPath       string             `json:"db_path"`
	LockPath     string             `json:"lock_path"`
	Summary      StoreSummary       `json:"summary"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// StationListRequest lists all stations.
type StationListRequest struct{}

// StationListResponse contains station entries.
type StationListResponse struct {
	Stations []Station `json:"stations"`
}

// StationDescribeRequest fetches one station by id or call letters.
type StationDescribeRequest struct {
	Ref string `json:"ref"`
}

// StationDescribeResponse contains a station and its recent test attempts.
type StationDescribeResponse struct {
	Station     Station    `json:"station"`
	RecentTests []ToolTest `json:"recent_tests"`
}

// StationAddRequest registers a new station.
type StationAddRequest struct {
	Name        string `json:"name"`
	CallLetters string `json:"call_letters"`
	StreamURL   string `json:"stream_url"`
	Timezone    string `json:"timezone"`
}

// StationAddResponse returns the stored station.
type StationAddResponse struct {
	Station Station `json:"station"`
}

// ShowListRequest lists shows, optionally narrowed to one station.
type ShowListRequest struct {
	Station string `json:"station"`
}

// ShowListResponse contains show entries.
type ShowListResponse struct {
	Shows []Show `json:"shows"`
}

// ShowAddRequest registers a new show under a station.
type ShowAddRequest struct {
	Station         string `json:"station"`
	Name            string `json:"name"`
	SchedulePattern string `json:"schedule_pattern"`
	DurationMinutes int    `json:"duration_minutes"`
	RetentionDays   int    `json:"retention_days"`
	TTLUnit         string `json:"ttl_unit"`
}

// ShowAddResponse returns the stored show.
type ShowAddResponse struct {
	Show Show `json:"show"`
}

// ShowSetActiveRequest flips a show's scheduling eligibility.
type ShowSetActiveRequest struct {
	Ref    string `json:"ref"`
	Active bool   `json:"active"`
}

// ShowSetActiveResponse returns the updated show.
type ShowSetActiveResponse struct {
	Show Show `json:"show"`
}

// RecordingListRequest lists recordings, optionally narrowed to one show.
type RecordingListRequest struct {
	Show string `json:"show"`
}

// RecordingListResponse contains recording entries.
type RecordingListResponse struct {
	Recordings []Recording `json:"recordings"`
}

// RecordingRemoveRequest deletes one recording and its artifact.
type RecordingRemoveRequest struct {
	ID int64 `json:"id"`
}

// RecordingRemoveResponse reports the reclaimed bytes.
type RecordingRemoveResponse struct {
	Removed        bool  `json:"removed"`
	ReclaimedBytes int64 `json:"reclaimed_bytes"`
}

// RecordingImportRequest copies an external audio file into the library.
// RecordedAt is optional RFC3339; empty means the source file's mtime.
// TTLUnit empty means the show default applies.
type RecordingImportRequest struct {
	Show       string `json:"show"`
	SourcePath string `json:"source_path"`
	RecordedAt string `json:"recorded_at"`
	TTLValue   int    `json:"ttl_value"`
	TTLUnit    string `json:"ttl_unit"`
}

// RecordingImportResponse returns the stored recording.
type RecordingImportResponse struct {
	Recording Recording `json:"recording"`
}

// RecordingExtendRequest pushes a recording's expiry out.
type RecordingExtendRequest struct {
	ID             int64 `json:"id"`
	AdditionalDays int   `json:"additional_days"`
}

// RecordingExtendResponse returns the new expiry.
type RecordingExtendResponse struct {
	ExpiresAt string `json:"expires_at"`
}

// RecordingSetTTLRequest pins or clears a per-recording TTL override.
type RecordingSetTTLRequest struct {
	ID    int64  `json:"id"`
	Value int    `json:"value"`
	Unit  string `json:"unit"`
	Clear bool   `json:"clear"`
}

// RecordingSetTTLResponse returns the recomputed expiry; empty means the
// recording never expires.
type RecordingSetTTLResponse struct {
	ExpiresAt string `json:"expires_at"`
}

// TestRequest runs the stream tester. Empty station means every station not
// currently known compatible.
type TestRequest struct {
	Station string `json:"station"`
}

// TestResponse contains the resulting verdicts.
type TestResponse struct {
	Verdicts []TestVerdict `json:"verdicts"`
}

// RecordRequest starts an on-demand session for a show. DurationMinutes
// zero means the show's scheduled duration.
type RecordRequest struct {
	Show            string `json:"show"`
	DurationMinutes int    `json:"duration_minutes"`
}

// RecordResponse reports whether the session was launched.
type RecordResponse struct {
	Started bool   `json:"started"`
	Show    string `json:"show"`
	Message string `json:"message"`
}

// HousekeepingSweepRequest triggers one housekeeping sweep.
type HousekeepingSweepRequest struct{}

// HousekeepingSweepResponse reports what the sweep disposed of.
type HousekeepingSweepResponse struct {
	Result SweepResult `json:"result"`
}

// RetentionSweepRequest triggers one TTL expiration sweep.
type RetentionSweepRequest struct{}

// RetentionSweepResponse reports what the sweep disposed of.
type RetentionSweepResponse struct {
	Result SweepResult `json:"result"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TablesPresent    bool     `json:"tables_present"`
	MissingTables    []string `json:"missing_tables"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalRecordings  int      `json:"total_recordings"`
	Error            string   `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
