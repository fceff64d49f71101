package store

import (
	"strings"
	"time"
)

// CompatibilityStatus records the stream tester's verdict for a station.
type CompatibilityStatus string

const (
	CompatibilityUnknown      CompatibilityStatus = "unknown"
	CompatibilityCompatible   CompatibilityStatus = "compatible"
	CompatibilityIncompatible CompatibilityStatus = "incompatible"
)

var compatibilitySet = map[CompatibilityStatus]struct{}{
	CompatibilityUnknown:      {},
	CompatibilityCompatible:   {},
	CompatibilityIncompatible: {},
}

// ParseCompatibilityStatus converts a string into a known CompatibilityStatus.
func ParseCompatibilityStatus(value string) (CompatibilityStatus, bool) {
	normalized := CompatibilityStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := compatibilitySet[normalized]
	return normalized, ok
}

// SourceType describes how a recording came to exist.
type SourceType string

const (
	SourceScheduled SourceType = "scheduled"
	SourceTest      SourceType = "test"
	SourceOnDemand  SourceType = "on_demand"
	SourceUploaded  SourceType = "uploaded"
)

var sourceTypeSet = map[SourceType]struct{}{
	SourceScheduled: {},
	SourceTest:      {},
	SourceOnDemand:  {},
	SourceUploaded:  {},
}

// ParseSourceType converts a string into a known SourceType.
func ParseSourceType(value string) (SourceType, bool) {
	normalized := SourceType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := sourceTypeSet[normalized]
	return normalized, ok
}

// TTLUnit is the calendar unit a retention value counts in.
type TTLUnit string

const (
	TTLDays       TTLUnit = "days"
	TTLWeeks      TTLUnit = "weeks"
	TTLMonths     TTLUnit = "months"
	TTLIndefinite TTLUnit = "indefinite"
)

var ttlUnitSet = map[TTLUnit]struct{}{
	TTLDays:       {},
	TTLWeeks:      {},
	TTLMonths:     {},
	TTLIndefinite: {},
}

// ParseTTLUnit converts a string into a known TTLUnit.
func ParseTTLUnit(value string) (TTLUnit, bool) {
	normalized := TTLUnit(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := ttlUnitSet[normalized]
	return normalized, ok
}

// Station is a radio station whose stream can be captured.
type Station struct {
	ID          int64
	Name        string
	CallLetters string
	StreamURL   string
	// Timezone is the IANA zone the station's schedules are written in.
	// Empty means the process-local zone.
	Timezone             string
	RecommendedBackend   string
	RecommendedUserAgent string
	Compatibility        CompatibilityStatus
	LastTestedAt         *time.Time
	TestLog              string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Location resolves the station's timezone, falling back to the local zone.
func (s *Station) Location() (*time.Location, error) {
	if s == nil || strings.TrimSpace(s.Timezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// HasRecommendation reports whether the tester or a live session has pinned
// a working backend for this station.
func (s *Station) HasRecommendation() bool {
	return s != nil && strings.TrimSpace(s.RecommendedBackend) != ""
}

// Show is a scheduled program on a station.
type Show struct {
	ID        int64
	StationID int64
	Name      string
	// SchedulePattern is a five-field cron-like expression. Empty means the
	// show is only ever recorded on demand.
	SchedulePattern string
	DurationMinutes int
	RetentionDays   int
	TTLUnit         TTLUnit
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Duration returns the show's recording length.
func (s *Show) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Scheduled reports whether the show carries a schedule pattern at all.
func (s *Show) Scheduled() bool {
	return s != nil && strings.TrimSpace(s.SchedulePattern) != ""
}

// Recording is a persisted capture artifact. Filename is relative to the
// library directory.
type Recording struct {
	ID              int64
	ShowID          int64
	Filename        string
	RecordedAt      time.Time
	DurationSeconds int
	FileSizeBytes   int64
	SourceType      SourceType
	// TTLValue/TTLUnit form the per-recording override pair. Both nil means
	// the recording inherits the show default.
	TTLValue  *int
	TTLUnit   *TTLUnit
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// HasOverride reports whether the recording carries its own TTL instead of
// inheriting the show default.
func (r *Recording) HasOverride() bool {
	return r != nil && r.TTLUnit != nil
}

// Indefinite reports whether the recording never expires.
func (r *Recording) Indefinite() bool {
	return r != nil && r.ExpiresAt == nil
}

// ToolTestResult is one capture attempt made by the stream tester.
type ToolTestResult struct {
	ID        int64
	StationID int64
	Backend   string
	UserAgent string
	StreamURL string
	Success   bool
	Detail    string
	TestedAt  time.Time
}

// Summary aggregates store counts for status output.
type Summary struct {
	Stations    int
	Shows       int
	ActiveShows int
	Recordings  int
	StoredBytes int64
}

// DatabaseHealth captures diagnostic information about the database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    bool
	MissingTables    []string
	IntegrityCheck   bool
	TotalRecordings  int
	Error            string
}
