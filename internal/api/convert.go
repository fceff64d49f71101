package api

import (
	"time"

	"aircheck/internal/deps"
	"aircheck/internal/housekeeping"
	"aircheck/internal/preflight"
	"aircheck/internal/retention"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
)

// FormatTime renders a timestamp in the API wire format. Zero times render
// as the empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromStation converts a station record to its API representation.
func FromStation(station *store.Station) Station {
	if station == nil {
		return Station{}
	}
	dto := Station{
		ID:                   station.ID,
		Name:                 station.Name,
		CallLetters:          station.CallLetters,
		StreamURL:            station.StreamURL,
		Timezone:             station.Timezone,
		RecommendedBackend:   station.RecommendedBackend,
		RecommendedUserAgent: station.RecommendedUserAgent,
		Compatibility:        string(station.Compatibility),
		TestLog:              station.TestLog,
		CreatedAt:            FormatTime(station.CreatedAt),
		UpdatedAt:            FormatTime(station.UpdatedAt),
	}
	if station.LastTestedAt != nil {
		dto.LastTestedAt = FormatTime(*station.LastTestedAt)
	}
	return dto
}

// FromStations converts a slice of station records into API DTOs.
func FromStations(stations []*store.Station) []Station {
	if len(stations) == 0 {
		return nil
	}
	out := make([]Station, 0, len(stations))
	for _, station := range stations {
		out = append(out, FromStation(station))
	}
	return out
}

// FromShow converts a show record to its API representation.
func FromShow(show *store.Show) Show {
	if show == nil {
		return Show{}
	}
	return Show{
		ID:              show.ID,
		StationID:       show.StationID,
		Name:            show.Name,
		SchedulePattern: show.SchedulePattern,
		DurationMinutes: show.DurationMinutes,
		RetentionDays:   show.RetentionDays,
		TTLUnit:         string(show.TTLUnit),
		Active:          show.Active,
		CreatedAt:       FormatTime(show.CreatedAt),
		UpdatedAt:       FormatTime(show.UpdatedAt),
	}
}

// FromShows converts a slice of show records into API DTOs.
func FromShows(shows []*store.Show) []Show {
	if len(shows) == 0 {
		return nil
	}
	out := make([]Show, 0, len(shows))
	for _, show := range shows {
		out = append(out, FromShow(show))
	}
	return out
}

// FromRecording converts a recording record to its API representation.
func FromRecording(rec *store.Recording) Recording {
	if rec == nil {
		return Recording{}
	}
	dto := Recording{
		ID:              rec.ID,
		ShowID:          rec.ShowID,
		Filename:        rec.Filename,
		RecordedAt:      FormatTime(rec.RecordedAt),
		DurationSeconds: rec.DurationSeconds,
		FileSizeBytes:   rec.FileSizeBytes,
		SourceType:      string(rec.SourceType),
		CreatedAt:       FormatTime(rec.CreatedAt),
	}
	if rec.TTLValue != nil {
		v := *rec.TTLValue
		dto.TTLValue = &v
	}
	if rec.TTLUnit != nil {
		dto.TTLUnit = string(*rec.TTLUnit)
	}
	if rec.ExpiresAt != nil {
		dto.ExpiresAt = FormatTime(*rec.ExpiresAt)
	}
	return dto
}

// FromRecordings converts a slice of recording records into API DTOs.
func FromRecordings(recs []*store.Recording) []Recording {
	if len(recs) == 0 {
		return nil
	}
	out := make([]Recording, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecording(rec))
	}
	return out
}

// FromToolTests converts persisted tester attempts into API DTOs.
func FromToolTests(results []*store.ToolTestResult) []ToolTest {
	if len(results) == 0 {
		return nil
	}
	out := make([]ToolTest, 0, len(results))
	for _, r := range results {
		out = append(out, ToolTest{
			ID:        r.ID,
			StationID: r.StationID,
			Backend:   r.Backend,
			UserAgent: r.UserAgent,
			StreamURL: r.StreamURL,
			Success:   r.Success,
			Detail:    r.Detail,
			TestedAt:  FormatTime(r.TestedAt),
		})
	}
	return out
}

// FromVerdict converts a stream tester verdict to API payload.
func FromVerdict(v streamtest.Verdict) TestVerdict {
	dto := TestVerdict{
		StationID:  v.StationID,
		RunID:      v.RunID,
		Compatible: v.Compatible,
		Backend:    v.Backend,
		UserAgent:  v.UserAgent,
		StreamURL:  v.StreamURL,
		Attempts:   v.Attempts,
	}
	if v.Failure != nil {
		dto.Failure = v.Failure.Error()
	}
	return dto
}

// FromVerdicts converts a slice of verdicts into API DTOs.
func FromVerdicts(verdicts []streamtest.Verdict) []TestVerdict {
	if len(verdicts) == 0 {
		return nil
	}
	out := make([]TestVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, FromVerdict(v))
	}
	return out
}

// FromHousekeeping converts a housekeeping sweep result to API payload.
func FromHousekeeping(res housekeeping.Result) SweepResult {
	return SweepResult{
		FilesRemoved:   res.FilesRemoved,
		RecordsCleaned: res.RecordsCleaned,
		ReclaimedBytes: res.ReclaimedBytes,
		Errors:         len(res.Errors),
	}
}

// FromRetention converts a retention sweep result to API payload.
func FromRetention(res retention.Result) SweepResult {
	return SweepResult{
		FilesRemoved:   res.Removed,
		RecordsCleaned: res.Removed,
		ReclaimedBytes: res.ReclaimedBytes,
		Errors:         len(res.Errors),
	}
}

// FromDependencies converts backend availability statuses into API DTOs.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Path:        s.Path,
			Description: s.Description,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromPreflight converts environment check results into API DTOs.
func FromPreflight(results []preflight.Result) []PreflightResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]PreflightResult, 0, len(results))
	for _, r := range results {
		out = append(out, PreflightResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FromSummary converts store counters into an API payload.
func FromSummary(summary store.Summary) StoreSummary {
	return StoreSummary{
		Stations:    summary.Stations,
		Shows:       summary.Shows,
		ActiveShows: summary.ActiveShows,
		Recordings:  summary.Recordings,
		StoredBytes: summary.StoredBytes,
	}
}
