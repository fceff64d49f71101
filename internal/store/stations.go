package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AddStation inserts a new station and returns the stored row.
func (s *Store) AddStation(ctx context.Context, station *Station) (*Station, error) {
	if station == nil {
		return nil, errors.New("station is nil")
	}
	if strings.TrimSpace(station.Name) == "" {
		return nil, errors.New("station name is required")
	}
	if strings.TrimSpace(station.CallLetters) == "" {
		return nil, errors.New("station call letters are required")
	}
	if strings.TrimSpace(station.StreamURL) == "" {
		return nil, errors.New("station stream url is required")
	}
	if station.Compatibility == "" {
		station.Compatibility = CompatibilityUnknown
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO stations (
            name, call_letters, stream_url, timezone,
            recommended_backend, recommended_user_agent,
            compatibility_status, last_tested_at, test_log,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		station.Name,
		station.CallLetters,
		station.StreamURL,
		station.Timezone,
		nullableString(station.RecommendedBackend),
		nullableString(station.RecommendedUserAgent),
		station.Compatibility,
		nullableTime(station.LastTestedAt),
		nullableString(station.TestLog),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert station: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.StationByID(ctx, id)
}

// StationByID fetches a station by identifier.
func (s *Store) StationByID(ctx context.Context, id int64) (*Station, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = ?`, id)
	station, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	return station, nil
}

// StationByCallLetters fetches a station by its call letters, case insensitive.
func (s *Store) StationByCallLetters(ctx context.Context, callLetters string) (*Station, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+stationColumns+` FROM stations WHERE call_letters = ? COLLATE NOCASE LIMIT 1`,
		strings.TrimSpace(callLetters),
	)
	station, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find station by call letters: %w", err)
	}
	return station, nil
}

// FindStation resolves a station reference: a numeric id or call letters.
// Returns (nil, nil) when no station matches.
func (s *Store) FindStation(ctx context.Context, ref string) (*Station, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil, errors.New("station reference is required")
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return s.StationByID(ctx, id)
	}
	return s.StationByCallLetters(ctx, trimmed)
}

// ListStations returns all stations ordered by call letters.
func (s *Store) ListStations(ctx context.Context) ([]*Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY call_letters`)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, rows.Err()
}

// StationsForRetest returns stations the background tester should probe:
// anything not currently known compatible.
func (s *Store) StationsForRetest(ctx context.Context) ([]*Station, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+stationColumns+` FROM stations WHERE compatibility_status != ? ORDER BY call_letters`,
		CompatibilityCompatible,
	)
	if err != nil {
		return nil, fmt.Errorf("list stations for retest: %w", err)
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, rows.Err()
}

// UpdateStation persists changes to an existing station.
func (s *Store) UpdateStation(ctx context.Context, station *Station) error {
	if station == nil {
		return errors.New("station is nil")
	}
	station.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE stations
         SET name = ?, call_letters = ?, stream_url = ?, timezone = ?,
             recommended_backend = ?, recommended_user_agent = ?,
             compatibility_status = ?, last_tested_at = ?, test_log = ?,
             updated_at = ?
         WHERE id = ?`,
		station.Name,
		station.CallLetters,
		station.StreamURL,
		station.Timezone,
		nullableString(station.RecommendedBackend),
		nullableString(station.RecommendedUserAgent),
		station.Compatibility,
		nullableTime(station.LastTestedAt),
		nullableString(station.TestLog),
		formatTime(station.UpdatedAt),
		station.ID,
	)
	if err != nil {
		return fmt.Errorf("update station: %w", err)
	}
	return nil
}

// SetStationRecommendation pins the backend and user agent a live session
// just succeeded with. It never touches the compatibility verdict.
func (s *Store) SetStationRecommendation(ctx context.Context, id int64, backend, userAgent string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE stations
         SET recommended_backend = ?, recommended_user_agent = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(backend),
		nullableString(userAgent),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set station recommendation: %w", err)
	}
	return nil
}

// SetStationVerdict records a completed stream test: the pinned combination,
// the compatibility outcome, and the attempt trail.
func (s *Store) SetStationVerdict(ctx context.Context, id int64, backend, userAgent string, status CompatibilityStatus, testLog string) error {
	now := time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE stations
         SET recommended_backend = ?, recommended_user_agent = ?,
             compatibility_status = ?, last_tested_at = ?, test_log = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(backend),
		nullableString(userAgent),
		status,
		formatTime(now),
		nullableString(testLog),
		formatTime(now),
		id,
	)
	if err != nil {
		return fmt.Errorf("set station verdict: %w", err)
	}
	return nil
}

// SetStationStreamURL rewrites the stream URL after the tester finds a
// working variant.
func (s *Store) SetStationStreamURL(ctx context.Context, id int64, streamURL string) error {
	if strings.TrimSpace(streamURL) == "" {
		return errors.New("stream url is required")
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE stations SET stream_url = ?, updated_at = ? WHERE id = ?`,
		streamURL,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set station stream url: %w", err)
	}
	return nil
}

const stationColumns = "id, name, call_letters, stream_url, timezone, recommended_backend, recommended_user_agent, compatibility_status, last_tested_at, test_log, created_at, updated_at"

func scanStation(scanner rowScanner) (*Station, error) {
	var (
		id            int64
		name          string
		callLetters   string
		streamURL     string
		timezone      sql.NullString
		backend       sql.NullString
		userAgent     sql.NullString
		compatibility string
		lastTestedRaw sql.NullString
		testLog       sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&callLetters,
		&streamURL,
		&timezone,
		&backend,
		&userAgent,
		&compatibility,
		&lastTestedRaw,
		&testLog,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	station := &Station{
		ID:                   id,
		Name:                 name,
		CallLetters:          callLetters,
		StreamURL:            streamURL,
		Timezone:             timezone.String,
		RecommendedBackend:   backend.String,
		RecommendedUserAgent: userAgent.String,
		Compatibility:        CompatibilityStatus(compatibility),
		TestLog:              testLog.String,
	}
	if lastTestedRaw.Valid {
		if tested, err := parseTimeString(lastTestedRaw.String); err == nil {
			station.LastTestedAt = &tested
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		station.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		station.UpdatedAt = updated
	}
	return station, nil
}
