package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertRecording persists a completed capture and returns the stored row.
func (s *Store) InsertRecording(ctx context.Context, rec *Recording) (*Recording, error) {
	if rec == nil {
		return nil, errors.New("recording is nil")
	}
	if rec.ShowID == 0 {
		return nil, errors.New("recording show id is required")
	}
	if strings.TrimSpace(rec.Filename) == "" {
		return nil, errors.New("recording filename is required")
	}
	if rec.SourceType == "" {
		rec.SourceType = SourceScheduled
	}
	if _, ok := ParseSourceType(string(rec.SourceType)); !ok {
		return nil, fmt.Errorf("unknown source type %q", rec.SourceType)
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	var unit any
	if rec.TTLUnit != nil {
		unit = string(*rec.TTLUnit)
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO recordings (
            show_id, filename, recorded_at, duration_seconds, file_size_bytes,
            source_type, ttl_value, ttl_unit, expires_at, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ShowID,
		rec.Filename,
		formatTime(rec.RecordedAt),
		rec.DurationSeconds,
		rec.FileSizeBytes,
		rec.SourceType,
		nullableInt(rec.TTLValue),
		unit,
		nullableTime(rec.ExpiresAt),
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recording: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.RecordingByID(ctx, id)
}

// RecordingByID fetches a recording by identifier.
func (s *Store) RecordingByID(ctx context.Context, id int64) (*Recording, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return rec, nil
}

// ListRecordings returns all recordings, newest first.
func (s *Store) ListRecordings(ctx context.Context) ([]*Recording, error) {
	return s.queryRecordings(ctx, `SELECT `+recordingColumns+` FROM recordings ORDER BY recorded_at DESC`)
}

// RecordingsForShow returns a show's recordings, newest first.
func (s *Store) RecordingsForShow(ctx context.Context, showID int64) ([]*Recording, error) {
	return s.queryRecordings(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE show_id = ? ORDER BY recorded_at DESC`,
		showID,
	)
}

// RecordingsWithDefaultTTL returns a show's recordings that inherit the show
// default, oldest first. Overridden rows are excluded.
func (s *Store) RecordingsWithDefaultTTL(ctx context.Context, showID int64) ([]*Recording, error) {
	return s.queryRecordings(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE show_id = ? AND ttl_unit IS NULL ORDER BY recorded_at`,
		showID,
	)
}

// ExpiredRecordings returns recordings whose expiry has passed, oldest first.
// Indefinite recordings never appear.
func (s *Store) ExpiredRecordings(ctx context.Context, now time.Time) ([]*Recording, error) {
	return s.queryRecordings(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE expires_at IS NOT NULL AND expires_at <= ? ORDER BY expires_at`,
		formatTime(now),
	)
}

// RecordingsBefore returns recordings recorded before the cutoff, oldest
// first. Housekeeping uses this to bound its orphan scan by the grace period.
func (s *Store) RecordingsBefore(ctx context.Context, cutoff time.Time) ([]*Recording, error) {
	return s.queryRecordings(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE recorded_at < ? ORDER BY recorded_at`,
		formatTime(cutoff),
	)
}

func (s *Store) queryRecordings(ctx context.Context, query string, args ...any) ([]*Recording, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}
	return recordings, rows.Err()
}

// SetRecordingTTL writes the override pair and the expiry derived from it.
// Passing nil value and unit clears the override.
func (s *Store) SetRecordingTTL(ctx context.Context, id int64, value *int, unit *TTLUnit, expiresAt *time.Time) error {
	var unitArg any
	if unit != nil {
		if _, ok := ParseTTLUnit(string(*unit)); !ok {
			return fmt.Errorf("unknown ttl unit %q", *unit)
		}
		unitArg = string(*unit)
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE recordings SET ttl_value = ?, ttl_unit = ?, expires_at = ? WHERE id = ?`,
		nullableInt(value),
		unitArg,
		nullableTime(expiresAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("set recording ttl: %w", err)
	}
	return nil
}

// SetRecordingExpiry rewrites only the expiry timestamp.
func (s *Store) SetRecordingExpiry(ctx context.Context, id int64, expiresAt *time.Time) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE recordings SET expires_at = ? WHERE id = ?`,
		nullableTime(expiresAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("set recording expiry: %w", err)
	}
	return nil
}

// RemoveRecording deletes a recording row by identifier.
func (s *Store) RemoveRecording(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete recording: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const recordingColumns = "id, show_id, filename, recorded_at, duration_seconds, file_size_bytes, source_type, ttl_value, ttl_unit, expires_at, created_at"

func scanRecording(scanner rowScanner) (*Recording, error) {
	var (
		id         int64
		showID     int64
		filename   string
		recordedAt sql.NullString
		duration   int
		size       int64
		sourceType string
		ttlValue   sql.NullInt64
		ttlUnit    sql.NullString
		expiresRaw sql.NullString
		createdRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&showID,
		&filename,
		&recordedAt,
		&duration,
		&size,
		&sourceType,
		&ttlValue,
		&ttlUnit,
		&expiresRaw,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	rec := &Recording{
		ID:              id,
		ShowID:          showID,
		Filename:        filename,
		DurationSeconds: duration,
		FileSizeBytes:   size,
		SourceType:      SourceType(sourceType),
	}
	if recorded, err := parseTimeString(recordedAt.String); err == nil {
		rec.RecordedAt = recorded
	}
	if ttlValue.Valid {
		v := int(ttlValue.Int64)
		rec.TTLValue = &v
	}
	if ttlUnit.Valid {
		u := TTLUnit(ttlUnit.String)
		rec.TTLUnit = &u
	}
	if expiresRaw.Valid {
		if expires, err := parseTimeString(expiresRaw.String); err == nil {
			rec.ExpiresAt = &expires
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	return rec, nil
}
