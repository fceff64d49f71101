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

// AddShow inserts a new show and returns the stored row.
func (s *Store) AddShow(ctx context.Context, show *Show) (*Show, error) {
	if show == nil {
		return nil, errors.New("show is nil")
	}
	if strings.TrimSpace(show.Name) == "" {
		return nil, errors.New("show name is required")
	}
	if show.StationID == 0 {
		return nil, errors.New("show station id is required")
	}
	if show.DurationMinutes <= 0 {
		return nil, errors.New("show duration must be positive")
	}
	if show.TTLUnit == "" {
		show.TTLUnit = TTLDays
	}
	if _, ok := ParseTTLUnit(string(show.TTLUnit)); !ok {
		return nil, fmt.Errorf("unknown ttl unit %q", show.TTLUnit)
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO shows (
            station_id, name, schedule_pattern, duration_minutes,
            retention_days, default_ttl_unit, active, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		show.StationID,
		show.Name,
		strings.TrimSpace(show.SchedulePattern),
		show.DurationMinutes,
		show.RetentionDays,
		show.TTLUnit,
		boolToInt(show.Active),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert show: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.ShowByID(ctx, id)
}

// ShowByID fetches a show by identifier.
func (s *Store) ShowByID(ctx context.Context, id int64) (*Show, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get show: %w", err)
	}
	return show, nil
}

// ShowsByName returns every show whose name matches, case insensitive.
func (s *Store) ShowsByName(ctx context.Context, name string) ([]*Show, error) {
	return s.queryShows(
		ctx,
		`SELECT `+showColumns+` FROM shows WHERE name = ? COLLATE NOCASE ORDER BY id`,
		strings.TrimSpace(name),
	)
}

// FindShow resolves a show reference: a numeric id or an exact name.
// Returns (nil, nil) when nothing matches and an error when the name is
// ambiguous across stations.
func (s *Store) FindShow(ctx context.Context, ref string) (*Show, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil, errors.New("show reference is required")
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return s.ShowByID(ctx, id)
	}
	matches, err := s.ShowsByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("show name %q is ambiguous (%d matches), use the id", trimmed, len(matches))
	}
}

// ListShows returns all shows ordered by station then name.
func (s *Store) ListShows(ctx context.Context) ([]*Show, error) {
	return s.queryShows(ctx, `SELECT `+showColumns+` FROM shows ORDER BY station_id, name`)
}

// ActiveShows returns shows eligible for scheduling.
func (s *Store) ActiveShows(ctx context.Context) ([]*Show, error) {
	return s.queryShows(ctx, `SELECT `+showColumns+` FROM shows WHERE active = 1 ORDER BY station_id, name`)
}

// ShowsForStation returns a station's shows ordered by name.
func (s *Store) ShowsForStation(ctx context.Context, stationID int64) ([]*Show, error) {
	return s.queryShows(ctx, `SELECT `+showColumns+` FROM shows WHERE station_id = ? ORDER BY name`, stationID)
}

func (s *Store) queryShows(ctx context.Context, query string, args ...any) ([]*Show, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shows: %w", err)
	}
	defer rows.Close()

	var shows []*Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}
	return shows, rows.Err()
}

// UpdateShow persists changes to an existing show.
func (s *Store) UpdateShow(ctx context.Context, show *Show) error {
	if show == nil {
		return errors.New("show is nil")
	}
	show.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE shows
         SET station_id = ?, name = ?, schedule_pattern = ?, duration_minutes = ?,
             retention_days = ?, default_ttl_unit = ?, active = ?, updated_at = ?
         WHERE id = ?`,
		show.StationID,
		show.Name,
		strings.TrimSpace(show.SchedulePattern),
		show.DurationMinutes,
		show.RetentionDays,
		show.TTLUnit,
		boolToInt(show.Active),
		formatTime(show.UpdatedAt),
		show.ID,
	)
	if err != nil {
		return fmt.Errorf("update show: %w", err)
	}
	return nil
}

// SetShowActive flips the scheduling flag. Returns false when no show matched.
func (s *Store) SetShowActive(ctx context.Context, id int64, active bool) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE shows SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set show active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetShowRetention updates the show's default TTL pair.
func (s *Store) SetShowRetention(ctx context.Context, id int64, days int, unit TTLUnit) error {
	if _, ok := ParseTTLUnit(string(unit)); !ok {
		return fmt.Errorf("unknown ttl unit %q", unit)
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE shows SET retention_days = ?, default_ttl_unit = ?, updated_at = ? WHERE id = ?`,
		days,
		unit,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set show retention: %w", err)
	}
	return nil
}

const showColumns = "id, station_id, name, schedule_pattern, duration_minutes, retention_days, default_ttl_unit, active, created_at, updated_at"

func scanShow(scanner rowScanner) (*Show, error) {
	var (
		id         int64
		stationID  int64
		name       string
		pattern    sql.NullString
		duration   int
		retention  int
		ttlUnit    string
		active     sql.NullInt64
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stationID,
		&name,
		&pattern,
		&duration,
		&retention,
		&ttlUnit,
		&active,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	show := &Show{
		ID:              id,
		StationID:       stationID,
		Name:            name,
		SchedulePattern: pattern.String,
		DurationMinutes: duration,
		RetentionDays:   retention,
		TTLUnit:         TTLUnit(ttlUnit),
	}
	if active.Valid {
		show.Active = active.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		show.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		show.UpdatedAt = updated
	}
	return show, nil
}
