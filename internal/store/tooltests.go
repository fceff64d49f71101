package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AppendToolTestResult records one tester attempt against a station.
func (s *Store) AppendToolTestResult(ctx context.Context, result *ToolTestResult) error {
	if result == nil {
		return errors.New("tool test result is nil")
	}
	if result.StationID == 0 {
		return errors.New("tool test result station id is required")
	}
	if result.TestedAt.IsZero() {
		result.TestedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO tool_test_results (
            station_id, backend, user_agent, stream_url, success, detail, tested_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.StationID,
		result.Backend,
		nullableString(result.UserAgent),
		result.StreamURL,
		boolToInt(result.Success),
		nullableString(result.Detail),
		formatTime(result.TestedAt),
	)
	if err != nil {
		return fmt.Errorf("insert tool test result: %w", err)
	}
	return nil
}

// ToolTestResultsForStation returns a station's most recent attempts, newest
// first, capped at limit when limit is positive.
func (s *Store) ToolTestResultsForStation(ctx context.Context, stationID int64, limit int) ([]*ToolTestResult, error) {
	query := `SELECT id, station_id, backend, user_agent, stream_url, success, detail, tested_at
        FROM tool_test_results WHERE station_id = ? ORDER BY tested_at DESC, id DESC`
	args := []any{stationID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tool test results: %w", err)
	}
	defer rows.Close()

	var results []*ToolTestResult
	for rows.Next() {
		result, err := scanToolTestResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// PruneToolTestResults deletes attempts older than the cutoff and returns the
// number removed.
func (s *Store) PruneToolTestResults(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM tool_test_results WHERE tested_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune tool test results: %w", err)
	}
	return res.RowsAffected()
}

func scanToolTestResult(scanner rowScanner) (*ToolTestResult, error) {
	var (
		id        int64
		stationID int64
		backend   string
		userAgent sql.NullString
		streamURL string
		success   sql.NullInt64
		detail    sql.NullString
		testedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stationID,
		&backend,
		&userAgent,
		&streamURL,
		&success,
		&detail,
		&testedRaw,
	); err != nil {
		return nil, err
	}

	result := &ToolTestResult{
		ID:        id,
		StationID: stationID,
		Backend:   backend,
		UserAgent: userAgent.String,
		StreamURL: streamURL,
		Detail:    detail.String,
	}
	if success.Valid {
		result.Success = success.Int64 != 0
	}
	if tested, err := parseTimeString(testedRaw.String); err == nil {
		result.TestedAt = tested
	}
	return result, nil
}
