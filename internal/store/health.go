package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Summarize aggregates store counts for status output.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	summary := Summary{}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM stations`)
	if err := row.Scan(&summary.Stations); err != nil {
		return Summary{}, fmt.Errorf("count stations: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(active), 0) FROM shows`)
	if err := row.Scan(&summary.Shows, &summary.ActiveShows); err != nil {
		return Summary{}, fmt.Errorf("count shows: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(file_size_bytes), 0) FROM recordings`)
	if err := row.Scan(&summary.Recordings, &summary.StoredBytes); err != nil {
		return Summary{}, fmt.Errorf("count recordings: %w", err)
	}

	return summary, nil
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	expected := []string{"stations", "shows", "recordings", "tool_test_results"}
	missing := make(map[string]struct{}, len(expected))
	for _, table := range expected {
		missing[table] = struct{}{}
	}
	rows, err := s.db.QueryContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("scan table info: %w", err)
		}
		delete(missing, name)
	}
	if err := rows.Err(); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("iterate table info: %w", err)
	}
	for table := range missing {
		health.MissingTables = append(health.MissingTables, table)
	}
	health.TablesPresent = len(health.MissingTables) == 0

	if len(health.MissingTables) == 0 {
		row := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM recordings")
		if err := row.Scan(&health.TotalRecordings); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count recordings: %w", err)
		}
	}

	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
