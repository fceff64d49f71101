package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// dash substitutes a placeholder for empty table cells.
func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatBytes(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(size))
}

// formatAPITime renders an RFC3339 API timestamp in the local timezone for
// table display. Unparseable or empty values pass through as a dash.
func formatAPITime(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "-"
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return trimmed
	}
	return parsed.Local().Format("2006-01-02 15:04")
}

func formatDurationMinutes(minutes int) string {
	return (time.Duration(minutes) * time.Minute).String()
}

func formatDurationSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
