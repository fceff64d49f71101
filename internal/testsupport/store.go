package testsupport

import (
	"context"
	"testing"

	"aircheck/internal/config"
	"aircheck/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewStation creates a station for tests using the provided store.
func NewStation(t testing.TB, st *store.Store, name, callLetters, streamURL string) *store.Station {
	t.Helper()

	station, err := st.AddStation(context.Background(), &store.Station{
		Name:        name,
		CallLetters: callLetters,
		StreamURL:   streamURL,
	})
	if err != nil {
		t.Fatalf("store.AddStation: %v", err)
	}
	return station
}

// NewShow creates an active show for tests using the provided store.
func NewShow(t testing.TB, st *store.Store, stationID int64, name, pattern string, durationMinutes int) *store.Show {
	t.Helper()

	show, err := st.AddShow(context.Background(), &store.Show{
		StationID:       stationID,
		Name:            name,
		SchedulePattern: pattern,
		DurationMinutes: durationMinutes,
		RetentionDays:   30,
		TTLUnit:         store.TTLDays,
		Active:          true,
	})
	if err != nil {
		t.Fatalf("store.AddShow: %v", err)
	}
	return show
}
