package testsupport

import (
	"context"
	"testing"

	"pykit/internal/config"
	"pykit/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordRun appends a run record for tests using the provided store.
func RecordRun(t testing.TB, store *history.Store, tool, target, status string) *history.Record {
	t.Helper()

	record, err := store.Add(context.Background(), tool, target, "", status, "")
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return record
}
