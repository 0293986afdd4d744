package history_test

import (
	"context"
	"testing"
	"time"

	"pykit/internal/history"
	"pykit/internal/testsupport"
)

func newStore(t *testing.T) *history.Store {
	t.Helper()
	return testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
}

func TestAddAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, "docs", "https://docs.example.com", "/tmp/out", history.StatusOK, "")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if first.RunID == "" {
		t.Fatal("expected run id assigned")
	}
	if _, err := store.Add(ctx, "ytdlp", "https://youtu.be/x", "", history.StatusFailed, "exit status 1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	records, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Tool != "ytdlp" {
		t.Fatalf("expected newest first, got %q", records[0].Tool)
	}
	if records[0].Detail != "exit status 1" {
		t.Fatalf("detail not persisted: %q", records[0].Detail)
	}

	docs, err := store.List(ctx, "docs", 10)
	if err != nil {
		t.Fatalf("List filtered failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Target != "https://docs.example.com" {
		t.Fatalf("unexpected filtered records: %#v", docs)
	}
}

func TestListHonoursLimit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		testsupport.RecordRun(t, store, "split", "file.mkv", history.StatusOK)
	}
	records, err := store.List(ctx, "", 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestPruneRemovesOnlyOldRecords(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.Add(ctx, "docs", "https://recent.example.com", "", history.StatusOK, ""); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	removed, err := store.Prune(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("recent record should survive, removed %d", removed)
	}

	removed, err = store.Prune(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
}
