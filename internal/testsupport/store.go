package testsupport

import (
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/history"
	"cadence/internal/queue"
)

// FixedNow is the created_at clock used by NewQueue.
var FixedNow = time.Date(2025, time.November, 20, 8, 0, 0, 0, time.UTC)

// NewQueue builds a UTC queue manager with a two-day group gap over store.
func NewQueue(t testing.TB, store queue.Store) *queue.Manager {
	t.Helper()

	m, err := queue.NewManager(store, queue.Options{
		Location:   time.UTC,
		MinGapDays: 2,
		Now:        func() time.Time { return FixedNow },
	})
	if err != nil {
		t.Fatalf("queue.NewManager: %v", err)
	}
	return m
}

// MustOpenHistory opens the history database configured in cfg and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
