package queue_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cadence/internal/content"
	"cadence/internal/queue"
)

var fixedNow = time.Date(2025, time.November, 20, 8, 0, 0, 0, time.UTC)

func newManager(t *testing.T, store queue.Store) *queue.Manager {
	t.Helper()
	m, err := queue.NewManager(store, queue.Options{
		Location:   time.UTC,
		MinGapDays: 2,
		Now:        func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func posting(dest, contentID string, at time.Time) queue.Posting {
	return queue.Posting{
		ContentID:     contentID,
		ContentType:   content.TypeTemplate,
		DestinationID: dest,
		Text:          "intro\n\nsummary",
		Hashtags:      []string{"Algebra"},
		Link:          "https://example.com/" + contentID,
		ScheduledTime: at,
	}
}

func mustEnqueue(t *testing.T, m *queue.Manager, p queue.Posting) queue.Posting {
	t.Helper()
	stored, err := m.Enqueue(p)
	if err != nil {
		t.Fatalf("Enqueue(%s/%s): %v", p.DestinationID, p.ContentID, err)
	}
	return stored
}

func TestEnqueueRejectsSameDaySelfDuplicate(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	first := mustEnqueue(t, m, posting("Catchall", "T1", time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC)))

	_, err := m.Enqueue(posting("Catchall", "T1", time.Date(2025, 11, 25, 17, 30, 0, 0, time.UTC)))
	var verr *queue.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if queue.KindOf(err) != "validation" {
		t.Fatalf("unexpected kind %q", queue.KindOf(err))
	}
	all := m.All()
	if len(all) != 1 || all[0].ID != first.ID {
		t.Fatalf("expected only the first posting to remain, got %+v", all)
	}

	// Different day, different destination and failed postings do not collide.
	mustEnqueue(t, m, posting("Catchall", "T1", time.Date(2025, 11, 26, 9, 0, 0, 0, time.UTC)))
	mustEnqueue(t, m, posting("MathOnly", "T1", time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC)))
}

func TestEnqueueFillsDefaults(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	stored := mustEnqueue(t, m, posting("Catchall", "T1", fixedNow.Add(time.Hour)))
	if stored.ID == "" || stored.Status != queue.StatusPending || !stored.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected defaults: %+v", stored)
	}
	if !stored.IsOriginal || stored.GroupID != "" {
		t.Fatalf("non-duplicate posting must be its own original: %+v", stored)
	}
	if _, err := m.Enqueue(queue.Posting{DestinationID: "x"}); err == nil {
		t.Fatal("expected missing content id to be rejected")
	}
}

func TestEnqueueRequiresGroupForDuplicates(t *testing.T) {
	store := queue.NewMemoryStore()
	m := newManager(t, store)

	orphan := posting("MathOnly", "T1", fixedNow.Add(time.Hour))
	orphan.IsDuplicate = true
	_, err := m.Enqueue(orphan)
	var verr *queue.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if m.Len() != 0 || store.Saves() != 0 {
		t.Fatalf("rejected posting must not be stored: len=%d saves=%d", m.Len(), store.Saves())
	}

	orphan.GroupID = "g1"
	stored := mustEnqueue(t, m, orphan)
	if stored.GroupID != "g1" || !stored.IsDuplicate {
		t.Fatalf("unexpected duplicate posting: %+v", stored)
	}
}

func TestListFiltersByContentType(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	mustEnqueue(t, m, posting("A", "T1", fixedNow.Add(time.Hour)))
	nb := posting("A", "N1", fixedNow.Add(2*time.Hour))
	nb.ContentType = content.TypeNotebook
	mustEnqueue(t, m, nb)

	notebooks := m.List(queue.Filter{ContentType: content.TypeNotebook})
	if len(notebooks) != 1 || notebooks[0].ContentID != "N1" {
		t.Fatalf("unexpected notebook listing: %+v", notebooks)
	}
	if templates := m.List(queue.Filter{ContentType: content.TypeTemplate, DestinationID: "A"}); len(templates) != 1 || templates[0].ContentID != "T1" {
		t.Fatalf("unexpected template listing: %+v", templates)
	}
}

func TestDueWithinSortedWithInsertionTieBreak(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	late := mustEnqueue(t, m, posting("A", "late", fixedNow.Add(50*time.Minute)))
	tieFirst := mustEnqueue(t, m, posting("A", "tie1", fixedNow.Add(10*time.Minute)))
	tieSecond := mustEnqueue(t, m, posting("B", "tie2", fixedNow.Add(10*time.Minute)))
	overdue := mustEnqueue(t, m, posting("A", "old", fixedNow.Add(-2*time.Hour)))
	mustEnqueue(t, m, posting("A", "future", fixedNow.Add(3*time.Hour)))
	posted := mustEnqueue(t, m, posting("B", "done", fixedNow.Add(-time.Hour)))
	if _, _, err := m.MarkPosted(posted.ID, "r1", fixedNow); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	due := m.DueWithin(time.Hour, fixedNow)
	want := []string{overdue.ID, tieFirst.ID, tieSecond.ID, late.ID}
	if len(due) != len(want) {
		t.Fatalf("expected %d due postings, got %d", len(want), len(due))
	}
	for i, p := range due {
		if p.ID != want[i] {
			t.Fatalf("due[%d] = %s (%s), want %s", i, p.ContentID, p.ID, want[i])
		}
		if i > 0 && due[i].ScheduledTime.Before(due[i-1].ScheduledTime) {
			t.Fatal("due postings not sorted by time")
		}
	}
}

func TestDayFiltersByDestination(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	mustEnqueue(t, m, posting("A", "x", time.Date(2025, 11, 25, 13, 0, 0, 0, time.UTC)))
	mustEnqueue(t, m, posting("B", "y", time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC)))
	mustEnqueue(t, m, posting("A", "z", time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC)))
	mustEnqueue(t, m, posting("A", "w", time.Date(2025, 11, 26, 0, 0, 0, 0, time.UTC)))

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	all := m.Day(day, "")
	if len(all) != 3 || all[0].ScheduledTime.Hour() != 9 || all[2].ContentID != "x" {
		t.Fatalf("unexpected day listing: %+v", all)
	}
	onlyA := m.Day(day, "A")
	if len(onlyA) != 2 || onlyA[0].ContentID != "z" || onlyA[1].ContentID != "x" {
		t.Fatalf("unexpected filtered listing: %+v", onlyA)
	}
}

func TestMarkPostedIsIdempotent(t *testing.T) {
	store := queue.NewMemoryStore()
	m := newManager(t, store)
	p := mustEnqueue(t, m, posting("A", "T1", fixedNow))

	postedAt := fixedNow.Add(time.Minute)
	first, changed, err := m.MarkPosted(p.ID, "remote-1", postedAt)
	if err != nil || !changed {
		t.Fatalf("first MarkPosted: changed=%v err=%v", changed, err)
	}
	snapshot := store.Bytes()
	saves := store.Saves()

	second, changed, err := m.MarkPosted(p.ID, "remote-1", postedAt)
	if err != nil {
		t.Fatalf("second MarkPosted: %v", err)
	}
	if changed {
		t.Fatal("second MarkPosted must not report a change")
	}
	if store.Saves() != saves || !bytes.Equal(store.Bytes(), snapshot) {
		t.Fatal("second MarkPosted must not rewrite the document")
	}
	if first.RemotePostID != second.RemotePostID || !second.PostedAt.Equal(postedAt) || second.Status != queue.StatusPosted {
		t.Fatalf("unexpected posting after repeat: %+v", second)
	}

	if _, _, err := m.MarkPosted(p.ID, "remote-2", postedAt); queue.KindOf(err) != "validation" {
		t.Fatalf("expected validation error for conflicting remote id, got %v", err)
	}
}

func TestMarkPostedUnknownID(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	_, _, err := m.MarkPosted("missing", "r", fixedNow)
	var nf *queue.NotFoundError
	if !errors.As(err, &nf) || nf.PostingID != "missing" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFailAndRescheduleLifecycle(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	p := mustEnqueue(t, m, posting("A", "T1", time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC)))
	blocker := mustEnqueue(t, m, posting("A", "T1", time.Date(2025, 11, 27, 9, 0, 0, 0, time.UTC)))

	failed, err := m.MarkFailed(p.ID, "  rate limited ")
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if failed.Status != queue.StatusFailed || failed.LastError != "rate limited" || failed.Attempts != 1 {
		t.Fatalf("unexpected failed posting: %+v", failed)
	}
	if _, _, err := m.MarkPosted(p.ID, "r", fixedNow); queue.KindOf(err) != "validation" {
		t.Fatalf("failed postings cannot be marked posted directly, got %v", err)
	}
	if _, err := m.MarkFailed(p.ID, "again"); queue.KindOf(err) != "validation" {
		t.Fatalf("expected validation error for failed→failed, got %v", err)
	}

	if _, err := m.Reschedule(p.ID, time.Date(2025, 11, 27, 18, 0, 0, 0, time.UTC)); queue.KindOf(err) != "validation" {
		t.Fatalf("expected same-day conflict with %s, got %v", blocker.ID, err)
	}
	moved, err := m.Reschedule(p.ID, time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.Status != queue.StatusPending || moved.ScheduledTime.Day() != 26 || moved.Attempts != 1 {
		t.Fatalf("unexpected rescheduled posting: %+v", moved)
	}
	// Rescheduling within its own day never conflicts with itself.
	if _, err := m.Reschedule(p.ID, time.Date(2025, 11, 26, 11, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Reschedule same day: %v", err)
	}

	if _, _, err := m.MarkPosted(blocker.ID, "r9", fixedNow); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}
	if _, err := m.Reschedule(blocker.ID, fixedNow); queue.KindOf(err) != "validation" {
		t.Fatalf("posted postings cannot be rescheduled, got %v", err)
	}
}

func TestRemoveAndPendingFor(t *testing.T) {
	m := newManager(t, queue.NewMemoryStore())
	p := mustEnqueue(t, m, posting("A", "T1", fixedNow))
	if !m.PendingFor("A", "T1") || m.PendingFor("B", "T1") {
		t.Fatal("unexpected PendingFor result")
	}
	if _, err := m.Remove(p.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if m.PendingFor("A", "T1") || m.Len() != 0 {
		t.Fatal("posting should be gone")
	}
	if _, err := m.Remove(p.ID); queue.KindOf(err) != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
	if _, err := m.Get(p.ID); queue.KindOf(err) != "not_found" {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRoundTripPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	store := queue.NewFileStore(path)
	m := newManager(t, store)

	loc := time.FixedZone("CET", 3600)
	a := posting("A", "T1", time.Date(2025, 11, 25, 9, 0, 0, 0, loc))
	a.IsDuplicate, a.GroupID, a.IsOriginal, a.Title = true, "g1", true, "Symbolic Algebra"
	b := posting("B", "T1", time.Date(2025, 11, 27, 9, 0, 0, 0, loc))
	b.IsDuplicate, b.GroupID = true, "g1"
	mustEnqueue(t, m, a)
	stored := mustEnqueue(t, m, b)
	if _, _, err := m.MarkPosted(stored.ID, "remote", time.Date(2025, 11, 27, 9, 1, 0, 0, time.UTC)); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	before, err := queue.Encode(m.All())
	if err != nil {
		t.Fatal(err)
	}
	reloaded := newManager(t, queue.NewFileStore(path))
	after, err := queue.Encode(reloaded.All())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("round trip mismatch:\n%s\n---\n%s", before, after)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"schema_version": 1`, `"posting_id"`, `"duplicate_group_id": "g1"`, `"remote_post_id": "remote"`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("expected %s in document:\n%s", field, raw)
		}
	}
}

func TestFileStoreToleratesMissingEmptyAndBareArray(t *testing.T) {
	dir := t.TempDir()

	missing := newManager(t, queue.NewFileStore(filepath.Join(dir, "absent.json")))
	if missing.Len() != 0 {
		t.Fatal("missing file should load as empty queue")
	}

	emptyPath := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(emptyPath, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if newManager(t, queue.NewFileStore(emptyPath)).Len() != 0 {
		t.Fatal("empty file should load as empty queue")
	}

	arrayPath := filepath.Join(dir, "array.json")
	legacy := `[{"posting_id":"p1","content_id":"T1","content_type":"template","destination_id":"A","rendered_text":"x","rendered_hashtags":[],"link":"","scheduled_time":"2025-11-25T09:00:00Z","is_duplicate":false,"is_original":true,"status":"pending","created_at":"2025-11-20T08:00:00Z"}]`
	if err := os.WriteFile(arrayPath, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	m := newManager(t, queue.NewFileStore(arrayPath))
	if p, err := m.Get("p1"); err != nil || p.DestinationID != "A" {
		t.Fatalf("expected legacy posting, got %+v %v", p, err)
	}
}

func TestCorruptDocumentIsPersistenceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := queue.NewManager(queue.NewFileStore(path), queue.Options{})
	var perr *queue.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestSaveFailureKeepsLastDurableState(t *testing.T) {
	store := queue.NewMemoryStore()
	m := newManager(t, store)
	mustEnqueue(t, m, posting("A", "T1", fixedNow))

	store.SaveErr = errors.New("disk full")
	_, err := m.Enqueue(posting("A", "T2", fixedNow))
	if queue.KindOf(err) != "persistence" {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if m.Len() != 1 || m.PendingFor("A", "T2") {
		t.Fatal("in-memory queue must stay at the last durable version")
	}
}

func TestMutationsSeeExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	first := newManager(t, queue.NewFileStore(path))
	second := newManager(t, queue.NewFileStore(path))

	mustEnqueue(t, first, posting("A", "T1", time.Date(2025, 11, 25, 9, 0, 0, 0, time.UTC)))
	if _, err := second.Enqueue(posting("A", "T1", time.Date(2025, 11, 25, 12, 0, 0, 0, time.UTC))); queue.KindOf(err) != "validation" {
		t.Fatalf("second manager must re-read the document before mutating, got %v", err)
	}
	if second.Len() != 1 {
		t.Fatalf("expected reload to pick up the first posting, got %d", second.Len())
	}
}

func TestBackupCopiesDocument(t *testing.T) {
	dir := t.TempDir()
	store := queue.NewFileStore(filepath.Join(dir, "queue.json"))
	m := newManager(t, store)
	mustEnqueue(t, m, posting("A", "T1", fixedNow))

	dst := filepath.Join(dir, "backup", "queue.json")
	if err := store.Backup(dst); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	copied := newManager(t, queue.NewFileStore(dst))
	if copied.Len() != 1 {
		t.Fatalf("expected backup to hold one posting, got %d", copied.Len())
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := queue.ParseStatus(" Posted "); !ok || s != queue.StatusPosted {
		t.Fatalf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := queue.ParseStatus("review"); ok {
		t.Fatal("unexpected status accepted")
	}
}
