package publish_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cadence/internal/content"
	"cadence/internal/history"
	"cadence/internal/publish"
	"cadence/internal/queue"
	"cadence/internal/testsupport"
)

func at(day, hour int) time.Time {
	return time.Date(2025, time.November, day, hour, 0, 0, 0, time.UTC)
}

func enqueue(t *testing.T, m *queue.Manager, id, dest, contentID string, when time.Time) {
	t.Helper()
	_, err := m.Enqueue(queue.Posting{
		ID:            id,
		ContentID:     contentID,
		ContentType:   content.TypeTemplate,
		DestinationID: dest,
		Text:          "New template!\n\nSummary",
		Link:          "https://example.com/" + contentID,
		ScheduledTime: when,
		Status:        queue.StatusPending,
	})
	if err != nil {
		t.Fatalf("Enqueue %s: %v", id, err)
	}
}

func newRunner(t *testing.T, m *queue.Manager, log history.Log, pub publish.Publisher) *publish.Runner {
	t.Helper()
	r, err := publish.NewRunner(publish.Options{Queue: m, History: log, Publisher: pub})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestRunDuePublishesAndRecordsHistory(t *testing.T) {
	ctx := context.Background()
	m := testsupport.NewQueue(t, queue.NewMemoryStore())
	enqueue(t, m, "p-overdue", "Catchall", "T1", at(24, 9))
	enqueue(t, m, "p-due", "MathOnly", "T2", at(25, 13))
	enqueue(t, m, "p-later", "Catchall", "T3", at(27, 9))

	log := history.NewMemoryLog()
	pub := publish.PublisherFunc(func(_ context.Context, p queue.Posting) (publish.Result, error) {
		if p.ID == "p-due" {
			return publish.Result{Error: "rate limited"}, nil
		}
		return publish.Result{Success: true, RemotePostID: "remote-" + p.ID}, nil
	})
	runner := newRunner(t, m, log, pub)

	report, err := runner.RunDue(ctx, at(25, 12), 2*time.Hour)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Attempted != 2 || report.Posted != 1 || report.Failed != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	posted, _ := m.Get("p-overdue")
	if posted.Status != queue.StatusPosted || posted.RemotePostID != "remote-p-overdue" {
		t.Fatalf("overdue posting not marked posted: %+v", posted)
	}
	failed, _ := m.Get("p-due")
	if failed.Status != queue.StatusFailed || failed.LastError != "rate limited" || failed.Attempts != 1 {
		t.Fatalf("due posting not marked failed: %+v", failed)
	}
	later, _ := m.Get("p-later")
	if later.Status != queue.StatusPending {
		t.Fatalf("posting outside the window should stay pending: %+v", later)
	}

	records, err := log.Records(ctx, history.Query{})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 history records, got %+v", records)
	}
	byPosting := map[string]history.Record{}
	for _, r := range records {
		byPosting[r.PostingID] = r
	}
	if r := byPosting["p-overdue"]; r.Outcome != history.OutcomePosted || r.RemotePostID != "remote-p-overdue" || r.ContentType != content.TypeTemplate {
		t.Fatalf("unexpected posted record: %+v", r)
	}
	if r := byPosting["p-due"]; r.Outcome != history.OutcomeFailed || r.Error != "rate limited" {
		t.Fatalf("unexpected failed record: %+v", r)
	}

	again, err := runner.RunDue(ctx, at(25, 12), 2*time.Hour)
	if err != nil {
		t.Fatalf("second RunDue: %v", err)
	}
	if again.Attempted != 0 {
		t.Fatalf("nothing should be due after the first pass: %+v", again)
	}
}

func TestRunDueTreatsPublisherErrorsAsFailures(t *testing.T) {
	m := testsupport.NewQueue(t, queue.NewMemoryStore())
	enqueue(t, m, "p1", "Catchall", "T1", at(25, 9))
	enqueue(t, m, "p2", "MathOnly", "T1", at(25, 10))

	pub := publish.PublisherFunc(func(_ context.Context, p queue.Posting) (publish.Result, error) {
		if p.ID == "p1" {
			return publish.Result{}, errors.New("connection reset")
		}
		return publish.Result{}, nil
	})
	report, err := newRunner(t, m, history.NewMemoryLog(), pub).RunDue(context.Background(), at(25, 12), 0)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Failed != 2 {
		t.Fatalf("expected two failures, got %+v", report)
	}
	if report.Outcomes[0].Error != "connection reset" || report.Outcomes[1].Error != "publisher reported failure" {
		t.Fatalf("unexpected outcomes: %+v", report.Outcomes)
	}
}

func TestRunDueSkipsPostingsChangedUnderneath(t *testing.T) {
	m := testsupport.NewQueue(t, queue.NewMemoryStore())
	enqueue(t, m, "p1", "Catchall", "T1", at(25, 9))

	pub := publish.PublisherFunc(func(_ context.Context, p queue.Posting) (publish.Result, error) {
		if _, err := m.Remove(p.ID); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		return publish.Result{Success: true, RemotePostID: "r1"}, nil
	})
	log := history.NewMemoryLog()
	report, err := newRunner(t, m, log, pub).RunDue(context.Background(), at(25, 12), 0)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Skipped != 1 || report.Posted != 0 {
		t.Fatalf("expected a skip, got %+v", report)
	}
	if records, _ := log.Records(context.Background(), history.Query{}); len(records) != 0 {
		t.Fatalf("skipped postings must not reach history: %+v", records)
	}
}

func TestRunDueStopsOnPersistenceError(t *testing.T) {
	store := queue.NewMemoryStore()
	m := testsupport.NewQueue(t, store)
	enqueue(t, m, "p1", "Catchall", "T1", at(25, 9))
	store.SaveErr = errors.New("disk full")

	ok := publish.PublisherFunc(func(context.Context, queue.Posting) (publish.Result, error) {
		return publish.Result{Success: true, RemotePostID: "r1"}, nil
	})
	_, err := newRunner(t, m, history.NewMemoryLog(), ok).RunDue(context.Background(), at(25, 12), 0)
	var perr *queue.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestDryRunPublisher(t *testing.T) {
	m := testsupport.NewQueue(t, queue.NewMemoryStore())
	enqueue(t, m, "0f8fad5b-d9cb-469f-a165-70867728950e", "Math Only", "T1", at(25, 9))

	log := history.NewMemoryLog()
	report, err := newRunner(t, m, log, publish.NewDryRunPublisher(nil)).RunDue(context.Background(), at(25, 12), 0)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if report.Posted != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	remote := report.Outcomes[0].RemotePostID
	if remote != "dryrun-math_only-0f8fad5b" {
		t.Fatalf("remote id = %q", remote)
	}
	if !strings.HasPrefix(remote, "dryrun-") {
		t.Fatalf("dry-run ids must be recognizable: %q", remote)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := publish.NewDryRunPublisher(nil).Publish(cancelled, queue.Posting{ID: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	m := testsupport.NewQueue(t, queue.NewMemoryStore())
	if _, err := publish.NewRunner(publish.Options{History: history.NewMemoryLog(), Publisher: publish.NewDryRunPublisher(nil)}); err == nil {
		t.Fatal("expected missing queue error")
	}
	if _, err := publish.NewRunner(publish.Options{Queue: m, Publisher: publish.NewDryRunPublisher(nil)}); err == nil {
		t.Fatal("expected missing history error")
	}
	if _, err := publish.NewRunner(publish.Options{Queue: m, History: history.NewMemoryLog()}); err == nil {
		t.Fatal("expected missing publisher error")
	}
}

func TestRunDueFailsPostingsThatFailPreflight(t *testing.T) {
	m := testsupport.NewQueue(t, queue.NewMemoryStore())
	if _, err := m.Enqueue(queue.Posting{
		ID:            "no-link",
		ContentID:     "N1",
		ContentType:   content.TypeNotebook,
		DestinationID: "Catchall",
		Text:          "New notebook!\n\nSummary of N1",
		ScheduledTime: at(25, 9),
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	called := false
	pub := publish.PublisherFunc(func(context.Context, queue.Posting) (publish.Result, error) {
		called = true
		return publish.Result{Success: true}, nil
	})
	log := history.NewMemoryLog()
	report, err := newRunner(t, m, log, pub).RunDue(context.Background(), at(25, 12), 0)
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if called {
		t.Fatal("publisher must not see postings that fail preflight")
	}
	if report.Failed != 1 || !strings.HasPrefix(report.Outcomes[0].Error, "preflight: Link") {
		t.Fatalf("unexpected report: %+v", report)
	}
	records, _ := log.Records(context.Background(), history.Query{Outcome: history.OutcomeFailed})
	if len(records) != 1 || records[0].ContentType != content.TypeNotebook {
		t.Fatalf("unexpected history: %+v", records)
	}
}
