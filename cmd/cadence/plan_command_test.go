package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cadence/internal/runlock"
	"cadence/internal/schedule"
)

func TestPlanFillsSlotsAndIsIdempotent(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "plan", "--start", "2025-11-24", "--days", "1")
	requireContains(t, out, "Slots: 2 requested, 1 filled, 0 already filled, 1 short")
	requireContains(t, out, "Catchall")
	requireContains(t, out, "template:T1")

	postings := listPostings(t, env)
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %+v", postings)
	}
	if postings[0].DestinationID != "Catchall" || postings[1].DestinationID != "MathOnly" {
		t.Fatalf("unexpected order: %+v", postings)
	}
	if postings[0].GroupID == "" || postings[0].GroupID != postings[1].GroupID {
		t.Fatalf("expected one duplicate group: %+v", postings)
	}

	out = mustRunCLI(t, env, "--json", "plan", "--start", "2025-11-24", "--days", "1")
	var summary schedule.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.SlotsAlreadyFilled != 1 || len(summary.Postings) != 0 {
		t.Fatalf("second run should only report filled slots: %+v", summary)
	}
	if got := len(listPostings(t, env)); got != 2 {
		t.Fatalf("second run changed the queue: %d postings", got)
	}
}

func TestPlanRefusesWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)

	lock, err := runlock.Acquire(env.cfg.Paths.LockFile)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"plan", "--start", "2025-11-24"}, env.configPath)
	if !errors.Is(err, runlock.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestPlanRejectsBadStart(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"plan", "--start", "24/11/2025"}, env.configPath); err == nil {
		t.Fatal("expected invalid day error")
	}
}

func TestPlanPrintsPartialSummaryOnError(t *testing.T) {
	env := setupCLITestEnv(t)

	runCtx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", env.configPath, "plan", "--start", "2025-11-24", "--days", "1"})
	err := cmd.ExecuteContext(runCtx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	requireContains(t, stderr.String(), "Slots: 0 requested")
	if postings := listPostings(t, env); len(postings) != 0 {
		t.Fatalf("cancelled plan must not enqueue: %+v", postings)
	}
}
