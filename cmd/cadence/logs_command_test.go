package main

import (
	"encoding/json"
	"strings"
	"testing"

	"cadence/internal/schedule"
)

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "--json", "plan", "--start", "2025-11-24", "--days", "1")
	var summary schedule.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}

	out = mustRunCLI(t, env, "logs", "--run", summary.RunID, "--component", "scheduler", "-n", "100")
	requireContains(t, out, "planning run started")
	requireContains(t, out, "planning run finished")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.Contains(line, summary.RunID) {
			t.Fatalf("line from another run: %q", line)
		}
	}
}
