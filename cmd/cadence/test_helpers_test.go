package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/queue"
	"cadence/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	cfg := testsupport.NewConfig(t, testsupport.WithDestinations(
		testsupport.CatchallConfig(),
		testsupport.MathOnlyConfig(),
	))
	testsupport.WriteManifest(t, cfg.Paths.CatalogFile, testsupport.T1())

	setClock(t, time.Date(2025, time.November, 24, 10, 0, 0, 0, time.UTC))
	return &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
	}
}

func setClock(t *testing.T, now time.Time) {
	t.Helper()
	previous := clock
	clock = func() time.Time { return now }
	t.Cleanup(func() { clock = previous })
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("cadence %s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func listPostings(t *testing.T, env *cliTestEnv, args ...string) []queue.Posting {
	t.Helper()
	out := mustRunCLI(t, env, append([]string{"--json", "queue", "list"}, args...)...)
	var postings []queue.Posting
	if err := json.Unmarshal([]byte(out), &postings); err != nil {
		t.Fatalf("decode queue list: %v\n%s", err, out)
	}
	return postings
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
