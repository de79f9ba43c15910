package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"cadence/internal/content"
	"cadence/internal/testsupport"
)

func TestCatalogListMergesSources(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.TemplatesDir, "physics", "waves.tex"),
		"\\documentclass{article}\n\\usepackage{amsmath}\n\\title{Wave Mechanics}\n\\begin{document}\\end{document}\n")

	out := mustRunCLI(t, env, "catalog", "list")
	requireContains(t, out, "T1")
	requireContains(t, out, "physics/waves")
	requireContains(t, out, "Wave Mechanics")

	out = mustRunCLI(t, env, "--json", "catalog", "list", "--type", "template")
	var items []content.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 templates, got %+v", items)
	}

	out = mustRunCLI(t, env, "catalog", "list", "--type", "notebook")
	requireContains(t, out, "Catalog is empty")

	if _, _, err := runCLI(t, []string{"catalog", "list", "--type", "video"}, env.configPath); err == nil {
		t.Fatal("expected unknown type error")
	}
}
