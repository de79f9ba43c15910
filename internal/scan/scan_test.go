package scan_test

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"cadence/internal/content"
	"cadence/internal/scan"
	"cadence/internal/testsupport"
)

const sageTemplate = `\documentclass{article}
\usepackage[utf8]{inputenc}
\usepackage{amsmath,sagetex}
\title{Elliptic Curves with \textbf{SageMath}}
\begin{document}
\maketitle
\begin{abstract}
We compute   ranks of
elliptic curves.
\end{abstract}
\end{document}
`

func TestTemplates(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "number-theory", "elliptic_curves.tex"), sageTemplate)
	testsupport.WriteFile(t, filepath.Join(dir, "number-theory", "elliptic_curves.pdf"), "%PDF")
	testsupport.WriteFile(t, filepath.Join(dir, "physics", "heat_equation.tex"), `\documentclass{article}\usepackage{pythontex}`)
	testsupport.WriteFile(t, filepath.Join(dir, "README.md"), "ignored")

	items, err := scan.Templates(dir, scan.Options{BaseURL: "https://cocalc.com/github/org/repo/templates/"})
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(items))
	}

	elliptic := items[0]
	if elliptic.ID != "number-theory/elliptic_curves" || elliptic.Type != content.TypeTemplate {
		t.Fatalf("unexpected first item: %+v", elliptic)
	}
	if elliptic.Title != "Elliptic Curves with SageMath" {
		t.Fatalf("title = %q", elliptic.Title)
	}
	if elliptic.Summary != "We compute ranks of elliptic curves." {
		t.Fatalf("summary = %q", elliptic.Summary)
	}
	if !elliptic.HasSpecializedMarkup || !elliptic.HasMedia {
		t.Fatalf("expected markup and media flags: %+v", elliptic)
	}
	for _, kw := range []string{"elliptic", "curves", "sagetex", "amsmath", "inputenc"} {
		if !elliptic.HasKeyword(kw) {
			t.Fatalf("missing keyword %q in %v", kw, elliptic.Keywords)
		}
	}
	if want := []string{"NumberTheory", "LaTeX"}; !reflect.DeepEqual(elliptic.Hashtags, want) {
		t.Fatalf("hashtags = %v, want %v", elliptic.Hashtags, want)
	}
	if elliptic.Link != "https://cocalc.com/github/org/repo/templates/number-theory/elliptic_curves.tex" {
		t.Fatalf("link = %q", elliptic.Link)
	}

	heat := items[1]
	if heat.Title != "Heat Equation" || heat.HasSpecializedMarkup || heat.HasMedia {
		t.Fatalf("unexpected fallback template: %+v", heat)
	}
	if !strings.Contains(heat.Summary, "heat equation") {
		t.Fatalf("expected generated summary, got %q", heat.Summary)
	}
}

func TestTemplatesMissingDir(t *testing.T) {
	items, err := scan.Templates(filepath.Join(t.TempDir(), "missing"), scan.Options{})
	if err != nil || items != nil {
		t.Fatalf("expected empty result, got %v %v", items, err)
	}
}

const sageNotebook = `{
  "cells": [
    {"cell_type": "code", "source": "1+1", "outputs": []},
    {"cell_type": "markdown", "source": ["# Prime *Spirals*\n", "\n", "Visualizing primes\n", "on a spiral.\n"]},
    {"cell_type": "code", "source": "plot()", "outputs": [{"output_type": "display_data", "data": {"image/png": "AAAA"}}]}
  ],
  "metadata": {"kernelspec": {"name": "sagemath", "display_name": "SageMath 10.4", "language": "sage"}, "category": "number-theory"}
}`

const plainNotebook = `{"cells": [], "metadata": {"kernelspec": {"name": "python3", "language": "python"}}}`

const postText = `Generated from: prime_spirals.ipynb

======================================================================
TWITTER/X
======================================================================
Short tweet #Primes

======================================================================
FACEBOOK
======================================================================
Primes arranged on a spiral reveal surprising diagonals.

Try it: https://cocalc.com/github/org/repo/blob/main/notebooks/prime_spirals.ipynb

#Primes #NumberTheory #Primes
======================================================================
LINKEDIN
======================================================================
Professional version.
`

func TestNotebooks(t *testing.T) {
	dir := t.TempDir()
	posts := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "prime_spirals.ipynb"), sageNotebook)
	testsupport.WriteFile(t, filepath.Join(dir, "data_cleaning.ipynb"), plainNotebook)
	testsupport.WriteFile(t, filepath.Join(dir, "broken.ipynb"), "{not json")
	testsupport.WriteFile(t, filepath.Join(posts, "prime_spirals_posts.txt"), postText)

	items, err := scan.Notebooks(dir, posts, scan.Options{BaseURL: "https://example.com/nb"})
	if err != nil {
		t.Fatalf("Notebooks: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 notebooks, got %d", len(items))
	}

	plain, prime := items[0], items[1]
	if plain.ID != "data_cleaning" || plain.Category != "computational-notebook" || plain.HasSpecializedMarkup {
		t.Fatalf("unexpected plain notebook: %+v", plain)
	}
	if plain.Title != "Data Cleaning" || plain.Link != "https://example.com/nb/data_cleaning.ipynb" {
		t.Fatalf("unexpected plain presentation: %+v", plain)
	}
	if !plain.HasKeyword("python") {
		t.Fatalf("expected kernel language keyword: %v", plain.Keywords)
	}

	if prime.Title != "Prime Spirals" || !prime.HasSpecializedMarkup || !prime.HasMedia {
		t.Fatalf("unexpected sage notebook: %+v", prime)
	}
	if prime.Category != "number-theory" {
		t.Fatalf("category = %q", prime.Category)
	}
	if !strings.HasPrefix(prime.Summary, "Primes arranged on a spiral") || strings.Contains(prime.Summary, "#NumberTheory") {
		t.Fatalf("summary = %q", prime.Summary)
	}
	if want := []string{"Primes", "NumberTheory"}; !reflect.DeepEqual(prime.Hashtags, want) {
		t.Fatalf("hashtags = %v, want %v", prime.Hashtags, want)
	}
	if prime.Link != "https://cocalc.com/github/org/repo/blob/main/notebooks/prime_spirals.ipynb" {
		t.Fatalf("link = %q", prime.Link)
	}
}

func TestNotebookSummaryFromMarkdown(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "prime_spirals.ipynb"), sageNotebook)
	items, err := scan.Notebooks(dir, "", scan.Options{})
	if err != nil || len(items) != 1 {
		t.Fatalf("Notebooks: %v %v", items, err)
	}
	if items[0].Summary != "Visualizing primes on a spiral." {
		t.Fatalf("summary = %q", items[0].Summary)
	}
	if want := []string{"NumberTheory"}; !reflect.DeepEqual(items[0].Hashtags, want) {
		t.Fatalf("hashtags = %v", items[0].Hashtags)
	}
}

func TestParsePostText(t *testing.T) {
	post := scan.ParsePostText([]byte(postText), "ignored_posts.txt")
	if post.Notebook != "prime_spirals" {
		t.Fatalf("notebook = %q", post.Notebook)
	}
	if body, ok := post.Section("twitter"); !ok || body != "Short tweet #Primes" {
		t.Fatalf("twitter = %q %v", body, ok)
	}
	if body, ok := post.Section("linkedin"); !ok || body != "Professional version." {
		t.Fatalf("linkedin = %q %v", body, ok)
	}
	if _, ok := post.Section("reddit"); ok {
		t.Fatal("reddit section should be absent")
	}
}

func TestParsePostTextMarkdownHeaders(t *testing.T) {
	doc := "Intro line mentioning facebook should not start a section.\n\n### Facebook\nHello from markdown.\n\n### Instagram\nPicture time.\n"
	post := scan.ParsePostText([]byte(doc), "heat_transfer_posts.txt")
	if post.Notebook != "heat_transfer" {
		t.Fatalf("notebook = %q", post.Notebook)
	}
	if got := post.Facebook(); got != "Hello from markdown." {
		t.Fatalf("facebook = %q", got)
	}
	if post.Link != "" || post.Hashtags() != nil {
		t.Fatalf("expected no link or hashtags: %q %v", post.Link, post.Hashtags())
	}
}
