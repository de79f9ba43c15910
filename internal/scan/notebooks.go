package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"cadence/internal/content"
	"cadence/internal/logging"
	"cadence/internal/textutil"
)

const defaultNotebookCategory = "computational-notebook"

var markdown = goldmark.New()

// notebookSource accepts both the string and the list-of-lines encodings of a
// cell source.
type notebookSource string

func (s *notebookSource) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = notebookSource(single)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*s = notebookSource(strings.Join(lines, ""))
	return nil
}

type notebookFile struct {
	Cells []struct {
		CellType string         `json:"cell_type"`
		Source   notebookSource `json:"source"`
		Outputs  []struct {
			Data map[string]json.RawMessage `json:"data"`
		} `json:"outputs"`
	} `json:"cells"`
	Metadata struct {
		Kernelspec struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
			Language    string `json:"language"`
		} `json:"kernelspec"`
		Category string   `json:"category"`
		Keywords []string `json:"keywords"`
	} `json:"metadata"`
}

// Notebooks scans <dir>/*.ipynb. When postsDir is set, <postsDir>/<name>_posts.txt
// supplies the facebook text as summary, its hashtags and its CoCalc link.
func Notebooks(dir, postsDir string, opts Options) ([]content.Item, error) {
	logger := logging.NewComponentLogger(opts.Logger, "scan")
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("notebooks directory missing", logging.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("stat notebooks dir: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.ipynb"))
	if err != nil {
		return nil, fmt.Errorf("glob notebooks: %w", err)
	}

	var items []content.Item
	withPosts := 0
	for _, file := range files {
		item, err := parseNotebook(file, opts)
		if err != nil {
			logging.WarnWithContext(logger, "notebook skipped", "scan_notebook",
				logging.String("file", file),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the notebook is valid JSON"),
				logging.String(logging.FieldImpact, "notebook missing from catalog"),
			)
			continue
		}
		if postsDir != "" {
			postFile := filepath.Join(postsDir, item.ID+"_posts.txt")
			if fileExists(postFile) {
				post, err := LoadPostText(postFile)
				if err != nil {
					return nil, err
				}
				applyPostText(&item, post)
				withPosts++
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	logger.Info("notebooks scanned",
		logging.String("dir", dir),
		logging.Int("items", len(items)),
		logging.Int("with_posts", withPosts),
	)
	return items, nil
}

func parseNotebook(path string, opts Options) (content.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return content.Item{}, err
	}
	var nb notebookFile
	if err := json.Unmarshal(data, &nb); err != nil {
		return content.Item{}, fmt.Errorf("decode notebook: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	title, summary := "", ""
	hasMedia := false
	for _, cell := range nb.Cells {
		if cell.CellType == "markdown" && title == "" && summary == "" {
			title, summary = markdownIntro([]byte(cell.Source))
		}
		for _, out := range cell.Outputs {
			for mime := range out.Data {
				if strings.HasPrefix(mime, "image/") {
					hasMedia = true
				}
			}
		}
	}
	if title == "" {
		title = textutil.TitleWords(stem)
	}

	kernel := nb.Metadata.Kernelspec
	sage := strings.Contains(strings.ToLower(kernel.Name+" "+kernel.DisplayName), "sage") ||
		strings.Contains(strings.ToLower(stem), "sage")

	category := strings.TrimSpace(nb.Metadata.Category)
	if category == "" {
		category = defaultNotebookCategory
	}
	keywords := append(textutil.Tokenize(stem), nb.Metadata.Keywords...)
	if kernel.Language != "" {
		keywords = append(keywords, kernel.Language)
	}

	var hashtags []string
	for _, segment := range content.SplitCategory(category) {
		if tag := textutil.CamelHashtag(segment); tag != "" {
			hashtags = append(hashtags, tag)
		}
	}

	return content.Item{
		ID:                   stem,
		Type:                 content.TypeNotebook,
		Category:             category,
		Keywords:             content.NormalizeKeywords(keywords),
		HasSpecializedMarkup: sage,
		HasMedia:             hasMedia,
		Title:                title,
		Summary:              summary,
		Link:                 opts.link(filepath.Base(path)),
		Hashtags:             hashtags,
	}, nil
}

// markdownIntro returns the first heading and first paragraph of a markdown cell.
func markdownIntro(src []byte) (title, summary string) {
	doc := markdown.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if title == "" {
				title = inlineText(node, src)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if summary == "" {
				summary = inlineText(node, src)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if len([]rune(summary)) > maxSummaryLength {
		summary = string([]rune(summary)[:maxSummaryLength])
	}
	return title, summary
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(whitespace.ReplaceAllString(buf.String(), " "))
}

func applyPostText(item *content.Item, post *PostText) {
	if body := post.Facebook(); body != "" {
		item.Summary = body
	}
	if tags := post.Hashtags(); len(tags) > 0 {
		item.Hashtags = tags
	}
	if post.Link != "" {
		item.Link = post.Link
	}
}
