package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"cadence/internal/content"
	"cadence/internal/logging"
	"cadence/internal/textutil"
)

const maxSummaryLength = 500

var (
	titlePattern    = regexp.MustCompile(`\\title\{((?:[^{}]|\{[^{}]*\})+)\}`)
	abstractPattern = regexp.MustCompile(`(?s)\\begin\{abstract\}(.*?)\\end\{abstract\}`)
	packagePattern  = regexp.MustCompile(`\\usepackage(?:\[[^\]]*\])?\{([^}]+)\}`)
	latexCmdPattern = regexp.MustCompile(`\\[a-zA-Z]+\{([^}]*)\}`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Templates scans <dir>/<category>/*.tex. A missing directory yields no items.
// Unreadable files are logged and skipped.
func Templates(dir string, opts Options) ([]content.Item, error) {
	logger := logging.NewComponentLogger(opts.Logger, "scan")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("templates directory missing", logging.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	var items []content.Item
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category := entry.Name()
		categoryDir := filepath.Join(dir, category)
		files, err := filepath.Glob(filepath.Join(categoryDir, "*.tex"))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", categoryDir, err)
		}
		for _, file := range files {
			item, err := parseTemplate(file, category, opts)
			if err != nil {
				logging.WarnWithContext(logger, "template skipped", "scan_template",
					logging.String("file", file),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the file is readable"),
					logging.String(logging.FieldImpact, "template missing from catalog"),
				)
				continue
			}
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	logger.Info("templates scanned", logging.String("dir", dir), logging.Int("items", len(items)))
	return items, nil
}

func parseTemplate(path, category string, opts Options) (content.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return content.Item{}, err
	}
	src := string(data)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	title := textutil.TitleWords(stem)
	if m := titlePattern.FindStringSubmatch(src); m != nil {
		title = cleanLaTeX(m[1])
	}

	summary := ""
	if m := abstractPattern.FindStringSubmatch(src); m != nil {
		summary = cleanLaTeX(m[1])
	} else {
		summary = fmt.Sprintf("Computational analysis of %s in %s.",
			strings.ToLower(title), strings.ReplaceAll(category, "-", " "))
	}
	if len([]rune(summary)) > maxSummaryLength {
		summary = string([]rune(summary)[:maxSummaryLength])
	}

	var packages []string
	for _, m := range packagePattern.FindAllStringSubmatch(src, -1) {
		for _, pkg := range strings.Split(m[1], ",") {
			if pkg = strings.TrimSpace(pkg); pkg != "" {
				packages = append(packages, pkg)
			}
		}
	}
	sage := false
	for _, pkg := range packages {
		if strings.EqualFold(pkg, "sagetex") {
			sage = true
		}
	}

	hasMedia := fileExists(strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf")

	var hashtags []string
	for _, segment := range content.SplitCategory(category) {
		if tag := textutil.CamelHashtag(segment); tag != "" {
			hashtags = append(hashtags, tag)
		}
	}
	hashtags = append(hashtags, "LaTeX")

	return content.Item{
		ID:                   category + "/" + stem,
		Type:                 content.TypeTemplate,
		Category:             category,
		Keywords:             content.NormalizeKeywords(append(textutil.Tokenize(stem), packages...)),
		HasSpecializedMarkup: sage,
		HasMedia:             hasMedia,
		Title:                title,
		Summary:              summary,
		Link:                 opts.link(category, filepath.Base(path)),
		Hashtags:             hashtags,
	}, nil
}

func cleanLaTeX(value string) string {
	value = strings.ReplaceAll(value, `\\`, " ")
	value = latexCmdPattern.ReplaceAllString(value, "$1")
	return strings.TrimSpace(whitespace.ReplaceAllString(value, " "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
