package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Platforms recognized as section headers in post text files.
var Platforms = []string{"twitter", "bluesky", "threads", "mastodon", "reddit", "facebook", "linkedin", "instagram"}

var (
	separatorLine   = regexp.MustCompile(`^\s*[-=]{70,}\s*$`)
	headerLine      = regexp.MustCompile(`(?i)^\s*(#{3}\s*)?(?:\d+\.\s*)?(twitter/x|twitter|bluesky|threads|mastodon|reddit|facebook|linkedin|instagram)\b`)
	generatedFrom   = regexp.MustCompile(`(?i)Generated from:\s*(\S+)\.ipynb`)
	cocalcURL       = regexp.MustCompile(`https://cocalc\.com/github/[^\s\)]+`)
	hashtagPattern  = regexp.MustCompile(`#([A-Za-z][A-Za-z0-9_]*)`)
	hashtagOnlyLine = regexp.MustCompile(`^\s*(#[A-Za-z][A-Za-z0-9_]*\s*)+$`)
)

// PostText is a parsed <notebook>_posts.txt file holding per-platform drafts.
type PostText struct {
	Notebook string
	Link     string
	sections map[string]string
}

// Section returns the body written for platform.
func (p *PostText) Section(platform string) (string, bool) {
	if p == nil {
		return "", false
	}
	body, ok := p.sections[strings.ToLower(platform)]
	return body, ok && body != ""
}

// Facebook returns the facebook body with hashtag-only lines removed.
func (p *PostText) Facebook() string {
	body, ok := p.Section("facebook")
	if !ok {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		if hashtagOnlyLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Hashtags returns the distinct hashtags of the facebook section in order.
func (p *PostText) Hashtags() []string {
	body, ok := p.Section("facebook")
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var tags []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(body, -1) {
		key := strings.ToLower(m[1])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}

// LoadPostText reads and parses a post text file.
func LoadPostText(path string) (*PostText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read post text: %w", err)
	}
	return ParsePostText(data, filepath.Base(path)), nil
}

// ParsePostText splits a post text document into platform sections. Headers
// are "### Platform" lines or platform lines framed by separator rules. The
// notebook name comes from a "Generated from:" line, else from fileName.
func ParsePostText(data []byte, fileName string) *PostText {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	out := &PostText{sections: make(map[string]string)}

	if m := generatedFrom.FindStringSubmatch(text); m != nil {
		out.Notebook = filepath.Base(m[1])
	} else {
		stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		out.Notebook = strings.TrimSuffix(stem, "_posts")
	}
	out.Link = cocalcURL.FindString(text)

	lines := strings.Split(text, "\n")
	current := ""
	var body []string
	flush := func() {
		if current == "" {
			return
		}
		if _, exists := out.sections[current]; !exists {
			out.sections[current] = trimSection(body)
		}
	}
	for i, line := range lines {
		if platform, ok := sectionHeader(lines, i); ok {
			flush()
			current = platform
			body = body[:0]
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()
	return out
}

func sectionHeader(lines []string, i int) (string, bool) {
	m := headerLine.FindStringSubmatch(lines[i])
	if m == nil {
		return "", false
	}
	framed := m[1] != ""
	for j := i - 1; j >= 0 && !framed; j-- {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		framed = separatorLine.MatchString(lines[j])
		break
	}
	if !framed {
		return "", false
	}
	platform := strings.ToLower(m[2])
	if platform == "twitter/x" {
		platform = "twitter"
	}
	return platform, true
}

func trimSection(lines []string) string {
	start, end := 0, len(lines)
	for start < end && (strings.TrimSpace(lines[start]) == "" || separatorLine.MatchString(lines[start])) {
		start++
	}
	for end > start && (strings.TrimSpace(lines[end-1]) == "" || separatorLine.MatchString(lines[end-1])) {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
