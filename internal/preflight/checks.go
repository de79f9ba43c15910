package preflight

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/sys/unix"

	"cadence/internal/queue"
)

const (
	// MaxTextLength is the longest post body a page accepts.
	MaxTextLength = 63206
	// MinTextLength is the length below which a post body draws a warning.
	MinTextLength = 10
)

// CheckPosting runs the pre-publish checks on a rendered posting.
func CheckPosting(p queue.Posting) []Result {
	return []Result{
		checkText(p.Text),
		checkTextLength(p.Text),
		checkLaTeX(p.Text),
		checkLink(p.Link),
	}
}

func checkText(text string) Result {
	const name = "Post text"
	if strings.TrimSpace(text) == "" {
		return Result{Name: name, Detail: "text is empty"}
	}
	return Result{Name: name, Passed: true, Detail: "present"}
}

func checkTextLength(text string) Result {
	const name = "Text length"
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n > MaxTextLength:
		return Result{Name: name, Detail: fmt.Sprintf("%d chars (max %d)", n, MaxTextLength)}
	case n < MinTextLength:
		return Result{Name: name, Warning: true, Detail: fmt.Sprintf("only %d chars", n)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d chars", n)}
}

func checkLaTeX(text string) Result {
	const name = "Markup"
	if strings.Contains(text, `\`) && (strings.Contains(text, "frac") || strings.Contains(text, "sum")) {
		return Result{Name: name, Warning: true, Detail: "text contains LaTeX commands that will not render"}
	}
	return Result{Name: name, Passed: true, Detail: "plain text"}
}

func checkLink(link string) Result {
	const name = "Link"
	link = strings.TrimSpace(link)
	if link == "" {
		return Result{Name: name, Detail: "no link"}
	}
	u, err := url.Parse(link)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid url: %v", err)}
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s is not an absolute http(s) url", link)}
	}
	return Result{Name: name, Passed: true, Detail: u.Host}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckDirectoryReadable verifies that the directory exists and can be listed.
func CheckDirectoryReadable(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}
