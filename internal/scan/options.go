package scan

import (
	"log/slog"
	"strings"
)

// Options configures a scanner.
type Options struct {
	// BaseURL prefixes generated item links.
	BaseURL string
	Logger  *slog.Logger
}

func (o Options) link(parts ...string) string {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		return ""
	}
	return base + "/" + strings.Join(parts, "/")
}
