package preflight

import (
	"strings"

	"cadence/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Warning marks a failed check that should be reported but not block.
	Warning bool
	Detail  string
}

// Blocking reports whether the result should stop the operation it guards.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Warning
}

// RunAll checks the directories configured in cfg. Scanner directories are
// optional, so problems with them are warnings.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, dir := range []struct{ name, path string }{
		{"Templates directory", cfg.Paths.TemplatesDir},
		{"Notebooks directory", cfg.Paths.NotebooksDir},
		{"Posts directory", cfg.Paths.PostsDir},
	} {
		if strings.TrimSpace(dir.path) == "" {
			continue
		}
		result := CheckDirectoryReadable(dir.name, dir.path)
		result.Warning = !result.Passed
		results = append(results, result)
	}
	return results
}

// Failures returns the details of blocking results and of warnings.
func Failures(results []Result) (blocking, warnings []string) {
	for _, r := range results {
		switch {
		case r.Passed:
		case r.Warning:
			warnings = append(warnings, r.Name+": "+r.Detail)
		default:
			blocking = append(blocking, r.Name+": "+r.Detail)
		}
	}
	return blocking, warnings
}
