package schedule

import (
	"cadence/internal/config"
	"cadence/internal/content"
)

// mixTracker steers slot picks toward the configured template share, either
// within each day or across the whole run.
type mixTracker struct {
	share     float64
	perDay    bool
	templates int
	notebooks int
}

func newMixTracker(policy string, share float64) *mixTracker {
	return &mixTracker{share: share, perDay: policy != config.MixPolicyHorizon}
}

func (m *mixTracker) startDay() {
	if m.perDay {
		m.templates, m.notebooks = 0, 0
	}
}

// desired returns the type whose share lags furthest behind its target after
// one more pick. Ties go to templates.
func (m *mixTracker) desired() content.Type {
	next := float64(m.templates + m.notebooks + 1)
	templateDeficit := m.share*next - float64(m.templates)
	notebookDeficit := (1-m.share)*next - float64(m.notebooks)
	if templateDeficit >= notebookDeficit {
		return content.TypeTemplate
	}
	return content.TypeNotebook
}

func (m *mixTracker) record(t content.Type) {
	switch t {
	case content.TypeTemplate:
		m.templates++
	case content.TypeNotebook:
		m.notebooks++
	}
}
