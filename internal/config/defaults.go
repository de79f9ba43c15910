package config

import "time"

const (
	defaultDataDir          = "~/.local/share/cadence"
	defaultCatalogFile      = "~/.config/cadence/catalog.yaml"
	defaultQueueFileName    = "unified_queue.json"
	defaultHistoryFileName  = "posting_history.db"
	defaultLockFileName     = "cadence.lock"
	defaultLogDirName       = "logs"
	defaultTimezone         = "Local"
	defaultHorizonDays      = 7
	defaultMinGapDays       = 2
	defaultLookbackDays     = 60
	defaultTemplateShare    = 0.5
	defaultDueWindowMinutes = 60
	defaultMaxHashtags      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	defaultTemplateBaseURL = "https://cocalc.com/github/cocalc-templates/templates/blob/main"
	defaultNotebookBaseURL = "https://cocalc.com/github/cocalc-templates/notebooks/blob/main/published"

	MixPolicyPerDay  = "per_day"
	MixPolicyHorizon = "horizon"

	PhraseSelectionRotate = "rotate"
	PhraseSelectionRandom = "random"

	mixedTheme = "mixed"
)

var weekdayKeys = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

func weekdayKey(day time.Weekday) string {
	return weekdayKeys[day]
}

// DefaultThemes returns the built-in weekday theme table.
func DefaultThemes() map[string][]string {
	return map[string][]string{
		"monday":    {"physics", "quantum", "engineering"},
		"tuesday":   {"mathematics", "algebra", "calculus"},
		"wednesday": {"machine-learning", "data-science", "ai"},
		"thursday":  {"biology", "chemistry", "bioinformatics"},
		"friday":    {"statistics", "numerical-analysis", "computation"},
		"saturday":  {"mixed", "popular"},
		"sunday":    {"introductory", "tutorials"},
	}
}

// DefaultDestinations returns the two pages shipped with cadence: a catch-all
// computational science page and a pure mathematics page.
func DefaultDestinations() []Destination {
	return []Destination{
		{
			ID:       "cocalc",
			Name:     "CoCalc",
			Platform: "facebook",
			Priority: 10,
			CatchAll: true,
			Slots:    []string{"09:00", "13:00"},
			TemplatePhrases: []string{
				"New computational template available!",
				"Reproducible research made easy.",
				"Professional LaTeX templates for scientists.",
				"Computational science templates on CoCalc.",
			},
			NotebookPhrases: []string{
				"Computational notebook showcase!",
				"Interactive research in the cloud.",
				"Explore this computational workflow.",
				"Reproducible science with CoCalc notebooks.",
			},
			AddHashtags: []string{"CoCalc", "ComputationalScience", "ReproducibleResearch"},
			MaxHashtags: defaultMaxHashtags,
		},
		{
			ID:       "sagemath",
			Name:     "SageMath",
			Platform: "facebook",
			Priority: 8,
			Keywords: []string{
				"sage", "sagetex", "sagemath", "symbolic", "algebra", "number theory",
				"combinatorics", "topology", "pure math", "abstract algebra",
				"group theory", "ring theory",
			},
			Categories: []string{
				"mathematics", "pure-mathematics", "algebra", "number-theory",
				"topology", "combinatorics", "graph-theory", "symbolic-computation",
			},
			Markup: true,
			Slots:  []string{"13:00", "19:00"},
			TemplatePhrases: []string{
				"Mathematical computation at its finest!",
				"Symbolic mathematics made easy with SageMath.",
				"Explore pure mathematics with computational power.",
				"Advanced mathematical templates for serious researchers.",
			},
			NotebookPhrases: []string{
				"Mathematical exploration with SageMath!",
				"Dive into computational mathematics.",
				"Symbolic computation in action.",
				"Mathematical insights powered by SageMath.",
			},
			AddHashtags:    []string{"SageMath", "SymbolicMath", "PureMath", "MathematicalComputing"},
			RemoveHashtags: []string{"Engineering", "Physics", "DataScience"},
			MaxHashtags:    defaultMaxHashtags,
		},
	}
}

// Default returns a Config populated with repository defaults. Themes and
// destinations are filled in during normalization when the file leaves them out.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			CatalogFile: defaultCatalogFile,
		},
		Links: Links{
			TemplateBaseURL: defaultTemplateBaseURL,
			NotebookBaseURL: defaultNotebookBaseURL,
		},
		Schedule: Schedule{
			Timezone:         defaultTimezone,
			HorizonDays:      defaultHorizonDays,
			MinGapDays:       defaultMinGapDays,
			LookbackDays:     defaultLookbackDays,
			TemplateShare:    defaultTemplateShare,
			MixPolicy:        MixPolicyPerDay,
			DueWindowMinutes: defaultDueWindowMinutes,
			PhraseSelection:  PhraseSelectionRotate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
