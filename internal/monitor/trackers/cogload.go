package trackers

import "strings"

// Attentional-demand labels for the focused application.
const (
	LoadHigh    = "high"
	LoadMedium  = "medium"
	LoadPassive = "passive"
	LoadNeutral = "neutral"
)

// LoadRule maps a window-title substring to a load label. Rules are
// evaluated in order; the first case-insensitive match wins.
type LoadRule struct {
	Pattern string `json:"pattern"`
	Label   string `json:"label"`
}

// Built-in classification, checked high → medium → passive so that a
// title matching several lists takes the most demanding label.
var builtinLoadRules = []LoadRule{
	{"visual studio code", LoadHigh},
	{"vscode", LoadHigh},
	{"intellij", LoadHigh},
	{"pycharm", LoadHigh},
	{"goland", LoadHigh},
	{"vim", LoadHigh},
	{"emacs", LoadHigh},
	{"terminal", LoadHigh},
	{"iterm", LoadHigh},
	{"jupyter", LoadHigh},
	{"figma", LoadHigh},
	{"blender", LoadHigh},
	{"xcode", LoadHigh},

	{"docs", LoadMedium},
	{"notion", LoadMedium},
	{"obsidian", LoadMedium},
	{"slack", LoadMedium},
	{"mail", LoadMedium},
	{"gmail", LoadMedium},
	{"outlook", LoadMedium},
	{"sheets", LoadMedium},
	{"excel", LoadMedium},
	{"word", LoadMedium},
	{"jira", LoadMedium},
	{"linear", LoadMedium},
	{"calendar", LoadMedium},

	{"youtube", LoadPassive},
	{"netflix", LoadPassive},
	{"twitch", LoadPassive},
	{"spotify", LoadPassive},
	{"reddit", LoadPassive},
	{"twitter", LoadPassive},
	{"instagram", LoadPassive},
	{"tiktok", LoadPassive},
	{"facebook", LoadPassive},
	{"hulu", LoadPassive},
	{"prime video", LoadPassive},
}

var loadIndex = map[string]float64{
	LoadHigh:    0.9,
	LoadMedium:  0.6,
	LoadPassive: 0.3,
	LoadNeutral: 0.5,
}

// ValidLoadLabel reports whether label names a known load class.
func ValidLoadLabel(label string) bool {
	_, ok := loadIndex[label]
	return ok
}

// ClassifyWindow maps a focused-window title to a load label and index.
// User overrides are prepended to the built-in rules and win on first
// match; an unmatched or empty title is neutral.
func ClassifyWindow(title string, overrides []LoadRule) (string, float64) {
	lower := strings.ToLower(title)
	if lower != "" {
		for _, r := range overrides {
			if r.Pattern != "" && strings.Contains(lower, strings.ToLower(r.Pattern)) {
				return r.Label, loadIndex[r.Label]
			}
		}
		for _, r := range builtinLoadRules {
			if strings.Contains(lower, r.Pattern) {
				return r.Label, loadIndex[r.Label]
			}
		}
	}
	return LoadNeutral, loadIndex[LoadNeutral]
}
