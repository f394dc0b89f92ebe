package api

import (
	"regexp"
	"strings"
	"unicode"
)

type (
	// RunID is a unique identifier for a single run of a plan
	RunID string

	// StepID is a unique identifier for a step within a plan
	StepID string
)

// InvalidIDChars matches characters not permitted in run and step IDs. Valid
// characters are: letters, digits, underscore, dot, hyphen, plus, space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}

// DisplayNameFor derives a human-readable name from a step identifier by
// splitting it on case boundaries. "ProbePowerRail" becomes "Probe Power
// Rail" and acronym runs stay intact: "ReadADCChannel" becomes "Read ADC
// Channel". Underscores and hyphens also act as word breaks
func DisplayNameFor(id StepID) string {
	runes := []rune(strings.NewReplacer("_", " ", "-", " ").Replace(
		string(id),
	))
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && breakBefore(runes, i) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// breakBefore reports whether a word boundary falls before position i. A
// boundary precedes an upper-case rune following a lower-case rune or digit,
// and precedes the final upper-case rune of an acronym run when a lower-case
// rune follows it
func breakBefore(runes []rune, i int) bool {
	if !unicode.IsUpper(runes[i]) {
		return false
	}
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(runes) &&
		unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}
