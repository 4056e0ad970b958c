package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize collapses internal whitespace runs to single spaces and
// trims the ends.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// StripControl removes non-printable runes that occasionally arrive from
// chat-channel callers.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeFreeText is the pipeline applied to user-entered text fields.
func NormalizeFreeText(s string) string {
	return Pipeline{StripControl, TrimAndNormalize}.Apply(s)
}

// NormalizePreference lowercases a preference token ("Morning" -> "morning").
func NormalizePreference(s string) string {
	return strings.ToLower(TrimAndNormalize(s))
}

// Truncate caps a string at max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
