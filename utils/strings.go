// Package utils provides utility functions for the application.
package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeLabel lowercases a user-supplied label and maps every character
// outside [a-z0-9] to an underscore, producing a filesystem-safe path segment.
func SanitizeLabel(label string) string {
	lowered := strings.ToLower(label)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// StripDiacritics removes combining marks, so "Açaí" becomes "Acai".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Canonical view counter keys.
const (
	CounterHome         = "HOME"
	CounterEspacoMEI    = "ESPACO_MEI"
	CounterRedirect     = "REDIRECIONAMENTO"
	CounterProfileShare = "PROFILE_SHARE"

	CounterCategoryPrefix = "CAT_"
	CounterCoursePrefix   = "CURSO_"
)

// Counter identifiers that pass through normalization untouched.
var literalCounterIdentifiers = map[string]bool{
	CounterHome:         true,
	CounterEspacoMEI:    true,
	CounterRedirect:     true,
	CounterProfileShare: true,
}

// NormalizeCounterIdentifier maps a raw hit identifier to its canonical
// counter key. Known literals and CAT_/CURSO_ prefixed keys pass through;
// anything else is treated as a free-form category label and rewritten to
// CAT_<LABEL> with diacritics stripped and every non [A-Z0-9] character
// replaced by an underscore.
func NormalizeCounterIdentifier(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if literalCounterIdentifiers[key] ||
		strings.HasPrefix(key, CounterCategoryPrefix) ||
		strings.HasPrefix(key, CounterCoursePrefix) {
		return key
	}

	stripped := StripDiacritics(key)
	var b strings.Builder
	b.Grow(len(stripped) + 4)
	b.WriteString(CounterCategoryPrefix)
	for _, r := range stripped {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
