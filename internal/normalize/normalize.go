// Package normalize derives the canonical keys used for uniqueness checks
// (usernames, clan tags) and URL slugs.
package normalize

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Length limits applied to normalized values.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinTagLength      = 2
	MaxTagLength      = 6
	MinClanNameLength = 3
	MaxClanNameLength = 32
)

// foldAccents removes combining marks so "Zoë" and "Zoe" collide.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// UsernameKey lowercases s and keeps only [a-z0-9_].
func UsernameKey(s string) string {
	folded := cases.Lower(language.Und).String(foldAccents(strings.TrimSpace(s)))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, folded)
}

// TagKey uppercases s and keeps only [A-Z0-9].
func TagKey(s string) string {
	folded := cases.Upper(language.Und).String(foldAccents(strings.TrimSpace(s)))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, folded)
}

// Slug returns a URL-safe slug for a display name.
func Slug(name string) string {
	return slug.Make(name)
}

// ValidUsernameKey reports whether a normalized username has an allowed length.
func ValidUsernameKey(key string) bool {
	return len(key) >= MinUsernameLength && len(key) <= MaxUsernameLength
}

// ValidTagKey reports whether a normalized tag has an allowed length.
func ValidTagKey(key string) bool {
	return len(key) >= MinTagLength && len(key) <= MaxTagLength
}

// ValidClanName reports whether a trimmed clan name has an allowed length.
func ValidClanName(name string) bool {
	n := len([]rune(strings.TrimSpace(name)))
	return n >= MinClanNameLength && n <= MaxClanNameLength
}
