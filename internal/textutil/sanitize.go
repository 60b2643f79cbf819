package textutil

import (
	"strings"
	"unicode"
)

// maxNameRunes caps sanitized names so a log file name stays well below
// common filesystem limits once the timestamp suffix is added.
const maxNameRunes = 120

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a run name usable as part of a file name. Path
// separators, colons and asterisks become dashes, other reserved characters
// and control characters are dropped, and whitespace runs collapse to one
// space.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, name)
	return truncateRunes(strings.Join(strings.Fields(name), " "), maxNameRunes)
}

// SanitizeToken lowercases value and keeps letters, digits, '-' and '_'.
// Everything else becomes a single underscore. Returns "unknown" when
// nothing usable remains.
func SanitizeToken(value string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		}
	}
	out := truncateRunes(strings.Trim(b.String(), "_-"), maxNameRunes)
	if out == "" {
		return "unknown"
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
