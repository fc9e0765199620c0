// Package emoji validates the emoji values stored in the sound catalog.
// A stored emoji is either a Discord custom-emoji ID (a snowflake, all
// digits) or a literal unicode emoji.
package emoji

import (
	"regexp"
	"unicode"
)

var customIDPattern = regexp.MustCompile(`^\d{17,21}$`)

// IsCustomID reports whether s looks like a Discord custom-emoji ID.
func IsCustomID(s string) bool {
	return customIDPattern.MatchString(s)
}

// Valid reports whether s is usable as a button emoji: empty (no emoji),
// a custom-emoji ID, or a unicode emoji sequence.
func Valid(s string) bool {
	if s == "" {
		return true
	}
	if IsCustomID(s) {
		return true
	}
	return isUnicodeEmoji(s)
}

// isUnicodeEmoji accepts short sequences made of symbol runes, joiners,
// and variation selectors. It deliberately errs on the permissive side;
// Discord rejects anything it cannot render.
func isUnicodeEmoji(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || len(runes) > 16 {
		return false
	}
	for _, r := range runes {
		switch {
		case unicode.IsSymbol(r):
		case unicode.In(r, unicode.Mn, unicode.Me): // combining marks
		case r == 0x200D: // zero-width joiner
		case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		case r >= 0x1F300 && r <= 0x1FAFF: // misc pictographs
		case r >= 0x2600 && r <= 0x27BF: // dingbats and symbols
		case r == 0x20E3: // keycap
		case r >= '0' && r <= '9', r == '#', r == '*': // keycap bases
		default:
			return false
		}
	}
	return true
}
