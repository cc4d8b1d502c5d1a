package textutil

import (
	"strings"
	"unicode"
)

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters (including CJK) and digits are kept, hyphens and underscores pass
// through, everything else becomes an underscore. Returns "unknown" for empty
// input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
