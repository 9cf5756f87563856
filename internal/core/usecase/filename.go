package usecase

import (
	"path"
	"strings"
)

const fallbackFilename = "upload"

// SanitizeFilename reduces a client-supplied name to a safe single path element
// made of ASCII letters, digits, '.', '-' and '_'.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Join(strings.Fields(base), "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	base = strings.Trim(base, "._")
	if base == "" {
		return fallbackFilename
	}
	return base
}
