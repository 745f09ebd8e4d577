package css

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hyphenate converts camel case property name to its CSS spelling:
// "fontSize" -> "font-size", "WebkitTransition" -> "-webkit-transition",
// "msFlex" -> "-ms-flex". Custom properties ("--x") and already hyphenated
// names are returned unchanged.
func Hyphenate(name string) string {
	if strings.HasPrefix(name, "--") || !strings.ContainsFunc(name, unicode.IsUpper) {
		return name
	}

	var sb strings.Builder
	sb.Grow(len(name) + 4)
	if strings.HasPrefix(name, "ms") {
		sb.WriteByte('-')
	}
	for _, r := range name {
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
		}
		sb.WriteRune(r)
	}
	// Caser keeps state and must not be shared
	return cases.Lower(language.Und).String(sb.String())
}

// IsCustomProperty reports whether name is a custom property ("--gap").
func IsCustomProperty(name string) bool {
	return strings.HasPrefix(name, "--")
}
