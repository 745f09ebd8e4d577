package config

import (
	"strings"
)

const badFileName = "_bad_file_name_"

// CleanFileName removes characters not allowed in a single path element on
// this platform. Leading dots are dropped so result is never hidden or
// relative.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym == 0 || strings.ContainsRune(forbiddenFileChars, sym) {
			return -1
		}
		return sym
	}, strings.TrimSpace(in))
	if out = strings.TrimLeft(out, "."); len(out) == 0 {
		return badFileName
	}
	return out
}
