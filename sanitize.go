package main

import (
	"strings"
	"unicode"
)

// sanitizeName strips anything that could smuggle control or escape sequences
// into terminal output. Proxy names come from a remote controller and are not
// trusted. Letters, numbers and marks pass through (names are often CJK), plus
// a small punctuation set; the result is trimmed.
func sanitizeName(name string) string {
	const safePunct = " .-_()/[]:"
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(safePunct, r) {
			b.WriteRune(r)
			continue
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
