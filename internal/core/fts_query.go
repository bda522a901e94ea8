// ABOUTME: Turns raw user input into a safe FTS5 MATCH expression
// ABOUTME: Every token becomes a quoted prefix term so no input is malformed
package core

import (
	"strings"
	"unicode"
)

// BuildMatchQuery splits query on anything that is not a letter or digit and
// joins the resulting tokens as quoted prefix terms ("tok"*), which FTS5 ANDs
// together. It returns "" when nothing searchable remains; callers treat that
// as an empty result without touching the index.
func BuildMatchQuery(query string) string {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return ""
	}

	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = `"` + t + `"*`
	}
	return strings.Join(terms, " ")
}
