// Package naming converts message identifiers into type and file names.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PascalCase splits s into words on non-alphanumeric characters and case
// boundaries, then joins them with every word capitalised. Letters outside
// ASCII are kept.
//
//	order_created  -> OrderCreated
//	already-Pascal -> AlreadyPascal
//	HTTPServer     -> HttpServer
//	über event     -> ÜberEvent
func PascalCase(s string) string {
	// Casers are stateful, one per call
	title := cases.Title(language.Und)

	var b strings.Builder
	for _, word := range Words(s) {
		b.WriteString(title.String(word))
	}
	return b.String()
}

// Words splits s rune by rune. Separators are any rune that is not a letter
// or digit; a new word also starts at a lower-to-upper change and before the
// last capital of an acronym followed by lower case (HTTPServer -> HTTP Server).
func Words(s string) []string {
	runes := []rune(s)

	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if unicode.IsUpper(r) && len(current) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()

	return words
}
