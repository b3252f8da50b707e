package querylang

import (
	"strings"
	"unicode"
)

// Query is a raw search split into its two normalized projections.
type Query struct {
	// Phrase holds the tokens handed to the full-text engine.
	Phrase []string

	// Categories holds the tokens of the category filter.
	Categories []string

	// PrefixLast is true when the raw text ends inside the argument of a
	// category qualifier, i.e. the user may still be typing that name.
	PrefixLast bool
}

// Parse tokenizes raw and returns both normalized projections.
func Parse(raw string) Query {
	tokens := Tokenize(raw)
	n := len(tokens)
	return Query{
		Phrase:     Normalize(Phrase(tokens)),
		Categories: Normalize(Categories(tokens)),
		PrefixLast: endsInWord(raw) && n >= 2 &&
			IsCategoryQualifier(tokens[n-2]) && isArgument(tokens[n-1]),
	}
}

// Phrase projects tokens onto the full-text sub-query: category qualifiers
// and their argument are removed and except becomes AND NOT.
func Phrase(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := Canonical(tokens[i])
		switch {
		case IsCategoryQualifier(tok):
			if i+1 < len(tokens) && isArgument(tokens[i+1]) {
				i++
			}
		case tok == OpExcept:
			out = append(out, OpAnd, OpNot)
		default:
			out = append(out, tok)
		}
	}
	return out
}

// Categories projects tokens onto the category sub-query. Only grouping,
// boolean operators and category qualifier pairs survive; plain terms and
// other qualifiers (with their argument) are dropped.
func Categories(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := Canonical(tokens[i])
		hasArg := i+1 < len(tokens) && isArgument(tokens[i+1])
		switch {
		case IsStructural(tok):
			out = append(out, tok)
		case tok == OpExcept:
			out = append(out, OpAnd, OpNot)
		case IsCategoryQualifier(tok):
			out = append(out, tok)
			if hasArg {
				out = append(out, tokens[i+1])
				i++
			}
		case IsQualifier(tok):
			if hasArg {
				i++
			}
		}
	}
	return out
}

func endsInWord(raw string) bool {
	trimmed := strings.TrimRightFunc(raw, unicode.IsSpace)
	if trimmed == "" || len(trimmed) != len(raw) {
		return false
	}
	return !strings.HasSuffix(raw, `"`)
}
