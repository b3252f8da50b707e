package querylang

import (
	"strings"
	"unicode"
)

// Tokenize splits a raw query into tokens in a single left-to-right pass.
//
// Text inside double quotes is copied verbatim without the quotes. A '+'
// becomes the token AND and a '-' becomes NOT. Parentheses are tokens of
// their own. A ':' is kept on the end of the word it closes, so
// "category:Work" yields "category:" and "Work". Whitespace separates
// tokens. Empty tokens are dropped.
func Tokenize(raw string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)

	flush := func() {
		tokens = append(tokens, current.String())
		current.Reset()
	}

	for _, r := range raw {
		if quoted {
			if r == '"' {
				quoted = false
				continue
			}
			current.WriteRune(r)
			continue
		}

		switch {
		case r == '"':
			quoted = true
		case r == '+':
			flush()
			tokens = append(tokens, OpAnd)
		case r == '-':
			flush()
			tokens = append(tokens, OpNot)
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case r == ':':
			current.WriteRune(r)
			flush()
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	out := tokens[:0]
	for _, tok := range tokens {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
