package querylang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "prefix operators", input: "a +b -c", want: []string{"a", "AND", "b", "NOT", "c"}},
		{name: "quoted phrase keeps specials", input: `"foo (bar) +baz" qux`, want: []string{"foo (bar) +baz", "qux"}},
		{name: "qualifier", input: "category:Work", want: []string{"category:", "Work"}},
		{name: "qualifier with space", input: "title: report", want: []string{"title:", "report"}},
		{name: "parentheses", input: "(a OR b)", want: []string{"(", "a", "OR", "b", ")"}},
		{name: "unterminated quote", input: `x "open ended`, want: []string{"x", "open ended"}},
		{name: "collapses whitespace", input: "  a \t b\n", want: []string{"a", "b"}},
		{name: "hyphenated word", input: "e-mail", want: []string{"e", "NOT", "mail"}},
		{name: "empty", input: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestTokenize_RejoinNormalizesWhitespace(t *testing.T) {
	inputs := []string{
		"hello world",
		"  spaced   out\tterms ",
		"one",
		"a\nb\r\nc",
	}

	for _, in := range inputs {
		got := strings.Join(Tokenize(in), " ")
		assert.Equal(t, strings.Join(strings.Fields(in), " "), got, "input %q", in)
	}
}
