package store

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText extracts the indexable text of rich note content. Block-level
// elements and line breaks separate words; script and style bodies are
// dropped. Runs of whitespace collapse to one space.
func PlainText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var sb strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or malformed input: keep what was read so far.
			return collapseSpace(sb.String())
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, _ := z.TagName()
			switch a := atom.Lookup(tag); {
			case a == atom.Script || a == atom.Style:
				skip++
			case breaksText(a):
				sb.WriteByte(' ')
			}
		case html.EndTagToken:
			tag, _ := z.TagName()
			switch a := atom.Lookup(tag); {
			case a == atom.Script || a == atom.Style:
				if skip > 0 {
					skip--
				}
			case breaksText(a):
				sb.WriteByte(' ')
			}
		}
	}
}

func breaksText(a atom.Atom) bool {
	switch a {
	case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr, atom.Td, atom.Th,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Hr:
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
