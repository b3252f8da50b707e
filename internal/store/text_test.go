package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", "hello world", "hello world"},
		{"paragraphs", "<p>one</p><p>two</p>", "one two"},
		{"inline markup", "<p>new <b>bold</b>er</p>", "new bolder"},
		{"line break", "a<br>b", "a b"},
		{"entities", "<p>fish &amp; chips</p>", "fish & chips"},
		{"script dropped", "<p>x</p><script>alert(1)</script><style>p{}</style><p>y</p>", "x y"},
		{"whitespace collapsed", "<div>\n  spaced\t out \n</div>", "spaced out"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.content))
		})
	}
}
