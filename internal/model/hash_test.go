package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteHash_Stable(t *testing.T) {
	n := Note{ID: 42, NotebookID: 7, Title: "Plan", Content: "<p>body</p>", Categories: []int64{3, 2}}

	h1 := NoteHash(n)
	h2 := NoteHash(n)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestNoteHash_IgnoresCategoryOrderAndDuplicates(t *testing.T) {
	a := Note{NotebookID: 7, Title: "x", Categories: []int64{2, 3}}
	b := Note{NotebookID: 7, Title: "x", Categories: []int64{3, 2, 3}}

	assert.Equal(t, NoteHash(a), NoteHash(b))
}

func TestNoteHash_IgnoresIdentityTimestampsAndText(t *testing.T) {
	a := Note{ID: 1, NotebookID: 7, Title: "x"}
	b := Note{ID: 2, NotebookID: 7, Title: "x", Text: "x plain"}
	b.HashTriple = HashTriple{LastSentHash: "abc"}

	assert.Equal(t, NoteHash(a), NoteHash(b))
}

func TestNoteHash_ContentChangesHash(t *testing.T) {
	base := Note{NotebookID: 7, Title: "x", Content: "one"}

	assert.NotEqual(t, NoteHash(base), NoteHash(Note{NotebookID: 7, Title: "x", Content: "two"}))
	assert.NotEqual(t, NoteHash(base), NoteHash(Note{NotebookID: 8, Title: "x", Content: "one"}))
	assert.NotEqual(t, NoteHash(base), NoteHash(base.Tombstone()))
}

func TestNoteHash_NFCNormalized(t *testing.T) {
	composed := Note{Title: "caf\u00e9"}
	decomposed := Note{Title: "cafe\u0301"}

	assert.Equal(t, NoteHash(composed), NoteHash(decomposed))
}

func TestHash_DomainSeparation(t *testing.T) {
	// Same field values, different entity kinds.
	g := ClipartGroup{Name: "x"}
	nb := Notebook{Name: "x"}

	assert.NotEqual(t, ClipartGroupHash(g), NotebookHash(nb))
}

func TestClipartHash_Data(t *testing.T) {
	a := Clipart{GroupID: 1, Name: "star", Data: []byte{1, 2, 3}}
	b := Clipart{GroupID: 1, Name: "star", Data: []byte{1, 2, 4}}

	assert.NotEqual(t, ClipartHash(a), ClipartHash(b))
	assert.Equal(t, ClipartHash(Clipart{Name: "n"}), ClipartHash(Clipart{Name: "n", Data: []byte{}}))
}

func TestMarshalCanonical(t *testing.T) {
	data, err := marshalCanonical(map[string]any{
		"b":    int64(2),
		"a":    "<tag>",
		"list": []int64{3, 1},
		"ok":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<tag>","b":2,"list":[3,1],"ok":true}`, string(data))

	_, err = marshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)

	_, err = marshalCanonical(nil)
	assert.Error(t, err)
}
