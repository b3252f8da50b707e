package querysql

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderBuilt(t *testing.T, b Built) []byte {
	t.Helper()
	count := MustRender(b.Count, Inline)
	page := MustRender(b.Page, Inline)
	return []byte(count + "\n" + page + "\n")
}

func TestBuild_Golden(t *testing.T) {
	tests := []struct {
		name   string
		search Search
	}{
		{
			name:   "search_fulltext",
			search: Search{Query: "hello", NotebookID: 7, Limit: 20},
		},
		{
			name: "search_categories",
			search: Search{
				Query:     "category:Work -tag:old",
				Sort:      SortTitle,
				Ascending: true,
				Limit:     10,
				Offset:    30,
				Range:     Range{CreatedAfter: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built, err := Build(tt.search)
			require.NoError(t, err)
			g.Assert(t, tt.name, renderBuilt(t, built))
		})
	}
}

func TestBuild_ReturnTextWithoutFilter(t *testing.T) {
	built, err := Build(Search{ReturnText: true})
	require.NoError(t, err)

	assert.True(t, built.WithText)
	assert.Equal(t,
		"SELECT COUNT(*) FROM Notes, FullTextSearch WHERE (Notes.is_deleted=0) AND (FullTextSearch.docid=Notes.id)",
		MustRender(built.Count, Inline))
}

func TestBuild_NoTextWithoutFullText(t *testing.T) {
	built, err := Build(Search{Query: "category:Work"})
	require.NoError(t, err)

	assert.False(t, built.WithText)
	assert.Equal(t, []string{TableNotes}, built.Page.From)
	assert.Len(t, built.Page.Columns, 6)
}

func TestBuild_BoundArgs(t *testing.T) {
	built, err := Build(Search{Query: "category:Work hello", NotebookID: 3, Limit: 5})
	require.NoError(t, err)

	sql, args, err := Render(built.Page, Bound)
	require.NoError(t, err)

	assert.Contains(t, sql, "FullTextSearch MATCH 'hello*'")
	assert.Contains(t, sql, "name=?")
	assert.NotContains(t, sql, "Work")
	assert.Equal(t, []any{int64(3), false, "Work", 5, 0}, args)
}

func TestBuild_InvalidCategoryID(t *testing.T) {
	_, err := Build(Search{Query: "categoryid:x"})
	assert.Error(t, err)
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortTitle, ParseSortKey("title"))
	assert.Equal(t, SortCreatedAt, ParseSortKey("CreatedAt"))
	assert.Equal(t, SortViewedAt, ParseSortKey("bogus"))
	assert.Equal(t, "Notes.viewed_at", SortKey("").Column().String())
}
