package querysql

import (
	"fmt"
	"strings"

	"github.com/achapweske/silvernote/internal/queryir"
	"github.com/achapweske/silvernote/internal/querylang"
)

// SortKey names the column search results are ordered by.
type SortKey string

const (
	SortViewedAt   SortKey = "ViewedAt"
	SortCreatedAt  SortKey = "CreatedAt"
	SortModifiedAt SortKey = "ModifiedAt"
	SortTitle      SortKey = "Title"
)

var sortColumns = map[SortKey]string{
	SortViewedAt:   "viewed_at",
	SortCreatedAt:  "created_at",
	SortModifiedAt: "modified_at",
	SortTitle:      "title",
}

// ParseSortKey maps a name to a SortKey, case-insensitively. Unknown names
// fall back to SortViewedAt.
func ParseSortKey(name string) SortKey {
	for key := range sortColumns {
		if strings.EqualFold(string(key), name) {
			return key
		}
	}
	return SortViewedAt
}

// Column returns the Notes column for the key.
func (k SortKey) Column() queryir.Column {
	name, ok := sortColumns[k]
	if !ok {
		name = sortColumns[SortViewedAt]
	}
	return queryir.Col(TableNotes, name)
}

// Search describes one search request.
type Search struct {
	// Query is the raw text typed by the user.
	Query string

	// NotebookID restricts results to one notebook; 0 searches all.
	NotebookID int64

	Range Range

	Sort      SortKey
	Ascending bool

	Limit  int
	Offset int

	// ReturnText selects the indexed plain text even without a full-text
	// filter.
	ReturnText bool
}

// Built holds the two statements produced for one search.
type Built struct {
	// Count counts every matching note.
	Count queryir.Select

	// Page selects one page of matching notes.
	Page queryir.Select

	// WithText reports whether Page selects FullTextSearch.text as its
	// last column.
	WithText bool
}

// Build compiles s into a COUNT statement and a paginated SELECT.
//
// The WHERE clause is the AND of the scope (not deleted, notebook), phrase,
// category, range and join conditions, each parenthesized; empty ones are
// left out.
func Build(s Search) (Built, error) {
	q := querylang.Parse(s.Query)

	phrase := PhraseSQL(q.Phrase)
	category, err := CategorySQL(q.Categories, q.PrefixLast)
	if err != nil {
		return Built{}, fmt.Errorf("build search: %w", err)
	}
	ranges := RangeSQL(s.Range)

	tables := NewTableSet(TableNotes)
	for _, f := range []Fragment{phrase, category, ranges} {
		tables.Union(f.Tables)
	}
	withText := s.ReturnText || tables.Has(TableFullText)
	if withText {
		tables.Add(TableFullText)
	}

	var where []queryir.Expr
	where = append(where, group(scope(s.NotebookID)))
	for _, f := range []Fragment{phrase, category, ranges} {
		if !f.Empty() {
			where = append(where, group(f.Where))
		}
	}
	if join := JoinSQL(tables); join != nil {
		where = append(where, group(join))
	}

	from := tables.Sorted()
	cond := queryir.And{Terms: where}

	columns := []queryir.Expr{
		queryir.Col(TableNotes, "id"),
		queryir.Col(TableNotes, "notebook_id"),
		queryir.Col(TableNotes, "title"),
		queryir.Col(TableNotes, "created_at"),
		queryir.Col(TableNotes, "modified_at"),
		queryir.Col(TableNotes, "viewed_at"),
	}
	if withText {
		columns = append(columns, queryir.Col(TableFullText, "text"))
	}

	desc := !s.Ascending
	return Built{
		Count: queryir.Select{
			Columns: []queryir.Expr{queryir.Raw("COUNT(*)")},
			From:    from,
			Where:   cond,
		},
		Page: queryir.Select{
			Columns: columns,
			From:    from,
			Where:   cond,
			OrderBy: []queryir.OrderTerm{
				{Column: s.Sort.Column(), Desc: desc},
				{Column: queryir.Col(TableNotes, "id"), Desc: desc},
			},
			Limit:  s.Limit,
			Offset: s.Offset,
		},
		WithText: withText,
	}, nil
}

func scope(notebookID int64) queryir.Expr {
	live := queryir.Eq(queryir.Col(TableNotes, "is_deleted"), false)
	if notebookID == 0 {
		return live
	}
	return queryir.And{Terms: []queryir.Expr{
		queryir.Eq(queryir.Col(TableNotes, "notebook_id"), notebookID),
		live,
	}}
}

func group(e queryir.Expr) queryir.Expr {
	return queryir.Group{Items: []queryir.Expr{e}}
}
