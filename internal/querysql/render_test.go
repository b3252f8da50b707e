package querysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achapweske/silvernote/internal/queryir"
)

func TestRender_BoundParameterizesValues(t *testing.T) {
	expr := queryir.And{Terms: []queryir.Expr{
		queryir.Eq(queryir.Col("Categories", "name"), "O'Brien"),
		queryir.Compare{Left: queryir.Col("Notes", "created_at"), Op: ">", Right: queryir.Lit(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))},
	}}

	sql, args, err := Render(expr, Bound)
	require.NoError(t, err)

	assert.Equal(t, "Categories.name=? AND Notes.created_at > ?", sql)
	assert.Equal(t, []any{"O'Brien", "2024-05-06 07:08:09"}, args)
	assert.NotContains(t, sql, "Brien")
}

func TestRender_InlineQuotesLiterals(t *testing.T) {
	expr := queryir.Eq(queryir.Col("", "name"), "O'Brien")

	sql, args, err := Render(expr, Inline)
	require.NoError(t, err)

	assert.Equal(t, "name='O''Brien'", sql)
	assert.Empty(t, args)
}

func TestRender_MatchIsAlwaysInline(t *testing.T) {
	expr := queryir.Match{Table: TableFullText, Query: "it's*"}

	sql, args, err := Render(expr, Bound)
	require.NoError(t, err)

	assert.Equal(t, "FullTextSearch MATCH 'it''s*'", sql)
	assert.Empty(t, args)
}

func TestRender_Select(t *testing.T) {
	sel := queryir.Select{
		Columns: []queryir.Expr{queryir.Col("Notes", "id"), queryir.Col("Notes", "title")},
		From:    []string{"Notes"},
		Where:   queryir.Eq(queryir.Col("Notes", "notebook_id"), int64(7)),
		OrderBy: []queryir.OrderTerm{{Column: queryir.Col("Notes", "title")}, {Column: queryir.Col("Notes", "id"), Desc: true}},
		Limit:   5,
		Offset:  10,
	}

	sql, args, err := Render(sel, Bound)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Notes.id, Notes.title FROM Notes WHERE Notes.notebook_id=? ORDER BY Notes.title ASC, Notes.id DESC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{int64(7), 5, 10}, args)

	assert.Equal(t,
		"SELECT Notes.id, Notes.title FROM Notes WHERE Notes.notebook_id=7 ORDER BY Notes.title ASC, Notes.id DESC LIMIT 5 OFFSET 10",
		MustRender(sel, Inline))
}

func TestRender_Structure(t *testing.T) {
	tests := []struct {
		name string
		expr queryir.Expr
		want string
	}{
		{name: "const true", expr: queryir.Const(true), want: "1=1"},
		{name: "const false", expr: queryir.Const(false), want: "1=0"},
		{name: "group", expr: queryir.Group{Items: []queryir.Expr{queryir.Const(true), queryir.KwOr, queryir.Const(false)}}, want: "(1=1 OR 1=0)"},
		{name: "like", expr: queryir.Like{Left: queryir.Col("", "name"), Pattern: "Wo%"}, want: "name LIKE 'Wo%'"},
		{name: "column equality", expr: queryir.EqCol(queryir.Col("A", "x"), queryir.Col("B", "y")), want: "A.x=B.y"},
		{name: "bool literal", expr: queryir.Eq(queryir.Col("Notes", "is_deleted"), false), want: "Notes.is_deleted=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustRender(tt.expr, Inline))
		})
	}
}

func TestRender_Errors(t *testing.T) {
	_, _, err := Render(nil, Bound)
	assert.Error(t, err)

	_, _, err = Render(queryir.Eq(queryir.Col("", "x"), 1.5), Bound)
	assert.Error(t, err)

	_, _, err = Render(queryir.Select{From: []string{"Notes"}}, Inline)
	assert.Error(t, err)
}
