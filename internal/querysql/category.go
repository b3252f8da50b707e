package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/queryir"
	"github.com/achapweske/silvernote/internal/querylang"
)

// UncategorizedName selects notes without any category when given to
// category: or tag:.
const UncategorizedName = "Uncategorized"

// frame is one parenthesis level while compiling a category query.
type frame struct {
	items      []queryir.Expr
	operand    bool
	pendingOp  queryir.Keyword
	pendingNot bool
	negated    bool // the group itself was preceded by NOT
}

// separate inserts the connective owed before a new operand: the pending
// operator, or AND when two operands are adjacent.
func (f *frame) separate() {
	if f.operand {
		op := f.pendingOp
		if op == "" {
			op = queryir.KwAnd
		}
		f.items = append(f.items, op)
	}
	f.pendingOp = ""
}

func (f *frame) push(e queryir.Expr) {
	f.items = append(f.items, e)
	f.operand = true
}

// CategorySQL compiles the category projection of a query into membership
// conditions on Notes.id.
//
// category:/tag: resolve a category by name; with prefixLast set and the
// name being the final token, the name matches as a prefix. The name
// Uncategorized selects notes with no category. categoryid: takes a
// numeric id where 0 matches every note and 1 means Uncategorized.
// Grouping and AND/OR/NOT pass through left to right, with AND between
// adjacent clauses.
func CategorySQL(tokens []string, prefixLast bool) (Fragment, error) {
	stack := []*frame{{}}
	top := func() *frame { return stack[len(stack)-1] }

	for i := 0; i < len(tokens); i++ {
		tok := querylang.Canonical(tokens[i])
		f := top()

		switch {
		case tok == querylang.OpenParen:
			stack = append(stack, &frame{negated: f.pendingNot})
			f.pendingNot = false
		case tok == querylang.CloseParen:
			if len(stack) == 1 {
				continue
			}
			stack = stack[:len(stack)-1]
			closeGroup(top(), f)
		case querylang.IsBinary(tok):
			f.pendingOp = queryir.Keyword(tok)
		case tok == querylang.OpNot:
			f.pendingNot = true
		case querylang.IsCategoryQualifier(tok):
			if i+1 >= len(tokens) || querylang.IsStructural(tokens[i+1]) {
				continue
			}
			arg := tokens[i+1]
			last := i+1 == len(tokens)-1
			i++

			clause, err := categoryClause(tok, arg, f.pendingNot, prefixLast && last)
			if err != nil {
				return Fragment{}, err
			}
			f.separate()
			f.pendingNot = false
			f.push(clause)
		}
	}

	for len(stack) > 1 {
		inner := top()
		stack = stack[:len(stack)-1]
		closeGroup(top(), inner)
	}

	items := stack[0].items
	switch len(items) {
	case 0:
		return Fragment{}, nil
	case 1:
		return Fragment{Where: items[0], Tables: NewTableSet(TableNotes)}, nil
	default:
		return Fragment{Where: queryir.Seq{Items: items}, Tables: NewTableSet(TableNotes)}, nil
	}
}

func closeGroup(parent, inner *frame) {
	if len(inner.items) == 0 {
		return
	}
	parent.separate()
	if inner.negated {
		parent.items = append(parent.items, queryir.KwNot)
	}
	parent.push(queryir.Group{Items: inner.items})
}

func categoryClause(qualifier, arg string, not, prefix bool) (queryir.Expr, error) {
	if qualifier == querylang.QualCategoryID {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("categoryid: invalid id %q: %w", arg, err)
		}
		switch id {
		case model.AllNotesCategoryID:
			return queryir.Const(!not), nil
		case model.UncategorizedCategoryID:
			return uncategorized(not), nil
		default:
			return notesInCategories(not, queryir.Eq(queryir.Col("", "category_id"), id)), nil
		}
	}

	if strings.EqualFold(arg, UncategorizedName) {
		return uncategorized(not), nil
	}

	var byName queryir.Expr = queryir.Eq(queryir.Col("", "name"), arg)
	if prefix {
		byName = queryir.Like{Left: queryir.Col("", "name"), Pattern: arg + "%"}
	}
	lookup := queryir.Select{
		Columns: []queryir.Expr{queryir.Col("", "id")},
		From:    []string{TableCategories},
		Where:   byName,
	}
	return notesInCategories(not, queryir.In{Left: queryir.Col("", "category_id"), Sub: lookup}), nil
}

// notesInCategories is "Notes.id [NOT] IN (SELECT note_id FROM NoteCategories WHERE <where>)".
func notesInCategories(not bool, where queryir.Expr) queryir.Expr {
	return queryir.In{
		Left: queryir.Col(TableNotes, "id"),
		Not:  not,
		Sub: queryir.Select{
			Columns: []queryir.Expr{queryir.Col("", "note_id")},
			From:    []string{TableNoteCategories},
			Where:   where,
		},
	}
}

// uncategorized matches notes with no row in NoteCategories, or with at
// least one when negated.
func uncategorized(not bool) queryir.Expr {
	return queryir.Exists{
		Not: !not,
		Sub: queryir.Select{
			Columns: []queryir.Expr{queryir.Raw("1")},
			From:    []string{TableNoteCategories},
			Where:   queryir.EqCol(queryir.Col(TableNoteCategories, "note_id"), queryir.Col(TableNotes, "id")),
		},
	}
}
