package querysql

import (
	"time"

	"github.com/achapweske/silvernote/internal/queryir"
)

// Range bounds the note timestamps. A zero time leaves that side open.
type Range struct {
	CreatedAfter   time.Time
	CreatedBefore  time.Time
	ModifiedAfter  time.Time
	ModifiedBefore time.Time
	ViewedAfter    time.Time
	ViewedBefore   time.Time
}

// RangeSQL compiles the set bounds of r into "Notes.<col> > '<ts>'" and
// "Notes.<col> < '<ts>'" terms joined by AND.
func RangeSQL(r Range) Fragment {
	bounds := []struct {
		column string
		op     string
		at     time.Time
	}{
		{"created_at", ">", r.CreatedAfter},
		{"created_at", "<", r.CreatedBefore},
		{"modified_at", ">", r.ModifiedAfter},
		{"modified_at", "<", r.ModifiedBefore},
		{"viewed_at", ">", r.ViewedAfter},
		{"viewed_at", "<", r.ViewedBefore},
	}

	var terms []queryir.Expr
	for _, b := range bounds {
		if b.at.IsZero() {
			continue
		}
		terms = append(terms, queryir.Compare{
			Left:  queryir.Col(TableNotes, b.column),
			Op:    b.op,
			Right: queryir.Lit(b.at),
		})
	}

	switch len(terms) {
	case 0:
		return Fragment{}
	case 1:
		return Fragment{Where: terms[0], Tables: NewTableSet(TableNotes)}
	default:
		return Fragment{Where: queryir.And{Terms: terms}, Tables: NewTableSet(TableNotes)}
	}
}
