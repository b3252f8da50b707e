package querysql

import "github.com/achapweske/silvernote/internal/queryir"

// Tables a search can touch.
const (
	TableNotes          = "Notes"
	TableNoteCategories = "NoteCategories"
	TableFullText       = "FullTextSearch"
	TableCategories     = "Categories"
)

// fromOrder fixes the order tables appear in a FROM clause.
var fromOrder = []string{TableNotes, TableNoteCategories, TableFullText}

// TableSet records which tables a fragment needs in the FROM clause.
type TableSet map[string]struct{}

// NewTableSet returns a set holding names.
func NewTableSet(names ...string) TableSet {
	ts := TableSet{}
	for _, n := range names {
		ts.Add(n)
	}
	return ts
}

// Add registers a table.
func (ts TableSet) Add(name string) {
	ts[name] = struct{}{}
}

// Has reports whether name is registered.
func (ts TableSet) Has(name string) bool {
	_, ok := ts[name]
	return ok
}

// Union adds every table of other.
func (ts TableSet) Union(other TableSet) {
	for name := range other {
		ts.Add(name)
	}
}

// Sorted returns the registered tables in FROM-clause order.
func (ts TableSet) Sorted() []string {
	out := make([]string, 0, len(ts))
	for _, name := range fromOrder {
		if ts.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Fragment is one compiled piece of a search: a WHERE condition plus the
// tables it needs. A zero Fragment means "no condition".
type Fragment struct {
	Where  queryir.Expr
	Tables TableSet
}

// Empty reports whether the fragment adds no condition.
func (f Fragment) Empty() bool {
	return f.Where == nil
}

// SQL renders the fragment's condition inline.
func (f Fragment) SQL() string {
	if f.Where == nil {
		return ""
	}
	return MustRender(f.Where, Inline)
}
