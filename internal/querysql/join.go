package querysql

import "github.com/achapweske/silvernote/internal/queryir"

// JoinSQL returns the equality conditions that tie the registered tables
// together, or nil when no join is needed. FullTextSearch joins on its
// docid, which is the note id; Notes and NoteCategories join on note id.
func JoinSQL(tables TableSet) queryir.Expr {
	var terms []queryir.Expr
	docid := queryir.Col(TableFullText, "docid")

	if tables.Has(TableFullText) {
		if tables.Has(TableNotes) {
			terms = append(terms, queryir.EqCol(docid, queryir.Col(TableNotes, "id")))
		}
		if tables.Has(TableNoteCategories) {
			terms = append(terms, queryir.EqCol(docid, queryir.Col(TableNoteCategories, "note_id")))
		}
	} else if tables.Has(TableNotes) && tables.Has(TableNoteCategories) {
		terms = append(terms, queryir.EqCol(queryir.Col(TableNotes, "id"), queryir.Col(TableNoteCategories, "note_id")))
	}

	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return queryir.And{Terms: terms}
	}
}
