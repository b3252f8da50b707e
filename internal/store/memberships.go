package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/achapweske/silvernote/internal/dbx"
	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
)

// AddNoteCategory puts a note in a category. Membership in a
// pseudo-category is model.ErrInvalidID.
func (s *Store) AddNoteCategory(ctx context.Context, notebookID, noteID, categoryID int64) error {
	if isPseudoCategory(categoryID) {
		return fmt.Errorf("add note %d to category %d: %w", noteID, categoryID, model.ErrInvalidID)
	}
	return s.editCategories(ctx, notebookID, noteID, func(cur []int64) []int64 {
		return append(slices.Clone(cur), categoryID)
	})
}

// RemoveNoteCategory takes a note out of a category.
func (s *Store) RemoveNoteCategory(ctx context.Context, notebookID, noteID, categoryID int64) error {
	return s.editCategories(ctx, notebookID, noteID, func(cur []int64) []int64 {
		return slices.DeleteFunc(slices.Clone(cur), func(id int64) bool { return id == categoryID })
	})
}

// SetNoteCategories makes categoryIDs the exact category set of a note.
func (s *Store) SetNoteCategories(ctx context.Context, notebookID, noteID int64, categoryIDs []int64) error {
	return s.editCategories(ctx, notebookID, noteID, func([]int64) []int64 {
		return slices.Clone(categoryIDs)
	})
}

// editCategories applies only the difference between the note's current
// and desired category sets, then refreshes the note hash. An edit that
// changes nothing writes nothing.
func (s *Store) editCategories(ctx context.Context, notebookID, noteID int64, edit func([]int64) []int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := getNote(ctx, tx, notebookID, noteID)
		if err != nil {
			return err
		}
		if n.IsDeleted {
			return model.ErrNotFound
		}
		add, remove := merge.Delta(n.Categories, normalizeCategories(edit(n.Categories)))
		if len(add) == 0 && len(remove) == 0 {
			return nil
		}
		if err := addMemberships(ctx, tx, noteID, add); err != nil {
			return err
		}
		if err := removeMemberships(ctx, tx, noteID, remove); err != nil {
			return err
		}
		return s.refreshNoteHash(ctx, tx, notebookID, noteID)
	})
	if err != nil {
		return fmt.Errorf("edit categories of note %d: %w", noteID, err)
	}
	return nil
}

// refreshNoteHash recomputes a note's hash after its categories changed
// outside a full write.
func (s *Store) refreshNoteHash(ctx context.Context, tx dbx.DBTX, notebookID, noteID int64) error {
	n, err := getNote(ctx, tx, notebookID, noteID)
	if err != nil {
		return err
	}
	n.ModifiedAt = s.now()
	n.HashTriple = n.HashTriple.Resolve(model.NoteHash(n))
	_, err = tx.ExecContext(ctx, `UPDATE Notes SET hash=?, modified_at=? WHERE id=?`,
		n.Hash, formatTime(n.ModifiedAt), noteID)
	if err != nil {
		return fmt.Errorf("refresh note hash: %w", err)
	}
	return nil
}

func addMemberships(ctx context.Context, tx dbx.DBTX, noteID int64, categoryIDs []int64) error {
	for _, c := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO NoteCategories (note_id, category_id) VALUES (?, ?)`, noteID, c)
		if err != nil {
			return fmt.Errorf("add membership: %w", err)
		}
	}
	return nil
}

func removeMemberships(ctx context.Context, tx dbx.DBTX, noteID int64, categoryIDs []int64) error {
	for _, c := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM NoteCategories WHERE note_id=? AND category_id=?`, noteID, c)
		if err != nil {
			return fmt.Errorf("remove membership: %w", err)
		}
	}
	return nil
}

// setMemberships brings the stored category set of a note to categoryIDs.
func setMemberships(ctx context.Context, tx dbx.DBTX, noteID int64, categoryIDs []int64) error {
	cur, err := queryIDs(ctx, tx, `SELECT category_id FROM NoteCategories WHERE note_id=?`, noteID)
	if err != nil {
		return fmt.Errorf("read memberships: %w", err)
	}
	add, remove := merge.Delta(cur, categoryIDs)
	if err := addMemberships(ctx, tx, noteID, add); err != nil {
		return err
	}
	return removeMemberships(ctx, tx, noteID, remove)
}
