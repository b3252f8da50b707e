package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/achapweske/silvernote/internal/dbx"
	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
)

const noteColumns = `n.id, n.notebook_id, n.title, n.content, n.hash, n.last_sent_hash, n.last_recv_hash,
	n.created_at, n.modified_at, n.viewed_at, n.is_deleted, COALESCE(f.text, '')`

// CreateNote inserts n into its notebook.
func (s *Store) CreateNote(ctx context.Context, n model.Note) error {
	return merge.Create[model.Note](ctx, s.notes(n.NotebookID), n)
}

// GetNote returns one note. An absent note is model.ErrNotFound.
func (s *Store) GetNote(ctx context.Context, notebookID, noteID int64) (model.Note, error) {
	n, err := getNote(ctx, s.db, notebookID, noteID)
	if err != nil {
		return model.Note{}, fmt.Errorf("get note %d: %w", noteID, err)
	}
	return n, nil
}

// GetNotes returns every note of a notebook, tombstones included, by ID.
func (s *Store) GetNotes(ctx context.Context, notebookID int64) ([]model.Note, error) {
	ids, err := queryIDs(ctx, s.db, `SELECT id FROM Notes WHERE notebook_id=? ORDER BY id`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	notes := make([]model.Note, 0, len(ids))
	for _, id := range ids {
		n, err := getNote(ctx, s.db, notebookID, id)
		if err != nil {
			return nil, fmt.Errorf("list notes: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// UpdateNote merges the populated fields of patch into the stored note.
// Deleted notes are not revived: editing a tombstone is model.ErrNotFound,
// with or without AutoCreate.
func (s *Store) UpdateNote(ctx context.Context, patch model.Note, opts merge.UpdateOptions) error {
	if !patch.IsDeleted && !patch.EmptyPatch() {
		cur, err := getNote(ctx, s.db, patch.NotebookID, patch.ID)
		if err == nil && cur.IsDeleted {
			return fmt.Errorf("update note %d: %w", patch.ID, model.ErrNotFound)
		}
	}
	return merge.Update[model.Note](ctx, s.notes(patch.NotebookID), patch, opts)
}

// SetNote updates n, creating it when absent.
func (s *Store) SetNote(ctx context.Context, n model.Note) error {
	return s.UpdateNote(ctx, n, merge.UpdateOptions{AutoCreate: true})
}

// DeleteNote tombstones a note, or removes it when purge is set.
func (s *Store) DeleteNote(ctx context.Context, notebookID, noteID int64, purge bool) error {
	return merge.Delete[model.Note](ctx, s.notes(notebookID), noteID, purge)
}

// PurgeNote removes a note permanently.
func (s *Store) PurgeNote(ctx context.Context, notebookID, noteID int64) error {
	return merge.Purge[model.Note](ctx, s.notes(notebookID), noteID)
}

// GetNotesMetadata returns the sync projection of every note in a notebook.
func (s *Store) GetNotesMetadata(ctx context.Context, notebookID int64) ([]model.Metadata, error) {
	md, err := queryMetadata(ctx, s.db,
		`SELECT id, hash, is_deleted FROM Notes WHERE notebook_id=? ORDER BY id`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("notes metadata: %w", err)
	}
	return md, nil
}

// SetNotes makes the notebook hold exactly notes: notes not listed are
// purged, new ones created and the rest merged.
func (s *Store) SetNotes(ctx context.Context, notebookID int64, notes []model.Note) (merge.Plan[model.Note], error) {
	return s.reconcileNotes(ctx, notebookID, notes, merge.Mode{RemoveMissing: true, Purge: true})
}

// UpdateNotes creates or merges notes. With deleteMissing, notes of the
// notebook that are not listed are tombstoned.
func (s *Store) UpdateNotes(ctx context.Context, notebookID int64, notes []model.Note, deleteMissing bool) (merge.Plan[model.Note], error) {
	return s.reconcileNotes(ctx, notebookID, notes, merge.Mode{RemoveMissing: deleteMissing})
}

func (s *Store) reconcileNotes(ctx context.Context, notebookID int64, notes []model.Note, mode merge.Mode) (merge.Plan[model.Note], error) {
	existing, err := queryIDs(ctx, s.db, `SELECT id FROM Notes WHERE notebook_id=?`, notebookID)
	if err != nil {
		return merge.Plan[model.Note]{}, fmt.Errorf("reconcile notes: %w", err)
	}
	desired := make([]model.Note, len(notes))
	for i, n := range notes {
		n.NotebookID = notebookID
		desired[i] = n
	}
	plan, err := merge.Reconcile[model.Note](ctx, s.notes(notebookID), existing, desired, mode)
	s.log.Debug(ctx, "notes reconciled", "notebook", notebookID,
		"removed", len(plan.Remove), "created", len(plan.Create), "updated", len(plan.Update))
	return plan, err
}

// noteBackend binds the note primitives to one notebook.
type noteBackend struct {
	s          *Store
	notebookID int64
}

func (s *Store) notes(notebookID int64) noteBackend {
	return noteBackend{s: s, notebookID: notebookID}
}

func (b noteBackend) Get(ctx context.Context, id int64) (model.Note, error) {
	return getNote(ctx, b.s.db, b.notebookID, id)
}

func (b noteBackend) Create(ctx context.Context, n model.Note) error {
	n.NotebookID = b.notebookID
	n = b.s.prepareNote(n)
	return dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO Notes
			(id, notebook_id, title, content, hash, last_sent_hash, last_recv_hash,
			 created_at, modified_at, viewed_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.NotebookID, n.Title, n.Content, n.Hash, n.LastSentHash, n.LastRecvHash,
			formatTime(n.CreatedAt), formatTime(n.ModifiedAt), formatTime(n.ViewedAt), n.IsDeleted)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		if err := writeFullText(ctx, tx, n); err != nil {
			return err
		}
		return addMemberships(ctx, tx, n.ID, n.Categories)
	})
}

func (b noteBackend) Write(ctx context.Context, n model.Note) (bool, error) {
	n.NotebookID = b.notebookID
	n = b.s.prepareNote(n)
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE Notes SET title=?, content=?, hash=?, last_sent_hash=?, last_recv_hash=?,
			created_at=?, modified_at=?, viewed_at=?, is_deleted=?
			WHERE id=? AND notebook_id=?`,
			n.Title, n.Content, n.Hash, n.LastSentHash, n.LastRecvHash,
			formatTime(n.CreatedAt), formatTime(n.ModifiedAt), formatTime(n.ViewedAt), n.IsDeleted,
			n.ID, n.NotebookID)
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		if err := writeFullText(ctx, tx, n); err != nil {
			return err
		}
		return setMemberships(ctx, tx, n.ID, n.Categories)
	})
	return ok, err
}

func (b noteBackend) SoftDelete(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := getNote(ctx, tx, b.notebookID, id)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ts := cur.Tombstone()
		ts.ModifiedAt = b.s.now()
		ts = b.s.prepareNote(ts)
		res, err := tx.ExecContext(ctx, `
			UPDATE Notes SET title='', content='', hash=?, modified_at=?, is_deleted=1
			WHERE id=? AND notebook_id=?`,
			ts.Hash, formatTime(ts.ModifiedAt), id, b.notebookID)
		if err != nil {
			return fmt.Errorf("tombstone note: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		return dropNoteIndexes(ctx, tx, id)
	})
	return ok, err
}

func (b noteBackend) Purge(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM Notes WHERE id=? AND notebook_id=?`, id, b.notebookID)
		if err != nil {
			return fmt.Errorf("purge note: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		if err := dropNoteIndexes(ctx, tx, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM OpenNotes WHERE note_id=?`, id)
		return err
	})
	if ok {
		b.s.log.Debug(ctx, "note purged", "notebook", b.notebookID, "note", id)
	}
	return ok, err
}

// Merge applies patch to cur. A patch that changes content without its own
// ModifiedAt bumps ModifiedAt; new Content without Text re-derives Text.
func (b noteBackend) Merge(cur, patch model.Note) model.Note {
	merged := cur.Apply(patch)
	if patch.Content != "" && patch.Text == "" {
		merged.Text = ""
	}
	changed := merged.Title != cur.Title || merged.Content != cur.Content ||
		!slices.Equal(normalizeCategories(merged.Categories), normalizeCategories(cur.Categories))
	if changed && patch.ModifiedAt.IsZero() {
		merged.ModifiedAt = b.s.now()
	}
	return merged
}

// prepareNote fills derived fields: canonical categories, plain text,
// missing timestamps and the hash triple.
func (s *Store) prepareNote(n model.Note) model.Note {
	if n.IsDeleted {
		n.Title, n.Content, n.Text, n.Categories = "", "", "", nil
	}
	n.Categories = normalizeCategories(n.Categories)
	if n.Text == "" && n.Content != "" {
		n.Text = PlainText(n.Content)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.ModifiedAt.IsZero() {
		n.ModifiedAt = n.CreatedAt
	}
	if n.ViewedAt.IsZero() {
		n.ViewedAt = n.ModifiedAt
	}
	n.HashTriple = n.HashTriple.Resolve(model.NoteHash(n))
	return n
}

// normalizeCategories sorts and de-duplicates ids and drops the
// pseudo-categories, which are never stored. Nil stays nil.
func normalizeCategories(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !isPseudoCategory(id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func isPseudoCategory(id int64) bool {
	return id == model.AllNotesCategoryID || id == model.UncategorizedCategoryID
}

func getNote(ctx context.Context, db dbx.DBTX, notebookID, id int64) (model.Note, error) {
	row := db.QueryRowContext(ctx, `SELECT `+noteColumns+`
		FROM Notes n LEFT JOIN FullTextSearch f ON f.docid = n.id
		WHERE n.notebook_id=? AND n.id=?`, notebookID, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, model.ErrNotFound
	}
	if err != nil {
		return model.Note{}, err
	}
	n.Categories, err = queryIDs(ctx, db,
		`SELECT category_id FROM NoteCategories WHERE note_id=? ORDER BY category_id`, id)
	if err != nil {
		return model.Note{}, fmt.Errorf("note categories: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (model.Note, error) {
	var (
		n                           model.Note
		created, modified, viewed string
	)
	err := row.Scan(&n.ID, &n.NotebookID, &n.Title, &n.Content,
		&n.Hash, &n.LastSentHash, &n.LastRecvHash,
		&created, &modified, &viewed, &n.IsDeleted, &n.Text)
	if err != nil {
		return model.Note{}, err
	}
	if n.CreatedAt, err = parseTime(created); err != nil {
		return model.Note{}, err
	}
	if n.ModifiedAt, err = parseTime(modified); err != nil {
		return model.Note{}, err
	}
	if n.ViewedAt, err = parseTime(viewed); err != nil {
		return model.Note{}, err
	}
	return n, nil
}

// writeFullText replaces the index row of n. Tombstones are not indexed.
func writeFullText(ctx context.Context, tx dbx.DBTX, n model.Note) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM FullTextSearch WHERE docid=?`, n.ID); err != nil {
		return fmt.Errorf("clear full text: %w", err)
	}
	if n.IsDeleted {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO FullTextSearch (docid, title, text) VALUES (?, ?, ?)`, n.ID, n.Title, n.Text)
	if err != nil {
		return fmt.Errorf("index note: %w", err)
	}
	return nil
}

func dropNoteIndexes(ctx context.Context, tx dbx.DBTX, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM FullTextSearch WHERE docid=?`, id); err != nil {
		return fmt.Errorf("drop full text: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM NoteCategories WHERE note_id=?`, id); err != nil {
		return fmt.Errorf("drop memberships: %w", err)
	}
	return nil
}
