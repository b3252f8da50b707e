package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/achapweske/silvernote/internal/dbx"
	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
)

// CreateNotebook inserts nb.
func (s *Store) CreateNotebook(ctx context.Context, nb model.Notebook) error {
	return merge.Create[model.Notebook](ctx, s.notebooks(), nb)
}

// GetNotebook returns one notebook with its open notes.
func (s *Store) GetNotebook(ctx context.Context, notebookID int64) (model.Notebook, error) {
	nb, err := getNotebook(ctx, s.db, notebookID)
	if err != nil {
		return model.Notebook{}, fmt.Errorf("get notebook %d: %w", notebookID, err)
	}
	return nb, nil
}

// GetNotebooks returns every notebook, tombstones included, by ID.
func (s *Store) GetNotebooks(ctx context.Context) ([]model.Notebook, error) {
	ids, err := queryIDs(ctx, s.db, `SELECT id FROM Notebooks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	out := make([]model.Notebook, 0, len(ids))
	for _, id := range ids {
		nb, err := getNotebook(ctx, s.db, id)
		if err != nil {
			return nil, fmt.Errorf("list notebooks: %w", err)
		}
		out = append(out, nb)
	}
	return out, nil
}

// UpdateNotebook merges the populated fields of patch into the stored
// notebook.
func (s *Store) UpdateNotebook(ctx context.Context, patch model.Notebook, opts merge.UpdateOptions) error {
	return merge.Update[model.Notebook](ctx, s.notebooks(), patch, opts)
}

// DeleteNotebook tombstones a notebook, or removes it with all of its notes
// and categories when purge is set.
func (s *Store) DeleteNotebook(ctx context.Context, notebookID int64, purge bool) error {
	return merge.Delete[model.Notebook](ctx, s.notebooks(), notebookID, purge)
}

// PurgeNotebook removes a notebook and everything it owns.
func (s *Store) PurgeNotebook(ctx context.Context, notebookID int64) error {
	return merge.Purge[model.Notebook](ctx, s.notebooks(), notebookID)
}

// GetNotebooksMetadata returns the sync projection of every notebook.
func (s *Store) GetNotebooksMetadata(ctx context.Context) ([]model.Metadata, error) {
	md, err := queryMetadata(ctx, s.db, `SELECT id, hash, is_deleted FROM Notebooks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("notebooks metadata: %w", err)
	}
	return md, nil
}

// SetNotebooks makes the repository hold exactly notebooks.
func (s *Store) SetNotebooks(ctx context.Context, notebooks []model.Notebook) (merge.Plan[model.Notebook], error) {
	return s.reconcileNotebooks(ctx, notebooks, merge.Mode{RemoveMissing: true, Purge: true})
}

// UpdateNotebooks creates or merges notebooks. With deleteMissing, unlisted
// notebooks are tombstoned.
func (s *Store) UpdateNotebooks(ctx context.Context, notebooks []model.Notebook, deleteMissing bool) (merge.Plan[model.Notebook], error) {
	return s.reconcileNotebooks(ctx, notebooks, merge.Mode{RemoveMissing: deleteMissing})
}

func (s *Store) reconcileNotebooks(ctx context.Context, notebooks []model.Notebook, mode merge.Mode) (merge.Plan[model.Notebook], error) {
	existing, err := queryIDs(ctx, s.db, `SELECT id FROM Notebooks`)
	if err != nil {
		return merge.Plan[model.Notebook]{}, fmt.Errorf("reconcile notebooks: %w", err)
	}
	plan, err := merge.Reconcile[model.Notebook](ctx, s.notebooks(), existing, notebooks, mode)
	s.log.Debug(ctx, "notebooks reconciled",
		"removed", len(plan.Remove), "created", len(plan.Create), "updated", len(plan.Update))
	return plan, err
}

// SetOpenNotes replaces the ordered list of notes open in a notebook.
// Open notes are view state and do not change the notebook hash.
func (s *Store) SetOpenNotes(ctx context.Context, notebookID int64, noteIDs []int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := getNotebook(ctx, tx, notebookID); err != nil {
			return err
		}
		return writeOpenNotes(ctx, tx, notebookID, noteIDs)
	})
	if err != nil {
		return fmt.Errorf("set open notes: %w", err)
	}
	return nil
}

type notebookBackend struct {
	s *Store
}

func (s *Store) notebooks() notebookBackend {
	return notebookBackend{s: s}
}

func (b notebookBackend) Get(ctx context.Context, id int64) (model.Notebook, error) {
	return getNotebook(ctx, b.s.db, id)
}

func (b notebookBackend) Create(ctx context.Context, nb model.Notebook) error {
	nb = prepareNotebook(nb)
	return dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO Notebooks
			(id, name, selected_note_id, hash, last_sent_hash, last_recv_hash, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			nb.ID, nb.Name, nb.SelectedNoteID, nb.Hash, nb.LastSentHash, nb.LastRecvHash, nb.IsDeleted)
		if err != nil {
			return fmt.Errorf("insert notebook: %w", err)
		}
		return writeOpenNotes(ctx, tx, nb.ID, nb.OpenNotes)
	})
}

func (b notebookBackend) Write(ctx context.Context, nb model.Notebook) (bool, error) {
	nb = prepareNotebook(nb)
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE Notebooks SET name=?, selected_note_id=?, hash=?, last_sent_hash=?, last_recv_hash=?, is_deleted=?
			WHERE id=?`,
			nb.Name, nb.SelectedNoteID, nb.Hash, nb.LastSentHash, nb.LastRecvHash, nb.IsDeleted, nb.ID)
		if err != nil {
			return fmt.Errorf("update notebook: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		return writeOpenNotes(ctx, tx, nb.ID, nb.OpenNotes)
	})
	return ok, err
}

func (b notebookBackend) SoftDelete(ctx context.Context, id int64) (bool, error) {
	ts := prepareNotebook(model.Notebook{ID: id, IsDeleted: true})
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE Notebooks SET name='', selected_note_id=0, hash=?, is_deleted=1 WHERE id=?`, ts.Hash, id)
		if err != nil {
			return fmt.Errorf("tombstone notebook: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		return writeOpenNotes(ctx, tx, id, nil)
	})
	return ok, err
}

func (b notebookBackend) Purge(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM Notebooks WHERE id=?`, id)
		if err != nil {
			return fmt.Errorf("purge notebook: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		cascade := []string{
			`DELETE FROM FullTextSearch WHERE docid IN (SELECT id FROM Notes WHERE notebook_id=?)`,
			`DELETE FROM NoteCategories WHERE note_id IN (SELECT id FROM Notes WHERE notebook_id=?)`,
			`DELETE FROM Notes WHERE notebook_id=?`,
			`DELETE FROM Categories WHERE notebook_id=?`,
			`DELETE FROM OpenNotes WHERE notebook_id=?`,
			`UPDATE Repository SET selected_notebook_id=NULL WHERE selected_notebook_id=?`,
		}
		for _, q := range cascade {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("purge notebook contents: %w", err)
			}
		}
		return nil
	})
	if ok {
		b.s.log.Info(ctx, "notebook purged", "notebook", id)
	}
	return ok, err
}

func (b notebookBackend) Merge(cur, patch model.Notebook) model.Notebook {
	return cur.Apply(patch)
}

func prepareNotebook(nb model.Notebook) model.Notebook {
	if nb.IsDeleted {
		nb = nb.Tombstone()
	}
	nb.HashTriple = nb.HashTriple.Resolve(model.NotebookHash(nb))
	return nb
}

func getNotebook(ctx context.Context, db dbx.DBTX, id int64) (model.Notebook, error) {
	var nb model.Notebook
	err := db.QueryRowContext(ctx, `
		SELECT id, name, selected_note_id, hash, last_sent_hash, last_recv_hash, is_deleted
		FROM Notebooks WHERE id=?`, id,
	).Scan(&nb.ID, &nb.Name, &nb.SelectedNoteID, &nb.Hash, &nb.LastSentHash, &nb.LastRecvHash, &nb.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notebook{}, model.ErrNotFound
	}
	if err != nil {
		return model.Notebook{}, err
	}
	nb.OpenNotes, err = queryIDs(ctx, db,
		`SELECT note_id FROM OpenNotes WHERE notebook_id=? ORDER BY sequence`, id)
	if err != nil {
		return model.Notebook{}, fmt.Errorf("open notes: %w", err)
	}
	return nb, nil
}

func writeOpenNotes(ctx context.Context, tx dbx.DBTX, notebookID int64, noteIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM OpenNotes WHERE notebook_id=?`, notebookID); err != nil {
		return fmt.Errorf("clear open notes: %w", err)
	}
	for i, id := range noteIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO OpenNotes (notebook_id, note_id, sequence) VALUES (?, ?, ?)`, notebookID, id, i)
		if err != nil {
			return fmt.Errorf("write open notes: %w", err)
		}
	}
	return nil
}
