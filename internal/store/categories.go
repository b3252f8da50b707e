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

// CreateCategory inserts c into its notebook. The pseudo-category ids are
// reserved and rejected with model.ErrInvalidID.
func (s *Store) CreateCategory(ctx context.Context, c model.Category) error {
	return merge.Create[model.Category](ctx, s.categories(c.NotebookID), c)
}

// GetCategory returns one category. An absent category is model.ErrNotFound.
func (s *Store) GetCategory(ctx context.Context, notebookID, categoryID int64) (model.Category, error) {
	c, err := getCategory(ctx, s.db, notebookID, categoryID)
	if err != nil {
		return model.Category{}, fmt.Errorf("get category %d: %w", categoryID, err)
	}
	return c, nil
}

// GetCategories returns every category of a notebook, tombstones included.
func (s *Store) GetCategories(ctx context.Context, notebookID int64) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+`
		FROM Categories WHERE notebook_id=? ORDER BY id`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCategory merges the populated fields of patch into the stored
// category.
func (s *Store) UpdateCategory(ctx context.Context, patch model.Category, opts merge.UpdateOptions) error {
	return merge.Update[model.Category](ctx, s.categories(patch.NotebookID), patch, opts)
}

// DeleteCategory tombstones a category, or removes it when purge is set.
// Either way notes leave the category.
func (s *Store) DeleteCategory(ctx context.Context, notebookID, categoryID int64, purge bool) error {
	return merge.Delete[model.Category](ctx, s.categories(notebookID), categoryID, purge)
}

// PurgeCategory removes a category permanently.
func (s *Store) PurgeCategory(ctx context.Context, notebookID, categoryID int64) error {
	return merge.Purge[model.Category](ctx, s.categories(notebookID), categoryID)
}

// GetCategoriesMetadata returns the sync projection of a notebook's
// categories.
func (s *Store) GetCategoriesMetadata(ctx context.Context, notebookID int64) ([]model.Metadata, error) {
	md, err := queryMetadata(ctx, s.db,
		`SELECT id, hash, is_deleted FROM Categories WHERE notebook_id=? ORDER BY id`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("categories metadata: %w", err)
	}
	return md, nil
}

// SetCategories makes the notebook hold exactly categories.
func (s *Store) SetCategories(ctx context.Context, notebookID int64, categories []model.Category) (merge.Plan[model.Category], error) {
	return s.reconcileCategories(ctx, notebookID, categories, merge.Mode{RemoveMissing: true, Purge: true})
}

// UpdateCategories creates or merges categories. With deleteMissing,
// unlisted categories are tombstoned.
func (s *Store) UpdateCategories(ctx context.Context, notebookID int64, categories []model.Category, deleteMissing bool) (merge.Plan[model.Category], error) {
	return s.reconcileCategories(ctx, notebookID, categories, merge.Mode{RemoveMissing: deleteMissing})
}

func (s *Store) reconcileCategories(ctx context.Context, notebookID int64, categories []model.Category, mode merge.Mode) (merge.Plan[model.Category], error) {
	existing, err := queryIDs(ctx, s.db, `SELECT id FROM Categories WHERE notebook_id=?`, notebookID)
	if err != nil {
		return merge.Plan[model.Category]{}, fmt.Errorf("reconcile categories: %w", err)
	}
	desired := make([]model.Category, len(categories))
	for i, c := range categories {
		c.NotebookID = notebookID
		desired[i] = c
	}
	plan, err := merge.Reconcile[model.Category](ctx, s.categories(notebookID), existing, desired, mode)
	s.log.Debug(ctx, "categories reconciled", "notebook", notebookID,
		"removed", len(plan.Remove), "created", len(plan.Create), "updated", len(plan.Update))
	return plan, err
}

const categoryColumns = `id, notebook_id, parent_id, name, hash, last_sent_hash, last_recv_hash, is_deleted`

type categoryBackend struct {
	s          *Store
	notebookID int64
}

func (s *Store) categories(notebookID int64) categoryBackend {
	return categoryBackend{s: s, notebookID: notebookID}
}

func (b categoryBackend) Get(ctx context.Context, id int64) (model.Category, error) {
	return getCategory(ctx, b.s.db, b.notebookID, id)
}

func (b categoryBackend) Create(ctx context.Context, c model.Category) error {
	if isPseudoCategory(c.ID) {
		return model.ErrInvalidID
	}
	c.NotebookID = b.notebookID
	c = prepareCategory(c)
	_, err := b.s.db.ExecContext(ctx, `
		INSERT INTO Categories
		(id, notebook_id, parent_id, name, hash, last_sent_hash, last_recv_hash, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NotebookID, c.ParentID, c.Name, c.Hash, c.LastSentHash, c.LastRecvHash, c.IsDeleted)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (b categoryBackend) Write(ctx context.Context, c model.Category) (bool, error) {
	c.NotebookID = b.notebookID
	c = prepareCategory(c)
	res, err := b.s.db.ExecContext(ctx, `
		UPDATE Categories SET parent_id=?, name=?, hash=?, last_sent_hash=?, last_recv_hash=?, is_deleted=?
		WHERE id=? AND notebook_id=?`,
		c.ParentID, c.Name, c.Hash, c.LastSentHash, c.LastRecvHash, c.IsDeleted, c.ID, c.NotebookID)
	if err != nil {
		return false, fmt.Errorf("update category: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (b categoryBackend) SoftDelete(ctx context.Context, id int64) (bool, error) {
	ts := prepareCategory(model.Category{ID: id, NotebookID: b.notebookID, IsDeleted: true})
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE Categories SET parent_id=0, name='', hash=?, is_deleted=1
			WHERE id=? AND notebook_id=?`, ts.Hash, id, b.notebookID)
		if err != nil {
			return fmt.Errorf("tombstone category: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		return b.s.detachCategory(ctx, tx, b.notebookID, id)
	})
	return ok, err
}

func (b categoryBackend) Purge(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM Categories WHERE id=? AND notebook_id=?`, id, b.notebookID)
		if err != nil {
			return fmt.Errorf("purge category: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		return b.s.detachCategory(ctx, tx, b.notebookID, id)
	})
	return ok, err
}

func (b categoryBackend) Merge(cur, patch model.Category) model.Category {
	return cur.Apply(patch)
}

// detachCategory removes every membership of a category and refreshes the
// hashes of the notes that lost it.
func (s *Store) detachCategory(ctx context.Context, tx dbx.DBTX, notebookID, categoryID int64) error {
	noteIDs, err := queryIDs(ctx, tx, `SELECT note_id FROM NoteCategories WHERE category_id=?`, categoryID)
	if err != nil {
		return fmt.Errorf("read members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM NoteCategories WHERE category_id=?`, categoryID); err != nil {
		return fmt.Errorf("detach category: %w", err)
	}
	for _, id := range noteIDs {
		err := s.refreshNoteHash(ctx, tx, notebookID, id)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
	}
	return nil
}

func prepareCategory(c model.Category) model.Category {
	if c.IsDeleted {
		c = c.Tombstone()
	}
	c.HashTriple = c.HashTriple.Resolve(model.CategoryHash(c))
	return c
}

func getCategory(ctx context.Context, db dbx.DBTX, notebookID, id int64) (model.Category, error) {
	row := db.QueryRowContext(ctx, `SELECT `+categoryColumns+`
		FROM Categories WHERE notebook_id=? AND id=?`, notebookID, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, model.ErrNotFound
	}
	return c, err
}

func scanCategory(row scanner) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.NotebookID, &c.ParentID, &c.Name,
		&c.Hash, &c.LastSentHash, &c.LastRecvHash, &c.IsDeleted)
	return c, err
}
