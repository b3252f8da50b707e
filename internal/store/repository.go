package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/achapweske/silvernote/internal/model"
)

// GetRepository returns the root row.
func (s *Store) GetRepository(ctx context.Context) (model.Repository, error) {
	var (
		repo     model.Repository
		selected sql.NullInt64
		user     sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT uuid, version, selected_notebook_id, user_id FROM Repository LIMIT 1`,
	).Scan(&repo.UUID, &repo.Version, &selected, &user)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Repository{}, fmt.Errorf("get repository: %w", model.ErrNotFound)
	}
	if err != nil {
		return model.Repository{}, fmt.Errorf("get repository: %w", err)
	}
	repo.SelectedNotebookID = selected.Int64
	repo.UserID = user.String
	return repo, nil
}

// SelectedNotebook returns the selected notebook ID, or model.InvalidID when
// none is selected.
func (s *Store) SelectedNotebook(ctx context.Context) (int64, error) {
	id, err := queryInt64(ctx, s.db, `SELECT selected_notebook_id FROM Repository LIMIT 1`)
	id, err = orDefault(id, err, model.InvalidID)
	if err != nil {
		return 0, fmt.Errorf("selected notebook: %w", err)
	}
	return id, nil
}

// SetSelectedNotebook records the selected notebook. model.InvalidID clears
// the selection.
func (s *Store) SetSelectedNotebook(ctx context.Context, notebookID int64) error {
	var v sql.NullInt64
	if notebookID != model.InvalidID {
		v = sql.NullInt64{Int64: notebookID, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE Repository SET selected_notebook_id=?`, v); err != nil {
		return fmt.Errorf("set selected notebook: %w", err)
	}
	return nil
}
