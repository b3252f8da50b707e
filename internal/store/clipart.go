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

// CreateClipartGroup inserts g.
func (s *Store) CreateClipartGroup(ctx context.Context, g model.ClipartGroup) error {
	return merge.Create[model.ClipartGroup](ctx, s.clipartGroups(), g)
}

// GetClipartGroup returns one group. An absent group is model.ErrNotFound.
func (s *Store) GetClipartGroup(ctx context.Context, groupID int64) (model.ClipartGroup, error) {
	g, err := s.clipartGroups().Get(ctx, groupID)
	if err != nil {
		return model.ClipartGroup{}, fmt.Errorf("get clipart group %d: %w", groupID, err)
	}
	return g, nil
}

// UpdateClipartGroup merges patch into the stored group.
func (s *Store) UpdateClipartGroup(ctx context.Context, patch model.ClipartGroup, opts merge.UpdateOptions) error {
	return merge.Update[model.ClipartGroup](ctx, s.clipartGroups(), patch, opts)
}

// DeleteClipartGroup tombstones a group, or removes it with its clipart
// when purge is set.
func (s *Store) DeleteClipartGroup(ctx context.Context, groupID int64, purge bool) error {
	return merge.Delete[model.ClipartGroup](ctx, s.clipartGroups(), groupID, purge)
}

// PurgeClipartGroup removes a group and its clipart.
func (s *Store) PurgeClipartGroup(ctx context.Context, groupID int64) error {
	return merge.Purge[model.ClipartGroup](ctx, s.clipartGroups(), groupID)
}

// GetClipartGroupsMetadata returns the sync projection of every group.
func (s *Store) GetClipartGroupsMetadata(ctx context.Context) ([]model.Metadata, error) {
	md, err := queryMetadata(ctx, s.db, `SELECT id, hash, is_deleted FROM ClipartGroups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("clipart groups metadata: %w", err)
	}
	return md, nil
}

// SetClipartGroups makes the repository hold exactly groups.
func (s *Store) SetClipartGroups(ctx context.Context, groups []model.ClipartGroup) (merge.Plan[model.ClipartGroup], error) {
	existing, err := queryIDs(ctx, s.db, `SELECT id FROM ClipartGroups`)
	if err != nil {
		return merge.Plan[model.ClipartGroup]{}, fmt.Errorf("reconcile clipart groups: %w", err)
	}
	return merge.Reconcile[model.ClipartGroup](ctx, s.clipartGroups(), existing, groups,
		merge.Mode{RemoveMissing: true, Purge: true})
}

// CreateClipart inserts c into its group.
func (s *Store) CreateClipart(ctx context.Context, c model.Clipart) error {
	return merge.Create[model.Clipart](ctx, s.clipart(c.GroupID), c)
}

// GetClipart returns one clipart item with its data.
func (s *Store) GetClipart(ctx context.Context, groupID, clipartID int64) (model.Clipart, error) {
	c, err := s.clipart(groupID).Get(ctx, clipartID)
	if err != nil {
		return model.Clipart{}, fmt.Errorf("get clipart %d: %w", clipartID, err)
	}
	return c, nil
}

// UpdateClipart merges patch into the stored item.
func (s *Store) UpdateClipart(ctx context.Context, patch model.Clipart, opts merge.UpdateOptions) error {
	return merge.Update[model.Clipart](ctx, s.clipart(patch.GroupID), patch, opts)
}

// DeleteClipart tombstones an item, or removes it when purge is set.
func (s *Store) DeleteClipart(ctx context.Context, groupID, clipartID int64, purge bool) error {
	return merge.Delete[model.Clipart](ctx, s.clipart(groupID), clipartID, purge)
}

// PurgeClipart removes an item permanently.
func (s *Store) PurgeClipart(ctx context.Context, groupID, clipartID int64) error {
	return merge.Purge[model.Clipart](ctx, s.clipart(groupID), clipartID)
}

// GetClipartMetadata returns the sync projection of a group's items.
func (s *Store) GetClipartMetadata(ctx context.Context, groupID int64) ([]model.Metadata, error) {
	md, err := queryMetadata(ctx, s.db,
		`SELECT id, hash, is_deleted FROM Clipart WHERE group_id=? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("clipart metadata: %w", err)
	}
	return md, nil
}

// UpdateClipartItems creates or merges items of a group. With
// deleteMissing, unlisted items are tombstoned.
func (s *Store) UpdateClipartItems(ctx context.Context, groupID int64, items []model.Clipart, deleteMissing bool) (merge.Plan[model.Clipart], error) {
	existing, err := queryIDs(ctx, s.db, `SELECT id FROM Clipart WHERE group_id=?`, groupID)
	if err != nil {
		return merge.Plan[model.Clipart]{}, fmt.Errorf("reconcile clipart: %w", err)
	}
	desired := make([]model.Clipart, len(items))
	for i, c := range items {
		c.GroupID = groupID
		desired[i] = c
	}
	return merge.Reconcile[model.Clipart](ctx, s.clipart(groupID), existing, desired,
		merge.Mode{RemoveMissing: deleteMissing})
}

type clipartGroupBackend struct {
	s *Store
}

func (s *Store) clipartGroups() clipartGroupBackend {
	return clipartGroupBackend{s: s}
}

func (b clipartGroupBackend) Get(ctx context.Context, id int64) (model.ClipartGroup, error) {
	var g model.ClipartGroup
	err := b.s.db.QueryRowContext(ctx, `
		SELECT id, name, hash, last_sent_hash, last_recv_hash, is_deleted
		FROM ClipartGroups WHERE id=?`, id,
	).Scan(&g.ID, &g.Name, &g.Hash, &g.LastSentHash, &g.LastRecvHash, &g.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ClipartGroup{}, model.ErrNotFound
	}
	return g, err
}

func (b clipartGroupBackend) Create(ctx context.Context, g model.ClipartGroup) error {
	g = prepareClipartGroup(g)
	_, err := b.s.db.ExecContext(ctx, `
		INSERT INTO ClipartGroups (id, name, hash, last_sent_hash, last_recv_hash, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Hash, g.LastSentHash, g.LastRecvHash, g.IsDeleted)
	if err != nil {
		return fmt.Errorf("insert clipart group: %w", err)
	}
	return nil
}

func (b clipartGroupBackend) Write(ctx context.Context, g model.ClipartGroup) (bool, error) {
	g = prepareClipartGroup(g)
	res, err := b.s.db.ExecContext(ctx, `
		UPDATE ClipartGroups SET name=?, hash=?, last_sent_hash=?, last_recv_hash=?, is_deleted=?
		WHERE id=?`,
		g.Name, g.Hash, g.LastSentHash, g.LastRecvHash, g.IsDeleted, g.ID)
	if err != nil {
		return false, fmt.Errorf("update clipart group: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (b clipartGroupBackend) SoftDelete(ctx context.Context, id int64) (bool, error) {
	ts := prepareClipartGroup(model.ClipartGroup{ID: id, IsDeleted: true})
	res, err := b.s.db.ExecContext(ctx,
		`UPDATE ClipartGroups SET name='', hash=?, is_deleted=1 WHERE id=?`, ts.Hash, id)
	if err != nil {
		return false, fmt.Errorf("tombstone clipart group: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (b clipartGroupBackend) Purge(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := dbx.WithTx(ctx, b.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM ClipartGroups WHERE id=?`, id)
		if err != nil {
			return fmt.Errorf("purge clipart group: %w", err)
		}
		if ok, err = dbx.RowsAffected(res); err != nil || !ok {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM Clipart WHERE group_id=?`, id)
		return err
	})
	return ok, err
}

func (b clipartGroupBackend) Merge(cur, patch model.ClipartGroup) model.ClipartGroup {
	return cur.Apply(patch)
}

func prepareClipartGroup(g model.ClipartGroup) model.ClipartGroup {
	if g.IsDeleted {
		g = g.Tombstone()
	}
	g.HashTriple = g.HashTriple.Resolve(model.ClipartGroupHash(g))
	return g
}

type clipartBackend struct {
	s       *Store
	groupID int64
}

func (s *Store) clipart(groupID int64) clipartBackend {
	return clipartBackend{s: s, groupID: groupID}
}

func (b clipartBackend) Get(ctx context.Context, id int64) (model.Clipart, error) {
	var c model.Clipart
	err := b.s.db.QueryRowContext(ctx, `
		SELECT id, group_id, name, data, hash, last_sent_hash, last_recv_hash, is_deleted
		FROM Clipart WHERE group_id=? AND id=?`, b.groupID, id,
	).Scan(&c.ID, &c.GroupID, &c.Name, &c.Data, &c.Hash, &c.LastSentHash, &c.LastRecvHash, &c.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Clipart{}, model.ErrNotFound
	}
	return c, err
}

func (b clipartBackend) Create(ctx context.Context, c model.Clipart) error {
	c.GroupID = b.groupID
	c = prepareClipart(c)
	_, err := b.s.db.ExecContext(ctx, `
		INSERT INTO Clipart (id, group_id, name, data, hash, last_sent_hash, last_recv_hash, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GroupID, c.Name, c.Data, c.Hash, c.LastSentHash, c.LastRecvHash, c.IsDeleted)
	if err != nil {
		return fmt.Errorf("insert clipart: %w", err)
	}
	return nil
}

func (b clipartBackend) Write(ctx context.Context, c model.Clipart) (bool, error) {
	c.GroupID = b.groupID
	c = prepareClipart(c)
	res, err := b.s.db.ExecContext(ctx, `
		UPDATE Clipart SET name=?, data=?, hash=?, last_sent_hash=?, last_recv_hash=?, is_deleted=?
		WHERE id=? AND group_id=?`,
		c.Name, c.Data, c.Hash, c.LastSentHash, c.LastRecvHash, c.IsDeleted, c.ID, c.GroupID)
	if err != nil {
		return false, fmt.Errorf("update clipart: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (b clipartBackend) SoftDelete(ctx context.Context, id int64) (bool, error) {
	ts := prepareClipart(model.Clipart{ID: id, GroupID: b.groupID, IsDeleted: true})
	res, err := b.s.db.ExecContext(ctx,
		`UPDATE Clipart SET name='', data=NULL, hash=?, is_deleted=1 WHERE id=? AND group_id=?`,
		ts.Hash, id, b.groupID)
	if err != nil {
		return false, fmt.Errorf("tombstone clipart: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (b clipartBackend) Purge(ctx context.Context, id int64) (bool, error) {
	res, err := b.s.db.ExecContext(ctx, `DELETE FROM Clipart WHERE id=? AND group_id=?`, id, b.groupID)
	if err != nil {
		return false, fmt.Errorf("purge clipart: %w", err)
	}
	return dbx.RowsAffected(res)
}

func (b clipartBackend) Merge(cur, patch model.Clipart) model.Clipart {
	return cur.Apply(patch)
}

func prepareClipart(c model.Clipart) model.Clipart {
	if c.IsDeleted {
		c = c.Tombstone()
	}
	c.HashTriple = c.HashTriple.Resolve(model.ClipartHash(c))
	return c
}
