// Package merge implements the entity lifecycle shared by every
// synchronized collection: create, soft delete, purge, field-wise update and
// bulk reconciliation. It knows nothing about storage; a Backend supplies
// the primitive row operations.
//
// An entity moves Absent -> Present -> {Deleted (tombstone) | Purged}.
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/achapweske/silvernote/internal/model"
)

// Entity is implemented by every synchronized model type.
type Entity interface {
	Key() int64
	Deleted() bool

	// EmptyPatch reports whether only the identity fields are set.
	EmptyPatch() bool
}

// Backend is the set of row primitives for one collection.
//
// Get is strict: it returns model.ErrNotFound when the row is absent.
// Write, SoftDelete and Purge report whether a row was affected; zero rows
// is a false result, not an error.
type Backend[T Entity] interface {
	Get(ctx context.Context, key int64) (T, error)
	Create(ctx context.Context, item T) error
	Write(ctx context.Context, item T) (bool, error)
	SoftDelete(ctx context.Context, key int64) (bool, error)
	Purge(ctx context.Context, key int64) (bool, error)

	// Merge applies the populated fields of patch to current.
	Merge(current, patch T) T
}

// Create inserts item. Items carrying model.InvalidID are rejected.
func Create[T Entity](ctx context.Context, b Backend[T], item T) error {
	if item.Key() == model.InvalidID {
		return model.ErrInvalidID
	}
	if err := b.Create(ctx, item); err != nil {
		return fmt.Errorf("create %d: %w", item.Key(), err)
	}
	return nil
}

// Purge removes the row for key. Purging an absent row succeeds.
func Purge[T Entity](ctx context.Context, b Backend[T], key int64) error {
	if _, err := b.Purge(ctx, key); err != nil {
		return fmt.Errorf("purge %d: %w", key, err)
	}
	return nil
}

// Delete tombstones the row for key, or removes it when purge is set. When
// the tombstone write affects no row the call degrades to Purge.
func Delete[T Entity](ctx context.Context, b Backend[T], key int64, purge bool) error {
	if purge {
		return Purge(ctx, b, key)
	}
	ok, err := b.SoftDelete(ctx, key)
	if err != nil {
		return fmt.Errorf("delete %d: %w", key, err)
	}
	if !ok {
		return Purge(ctx, b, key)
	}
	return nil
}

// UpdateOptions control Update.
type UpdateOptions struct {
	// AutoCreate creates the patch as a new row when none exists.
	AutoCreate bool

	// Purge makes a deleting patch remove the row instead of tombstoning it.
	Purge bool
}

// Update merges patch into the stored row.
//
// A patch marked deleted is routed to Delete. An empty patch changes
// nothing, but still creates the row when AutoCreate is set and it is
// absent. Otherwise the current row is read, merged and written back. An
// absent row, or a write that affects no row, is created from the patch when
// AutoCreate is set and reported as model.ErrNotFound otherwise.
func Update[T Entity](ctx context.Context, b Backend[T], patch T, opts UpdateOptions) error {
	key := patch.Key()
	if patch.Deleted() {
		return Delete(ctx, b, key, opts.Purge)
	}

	if patch.EmptyPatch() {
		if !opts.AutoCreate {
			return nil
		}
		_, err := b.Get(ctx, key)
		switch {
		case errors.Is(err, model.ErrNotFound):
			return Create(ctx, b, patch)
		case err != nil:
			return fmt.Errorf("update %d: %w", key, err)
		}
		return nil
	}

	current, err := b.Get(ctx, key)
	switch {
	case errors.Is(err, model.ErrNotFound):
		if !opts.AutoCreate {
			return fmt.Errorf("update %d: %w", key, model.ErrNotFound)
		}
		return Create(ctx, b, patch)
	case err != nil:
		return fmt.Errorf("update %d: %w", key, err)
	}

	merged := b.Merge(current, patch)
	ok, err := b.Write(ctx, merged)
	if err != nil {
		return fmt.Errorf("update %d: %w", key, err)
	}
	if !ok {
		if !opts.AutoCreate {
			return fmt.Errorf("update %d: %w", key, model.ErrNotFound)
		}
		return Create(ctx, b, merged)
	}
	return nil
}
