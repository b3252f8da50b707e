package merge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achapweske/silvernote/internal/model"
)

// fakeBackend keeps categories in memory and records every mutating call.
type fakeBackend struct {
	rows  map[int64]model.Category
	calls []string

	// staleWrite makes Write report zero rows affected.
	staleWrite bool
}

func newFake(rows ...model.Category) *fakeBackend {
	f := &fakeBackend{rows: map[int64]model.Category{}}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeBackend) record(op string, key int64) {
	f.calls = append(f.calls, fmt.Sprintf("%s %d", op, key))
}

func (f *fakeBackend) Get(_ context.Context, key int64) (model.Category, error) {
	c, ok := f.rows[key]
	if !ok {
		return model.Category{}, model.ErrNotFound
	}
	return c, nil
}

func (f *fakeBackend) Create(_ context.Context, c model.Category) error {
	f.record("create", c.ID)
	if _, ok := f.rows[c.ID]; ok {
		return errors.New("duplicate")
	}
	f.rows[c.ID] = c
	return nil
}

func (f *fakeBackend) Write(_ context.Context, c model.Category) (bool, error) {
	f.record("write", c.ID)
	if _, ok := f.rows[c.ID]; !ok || f.staleWrite {
		return false, nil
	}
	f.rows[c.ID] = c
	return true, nil
}

func (f *fakeBackend) SoftDelete(_ context.Context, key int64) (bool, error) {
	f.record("softdelete", key)
	c, ok := f.rows[key]
	if !ok {
		return false, nil
	}
	f.rows[key] = c.Tombstone()
	return true, nil
}

func (f *fakeBackend) Purge(_ context.Context, key int64) (bool, error) {
	f.record("purge", key)
	_, ok := f.rows[key]
	delete(f.rows, key)
	return ok, nil
}

func (f *fakeBackend) Merge(cur, patch model.Category) model.Category {
	return cur.Apply(patch)
}

func cat(id int64, name string) model.Category {
	return model.Category{ID: id, NotebookID: 7, Name: name}
}

func TestCreate_RejectsInvalidID(t *testing.T) {
	f := newFake()

	err := Create[model.Category](context.Background(), f, cat(model.InvalidID, "x"))

	require.ErrorIs(t, err, model.ErrInvalidID)
	assert.Empty(t, f.calls)
}

func TestDelete_Tombstones(t *testing.T) {
	f := newFake(cat(1, "Work"))

	require.NoError(t, Delete[model.Category](context.Background(), f, 1, false))

	assert.Equal(t, []string{"softdelete 1"}, f.calls)
	assert.True(t, f.rows[1].IsDeleted)
	assert.Empty(t, f.rows[1].Name)
}

func TestDelete_DegradesToPurgeWhenAbsent(t *testing.T) {
	f := newFake()

	require.NoError(t, Delete[model.Category](context.Background(), f, 9, false))

	assert.Equal(t, []string{"softdelete 9", "purge 9"}, f.calls)
}

func TestDelete_Purge(t *testing.T) {
	f := newFake(cat(1, "Work"))

	require.NoError(t, Delete[model.Category](context.Background(), f, 1, true))

	assert.Equal(t, []string{"purge 1"}, f.calls)
	assert.NotContains(t, f.rows, int64(1))
}

func TestUpdate_MergesPopulatedFields(t *testing.T) {
	f := newFake(model.Category{ID: 1, NotebookID: 7, ParentID: 3, Name: "Work"})

	err := Update[model.Category](context.Background(), f, model.Category{ID: 1, NotebookID: 7, Name: "Office"}, UpdateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Office", f.rows[1].Name)
	assert.Equal(t, int64(3), f.rows[1].ParentID)
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	f := newFake(cat(1, "Work"))

	err := Update[model.Category](context.Background(), f, model.Category{ID: 1, NotebookID: 7}, UpdateOptions{})
	require.NoError(t, err)

	assert.Empty(t, f.calls)
	assert.Equal(t, "Work", f.rows[1].Name)
}

func TestUpdate_EmptyPatchAutoCreates(t *testing.T) {
	f := newFake()

	err := Update[model.Category](context.Background(), f, model.Category{ID: 4, NotebookID: 7}, UpdateOptions{AutoCreate: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"create 4"}, f.calls)
}

func TestUpdate_AbsentWithoutAutoCreate(t *testing.T) {
	f := newFake()

	err := Update[model.Category](context.Background(), f, cat(4, "x"), UpdateOptions{})

	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, f.calls)
}

func TestUpdate_ZeroRowWriteFallsBackToCreate(t *testing.T) {
	f := newFake(cat(1, "Work"))
	f.staleWrite = true

	err := Update[model.Category](context.Background(), f, cat(1, "Office"), UpdateOptions{AutoCreate: true})

	// The fake still holds the row, so the fallback create collides.
	require.Error(t, err)
	assert.Equal(t, []string{"write 1", "create 1"}, f.calls)
}

func TestUpdate_DeletedPatchDelegatesToDelete(t *testing.T) {
	f := newFake(cat(1, "Work"))

	patch := cat(1, "")
	patch.IsDeleted = true
	require.NoError(t, Update[model.Category](context.Background(), f, patch, UpdateOptions{Purge: true}))

	assert.Equal(t, []string{"purge 1"}, f.calls)
}

func TestReconcile_FullResyncPartition(t *testing.T) {
	f := newFake(cat(1, "A"), cat(2, "B"), cat(3, "C"))

	plan, err := Reconcile[model.Category](context.Background(), f,
		[]int64{1, 2, 3},
		[]model.Category{cat(2, "B2"), cat(3, "C2"), cat(4, "D")},
		Mode{RemoveMissing: true, Purge: true})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, plan.Remove)
	assert.Len(t, plan.Create, 1)
	assert.Len(t, plan.Update, 2)
	assert.Equal(t, []string{"purge 1", "create 4", "write 2", "write 3"}, f.calls)
	assert.Equal(t, "B2", f.rows[2].Name)
	assert.Equal(t, "D", f.rows[4].Name)
}

func TestReconcile_IncrementalKeepsMissing(t *testing.T) {
	f := newFake(cat(1, "A"), cat(2, "B"))

	plan, err := Reconcile[model.Category](context.Background(), f,
		[]int64{1, 2},
		[]model.Category{cat(2, "B2")},
		Mode{})
	require.NoError(t, err)

	assert.Empty(t, plan.Remove)
	assert.Equal(t, []string{"write 2"}, f.calls)
	assert.Contains(t, f.rows, int64(1))
}

func TestReconcile_DeleteMissingTombstones(t *testing.T) {
	f := newFake(cat(1, "A"), cat(2, "B"))

	_, err := Reconcile[model.Category](context.Background(), f,
		[]int64{1, 2},
		[]model.Category{cat(2, "B")},
		Mode{RemoveMissing: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"softdelete 1", "write 2"}, f.calls)
	assert.True(t, f.rows[1].IsDeleted)
}

func TestReconcile_StopsAtFirstFailure(t *testing.T) {
	f := newFake()

	_, err := Reconcile[model.Category](context.Background(), f, nil,
		[]model.Category{cat(5, "ok"), cat(model.InvalidID, "bad"), cat(6, "never")},
		Mode{})

	require.ErrorIs(t, err, model.ErrInvalidID)
	assert.Equal(t, []string{"create 5"}, f.calls)
}

func TestDiff_DuplicateKeysKeepLastValue(t *testing.T) {
	plan := Diff([]int64{1}, []model.Category{cat(1, "x"), cat(2, "y"), cat(1, "z"), cat(2, "w")}, Mode{})

	require.Len(t, plan.Update, 1)
	require.Len(t, plan.Create, 1)
	assert.Equal(t, "z", plan.Update[0].Name)
	assert.Equal(t, "w", plan.Create[0].Name)
	assert.False(t, plan.Empty())
	assert.True(t, Diff[model.Category](nil, nil, Mode{RemoveMissing: true}).Empty())
}

func TestDelta(t *testing.T) {
	add, remove := Delta([]int64{2, 3, 5}, []int64{3, 4, 4, 6})

	assert.Equal(t, []int64{4, 6}, add)
	assert.Equal(t, []int64{2, 5}, remove)

	add, remove = Delta([]int64{1}, []int64{1})
	assert.Empty(t, add)
	assert.Empty(t, remove)
}
