package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
)

func TestNote_CreateGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7}))

	n, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.ID)
	assert.Equal(t, int64(7), n.NotebookID)
	assert.False(t, n.IsDeleted)
	assert.Equal(t, model.NoteHash(model.Note{NotebookID: 7}), n.Hash)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestNote_CreateRejectsInvalidID(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateNote(context.Background(), model.Note{NotebookID: 7, Title: "x"})

	require.ErrorIs(t, err, model.ErrInvalidID)
}

func TestNote_GetIsScopedToNotebook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7}))

	_, err := s.GetNote(ctx, 8, 42)

	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestNote_DeleteThenPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "Plan", Content: "<p>secret plan</p>", Categories: []int64{5}}))

	require.NoError(t, s.DeleteNote(ctx, 7, 42, false))

	md, err := s.GetNotesMetadata(ctx, 7)
	require.NoError(t, err)
	require.Len(t, md, 1)
	assert.Equal(t, int64(42), md[0].ID)
	assert.True(t, md[0].IsDeleted)

	tomb, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.Empty(t, tomb.Title)
	assert.Empty(t, tomb.Content)
	assert.Empty(t, tomb.Text)
	assert.Empty(t, tomb.Categories)
	assert.NotEqual(t, model.NoteHash(model.Note{NotebookID: 7}), tomb.Hash)

	require.NoError(t, s.PurgeNote(ctx, 7, 42))

	_, err = s.GetNote(ctx, 7, 42)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestNote_DeleteAbsentIsNoop(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.DeleteNote(context.Background(), 7, 999, false))
	require.NoError(t, s.PurgeNote(context.Background(), 7, 999))
}

func TestNote_EmptyUpdateLeavesNoteUnchanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "Plan", Content: "<p>body</p>"}))
	before, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)

	require.NoError(t, s.UpdateNote(ctx, model.Note{ID: 42, NotebookID: 7}, merge.UpdateOptions{}))

	after, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestNote_UpdateMergesAndRehashes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "Plan", Content: "<p>old body</p>"}))
	before, _ := s.GetNote(ctx, 7, 42)

	require.NoError(t, s.UpdateNote(ctx, model.Note{ID: 42, NotebookID: 7, Content: "<p>new <b>body</b></p>"}, merge.UpdateOptions{}))

	after, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, "Plan", after.Title)
	assert.Equal(t, "new body", after.Text)
	assert.NotEqual(t, before.Hash, after.Hash)
	assert.Equal(t, model.NoteHash(after), after.Hash)
	assert.True(t, after.ModifiedAt.After(before.ModifiedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestNote_UpdateAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "x"}, merge.UpdateOptions{})
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, s.UpdateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "x"}, merge.UpdateOptions{AutoCreate: true}))
	n, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.Equal(t, "x", n.Title)
}

func TestNote_SetNoteResolvesSentHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patch := model.Note{ID: 42, NotebookID: 7, Title: "Synced"}
	patch.LastSentHash = model.SentHashCurrent
	require.NoError(t, s.SetNote(ctx, patch))

	n, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.NotEqual(t, model.SentHashCurrent, n.LastSentHash)
	assert.Equal(t, n.Hash, n.LastSentHash)

	// Again on an existing note, after a content change.
	patch = model.Note{ID: 42, NotebookID: 7, Content: "<p>more</p>"}
	patch.LastSentHash = model.SentHashCurrent
	require.NoError(t, s.SetNote(ctx, patch))

	n2, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.NotEqual(t, n.Hash, n2.Hash)
	assert.Equal(t, n2.Hash, n2.LastSentHash)
}

func TestNote_RecvHashDoesNotBumpModified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "x"}))
	before, _ := s.GetNote(ctx, 7, 42)

	patch := model.Note{ID: 42, NotebookID: 7}
	patch.LastRecvHash = before.Hash
	require.NoError(t, s.UpdateNote(ctx, patch, merge.UpdateOptions{}))

	after, _ := s.GetNote(ctx, 7, 42)
	assert.Equal(t, before.Hash, after.LastRecvHash)
	assert.Equal(t, before.Hash, after.Hash)
	assert.Equal(t, before.ModifiedAt, after.ModifiedAt)
}

func TestNote_CategoryEditsApplyDelta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "x"}))
	base, _ := s.GetNote(ctx, 7, 42)

	require.NoError(t, s.AddNoteCategory(ctx, 7, 42, 10))
	require.NoError(t, s.AddNoteCategory(ctx, 7, 42, 11))
	withTwo, _ := s.GetNote(ctx, 7, 42)
	assert.Equal(t, []int64{10, 11}, withTwo.Categories)
	assert.NotEqual(t, base.Hash, withTwo.Hash)
	assert.Equal(t, model.NoteHash(withTwo), withTwo.Hash)

	// Re-adding is a no-op: nothing is written.
	require.NoError(t, s.AddNoteCategory(ctx, 7, 42, 10))
	same, _ := s.GetNote(ctx, 7, 42)
	assert.Equal(t, withTwo, same)

	require.NoError(t, s.SetNoteCategories(ctx, 7, 42, []int64{11, 12, model.UncategorizedCategoryID}))
	n, _ := s.GetNote(ctx, 7, 42)
	assert.Equal(t, []int64{11, 12}, n.Categories)

	require.NoError(t, s.RemoveNoteCategory(ctx, 7, 42, 11))
	n, _ = s.GetNote(ctx, 7, 42)
	assert.Equal(t, []int64{12}, n.Categories)

	require.ErrorIs(t, s.AddNoteCategory(ctx, 7, 99, 10), model.ErrNotFound)
}

func TestNote_SetNotesPartition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.CreateNote(ctx, model.Note{ID: id, NotebookID: 7, Title: "old"}))
	}

	plan, err := s.SetNotes(ctx, 7, []model.Note{
		{ID: 2, Title: "B"}, {ID: 3, Title: "C"}, {ID: 4, Title: "D"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, plan.Remove)
	assert.True(t, plan.Purge)
	require.Len(t, plan.Create, 1)
	assert.Equal(t, int64(4), plan.Create[0].ID)
	assert.Len(t, plan.Update, 2)

	md, err := s.GetNotesMetadata(ctx, 7)
	require.NoError(t, err)
	var ids []int64
	for _, m := range md {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{2, 3, 4}, ids)

	b, _ := s.GetNote(ctx, 7, 2)
	assert.Equal(t, "B", b.Title)
}

func TestNote_UpdateNotesDeleteMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		require.NoError(t, s.CreateNote(ctx, model.Note{ID: id, NotebookID: 7, Title: "old"}))
	}

	_, err := s.UpdateNotes(ctx, 7, []model.Note{{ID: 2, Title: "B"}}, false)
	require.NoError(t, err)
	n1, err := s.GetNote(ctx, 7, 1)
	require.NoError(t, err)
	assert.False(t, n1.IsDeleted)

	_, err = s.UpdateNotes(ctx, 7, []model.Note{{ID: 2, Title: "B"}}, true)
	require.NoError(t, err)
	n1, err = s.GetNote(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, n1.IsDeleted)
}

func TestNote_GetNotesIncludesTombstones(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 2, NotebookID: 7, Title: "b"}))
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 1, NotebookID: 7, Title: "a"}))
	require.NoError(t, s.DeleteNote(ctx, 7, 2, false))

	notes, err := s.GetNotes(ctx, 7)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, int64(1), notes[0].ID)
	assert.True(t, notes[1].IsDeleted)
}

func TestNote_UpdateDoesNotReviveTombstone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateNote(ctx, model.Note{ID: 42, NotebookID: 7, Title: "x", Content: "<p>body</p>"}))
	require.NoError(t, s.DeleteNote(ctx, 7, 42, false))

	patch := model.Note{ID: 42, NotebookID: 7, Title: "back", Content: "<p>again</p>"}
	require.ErrorIs(t, s.UpdateNote(ctx, patch, merge.UpdateOptions{}), model.ErrNotFound)
	require.ErrorIs(t, s.UpdateNote(ctx, patch, merge.UpdateOptions{AutoCreate: true}), model.ErrNotFound)

	n, err := s.GetNote(ctx, 7, 42)
	require.NoError(t, err)
	assert.True(t, n.IsDeleted)
	assert.Empty(t, n.Title)

	// Deleting again is still allowed.
	require.NoError(t, s.UpdateNote(ctx, model.Note{ID: 42, NotebookID: 7, IsDeleted: true}, merge.UpdateOptions{Purge: true}))
	_, err = s.GetNote(ctx, 7, 42)
	require.ErrorIs(t, err, model.ErrNotFound)
}
