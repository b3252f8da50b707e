package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achapweske/silvernote/internal/logging"
	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/testutil"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db, clock: testutil.NewDeterministicClock(), log: logging.Nop()}, mock
}

func TestCategoryWrite_ZeroRowsIsFalse(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE Categories SET parent_id=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.categories(7).Write(context.Background(), model.Category{ID: 10, Name: "Work"})

	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClipartPurge_ZeroRowsIsFalse(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM Clipart WHERE id=? AND group_id=?")).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.clipart(1).Purge(context.Background(), 5)

	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory_AbsentDegradesToPurge(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE Categories SET parent_id=0, name=''")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM Categories WHERE id=? AND notebook_id=?")).
		WithArgs(int64(10), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.DeleteCategory(context.Background(), 7, 10, false)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClipartGroupWrite_ErrorPropagates(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ClipartGroups SET")).
		WillReturnError(errors.New("disk I/O error"))

	_, err := s.clipartGroups().Write(context.Background(), model.ClipartGroup{ID: 1, Name: "x"})

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryInt64_NullIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT selected_notebook_id FROM Repository")).
		WillReturnRows(sqlmock.NewRows([]string{"selected_notebook_id"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT selected_notebook_id FROM Repository")).
		WillReturnRows(sqlmock.NewRows([]string{"selected_notebook_id"}).AddRow(nil))

	_, err := queryInt64(context.Background(), s.db, "SELECT selected_notebook_id FROM Repository LIMIT 1")
	require.ErrorIs(t, err, model.ErrNotFound)

	id, err := s.SelectedNotebook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.InvalidID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}
