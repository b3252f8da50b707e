package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/achapweske/silvernote/internal/dbx"
	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/querysql"
)

// queryInt64 reads a single integer. No row, or a NULL value, is
// model.ErrNotFound.
func queryInt64(ctx context.Context, db dbx.DBTX, query string, args ...any) (int64, error) {
	var v sql.NullInt64
	err := db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, model.ErrNotFound
	}
	return v.Int64, nil
}

// queryBytes reads a single blob with the same rules as queryInt64.
func queryBytes(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]byte, error) {
	var v []byte
	err := db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, model.ErrNotFound
	}
	return v, nil
}

// orDefault turns a strict read into a lenient one: model.ErrNotFound
// becomes def.
func orDefault[T any](v T, err error, def T) (T, error) {
	if errors.Is(err, model.ErrNotFound) {
		return def, nil
	}
	return v, err
}

func queryIDs(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func queryMetadata(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]model.Metadata, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Metadata{}
	for rows.Next() {
		var m model.Metadata
		if err := rows.Scan(&m.ID, &m.Hash, &m.IsDeleted); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return querysql.FormatTimestamp(t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(querysql.TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
