package store

import (
	"context"
	"fmt"

	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/querysql"
)

// SearchResult is one page of matching notes and the total match count.
// Notes carry identity, title and timestamps; Text is set when the search
// selected it.
type SearchResult struct {
	Notes []model.Note
	Total int
}

// SearchNotes runs a search. Values are bound as parameters; only the
// full-text MATCH string is inline.
func (s *Store) SearchNotes(ctx context.Context, q querysql.Search) (SearchResult, error) {
	built, err := querysql.Build(q)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}

	countSQL, countArgs, err := querysql.Render(built.Count, querysql.Bound)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	var res SearchResult
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&res.Total); err != nil {
		return SearchResult{}, fmt.Errorf("count matches: %w", err)
	}

	pageSQL, pageArgs, err := querysql.Render(built.Page, querysql.Bound)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	s.log.Debug(ctx, "search", "query", q.Query, "sql", pageSQL, "total", res.Total)

	rows, err := s.db.QueryContext(ctx, pageSQL, pageArgs...)
	if err != nil {
		return SearchResult{}, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	res.Notes = []model.Note{}
	for rows.Next() {
		var (
			n                         model.Note
			created, modified, viewed string
		)
		dest := []any{&n.ID, &n.NotebookID, &n.Title, &created, &modified, &viewed}
		if built.WithText {
			dest = append(dest, &n.Text)
		}
		if err := rows.Scan(dest...); err != nil {
			return SearchResult{}, fmt.Errorf("scan match: %w", err)
		}
		if n.CreatedAt, err = parseTime(created); err != nil {
			return SearchResult{}, err
		}
		if n.ModifiedAt, err = parseTime(modified); err != nil {
			return SearchResult{}, err
		}
		if n.ViewedAt, err = parseTime(viewed); err != nil {
			return SearchResult{}, err
		}
		res.Notes = append(res.Notes, n)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, fmt.Errorf("iterate matches: %w", err)
	}
	return res, nil
}
