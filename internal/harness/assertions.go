package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/querysql"
	"github.com/achapweske/silvernote/internal/store"
)

// maxSearchResults bounds the page fetched by search_results.
const maxSearchResults = 1000

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

func (h *Harness) check(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertSearchResults:
		return assertSearchResults(ctx, h.peers[a.Peer], a)
	case AssertNoteState:
		return assertNoteState(ctx, h.peers[a.Peer], a)
	case AssertMetadataEqual:
		return h.assertMetadataEqual(ctx, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertSearchResults compares the matching note IDs as a set.
func assertSearchResults(ctx context.Context, s *store.Store, a Assertion) error {
	res, err := s.SearchNotes(ctx, querysql.Search{
		Query:      a.Query,
		NotebookID: a.Notebook,
		Sort:       querysql.SortTitle,
		Ascending:  true,
		Limit:      maxSearchResults,
	})
	if err != nil {
		return fmt.Errorf("search %q: %w", a.Query, err)
	}
	got := make([]int64, 0, len(res.Notes))
	for _, n := range res.Notes {
		got = append(got, n.ID)
	}
	slices.Sort(got)
	want := slices.Clone(a.IDs)
	if want == nil {
		want = []int64{}
	}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertSearchResults,
			Expected: fmt.Sprintf("%q to match %v", a.Query, want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// assertNoteState compares the fields named in Expect. The pseudo-field
// "missing" asserts the row is absent.
func assertNoteState(ctx context.Context, s *store.Store, a Assertion) error {
	n, err := s.GetNote(ctx, a.Notebook, a.ID)
	missing := errors.Is(err, model.ErrNotFound)
	if err != nil && !missing {
		return fmt.Errorf("get note %d: %w", a.ID, err)
	}

	for field, want := range a.Expect {
		var got any
		switch field {
		case "missing":
			got = missing
		case "title":
			got = n.Title
		case "text":
			got = n.Text
		case "deleted":
			got = n.IsDeleted
		case "categories":
			ids, err := toIDs(want)
			if err != nil {
				return fmt.Errorf("expect.categories: %w", err)
			}
			want, got = ids, nonNil(n.Categories)
		default:
			return fmt.Errorf("unknown note field %q", field)
		}
		if field != "missing" && missing {
			return &AssertionError{
				Type:     AssertNoteState,
				Expected: fmt.Sprintf("note %d with %s=%v", a.ID, field, want),
				Actual:   "no such note",
			}
		}
		if !reflect.DeepEqual(got, want) {
			return &AssertionError{
				Type:     AssertNoteState,
				Expected: fmt.Sprintf("note %d %s=%v", a.ID, field, want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// assertMetadataEqual compares the metadata every listed peer would offer
// a sync partner.
func (h *Harness) assertMetadataEqual(ctx context.Context, a Assertion) error {
	first, err := peerMetadata(ctx, h.peers[a.Peers[0]])
	if err != nil {
		return fmt.Errorf("peer %q: %w", a.Peers[0], err)
	}
	for _, name := range a.Peers[1:] {
		other, err := peerMetadata(ctx, h.peers[name])
		if err != nil {
			return fmt.Errorf("peer %q: %w", name, err)
		}
		if !reflect.DeepEqual(first, other) {
			return &AssertionError{
				Type:     AssertMetadataEqual,
				Expected: fmt.Sprintf("%s metadata %v", a.Peers[0], first),
				Actual:   fmt.Sprintf("%s metadata %v", name, other),
			}
		}
	}
	return nil
}

// peerMetadata collects the metadata of every collection, keyed by
// collection path.
func peerMetadata(ctx context.Context, s *store.Store) (map[string][]model.Metadata, error) {
	out := make(map[string][]model.Metadata)
	add := func(key string, md []model.Metadata, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		out[key] = nonNil(md)
		return nil
	}

	notebooks, err := s.GetNotebooksMetadata(ctx)
	if err := add("notebooks", notebooks, err); err != nil {
		return nil, err
	}
	for _, nb := range notebooks {
		md, err := s.GetCategoriesMetadata(ctx, nb.ID)
		if err := add(fmt.Sprintf("notebooks/%d/categories", nb.ID), md, err); err != nil {
			return nil, err
		}
		md, err = s.GetNotesMetadata(ctx, nb.ID)
		if err := add(fmt.Sprintf("notebooks/%d/notes", nb.ID), md, err); err != nil {
			return nil, err
		}
	}

	groups, err := s.GetClipartGroupsMetadata(ctx)
	if err := add("clipart", groups, err); err != nil {
		return nil, err
	}
	for _, g := range groups {
		md, err := s.GetClipartMetadata(ctx, g.ID)
		if err := add(fmt.Sprintf("clipart/%d", g.ID), md, err); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// toIDs converts a decoded YAML sequence of integers.
func toIDs(v any) ([]int64, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("want a list of ids, got %T", v)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case int:
			ids = append(ids, int64(n))
		case int64:
			ids = append(ids, n)
		default:
			return nil, fmt.Errorf("want an integer id, got %T", item)
		}
	}
	return ids, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
