package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/querysql"
)

// SearchFlags holds the flags shared by search and explain.
type SearchFlags struct {
	Notebook  int64
	All       bool
	Sort      string
	Ascending bool
	Page      int
	PageSize  int
	WithText  bool

	CreatedAfter, CreatedBefore   string
	ModifiedAfter, ModifiedBefore string
	ViewedAfter, ViewedBefore     string
}

func (f *SearchFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Int64Var(&f.Notebook, "notebook", 0, "notebook to search (default: selected notebook)")
	fl.BoolVar(&f.All, "all", false, "search every notebook")
	fl.StringVar(&f.Sort, "sort", "ViewedAt", "sort key (ViewedAt|CreatedAt|ModifiedAt|Title)")
	fl.BoolVar(&f.Ascending, "asc", false, "sort ascending")
	fl.IntVar(&f.Page, "page", 1, "result page, starting at 1")
	fl.IntVar(&f.PageSize, "page-size", 0, "results per page (default from config)")
	fl.BoolVar(&f.WithText, "text", false, "include the indexed plain text")
	fl.StringVar(&f.CreatedAfter, "created-after", "", "only notes created after this time")
	fl.StringVar(&f.CreatedBefore, "created-before", "", "only notes created before this time")
	fl.StringVar(&f.ModifiedAfter, "modified-after", "", "only notes modified after this time")
	fl.StringVar(&f.ModifiedBefore, "modified-before", "", "only notes modified before this time")
	fl.StringVar(&f.ViewedAfter, "viewed-after", "", "only notes viewed after this time")
	fl.StringVar(&f.ViewedBefore, "viewed-before", "", "only notes viewed before this time")
}

// timeLayouts are the accepted forms of a range flag, tried in order.
var timeLayouts = []string{time.RFC3339, querysql.TimestampLayout, time.DateOnly}

func parseTime(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, usageError("--%s: cannot parse %q as a time", flag, value)
}

// build turns the flags into a search request. notebookID has already been
// resolved; pageSize is the configured default.
func (f *SearchFlags) build(query string, notebookID int64, pageSize int) (querysql.Search, error) {
	if f.PageSize > 0 {
		pageSize = f.PageSize
	}
	if f.Page < 1 {
		return querysql.Search{}, usageError("--page must be at least 1")
	}

	var r querysql.Range
	bounds := []struct {
		flag  string
		value string
		dst   *time.Time
	}{
		{"created-after", f.CreatedAfter, &r.CreatedAfter},
		{"created-before", f.CreatedBefore, &r.CreatedBefore},
		{"modified-after", f.ModifiedAfter, &r.ModifiedAfter},
		{"modified-before", f.ModifiedBefore, &r.ModifiedBefore},
		{"viewed-after", f.ViewedAfter, &r.ViewedAfter},
		{"viewed-before", f.ViewedBefore, &r.ViewedBefore},
	}
	for _, b := range bounds {
		t, err := parseTime(b.flag, b.value)
		if err != nil {
			return querysql.Search{}, err
		}
		*b.dst = t
	}

	return querysql.Search{
		Query:      query,
		NotebookID: notebookID,
		Range:      r,
		Sort:       querysql.ParseSortKey(f.Sort),
		Ascending:  f.Ascending,
		Limit:      pageSize,
		Offset:     (f.Page - 1) * pageSize,
		ReturnText: f.WithText,
	}, nil
}

// SearchHit is one result row.
type SearchHit struct {
	ID         int64     `json:"id"`
	NotebookID int64     `json:"notebook_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	ViewedAt   time.Time `json:"viewed_at"`
	Text       string    `json:"text,omitempty"`
}

// SearchOutput is one page of results.
type SearchOutput struct {
	Query string      `json:"query"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Hits  []SearchHit `json:"hits"`
}

func (s SearchOutput) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d match(es), page %d\n", s.Total, s.Page)
	for _, h := range s.Hits {
		fmt.Fprintf(&sb, "%d\t%s\t%s\n", h.ID, h.ModifiedAt.Format(querysql.TimestampLayout), h.Title)
		if h.Text != "" {
			fmt.Fprintf(&sb, "\t%s\n", h.Text)
		}
	}
	return sb.String()
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &SearchFlags{}

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search notes",
		Long: `Search notes with the silvernote query language.

Words match the full text of notes; AND, OR, NOT, EXCEPT and NEAR combine
them, quotes make a phrase and "title:" restricts a match to titles.
"category:" (or "tag:") filters by category name; a trailing category
name matches as a prefix.

Examples:
  silvernote search revenue
  silvernote search 'budget OR forecast category:Work'
  silvernote search --all --sort Title --asc title:Agenda`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, flags, cmd, strings.Join(args, " "))
		},
	}
	flags.register(cmd)

	return cmd
}

func runSearch(opts *RootOptions, flags *SearchFlags, cmd *cobra.Command, query string) error {
	ctx := cmd.Context()

	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	var notebookID int64
	if !flags.All {
		if notebookID, err = s.notebook(ctx, flags.Notebook); err != nil {
			return err
		}
	}
	search, err := flags.build(query, notebookID, s.cfg.PageSize)
	if err != nil {
		return err
	}

	res, err := s.store.SearchNotes(ctx, search)
	if err != nil {
		return wrapError("search", err)
	}
	out := SearchOutput{Query: query, Total: res.Total, Page: flags.Page, Hits: []SearchHit{}}
	for _, n := range res.Notes {
		out.Hits = append(out.Hits, SearchHit{
			ID:         n.ID,
			NotebookID: n.NotebookID,
			Title:      n.Title,
			CreatedAt:  n.CreatedAt,
			ModifiedAt: n.ModifiedAt,
			ViewedAt:   n.ViewedAt,
			Text:       n.Text,
		})
	}
	return s.out.Success(out)
}
