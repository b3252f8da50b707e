package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/querylang"
	"github.com/achapweske/silvernote/internal/querysql"
)

// ExplainOutput shows how a query is compiled.
type ExplainOutput struct {
	Query      string   `json:"query"`
	Phrase     []string `json:"phrase"`
	Categories []string `json:"categories"`
	PrefixLast bool     `json:"prefix_last"`
	CountSQL   string   `json:"count_sql"`
	PageSQL    string   `json:"page_sql"`
}

func (e ExplainOutput) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "phrase:     %s\n", strings.Join(e.Phrase, " "))
	fmt.Fprintf(&sb, "categories: %s\n", strings.Join(e.Categories, " "))
	if e.PrefixLast {
		sb.WriteString("            (last category name matches as a prefix)\n")
	}
	fmt.Fprintf(&sb, "count:      %s\n", e.CountSQL)
	fmt.Fprintf(&sb, "page:       %s\n", e.PageSQL)
	return sb.String()
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &SearchFlags{}

	cmd := &cobra.Command{
		Use:   "explain [query...]",
		Short: "Show the SQL a search compiles to",
		Long: `Parse a search and print its normalized projections and the SQL it
compiles to, with values inlined. No repository is opened.

Examples:
  silvernote explain 'revenue category:Work'
  silvernote explain --notebook 7 --sort Title title:Agenda --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, flags, cmd, strings.Join(args, " "))
		},
	}
	flags.register(cmd)

	return cmd
}

func runExplain(opts *RootOptions, flags *SearchFlags, cmd *cobra.Command, query string) error {
	cfg, _, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	out, err := explain(flags, query, cfg.PageSize)
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(out)
}

func explain(flags *SearchFlags, query string, pageSize int) (ExplainOutput, error) {
	notebookID := flags.Notebook
	if flags.All {
		notebookID = 0
	}
	search, err := flags.build(query, notebookID, pageSize)
	if err != nil {
		return ExplainOutput{}, err
	}
	built, err := querysql.Build(search)
	if err != nil {
		return ExplainOutput{}, usageError("%v", err)
	}
	count, _, err := querysql.Render(built.Count, querysql.Inline)
	if err != nil {
		return ExplainOutput{}, wrapError("render count", err)
	}
	page, _, err := querysql.Render(built.Page, querysql.Inline)
	if err != nil {
		return ExplainOutput{}, wrapError("render page", err)
	}

	q := querylang.Parse(query)
	return ExplainOutput{
		Query:      query,
		Phrase:     nonNil(q.Phrase),
		Categories: nonNil(q.Categories),
		PrefixLast: q.PrefixLast,
		CountSQL:   count,
		PageSQL:    page,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
