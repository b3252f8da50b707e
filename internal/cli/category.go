package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/model"
)

// CategoryRow is a category as listed by the CLI.
type CategoryRow struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Hash     string `json:"hash"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// CategoryList is the output of category list.
type CategoryList []CategoryRow

func (l CategoryList) Text() string {
	var sb strings.Builder
	for _, c := range l {
		fmt.Fprintf(&sb, "%d\t%s", c.ID, c.Name)
		if c.ParentID != 0 {
			fmt.Fprintf(&sb, "\t(parent %d)", c.ParentID)
		}
		if c.Deleted {
			sb.WriteString("\t(deleted)")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// NewCategoryCommand creates the category command group.
func NewCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	cmd.AddCommand(newCategoryCreateCommand(rootOpts))
	cmd.AddCommand(newCategoryListCommand(rootOpts))
	cmd.AddCommand(newCategoryDeleteCommand(rootOpts))
	return cmd
}

func newCategoryCreateCommand(opts *RootOptions) *cobra.Command {
	var id, parent, notebook int64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Long: `Create a category in a notebook. Names are what "category:" matches
in searches.

Example:
  silvernote category create Work
  silvernote category create Meetings --parent 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			notebookID, err := s.notebook(ctx, notebook)
			if err != nil {
				return err
			}
			if id == model.InvalidID {
				id = model.NewID()
			}
			c := model.Category{ID: id, NotebookID: notebookID, ParentID: parent, Name: args[0]}
			if err := s.store.CreateCategory(ctx, c); err != nil {
				return wrapError("create category", err)
			}
			return s.out.Success(Done{Action: "created", Kind: "category", ID: id})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "category id (default: generated)")
	cmd.Flags().Int64Var(&parent, "parent", 0, "parent category id")
	cmd.Flags().Int64Var(&notebook, "notebook", 0, "notebook id (default: selected notebook)")
	return cmd
}

func newCategoryListCommand(opts *RootOptions) *cobra.Command {
	var notebook int64
	var deleted bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the categories of a notebook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			notebookID, err := s.notebook(ctx, notebook)
			if err != nil {
				return err
			}
			categories, err := s.store.GetCategories(ctx, notebookID)
			if err != nil {
				return wrapError("list categories", err)
			}
			out := CategoryList{}
			for _, c := range categories {
				if c.IsDeleted && !deleted {
					continue
				}
				out = append(out, CategoryRow{
					ID:       c.ID,
					ParentID: c.ParentID,
					Name:     c.Name,
					Hash:     c.Hash,
					Deleted:  c.IsDeleted,
				})
			}
			return s.out.Success(out)
		},
	}
	cmd.Flags().Int64Var(&notebook, "notebook", 0, "notebook id (default: selected notebook)")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "include tombstoned categories")
	return cmd
}

func newCategoryDeleteCommand(opts *RootOptions) *cobra.Command {
	var notebook int64
	var purge bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Notes lose their membership in it either way;
without --purge a tombstone is kept for peers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("category", args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			notebookID, err := s.notebook(ctx, notebook)
			if err != nil {
				return err
			}
			if err := s.store.DeleteCategory(ctx, notebookID, id, purge); err != nil {
				return wrapError("delete category", err)
			}
			action := "deleted"
			if purge {
				action = "purged"
			}
			return s.out.Success(Done{Action: action, Kind: "category", ID: id})
		},
	}
	cmd.Flags().Int64Var(&notebook, "notebook", 0, "notebook id (default: selected notebook)")
	cmd.Flags().BoolVar(&purge, "purge", false, "remove permanently")
	return cmd
}
