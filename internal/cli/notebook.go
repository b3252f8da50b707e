package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/model"
)

// NotebookRow is a notebook as listed by the CLI.
type NotebookRow struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Hash     string `json:"hash"`
	Deleted  bool   `json:"deleted,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// NotebookList is the output of notebook list.
type NotebookList []NotebookRow

func (l NotebookList) Text() string {
	var sb strings.Builder
	for _, nb := range l {
		mark := " "
		if nb.Selected {
			mark = "*"
		}
		state := ""
		if nb.Deleted {
			state = " (deleted)"
		}
		fmt.Fprintf(&sb, "%s %d\t%s%s\n", mark, nb.ID, nb.Name, state)
	}
	return sb.String()
}

// Done is the output of commands that only report what they changed.
type Done struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
}

func (d Done) Text() string {
	return fmt.Sprintf("%s %s %d\n", d.Action, d.Kind, d.ID)
}

// parseID parses a positional entity ID.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id == model.InvalidID {
		return 0, usageError("invalid %s id %q", kind, arg)
	}
	return id, nil
}

// NewNotebookCommand creates the notebook command group.
func NewNotebookCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Manage notebooks",
	}
	cmd.AddCommand(newNotebookCreateCommand(rootOpts))
	cmd.AddCommand(newNotebookListCommand(rootOpts))
	cmd.AddCommand(newNotebookSelectCommand(rootOpts))
	cmd.AddCommand(newNotebookDeleteCommand(rootOpts))
	return cmd
}

func newNotebookCreateCommand(opts *RootOptions) *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a notebook",
		Long: `Create a notebook. The first notebook of a repository becomes the
selected notebook.

Example:
  silvernote notebook create Journal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if id == model.InvalidID {
				id = model.NewID()
			}
			if err := s.store.CreateNotebook(ctx, model.Notebook{ID: id, Name: args[0]}); err != nil {
				return wrapError("create notebook", err)
			}
			selected, err := s.store.SelectedNotebook(ctx)
			if err != nil {
				return wrapError("read selected notebook", err)
			}
			if selected == model.InvalidID {
				if err := s.store.SetSelectedNotebook(ctx, id); err != nil {
					return wrapError("select notebook", err)
				}
			}
			return s.out.Success(Done{Action: "created", Kind: "notebook", ID: id})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "notebook id (default: generated)")
	return cmd
}

func newNotebookListCommand(opts *RootOptions) *cobra.Command {
	var deleted bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notebooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			notebooks, err := s.store.GetNotebooks(ctx)
			if err != nil {
				return wrapError("list notebooks", err)
			}
			selected, err := s.store.SelectedNotebook(ctx)
			if err != nil {
				return wrapError("read selected notebook", err)
			}
			out := NotebookList{}
			for _, nb := range notebooks {
				if nb.IsDeleted && !deleted {
					continue
				}
				out = append(out, NotebookRow{
					ID:       nb.ID,
					Name:     nb.Name,
					Hash:     nb.Hash,
					Deleted:  nb.IsDeleted,
					Selected: nb.ID == selected,
				})
			}
			return s.out.Success(out)
		},
	}
	cmd.Flags().BoolVar(&deleted, "deleted", false, "include tombstoned notebooks")
	return cmd
}

func newNotebookSelectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Select the notebook other commands default to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("notebook", args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.store.GetNotebook(ctx, id); err != nil {
				return wrapError("select notebook", err)
			}
			if err := s.store.SetSelectedNotebook(ctx, id); err != nil {
				return wrapError("select notebook", err)
			}
			return s.out.Success(Done{Action: "selected", Kind: "notebook", ID: id})
		},
	}
}

func newNotebookDeleteCommand(opts *RootOptions) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notebook",
		Long: `Delete a notebook. Without --purge the notebook is tombstoned so peers
learn about the deletion; --purge removes it with its notes and
categories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("notebook", args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.store.DeleteNotebook(ctx, id, purge); err != nil {
				return wrapError("delete notebook", err)
			}
			action := "deleted"
			if purge {
				action = "purged"
			}
			return s.out.Success(Done{Action: action, Kind: "notebook", ID: id})
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "remove permanently")
	return cmd
}
