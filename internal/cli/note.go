package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/querysql"
)

// NoteView is a note as shown by the CLI.
type NoteView struct {
	ID         int64     `json:"id"`
	NotebookID int64     `json:"notebook_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content,omitempty"`
	PlainText  string    `json:"text,omitempty"`
	Categories []int64   `json:"categories"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	ViewedAt   time.Time `json:"viewed_at"`
	Hash       string    `json:"hash"`
	Deleted    bool      `json:"deleted,omitempty"`
}

func newNoteView(n model.Note) NoteView {
	cats := n.Categories
	if cats == nil {
		cats = []int64{}
	}
	return NoteView{
		ID:         n.ID,
		NotebookID: n.NotebookID,
		Title:      n.Title,
		Content:    n.Content,
		PlainText:  n.Text,
		Categories: cats,
		CreatedAt:  n.CreatedAt,
		ModifiedAt: n.ModifiedAt,
		ViewedAt:   n.ViewedAt,
		Hash:       n.Hash,
		Deleted:    n.IsDeleted,
	}
}

func (v NoteView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s\n", v.ID, v.Title)
	if v.Deleted {
		sb.WriteString("(deleted)\n")
	}
	fmt.Fprintf(&sb, "notebook:   %d\n", v.NotebookID)
	fmt.Fprintf(&sb, "categories: %v\n", v.Categories)
	fmt.Fprintf(&sb, "created:    %s\n", v.CreatedAt.Format(querysql.TimestampLayout))
	fmt.Fprintf(&sb, "modified:   %s\n", v.ModifiedAt.Format(querysql.TimestampLayout))
	fmt.Fprintf(&sb, "hash:       %s\n", v.Hash)
	if v.PlainText != "" {
		fmt.Fprintf(&sb, "\n%s\n", v.PlainText)
	}
	return sb.String()
}

// NoteFlags are the editable fields of a note.
type NoteFlags struct {
	Notebook     int64
	Title        string
	Content      string
	Categories   []int64
	Uncategorize bool
}

func (f *NoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.Notebook, "notebook", 0, "notebook id (default: selected notebook)")
	cmd.Flags().StringVar(&f.Title, "title", "", "note title")
	cmd.Flags().StringVar(&f.Content, "content", "", "note content (HTML or plain text)")
	cmd.Flags().Int64SliceVar(&f.Categories, "category", nil, "category id (repeatable)")
	cmd.Flags().BoolVar(&f.Uncategorize, "no-categories", false, "remove the note from every category")
}

// patch builds a note from the flags that were set on cmd.
func (f *NoteFlags) patch(cmd *cobra.Command, id, notebookID int64) model.Note {
	n := model.Note{ID: id, NotebookID: notebookID, Title: f.Title, Content: f.Content}
	switch {
	case f.Uncategorize:
		n.Categories = []int64{}
	case cmd.Flags().Changed("category"):
		n.Categories = append([]int64{}, f.Categories...)
	}
	return n
}

// NewNoteCommand creates the note command group.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes",
	}
	cmd.AddCommand(newNoteCreateCommand(rootOpts))
	cmd.AddCommand(newNoteShowCommand(rootOpts))
	cmd.AddCommand(newNoteUpdateCommand(rootOpts))
	cmd.AddCommand(newNoteDeleteCommand(rootOpts, false))
	cmd.AddCommand(newNoteDeleteCommand(rootOpts, true))
	return cmd
}

func newNoteCreateCommand(opts *RootOptions) *cobra.Command {
	flags := &NoteFlags{}
	var id int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		Long: `Create a note in a notebook.

Example:
  silvernote note create --title "Standup" --content "<p>notes</p>" --category 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if flags.Title == "" {
				return usageError("--title is required")
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			notebookID, err := s.notebook(ctx, flags.Notebook)
			if err != nil {
				return err
			}
			if id == model.InvalidID {
				id = model.NewID()
			}
			if err := s.store.CreateNote(ctx, flags.patch(cmd, id, notebookID)); err != nil {
				return wrapError("create note", err)
			}
			n, err := s.store.GetNote(ctx, notebookID, id)
			if err != nil {
				return wrapError("read note", err)
			}
			return s.out.Success(newNoteView(n))
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&id, "id", 0, "note id (default: generated)")
	return cmd
}

func newNoteShowCommand(opts *RootOptions) *cobra.Command {
	var notebook int64

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("note", args[0])
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
			n, err := s.store.GetNote(ctx, notebookID, id)
			if err != nil {
				return wrapError("show note", err)
			}
			return s.out.Success(newNoteView(n))
		},
	}
	cmd.Flags().Int64Var(&notebook, "notebook", 0, "notebook id (default: selected notebook)")
	return cmd
}

func newNoteUpdateCommand(opts *RootOptions) *cobra.Command {
	flags := &NoteFlags{}
	var create bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a note",
		Long: `Merge the given fields into a note. Fields without a flag keep their
value; --category replaces the whole category set.

Example:
  silvernote note update 42 --title "Standup (Monday)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("note", args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			notebookID, err := s.notebook(ctx, flags.Notebook)
			if err != nil {
				return err
			}
			patch := flags.patch(cmd, id, notebookID)
			if err := s.store.UpdateNote(ctx, patch, merge.UpdateOptions{AutoCreate: create}); err != nil {
				return wrapError("update note", err)
			}
			n, err := s.store.GetNote(ctx, notebookID, id)
			if err != nil {
				return wrapError("read note", err)
			}
			return s.out.Success(newNoteView(n))
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&create, "create", false, "create the note when it does not exist")
	return cmd
}

func newNoteDeleteCommand(opts *RootOptions, purge bool) *cobra.Command {
	var notebook int64

	verb, short := "delete", "Delete a note (tombstone)"
	if purge {
		verb, short = "purge", "Remove a note permanently"
	}
	cmd := &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("note", args[0])
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
			if err := s.store.DeleteNote(ctx, notebookID, id, purge); err != nil {
				return wrapError(verb+" note", err)
			}
			return s.out.Success(Done{Action: verb + "d", Kind: "note", ID: id})
		},
	}
	cmd.Flags().Int64Var(&notebook, "notebook", 0, "notebook id (default: selected notebook)")
	return cmd
}
