package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/snapshot"
)

// ImportOutput reports what an import changed.
type ImportOutput struct {
	File    string           `json:"file"`
	Summary snapshot.Summary `json:"summary"`
}

func (o ImportOutput) Text() string {
	row := func(name string, c snapshot.Counts) string {
		return fmt.Sprintf("%-11s created %d, updated %d, removed %d\n", name+":", c.Created, c.Updated, c.Removed)
	}
	return "imported " + o.File + "\n" +
		row("notebooks", o.Summary.Notebooks) +
		row("categories", o.Summary.Categories) +
		row("notes", o.Summary.Notes) +
		row("clipart", o.Summary.Clipart)
}

// ExportOutput reports a written snapshot.
type ExportOutput struct {
	File      string `json:"file"`
	Notebooks int    `json:"notebooks"`
	Notes     int    `json:"notes"`
}

func (o ExportOutput) Text() string {
	return fmt.Sprintf("exported %d notebook(s), %d note(s) to %s\n", o.Notebooks, o.Notes, o.File)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var mode snapshot.Mode

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Reconcile the repository with a snapshot file",
		Long: `Read a snapshot (.yaml, .yml or .msgpack) and reconcile the repository
with it. Rows in the file are created or merged. Rows missing from the
file are kept, tombstoned with --delete-missing, or purged with --replace.

Examples:
  silvernote import backup.yaml
  silvernote import --replace peer.msgpack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if mode.Replace && mode.DeleteMissing {
				return usageError("--replace and --delete-missing are exclusive")
			}
			doc, err := snapshot.ReadFile(args[0])
			if err != nil {
				return usageError("%v", err)
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := snapshot.Import(ctx, s.store, doc, mode)
			if err != nil {
				return wrapError("import", err)
			}
			s.log.Info(ctx, "snapshot imported", "file", args[0], "notes", sum.Notes.Created+sum.Notes.Updated)
			return s.out.Success(ImportOutput{File: args[0], Summary: sum})
		},
	}
	cmd.Flags().BoolVar(&mode.Replace, "replace", false, "purge rows missing from the file")
	cmd.Flags().BoolVar(&mode.DeleteMissing, "delete-missing", false, "tombstone rows missing from the file")
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the repository to a snapshot file",
		Long: `Write every live notebook, category, note and clipart item to a
snapshot. The extension picks the encoding: .yaml/.yml or .msgpack.

Example:
  silvernote export backup.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := snapshot.FormatFor(args[0]); err != nil {
				return usageError("%v", err)
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := snapshot.Export(ctx, s.store)
			if err != nil {
				return wrapError("export", err)
			}
			if err := snapshot.WriteFile(args[0], doc); err != nil {
				return wrapError("export", err)
			}
			out := ExportOutput{File: args[0], Notebooks: len(doc.Notebooks)}
			for _, nb := range doc.Notebooks {
				out.Notes += len(nb.Notes)
			}
			return s.out.Success(out)
		},
	}
	return cmd
}
