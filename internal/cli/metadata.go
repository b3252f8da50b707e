package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/model"
)

// MetadataList is the sync projection printed by the metadata command.
type MetadataList []model.Metadata

func (l MetadataList) Text() string {
	var sb strings.Builder
	for _, md := range l {
		state := ""
		if md.IsDeleted {
			state = "\tdeleted"
		}
		fmt.Fprintf(&sb, "%d\t%s%s\n", md.ID, md.Hash, state)
	}
	return sb.String()
}

var metadataKinds = []string{"notebooks", "notes", "categories", "clipart-groups", "clipart"}

// NewMetadataCommand creates the metadata command.
func NewMetadataCommand(rootOpts *RootOptions) *cobra.Command {
	var notebook, group int64

	cmd := &cobra.Command{
		Use:   "metadata <kind>",
		Short: "Print the id/hash/deleted projection peers compare",
		Long: fmt.Sprintf(`Print the synchronization metadata of one kind of entity: its id, content
hash and tombstone flag. Kinds: %s.

Examples:
  silvernote metadata notebooks
  silvernote metadata notes --notebook 7
  silvernote metadata clipart --group 1`, strings.Join(metadataKinds, ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: metadataKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			md, err := s.metadata(ctx, args[0], notebook, group)
			if err != nil {
				return err
			}
			if md == nil {
				md = []model.Metadata{}
			}
			return s.out.Success(MetadataList(md))
		},
	}
	cmd.Flags().Int64Var(&notebook, "notebook", 0, "notebook id for notes and categories (default: selected notebook)")
	cmd.Flags().Int64Var(&group, "group", 0, "clipart group id (required for clipart)")
	return cmd
}

func (s *session) metadata(ctx context.Context, kind string, notebook, group int64) ([]model.Metadata, error) {
	var (
		md  []model.Metadata
		err error
	)
	switch kind {
	case "notebooks":
		md, err = s.store.GetNotebooksMetadata(ctx)
	case "notes", "categories":
		notebookID, nerr := s.notebook(ctx, notebook)
		if nerr != nil {
			return nil, nerr
		}
		if kind == "notes" {
			md, err = s.store.GetNotesMetadata(ctx, notebookID)
		} else {
			md, err = s.store.GetCategoriesMetadata(ctx, notebookID)
		}
	case "clipart-groups":
		md, err = s.store.GetClipartGroupsMetadata(ctx)
	case "clipart":
		if group == model.InvalidID {
			return nil, usageError("metadata clipart needs --group")
		}
		md, err = s.store.GetClipartMetadata(ctx, group)
	default:
		return nil, usageError("unknown kind %q: must be one of %v", kind, metadataKinds)
	}
	if err != nil {
		return nil, wrapError("read "+kind+" metadata", err)
	}
	return md, nil
}
