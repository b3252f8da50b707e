package snapshot

import (
	"context"
	"fmt"

	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
)

// Source is the read side of a repository used by Export.
type Source interface {
	GetNotebooks(ctx context.Context) ([]model.Notebook, error)
	GetCategories(ctx context.Context, notebookID int64) ([]model.Category, error)
	GetNotes(ctx context.Context, notebookID int64) ([]model.Note, error)
	GetClipartGroupsMetadata(ctx context.Context) ([]model.Metadata, error)
	GetClipartGroup(ctx context.Context, groupID int64) (model.ClipartGroup, error)
	GetClipartMetadata(ctx context.Context, groupID int64) ([]model.Metadata, error)
	GetClipart(ctx context.Context, groupID, clipartID int64) (model.Clipart, error)
}

// Sink is the bulk write side of a repository used by Import.
type Sink interface {
	SetNotebooks(ctx context.Context, notebooks []model.Notebook) (merge.Plan[model.Notebook], error)
	UpdateNotebooks(ctx context.Context, notebooks []model.Notebook, deleteMissing bool) (merge.Plan[model.Notebook], error)
	SetCategories(ctx context.Context, notebookID int64, categories []model.Category) (merge.Plan[model.Category], error)
	UpdateCategories(ctx context.Context, notebookID int64, categories []model.Category, deleteMissing bool) (merge.Plan[model.Category], error)
	SetNotes(ctx context.Context, notebookID int64, notes []model.Note) (merge.Plan[model.Note], error)
	UpdateNotes(ctx context.Context, notebookID int64, notes []model.Note, deleteMissing bool) (merge.Plan[model.Note], error)
	SetClipartGroups(ctx context.Context, groups []model.ClipartGroup) (merge.Plan[model.ClipartGroup], error)
	UpdateClipartGroup(ctx context.Context, patch model.ClipartGroup, opts merge.UpdateOptions) error
	UpdateClipartItems(ctx context.Context, groupID int64, items []model.Clipart, deleteMissing bool) (merge.Plan[model.Clipart], error)
}

// Export reads the whole repository. Tombstones are skipped; the plain
// text of notes is left out because the store derives it from content.
// Rows carry only their Hash of the hash triple, and every note carries a
// non-nil category list so an importing peer clears memberships the
// source no longer has.
func Export(ctx context.Context, src Source) (Document, error) {
	doc := Document{Version: DocumentVersion}

	notebooks, err := src.GetNotebooks(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export: %w", err)
	}
	for _, nb := range notebooks {
		if nb.IsDeleted {
			continue
		}
		nb.HashTriple = nb.HashTriple.Outgoing()
		entry := Notebook{Notebook: nb}

		categories, err := src.GetCategories(ctx, nb.ID)
		if err != nil {
			return Document{}, fmt.Errorf("export notebook %d: %w", nb.ID, err)
		}
		for _, c := range categories {
			if !c.IsDeleted {
				c.HashTriple = c.HashTriple.Outgoing()
				entry.Categories = append(entry.Categories, c)
			}
		}

		notes, err := src.GetNotes(ctx, nb.ID)
		if err != nil {
			return Document{}, fmt.Errorf("export notebook %d: %w", nb.ID, err)
		}
		for _, n := range notes {
			if n.IsDeleted {
				continue
			}
			n.Text = ""
			if n.Categories == nil {
				n.Categories = []int64{}
			}
			n.HashTriple = n.HashTriple.Outgoing()
			entry.Notes = append(entry.Notes, n)
		}
		doc.Notebooks = append(doc.Notebooks, entry)
	}

	groups, err := src.GetClipartGroupsMetadata(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export clipart: %w", err)
	}
	for _, md := range groups {
		if md.IsDeleted {
			continue
		}
		g, err := src.GetClipartGroup(ctx, md.ID)
		if err != nil {
			return Document{}, fmt.Errorf("export clipart: %w", err)
		}
		g.HashTriple = g.HashTriple.Outgoing()
		entry := ClipartGroup{Group: g}
		items, err := src.GetClipartMetadata(ctx, g.ID)
		if err != nil {
			return Document{}, fmt.Errorf("export clipart group %d: %w", g.ID, err)
		}
		for _, im := range items {
			if im.IsDeleted {
				continue
			}
			c, err := src.GetClipart(ctx, g.ID, im.ID)
			if err != nil {
				return Document{}, fmt.Errorf("export clipart group %d: %w", g.ID, err)
			}
			c.HashTriple = c.HashTriple.Outgoing()
			entry.Items = append(entry.Items, c)
		}
		doc.Clipart = append(doc.Clipart, entry)
	}
	return doc, nil
}

// Mode selects how Import treats rows missing from the document.
type Mode struct {
	// Replace makes the repository match the document: missing rows are
	// purged, except clipart items, which are tombstoned.
	Replace bool

	// DeleteMissing tombstones missing rows when Replace is off.
	DeleteMissing bool
}

// Counts tallies the work of one entity kind.
type Counts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

func (c *Counts) add(removed, created, updated int) {
	c.Removed += removed
	c.Created += created
	c.Updated += updated
}

// Summary is what Import did.
type Summary struct {
	Notebooks  Counts `json:"notebooks"`
	Categories Counts `json:"categories"`
	Notes      Counts `json:"notes"`
	Clipart    Counts `json:"clipart"`
}

func tally[T merge.Entity](c *Counts, p merge.Plan[T]) {
	c.add(len(p.Remove), len(p.Create), len(p.Update))
}

// Import reconciles the repository with doc: notebooks first, then the
// categories and notes of each notebook, then clipart.
func Import(ctx context.Context, dst Sink, doc Document, mode Mode) (Summary, error) {
	var sum Summary

	notebooks := make([]model.Notebook, 0, len(doc.Notebooks))
	for _, nb := range doc.Notebooks {
		notebooks = append(notebooks, nb.Notebook)
	}
	var nbPlan merge.Plan[model.Notebook]
	var err error
	if mode.Replace {
		nbPlan, err = dst.SetNotebooks(ctx, notebooks)
	} else {
		nbPlan, err = dst.UpdateNotebooks(ctx, notebooks, mode.DeleteMissing)
	}
	if err != nil {
		return sum, fmt.Errorf("import notebooks: %w", err)
	}
	tally(&sum.Notebooks, nbPlan)

	for _, nb := range doc.Notebooks {
		id := nb.Notebook.ID
		var cPlan merge.Plan[model.Category]
		if mode.Replace {
			cPlan, err = dst.SetCategories(ctx, id, nb.Categories)
		} else {
			cPlan, err = dst.UpdateCategories(ctx, id, nb.Categories, mode.DeleteMissing)
		}
		if err != nil {
			return sum, fmt.Errorf("import categories of notebook %d: %w", id, err)
		}
		tally(&sum.Categories, cPlan)

		var nPlan merge.Plan[model.Note]
		if mode.Replace {
			nPlan, err = dst.SetNotes(ctx, id, nb.Notes)
		} else {
			nPlan, err = dst.UpdateNotes(ctx, id, nb.Notes, mode.DeleteMissing)
		}
		if err != nil {
			return sum, fmt.Errorf("import notes of notebook %d: %w", id, err)
		}
		tally(&sum.Notes, nPlan)
	}

	if mode.Replace {
		groups := make([]model.ClipartGroup, 0, len(doc.Clipart))
		for _, g := range doc.Clipart {
			groups = append(groups, g.Group)
		}
		gPlan, err := dst.SetClipartGroups(ctx, groups)
		if err != nil {
			return sum, fmt.Errorf("import clipart: %w", err)
		}
		tally(&sum.Clipart, gPlan)
	} else {
		for _, g := range doc.Clipart {
			err := dst.UpdateClipartGroup(ctx, g.Group, merge.UpdateOptions{AutoCreate: true})
			if err != nil {
				return sum, fmt.Errorf("import clipart group %d: %w", g.Group.ID, err)
			}
			sum.Clipart.Updated++
		}
	}
	for _, g := range doc.Clipart {
		iPlan, err := dst.UpdateClipartItems(ctx, g.Group.ID, g.Items, mode.Replace || mode.DeleteMissing)
		if err != nil {
			return sum, fmt.Errorf("import clipart group %d: %w", g.Group.ID, err)
		}
		tally(&sum.Clipart, iPlan)
	}
	return sum, nil
}
