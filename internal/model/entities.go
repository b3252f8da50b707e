package model

import (
	"slices"
	"time"
)

// InvalidID is the zero identity; it never names an entity.
const InvalidID int64 = 0

// Pseudo-categories are computed from query semantics and never stored.
const (
	AllNotesCategoryID      int64 = 0
	UncategorizedCategoryID int64 = 1
)

// SentHashCurrent passed as LastSentHash means "the Hash computed by this
// write has already been sent".
const SentHashCurrent = "*"

// Repository is the root row of a store.
type Repository struct {
	UUID               string
	Version            int
	SelectedNotebookID int64
	UserID             string
}

// Metadata is the cheap projection peers compare during synchronization.
type Metadata struct {
	ID        int64  `json:"id" yaml:"id" msgpack:"id"`
	Hash      string `json:"hash" yaml:"hash" msgpack:"hash"`
	IsDeleted bool   `json:"is_deleted" yaml:"is_deleted" msgpack:"is_deleted"`
}

// HashTriple is embedded by every synchronized entity.
type HashTriple struct {
	Hash         string `json:"hash,omitempty" yaml:"hash,omitempty" msgpack:"hash,omitempty"`
	LastSentHash string `json:"last_sent_hash,omitempty" yaml:"last_sent_hash,omitempty" msgpack:"last_sent_hash,omitempty"`
	LastRecvHash string `json:"last_recv_hash,omitempty" yaml:"last_recv_hash,omitempty" msgpack:"last_recv_hash,omitempty"`
}

// empty reports whether no hash field is set.
func (h HashTriple) empty() bool {
	return h.Hash == "" && h.LastSentHash == "" && h.LastRecvHash == ""
}

// apply copies the set fields of patch over h.
func (h HashTriple) apply(patch HashTriple) HashTriple {
	if patch.Hash != "" {
		h.Hash = patch.Hash
	}
	if patch.LastSentHash != "" {
		h.LastSentHash = patch.LastSentHash
	}
	if patch.LastRecvHash != "" {
		h.LastRecvHash = patch.LastRecvHash
	}
	return h
}

// Outgoing keeps only Hash. The sent and received hashes describe one
// peer's exchanges and never travel to another peer.
func (h HashTriple) Outgoing() HashTriple {
	return HashTriple{Hash: h.Hash}
}

// Resolve replaces the SentHashCurrent sentinel with the given hash.
func (h HashTriple) Resolve(hash string) HashTriple {
	h.Hash = hash
	if h.LastSentHash == SentHashCurrent {
		h.LastSentHash = hash
	}
	return h
}

// Notebook owns notes and categories.
type Notebook struct {
	ID             int64   `json:"id" yaml:"id" msgpack:"id"`
	Name           string  `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	SelectedNoteID int64   `json:"selected_note_id,omitempty" yaml:"selected_note_id,omitempty" msgpack:"selected_note_id,omitempty"`
	OpenNotes      []int64 `json:"open_notes,omitempty" yaml:"open_notes,omitempty" msgpack:"open_notes,omitempty"`
	HashTriple     `yaml:",inline"`
	IsDeleted      bool `json:"is_deleted,omitempty" yaml:"is_deleted,omitempty" msgpack:"is_deleted,omitempty"`
}

func (n Notebook) Key() int64    { return n.ID }
func (n Notebook) Deleted() bool { return n.IsDeleted }

// EmptyPatch reports whether only the identity is set.
func (n Notebook) EmptyPatch() bool {
	return n.Name == "" && n.SelectedNoteID == 0 && n.OpenNotes == nil && n.HashTriple.empty() && !n.IsDeleted
}

// Apply merges the set fields of patch into n.
func (n Notebook) Apply(patch Notebook) Notebook {
	if patch.Name != "" {
		n.Name = patch.Name
	}
	if patch.SelectedNoteID != 0 {
		n.SelectedNoteID = patch.SelectedNoteID
	}
	if patch.OpenNotes != nil {
		n.OpenNotes = slices.Clone(patch.OpenNotes)
	}
	n.HashTriple = n.HashTriple.apply(patch.HashTriple)
	return n
}

// Tombstone returns the soft-deleted form of n.
func (n Notebook) Tombstone() Notebook {
	return Notebook{ID: n.ID, HashTriple: n.HashTriple, IsDeleted: true}
}

// Note is a single note. Text is the plain text fed to the full-text
// index; Content is the rich markup.
//
// Categories is always encoded. In a patch an empty list clears the
// note's categories and nil leaves them alone.
type Note struct {
	ID         int64     `json:"id" yaml:"id" msgpack:"id"`
	NotebookID int64     `json:"notebook_id" yaml:"notebook_id" msgpack:"notebook_id"`
	Title      string    `json:"title,omitempty" yaml:"title,omitempty" msgpack:"title,omitempty"`
	Content    string    `json:"content,omitempty" yaml:"content,omitempty" msgpack:"content,omitempty"`
	Text       string    `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`
	Categories []int64   `json:"categories" yaml:"categories" msgpack:"categories"`
	CreatedAt  time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty" msgpack:"created_at,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitzero" yaml:"modified_at,omitempty" msgpack:"modified_at,omitempty"`
	ViewedAt   time.Time `json:"viewed_at,omitzero" yaml:"viewed_at,omitempty" msgpack:"viewed_at,omitempty"`
	HashTriple `yaml:",inline"`
	IsDeleted  bool `json:"is_deleted,omitempty" yaml:"is_deleted,omitempty" msgpack:"is_deleted,omitempty"`
}

func (n Note) Key() int64    { return n.ID }
func (n Note) Deleted() bool { return n.IsDeleted }

// EmptyPatch reports whether only the identity is set.
func (n Note) EmptyPatch() bool {
	return n.Title == "" && n.Content == "" && n.Text == "" && n.Categories == nil &&
		n.CreatedAt.IsZero() && n.ModifiedAt.IsZero() && n.ViewedAt.IsZero() &&
		n.HashTriple.empty() && !n.IsDeleted
}

// Apply merges the set fields of patch into n. IsDeleted is never cleared:
// a tombstone stays a tombstone.
func (n Note) Apply(patch Note) Note {
	if patch.Title != "" {
		n.Title = patch.Title
	}
	if patch.Content != "" {
		n.Content = patch.Content
	}
	if patch.Text != "" {
		n.Text = patch.Text
	}
	if patch.Categories != nil {
		n.Categories = slices.Clone(patch.Categories)
	}
	if !patch.CreatedAt.IsZero() {
		n.CreatedAt = patch.CreatedAt
	}
	if !patch.ModifiedAt.IsZero() {
		n.ModifiedAt = patch.ModifiedAt
	}
	if !patch.ViewedAt.IsZero() {
		n.ViewedAt = patch.ViewedAt
	}
	n.HashTriple = n.HashTriple.apply(patch.HashTriple)
	return n
}

// Tombstone returns the soft-deleted form of n with heavy fields cleared.
func (n Note) Tombstone() Note {
	return Note{
		ID:         n.ID,
		NotebookID: n.NotebookID,
		CreatedAt:  n.CreatedAt,
		ModifiedAt: n.ModifiedAt,
		ViewedAt:   n.ViewedAt,
		HashTriple: n.HashTriple,
		IsDeleted:  true,
	}
}

// Category is a node of a notebook's category tree.
type Category struct {
	ID         int64  `json:"id" yaml:"id" msgpack:"id"`
	NotebookID int64  `json:"notebook_id" yaml:"notebook_id" msgpack:"notebook_id"`
	ParentID   int64  `json:"parent_id,omitempty" yaml:"parent_id,omitempty" msgpack:"parent_id,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	HashTriple `yaml:",inline"`
	IsDeleted  bool `json:"is_deleted,omitempty" yaml:"is_deleted,omitempty" msgpack:"is_deleted,omitempty"`
}

func (c Category) Key() int64    { return c.ID }
func (c Category) Deleted() bool { return c.IsDeleted }

// EmptyPatch reports whether only the identity is set.
func (c Category) EmptyPatch() bool {
	return c.ParentID == 0 && c.Name == "" && c.HashTriple.empty() && !c.IsDeleted
}

// Apply merges the set fields of patch into c.
func (c Category) Apply(patch Category) Category {
	if patch.ParentID != 0 {
		c.ParentID = patch.ParentID
	}
	if patch.Name != "" {
		c.Name = patch.Name
	}
	c.HashTriple = c.HashTriple.apply(patch.HashTriple)
	return c
}

// Tombstone returns the soft-deleted form of c.
func (c Category) Tombstone() Category {
	return Category{ID: c.ID, NotebookID: c.NotebookID, HashTriple: c.HashTriple, IsDeleted: true}
}

// ClipartGroup groups clipart items.
type ClipartGroup struct {
	ID         int64  `json:"id" yaml:"id" msgpack:"id"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	HashTriple `yaml:",inline"`
	IsDeleted  bool `json:"is_deleted,omitempty" yaml:"is_deleted,omitempty" msgpack:"is_deleted,omitempty"`
}

func (g ClipartGroup) Key() int64    { return g.ID }
func (g ClipartGroup) Deleted() bool { return g.IsDeleted }

// EmptyPatch reports whether only the identity is set.
func (g ClipartGroup) EmptyPatch() bool {
	return g.Name == "" && g.HashTriple.empty() && !g.IsDeleted
}

// Apply merges the set fields of patch into g.
func (g ClipartGroup) Apply(patch ClipartGroup) ClipartGroup {
	if patch.Name != "" {
		g.Name = patch.Name
	}
	g.HashTriple = g.HashTriple.apply(patch.HashTriple)
	return g
}

// Tombstone returns the soft-deleted form of g.
func (g ClipartGroup) Tombstone() ClipartGroup {
	return ClipartGroup{ID: g.ID, HashTriple: g.HashTriple, IsDeleted: true}
}

// Clipart is a named blob inside a ClipartGroup.
type Clipart struct {
	ID         int64  `json:"id" yaml:"id" msgpack:"id"`
	GroupID    int64  `json:"group_id" yaml:"group_id" msgpack:"group_id"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Data       []byte `json:"data,omitempty" yaml:"data,omitempty" msgpack:"data,omitempty"`
	HashTriple `yaml:",inline"`
	IsDeleted  bool `json:"is_deleted,omitempty" yaml:"is_deleted,omitempty" msgpack:"is_deleted,omitempty"`
}

func (c Clipart) Key() int64    { return c.ID }
func (c Clipart) Deleted() bool { return c.IsDeleted }

// EmptyPatch reports whether only the identity is set.
func (c Clipart) EmptyPatch() bool {
	return c.Name == "" && c.Data == nil && c.HashTriple.empty() && !c.IsDeleted
}

// Apply merges the set fields of patch into c.
func (c Clipart) Apply(patch Clipart) Clipart {
	if patch.Name != "" {
		c.Name = patch.Name
	}
	if patch.Data != nil {
		c.Data = slices.Clone(patch.Data)
	}
	c.HashTriple = c.HashTriple.apply(patch.HashTriple)
	return c
}

// Tombstone returns the soft-deleted form of c with its data dropped.
func (c Clipart) Tombstone() Clipart {
	return Clipart{ID: c.ID, GroupID: c.GroupID, HashTriple: c.HashTriple, IsDeleted: true}
}
