package model

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// Domain prefixes for content fingerprints.
// The version suffix allows the fingerprint algorithm to change later.
const (
	DomainNotebook     = "silvernote/notebook/v1"
	DomainNote         = "silvernote/note/v1"
	DomainCategory     = "silvernote/category/v1"
	DomainClipartGroup = "silvernote/clipart-group/v1"
	DomainClipart      = "silvernote/clipart/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// hashFields fingerprints fields under domain. Fields are built by the
// functions below from supported types only, so marshaling cannot fail.
func hashFields(domain string, fields map[string]any) string {
	data, err := marshalCanonical(fields)
	if err != nil {
		panic(err)
	}
	return hashWithDomain(domain, data)
}

// NotebookHash fingerprints the synchronized content of a notebook.
// Selection and open-note state are local view state and not included.
func NotebookHash(n Notebook) string {
	return hashFields(DomainNotebook, map[string]any{
		"name":    n.Name,
		"deleted": n.IsDeleted,
	})
}

// NoteHash fingerprints a note's title, content, notebook and categories.
// Timestamps are not part of the fingerprint.
func NoteHash(n Note) string {
	cats := slices.Clone(n.Categories)
	slices.Sort(cats)
	cats = slices.Compact(cats)
	if cats == nil {
		cats = []int64{}
	}
	return hashFields(DomainNote, map[string]any{
		"notebook_id": n.NotebookID,
		"title":       n.Title,
		"content":     n.Content,
		"categories":  cats,
		"deleted":     n.IsDeleted,
	})
}

// CategoryHash fingerprints a category's name and position in the tree.
func CategoryHash(c Category) string {
	return hashFields(DomainCategory, map[string]any{
		"notebook_id": c.NotebookID,
		"parent_id":   c.ParentID,
		"name":        c.Name,
		"deleted":     c.IsDeleted,
	})
}

// ClipartGroupHash fingerprints a clipart group.
func ClipartGroupHash(g ClipartGroup) string {
	return hashFields(DomainClipartGroup, map[string]any{
		"name":    g.Name,
		"deleted": g.IsDeleted,
	})
}

// ClipartHash fingerprints a clipart item including its data.
func ClipartHash(c Clipart) string {
	data := c.Data
	if data == nil {
		data = []byte{}
	}
	return hashFields(DomainClipart, map[string]any{
		"group_id": c.GroupID,
		"name":     c.Name,
		"data":     data,
		"deleted":  c.IsDeleted,
	})
}
