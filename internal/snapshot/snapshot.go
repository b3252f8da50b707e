// Package snapshot reads and writes whole-repository documents and feeds
// them to the store's bulk reconciliation.
//
// A document lists notebooks with their categories and notes, plus the
// clipart library. It can be encoded as YAML for hand editing or as
// msgpack for compact transfer.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/achapweske/silvernote/internal/model"
)

// DocumentVersion is written into every document this package produces.
const DocumentVersion = 1

// Document is a snapshot of a repository.
type Document struct {
	Version   int            `yaml:"version" msgpack:"version"`
	Notebooks []Notebook     `yaml:"notebooks,omitempty" msgpack:"notebooks,omitempty"`
	Clipart   []ClipartGroup `yaml:"clipart,omitempty" msgpack:"clipart,omitempty"`
}

// Notebook is a notebook row with the rows it owns.
type Notebook struct {
	Notebook   model.Notebook   `yaml:"notebook" msgpack:"notebook"`
	Categories []model.Category `yaml:"categories,omitempty" msgpack:"categories,omitempty"`
	Notes      []model.Note     `yaml:"notes,omitempty" msgpack:"notes,omitempty"`
}

// ClipartGroup is a clipart group with its items.
type ClipartGroup struct {
	Group model.ClipartGroup `yaml:"group" msgpack:"group"`
	Items []model.Clipart    `yaml:"items,omitempty" msgpack:"items,omitempty"`
}

// Format selects a document encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown snapshot extension %q (want .yaml, .yml or .msgpack)", filepath.Ext(path))
	}
}

// Encode writes doc to w.
func Encode(w io.Writer, f Format, doc Document) error {
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.UseCompactInts(true)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode msgpack: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown snapshot format %q", f)
	}
}

// Decode reads a document from r.
func Decode(r io.Reader, f Format) (Document, error) {
	var doc Document
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("unknown snapshot format %q", f)
	}
	if doc.Version > DocumentVersion {
		return Document{}, fmt.Errorf("snapshot version %d is newer than supported version %d", doc.Version, DocumentVersion)
	}
	doc.Normalize()
	return doc, nil
}

// ReadFile decodes the document at path, choosing the format by extension.
func ReadFile(path string) (Document, error) {
	f, err := FormatFor(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(bytes.NewReader(data), f)
}

// WriteFile encodes doc to path, choosing the format by extension.
func WriteFile(path string, doc Document) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, f, doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Normalize fills owner IDs from the enclosing rows and puts timestamps in
// UTC, so both encodings decode to the same values. Decode calls it;
// documents built in memory should call it before Import.
func (doc *Document) Normalize() {
	for i := range doc.Notebooks {
		nb := &doc.Notebooks[i]
		for j := range nb.Categories {
			nb.Categories[j].NotebookID = nb.Notebook.ID
		}
		for j := range nb.Notes {
			n := &nb.Notes[j]
			n.NotebookID = nb.Notebook.ID
			n.CreatedAt = utc(n.CreatedAt)
			n.ModifiedAt = utc(n.ModifiedAt)
			n.ViewedAt = utc(n.ViewedAt)
		}
	}
	for i := range doc.Clipart {
		g := &doc.Clipart[i]
		for j := range g.Items {
			g.Items[j].GroupID = g.Group.ID
		}
	}
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC()
}
