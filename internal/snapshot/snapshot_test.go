package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achapweske/silvernote/internal/model"
)

func sampleDocument() Document {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return Document{
		Version: DocumentVersion,
		Notebooks: []Notebook{{
			Notebook: model.Notebook{ID: 7, Name: "Main", OpenNotes: []int64{100}},
			Categories: []model.Category{
				{ID: 10, NotebookID: 7, Name: "Work"},
				{ID: 11, NotebookID: 7, ParentID: 10, Name: "Meetings"},
			},
			Notes: []model.Note{{
				ID:         100,
				NotebookID: 7,
				Title:      "Quarterly review",
				Content:    "<p>revenue numbers</p>",
				Categories: []int64{10, 11},
				CreatedAt:  created,
				ModifiedAt: created.Add(time.Hour),
				ViewedAt:   created.Add(2 * time.Hour),
			}},
		}},
		Clipart: []ClipartGroup{{
			Group: model.ClipartGroup{ID: 1, Name: "Shapes"},
			Items: []model.Clipart{{ID: 5, GroupID: 1, Name: "circle", Data: []byte("<svg/>")}},
		}},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatYAML, FormatMsgpack} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, sampleDocument()))

			got, err := Decode(&buf, f)
			require.NoError(t, err)
			assert.Equal(t, sampleDocument(), got)
		})
	}
}

func TestRoundTrip_KeepsEmptyCategories(t *testing.T) {
	for _, f := range []Format{FormatYAML, FormatMsgpack} {
		t.Run(string(f), func(t *testing.T) {
			doc := sampleDocument()
			doc.Notebooks[0].Notes[0].Categories = []int64{}

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, doc))
			got, err := Decode(&buf, f)
			require.NoError(t, err)

			cats := got.Notebooks[0].Notes[0].Categories
			assert.NotNil(t, cats)
			assert.Empty(t, cats)
		})
	}
}

func TestEncode_StampsVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, Document{}))
	assert.Contains(t, buf.String(), "version: 1")
}

func TestDecode_FillsOwnerIDs(t *testing.T) {
	src := `
version: 1
notebooks:
  - notebook:
      id: 7
      name: Main
    categories:
      - id: 10
        name: Work
    notes:
      - id: 100
        title: Draft
        created_at: 2024-01-02T03:04:05Z
clipart:
  - group:
      id: 1
      name: Shapes
    items:
      - id: 5
        name: circle
`
	doc, err := Decode(bytes.NewBufferString(src), FormatYAML)
	require.NoError(t, err)

	nb := doc.Notebooks[0]
	assert.Equal(t, int64(7), nb.Categories[0].NotebookID)
	assert.Equal(t, int64(7), nb.Notes[0].NotebookID)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), nb.Notes[0].CreatedAt)
	assert.Equal(t, int64(1), doc.Clipart[0].Items[0].GroupID)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"newer version", "version: 2\n"},
		{"unknown field", "version: 1\nshelves: []\n"},
		{"malformed", "notebooks: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewBufferString(tt.src), FormatYAML)
			assert.Error(t, err)
		})
	}
}

func TestDecode_EmptyYAML(t *testing.T) {
	doc, err := Decode(bytes.NewBufferString(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, doc.Notebooks)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"backup.yaml", FormatYAML, false},
		{"backup.YML", FormatYAML, false},
		{"dir/backup.msgpack", FormatMsgpack, false},
		{"backup.json", "", true},
		{"backup", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"snap.yaml", "snap.msgpack"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, sampleDocument()))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, sampleDocument(), got)
		})
	}
}
