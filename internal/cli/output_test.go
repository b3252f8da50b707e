package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achapweske/silvernote/internal/model"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(Done{Action: "created", Kind: "note", ID: 42})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"action": "created", "kind": "note", "id": float64(42)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(CodeNotFound, "note 7 not found", map[string]int{"id": 7})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "note 7 not found", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextUsesTexter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(Done{Action: "purged", Kind: "notebook", ID: 3}))
	assert.Equal(t, "purged notebook 3\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(CodeUsage, "bad flag", map[string]string{"flag": "page"}))
	assert.Equal(t, "Error [USAGE]: bad flag\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(CodeUsage, "bad flag", map[string]string{"flag": "page"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestWrapError_Classifies(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"not found", fmt.Errorf("get note 1: %w", model.ErrNotFound), ExitNotFound, CodeNotFound},
		{"unauthorized", fmt.Errorf("open: %w", model.ErrUnauthorized), ExitUnauthorized, CodeUnauthorized},
		{"schema", fmt.Errorf("apply schema: %w", &model.SchemaError{Code: model.SchemaNewer}), ExitSchema, CodeSchema},
		{"invalid id", fmt.Errorf("create 0: %w", model.ErrInvalidID), ExitUsage, CodeUsage},
		{"other", errors.New("disk full"), ExitFailure, CodeStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError("op", tt.err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Equal(t, tt.wantKind, ErrorKind(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGetExitCode_PlainErrors(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, CodeUsage, ErrorKind(errors.New("unknown flag: --x")))
	assert.Equal(t, ExitUsage, GetExitCode(usageError("bad %s", "input")))
}

func TestFail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	code := formatter.Fail(wrapError("show note", model.ErrNotFound))
	assert.Equal(t, ExitNotFound, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "show note: not found", resp.Error.Message)
}

func TestFail_CarriesDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	code := formatter.Fail(&ExitError{Code: ExitFailure, Kind: CodeScenario, Message: "1 of 2 scenario(s) failed", Details: []string{"edit_then_sync"}})
	assert.Equal(t, ExitFailure, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, CodeScenario, resp.Error.Code)
	assert.Equal(t, []any{"edit_then_sync"}, resp.Error.Details)
}

func TestNoteView_TextAndJSON(t *testing.T) {
	v := newNoteView(model.Note{ID: 100, NotebookID: 7, Title: "Quarterly review", Text: "revenue numbers"})

	assert.Contains(t, v.Text(), "100: Quarterly review\n")
	assert.Contains(t, v.Text(), "\nrevenue numbers\n")
	assert.Contains(t, v.Text(), "categories: []\n")

	data, err := json.Marshal(v)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "revenue numbers", decoded["text"])
	assert.Equal(t, []any{}, decoded["categories"])
}
