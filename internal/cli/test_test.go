package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: copy_note
description: "A note created on a reaches b"
peers: [a, b]
setup:
  - peer: a
    document:
      version: 1
      notebooks:
        - notebook: {id: 1, name: Main}
          notes:
            - {id: 5, title: Hello, content: "<p>hello world</p>"}
flow:
  - action: sync
    from: a
    to: b
assertions:
  - type: search_results
    peer: b
    query: hello
    ids: [5]
  - type: metadata_equal
    peers: [a, b]
`

const failingScenario = `
name: wrong_expectation
description: "Expects a note that was never synced"
peers: [a, b]
setup:
  - peer: a
    document:
      version: 1
      notebooks:
        - notebook: {id: 1, name: Main}
          notes:
            - {id: 5, title: Hello}
flow:
  - action: note.delete
    peer: a
    notebook: 1
    id: 5
assertions:
  - type: note_state
    peer: b
    notebook: 1
    id: 5
    expect: {title: Hello}
`

// scenarioDir writes scenarios into <tmp>/scenarios and returns that path.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func runTestCommand(t *testing.T, args ...string) (response, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), append([]string{"--format", "json", "test"}, args...), &stdout, &stderr)
	var resp response
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp), "stdout: %s\nstderr: %s", stdout.String(), stderr.String())
	return resp, code
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"copy_note.yaml": passingScenario})

	resp, code := runTestCommand(t, dir, "--update")
	require.Equal(t, ExitSuccess, code, "%+v", resp.Error)

	golden := filepath.Join(filepath.Dir(dir), "golden", "copy_note.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t,
		"01 import a: notebooks +1~0-0 categories +0~0-0 notes +1~0-0 clipart +0~0-0\n"+
			"02 sync a->b: notebooks +1~0-0 categories +0~0-0 notes +1~0-0 clipart +0~0-0\n",
		string(data))

	var result TestResult
	resp, code = runTestCommand(t, dir)
	require.Equal(t, ExitSuccess, code)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, TestResult{
		Scenarios: []ScenarioResult{{Name: "copy_note", Pass: true}},
		Passed:    1,
		Total:     1,
	}, result)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"copy_note.yaml": passingScenario})
	goldenDir := filepath.Join(t.TempDir(), "golden")
	require.NoError(t, os.MkdirAll(goldenDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "copy_note.golden"), []byte("stale\n"), 0o644))

	resp, code := runTestCommand(t, dir, "--golden", goldenDir)
	assert.Equal(t, ExitFailure, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeScenario, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "1 of 1")
}

func TestTestCommand_FailingScenarioAndFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"copy_note.yaml":         passingScenario,
		"wrong_expectation.yaml": failingScenario,
	})

	resp, code := runTestCommand(t, dir, "--filter", "copy_*")
	assert.Equal(t, ExitSuccess, code, "%+v", resp.Error)

	var stdout, stderr bytes.Buffer
	code = Execute(context.Background(), []string{"test", dir}, &stdout, &stderr)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout.String(), "ok   copy_note")
	assert.Contains(t, stdout.String(), "FAIL wrong_expectation")
	assert.Contains(t, stdout.String(), "1 passed, 1 failed, 2 total")
	assert.Contains(t, stderr.String(), "SCENARIO_FAILED")
}

func TestTestCommand_MissingDir(t *testing.T) {
	resp, code := runTestCommand(t, filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, ExitUsage, code)
	assert.Equal(t, CodeUsage, resp.Error.Code)
}
