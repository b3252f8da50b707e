package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/achapweske/silvernote/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r TestResult) Text() string {
	var sb strings.Builder
	for _, s := range r.Scenarios {
		mark := "ok  "
		if !s.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&sb, "     %s\n", e)
		}
	}
	fmt.Fprintf(&sb, "%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	return sb.String()
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run sync scenarios against in-memory peers",
		Long: `Run every YAML sync scenario in a directory. Each scenario opens fresh
in-memory stores, runs its flow and checks its assertions. When a golden
file named after the scenario exists, the step trace must match it.

Golden files are read from --golden (default: the "golden" directory next
to the scenarios directory). --update rewrites them from the current run.

Examples:
  silvernote test ./testdata/scenarios
  silvernote test ./testdata/scenarios --filter "edit_*"
  silvernote test ./testdata/scenarios --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")
	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return usageError("scenarios directory not found: %s", dir)
	}
	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return usageError("%v", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := runScenario(file, goldenDir, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	out := opts.formatter(cmd)
	if result.Failed == 0 {
		return out.Success(result)
	}
	if out.Format != "json" {
		if err := out.Success(result); err != nil {
			return err
		}
	}
	return &ExitError{
		Code:    ExitFailure,
		Kind:    CodeScenario,
		Message: fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total),
		Details: result,
	}
}

// findScenarioFiles finds the YAML files under dir whose base name, without
// extension, matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if d.IsDir() || (ext != ".yaml" && ext != ".yml") {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func runScenario(file, goldenDir string, update bool) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{err.Error()},
		}
	}
	sr := ScenarioResult{Name: scenario.Name}

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	trace := []byte(result.TraceText())
	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")
	if update {
		if err := os.MkdirAll(goldenDir, 0o755); err != nil {
			sr.Errors = append(sr.Errors, fmt.Sprintf("update golden file: %v", err))
		} else if err := os.WriteFile(goldenPath, trace, 0o644); err != nil {
			sr.Errors = append(sr.Errors, fmt.Sprintf("update golden file: %v", err))
		}
	} else {
		want, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("read golden file: %v", err))
		case !bytes.Equal(want, trace):
			sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}
	sr.Pass = len(sr.Errors) == 0
	return sr
}
