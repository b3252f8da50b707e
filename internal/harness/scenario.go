package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/snapshot"
)

// Scenario defines one synchronization scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Peers names the stores the scenario opens, in order.
	Peers []string `yaml:"peers"`

	// Setup seeds peers before the flow. Each document replaces the
	// content of its peer.
	Setup []SetupStep `yaml:"setup,omitempty"`

	Flow []FlowStep `yaml:"flow"`

	// Assertions are checked after the whole flow has run.
	Assertions []Assertion `yaml:"assertions"`
}

// SetupStep imports a document into a peer.
type SetupStep struct {
	Peer     string            `yaml:"peer"`
	Document snapshot.Document `yaml:"document"`
}

// Flow actions.
const (
	ActionSync           = "sync"
	ActionNoteUpdate     = "note.update"
	ActionNoteDelete     = "note.delete"
	ActionCategoryDelete = "category.delete"
	ActionNotebookDelete = "notebook.delete"
)

// Sync modes.
const (
	ModeUpdate        = "update"
	ModeDeleteMissing = "delete-missing"
	ModeReplace       = "replace"
)

// FlowStep is one edit or sync.
type FlowStep struct {
	Action string `yaml:"action"`

	// Peer is the store edited by note and delete actions.
	Peer string `yaml:"peer,omitempty"`

	// From and To name the peers of a sync.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
	Mode string `yaml:"mode,omitempty"`

	Notebook int64 `yaml:"notebook,omitempty"`
	ID       int64 `yaml:"id,omitempty"`
	Purge    bool  `yaml:"purge,omitempty"`

	// Note is the patch merged by note.update.
	Note   *model.Note `yaml:"note,omitempty"`
	Create bool        `yaml:"create,omitempty"`

	// ExpectError is the error kind the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion types.
const (
	AssertSearchResults = "search_results"
	AssertNoteState     = "note_state"
	AssertMetadataEqual = "metadata_equal"
)

// Assertion checks the final state of one or more peers.
type Assertion struct {
	Type string `yaml:"type"`

	Peer  string   `yaml:"peer,omitempty"`
	Peers []string `yaml:"peers,omitempty"`

	// Notebook scopes search_results (0 searches all notebooks) and
	// identifies the note of note_state.
	Notebook int64 `yaml:"notebook,omitempty"`
	ID       int64 `yaml:"id,omitempty"`

	Query string  `yaml:"query,omitempty"`
	IDs   []int64 `yaml:"ids,omitempty"`

	// Expect holds the note_state fields to compare.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Error kinds a step may expect.
const (
	ErrorNotFound  = "not_found"
	ErrorInvalidID = "invalid_id"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// peer reference names a declared peer.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Peers) == 0 {
		return fmt.Errorf("peers list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(s.Peers))
	for _, p := range s.Peers {
		if p == "" {
			return fmt.Errorf("peer names must be non-empty")
		}
		if seen[p] {
			return fmt.Errorf("duplicate peer %q", p)
		}
		seen[p] = true
	}
	peer := func(where, name string) error {
		if !seen[name] {
			return fmt.Errorf("%s: unknown peer %q", where, name)
		}
		return nil
	}

	for i, step := range s.Setup {
		if err := peer(fmt.Sprintf("setup[%d]", i), step.Peer); err != nil {
			return err
		}
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	for i, step := range s.Flow {
		if err := validateStep(i, &step, peer); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, peer); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *FlowStep, peer func(where, name string) error) error {
	where := fmt.Sprintf("flow[%d]", index)
	switch step.Action {
	case "":
		return fmt.Errorf("%s: action is required", where)
	case ActionSync:
		if err := peer(where, step.From); err != nil {
			return err
		}
		if err := peer(where, step.To); err != nil {
			return err
		}
		if step.From == step.To {
			return fmt.Errorf("%s: sync needs two different peers", where)
		}
		if !slices.Contains([]string{"", ModeUpdate, ModeDeleteMissing, ModeReplace}, step.Mode) {
			return fmt.Errorf("%s: unknown sync mode %q", where, step.Mode)
		}
	case ActionNoteUpdate:
		if err := peer(where, step.Peer); err != nil {
			return err
		}
		if step.Note == nil {
			return fmt.Errorf("%s: note is required for %s", where, step.Action)
		}
	case ActionNoteDelete, ActionCategoryDelete:
		if err := peer(where, step.Peer); err != nil {
			return err
		}
		if step.Notebook == 0 {
			return fmt.Errorf("%s: notebook is required for %s", where, step.Action)
		}
	case ActionNotebookDelete:
		if err := peer(where, step.Peer); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: unknown action %q", where, step.Action)
	}
	if step.ExpectError != "" && step.ExpectError != ErrorNotFound && step.ExpectError != ErrorInvalidID {
		return fmt.Errorf("%s: unknown error kind %q", where, step.ExpectError)
	}
	return nil
}

func validateAssertion(index int, a *Assertion, peer func(where, name string) error) error {
	where := fmt.Sprintf("assertions[%d]", index)
	switch a.Type {
	case "":
		return fmt.Errorf("%s: type is required", where)
	case AssertSearchResults:
		return peer(where, a.Peer)
	case AssertNoteState:
		if err := peer(where, a.Peer); err != nil {
			return err
		}
		if a.Notebook == 0 || a.ID == 0 {
			return fmt.Errorf("%s: notebook and id are required for note_state", where)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("%s: expect is required for note_state", where)
		}
	case AssertMetadataEqual:
		if len(a.Peers) < 2 {
			return fmt.Errorf("%s: metadata_equal needs at least two peers", where)
		}
		for _, p := range a.Peers {
			if err := peer(where, p); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: unknown assertion type %q", where, a.Type)
	}
	return nil
}
