package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/achapweske/silvernote/internal/logging"
	"github.com/achapweske/silvernote/internal/merge"
	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/snapshot"
	"github.com/achapweske/silvernote/internal/store"
	"github.com/achapweske/silvernote/internal/testutil"
)

// Harness holds the peers of one scenario run. All peers share one
// deterministic clock.
type Harness struct {
	peers map[string]*store.Store
	clock *testutil.DeterministicClock
	log   logging.Logger
}

// Run executes a scenario and returns the result.
//
// Each peer is a fresh in-memory store. Execution flow:
//  1. Open one store per peer
//  2. Import every setup document (replace mode)
//  3. Run the flow steps in order, recording each in the trace
//  4. Evaluate the assertions
//
// Run returns an error only when the harness itself cannot proceed: the
// scenario is invalid, a store fails to open, or a setup import fails. Step
// and assertion failures are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	h := &Harness{
		peers: make(map[string]*store.Store, len(scenario.Peers)),
		clock: testutil.NewDeterministicClock(),
		log:   logging.Nop(),
	}
	defer h.close()

	for _, name := range scenario.Peers {
		s, err := store.Open(ctx, ":memory:", store.Options{User: name, Clock: h.clock, Logger: h.log})
		if err != nil {
			return nil, fmt.Errorf("open peer %q: %w", name, err)
		}
		h.peers[name] = s
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		doc := step.Document
		doc.Normalize()
		sum, err := snapshot.Import(ctx, h.peers[step.Peer], doc, snapshot.Mode{Replace: true})
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		result.record("import", step.Peer, summarize(sum))
	}

	for i, step := range scenario.Flow {
		h.runStep(ctx, i, step, result)
	}

	for i, a := range scenario.Assertions {
		if err := h.check(ctx, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}
	return result, nil
}

func (h *Harness) close() {
	for _, s := range h.peers {
		s.Close()
	}
}

// runStep executes one flow step and records it. A step that fails when it
// should not, or succeeds when it should fail, is a result error.
func (h *Harness) runStep(ctx context.Context, index int, step FlowStep, result *Result) {
	peer := step.Peer
	outcome := "ok"
	var err error

	switch step.Action {
	case ActionSync:
		peer = step.From + "->" + step.To
		var sum snapshot.Summary
		sum, err = h.sync(ctx, step)
		if err == nil {
			outcome = summarize(sum)
		}
	case ActionNoteUpdate:
		patch := *step.Note
		if patch.NotebookID == 0 {
			patch.NotebookID = step.Notebook
		}
		err = h.peers[step.Peer].UpdateNote(ctx, patch, merge.UpdateOptions{AutoCreate: step.Create})
	case ActionNoteDelete:
		err = h.peers[step.Peer].DeleteNote(ctx, step.Notebook, step.ID, step.Purge)
	case ActionCategoryDelete:
		err = h.peers[step.Peer].DeleteCategory(ctx, step.Notebook, step.ID, step.Purge)
	case ActionNotebookDelete:
		err = h.peers[step.Peer].DeleteNotebook(ctx, step.ID, step.Purge)
	}

	if err != nil {
		kind := errorKind(err)
		outcome = "error " + kind
		if kind != step.ExpectError {
			result.AddError(fmt.Sprintf("flow[%d] (%s): %v", index, step.Action, err))
		}
	} else if step.ExpectError != "" {
		result.AddError(fmt.Sprintf("flow[%d] (%s): expected %s error, got success",
			index, step.Action, step.ExpectError))
	}
	result.record(step.Action, peer, outcome)
}

// sync exports the source peer and imports the document into the target.
func (h *Harness) sync(ctx context.Context, step FlowStep) (snapshot.Summary, error) {
	doc, err := snapshot.Export(ctx, h.peers[step.From])
	if err != nil {
		return snapshot.Summary{}, err
	}
	var mode snapshot.Mode
	switch step.Mode {
	case ModeReplace:
		mode.Replace = true
	case ModeDeleteMissing:
		mode.DeleteMissing = true
	}
	return snapshot.Import(ctx, h.peers[step.To], doc, mode)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return ErrorNotFound
	case errors.Is(err, model.ErrInvalidID):
		return ErrorInvalidID
	default:
		return "other"
	}
}

func summarize(sum snapshot.Summary) string {
	return fmt.Sprintf("notebooks %s categories %s notes %s clipart %s",
		counts(sum.Notebooks), counts(sum.Categories), counts(sum.Notes), counts(sum.Clipart))
}

func counts(c snapshot.Counts) string {
	return fmt.Sprintf("+%d~%d-%d", c.Created, c.Updated, c.Removed)
}
