package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/achapweske/silvernote/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Store or I/O failure
	ExitUsage        = 2 // Bad flags or arguments
	ExitNotFound     = 3 // Named entity does not exist
	ExitUnauthorized = 4 // Missing or wrong repository secret
	ExitSchema       = 5 // Repository schema cannot be brought up to date
)

// Error codes reported in CLIError.Code.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeSchema       = "SCHEMA"
	CodeStore        = "STORE"
	CodeUsage        = "USAGE"
	CodeScenario     = "SCENARIO_FAILED"
)

// ExitError carries an exit code and an error code out of a command.
type ExitError struct {
	Code    int    // Exit code
	Kind    string // Error code for the formatter (CodeNotFound, ...)
	Message string
	Err     error

	// Details is attached to the formatted error.
	Details any
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError reports bad input from the user.
func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Kind: CodeUsage, Message: fmt.Sprintf(format, args...)}
}

// wrapError classifies err by its sentinel or type.
func wrapError(message string, err error) *ExitError {
	e := &ExitError{Code: ExitFailure, Kind: CodeStore, Message: message, Err: err}
	switch {
	case errors.Is(err, model.ErrNotFound):
		e.Code, e.Kind = ExitNotFound, CodeNotFound
	case errors.Is(err, model.ErrUnauthorized):
		e.Code, e.Kind = ExitUnauthorized, CodeUnauthorized
	case model.IsSchemaError(err):
		e.Code, e.Kind = ExitSchema, CodeSchema
	case errors.Is(err, model.ErrInvalidID):
		e.Code, e.Kind = ExitUsage, CodeUsage
	}
	return e
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorKind extracts the error code; plain errors (cobra's flag errors
// among them) count as usage errors.
func ErrorKind(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Kind != "" {
		return exitErr.Kind
	}
	return CodeUsage
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// texter is implemented by results with a human-readable rendering.
type texter interface {
	Text() string
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if t, ok := data.(texter); ok {
		_, err := io.WriteString(f.Writer, t.Text())
		return err
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err through the formatter and returns its exit code.
func (f *OutputFormatter) Fail(err error) int {
	var details any
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		details = exitErr.Details
	}
	_ = f.Error(ErrorKind(err), err.Error(), details)
	return GetExitCode(err)
}
