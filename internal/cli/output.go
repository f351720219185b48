package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/fusionscope/internal/runtime"
	"github.com/roach88/fusionscope/internal/store"
	"github.com/roach88/fusionscope/internal/workload"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Runtime failure (workload step failed, stream empty, integrity mismatch)
	ExitCommandError = 2 // Command error (bad flags, unreadable files, database not found)
)

// Error codes reported in the JSON envelope.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeWorkload      = "E002" // Workload file invalid
	ErrCodeRuntime       = "E003" // Workload step rejected by the runtime
	ErrCodeStreamEmpty   = "E004" // Stream unknown or drained
	ErrCodeNotFound      = "E005" // Capture not found
	ErrCodeStore         = "E006" // Archive error
	ErrCodeWriteFailed   = "E007" // Output file write error
	ErrCodeIntegrity     = "E008" // Stored fingerprint mismatch
	ErrCodeInvalidConfig = "E009" // Config file or flag value invalid
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	ErrCode string // Envelope code; derived from Err when empty
	Message string
	Err     error // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, errCode, message string) *ExitError {
	return &ExitError{Code: code, ErrCode: errCode, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode picks the envelope code for err.
func ErrorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		return exitErr.ErrCode
	}
	var (
		loadErr      *workload.LoadError
		rtErr        *runtime.Error
		integrityErr *store.IntegrityError
	)
	switch {
	case errors.As(err, &loadErr):
		return ErrCodeWorkload
	case errors.As(err, &rtErr):
		return ErrCodeRuntime
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound
	case errors.As(err, &integrityErr):
		return ErrCodeIntegrity
	default:
		return ErrCodeGeneric
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	// Color enables colored banners in text output.
	Color bool
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

// Emit writes data in the JSON envelope, or text verbatim in text mode.
func (f *OutputFormatter) Emit(data any, text string) error {
	if f.Format == "json" {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := io.WriteString(f.Writer, text)
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

// Banner returns a section heading line, colored when enabled.
func (f *OutputFormatter) Banner(title string) string {
	c := color.New(color.FgCyan, color.Bold)
	if f.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf("=== %s ===", title) + "\n"
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
