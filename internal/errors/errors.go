// Package errors provides sentinel errors and custom error types for gitkey.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for each failure category
var (
	// ErrValidation indicates a missing or malformed parameter
	ErrValidation = errors.New("validation failed")

	// ErrCredential indicates key material is missing or could not be registered
	ErrCredential = errors.New("credential error")

	// ErrKeyMissing indicates that an SSH key was required but not supplied
	ErrKeyMissing = errors.New("SSH key must be specified")

	// ErrProcess indicates that an external command failed to start or exited non-zero
	ErrProcess = errors.New("process failed")

	// ErrCleanup indicates that releasing a resource failed
	ErrCleanup = errors.New("cleanup failed")
)

// ValidationError represents a parameter that failed validation before any
// resource was acquired
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is returns true if the target error is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CredentialError represents a failure to produce or register key material
type CredentialError struct {
	Op  string
	Err error
}

func (e *CredentialError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("credential %s failed", e.Op)
	}
	return fmt.Sprintf("credential %s failed: %v", e.Op, e.Err)
}

// Is returns true if the target error is ErrCredential
func (e *CredentialError) Is(target error) bool {
	return target == ErrCredential
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// NewCredentialError creates a new CredentialError
func NewCredentialError(op string, err error) *CredentialError {
	return &CredentialError{Op: op, Err: err}
}

// ProcessError represents an error from an external command execution.
// It carries the captured output for diagnostics.
type ProcessError struct {
	Command  string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", strings.TrimRight(e.Stderr, "\n"))
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", strings.TrimRight(e.Stdout, "\n"))
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

// Is returns true if the target error is ErrProcess
func (e *ProcessError) Is(target error) bool {
	return target == ErrProcess
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// NewProcessError creates a new ProcessError
func NewProcessError(command string, args []string, stdout, stderr string, exitCode int, err error) *ProcessError {
	return &ProcessError{
		Command:  command,
		Args:     args,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Err:      err,
	}
}

// CleanupError collects the failures of best-effort release steps
type CleanupError struct {
	Errs []error
}

func (e *CleanupError) Error() string {
	parts := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		parts = append(parts, err.Error())
	}
	return "cleanup failed: " + strings.Join(parts, "; ")
}

// Is returns true if the target error is ErrCleanup
func (e *CleanupError) Is(target error) bool {
	return target == ErrCleanup
}

func (e *CleanupError) Unwrap() []error {
	return e.Errs
}

// NewCleanupError returns a CleanupError for the non-nil errors in errs,
// or nil if there are none.
func NewCleanupError(errs ...error) *CleanupError {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &CleanupError{Errs: kept}
}

// StepOutput is the output of one completed step of a multi-step operation
type StepOutput struct {
	Step   string
	Output string
}

// StepError reports which steps of a multi-step operation completed before
// one of them failed, e.g. a tag that was created but could not be pushed.
type StepError struct {
	Completed []StepOutput
	Err       error
}

func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString("results: {")
	for i, s := range e.Completed {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %q", s.Step, strings.TrimSpace(s.Output))
	}
	b.WriteString("}, error: ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a new StepError
func NewStepError(completed []StepOutput, err error) *StepError {
	return &StepError{Completed: completed, Err: err}
}
