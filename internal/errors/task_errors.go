package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryArtifact represents output store errors
	ErrorCategoryArtifact ErrorCategory = "ARTIFACT"
	// ErrorCategoryGraph represents dependency graph errors
	ErrorCategoryGraph ErrorCategory = "GRAPH"
	// ErrorCategoryExecution represents failures raised by a task itself
	ErrorCategoryExecution ErrorCategory = "EXECUTION"
	// ErrorCategoryScheduler represents remote scheduler submission errors
	ErrorCategoryScheduler ErrorCategory = "SCHEDULER"
	// ErrorCategoryConfiguration represents configuration errors
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryValidation represents invalid task parameters or input
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
)

// Sentinels for errors.Is matching against a *TaskError.
var (
	ErrArtifactMissing   = stderrors.New("artifact missing")
	ErrArtifactCorrupt   = stderrors.New("artifact corrupt")
	ErrDependencyCycle   = stderrors.New("dependency cycle")
	ErrExecutionFailure  = stderrors.New("execution failure")
	ErrSubmission        = stderrors.New("scheduler submission failed")
	ErrConfiguration     = stderrors.New("invalid configuration")
	ErrInvalidParameters = stderrors.New("invalid task parameters")
)

// TaskError represents a structured error with context and troubleshooting information
type TaskError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error

	kind error
}

// Error implements the error interface
func (e *TaskError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		sb.WriteString("\nContext:")
		for _, key := range e.contextKeys() {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, e.Context[key]))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *TaskError) Unwrap() error {
	return e.OriginalError
}

// Is reports whether target is the sentinel this error was built from.
func (e *TaskError) Is(target error) bool {
	return e.kind != nil && e.kind == target
}

func (e *TaskError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewTaskError creates a new task error with the specified parameters
func NewTaskError(category ErrorCategory, code, message, operation string) *TaskError {
	return &TaskError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *TaskError) WithContext(key string, value interface{}) *TaskError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *TaskError) WithTroubleshooting(steps ...string) *TaskError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the original error to the task error
func (e *TaskError) WithOriginalError(err error) *TaskError {
	e.OriginalError = err
	return e
}

func (e *TaskError) withKind(kind error) *TaskError {
	e.kind = kind
	return e
}

// As is a convenience wrapper around the standard library errors.As for *TaskError.
func As(err error) (*TaskError, bool) {
	var taskErr *TaskError
	if stderrors.As(err, &taskErr) {
		return taskErr, true
	}
	return nil, false
}

// Is forwards to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
