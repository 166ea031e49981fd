package errors

import (
	"fmt"
	"strings"
)

// Common error codes
const (
	// Artifact error codes
	CodeArtifactMissing = "001"
	CodeArtifactCorrupt = "002"
	CodeArtifactWrite   = "003"
	CodeArtifactDelete  = "004"

	// Graph error codes
	CodeDependencyCycle = "001"

	// Execution error codes
	CodeExecutionFailed   = "001"
	CodeExecutionNoOutput = "002"
	CodeExecutionPanic    = "003"

	// Scheduler error codes
	CodeSubmissionFailed   = "001"
	CodeSubmissionRejected = "002"

	// Configuration and validation error codes
	CodeConfigurationInvalid = "001"
	CodeParametersInvalid    = "001"
)

// NewArtifactMissingError creates an error for a read on a task with no completed output
func NewArtifactMissingError(identity, path string) *TaskError {
	return NewTaskError(ErrorCategoryArtifact, CodeArtifactMissing,
		fmt.Sprintf("No artifact for task '%s'", identity),
		"Artifact read").
		WithContext("identity", identity).
		WithContext("path", path).
		WithTroubleshooting(
			"Run the task first: 'gasrun run <kind> --param ...'",
			"Check that cache_root points at the expected directory",
		).
		withKind(ErrArtifactMissing)
}

// NewArtifactCorruptError creates an error for an artifact that exists but cannot be decoded
func NewArtifactCorruptError(identity, path string, originalErr error) *TaskError {
	return NewTaskError(ErrorCategoryArtifact, CodeArtifactCorrupt,
		fmt.Sprintf("Artifact for task '%s' cannot be decoded", identity),
		"Artifact read").
		WithContext("identity", identity).
		WithContext("path", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Inspect the file directly before deleting it",
			"Check that the configured codec matches the one used to write it",
			"Recompute with 'gasrun run <kind> --force' once the cause is understood",
		).
		withKind(ErrArtifactCorrupt)
}

// NewArtifactWriteError creates an error for a failed atomic write
func NewArtifactWriteError(identity, path string, originalErr error) *TaskError {
	return NewTaskError(ErrorCategoryArtifact, CodeArtifactWrite,
		fmt.Sprintf("Failed to write artifact for task '%s'", identity),
		"Artifact write").
		WithContext("identity", identity).
		WithContext("path", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Verify the cache directory is writable and not full",
		)
}

// NewArtifactDeleteError creates an error for a failed artifact removal
func NewArtifactDeleteError(identity, path string, originalErr error) *TaskError {
	return NewTaskError(ErrorCategoryArtifact, CodeArtifactDelete,
		fmt.Sprintf("Failed to delete artifact for task '%s'", identity),
		"Artifact delete").
		WithContext("identity", identity).
		WithContext("path", path).
		WithOriginalError(originalErr)
}

// NewDependencyCycleError creates an error for a task graph that recurses into itself
func NewDependencyCycleError(path []string) *TaskError {
	return NewTaskError(ErrorCategoryGraph, CodeDependencyCycle,
		"Dependency cycle: "+strings.Join(path, " -> "),
		"Dependency resolution").
		WithContext("cycle", path).
		WithTroubleshooting(
			"Check the Requires implementation of every task on the path",
			"A task must never depend on a task with its own kind and parameters",
		).
		withKind(ErrDependencyCycle)
}

// NewExecutionError creates an error for a task whose routine failed
func NewExecutionError(identity, operation string, originalErr error) *TaskError {
	msg := fmt.Sprintf("Task '%s' failed", identity)
	if originalErr != nil {
		msg = fmt.Sprintf("Task '%s' failed: %v", identity, originalErr)
	}
	return NewTaskError(ErrorCategoryExecution, CodeExecutionFailed, msg, operation).
		WithContext("identity", identity).
		WithOriginalError(originalErr).
		withKind(ErrExecutionFailure)
}

// NewNoOutputError creates an error for a task that returned without writing its artifact
func NewNoOutputError(identity string) *TaskError {
	return NewTaskError(ErrorCategoryExecution, CodeExecutionNoOutput,
		fmt.Sprintf("Task '%s' finished without saving an output", identity),
		"Task run").
		WithContext("identity", identity).
		WithTroubleshooting(
			"Call rc.Save with the task result before Run returns",
		).
		withKind(ErrExecutionFailure)
}

// NewPanicError creates an error for a task routine that panicked
func NewPanicError(identity, operation string, recovered interface{}) *TaskError {
	return NewTaskError(ErrorCategoryExecution, CodeExecutionPanic,
		fmt.Sprintf("Task '%s' panicked: %v", identity, recovered),
		operation).
		WithContext("identity", identity).
		withKind(ErrExecutionFailure)
}

// NewSubmissionError creates an error for a failed scheduler submission
func NewSubmissionError(endpoint string, originalErr error) *TaskError {
	errMsg := "Scheduler submission failed"
	if originalErr != nil {
		errMsg = fmt.Sprintf("Scheduler submission failed: %v", originalErr)
	}

	err := NewTaskError(ErrorCategoryScheduler, CodeSubmissionFailed, errMsg, "Task submission").
		WithContext("endpoint", endpoint).
		WithOriginalError(originalErr).
		withKind(ErrSubmission)

	if originalErr != nil {
		errStr := strings.ToLower(originalErr.Error())
		if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
			err = err.WithTroubleshooting(
				"Check that the scheduler daemon is running",
				"Verify scheduler.host and scheduler.port in the configuration",
				"Use --local for a quick run without the shared scheduler",
			)
		} else {
			err = err.WithTroubleshooting(
				"Check the scheduler logs for details",
				"Try the submission again after a brief delay",
			)
		}
	}

	return err
}

// NewSubmissionRejectedError creates an error for a submission the scheduler refused
func NewSubmissionRejectedError(endpoint, reason string) *TaskError {
	return NewTaskError(ErrorCategoryScheduler, CodeSubmissionRejected,
		fmt.Sprintf("Scheduler rejected submission: %s", reason),
		"Task submission").
		WithContext("endpoint", endpoint).
		withKind(ErrSubmission)
}

// NewConfigurationError creates an error for an invalid configuration value
func NewConfigurationError(field, message string) *TaskError {
	return NewTaskError(ErrorCategoryConfiguration, CodeConfigurationInvalid,
		fmt.Sprintf("Invalid configuration for %s: %s", field, message),
		"Configuration load").
		WithContext("field", field).
		WithTroubleshooting(
			"Check the YAML configuration file passed with --config",
			"Check GASRUN_* environment overrides",
		).
		withKind(ErrConfiguration)
}

// NewInvalidParametersError creates an error for task parameters that cannot be serialized
func NewInvalidParametersError(kind string, originalErr error) *TaskError {
	return NewTaskError(ErrorCategoryValidation, CodeParametersInvalid,
		fmt.Sprintf("Invalid parameters for task kind '%s'", kind),
		"Task identity").
		WithContext("kind", kind).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Pass parameters as --param name=value or a YAML mapping in --params-file",
			"Use only scalars, string-keyed maps and slices as parameter values",
		).
		withKind(ErrInvalidParameters)
}

// IsRecoverable reports whether re-running the task can clear the error
func IsRecoverable(err error) bool {
	return Is(err, ErrArtifactMissing)
}

// GetErrorSeverity returns the severity level of an error
func GetErrorSeverity(err error) string {
	if taskErr, ok := As(err); ok {
		switch taskErr.Category {
		case ErrorCategoryValidation, ErrorCategoryConfiguration:
			return "WARNING"
		case ErrorCategoryArtifact, ErrorCategoryGraph:
			return "CRITICAL"
		default:
			return "ERROR"
		}
	}
	return "ERROR"
}
