package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

type ErrorCategory string

const (
	CategoryPlan    ErrorCategory = "PLAN"    // Invalid or missing manifest source
	CategoryIO      ErrorCategory = "IO"      // File system issues
	CategoryProcess ErrorCategory = "PROCESS" // External toolchain spawn/exit failures
	CategoryNetwork ErrorCategory = "NETWORK" // Segment or manifest fetch failures
	CategoryContext ErrorCategory = "CONTEXT" // Context cancellation
	CategoryUnknown ErrorCategory = "UNKNOWN" // Unclassified errors
)

// Stage identifies the pipeline stage an error was raised in.
type Stage string

const (
	StagePlan     Stage = "plan"
	StageDownload Stage = "download"
	StageAssemble Stage = "assemble"
	StageDecrypt  Stage = "decrypt"
	StageSubtitle Stage = "subtitle"
	StageMux      Stage = "mux"
	StageCleanup  Stage = "cleanup"
)

// PipelineError represents an error that occurred while running a download pipeline
type PipelineError struct {
	Err       error         // Original error
	Category  ErrorCategory // General category
	Stage     Stage         // Which stage generated this error
	Retryable bool          // Whether retry is recommended
	Timestamp time.Time     // When the error occurred
	Resource  string        // What resource was being accessed
	ExitCode  int           // Exit code of an external process, if any
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Category == CategoryProcess && e.ExitCode != 0 {
		return fmt.Sprintf("[%s:%s] %s (exit: %d): %v", e.Stage, e.Category, e.Resource, e.ExitCode, e.Err)
	}
	if e.Stage == "" {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Resource, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Category, e.Resource, e.Err)
}

// Unwrap provides the underlying cause for error unwrapping (compatible with errors.As)
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	ErrInvalidManifest  = New("invalid manifest")
	ErrManifestFetch    = New("manifest fetch failed")
	ErrNoVideoTrack     = New("manifest has no video track")
	ErrNoSegments       = New("track has no segments")
	ErrSegmentMissing   = New("segment file missing")
	ErrProcessExit      = New("process exited with non-zero code")
	ErrBinaryNotFound   = New("binary not found")
	ErrRetriesExhausted = New("retries exhausted")
)

// NewPlanError creates a planning error. Plan errors are never retryable.
func NewPlanError(err error, resource string) *PipelineError {
	return &PipelineError{
		Err:       err,
		Category:  CategoryPlan,
		Stage:     StagePlan,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewNetworkError creates a network-related error
func NewNetworkError(err error, stage Stage, resource string, retryable bool) *PipelineError {
	return &PipelineError{
		Err:       err,
		Category:  CategoryNetwork,
		Stage:     stage,
		Retryable: retryable,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewIOError creates an I/O related error
func NewIOError(err error, stage Stage, resource string) *PipelineError {
	return &PipelineError{
		Err:       err,
		Category:  CategoryIO,
		Stage:     stage,
		Retryable: false,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewProcessError creates an error for a failed external process.
func NewProcessError(err error, stage Stage, command string, exitCode int) *PipelineError {
	return &PipelineError{
		Err:       err,
		Category:  CategoryProcess,
		Stage:     stage,
		Timestamp: time.Now(),
		Resource:  command,
		ExitCode:  exitCode,
	}
}

// NewContextError creates a context cancellation error
func NewContextError(err error, stage Stage, resource string) *PipelineError {
	return &PipelineError{
		Err:       err,
		Category:  CategoryContext,
		Stage:     stage,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// IsRetryable determines if an error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pipelineErr *PipelineError
	if As(err, &pipelineErr) {
		return pipelineErr.Retryable
	}

	return false
}

func hasCategory(err error, category ErrorCategory) bool {
	var pipelineErr *PipelineError
	return As(err, &pipelineErr) && pipelineErr.Category == category
}

// IsPlanError reports whether err is a Fatal-Plan error.
func IsPlanError(err error) bool {
	return hasCategory(err, CategoryPlan)
}

// IsNetworkError determines if the error is network-related
func IsNetworkError(err error) bool {
	return hasCategory(err, CategoryNetwork)
}

// IsIOError determines if the error is I/O related
func IsIOError(err error) bool {
	return hasCategory(err, CategoryIO)
}

// IsProcessError determines if the error came from an external process
func IsProcessError(err error) bool {
	return hasCategory(err, CategoryProcess)
}

// GetExitCode extracts the exit code from a process error if available
func GetExitCode(err error) (int, bool) {
	var pipelineErr *PipelineError
	if As(err, &pipelineErr) && pipelineErr.Category == CategoryProcess {
		return pipelineErr.ExitCode, true
	}
	return 0, false
}
