package errors_test

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/NamanBalaji/streamdl/internal/errors"
)

func TestPipelineErrorError(t *testing.T) {
	baseErr := stdErrors.New("underlying error")
	pe := &errors.PipelineError{
		Err:       baseErr,
		Category:  errors.CategoryIO,
		Stage:     errors.StageAssemble,
		Timestamp: time.Now(),
		Resource:  "video0.mp4",
	}
	expected := "[assemble:IO] video0.mp4: underlying error"
	if pe.Error() != expected {
		t.Errorf("expected %q, got %q", expected, pe.Error())
	}

	pe2 := &errors.PipelineError{
		Err:      errors.ErrProcessExit,
		Category: errors.CategoryProcess,
		Stage:    errors.StageMux,
		Resource: "ffmpeg",
		ExitCode: 1,
	}
	expected2 := "[mux:PROCESS] ffmpeg (exit: 1): process exited with non-zero code"
	if pe2.Error() != expected2 {
		t.Errorf("expected %q, got %q", expected2, pe2.Error())
	}

	pe3 := &errors.PipelineError{Err: baseErr, Category: errors.CategoryUnknown, Resource: "x"}
	if pe3.Error() != "[UNKNOWN] x: underlying error" {
		t.Errorf("unexpected message %q", pe3.Error())
	}
}

func TestPipelineErrorUnwrap(t *testing.T) {
	baseErr := stdErrors.New("base error")
	pe := errors.NewNetworkError(baseErr, errors.StageDownload, "resource", true)
	if !errors.Is(pe, baseErr) {
		t.Errorf("expected %v to wrap %v", pe, baseErr)
	}

	wrapped := fmt.Errorf("download track: %w", pe)
	if !errors.IsNetworkError(wrapped) {
		t.Error("expected wrapped error to keep its category")
	}
}

func TestNewPlanError(t *testing.T) {
	pe := errors.NewPlanError(errors.ErrInvalidManifest, "manifest")
	if pe.Category != errors.CategoryPlan || pe.Stage != errors.StagePlan || pe.Retryable {
		t.Error("NewPlanError did not set fields correctly")
	}
	if !errors.Is(pe, errors.ErrInvalidManifest) {
		t.Error("expected plan error to wrap ErrInvalidManifest")
	}
	if pe.Timestamp.IsZero() {
		t.Error("Timestamp not set in NewPlanError")
	}
}

func TestNewIOError(t *testing.T) {
	baseErr := stdErrors.New("io error")
	pe := errors.NewIOError(baseErr, errors.StageAssemble, "file.txt")
	if !errors.Is(pe, baseErr) || pe.Category != errors.CategoryIO || pe.Retryable || pe.Resource != "file.txt" {
		t.Error("NewIOError did not set fields correctly")
	}
}

func TestNewContextError(t *testing.T) {
	baseErr := stdErrors.New("context canceled")
	pe := errors.NewContextError(baseErr, errors.StageDownload, "operation")
	if !errors.Is(pe, baseErr) || pe.Category != errors.CategoryContext || pe.Retryable || pe.Resource != "operation" {
		t.Error("NewContextError did not set fields correctly")
	}
}

func TestIsRetryable(t *testing.T) {
	pe := errors.NewNetworkError(stdErrors.New("error"), errors.StageDownload, "example.com", true)
	if !errors.IsRetryable(pe) {
		t.Error("Expected retryable error to be retried")
	}

	pe2 := errors.NewIOError(stdErrors.New("io error"), errors.StageAssemble, "file.txt")
	if errors.IsRetryable(pe2) {
		t.Error("Expected non-retryable error to not be retried")
	}

	if errors.IsRetryable(nil) {
		t.Error("Expected nil error to be non-retryable")
	}

	if errors.IsRetryable(stdErrors.New("plain")) {
		t.Error("Expected plain error to be non-retryable")
	}
}

func TestCategoryPredicates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		plan    bool
		network bool
		io      bool
		process bool
	}{
		{"plan", errors.NewPlanError(errors.ErrInvalidManifest, "m"), true, false, false, false},
		{"network", errors.NewNetworkError(stdErrors.New("x"), errors.StagePlan, "u", true), false, true, false, false},
		{"io", errors.NewIOError(stdErrors.New("x"), errors.StageMux, "f"), false, false, true, false},
		{"process", errors.NewProcessError(errors.ErrProcessExit, errors.StageDecrypt, "ffmpeg", 2), false, false, false, true},
		{"plain", stdErrors.New("x"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsPlanError(tt.err); got != tt.plan {
				t.Errorf("IsPlanError() = %v, want %v", got, tt.plan)
			}
			if got := errors.IsNetworkError(tt.err); got != tt.network {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.network)
			}
			if got := errors.IsIOError(tt.err); got != tt.io {
				t.Errorf("IsIOError() = %v, want %v", got, tt.io)
			}
			if got := errors.IsProcessError(tt.err); got != tt.process {
				t.Errorf("IsProcessError() = %v, want %v", got, tt.process)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	pe := errors.NewProcessError(errors.ErrProcessExit, errors.StageMux, "ffmpeg", 137)
	code, ok := errors.GetExitCode(pe)
	if !ok {
		t.Error("Expected exit code to be available")
	}
	if code != 137 {
		t.Errorf("Expected exit code 137, got %d", code)
	}

	if _, ok := errors.GetExitCode(stdErrors.New("other error")); ok {
		t.Error("Expected no exit code for a non-PipelineError")
	}
}
