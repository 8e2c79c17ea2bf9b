// Package errors provides structured error types for birdwatch operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindCommand represents external command execution errors.
	KindCommand
	// KindFetch represents failures obtaining a video from its source.
	KindFetch
	// KindExtraction represents frame sampling/decoding failures.
	KindExtraction
	// KindDetection represents detector invocation failures.
	KindDetection
	// KindStore represents result persistence failures.
	KindStore
	// KindProcessing represents an aggregate failure for one video item.
	KindProcessing
	// KindFFprobeParse represents ffprobe output parsing errors.
	KindFFprobeParse
	// KindJSONParse represents JSON parsing errors.
	KindJSONParse
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindNoVideosFound represents an empty work list from the video source.
	KindNoVideosFound
	// KindCancelled represents user-cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindCommand:
		return "Command error"
	case KindFetch:
		return "Fetch error"
	case KindExtraction:
		return "Extraction error"
	case KindDetection:
		return "Detection error"
	case KindStore:
		return "Store error"
	case KindProcessing:
		return "Processing error"
	case KindFFprobeParse:
		return "FFprobe parse error"
	case KindJSONParse:
		return "JSON parse error"
	case KindConfig:
		return "Configuration error"
	case KindNoVideosFound:
		return "No videos found"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandWait means waiting for the command failed.
	CommandWait
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandWait:
		return fmt.Sprintf("failed to wait for %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for birdwatch operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

// NewCommandError creates a new command execution error.
func NewCommandError(cmd string, kind CommandErrorKind, underlying error) *CoreError {
	cmdErr := &CommandError{
		Command:    cmd,
		Kind:       kind,
		Underlying: underlying,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandStartError creates an error for when a command fails to start.
func NewCommandStartError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandStart, err)
}

// NewCommandFailedError creates an error for when a command returns non-zero exit status.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{
		Command:  cmd,
		Kind:     CommandFailed,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewFetchError creates an error for a video that could not be obtained.
func NewFetchError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindFetch, Message: message, Underlying: underlying}
}

// NewExtractionError creates an error for a failed frame extraction.
func NewExtractionError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindExtraction, Message: message, Underlying: underlying}
}

// NewDetectionError creates an error for a failed detector invocation.
func NewDetectionError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindDetection, Message: message, Underlying: underlying}
}

// NewStoreError creates an error for a failed result write.
func NewStoreError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindStore, Message: message, Underlying: underlying}
}

// NewProcessingError creates an error summarizing the failure of one video item.
func NewProcessingError(filename string, underlying error) *CoreError {
	return &CoreError{
		Kind:       KindProcessing,
		Message:    fmt.Sprintf("failed to process %s", filename),
		Underlying: underlying,
	}
}

// NewFFprobeParseError creates a new ffprobe parsing error.
func NewFFprobeParseError(message string) *CoreError {
	return &CoreError{Kind: KindFFprobeParse, Message: message}
}

// NewJSONParseError creates a new JSON parsing error.
func NewJSONParseError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindJSONParse, Message: message, Underlying: underlying}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message}
}

// NewNoVideosFoundError creates an error for an empty work list.
func NewNoVideosFoundError(source string) *CoreError {
	return &CoreError{Kind: KindNoVideosFound, Message: fmt.Sprintf("no videos listed by %s", source)}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsFetch checks if the error is a fetch error.
func IsFetch(err error) bool {
	return IsKind(err, KindFetch)
}

// IsExtraction checks if the error is a frame extraction error.
func IsExtraction(err error) bool {
	return IsKind(err, KindExtraction)
}

// IsDetection checks if the error is a detector invocation error.
func IsDetection(err error) bool {
	return IsKind(err, KindDetection)
}

// IsStore checks if the error is a persistence error.
func IsStore(err error) bool {
	return IsKind(err, KindStore)
}

// WrapExecError wraps an exec.ExitError into a CoreError.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
