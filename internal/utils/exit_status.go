package utils

import (
	"errors"
	"fmt"
)

const (
	exitStatusTemplateConstant     = "exit status %d"
	defaultFailureExitCodeConstant = 1
)

// ExitStatusError carries the process exit code a command outcome maps to.
type ExitStatusError struct {
	Code  int
	Cause error
}

// NewExitStatusError wraps the cause with the provided exit code.
func NewExitStatusError(code int, cause error) ExitStatusError {
	return ExitStatusError{Code: code, Cause: cause}
}

// Error describes the exit status and its cause.
func (statusError ExitStatusError) Error() string {
	if statusError.Cause == nil {
		return fmt.Sprintf(exitStatusTemplateConstant, statusError.Code)
	}
	return statusError.Cause.Error()
}

// Unwrap exposes the underlying cause.
func (statusError ExitStatusError) Unwrap() error {
	return statusError.Cause
}

// ShouldReport reports whether the error carries a message worth printing. Exit statuses without a
// cause have already been explained on the command's output.
func ShouldReport(executionError error) bool {
	if executionError == nil {
		return false
	}
	var statusError ExitStatusError
	if errors.As(executionError, &statusError) {
		return statusError.Cause != nil
	}
	return true
}

// ExitCodeFor maps an execution error to a process exit code.
func ExitCodeFor(executionError error) int {
	if executionError == nil {
		return 0
	}
	var statusError ExitStatusError
	if errors.As(executionError, &statusError) {
		return statusError.Code
	}
	return defaultFailureExitCodeConstant
}
