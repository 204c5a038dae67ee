package faults

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errorWithFieldTemplateConstant    = "%s: %s: field %s: %v"
	errorWithoutFieldTemplateConstant = "%s: %s: %v"
	errorWithoutCauseTemplateConstant = "%s: %s"
	notFoundMessageConstant           = "not found"
	malformedMessageConstant          = "malformed"
	ioFailureMessageConstant          = "io failure"
)

// Kind classifies input failures detected before reconciliation.
type Kind string

// Supported failure kinds.
const (
	KindNotFound  Kind = Kind("NotFound")
	KindMalformed Kind = Kind("Malformed")
	KindIOFailure Kind = Kind("IOFailure")
)

// Sentinel errors matched through errors.Is.
var (
	ErrNotFound  = errors.New(notFoundMessageConstant)
	ErrMalformed = errors.New(malformedMessageConstant)
	ErrIOFailure = errors.New(ioFailureMessageConstant)
)

// Error describes a failure tied to a specific input file and, when known, the offending field.
type Error struct {
	Kind  Kind
	Path  string
	Field string
	Cause error
}

// NotFound reports a required input that does not exist.
func NotFound(path string, cause error) Error {
	return Error{Kind: KindNotFound, Path: path, Cause: cause}
}

// Malformed reports an input that parses but fails structural validation.
func Malformed(path string, field string, cause error) Error {
	return Error{Kind: KindMalformed, Path: path, Field: field, Cause: cause}
}

// IOFailure reports a read failure in the middle of a stream.
func IOFailure(path string, cause error) Error {
	return Error{Kind: KindIOFailure, Path: path, Cause: cause}
}

// Error renders the failure with the file and field that caused it.
func (failure Error) Error() string {
	kindDescription := failure.kindMessage()
	if failure.Cause == nil {
		return fmt.Sprintf(errorWithoutCauseTemplateConstant, kindDescription, failure.Path)
	}
	if len(strings.TrimSpace(failure.Field)) > 0 {
		return fmt.Sprintf(errorWithFieldTemplateConstant, kindDescription, failure.Path, failure.Field, failure.Cause)
	}
	return fmt.Sprintf(errorWithoutFieldTemplateConstant, kindDescription, failure.Path, failure.Cause)
}

// Is matches the sentinel error associated with the failure kind.
func (failure Error) Is(target error) bool {
	switch failure.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindMalformed:
		return target == ErrMalformed
	case KindIOFailure:
		return target == ErrIOFailure
	default:
		return false
	}
}

// Unwrap exposes the underlying cause.
func (failure Error) Unwrap() error {
	return failure.Cause
}

func (failure Error) kindMessage() string {
	switch failure.Kind {
	case KindNotFound:
		return notFoundMessageConstant
	case KindMalformed:
		return malformedMessageConstant
	case KindIOFailure:
		return ioFailureMessageConstant
	default:
		return string(failure.Kind)
	}
}
