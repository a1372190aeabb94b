package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindEmptyInput
	ErrorKindDimensionMismatch
	ErrorKindEmptyCorpus
	ErrorKindMalformedResponse
	ErrorKindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindEmptyInput:
		return "EmptyInput"
	case ErrorKindDimensionMismatch:
		return "DimensionMismatch"
	case ErrorKindEmptyCorpus:
		return "EmptyCorpus"
	case ErrorKindMalformedResponse:
		return "MalformedResponse"
	case ErrorKindUpstream:
		return "UpstreamError"
	default:
		return "UnknownError"
	}
}

// Error is the error type returned by every analysis path.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrEmptyInput        = &Error{Kind: ErrorKindEmptyInput}
	ErrDimensionMismatch = &Error{Kind: ErrorKindDimensionMismatch}
	ErrEmptyCorpus       = &Error{Kind: ErrorKindEmptyCorpus}
	ErrMalformedResponse = &Error{Kind: ErrorKindMalformedResponse}
	ErrUpstream          = &Error{Kind: ErrorKindUpstream}
)

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ConfigurationDefect reports whether the failure comes from a broken local setup
// rather than from the request. Such failures will not go away on their own.
func (e *Error) ConfigurationDefect() bool {
	return e.Kind == ErrorKindDimensionMismatch || e.Kind == ErrorKindEmptyCorpus
}

// Hint returns a message an end user can act on.
func (e *Error) Hint() string {
	switch e.Kind {
	case ErrorKindEmptyInput:
		return "Please enter a prompt to analyze."
	case ErrorKindUpstream:
		return "The generative service could not be reached. Check your API key, quota and network connection."
	case ErrorKindMalformedResponse:
		return "The generative service returned an unexpected answer (internal inconsistency). Try again or switch to local mode."
	case ErrorKindDimensionMismatch, ErrorKindEmptyCorpus:
		return "The local reference corpus is misconfigured. Check the corpus file and embedding provider settings."
	default:
		return "An unexpected error occurred."
	}
}

// KindOf extracts the ErrorKind from err, or ErrorKindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindUnknown
}
