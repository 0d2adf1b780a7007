package domain

import (
	"errors"
	"fmt"
)

// Kind categorizes analysis errors. The API layer maps kinds to HTTP
// statuses; the orchestrator uses them to decide what reaches the caller.
type Kind string

const (
	KindInvalidLocation       Kind = "invalid_location"
	KindInvalidDate           Kind = "invalid_date"
	KindInvalidConditionSpec  Kind = "invalid_condition_spec"
	KindDataSourceUnavailable Kind = "data_source_unavailable"
	KindAnalysisFailed        Kind = "analysis_failed"
)

// Error is a categorized analysis error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an Error with an optional cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Errorf builds a cause-less Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain, or "" for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
