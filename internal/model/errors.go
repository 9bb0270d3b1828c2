package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of failures reported per modification.
type ErrorKind string

const (
	// ErrFileNotFound means the file lookup failed.
	ErrFileNotFound ErrorKind = "file_not_found"
	// ErrElementNotFound means a path segment had no matching child.
	ErrElementNotFound ErrorKind = "element_not_found"
	// ErrParse means content did not parse as the declared kind, or a path
	// string was malformed.
	ErrParse ErrorKind = "parse_error"
	// ErrInvalidOperation means the operation cannot apply to its target,
	// e.g. CreateFile on an existing file or a kind mismatch on replace.
	ErrInvalidOperation ErrorKind = "invalid_operation"
	// ErrIO means an external collaborator failed; the underlying message
	// is preserved.
	ErrIO ErrorKind = "io_error"
)

// Error is the typed failure carried inside a ModificationResult.
type Error struct {
	Kind  ErrorKind
	Path  string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewFileNotFound reports a failed file lookup.
func NewFileNotFound(path string) *Error {
	return &Error{Kind: ErrFileNotFound, Path: path}
}

// NewElementNotFound reports a path that did not resolve to a node.
func NewElementNotFound(path string) *Error {
	return &Error{Kind: ErrElementNotFound, Path: path}
}

// NewParseError reports content or a path that failed to parse.
func NewParseError(path, msg string) *Error {
	return &Error{Kind: ErrParse, Path: path, Msg: msg}
}

// NewInvalidOperation reports an operation that cannot apply to its target.
func NewInvalidOperation(path, msg string) *Error {
	return &Error{Kind: ErrInvalidOperation, Path: path, Msg: msg}
}

// WrapIO wraps an unexpected collaborator fault, preserving its message.
func WrapIO(path string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	return &Error{Kind: ErrIO, Path: path, Msg: msg, Cause: cause}
}

// KindOf extracts the error kind, defaulting to ErrIO for untyped errors.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}

	return ErrIO
}
