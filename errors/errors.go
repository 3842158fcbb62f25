// Package errors defines the error taxonomy CrowFS operations return.
//
// The shape mirrors disko's errors package: a sentinel string type for the
// fixed set of logical error codes, plus a wrapper that lets callers attach
// context. WithMessage keeps the sentinel's identity for errors.Is;
// WrapError instead unwraps to the error it wraps, so errors.Is matches that
// error's chain and not the sentinel.
package errors

import "fmt"

// CrowfsError is a sentinel error identifying one of the logical failure
// modes a CrowFS operation can report. Compare against the exported
// constants with errors.Is, not by string value.
type CrowfsError string

func (e CrowfsError) Error() string {
	return string(e)
}

// Unwrap returns nil: a bare sentinel has no further cause.
func (e CrowfsError) Unwrap() error {
	return nil
}

// WithMessage wraps e with additional context, preserving e as the Unwrap
// target.
func (e CrowfsError) WithMessage(message string) DriverError {
	return &wrappedError{
		message: fmt.Sprintf("%s: %s", string(e), message),
		cause:   e,
	}
}

// WrapError wraps e around an underlying error, preserving err as the
// Unwrap target.
func (e CrowfsError) WrapError(err error) DriverError {
	return &wrappedError{
		message: fmt.Sprintf("%s: %s", string(e), err.Error()),
		cause:   err,
	}
}

const (
	// Ok is never returned as an error value; it exists so callers that want
	// to log a result uniformly have a name for the success case.
	Ok = CrowfsError("ok")

	// Argument indicates a violated precondition: wrong entity type for the
	// operation, a non-absolute path, a write offset past the current file
	// size, or an attempt to delete the root directory.
	Argument = CrowfsError("invalid argument")

	// InitInvalidFS indicates the superblock's magic or version didn't match
	// on mount.
	InitInvalidFS = CrowfsError("not a valid CrowFS filesystem")

	// Limit indicates a directory is at capacity, a write would exceed
	// MaxFileSize, or a ReadDir offset is past the last child.
	Limit = CrowfsError("limit exceeded")

	// NotFound indicates a missing path component, or an intermediate
	// component that isn't a directory.
	NotFound = CrowfsError("no such file or directory")

	// Full indicates the free-block allocator has no blocks left to give.
	Full = CrowfsError("device is full")

	// NotEmpty indicates an attempt to delete or replace a non-empty
	// directory.
	NotEmpty = CrowfsError("directory not empty")

	// TooSmall indicates the device is too small to hold the minimum
	// bootloader/superblock/bitmap/root layout.
	TooSmall = CrowfsError("device too small to format")

	// IO indicates the block device adapter returned an error.
	IO = CrowfsError("i/o error")
)

// DriverError is the interface satisfied by both a bare CrowfsError sentinel
// and a wrapped error built on top of one. For a bare sentinel or one built
// with WithMessage, errors.Is(err, errors.Limit) (the stdlib "errors"
// package) tests which sentinel underlies it; an error built with WrapError
// does not match its sentinel that way.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

type wrappedError struct {
	message string
	cause   error
}

func (e *wrappedError) Error() string {
	return e.message
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

func (e *wrappedError) WithMessage(message string) DriverError {
	return &wrappedError{
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e,
	}
}

func (e *wrappedError) WrapError(err error) DriverError {
	return &wrappedError{
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   err,
	}
}
