package dskfs

import (
	"fmt"
	"syscall"
)

// Error is a wrapper around a system errno code, with a customizable message
// and an optional wrapped cause.
type Error struct {
	errno   syscall.Errno
	message string
	cause   error
}

// NewError creates a new [Error] with a default message derived from the
// system's error code.
func NewError(errno syscall.Errno) *Error {
	return &Error{errno: errno, message: errno.Error()}
}

// Error implements the `error` interface.
func (e *Error) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.errno.Error()
}

// Errno returns the POSIX error number closest to this error, for use at the
// kernel bridge boundary.
func (e *Error) Errno() syscall.Errno {
	return e.errno
}

// Unwrap lets errors.Is/errors.As walk through to the wrapped cause, and to
// the underlying syscall.Errno.
func (e *Error) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.errno
}

// Is reports whether target is the same error kind, comparing by errno so
// that a *Error built with WithMessage still satisfies errors.Is against the
// package-level sentinel it was derived from.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.errno == other.errno
}

// WithMessage returns a copy of e with message appended, preserving the errno.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		errno:   e.errno,
		message: fmt.Sprintf("%s: %s", e.Error(), message),
		cause:   e,
	}
}

// Wrap returns a copy of e with cause recorded as the original error.
func (e *Error) Wrap(cause error) *Error {
	return &Error{
		errno:   e.errno,
		message: fmt.Sprintf("%s: %s", e.Error(), cause.Error()),
		cause:   cause,
	}
}

// Sentinel error kinds, per spec.md §7. Each wraps the POSIX errno nearest in
// meaning; the bridge boundary reads .Errno() to report it to the kernel.
var (
	ErrNotFound     = NewError(syscall.ENOENT).withText("no such file or directory")
	ErrExists       = NewError(syscall.EEXIST).withText("file exists")
	ErrNotDirectory = NewError(syscall.ENOTDIR).withText("not a directory")
	ErrIsDirectory  = NewError(syscall.EISDIR).withText("is a directory")
	ErrNotEmpty     = NewError(syscall.ENOTEMPTY).withText("directory not empty")
	ErrInvalid      = NewError(syscall.EINVAL).withText("invalid argument")
	ErrNoSpace      = NewError(syscall.ENOSPC).withText("no space left on device")
	ErrIOError      = NewError(syscall.EIO).withText("input/output error")
	ErrTooBig       = NewError(syscall.EFBIG).withText("file too large")
	ErrNotSupported = NewError(syscall.ENOTSUP).withText("operation not supported")
	ErrBadFormat    = NewError(syscall.EUCLEAN).withText("bad superblock format")
	ErrBusy         = NewError(syscall.EBUSY).withText("device or resource busy")
)

func (e *Error) withText(message string) *Error {
	e.message = message
	return e
}

// CastToError converts a plain error into a *Error, defaulting to EIO if it
// isn't already one. nil stays nil.
func CastToError(err error) *Error {
	if err == nil {
		return nil
	}
	if derr, ok := err.(*Error); ok {
		return derr
	}
	return ErrIOError.Wrap(err)
}
