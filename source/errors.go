// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package source

import "fmt"

// Sentinel errors for source operations.
var (
	// ErrIO is returned when a source fails to read its underlying store.
	ErrIO = fmt.Errorf("source I/O failed")
	// ErrParse is returned when a source's content could not be parsed.
	ErrParse = fmt.Errorf("source parse failed")
	// ErrRemoteAuth is reserved for remote secret-store sources; no
	// concrete Remote source ships, so no envcore code returns it today.
	ErrRemoteAuth = fmt.Errorf("remote source authentication failed")
	// ErrRemoteTimeout is reserved for remote secret-store sources; no
	// concrete Remote source ships, so no envcore code returns it today.
	ErrRemoteTimeout = fmt.Errorf("remote source timed out")
)

// IOError reports a failure to read a source's underlying store, e.g. a
// missing or unreadable file.
type IOError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("io error reading %q: %v", e.Path, e.Cause)
}

// Unwrap returns ErrIO so callers can test with errors.Is(err, source.ErrIO).
func (e *IOError) Unwrap() error { return ErrIO }

// ParseError reports a syntax error while parsing a source's content.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}

// Unwrap returns ErrParse so callers can test with errors.Is(err, source.ErrParse).
func (e *ParseError) Unwrap() error { return ErrParse }

// DuplicateSourceError is returned by a Registry when a source id is already
// registered.
type DuplicateSourceError struct {
	ID ID
}

// Error implements the error interface.
func (e *DuplicateSourceError) Error() string {
	return fmt.Sprintf("source %q is already registered", e.ID)
}
