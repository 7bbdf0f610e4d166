// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package enverr provides error types with diagnostic codes for the
// environment resolution surfaces of envcore.
package enverr

import (
	"errors"
	"fmt"
)

// Code prefixes, one per error category named in the resolution design.
const (
	// PrefixEnvFile marks diagnostics produced while parsing or loading a
	// dotenv file.
	PrefixEnvFile = "EDF"
	// PrefixResolution marks diagnostics produced during variable resolution
	// and interpolation.
	PrefixResolution = "RES"
	// PrefixWorkspace marks diagnostics produced during workspace detection
	// and package discovery.
	PrefixWorkspace = "WS"
)

// Severity is the severity of a Diagnostic.
type Severity int

// Severity levels, ordered from most to least urgent.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// String renders the severity as its conventional short name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal annotation attached to a ResolvedVariable;
// *Diagnostic also implements error. File and Line are zero when the
// diagnostic does not originate from a specific file position.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	File     string
	Line     int
	Column   int
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped like any other error.
func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s: %s (%s:%d)", d.Code, d.Message, d.File, d.Line)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// CodedError wraps an error with a diagnostic code. This allows errors to
// carry a stable category code through the call stack, enabling callers to
// branch on category without string-matching messages.
type CodedError struct {
	err  error
	code string
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error for errors.Is() and errors.As() compatibility.
func (e *CodedError) Unwrap() error {
	return e.err
}

// DiagnosticCode returns the diagnostic code associated with this error.
func (e *CodedError) DiagnosticCode() string {
	return e.code
}

// WithCode wraps an error with a diagnostic code. If err is nil, WithCode
// returns nil.
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{err: err, code: code}
}

// CodeOf extracts the diagnostic code from an error, unwrapping the error
// chain looking for a CodedError. It returns "" if err is nil or carries no
// code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return ""
}

// New creates a new error with the given message and diagnostic code. It is
// a convenience function equivalent to WithCode(errors.New(message), code).
func New(message string, code string) error {
	return &CodedError{err: errors.New(message), code: code}
}
