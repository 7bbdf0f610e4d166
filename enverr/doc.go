// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package enverr provides error types with diagnostic codes for envcore's
resolution, workspace, and source subsystems.

This package allows errors to carry a stable category code through the call
stack, enabling callers to branch on category without string-matching
messages. The CodedError type implements the standard error interface and
supports error wrapping via errors.Is() and errors.As().

# Basic Usage

Create errors with diagnostic codes:

	// Create a new error with a code
	err := enverr.New("workspace not detected", enverr.PrefixWorkspace)

	// Wrap an existing error with a code
	err := enverr.WithCode(err, enverr.PrefixResolution)

# Extracting Codes

Extract the diagnostic code from an error chain:

	code := enverr.CodeOf(err)
	// Returns the code if err contains a CodedError
	// Returns "" if no CodedError found or err is nil

# Error Wrapping

CodedError supports the standard Go error wrapping pattern:

	sentinel := errors.New("workspace config missing")
	err := enverr.WithCode(sentinel, enverr.PrefixWorkspace)

	// errors.Is works through the wrapper
	if errors.Is(err, sentinel) {
		// handle specific error
	}

	// errors.As can extract the CodedError
	var coded *enverr.CodedError
	if errors.As(err, &coded) {
		log.Printf("%s: %s", coded.DiagnosticCode(), coded.Error())
	}

# Diagnostics

Diagnostic carries a severity, code, message, and optional file position. It
is attached to ResolvedVariable.Warnings for non-fatal conditions.
*Diagnostic also implements error, though no envcore function returns one
as an error.
*/
package enverr
