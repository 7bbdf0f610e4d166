// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, enabling dependency injection and testing isolation.

# Basic Usage

Use OSReader to read environment variables via the standard os package:

	reader := &env.OSReader{}
	value := reader.Getenv("MY_VAR")
	all := reader.Environ() // "KEY=VALUE" pairs, for snapshotting the whole environment

# Testing

The Reader interface allows injecting a mock in tests to avoid relying on
real environment variables. The //go:generate directive in env.go produces
a mock in a mocks sub-package when go generate is run (the package is not
checked in):

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockReader(ctrl)
	mock.EXPECT().Getenv("MY_VAR").Return("test-value")

	result := myFunc(mock)

# Design

This package follows the interface-based dependency injection pattern used
throughout toolhive-core. Production code accepts an env.Reader, while tests
substitute the generated mock.
*/
package env
