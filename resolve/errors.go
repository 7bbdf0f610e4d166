// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"
	"strings"
)

// UndefinedVariableError is returned when an interpolation expression
// references a key with no defined value and no default clause.
type UndefinedVariableError struct {
	Key     string
	Message string
}

func (e *UndefinedVariableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("undefined variable %q", e.Key)
}

// CircularReferenceError is returned when resolving a variable would revisit
// a key already being resolved higher up the same call chain.
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference: %s", strings.Join(e.Chain, " -> "))
}

// MaxDepthExceededError is returned when resolving a variable recurses
// deeper than the engine's configured max depth, which guards against
// reference chains that are not strictly circular but are unreasonably
// long.
type MaxDepthExceededError struct {
	Key      string
	MaxDepth int
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("variable %q exceeded max interpolation depth of %d", e.Key, e.MaxDepth)
}

// MalformedInterpolationError is returned when a `${...}` expression does
// not match any recognized form.
type MalformedInterpolationError struct {
	Raw string
}

func (e *MalformedInterpolationError) Error() string {
	return fmt.Sprintf("malformed interpolation expression %q", e.Raw)
}
