// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package validate provides validation functions for environment variable
// names.
package validate

import (
	"fmt"
	"regexp"
)

// ValidKeyPattern is the regular expression source for a valid variable
// name: a leading letter or underscore, followed by letters, digits, or
// underscores.
const ValidKeyPattern = `[A-Za-z_][A-Za-z0-9_]*`

var validKeyRegex = regexp.MustCompile(`^` + ValidKeyPattern + `$`)

// Key validates that name is a well-formed environment variable name: it
// must start with a letter or underscore and contain only letters, digits,
// and underscores.
func Key(name string) error {
	if name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}

	if !validKeyRegex.MatchString(name) {
		return fmt.Errorf("variable name %q must match %s", name, ValidKeyPattern)
	}

	return nil
}

// IsValidKey reports whether name is a well-formed environment variable
// name, without constructing an error.
func IsValidKey(name string) bool {
	return validKeyRegex.MatchString(name)
}
