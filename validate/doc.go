// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package validate provides validation functions for environment variable
names.

Variable names follow the shell convention: a leading letter or underscore
followed by letters, digits, or underscores. This is also the grammar the
resolve package uses to recognize a $NAME or ${NAME} reference during
interpolation.

# Name Validation

	if err := validate.Key("my-var"); err != nil {
		// Handle invalid variable name
	}

Valid names:

	"PATH"
	"my_var"
	"_private"
	"HOST2"

Invalid names:

	""            // empty
	"2FAST"       // starts with a digit
	"my-var"      // dash is not permitted
	"my var"      // space is not permitted
*/
package validate
