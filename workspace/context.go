// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package workspace

import "github.com/envlayer/envcore/workspace/provider"

// Context describes where a single file sits within a workspace: the
// workspace root, the package (if any) that owns the file, and the ordered
// list of env files that apply to it, lowest precedence first.
type Context struct {
	WorkspaceRoot string
	Package       *provider.PackageInfo
	EnvFiles      []string
}

// Equal reports whether c and other describe the same context. Two
// contexts are equal iff their workspace root, package, and env file list
// all match.
func (c Context) Equal(other Context) bool {
	if c.WorkspaceRoot != other.WorkspaceRoot {
		return false
	}
	if (c.Package == nil) != (other.Package == nil) {
		return false
	}
	if c.Package != nil && *c.Package != *other.Package {
		return false
	}
	if len(c.EnvFiles) != len(other.EnvFiles) {
		return false
	}
	for i := range c.EnvFiles {
		if c.EnvFiles[i] != other.EnvFiles[i] {
			return false
		}
	}
	return true
}
