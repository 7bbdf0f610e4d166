// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"github.com/envlayer/envcore/enverr"
	"github.com/envlayer/envcore/source"
)

// ResolvedVariable is the result of resolving a single key: its raw and
// interpolated values, and the source it came from. Warnings carries
// non-fatal diagnostics; Engine never sets it, and envcore's Instance fills
// it from source load failures. It is empty on the common path.
type ResolvedVariable struct {
	Key           string
	RawValue      string
	ResolvedValue string
	Source        source.ID
	Origin        source.Origin
	Warnings      []enverr.Diagnostic
}
