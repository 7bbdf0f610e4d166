// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities_Has(t *testing.T) {
	t.Parallel()

	c := CapRead | CapCacheable
	assert.True(t, c.Has(CapRead))
	assert.True(t, c.Has(CapCacheable))
	assert.False(t, c.Has(CapWrite))
	assert.False(t, c.Has(CapWatch))
}

func TestCapabilities_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Capabilities(0).String())
	assert.Equal(t, "READ", CapRead.String())
	assert.Equal(t, "READ,CACHEABLE", (CapRead | CapCacheable).String())
	assert.Equal(t, "READ,WRITE,WATCH,CACHEABLE,ASYNC", (CapRead | CapWrite | CapWatch | CapCacheable | CapAsync).String())
}

func TestOriginConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Origin{Kind: OriginFile, Path: "/a/.env"}, FileOrigin("/a/.env"))
	assert.Equal(t, Origin{Kind: OriginShell}, ShellOrigin())
	assert.Equal(t, Origin{Kind: OriginMemory}, MemoryOrigin())
	assert.Equal(t, Origin{Kind: OriginRemote, Provider: "vault"}, RemoteOrigin("vault"))
}

func TestSnapshot_Collapse_LastWins(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		SourceID: "f1",
		Variables: []ParsedVariable{
			{Key: "PORT", RawValue: "3000", Origin: FileOrigin(".env"), Line: 1},
			{Key: "HOST", RawValue: "db", Origin: FileOrigin(".env"), Line: 2},
			{Key: "PORT", RawValue: "4000", Origin: FileOrigin(".env"), Line: 3},
		},
		Timestamp: time.Now(),
	}

	collapsed := snap.Collapse()
	require.Len(t, collapsed, 2)
	assert.Equal(t, "4000", collapsed["PORT"].RawValue)
	assert.Equal(t, 3, collapsed["PORT"].Line)
	assert.Equal(t, "db", collapsed["HOST"].RawValue)
}

func TestIOError(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	err := &IOError{Path: "/a/.env", Cause: cause}
	assert.Contains(t, err.Error(), "/a/.env")
	assert.Contains(t, err.Error(), "permission denied")
	assert.True(t, errors.Is(err, ErrIO))
}

func TestParseError(t *testing.T) {
	t.Parallel()

	err := &ParseError{Path: ".env", Line: 4, Column: 2, Message: "unexpected token"}
	assert.Equal(t, ".env:4:2: unexpected token", err.Error())
	assert.True(t, errors.Is(err, ErrParse))
}

func TestDuplicateSourceError(t *testing.T) {
	t.Parallel()

	err := &DuplicateSourceError{ID: "shell"}
	assert.Contains(t, err.Error(), "shell")
	assert.Contains(t, err.Error(), "already registered")
}

func TestNewID_GeneratesDistinctNonEmptyIDs(t *testing.T) {
	t.Parallel()

	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
