// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package recovery provides panic-safe invocation helpers for envcore's
// plugin surfaces.
//
// Sources, monorepo providers, and event subscribers are all implemented by
// code outside the core's control. The Registry calls Source.Load through
// Safe and the Event Bus calls subscribers through SafeVoid, so a panic in
// either does not bring those components down. The Workspace Manager calls
// its provider directly.
//
// # Basic Usage
//
//	err := recovery.Safe(func() error {
//		_, err := someSource.Load(ctx)
//		return err
//	})
//
// # Stability
//
// This package is Beta stability. The API may have minor changes before
// reaching stable status in v1.0.0.
package recovery
