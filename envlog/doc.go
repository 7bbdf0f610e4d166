// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package envlog provides a pre-configured [log/slog.Logger] factory with
consistent defaults for envcore's internal components.

envcore's Instance logs through a logger built here unless
Builder.WithLogger supplies one; the Source Registry, Workspace Manager,
Cache, and Event Bus do not log. This package encapsulates the timestamp
format, output destination, and handler configuration in one place.

# Defaults

  - Format: JSON ([FormatJSON]) via [log/slog.JSONHandler]
  - Level: INFO ([log/slog.LevelInfo])
  - Output: [os.Stderr]
  - Timestamps: [time.RFC3339]

# Basic Usage

Create a logger with default settings:

	logger := envlog.New()
	logger.Info("server started", "port", 8080)

# Configuration

Use functional options to customize the logger:

	logger := envlog.New(
		envlog.WithFormat(envlog.FormatText),
		envlog.WithLevel(slog.LevelDebug),
	)

# Dynamic Level Changes

Pass a [log/slog.LevelVar] to change the level at runtime:

	var lvl slog.LevelVar
	logger := envlog.New(envlog.WithLevel(&lvl))
	lvl.Set(slog.LevelDebug) // takes effect immediately

# Testing

Inject a buffer to capture log output in tests:

	var buf bytes.Buffer
	logger := envlog.New(envlog.WithOutput(&buf))
	logger.Info("test message")
	// inspect buf.String()

# Handler Access

Use [NewHandler] when you need to wrap the handler with middleware:

	base := envlog.NewHandler(envlog.WithLevel(slog.LevelDebug))
	wrapped := &myMiddleware{Handler: base}
	logger := slog.New(wrapped)

# Stability

This package is Alpha stability. The API may change without notice.
*/
package envlog
