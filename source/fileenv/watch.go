// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package fileenv

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch watches this source's file for creation, write, and removal events
// and invokes onChange after each one, until ctx is done or the watcher
// errors unrecoverably. It watches the containing directory rather than the
// file itself so it keeps working across editor-style save sequences that
// replace the file (rename-over-write).
//
// Watch blocks; callers run it in its own goroutine. A typical caller pairs
// it with the owning registry's Invalidate so the next Load re-reads the
// file and the epoch bump discards any cached resolution:
//
//	go fileSrc.Watch(ctx, func() { registry.Invalidate(fileSrc.ID()) })
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}
