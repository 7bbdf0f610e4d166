// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package fileenv provides a source.Source backed by a dotenv file on disk,
// tokenized with github.com/subosito/gotenv.
package fileenv

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/subosito/gotenv"

	"github.com/envlayer/envcore/source"
)

var keyLinePattern = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=`)

// Source reads and parses a single dotenv file. Change detection is
// mtime-based: Load re-reads the file only when its ModTime differs from
// the one observed on the previous successful Load.
type Source struct {
	id    source.ID
	path  string
	cache *contentCache

	mu       sync.Mutex
	modTime  time.Time
	snapshot *source.Snapshot
	missing  bool
}

// Option configures a Source constructed by New.
type Option func(*Source)

// withCache overrides the shared content cache used to avoid re-reading
// unchanged files. Tests that want isolation from other Source instances
// supply their own via newContentCache. c must not be nil: Load uses the
// cache unconditionally.
func withCache(c *contentCache) Option {
	return func(s *Source) { s.cache = c }
}

// New creates a file Source reading the dotenv file at path.
func New(id source.ID, path string, opts ...Option) *Source {
	s := &Source{id: id, path: path, cache: sharedCache}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements source.Source.
func (s *Source) ID() source.ID { return s.id }

// Type implements source.Source.
func (s *Source) Type() source.Type { return source.TypeFile }

// Priority implements source.Source.
func (s *Source) Priority() source.Priority { return source.PriorityFile }

// Capabilities implements source.Source.
func (s *Source) Capabilities() source.Capabilities {
	return source.CapRead | source.CapCacheable | source.CapWatch
}

// Path returns the dotenv file path this source reads.
func (s *Source) Path() string { return s.path }

// HasChanged reports whether the file's mtime differs from the one recorded
// at the last successful Load, or whether the file's presence has flipped
// (appeared after being missing, or vice versa).
func (s *Source) HasChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasChangedLocked()
}

func (s *Source) hasChangedLocked() bool {
	if s.snapshot == nil {
		return true
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return !s.missing
	}
	return s.missing || !info.ModTime().Equal(s.modTime)
}

// Load parses the dotenv file, returning a snapshot with one ParsedVariable
// per "KEY=value" line in file order, tagged with source.FileOrigin(path)
// and the 1-based line it was declared on. A missing file yields an empty,
// zero-variable snapshot rather than an error, matching dotenv convention
// that an absent .env is not a configuration error.
func (s *Source) Load(_ context.Context) (source.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil && !s.hasChangedLocked() {
		return *s.snapshot, nil
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.missing = true
			s.modTime = time.Time{}
			snap := source.Snapshot{SourceID: s.id, Timestamp: time.Now()}
			s.snapshot = &snap
			return snap, nil
		}
		return source.Snapshot{}, &source.IOError{Path: s.path, Cause: err}
	}

	content, ok := s.cache.get(s.path, info.ModTime())
	if !ok {
		content, err = os.ReadFile(s.path)
		if err != nil {
			return source.Snapshot{}, &source.IOError{Path: s.path, Cause: err}
		}
		s.cache.put(s.path, info.ModTime(), content)
	}

	vars, err := parse(s.path, content)
	if err != nil {
		return source.Snapshot{}, err
	}

	snap := source.Snapshot{
		SourceID:  s.id,
		Variables: vars,
		Timestamp: time.Now(),
	}
	s.snapshot = &snap
	s.modTime = info.ModTime()
	s.missing = false
	return snap, nil
}

// Invalidate drops the cached snapshot and mtime, forcing the next Load to
// stat and re-parse the file regardless of whether it actually changed.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.modTime = time.Time{}
}

// parse validates content with gotenv.StrictParse for its well-tested
// quoting/escaping error detection, then derives each variable's raw value
// itself by scanning content line by line. gotenv's own Parse/StrictParse
// expands $NAME/${NAME} references as it parses (reading from its own
// partial result and os.Environ()), which would mangle a value like
// "${HOST:-default}" before resolve.Engine's interpolation grammar ever
// sees it; the hand-rolled rawValue below strips dotenv's quoting and
// escape conventions without touching any '$' it finds, so interpolation
// expressions survive byte-for-byte until Engine.Interpolate runs.
func parse(path string, content []byte) ([]source.ParsedVariable, error) {
	if _, err := gotenv.StrictParse(bytes.NewReader(content)); err != nil {
		return nil, &source.ParseError{Path: path, Message: err.Error()}
	}

	lines := bytes.Split(content, []byte("\n"))
	vars := make([]source.ParsedVariable, 0, len(lines))
	for i, line := range lines {
		loc := keyLinePattern.FindSubmatchIndex(line)
		if loc == nil {
			continue
		}
		vars = append(vars, source.ParsedVariable{
			Key:      string(line[loc[2]:loc[3]]),
			RawValue: rawValue(line[loc[1]:]),
			Origin:   source.FileOrigin(path),
			Line:     i + 1,
		})
	}
	return vars, nil
}

// rawValue extracts the value following "KEY=" on a line, applying dotenv's
// quoting rules but no variable expansion: a double-quoted value has its
// quotes stripped and \n, \t, \", \\ escapes resolved; a single-quoted value
// is taken completely literally between its quotes; an unquoted value runs
// until an unescaped '#' (a trailing comment) or the end of the line.
func rawValue(tail []byte) string {
	v := bytes.TrimSpace(tail)
	if len(v) == 0 {
		return ""
	}

	switch v[0] {
	case '"':
		if end := closingQuote(v, '"'); end > 0 {
			return unescapeDouble(v[1:end])
		}
	case '\'':
		if end := closingQuote(v, '\''); end > 0 {
			return string(v[1:end])
		}
	}

	if idx := unescapedByte(v, '#'); idx >= 0 {
		v = v[:idx]
	}
	return string(bytes.TrimSpace(v))
}

// closingQuote returns the index of the first unescaped occurrence of q in
// v after position 0, or -1 if v has no matching close.
func closingQuote(v []byte, q byte) int {
	for i := 1; i < len(v); i++ {
		if v[i] == '\\' {
			i++
			continue
		}
		if v[i] == q {
			return i
		}
	}
	return -1
}

// unescapedByte returns the index of the first occurrence of b in v that
// isn't preceded by a backslash, or -1 if there is none.
func unescapedByte(v []byte, b byte) int {
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' {
			i++
			continue
		}
		if v[i] == b {
			return i
		}
	}
	return -1
}

// unescapeDouble resolves the backslash escapes dotenv recognizes inside a
// double-quoted value.
func unescapeDouble(v []byte) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case 'n':
				out = append(out, '\n')
				i++
				continue
			case 't':
				out = append(out, '\t')
				i++
				continue
			case '"', '\\':
				out = append(out, v[i+1])
				i++
				continue
			}
		}
		out = append(out, v[i])
	}
	return string(out)
}

var _ source.Source = (*Source)(nil)
