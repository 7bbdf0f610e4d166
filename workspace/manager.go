// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package workspace locates, for any file in a monorepo, the package that
// owns it and the ordered list of dotenv files that apply to it.
package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/envlayer/envcore/workspace/provider"
)

// DefaultEnvFilePatterns are the dotenv file name patterns a Manager looks
// for in each candidate directory, in precedence order within that
// directory (later patterns override earlier ones). "%s" is substituted
// with the Manager's mode, when one is configured.
var DefaultEnvFilePatterns = []string{".env", ".env.local", ".env.%s", ".env.%s.local"}

// Manager resolves file paths to a Context: the package that owns the
// file and the dotenv files that apply to it. Discovery runs once, lazily,
// on first use; Rescan forces it to run again.
type Manager struct {
	root     string
	provider provider.Provider
	patterns []string
	mode     string
	cascade  bool

	mu          sync.RWMutex
	detected    bool
	packages    map[string]provider.PackageInfo
	sortedRoots []string

	contextCache sync.Map // canonical path (string) -> Context
}

// Option configures a Manager built with New.
type Option func(*Manager)

// WithEnvFilePatterns overrides DefaultEnvFilePatterns.
func WithEnvFilePatterns(patterns []string) Option {
	return func(m *Manager) { m.patterns = patterns }
}

// WithMode sets the deployment mode substituted into the ".env.%s" and
// ".env.%s.local" patterns, e.g. "production". An empty mode (the
// default) skips those two patterns entirely.
func WithMode(mode string) Option {
	return func(m *Manager) { m.mode = mode }
}

// WithCascade controls whether ContextForFile looks for env files in every
// ancestor directory between the workspace root and a file's package
// (true, the default) or only at the workspace root and the package root.
func WithCascade(cascade bool) Option {
	return func(m *Manager) { m.cascade = cascade }
}

// New creates a Manager for the given workspace root and provider. Discovery
// is deferred until the first call to ContextForFile or Rescan.
func New(root string, prov provider.Provider, opts ...Option) *Manager {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	m := &Manager{
		root:     filepath.Clean(absRoot),
		provider: prov,
		patterns: DefaultEnvFilePatterns,
		cascade:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the workspace root this Manager was constructed with.
func (m *Manager) Root() string { return m.root }

// Packages returns every package discovered so far, triggering discovery if
// it has not run yet.
func (m *Manager) Packages(ctx context.Context) ([]provider.PackageInfo, error) {
	if err := m.ensureDiscovered(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]provider.PackageInfo, 0, len(m.packages))
	for _, pkg := range m.packages {
		out = append(out, pkg)
	}
	return out, nil
}

// Rescan forces package discovery to run again and clears the context
// cache, so that ContextForFile reflects any packages added or removed
// since the last scan.
func (m *Manager) Rescan(ctx context.Context) error {
	m.mu.Lock()
	m.detected = false
	m.packages = nil
	m.sortedRoots = nil
	m.mu.Unlock()

	m.contextCache = sync.Map{}
	return m.ensureDiscovered(ctx)
}

func (m *Manager) ensureDiscovered(_ context.Context) error {
	m.mu.RLock()
	if m.detected {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detected {
		return nil
	}

	if !m.provider.Detect(m.root) {
		return &WorkspaceNotDetectedError{Root: m.root, Provider: m.provider.Name()}
	}
	discovered, err := m.provider.Discover(m.root)
	if err != nil {
		return fmt.Errorf("%s: discovering packages: %w", m.provider.Name(), err)
	}

	packages := make(map[string]provider.PackageInfo, len(discovered))
	roots := make([]string, 0, len(discovered))
	for _, pkg := range discovered {
		clean := filepath.Clean(pkg.Root)
		packages[clean] = pkg
		roots = append(roots, clean)
	}
	sort.Slice(roots, func(i, j int) bool { return len(roots[i]) > len(roots[j]) })

	m.packages = packages
	m.sortedRoots = roots
	m.detected = true
	return nil
}

// ContextForFile resolves path to its Context: the package that owns it,
// if any, and the dotenv files that apply to it, ordered from lowest to
// highest precedence. Results are memoized by canonical path until the
// next Rescan.
func (m *Manager) ContextForFile(ctx context.Context, path string) (Context, error) {
	if err := m.ensureDiscovered(ctx); err != nil {
		return Context{}, err
	}

	canonical, err := m.canonicalize(path)
	if err != nil {
		return Context{}, err
	}

	if cached, ok := m.contextCache.Load(canonical); ok {
		return cached.(Context), nil
	}

	m.mu.RLock()
	pkgRoot, pkg := m.longestPrefixMatch(canonical)
	m.mu.RUnlock()

	envFiles := m.envFilesFor(pkgRoot)

	result := Context{
		WorkspaceRoot: m.root,
		EnvFiles:      envFiles,
	}
	if pkg != nil {
		copyPkg := *pkg
		result.Package = &copyPkg
	}

	m.contextCache.Store(canonical, result)
	return result, nil
}

// canonicalize makes path absolute and clean, and rejects it if it falls
// outside the workspace root.
func (m *Manager) canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("canonicalizing %q: %w", path, err)
	}
	clean := filepath.Clean(abs)

	rel, err := filepath.Rel(m.root, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathEscapeError{Path: path, Root: m.root}
	}
	return clean, nil
}

// longestPrefixMatch finds the package whose root is the longest prefix of
// path, if any. Must be called with m.mu held for reading.
func (m *Manager) longestPrefixMatch(path string) (string, *provider.PackageInfo) {
	dir := filepath.Dir(path)
	for _, root := range m.sortedRoots {
		if root == dir || strings.HasPrefix(dir, root+string(filepath.Separator)) || dir == root {
			pkg := m.packages[root]
			return root, &pkg
		}
	}
	return "", nil
}

// envFilesFor enumerates the dotenv files relevant to a package at
// pkgRoot ("" when the file belongs to no package), in precedence order:
// workspace root first, then (if cascading) each ancestor down to
// pkgRoot, then pkgRoot itself. Within a directory, patterns are applied in
// list order.
func (m *Manager) envFilesFor(pkgRoot string) []string {
	dirs := m.candidateDirs(pkgRoot)
	patterns := m.activePatterns()

	files := make([]string, 0, len(dirs)*len(patterns))
	for _, dir := range dirs {
		for _, pattern := range patterns {
			files = append(files, filepath.Join(dir, pattern))
		}
	}
	return files
}

func (m *Manager) activePatterns() []string {
	out := make([]string, 0, len(m.patterns))
	for _, p := range m.patterns {
		if strings.Contains(p, "%s") {
			if m.mode == "" {
				continue
			}
			p = fmt.Sprintf(p, m.mode)
		}
		out = append(out, p)
	}
	return out
}

func (m *Manager) candidateDirs(pkgRoot string) []string {
	if pkgRoot == "" || pkgRoot == m.root {
		return []string{m.root}
	}
	if !m.cascade {
		return []string{m.root, pkgRoot}
	}

	rel, err := filepath.Rel(m.root, pkgRoot)
	if err != nil || rel == "." {
		return []string{m.root}
	}

	dirs := []string{m.root}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	current := m.root
	for _, part := range parts {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}
