// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package envcore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envlayer/envcore/event"
	"github.com/envlayer/envcore/source/memory"
	"github.com/envlayer/envcore/workspace/provider"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInstance_Get_ResolvesAgainstMemorySource(t *testing.T) {
	t.Parallel()

	mem := memory.New("test-memory")
	require.NoError(t, mem.Set("GREETING", "hello"))
	require.NoError(t, mem.Set("MESSAGE", "${GREETING}, world"))

	inst, err := NewBuilder().WithSource(mem).Build()
	require.NoError(t, err)

	rv, err := inst.Get(context.Background(), "MESSAGE")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", rv.ResolvedValue)
	assert.Equal(t, mem.ID(), rv.Source)
}

func TestInstance_Get_UndefinedVariable(t *testing.T) {
	t.Parallel()

	inst, err := NewBuilder().Build()
	require.NoError(t, err)

	_, err = inst.Get(context.Background(), "DOES_NOT_EXIST")
	require.Error(t, err)
}

func TestInstance_Get_IsCachedUntilEpochAdvances(t *testing.T) {
	t.Parallel()

	mem := memory.New("test-memory")
	require.NoError(t, mem.Set("A", "1"))

	inst, err := NewBuilder().WithSource(mem).Build()
	require.NoError(t, err)

	first, err := inst.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "1", first.ResolvedValue)

	// The memory source is a source.ChangeNotifier: Set advances the
	// registry epoch immediately, so the next Get observes the new value
	// rather than serving a stale cache entry.
	require.NoError(t, mem.Set("A", "2"))
	refreshed, err := inst.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "2", refreshed.ResolvedValue)
}

func TestInstance_Get_RegisteringAnotherSourceAlsoInvalidatesCache(t *testing.T) {
	t.Parallel()

	mem := memory.New("test-memory")
	require.NoError(t, mem.Set("A", "1"))

	inst, err := NewBuilder().WithSource(mem).Build()
	require.NoError(t, err)

	first, err := inst.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "1", first.ResolvedValue)

	other := memory.New("another-source")
	require.NoError(t, other.Set("A", "2"))
	require.NoError(t, inst.RegisterSource(other))

	refreshed, err := inst.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "1", refreshed.ResolvedValue, "original memory source has higher registration order but equal priority; first registered wins ties")
}

func TestInstance_All_ReturnsEveryVariableSortedByKey(t *testing.T) {
	t.Parallel()

	mem := memory.New("test-memory")
	require.NoError(t, mem.Set("B", "2"))
	require.NoError(t, mem.Set("A", "1"))

	inst, err := NewBuilder().WithSource(mem).Build()
	require.NoError(t, err)

	all, err := inst.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Key)
	assert.Equal(t, "B", all[1].Key)
}

func TestInstance_AllKeys(t *testing.T) {
	t.Parallel()

	mem := memory.New("test-memory")
	require.NoError(t, mem.Set("ZEBRA", "1"))
	require.NoError(t, mem.Set("ALPHA", "2"))

	inst, err := NewBuilder().WithSource(mem).Build()
	require.NoError(t, err)

	keys, err := inst.AllKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ALPHA", "ZEBRA"}, keys)
}

func TestInstance_GetForFile_RequiresWorkspace(t *testing.T) {
	t.Parallel()

	inst, err := NewBuilder().Build()
	require.NoError(t, err)

	_, err = inst.GetForFile(context.Background(), "KEY", "/tmp/file.txt")
	require.Error(t, err)
}

func TestInstance_GetForFile_CascadesWorkspaceEnvFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pkgRoot := filepath.Join(root, "packages", "web")
	require.NoError(t, os.MkdirAll(pkgRoot, 0o755))

	writeFile(t, filepath.Join(root, ".env"), "SHARED=root\nOVERRIDE=root\n")
	writeFile(t, filepath.Join(pkgRoot, ".env"), "OVERRIDE=package\n")

	prov := provider.CustomProvider{
		ProviderName: "fake",
		DetectFunc:   func(string) bool { return true },
		DiscoverFunc: func(string) ([]provider.PackageInfo, error) {
			return []provider.PackageInfo{{Root: pkgRoot, Name: "web", RelativePath: "packages/web"}}, nil
		},
	}

	inst, err := NewBuilder().WithWorkspace(root, prov).Build()
	require.NoError(t, err)

	file := filepath.Join(pkgRoot, "src", "index.ts")

	shared, err := inst.GetForFile(context.Background(), "SHARED", file)
	require.NoError(t, err)
	assert.Equal(t, "root", shared.ResolvedValue)

	override, err := inst.GetForFile(context.Background(), "OVERRIDE", file)
	require.NoError(t, err)
	assert.Equal(t, "package", override.ResolvedValue)
}

func TestInstance_AllForFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "A=1\nB=2\n")

	prov := provider.CustomProvider{
		DetectFunc:   func(string) bool { return true },
		DiscoverFunc: func(string) ([]provider.PackageInfo, error) { return nil, nil },
	}

	inst, err := NewBuilder().WithWorkspace(root, prov).Build()
	require.NoError(t, err)

	all, err := inst.AllForFile(context.Background(), filepath.Join(root, "sub", "file.txt"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Key)
	assert.Equal(t, "B", all[1].Key)
}

func TestInstance_SubscribeReceivesVariablesChangedOnMemoryMutation(t *testing.T) {
	t.Parallel()

	mem := memory.New("test-memory")
	inst, err := NewBuilder().WithSource(mem).Build()
	require.NoError(t, err)

	var events []event.Event
	unsubscribe := inst.Subscribe(func(e event.Event) { events = append(events, e) })
	defer unsubscribe()

	require.NoError(t, mem.Set("K", "v1"))
	first, err := inst.Get(context.Background(), "K")
	require.NoError(t, err)
	assert.Equal(t, "v1", first.ResolvedValue)

	require.NoError(t, mem.Set("K", "v2"))
	second, err := inst.Get(context.Background(), "K")
	require.NoError(t, err)
	assert.Equal(t, "v2", second.ResolvedValue)

	var changed []event.Event
	for _, e := range events {
		if e.Kind == event.KindVariablesChanged {
			changed = append(changed, e)
		}
	}
	require.Len(t, changed, 2)
	assert.Equal(t, []string{"K"}, changed[0].Added)
	assert.Equal(t, []string{"K"}, changed[1].Modified)
}

func TestInstance_SubscribeReceivesSourceEvents(t *testing.T) {
	t.Parallel()

	inst, err := NewBuilder().Build()
	require.NoError(t, err)

	var kinds []event.Kind
	unsubscribe := inst.Subscribe(func(e event.Event) { kinds = append(kinds, e.Kind) })
	defer unsubscribe()

	require.NoError(t, inst.RegisterSource(memory.New("extra")))
	assert.Contains(t, kinds, event.KindSourceAdded)
}

func TestInstance_WithValues_RegistersAnonymousMemorySource(t *testing.T) {
	t.Parallel()

	inst, err := NewBuilder().WithValues(map[string]string{"B": "2", "A": "1"}).Build()
	require.NoError(t, err)

	all, err := inst.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Key)
	assert.Equal(t, "1", all[0].ResolvedValue)
	assert.Equal(t, "B", all[1].Key)
}

func TestInstance_UnregisterSource(t *testing.T) {
	t.Parallel()

	inst, err := NewBuilder().Build()
	require.NoError(t, err)

	mem := memory.New("extra")
	require.NoError(t, inst.RegisterSource(mem))
	assert.True(t, inst.UnregisterSource("extra"))
	assert.False(t, inst.UnregisterSource("extra"))
}
