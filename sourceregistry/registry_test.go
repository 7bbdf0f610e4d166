// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package sourceregistry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/envlayer/envcore/event"
	"github.com/envlayer/envcore/source"
	"github.com/envlayer/envcore/source/mocks"
)

type fakeSource struct {
	id       source.ID
	typ      source.Type
	priority source.Priority
	snapshot source.Snapshot
	loadErr  error
}

func (f *fakeSource) ID() source.ID { return f.id }
func (f *fakeSource) Type() source.Type {
	if f.typ == "" {
		return source.TypeMemory
	}
	return f.typ
}
func (f *fakeSource) Priority() source.Priority           { return f.priority }
func (f *fakeSource) Capabilities() source.Capabilities   { return source.CapRead }
func (f *fakeSource) HasChanged() bool                    { return false }
func (f *fakeSource) Invalidate()                         {}
func (f *fakeSource) Load(context.Context) (source.Snapshot, error) {
	if f.loadErr != nil {
		return source.Snapshot{}, f.loadErr
	}
	return f.snapshot, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	src := &fakeSource{id: "mem", priority: source.PriorityMemory}
	require.NoError(t, reg.Register(src))

	got, ok := reg.Get("mem")
	require.True(t, ok)
	assert.Equal(t, src, got)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, uint64(1), reg.Epoch())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	src := &fakeSource{id: "mem", priority: source.PriorityMemory}
	require.NoError(t, reg.Register(src))

	err := reg.Register(src)
	var dup *source.DuplicateSourceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, source.ID("mem"), dup.ID)
}

func TestRegistry_Unregister(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	src := &fakeSource{id: "mem", priority: source.PriorityMemory}
	require.NoError(t, reg.Register(src))

	assert.True(t, reg.Unregister("mem"))
	assert.False(t, reg.Unregister("mem"))
	_, ok := reg.Get("mem")
	assert.False(t, ok)
	assert.Equal(t, uint64(2), reg.Epoch())
}

func TestRegistry_ByPriority_DescendingThenRegistrationOrder(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	low := &fakeSource{id: "file1", priority: source.PriorityFile}
	high := &fakeSource{id: "shell", priority: source.PriorityShell}
	tie := &fakeSource{id: "file2", priority: source.PriorityFile}

	require.NoError(t, reg.Register(low))
	require.NoError(t, reg.Register(high))
	require.NoError(t, reg.Register(tie))

	ordered := reg.ByPriority()
	require.Len(t, ordered, 3)
	assert.Equal(t, source.ID("shell"), ordered[0].ID())
	assert.Equal(t, source.ID("file1"), ordered[1].ID())
	assert.Equal(t, source.ID("file2"), ordered[2].ID())
}

func TestRegistry_ByPriority_PrecedenceOverridesNumericPriority(t *testing.T) {
	t.Parallel()

	reg := New(nil, WithPrecedence([]string{"memory", "file", "remote", "shell"}))
	shell := &fakeSource{id: "shell", typ: source.TypeShell, priority: source.PriorityShell}
	mem := &fakeSource{id: "mem", typ: source.TypeMemory, priority: source.PriorityMemory}

	require.NoError(t, reg.Register(shell))
	require.NoError(t, reg.Register(mem))

	ordered := reg.ByPriority()
	require.Len(t, ordered, 2)
	assert.Equal(t, source.ID("mem"), ordered[0].ID(), "configured precedence ranks memory ahead of shell")
	assert.Equal(t, source.ID("shell"), ordered[1].ID())
}

func TestRegistry_ByPriority_PrecedenceFallsBackForUnlistedType(t *testing.T) {
	t.Parallel()

	reg := New(nil, WithPrecedence([]string{"shell"}))
	shell := &fakeSource{id: "shell", typ: source.TypeShell, priority: source.PriorityShell}
	mem := &fakeSource{id: "mem", typ: source.TypeMemory, priority: source.PriorityMemory}

	require.NoError(t, reg.Register(mem))
	require.NoError(t, reg.Register(shell))

	ordered := reg.ByPriority()
	require.Len(t, ordered, 2)
	assert.Equal(t, source.ID("shell"), ordered[0].ID(), "a type named in the precedence list outranks one that isn't")
	assert.Equal(t, source.ID("mem"), ordered[1].ID())
}

func TestRegistry_ByPriority_NilPrecedenceUsesDefault(t *testing.T) {
	t.Parallel()

	reg := New(nil, WithPrecedence(nil))
	shell := &fakeSource{id: "shell", typ: source.TypeShell, priority: source.PriorityShell}
	mem := &fakeSource{id: "mem", typ: source.TypeMemory, priority: source.PriorityMemory}

	require.NoError(t, reg.Register(mem))
	require.NoError(t, reg.Register(shell))

	ordered := reg.ByPriority()
	assert.Equal(t, source.ID("shell"), ordered[0].ID())
}

func TestRegistry_LoadAll_JoinsErrorsButKeepsSuccesses(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	boom := errors.New("boom")
	ok := &fakeSource{id: "ok", priority: source.PriorityShell, snapshot: source.Snapshot{SourceID: "ok"}}
	bad := &fakeSource{id: "bad", priority: source.PriorityFile, loadErr: boom}

	require.NoError(t, reg.Register(ok))
	require.NoError(t, reg.Register(bad))

	snapshots, err := reg.LoadAll(context.Background())
	require.Len(t, snapshots, 1)
	assert.Equal(t, source.ID("ok"), snapshots[0].SourceID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestRegistry_LoadAll_WithMockSource(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockSrc := mocks.NewMockSource(ctrl)
	mockSrc.EXPECT().ID().Return(source.ID("mocked")).AnyTimes()
	mockSrc.EXPECT().Priority().Return(source.PriorityRemote).AnyTimes()
	mockSrc.EXPECT().Load(gomock.Any()).Return(source.Snapshot{SourceID: "mocked"}, nil)

	reg := New(nil)
	require.NoError(t, reg.Register(mockSrc))

	snapshots, err := reg.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, source.ID("mocked"), snapshots[0].SourceID)
}

type panickingSource struct {
	fakeSource
}

func (p *panickingSource) Load(context.Context) (source.Snapshot, error) {
	panic("boom")
}

func TestRegistry_LoadAll_RecoversFromPanickingSource(t *testing.T) {
	t.Parallel()

	reg := New(nil)
	ok := &fakeSource{id: "ok", priority: source.PriorityShell, snapshot: source.Snapshot{SourceID: "ok"}}
	bad := &panickingSource{fakeSource{id: "bad", priority: source.PriorityFile}}

	require.NoError(t, reg.Register(ok))
	require.NoError(t, reg.Register(bad))

	snapshots, err := reg.LoadAll(context.Background())
	require.Len(t, snapshots, 1)
	assert.Equal(t, source.ID("ok"), snapshots[0].SourceID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

type notifyingSource struct {
	fakeSource
	fn func(added, removed, modified []string)
}

func (n *notifyingSource) OnChange(fn func(added, removed, modified []string)) {
	n.fn = fn
}

var _ source.ChangeNotifier = (*notifyingSource)(nil)

func TestRegistry_Register_WiresChangeNotifier(t *testing.T) {
	t.Parallel()

	bus := event.NewBus(4)
	var received []event.Event
	bus.Subscribe(func(e event.Event) { received = append(received, e) })

	reg := New(bus)
	src := &notifyingSource{fakeSource: fakeSource{id: "mem", priority: source.PriorityMemory}}
	require.NoError(t, reg.Register(src))

	epochBefore := reg.Epoch()
	require.NotNil(t, src.fn)
	src.fn([]string{"K"}, nil, nil)

	assert.Equal(t, epochBefore+1, reg.Epoch())
	require.Len(t, received, 2)
	assert.Equal(t, event.KindVariablesChanged, received[1].Kind)
	assert.Equal(t, []string{"K"}, received[1].Added)
}

func TestRegistry_Invalidate(t *testing.T) {
	t.Parallel()

	bus := event.NewBus(4)
	var kinds []event.Kind
	bus.Subscribe(func(e event.Event) { kinds = append(kinds, e.Kind) })

	reg := New(bus)
	src := &fakeSource{id: "mem", priority: source.PriorityMemory}
	require.NoError(t, reg.Register(src))

	epochBefore := reg.Epoch()
	assert.True(t, reg.Invalidate("mem"))
	assert.Equal(t, epochBefore+1, reg.Epoch())
	assert.False(t, reg.Invalidate("missing"))

	require.Len(t, kinds, 2)
	assert.Equal(t, event.KindCacheInvalidated, kinds[1])
}

func TestRegistry_PublishesEvents(t *testing.T) {
	t.Parallel()

	bus := event.NewBus(4)
	var kinds []event.Kind
	bus.Subscribe(func(e event.Event) { kinds = append(kinds, e.Kind) })

	reg := New(bus)
	src := &fakeSource{id: "mem", priority: source.PriorityMemory}
	require.NoError(t, reg.Register(src))
	reg.Unregister("mem")

	require.Len(t, kinds, 2)
	assert.Equal(t, event.KindSourceAdded, kinds[0])
	assert.Equal(t, event.KindSourceRemoved, kinds[1])
}
