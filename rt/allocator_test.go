package rt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/objkit/rt/zone"
)

func TestAllocator_NullSizeOperations(t *testing.T) {
	a, c := newCountingAllocator(t)
	defer Release(a)

	for _, al := range []*Allocator{nil, Default, SystemDefault, Malloc, Null, a} {
		assert.Nil(t, al.Allocate(0, 0))
		assert.NotPanics(t, func() { al.Deallocate(nil) })
		assert.Nil(t, al.Reallocate(nil, 0, 0))
	}
	assert.Zero(t, c.allocs.Load())
	assert.Zero(t, c.deallocs.Load())
	assert.Zero(t, c.reallocs.Load())
}

func TestAllocator_ReallocatePiecewise(t *testing.T) {
	a, c := newCountingAllocator(t)
	defer Release(a)

	// nil ptr, size > 0: allocate
	b := a.Reallocate(nil, 10, 0)
	require.Len(t, b, 10)
	assert.Equal(t, int64(1), c.allocs.Load())

	// both non-trivial: backend reallocate
	copy(b, "abcdefghij")
	b = a.Reallocate(b, 20, 0)
	require.Len(t, b, 20)
	assert.Equal(t, "abcdefghij", string(b[:10]))
	assert.Equal(t, int64(1), c.reallocs.Load())

	// ptr, size 0: deallocate
	assert.Nil(t, a.Reallocate(b, 0, 0))
	assert.Equal(t, int64(1), c.deallocs.Load())
	assert.Zero(t, c.bytesLive.Load())
}

func TestAllocator_ReallocateWithoutCallback(t *testing.T) {
	a, err := NewAllocator(nil, AllocatorContext{
		Allocate: func(size int, _ AllocHint, _ any) []byte { return make([]byte, size) },
	})
	require.NoError(t, err)
	defer Release(a)

	b := a.Allocate(8, 0)
	require.Len(t, b, 8)
	assert.Nil(t, a.Reallocate(b, 16, 0), "no Reallocate callback reports failure")
	assert.NotPanics(t, func() { a.Deallocate(b) }, "no Deallocate callback is a no-op")
	assert.Equal(t, 100, a.PreferredSize(100, 0))
}

func TestAllocator_Null(t *testing.T) {
	assert.Nil(t, Null.Allocate(64, 0))
	assert.Nil(t, Null.Reallocate(nil, 64, 0))
	assert.Nil(t, Null.Reallocate(make([]byte, 8), 64, 0))
	assert.NotPanics(t, func() { Null.Deallocate(make([]byte, 8)) })
	assert.Nil(t, Null.Context().Deallocate, "Null is an allocate-only sink")
}

func TestAllocator_Malloc(t *testing.T) {
	b := Malloc.Allocate(13, 0)
	require.Len(t, b, 13)
	copy(b, "hello")

	b = Malloc.Reallocate(b, 100, 0)
	require.Len(t, b, 100)
	assert.Equal(t, "hello", string(b[:5]))
	assert.Equal(t, 16, Malloc.PreferredSize(13, 0))
	Malloc.Deallocate(b)
}

func TestAllocator_SystemDefaultUsesZone(t *testing.T) {
	z := SystemZone()
	require.NotNil(t, z)
	assert.Same(t, z, SystemDefault.Zone())

	before := z.Stats()
	b := SystemDefault.Allocate(100, 0)
	require.Len(t, b, 100)
	assert.Equal(t, z.GoodSize(100), SystemDefault.PreferredSize(100, 0))
	assert.Equal(t, before.MallocCalls+1, z.Stats().MallocCalls)

	SystemDefault.Deallocate(b)
	assert.Equal(t, before.BytesInUse, z.Stats().BytesInUse)
}

func TestAllocator_PreferredSizeNeverShrinks(t *testing.T) {
	a, err := NewAllocator(nil, AllocatorContext{
		Allocate:      func(size int, _ AllocHint, _ any) []byte { return make([]byte, size) },
		PreferredSize: func(int, AllocHint, any) int { return 1 },
	})
	require.NoError(t, err)
	defer Release(a)

	assert.Equal(t, 500, a.PreferredSize(500, 0))

	c, _ := newCountingAllocator(t)
	defer Release(c)
	assert.Equal(t, 128, c.PreferredSize(65, 0))
}

func TestNewAllocator_MissingAllocate(t *testing.T) {
	skipInDebug(t)

	retained := 0
	a, err := NewAllocator(nil, AllocatorContext{
		Retain: func(info any) any { retained++; return info },
	})
	require.ErrorIs(t, err, ErrNoAllocateFunc)
	assert.Nil(t, a)
	assert.Zero(t, retained, "context is not retained when rejected")
}

func TestNewAllocator_BadVersion(t *testing.T) {
	ctx := countingContext(&counters{})
	ctx.Version = 1
	_, err := NewAllocator(nil, ctx)
	require.ErrorIs(t, err, ErrContextVersion)
}

func TestNewAllocator_InfoRetainedAndReleasedOnce(t *testing.T) {
	a, c := newCountingAllocator(t)
	assert.Equal(t, int64(1), c.retains.Load())
	assert.Zero(t, c.releases.Load())

	Retain(a)
	Release(a)
	assert.Zero(t, c.releases.Load())

	Release(a)
	assert.Equal(t, int64(1), c.retains.Load())
	assert.Equal(t, int64(1), c.releases.Load())
}

func TestNewAllocator_ParentOwnsRecord(t *testing.T) {
	parent, pc := newCountingAllocator(t)

	child, err := NewAllocator(parent, countingContext(&counters{}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pc.allocs.Load(), "child record comes from parent")
	assert.Same(t, parent, GetAllocator(child))
	assert.Equal(t, 2, RetainCount(parent))

	Release(child)
	assert.Equal(t, int64(1), pc.deallocs.Load(), "child record goes back to parent")
	assert.Equal(t, 1, RetainCount(parent))

	Release(parent)
	assert.Equal(t, int64(1), pc.releases.Load())
}

func TestNewAllocator_ParentFailure(t *testing.T) {
	c := &counters{}
	a, err := NewAllocator(Null, countingContext(c))
	require.ErrorIs(t, err, ErrNoMemory)
	assert.Nil(t, a)
	assert.Equal(t, int64(1), c.retains.Load())
	assert.Equal(t, int64(1), c.releases.Load(), "retained info is given back on failure")
}

func TestNewAllocator_UseContext(t *testing.T) {
	c := &counters{}
	a, err := NewAllocator(UseContext, countingContext(c))
	require.NoError(t, err)

	assert.Equal(t, int64(1), c.allocs.Load(), "record carved from its own context")
	assert.Same(t, a, GetAllocator(a))
	assert.Equal(t, 1, RetainCount(a), "self-ownership does not add a reference")

	fc := registerCountingClass(t, "SelfOwnedChild")
	inst := createInstance(t, a, fc.id, 4)
	assert.Equal(t, 2, RetainCount(a))
	Release(inst)

	Release(a)
	assert.Equal(t, int64(2), c.deallocs.Load())
	assert.Equal(t, int64(1), c.releases.Load())
	assert.Zero(t, c.bytesLive.Load())
}

func TestAllocator_ContextIsCopied(t *testing.T) {
	c := &counters{}
	ctx := countingContext(c)
	a, err := NewAllocator(nil, ctx)
	require.NoError(t, err)
	defer Release(a)

	ctx.Allocate = nil
	got := a.Context()
	require.NotNil(t, got.Allocate)
	assert.Same(t, c, got.Info)
}

func TestAllocator_Descriptions(t *testing.T) {
	a, err := NewAllocator(nil, AllocatorContext{
		Info:     "info",
		Allocate: func(size int, _ AllocHint, _ any) []byte { return make([]byte, size) },
	})
	require.NoError(t, err)
	defer Release(a)

	assert.Regexp(t, `^<Allocator 0x[0-9a-f]+ \[0x[0-9a-f]+\]>\{info = info\}$`, a.Description())
	assert.Equal(t, a.Description(), Description(a))

	named, err := NewAllocator(nil, AllocatorContext{
		Allocate:        func(size int, _ AllocHint, _ any) []byte { return make([]byte, size) },
		CopyDescription: func(any) string { return "arena" },
	})
	require.NoError(t, err)
	defer Release(named)
	assert.Equal(t, "arena", named.Description())

	assert.Contains(t, SystemDefault.Description(), SystemZone().Name())
}

func TestNewZoneAllocator_Mapped(t *testing.T) {
	mz, err := zone.NewMapped(64*1024, zone.ConfigCoarse)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mz.Close() })

	a, err := NewZoneAllocator(nil, mz)
	require.NoError(t, err)
	assert.Same(t, mz, a.Zone())

	fc := registerCountingClass(t, "InMappedZone")
	inst := createInstance(t, a, fc.id, 40)
	copy(inst.Bytes(), "lives in the mapping")
	assert.Equal(t, int64(1), mz.Stats().MallocCalls)
	assert.Equal(t, int64(mz.GoodSize(HeaderSize+PointerSize+40)), mz.Stats().BytesInUse)

	Release(inst)
	assert.Zero(t, mz.Stats().BytesInUse)
	Release(a)
}

func TestAllocator_ContextZoneAdapter(t *testing.T) {
	a, c := newCountingAllocator(t)
	defer Release(a)

	z := a.Zone()
	b, err := z.Malloc(10)
	require.NoError(t, err)
	require.Len(t, b, 10)

	b, err = z.Realloc(b, 30)
	require.NoError(t, err)
	require.Len(t, b, 30)

	require.NoError(t, z.Free(b))
	assert.Equal(t, 64, z.GoodSize(10))
	assert.Equal(t, int64(1), c.allocs.Load())
	assert.Equal(t, int64(1), c.reallocs.Load())
	assert.Equal(t, int64(1), c.deallocs.Load())

	_, err = Null.Zone().Malloc(8)
	assert.ErrorIs(t, err, zone.ErrExhausted)
}

func TestAllocator_OversizedRequestsFail(t *testing.T) {
	for _, a := range []*Allocator{nil, SystemDefault, Malloc} {
		assert.Nil(t, a.Allocate(math.MaxInt-100, 0))
		assert.Nil(t, a.Reallocate(make([]byte, 8), math.MaxInt-100, 0))
		assert.GreaterOrEqual(t, a.PreferredSize(math.MaxInt-100, 0), math.MaxInt-100)
	}
}

func TestCreateInstance_OversizedFromDefaults(t *testing.T) {
	fc := registerCountingClass(t, "Huge")

	for _, a := range []*Allocator{nil, Malloc} {
		inst, err := CreateInstance(a, fc.id, math.MaxInt-64)
		require.ErrorIs(t, err, ErrNoMemory)
		assert.Nil(t, inst)
	}
	assert.Zero(t, fc.inits.Load())
}
