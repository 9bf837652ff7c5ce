package rt

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// counters records calls made through a counting allocator context.
type counters struct {
	allocs    atomic.Int64
	reallocs  atomic.Int64
	deallocs  atomic.Int64
	retains   atomic.Int64
	releases  atomic.Int64
	lastSize  atomic.Int64
	bytesLive atomic.Int64
}

// countingContext returns a context over the Go heap that counts every call.
func countingContext(c *counters) AllocatorContext {
	return AllocatorContext{
		Info: c,
		Retain: func(info any) any {
			info.(*counters).retains.Add(1)
			return info
		},
		Release: func(info any) {
			info.(*counters).releases.Add(1)
		},
		Allocate: func(size int, _ AllocHint, info any) []byte {
			c := info.(*counters)
			c.allocs.Add(1)
			c.lastSize.Store(int64(size))
			c.bytesLive.Add(int64(size))
			return make([]byte, size)
		},
		Reallocate: func(ptr []byte, newSize int, _ AllocHint, info any) []byte {
			c := info.(*counters)
			c.reallocs.Add(1)
			c.bytesLive.Add(int64(newSize - len(ptr)))
			nb := make([]byte, newSize)
			copy(nb, ptr)
			return nb
		},
		Deallocate: func(ptr []byte, info any) {
			c := info.(*counters)
			c.deallocs.Add(1)
			c.bytesLive.Add(-int64(len(ptr)))
		},
		PreferredSize: func(size int, _ AllocHint, _ any) int {
			return alignUp(size, 64)
		},
	}
}

// newCountingAllocator creates a counting allocator parented on SystemDefault.
func newCountingAllocator(t testing.TB) (*Allocator, *counters) {
	t.Helper()
	c := &counters{}
	a, err := NewAllocator(SystemDefault, countingContext(c))
	require.NoError(t, err)
	require.NotNil(t, a)
	return a, c
}

// saveRegistry restores the class table when the test ends.
func saveRegistry(t testing.TB) {
	t.Helper()
	table, names, count := classTable, classNames, classCount
	t.Cleanup(func() {
		classTable, classNames, classCount = table, names, count
	})
}

// finalizeCounter is a registered test class that counts finalizations.
type finalizeCounter struct {
	id        TypeID
	inits     atomic.Int64
	finalized atomic.Int64
}

// registerCountingClass registers a class whose Init and Finalize are counted.
func registerCountingClass(t testing.TB, name string) *finalizeCounter {
	t.Helper()
	saveRegistry(t)

	fc := &finalizeCounter{}
	cls := &Class{
		Name:     name,
		Init:     func(*Instance) { fc.inits.Add(1) },
		Finalize: func(*Instance) { fc.finalized.Add(1) },
	}
	fc.id = RegisterClass(cls)
	require.NotEqual(t, NotATypeID, fc.id)
	return fc
}

// createInstance is CreateInstance with a require.
func createInstance(t testing.TB, a *Allocator, id TypeID, extra int) *Instance {
	t.Helper()
	inst, err := CreateInstance(a, id, extra)
	require.NoError(t, err)
	require.NotNil(t, inst)
	return inst
}

// skipInDebug skips tests of release-build behavior for precondition violations.
func skipInDebug(t testing.TB) {
	t.Helper()
	if debug {
		t.Skip("precondition violations panic in debug builds")
	}
}
