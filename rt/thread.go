package rt

import (
	"github.com/petermattis/goid"
	"github.com/puzpuzpuz/xsync/v3"
)

// threadContext is per-goroutine runtime state. Only its owning goroutine
// reads or writes the fields; the map it lives in is concurrent.
type threadContext struct {
	id int64

	// defaultAllocator is an owned reference, or nil for SystemDefault.
	defaultAllocator *Allocator
}

var threads = xsync.NewMapOf[int64, *threadContext]()

// currentThread returns the caller's context, creating it on first use.
func currentThread() *threadContext {
	id := goid.Get()
	if tc, ok := threads.Load(id); ok {
		return tc
	}
	tc, _ := threads.LoadOrCompute(id, func() *threadContext {
		return &threadContext{id: id}
	})
	return tc
}

// ThreadDefault returns the calling goroutine's default allocator:
// its override if one is set, SystemDefault otherwise. It never creates a
// context.
func ThreadDefault() *Allocator {
	if tc, ok := threads.Load(goid.Get()); ok && tc.defaultAllocator != nil {
		return tc.defaultAllocator
	}
	return SystemDefault
}

// SetThreadDefault overrides the calling goroutine's default allocator.
// The goroutine keeps a reference to a until it is replaced or the goroutine
// context is torn down. nil or Default removes the override.
//
// Go has no goroutine-exit hook: a goroutine that sets an override must call
// ExitThread or run under Go. Otherwise its context, and the reference to a,
// stay alive until Shutdown.
func SetThreadDefault(a *Allocator) {
	if a == Default || a == UseContext {
		assertf(a != UseContext, "SetThreadDefault: UseContext is not an allocator")
		a = nil
	}

	tc := currentThread()
	prev := tc.defaultAllocator
	if a == prev {
		return
	}
	if a != nil {
		Retain(a)
	}
	tc.defaultAllocator = a
	if prev != nil {
		Release(prev)
	}
}

// ExitThread tears down the calling goroutine's context, releasing its
// default allocator override. Goroutines started with Go call it on return.
func ExitThread() {
	if tc, ok := threads.LoadAndDelete(goid.Get()); ok {
		tc.teardown()
	}
}

// Go runs fn on a new goroutine and tears the goroutine's context down when fn returns.
func Go(fn func()) {
	go func() {
		defer ExitThread()
		fn()
	}()
}

// ThreadContexts returns the number of live goroutine contexts.
func ThreadContexts() int {
	return threads.Size()
}

func (tc *threadContext) teardown() {
	if a := tc.defaultAllocator; a != nil {
		tc.defaultAllocator = nil
		Release(a)
	}
}
