package rt

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/objkit/internal/logger"
	"github.com/joshuapare/objkit/rt/zone"
)

// AllocHint carries backend-specific allocation hints. The runtime passes it through.
type AllocHint uint64

// AllocatorContext is the callback bundle behind an Allocator. Only Allocate
// is required. Every callback receives the Info value that was current when
// the allocator was created (after Retain, if supplied).
type AllocatorContext struct {
	// Version must be 0.
	Version int

	Info any

	// Retain is called once at creation; its result replaces Info.
	Retain func(info any) any
	// Release is called once when the allocator is finalized.
	Release func(info any)

	CopyDescription func(info any) string

	Allocate      func(size int, hint AllocHint, info any) []byte
	Reallocate    func(ptr []byte, newSize int, hint AllocHint, info any) []byte
	Deallocate    func(ptr []byte, info any)
	PreferredSize func(size int, hint AllocHint, info any) int
}

func (c *AllocatorContext) deallocate(ptr []byte) {
	if ptr != nil && c.Deallocate != nil {
		c.Deallocate(ptr, c.Info)
	}
}

// allocatorRecordSize is the payload accounted for an allocator instance.
var allocatorRecordSize = int(unsafe.Sizeof(AllocatorContext{}))

// Allocator is a source of memory, itself a reference-counted instance.
// A nil *Allocator means the calling goroutine's default allocator.
type Allocator struct {
	Instance

	name string
	ctx  AllocatorContext

	// zone is set for allocators that wrap a native zone.
	zone zone.Zone
}

func (a *Allocator) instance() *Instance {
	if a == nil {
		return nil
	}
	return &a.Instance
}

// NewAllocator creates an allocator from ctx, carving its own record from
// parent. A nil parent means the calling goroutine's default; UseContext
// makes the allocator allocate its record from ctx itself.
//
// ctx must supply Allocate: a missing Allocate panics in debug builds and
// returns ErrNoAllocateFunc otherwise.
func NewAllocator(parent *Allocator, ctx AllocatorContext) (*Allocator, error) {
	if ctx.Allocate == nil {
		assertf(false, "NewAllocator: context has no Allocate function")
		return nil, ErrNoAllocateFunc
	}
	if ctx.Version != 0 {
		return nil, fmt.Errorf("%w: %d", ErrContextVersion, ctx.Version)
	}

	// The context is copied here; later changes to the caller's value are not seen.
	a := &Allocator{ctx: ctx}
	a.value = a
	if ctx.Retain != nil {
		a.ctx.Info = ctx.Retain(ctx.Info)
	}

	var err error
	if parent == UseContext {
		err = a.stampSelfOwned()
	} else {
		err = stampInstance(&a.Instance, parent, AllocatorTypeID, allocatorRecordSize)
	}
	if err != nil {
		a.releaseInfo()
		return nil, fmt.Errorf("new allocator: %w", err)
	}
	return a, nil
}

// stampSelfOwned allocates a's record through a's own context.
func (a *Allocator) stampSelfOwned() error {
	prefix := HeaderSize + PointerSize
	block := a.ctx.Allocate(prefix+alignUp(allocatorRecordSize, PointerSize), 0, a.ctx.Info)
	if block == nil {
		return ErrNoMemory
	}
	stampHeader(&a.Instance, AllocatorTypeID, a, block, prefix, allocatorRecordSize)
	return nil
}

func (a *Allocator) releaseInfo() {
	if a.ctx.Release != nil {
		a.ctx.Release(a.ctx.Info)
	}
}

// resolve maps nil and Default to the calling goroutine's default.
func (a *Allocator) resolve() *Allocator {
	if a == nil || a == Default {
		return ThreadDefault()
	}
	return a
}

// Allocate returns a block of size bytes, or nil. A size of 0 returns nil.
func (a *Allocator) Allocate(size int, hint AllocHint) []byte {
	a = a.resolve()
	if size <= 0 {
		return nil
	}
	if a.ctx.Allocate == nil {
		assertf(a != UseContext, "Allocate: UseContext is not an allocator")
		return nil
	}
	b := a.ctx.Allocate(size, hint, a.ctx.Info)
	if allocLogging() {
		logger.Debug("rt: allocate", "allocator", a.label(), "size", size, "ok", b != nil)
	}
	return b
}

// Reallocate resizes ptr. A nil ptr allocates; a newSize of 0 deallocates ptr
// and returns nil. On failure it returns nil and ptr is still valid.
func (a *Allocator) Reallocate(ptr []byte, newSize int, hint AllocHint) []byte {
	a = a.resolve()
	switch {
	case ptr == nil && newSize > 0:
		return a.Allocate(newSize, hint)
	case ptr != nil && newSize <= 0:
		a.Deallocate(ptr)
		return nil
	case ptr == nil:
		return nil
	}
	if a.ctx.Reallocate == nil {
		return nil
	}
	b := a.ctx.Reallocate(ptr, newSize, hint, a.ctx.Info)
	if allocLogging() {
		logger.Debug("rt: reallocate", "allocator", a.label(), "size", newSize, "ok", b != nil)
	}
	return b
}

// Deallocate returns ptr to the allocator. Deallocating nil is a no-op, as is
// any call on an allocator without a Deallocate callback.
func (a *Allocator) Deallocate(ptr []byte) {
	if ptr == nil {
		return
	}
	a = a.resolve()
	if allocLogging() {
		logger.Debug("rt: deallocate", "allocator", a.label(), "size", cap(ptr))
	}
	a.ctx.deallocate(ptr)
}

// PreferredSize returns the size the allocator would actually use for a
// request of size bytes. It is never less than size.
func (a *Allocator) PreferredSize(size int, hint AllocHint) int {
	a = a.resolve()
	if a.ctx.PreferredSize == nil {
		return size
	}
	if n := a.ctx.PreferredSize(size, hint, a.ctx.Info); n > size {
		return n
	}
	return size
}

// Context returns the allocator's live callback bundle.
func (a *Allocator) Context() AllocatorContext {
	return a.resolve().ctx
}

// Description returns the context's description, or a generic one.
func (a *Allocator) Description() string {
	a = a.resolve()
	if a.ctx.CopyDescription != nil {
		return a.ctx.CopyDescription(a.ctx.Info)
	}
	return fmt.Sprintf("<Allocator %p [%p]>{info = %v}", a, GetAllocator(a), a.ctx.Info)
}

// label names a in log records.
func (a *Allocator) label() string {
	if a.name != "" {
		return a.name
	}
	return fmt.Sprintf("%p", a)
}

var allocatorClass = Class{
	Name:     "Allocator",
	Finalize: finalizeAllocator,
	DebugDescription: func(inst *Instance) string {
		if a, ok := inst.value.(*Allocator); ok {
			return a.Description()
		}
		return defaultDescription(inst)
	},
}

func finalizeAllocator(inst *Instance) {
	a, ok := inst.value.(*Allocator)
	if !ok {
		return
	}
	// A self-owned allocator still needs its context to free its own record.
	if a.allocator == a {
		return
	}
	a.releaseInfo()
}
