// Package rt is the object runtime that every objkit data type is built on.
//
// # Overview
//
// Independently written data types share one protocol for allocation,
// identification, reference counting and destruction:
//
//   - A type author registers a Class and receives a TypeID.
//   - CreateInstance asks an Allocator for memory sized to the type, stamps a
//     header with the TypeID and a retain count of 1, and runs the Init callback.
//   - Retain and Release adjust the count. When it reaches zero the Finalize
//     callback runs and the memory goes back to the allocator that produced it.
//
// # Allocators
//
// An Allocator is a bundle of callbacks over an opaque Info value. Built-in
// allocators are permanent:
//
//	Default       resolves to the calling goroutine's current default
//	SystemDefault the process default, backed by a pooled heap zone
//	Malloc        plain Go heap, no pooling
//	Null          allocate returns nil, deallocate does nothing
//	UseContext    only valid as the parent of NewAllocator
//
// A nil *Allocator behaves like Default everywhere.
//
// Each goroutine may override its default allocator with SetThreadDefault.
// The override is dropped by ExitThread (Go does it for you) or Shutdown.
//
// # Reference Counts
//
// The low 15 bits of a count live in the instance header. Counts beyond that
// spill into a process-wide overflow table guarded by a spin lock. Permanent
// instances (see InitStaticInstance) are never counted and report
// PermanentCount.
//
// # Usage Example
//
//	var widgetClass = rt.Class{
//	    Name:     "Widget",
//	    Finalize: func(inst *rt.Instance) { /* release owned resources */ },
//	}
//	widgetID := rt.RegisterClass(&widgetClass)
//
//	w, err := rt.CreateInstance(nil, widgetID, 32)
//	if err != nil {
//	    return err
//	}
//	copy(w.Bytes(), "payload")
//	rt.Retain(w)
//	rt.Release(w)
//	rt.Release(w) // finalized here
//
// # Thread Safety
//
// Retain, Release, CreateInstance and the allocator methods are safe for
// concurrent use. RegisterClass and UnregisterClass are not: call them during
// setup and teardown only.
//
// # Debug Builds
//
// Building with -tags objkit_debug turns precondition violations (unregistered
// type ids, missing Allocate callbacks, releasing freed instances) into panics.
// Without the tag, calls that return an error report them and the rest ignore
// the call.
package rt
