package rt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidType indicates a type id that is out of range or not registered.
	ErrInvalidType = errors.New("rt: invalid type id")

	// ErrNoMemory indicates the allocator returned no memory.
	ErrNoMemory = errors.New("rt: allocation failed")

	// ErrBadSize indicates an extra byte count that is negative or too large.
	ErrBadSize = errors.New("rt: bad size")

	// ErrNoAllocateFunc indicates an allocator context without an Allocate function.
	ErrNoAllocateFunc = errors.New("rt: allocator context has no Allocate function")

	// ErrContextVersion indicates an allocator context with an unsupported version.
	ErrContextVersion = errors.New("rt: unsupported allocator context version")
)

// assertf panics in debug builds when cond is false.
func assertf(cond bool, format string, args ...any) {
	if debug && !cond {
		panic(fmt.Sprintf("rt: "+format, args...))
	}
}
