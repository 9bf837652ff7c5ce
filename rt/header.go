package rt

import (
	"math"
	"unsafe"
)

const (
	// PointerSize is the size of a machine pointer. Extra bytes are rounded to it,
	// and instances from a non-default allocator reserve one for the owner slot.
	PointerSize = int(unsafe.Sizeof(uintptr(0)))

	// HeaderSize is the space accounted for the object header in every block.
	HeaderSize = 16

	// inlineBits is the width of the in-header part of a retain count.
	inlineBits = 15

	// inlineMax is the largest count the header holds before spilling.
	inlineMax = 1<<inlineBits - 1

	// PermanentCount is what RetainCount reports for permanent instances.
	PermanentCount = math.MaxInt
)

// refMode tells how an instance's lifetime is managed.
type refMode uint8

const (
	refUninitialized refMode = iota // zero value: never stamped
	refCounted                      // Live: inline (+ overflow) count
	refStatic                       // permanent; retain/release are no-ops
	refFinalizing                   // count reached zero, teardown in progress
	refFreed                        // memory returned to the allocator
)

func (m refMode) String() string {
	switch m {
	case refUninitialized:
		return "uninitialized"
	case refCounted:
		return "counted"
	case refStatic:
		return "static"
	case refFinalizing:
		return "finalizing"
	case refFreed:
		return "freed"
	}
	return "unknown"
}

// header is the per-instance bookkeeping.
//
// The logical retain count is inline when hasExternalCount is false and
// inline + overflow<<inlineBits when it is true. hasExternalCount is never
// set without an overflow table entry.
type header struct {
	typeID TypeID
	mode   refMode
	inline uint16

	// usesDefaultAllocator: storage came from SystemDefault and no owner is kept.
	usesDefaultAllocator bool

	// hasExternalCount: the high part of the count is in the overflow table.
	hasExternalCount bool
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
