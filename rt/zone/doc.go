// Package zone provides native memory zones that back objkit allocators.
//
// # Overview
//
// A Zone hands out byte blocks and takes them back. Zones are the lowest
// layer of the allocator stack: package rt wraps a zone in an allocator
// context, and instances of registered types are carved from whatever zone
// backs the allocator they were created with.
//
// # Implementations
//
// HeapZone: segregated free lists on the Go heap
//
//   - Size classes computed from a SizeClassConfig preset
//   - One sync.Pool per class; blocks above MediumMax bypass the pools
//   - Safe for concurrent use; backs rt.SystemDefault
//
// MappedZone: a fixed anonymous memory mapping
//
//   - Bump-pointer carving with per-class free lists for reuse
//   - Large blocks are page aligned and returned to the kernel with madvise
//   - Close unmaps the region; blocks must not be used afterwards
//
// # Size Classes
//
// Requests are rounded up to the smallest class that holds them. GoodSize
// reports that rounded size so callers can use the slack:
//
//	z := zone.NewHeap(zone.ConfigBalanced)
//	n := z.GoodSize(100) // 112
//	b, err := z.Malloc(100)
//	// len(b) == 100, cap(b) == n
//
// # Thread Safety
//
// Every Zone in this package is safe for concurrent use.
package zone
