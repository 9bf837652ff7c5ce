//go:build unix

package zone

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MappedZone carves blocks out of one anonymous memory mapping.
type MappedZone struct {
	mu sync.Mutex

	name      string
	sizeTable *sizeClassTable
	region    []byte
	base      uintptr

	// end is the bump pointer: the offset of the first never-used byte.
	end int

	// Per-class free lists of block offsets
	freeLists [][]int

	// Freed large blocks keyed by their page-rounded size
	largeFree map[int][]int

	stats  Stats
	closed bool
}

// NewMapped maps capacity bytes (rounded up to whole pages) and returns a zone over them.
func NewMapped(capacity int, config SizeClassConfig) (*MappedZone, error) {
	if capacity <= 0 {
		return nil, ErrBadSize
	}
	capacity = alignUp(capacity, pageSize)

	region, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("zone: mmap %d bytes: %w", capacity, err)
	}

	table := newSizeClassTable(config)
	return &MappedZone{
		name:      "mapped/" + config.Name,
		sizeTable: table,
		region:    region,
		base:      uintptr(unsafe.Pointer(unsafe.SliceData(region))),
		freeLists: make([][]int, table.NumClasses()),
		largeFree: make(map[int][]int),
		stats:     Stats{Capacity: int64(capacity)},
	}, nil
}

// Name implements Zone.
func (z *MappedZone) Name() string { return z.name }

// GoodSize implements Zone.
func (z *MappedZone) GoodSize(size int) int { return z.sizeTable.goodSize(size) }

// Malloc implements Zone.
func (z *MappedZone) Malloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrBadSize
	}
	if size == 0 {
		return nil, nil
	}
	if size > MaxBlockSize {
		return nil, ErrExhausted
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return nil, ErrClosed
	}
	return z.mallocLocked(size)
}

func (z *MappedZone) mallocLocked(size int) ([]byte, error) {
	n := z.sizeTable.goodSize(size)

	if sc := z.sizeTable.getSizeClass(size); sc < z.sizeTable.NumClasses() {
		if l := z.freeLists[sc]; len(l) > 0 {
			z.freeLists[sc] = l[:len(l)-1]
			return z.reuseLocked(l[len(l)-1], size, n), nil
		}
	} else if l := z.largeFree[n]; len(l) > 0 {
		z.largeFree[n] = l[:len(l)-1]
		return z.reuseLocked(l[len(l)-1], size, n), nil
	}

	off := z.end
	if n > pageSize {
		off = alignUp(off, pageSize)
	}
	if off+n > len(z.region) {
		return nil, ErrExhausted
	}
	z.end = off + n
	z.stats.MallocCalls++
	z.stats.BytesInUse += int64(n)
	// Fresh pages from an anonymous mapping are already zero.
	return z.region[off : off+size : off+n], nil
}

func (z *MappedZone) reuseLocked(off, size, n int) []byte {
	b := z.region[off : off+size : off+n]
	clear(b)
	z.stats.Reused++
	z.stats.MallocCalls++
	z.stats.BytesInUse += int64(n)
	return b
}

// Realloc implements Zone.
func (z *MappedZone) Realloc(b []byte, size int) ([]byte, error) {
	if size < 0 {
		return b, ErrBadSize
	}
	if b == nil {
		return z.Malloc(size)
	}
	if size == 0 {
		return nil, z.Free(b)
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	z.stats.ReallocCalls++
	if z.closed {
		return b, ErrClosed
	}
	if _, err := z.offsetOf(b); err != nil {
		return b, err
	}
	if size <= cap(b) {
		old := len(b)
		b = b[:size]
		if size > old {
			clear(b[old:])
		}
		return b, nil
	}

	if size > MaxBlockSize {
		return b, ErrExhausted
	}
	nb, err := z.mallocLocked(size)
	if err != nil {
		return b, err
	}
	copy(nb, b)
	return nb, z.freeLocked(b)
}

// Free implements Zone.
func (z *MappedZone) Free(b []byte) error {
	if b == nil {
		return nil
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return ErrClosed
	}
	return z.freeLocked(b)
}

func (z *MappedZone) freeLocked(b []byte) error {
	off, err := z.offsetOf(b)
	if err != nil {
		return err
	}

	n := cap(b)
	if sc := z.sizeTable.getSizeClass(n); sc < z.sizeTable.NumClasses() {
		z.freeLists[sc] = append(z.freeLists[sc], off)
	} else {
		// Hand the pages back; the range stays mapped and reads as zero.
		_ = unix.Madvise(z.region[off:off+n], unix.MADV_DONTNEED)
		z.largeFree[n] = append(z.largeFree[n], off)
	}

	z.stats.FreeCalls++
	z.stats.BytesInUse -= int64(n)
	return nil
}

// offsetOf locates b inside the mapping.
func (z *MappedZone) offsetOf(b []byte) (int, error) {
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if p < z.base || p >= z.base+uintptr(len(z.region)) {
		return 0, ErrForeign
	}
	off := int(p - z.base)
	if off+cap(b) > z.end || z.sizeTable.goodSize(cap(b)) != cap(b) {
		return 0, ErrForeign
	}
	return off, nil
}

// Stats implements Zone.
func (z *MappedZone) Stats() Stats {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.stats
}

// Close unmaps the region. Blocks handed out by the zone must not be used afterwards.
func (z *MappedZone) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return nil
	}
	z.closed = true
	region := z.region
	z.region = nil
	return unix.Munmap(region)
}
