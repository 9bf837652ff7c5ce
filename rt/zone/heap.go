package zone

import (
	"sync"
	"sync/atomic"
)

// HeapZone serves blocks from the Go heap through per-class pools.
type HeapZone struct {
	name      string
	sizeTable *sizeClassTable

	// Segregated free lists by size class
	pools []sync.Pool

	mallocCalls  atomic.Int64
	freeCalls    atomic.Int64
	reallocCalls atomic.Int64
	reused       atomic.Int64
	bytesInUse   atomic.Int64
}

// NewHeap creates a heap zone using the given size class preset.
func NewHeap(config SizeClassConfig) *HeapZone {
	table := newSizeClassTable(config)
	return &HeapZone{
		name:      "heap/" + config.Name,
		sizeTable: table,
		pools:     make([]sync.Pool, table.NumClasses()),
	}
}

// Name implements Zone.
func (z *HeapZone) Name() string { return z.name }

// GoodSize implements Zone.
func (z *HeapZone) GoodSize(size int) int { return z.sizeTable.goodSize(size) }

// Malloc implements Zone.
func (z *HeapZone) Malloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrBadSize
	}
	if size == 0 {
		return nil, nil
	}
	if size > MaxBlockSize {
		return nil, ErrExhausted
	}

	var b []byte
	sc := z.sizeTable.getSizeClass(size)
	if sc < z.sizeTable.NumClasses() {
		if p, ok := z.pools[sc].Get().(*[]byte); ok {
			b = (*p)[:size]
			clear(b)
			z.reused.Add(1)
		} else {
			b = make([]byte, size, z.sizeTable.boundaries[sc])
		}
	} else {
		b = make([]byte, size, alignUp(size, pageSize))
	}

	z.mallocCalls.Add(1)
	z.bytesInUse.Add(int64(cap(b)))
	return b, nil
}

// Realloc implements Zone.
func (z *HeapZone) Realloc(b []byte, size int) ([]byte, error) {
	z.reallocCalls.Add(1)
	if size < 0 {
		return b, ErrBadSize
	}
	if b == nil {
		return z.Malloc(size)
	}
	if size == 0 {
		return nil, z.Free(b)
	}
	if size <= cap(b) {
		old := len(b)
		b = b[:size]
		if size > old {
			clear(b[old:])
		}
		return b, nil
	}

	nb, err := z.Malloc(size)
	if err != nil {
		return b, err
	}
	copy(nb, b)
	// A foreign block cannot be pooled; the collector reclaims it.
	_ = z.Free(b)
	return nb, nil
}

// Free implements Zone. Blocks whose capacity does not match a class are
// left to the garbage collector and reported as foreign.
func (z *HeapZone) Free(b []byte) error {
	if b == nil {
		return nil
	}
	c := cap(b)
	sc := z.sizeTable.getSizeClass(c)
	if sc < z.sizeTable.NumClasses() {
		if z.sizeTable.boundaries[sc] != c {
			return ErrForeign
		}
		full := b[:c]
		z.pools[sc].Put(&full)
	} else if c%pageSize != 0 {
		return ErrForeign
	}

	z.freeCalls.Add(1)
	z.bytesInUse.Add(-int64(c))
	return nil
}

// Stats implements Zone.
func (z *HeapZone) Stats() Stats {
	return Stats{
		MallocCalls:  z.mallocCalls.Load(),
		FreeCalls:    z.freeCalls.Load(),
		ReallocCalls: z.reallocCalls.Load(),
		Reused:       z.reused.Load(),
		BytesInUse:   z.bytesInUse.Load(),
	}
}
