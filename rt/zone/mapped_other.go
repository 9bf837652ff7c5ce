//go:build !unix

package zone

import "sync"

// MappedZone falls back to a bounded heap zone when mmap is not available.
type MappedZone struct {
	*HeapZone

	mu       sync.Mutex
	capacity int
	closed   bool
}

// NewMapped returns a zone limited to capacity bytes (rounded up to whole pages).
func NewMapped(capacity int, config SizeClassConfig) (*MappedZone, error) {
	if capacity <= 0 {
		return nil, ErrBadSize
	}
	h := NewHeap(config)
	h.name = "mapped/" + config.Name
	return &MappedZone{HeapZone: h, capacity: alignUp(capacity, pageSize)}, nil
}

// Malloc implements Zone.
func (z *MappedZone) Malloc(size int) ([]byte, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closed {
		return nil, ErrClosed
	}
	if z.HeapZone.Stats().BytesInUse+int64(z.GoodSize(size)) > int64(z.capacity) {
		return nil, ErrExhausted
	}
	return z.HeapZone.Malloc(size)
}

// Stats implements Zone.
func (z *MappedZone) Stats() Stats {
	s := z.HeapZone.Stats()
	s.Capacity = int64(z.capacity)
	return s
}

// Close marks the zone closed.
func (z *MappedZone) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.closed = true
	return nil
}
