package zone

// MaxBlockSize is the largest request any zone serves: 1 TiB on 64-bit
// platforms, 1 GiB on 32-bit ones. Larger requests fail with ErrExhausted.
const MaxBlockSize = 1 << (30 + 10*(^uint(0)>>63))

// Zone is a source of memory blocks.
//
// Blocks returned by Malloc have len equal to the requested size and cap
// equal to GoodSize of that size. A zero size yields a nil block and no error.
type Zone interface {
	// Name identifies the zone in descriptions and logs.
	Name() string

	// Malloc returns a zeroed block of at least size bytes.
	Malloc(size int) ([]byte, error)

	// Realloc resizes b, moving it if needed. On error b is still valid.
	Realloc(b []byte, size int) ([]byte, error)

	// Free returns b to the zone. Freeing nil is a no-op.
	Free(b []byte) error

	// GoodSize reports the block size the zone would use for a request of size bytes.
	GoodSize(size int) int

	// Stats returns a snapshot of the zone's counters.
	Stats() Stats
}

// Stats holds zone instrumentation counters.
type Stats struct {
	MallocCalls  int64 // Total Malloc calls that returned a block
	FreeCalls    int64 // Total Free calls on non-nil blocks
	ReallocCalls int64 // Total Realloc calls
	Reused       int64 // Blocks served from a free list
	BytesInUse   int64 // Sum of cap() over live blocks
	Capacity     int64 // Total bytes the zone can hand out (0 = unbounded)
}
