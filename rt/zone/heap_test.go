package zone

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapZone_MallocZeroSize(t *testing.T) {
	z := NewHeap(ConfigBalanced)

	b, err := z.Malloc(0)
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = z.Malloc(-1)
	require.ErrorIs(t, err, ErrBadSize)
}

func TestHeapZone_MallocRoundsToClass(t *testing.T) {
	z := NewHeap(ConfigBalanced)

	b, err := z.Malloc(100)
	require.NoError(t, err)
	assert.Len(t, b, 100)
	assert.Equal(t, z.GoodSize(100), cap(b))

	s := z.Stats()
	assert.Equal(t, int64(1), s.MallocCalls)
	assert.Equal(t, int64(cap(b)), s.BytesInUse)

	require.NoError(t, z.Free(b))
	assert.Zero(t, z.Stats().BytesInUse)
}

func TestHeapZone_ReusedBlocksAreZeroed(t *testing.T) {
	z := NewHeap(ConfigBalanced)

	// Pools may drop entries at any time, so only assert zeroing, not reuse.
	for range 100 {
		b, err := z.Malloc(64)
		require.NoError(t, err)
		for i := range b {
			require.Zero(t, b[i])
			b[i] = 0xAA
		}
		require.NoError(t, z.Free(b))
	}
}

func TestHeapZone_FreeForeign(t *testing.T) {
	z := NewHeap(ConfigBalanced)
	assert.NoError(t, z.Free(nil))
	assert.ErrorIs(t, z.Free(make([]byte, 10, 17)), ErrForeign)
	assert.ErrorIs(t, z.Free(make([]byte, 10, 20000)), ErrForeign)
}

func TestHeapZone_Realloc(t *testing.T) {
	z := NewHeap(ConfigBalanced)

	b, err := z.Realloc(nil, 10)
	require.NoError(t, err)
	require.Len(t, b, 10)
	copy(b, "0123456789")

	// Grows in place while it fits the class.
	b, err = z.Realloc(b, 16)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b[:10]))
	assert.Equal(t, make([]byte, 6), b[10:])

	// Moves when it does not.
	b, err = z.Realloc(b, 1000)
	require.NoError(t, err)
	assert.Len(t, b, 1000)
	assert.Equal(t, "0123456789", string(b[:10]))

	b, err = z.Realloc(b, 0)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Zero(t, z.Stats().BytesInUse)
}

func TestHeapZone_Concurrent(t *testing.T) {
	z := NewHeap(ConfigFineGrained)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				b, err := z.Malloc(1 + (g*97+i)%3000)
				if err != nil {
					t.Error(err)
					return
				}
				if err := z.Free(b); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	s := z.Stats()
	assert.Equal(t, int64(8*500), s.MallocCalls)
	assert.Equal(t, s.MallocCalls, s.FreeCalls)
	assert.Zero(t, s.BytesInUse)
}

func BenchmarkHeapZone_MallocFree(b *testing.B) {
	z := NewHeap(ConfigBalanced)
	b.ReportAllocs()
	for i := range b.N {
		blk, err := z.Malloc(32 + i%256)
		if err != nil {
			b.Fatal(err)
		}
		_ = z.Free(blk)
	}
}

func TestHeapZone_OversizedRequest(t *testing.T) {
	z := NewHeap(ConfigBalanced)

	for _, size := range []int{MaxBlockSize + 1, math.MaxInt - 100, math.MaxInt} {
		b, err := z.Malloc(size)
		require.ErrorIs(t, err, ErrExhausted)
		assert.Nil(t, b)
	}
	assert.Equal(t, math.MaxInt-100, z.GoodSize(math.MaxInt-100))

	small, err := z.Malloc(16)
	require.NoError(t, err)
	got, err := z.Realloc(small, math.MaxInt-100)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, got, 16, "the original block survives a failed realloc")
	assert.Equal(t, int64(1), z.Stats().MallocCalls)
}
