// Package spin provides a tiny test-and-set lock for very short critical
// sections, such as the reference count updates in package rt.
package spin

import (
	"runtime"
	"sync/atomic"
)

// activeSpin is the number of busy attempts before yielding the processor.
const activeSpin = 30

// Lock is a spin lock. The zero value is unlocked.
//
// Lock never parks the goroutine on a semaphore. Holders must not block or
// take other locks while holding it.
type Lock struct {
	state atomic.Uint32
}

// Lock acquires l, spinning until it is available.
func (l *Lock) Lock() {
	if l.TryLock() {
		return
	}
	l.lockSlow()
}

func (l *Lock) lockSlow() {
	for i := 0; ; i++ {
		if l.state.Load() == 0 && l.TryLock() {
			return
		}
		if i >= activeSpin {
			runtime.Gosched()
		}
	}
}

// TryLock attempts to acquire l without spinning.
func (l *Lock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases l. Unlocking an unlocked Lock panics.
func (l *Lock) Unlock() {
	if l.state.Swap(0) == 0 {
		panic("spin: unlock of unlocked lock")
	}
}
