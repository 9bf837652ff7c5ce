package rt

import "github.com/joshuapare/objkit/internal/spin"

// countLock guards every header count and the overflow table.
var countLock spin.Lock

// overflowTable holds the high part of retain counts that outgrew the header,
// keyed by instance. Guarded by countLock.
var overflowTable = make(map[*Instance]uint64)

// overflowIncrement adds one unit of 1<<inlineBits to inst's entry.
// Caller holds countLock.
func overflowIncrement(inst *Instance) {
	overflowTable[inst]++
}

// overflowDecrement removes one unit from inst's entry and returns what is
// left. The entry is deleted when it reaches zero. Caller holds countLock.
func overflowDecrement(inst *Instance) uint64 {
	n := overflowTable[inst]
	assertf(n > 0, "overflow table has no entry for %p", inst)
	if n <= 1 {
		delete(overflowTable, inst)
		return 0
	}
	overflowTable[inst] = n - 1
	return n - 1
}

// HasOverflowEntry reports whether obj currently has an overflow table entry.
func HasOverflowEntry(obj Object) bool {
	inst := instanceOf(obj)
	countLock.Lock()
	_, ok := overflowTable[inst]
	countLock.Unlock()
	return ok
}

// OverflowEntries returns the number of instances with spilled counts.
func OverflowEntries() int {
	countLock.Lock()
	n := len(overflowTable)
	countLock.Unlock()
	return n
}
