package rt

import "math"

// Retain increments obj's retain count and returns obj.
// Permanent instances are left untouched.
func Retain[T Object](obj T) T {
	inst := instanceOf(obj)
	assertf(inst != nil, "Retain: nil instance")
	if inst == nil {
		return obj
	}

	countLock.Lock()
	h := &inst.hdr
	switch h.mode {
	case refCounted:
	case refStatic:
		countLock.Unlock()
		return obj
	default:
		countLock.Unlock()
		assertf(false, "Retain: instance %p is %s", inst, h.mode)
		return obj
	}

	if h.inline == inlineMax {
		// Roll the carry into the overflow table.
		h.inline = 0
		h.hasExternalCount = true
		overflowIncrement(inst)
	} else {
		h.inline++
	}
	countLock.Unlock()
	return obj
}

// Release decrements obj's retain count. When the count reaches zero the
// type's Finalize callback runs and the memory returns to its allocator.
// Permanent instances are left untouched.
func Release(obj Object) {
	inst := instanceOf(obj)
	assertf(inst != nil, "Release: nil instance")
	if inst == nil {
		return
	}

	countLock.Lock()
	h := &inst.hdr
	switch h.mode {
	case refCounted:
	case refStatic:
		countLock.Unlock()
		return
	default:
		countLock.Unlock()
		assertf(false, "Release: instance %p is %s", inst, h.mode)
		return
	}

	if !h.hasExternalCount && h.inline == 1 {
		h.inline = 0
		h.mode = refFinalizing
		countLock.Unlock()
		freeInstance(inst)
		return
	}

	if h.inline == 0 {
		// Borrow one carry back from the overflow table.
		h.inline = inlineMax
		if overflowDecrement(inst) == 0 {
			h.hasExternalCount = false
		}
	} else {
		h.inline--
	}
	countLock.Unlock()
}

// RetainCount returns obj's logical retain count. Permanent instances report
// PermanentCount; instances being finalized or already freed report 0.
func RetainCount(obj Object) int {
	inst := instanceOf(obj)
	assertf(inst != nil, "RetainCount: nil instance")
	if inst == nil {
		return 0
	}

	countLock.Lock()
	defer countLock.Unlock()

	h := &inst.hdr
	switch h.mode {
	case refStatic:
		return PermanentCount
	case refCounted:
	default:
		return 0
	}

	count := uint64(h.inline)
	if h.hasExternalCount {
		high := overflowTable[inst]
		if high > (math.MaxInt-count)>>inlineBits {
			return math.MaxInt
		}
		count += high << inlineBits
	}
	return int(count)
}
