package rt

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/objkit/internal/buf"
)

// Object is anything whose lifetime is managed by the runtime: *Instance and
// *Allocator.
type Object interface {
	instance() *Instance
}

// Instance is a block of allocator memory carrying a header and a
// type-specific payload.
type Instance struct {
	hdr header

	// allocator owns the block; nil when hdr.usesDefaultAllocator is set.
	allocator *Allocator

	block   []byte // whole allocation, header and owner slot included
	payload []byte // the extra bytes requested at creation

	value any
}

func (i *Instance) instance() *Instance { return i }

// Bytes returns the instance payload: the extra bytes requested at creation.
func (i *Instance) Bytes() []byte { return i.payload }

// Value returns Go-side state attached by the type.
func (i *Instance) Value() any { return i.value }

// SetValue attaches Go-side state to the instance.
func (i *Instance) SetValue(v any) { i.value = v }

// instanceOf unwraps obj, tolerating nil.
func instanceOf(obj Object) *Instance {
	if obj == nil {
		return nil
	}
	return obj.instance()
}

// CreateInstance allocates and initializes an instance of the registered type id.
//
// A nil allocator means the calling goroutine's default. extra is rounded up
// to PointerSize for the allocation; Bytes has exactly extra bytes. The
// returned instance has a retain count of 1.
func CreateInstance(a *Allocator, id TypeID, extra int) (*Instance, error) {
	inst := new(Instance)
	if err := stampInstance(inst, a, id, extra); err != nil {
		return nil, err
	}
	return inst, nil
}

// stampInstance allocates the block for inst and fills its header.
func stampInstance(inst *Instance, a *Allocator, id TypeID, extra int) error {
	cls := ClassForID(id)
	if id == NotATypeID || cls == nil {
		assertf(false, "CreateInstance: type id %d is not registered", id)
		return fmt.Errorf("%w: %d", ErrInvalidType, id)
	}
	if extra < 0 {
		return fmt.Errorf("%w: %d extra bytes", ErrBadSize, extra)
	}

	a = a.resolve()
	if a == UseContext || a == Default {
		assertf(false, "CreateInstance: %s is not a usable allocator", a.name)
		return ErrNoMemory
	}
	usesDefault := a == SystemDefault

	prefix := HeaderSize
	if !usesDefault {
		prefix += PointerSize
	}
	if _, ok := buf.AddOverflowSafe(extra, prefix+PointerSize); !ok {
		return fmt.Errorf("%w: %d extra bytes", ErrBadSize, extra)
	}
	block := a.Allocate(prefix+alignUp(extra, PointerSize), 0)
	if block == nil {
		return ErrNoMemory
	}

	owner := a
	if usesDefault {
		owner = nil
	} else {
		Retain(a)
	}
	stampHeader(inst, id, owner, block, prefix, extra)

	if cls.Init != nil {
		cls.Init(inst)
	}
	return nil
}

// stampHeader records block and sets a fresh counted header on inst.
func stampHeader(inst *Instance, id TypeID, owner *Allocator, block []byte, prefix, extra int) {
	clear(block[:prefix])
	inst.block = block
	inst.payload = block[prefix : prefix+extra : prefix+extra]
	inst.allocator = owner
	inst.hdr = header{
		typeID:               id,
		mode:                 refCounted,
		inline:               1,
		usesDefaultAllocator: owner == nil,
	}
}

// InitStaticInstance stamps a caller-owned permanent instance of type id.
// Retain and Release ignore permanent instances and they are never finalized.
func InitStaticInstance(inst *Instance, id TypeID) {
	assertf(inst != nil, "InitStaticInstance: nil instance")
	assertf(id != NotATypeID && ClassForID(id) != nil, "InitStaticInstance: type id %d is not registered", id)
	stampStatic(inst, id)
}

func stampStatic(inst *Instance, id TypeID) {
	inst.hdr = header{
		typeID:               id,
		mode:                 refStatic,
		usesDefaultAllocator: true,
	}
	inst.allocator = nil
}

// SetInstanceTypeID relabels obj. It does not reinitialize or reallocate.
func SetInstanceTypeID(obj Object, id TypeID) {
	inst := instanceOf(obj)
	assertf(inst != nil, "SetInstanceTypeID: nil instance")
	if inst == nil {
		return
	}
	inst.hdr.typeID = id
}

// GetTypeID returns the type id stamped in obj's header.
func GetTypeID(obj Object) TypeID {
	inst := instanceOf(obj)
	assertf(inst != nil, "GetTypeID: nil instance")
	if inst == nil {
		return NotATypeID
	}
	return inst.hdr.typeID
}

// ValidateType asserts, in debug builds only, that obj is a live instance of type id.
func ValidateType(obj Object, id TypeID) {
	if !debug {
		return
	}
	inst := instanceOf(obj)
	assertf(inst != nil, "ValidateType: nil instance")
	assertf(inst.hdr.mode == refCounted || inst.hdr.mode == refStatic,
		"ValidateType: instance is %s", inst.hdr.mode)
	assertf(inst.hdr.typeID == id, "ValidateType: type id %d, want %d", inst.hdr.typeID, id)
}

// GetAllocator returns the allocator that owns obj's memory.
func GetAllocator(obj Object) *Allocator {
	inst := instanceOf(obj)
	assertf(inst != nil, "GetAllocator: nil instance")
	if inst == nil || inst.hdr.usesDefaultAllocator {
		return SystemDefault
	}
	return inst.allocator
}

// freeInstance finalizes inst and returns its memory. Called without the count lock.
func freeInstance(inst *Instance) {
	if cls := ClassForID(inst.hdr.typeID); cls != nil && cls.Finalize != nil {
		cls.Finalize(inst)
	}

	owner := inst.allocator
	usesDefault := inst.hdr.usesDefaultAllocator
	if usesDefault {
		owner = SystemDefault
	}
	block := inst.block

	inst.block, inst.payload, inst.allocator = nil, nil, nil
	inst.hdr = header{mode: refFreed}

	// A UseContext allocator owns its own record.
	if &owner.Instance == inst {
		owner.ctx.deallocate(block)
		owner.releaseInfo()
		return
	}

	owner.Deallocate(block)
	if !usesDefault {
		Release(owner)
	}
}

// Equal reports whether a and b are equal according to their type.
// Instances of different types are never equal.
func Equal(a, b Object) bool {
	ia, ib := instanceOf(a), instanceOf(b)
	assertf(ia != nil && ib != nil, "Equal: nil instance")
	if ia == ib {
		return true
	}
	if ia == nil || ib == nil || ia.hdr.typeID != ib.hdr.typeID {
		return false
	}
	if cls := ClassForID(ia.hdr.typeID); cls != nil && cls.Equal != nil {
		return cls.Equal(ia, ib)
	}
	return false
}

// Hash returns obj's hash code. Types without a Hash callback hash by identity.
func Hash(obj Object) uint64 {
	inst := instanceOf(obj)
	assertf(inst != nil, "Hash: nil instance")
	if inst == nil {
		return 0
	}
	if cls := ClassForID(inst.hdr.typeID); cls != nil && cls.Hash != nil {
		return cls.Hash(inst)
	}
	return uint64(uintptr(unsafe.Pointer(inst)))
}

// Copy returns a copy of obj made with allocator a. Types without a Copy
// callback are treated as immutable: obj is retained and returned.
func Copy(a *Allocator, obj Object) Object {
	inst := instanceOf(obj)
	assertf(inst != nil, "Copy: nil instance")
	if inst == nil {
		return nil
	}
	if cls := ClassForID(inst.hdr.typeID); cls != nil && cls.Copy != nil {
		if c := cls.Copy(a, inst); c != nil {
			return c
		}
		return nil
	}
	return Retain(obj)
}

// Description returns a debugging description of obj.
func Description(obj Object) string {
	inst := instanceOf(obj)
	if inst == nil {
		return "<nil>"
	}
	cls := ClassForID(inst.hdr.typeID)
	if cls != nil && cls.DebugDescription != nil {
		return cls.DebugDescription(inst)
	}
	return defaultDescription(inst)
}

// FormattingDescription returns the user-facing description of obj, or ""
// when its type has none.
func FormattingDescription(obj Object, opts map[string]string) string {
	inst := instanceOf(obj)
	if inst == nil {
		return ""
	}
	if cls := ClassForID(inst.hdr.typeID); cls != nil && cls.FormattingDescription != nil {
		return cls.FormattingDescription(inst, opts)
	}
	return ""
}

func defaultDescription(inst *Instance) string {
	return fmt.Sprintf("<%s %p [%p]>", TypeIDDescription(inst.hdr.typeID), inst, GetAllocator(inst))
}
