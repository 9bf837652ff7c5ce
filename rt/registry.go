package rt

import (
	"golang.org/x/text/unicode/norm"

	"github.com/joshuapare/objkit/internal/logger"
)

// TypeID identifies a registered Class.
type TypeID uint16

const (
	// MaxTypes is the capacity of the class table.
	MaxTypes = 256

	// NotATypeID is returned when registration fails. It never names a usable type.
	NotATypeID TypeID = 0

	// TypeTypeID is the abstract root type.
	TypeTypeID TypeID = 1

	// AllocatorTypeID is the type of every *Allocator.
	AllocatorTypeID TypeID = 2
)

// Class describes how instances of one type behave. All callbacks are optional.
// A Class must not change after it is registered.
type Class struct {
	Version int
	Name    string

	// Init runs once the header is stamped, before CreateInstance returns.
	Init func(inst *Instance)

	// Copy makes a copy of inst using allocator a.
	Copy func(a *Allocator, inst *Instance) *Instance

	// Finalize runs when the retain count reaches zero, before the memory is freed.
	Finalize func(inst *Instance)

	Equal func(a, b *Instance) bool
	Hash  func(inst *Instance) uint64

	FormattingDescription func(inst *Instance, opts map[string]string) string
	DebugDescription      func(inst *Instance) string
}

// The class table. Registration is append-only and unsynchronized.
var (
	classTable [MaxTypes]*Class
	classNames [MaxTypes]string // NFC-normalized names
	classCount int
)

// RegisterClass adds cls to the class table and returns its id. It returns
// NotATypeID, and logs, when cls is unusable or the table is full.
//
// RegisterClass is not safe for concurrent use.
func RegisterClass(cls *Class) TypeID {
	if cls == nil || cls.Name == "" {
		logger.Error("rt: class has no name; not registered")
		return NotATypeID
	}
	if classCount >= MaxTypes {
		logger.Error("rt: class table full", "name", cls.Name, "capacity", MaxTypes)
		return NotATypeID
	}

	id := TypeID(classCount)
	classCount++
	classTable[id] = cls
	classNames[id] = norm.NFC.String(cls.Name)
	logger.Debug("rt: registered class", "name", cls.Name, "id", id)
	return id
}

// UnregisterClass clears the slot for id. The id is not reused. Callers must
// guarantee that no instances of the type are alive.
func UnregisterClass(id TypeID) {
	if int(id) >= classCount {
		return
	}
	assertf(id > AllocatorTypeID, "UnregisterClass: type id %d is built in", id)
	classTable[id] = nil
	classNames[id] = ""
}

// ClassForID returns the class registered for id, or nil.
func ClassForID(id TypeID) *Class {
	if int(id) >= MaxTypes {
		return nil
	}
	return classTable[id]
}

// TypeIDForName finds a registered type by name. Names compare after NFC
// normalization.
func TypeIDForName(name string) (TypeID, bool) {
	want := norm.NFC.String(name)
	for id := 1; id < classCount; id++ {
		if classTable[id] != nil && classNames[id] == want {
			return TypeID(id), true
		}
	}
	return NotATypeID, false
}

// TypeIDDescription returns the name registered for id.
func TypeIDDescription(id TypeID) string {
	if cls := ClassForID(id); cls != nil {
		return cls.Name
	}
	return ""
}

// RegisteredTypes returns the ids of every occupied slot, in id order.
func RegisteredTypes() []TypeID {
	ids := make([]TypeID, 0, classCount)
	for id := range classCount {
		if classTable[id] != nil {
			ids = append(ids, TypeID(id))
		}
	}
	return ids
}

var (
	notATypeClass = Class{Name: "Not A Type"}
	typeClass     = Class{Name: "Type"}
)

// registerBuiltinClasses fills the stable low ids. The order is part of the API.
func registerBuiltinClasses() {
	for want, cls := range []*Class{
		NotATypeID:      &notATypeClass,
		TypeTypeID:      &typeClass,
		AllocatorTypeID: &allocatorClass,
	} {
		if got := RegisterClass(cls); int(got) != want {
			panic("rt: built-in class " + cls.Name + " registered out of order")
		}
	}
}
