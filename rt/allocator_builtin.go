package rt

import (
	"github.com/joshuapare/objkit/internal/logger"
	"github.com/joshuapare/objkit/rt/zone"
)

// Built-in allocators. They are permanent: Retain and Release ignore them.
var (
	// Default stands for the calling goroutine's current default allocator.
	Default = &Allocator{name: "Default"}

	// SystemDefault is the process default allocator, backed by a pooled heap zone.
	SystemDefault = &Allocator{name: "SystemDefault"}

	// Malloc allocates straight from the Go heap; Deallocate leaves blocks to the collector.
	Malloc = &Allocator{name: "Malloc"}

	// Null never allocates and silently discards deallocations.
	Null = &Allocator{name: "Null"}

	// UseContext is only meaningful as NewAllocator's parent.
	UseContext = &Allocator{name: "UseContext"}
)

// systemZone backs SystemDefault.
var systemZone *zone.HeapZone

func initBuiltinAllocators(preset string) {
	cfg, ok := zone.ConfigByName(preset)
	if !ok {
		logger.Warn("rt: unknown zone preset, using default", "preset", preset, "default", cfg.Name)
	}
	systemZone = zone.NewHeap(cfg)

	SystemDefault.ctx = zoneContext(systemZone)
	SystemDefault.zone = systemZone

	Malloc.ctx = AllocatorContext{
		Allocate: func(size int, _ AllocHint, _ any) []byte {
			if size > zone.MaxBlockSize {
				return nil
			}
			return make([]byte, size)
		},
		Reallocate: func(ptr []byte, newSize int, _ AllocHint, _ any) []byte {
			if newSize <= cap(ptr) {
				return ptr[:newSize]
			}
			if newSize > zone.MaxBlockSize {
				return nil
			}
			nb := make([]byte, newSize)
			copy(nb, ptr)
			return nb
		},
		PreferredSize: func(size int, _ AllocHint, _ any) int {
			if size > zone.MaxBlockSize {
				return size
			}
			return alignUp(size, PointerSize)
		},
	}

	Null.ctx = AllocatorContext{
		Allocate: func(int, AllocHint, any) []byte { return nil },
	}

	for _, a := range []*Allocator{Default, SystemDefault, Malloc, Null, UseContext} {
		a.value = a
		// The class table is not up yet; the allocator id is fixed.
		stampStatic(&a.Instance, AllocatorTypeID)
	}
}

// SystemZone returns the zone behind SystemDefault.
func SystemZone() zone.Zone { return systemZone }

// zoneContext adapts z to an allocator context.
func zoneContext(z zone.Zone) AllocatorContext {
	return AllocatorContext{
		Info: z,
		CopyDescription: func(info any) string {
			return "<Allocator zone " + info.(zone.Zone).Name() + ">"
		},
		Allocate: func(size int, _ AllocHint, info any) []byte {
			b, err := info.(zone.Zone).Malloc(size)
			if err != nil {
				logger.Debug("rt: zone malloc failed", "zone", info.(zone.Zone).Name(), "size", size, "error", err)
				return nil
			}
			return b
		},
		Reallocate: func(ptr []byte, newSize int, _ AllocHint, info any) []byte {
			b, err := info.(zone.Zone).Realloc(ptr, newSize)
			if err != nil {
				logger.Debug("rt: zone realloc failed", "zone", info.(zone.Zone).Name(), "size", newSize, "error", err)
				return nil
			}
			return b
		},
		Deallocate: func(ptr []byte, info any) {
			if err := info.(zone.Zone).Free(ptr); err != nil {
				logger.Debug("rt: zone free failed", "zone", info.(zone.Zone).Name(), "error", err)
			}
		},
		PreferredSize: func(size int, _ AllocHint, info any) int {
			return info.(zone.Zone).GoodSize(size)
		},
	}
}

// NewZoneAllocator creates an allocator that serves memory from z.
func NewZoneAllocator(parent *Allocator, z zone.Zone) (*Allocator, error) {
	a, err := NewAllocator(parent, zoneContext(z))
	if err != nil {
		return nil, err
	}
	a.name = z.Name()
	a.zone = z
	return a, nil
}

// Zone presents a as a native memory zone. Allocators created from a context
// are wrapped so that zone calls go through their callbacks.
func (a *Allocator) Zone() zone.Zone {
	a = a.resolve()
	if a.zone != nil {
		return a.zone
	}
	return contextZone{a}
}

// contextZone is the zone view of a context-only allocator.
type contextZone struct {
	a *Allocator
}

func (z contextZone) Name() string { return z.a.label() }

func (z contextZone) Malloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, zone.ErrBadSize
	}
	if size == 0 {
		return nil, nil
	}
	b := z.a.Allocate(size, 0)
	if b == nil {
		return nil, zone.ErrExhausted
	}
	return b, nil
}

func (z contextZone) Realloc(b []byte, size int) ([]byte, error) {
	if size < 0 {
		return b, zone.ErrBadSize
	}
	nb := z.a.Reallocate(b, size, 0)
	if nb == nil && size > 0 {
		return b, zone.ErrExhausted
	}
	return nb, nil
}

func (z contextZone) Free(b []byte) error {
	z.a.Deallocate(b)
	return nil
}

func (z contextZone) GoodSize(size int) int { return z.a.PreferredSize(size, 0) }

func (z contextZone) Stats() zone.Stats { return zone.Stats{} }
