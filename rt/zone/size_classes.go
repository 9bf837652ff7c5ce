package zone

import (
	"math"
	"strings"
)

const (
	// blockAlign is the alignment of every class size.
	blockAlign = 16

	// pageSize is the rounding unit for blocks larger than MediumMax.
	pageSize = 4096
)

// SizeClassConfig defines the allocation size class strategy.
type SizeClassConfig struct {
	// Name for this configuration
	Name string

	// Small allocation settings (linear increments)
	SmallMin       int // Smallest class size
	SmallMax       int // Largest class reached by linear increments
	SmallIncrement int // Step between small classes

	// Medium allocation settings (logarithmic growth)
	MediumMax    int     // Largest pooled class; larger requests are page rounded
	GrowthFactor float64 // Exponential growth factor above SmallMax
}

// Predefined configurations.
var (
	// FineGrained: many small buckets, least internal fragmentation.
	ConfigFineGrained = SizeClassConfig{
		Name:           "fine",
		SmallMin:       16,
		SmallMax:       256,
		SmallIncrement: 16,
		MediumMax:      16384,
		GrowthFactor:   1.25,
	}

	// Balanced: good balance between class count and slack.
	ConfigBalanced = SizeClassConfig{
		Name:           "balanced",
		SmallMin:       16,
		SmallMax:       512,
		SmallIncrement: 16,
		MediumMax:      16384,
		GrowthFactor:   1.5,
	}

	// Coarse: fewer buckets, faster lookups, more slack.
	ConfigCoarse = SizeClassConfig{
		Name:           "coarse",
		SmallMin:       32,
		SmallMax:       512,
		SmallIncrement: 32,
		MediumMax:      16384,
		GrowthFactor:   2.0,
	}

	// DefaultConfig is used when no preset is named.
	DefaultConfig = ConfigBalanced
)

// ConfigByName returns the preset with the given name, or DefaultConfig.
func ConfigByName(name string) (SizeClassConfig, bool) {
	switch strings.ToLower(name) {
	case ConfigFineGrained.Name:
		return ConfigFineGrained, true
	case ConfigBalanced.Name, "":
		return ConfigBalanced, true
	case ConfigCoarse.Name:
		return ConfigCoarse, true
	}
	return DefaultConfig, false
}

// sizeClassTable holds the computed size class boundaries.
type sizeClassTable struct {
	config     SizeClassConfig
	boundaries []int // Capacity of each size class, ascending
	numClasses int
}

// newSizeClassTable computes size class boundaries from config.
func newSizeClassTable(config SizeClassConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]int, 0, 64),
	}

	// Phase 1: Small allocations (linear increments)
	for size := config.SmallMin; size <= config.SmallMax; size += config.SmallIncrement {
		table.boundaries = append(table.boundaries, alignUp(size, blockAlign))
	}

	// Phase 2: Medium allocations (logarithmic growth)
	size := table.boundaries[len(table.boundaries)-1]
	for size < config.MediumMax {
		next := alignUp(int(math.Ceil(float64(size)*config.GrowthFactor)), blockAlign)
		if next <= size {
			next = size + blockAlign // Ensure progress
		}
		if next > config.MediumMax {
			next = config.MediumMax
		}
		table.boundaries = append(table.boundaries, next)
		size = next
	}

	table.numClasses = len(table.boundaries)
	return table
}

// getSizeClass returns the size class index for a given allocation size.
// Returns t.numClasses for sizes above MediumMax.
func (t *sizeClassTable) getSizeClass(size int) int {
	lo, hi := 0, t.numClasses-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	return t.numClasses
}

// goodSize rounds size up to its class capacity, or to a page multiple for large blocks.
func (t *sizeClassTable) goodSize(size int) int {
	if size <= 0 {
		return 0
	}
	if size > MaxBlockSize {
		return size
	}
	sc := t.getSizeClass(size)
	if sc < t.numClasses {
		return t.boundaries[sc]
	}
	return alignUp(size, pageSize)
}

// String returns the preset name.
func (t *sizeClassTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes (excluding large blocks).
func (t *sizeClassTable) NumClasses() int {
	return t.numClasses
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// ClassSizes returns the block capacity of every size class config defines.
func ClassSizes(config SizeClassConfig) []int {
	t := newSizeClassTable(config)
	return append([]int(nil), t.boundaries...)
}
