package primitive

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ChengzhuUwU/lc-parallel-primitive/compute"
)

// ScanPolicy is the immutable configuration of a scan variant: block
// geometry and the block-scan combination algorithm. Zero fields resolve
// to the package defaults. One kernel variant is compiled and cached per
// distinct (primitive, policy, element type) combination.
type ScanPolicy struct {
	BlockThreads   int
	ItemsPerThread int
	WarpThreads    int
	Algorithm      BlockScanAlgorithm
}

// DefaultScanPolicy returns the default scan configuration.
func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		BlockThreads:   DefaultBlockThreads,
		ItemsPerThread: DefaultItemsPerThread,
		WarpThreads:    DefaultWarpThreads,
		Algorithm:      AlgorithmWarpScans,
	}
}

func (p ScanPolicy) withDefaults() ScanPolicy {
	if p.BlockThreads == 0 {
		p.BlockThreads = DefaultBlockThreads
	}
	if p.ItemsPerThread == 0 {
		p.ItemsPerThread = DefaultItemsPerThread
	}
	if p.WarpThreads == 0 {
		p.WarpThreads = DefaultWarpThreads
	}
	return p
}

// validate reports precondition violations in the geometry itself.
func (p ScanPolicy) validate(op string) error {
	if p.BlockThreads < 1 || p.BlockThreads > MaxBlockThreads {
		return newPreconditionError(op, "block threads %d outside [1, %d]", p.BlockThreads, MaxBlockThreads)
	}
	if p.ItemsPerThread < 1 {
		return newPreconditionError(op, "items per thread %d must be positive", p.ItemsPerThread)
	}
	if p.WarpThreads < 1 {
		return newPreconditionError(op, "warp threads %d must be positive", p.WarpThreads)
	}
	return nil
}

// checkCapability reports variants the device cannot schedule. Called at
// compile time of the specialized kernel.
func (p ScanPolicy) checkCapability(op string, dev *compute.Device) error {
	if p.Algorithm == AlgorithmWarpScans && !dev.SupportsWarpWidth(p.WarpThreads) {
		return newCapabilityError(op, "device %q cannot schedule warp width %d (max %d, power of two)",
			dev.Name, p.WarpThreads, dev.WarpWidth)
	}
	return nil
}

func (p ScanPolicy) blockConfig() BlockConfig {
	return BlockConfig{
		Threads:        p.BlockThreads,
		ItemsPerThread: p.ItemsPerThread,
		WarpThreads:    p.WarpThreads,
	}
}

func (p ScanPolicy) key() string {
	return fmt.Sprintf("bt%d.ipt%d.wt%d.%s", p.BlockThreads, p.ItemsPerThread, p.WarpThreads, p.Algorithm)
}

// SortPolicy is the immutable configuration of a radix sort variant.
type SortPolicy struct {
	BlockThreads   int
	ItemsPerThread int
	WarpThreads    int
	// RadixBits is the digit width per pass; 1<<RadixBits bins.
	RadixBits int
	// Descending sorts in descending key order by twiddling key bits
	// before digit extraction; the pass structure is unchanged.
	Descending bool
}

// DefaultSortPolicy returns the default sort configuration.
func DefaultSortPolicy() SortPolicy {
	return SortPolicy{
		BlockThreads:   DefaultBlockThreads,
		ItemsPerThread: DefaultItemsPerThread,
		WarpThreads:    DefaultWarpThreads,
		RadixBits:      DefaultRadixBits,
	}
}

func (p SortPolicy) withDefaults() SortPolicy {
	if p.BlockThreads == 0 {
		p.BlockThreads = DefaultBlockThreads
	}
	if p.ItemsPerThread == 0 {
		p.ItemsPerThread = DefaultItemsPerThread
	}
	if p.WarpThreads == 0 {
		p.WarpThreads = DefaultWarpThreads
	}
	if p.RadixBits == 0 {
		p.RadixBits = DefaultRadixBits
	}
	return p
}

func (p SortPolicy) validate(op string) error {
	if p.BlockThreads < 1 || p.BlockThreads > MaxBlockThreads {
		return newPreconditionError(op, "block threads %d outside [1, %d]", p.BlockThreads, MaxBlockThreads)
	}
	if p.ItemsPerThread < 1 {
		return newPreconditionError(op, "items per thread %d must be positive", p.ItemsPerThread)
	}
	if p.WarpThreads < 1 {
		return newPreconditionError(op, "warp threads %d must be positive", p.WarpThreads)
	}
	if p.RadixBits < 1 || p.RadixBits > MaxRadixBits {
		return newPreconditionError(op, "radix bits %d outside [1, %d]", p.RadixBits, MaxRadixBits)
	}
	return nil
}

// checkCapability reports variants the device cannot schedule.
func (p SortPolicy) checkCapability(op string, dev *compute.Device) error {
	if !dev.SupportsWarpWidth(p.WarpThreads) {
		return newCapabilityError(op, "device %q cannot schedule warp width %d (max %d, power of two)",
			dev.Name, p.WarpThreads, dev.WarpWidth)
	}
	return nil
}

func (p SortPolicy) blockConfig() BlockConfig {
	return BlockConfig{
		Threads:        p.BlockThreads,
		ItemsPerThread: p.ItemsPerThread,
		WarpThreads:    p.WarpThreads,
	}
}

func (p SortPolicy) key() string {
	return fmt.Sprintf("bt%d.ipt%d.wt%d.rb%d.desc%t",
		p.BlockThreads, p.ItemsPerThread, p.WarpThreads, p.RadixBits, p.Descending)
}

// Process-wide kernel-variant cache: compile-once, read-many, process
// lifetime. A variant is the kernel closure specialized for one
// (primitive, configuration, element type) key.

type kernelKey struct {
	primitive string
	config    string
	elem      string
}

type kernelEntry struct {
	once    sync.Once
	variant any
	err     error
}

var kernelCache sync.Map // kernelKey -> *kernelEntry

// loadOrCompile returns the cached variant for key, invoking build at most
// once per process for the key. Concurrent callers for the same key block
// on the single compilation.
func loadOrCompile(key kernelKey, build func() (any, error)) (any, error) {
	v, _ := kernelCache.LoadOrStore(key, &kernelEntry{})
	e := v.(*kernelEntry)
	e.once.Do(func() {
		start := time.Now()
		e.variant, e.err = build()
		if e.err == nil {
			logrus.WithFields(logrus.Fields{
				"primitive": key.primitive,
				"config":    key.config,
				"elem":      key.elem,
				"elapsed":   time.Since(start),
			}).Debug("primitive: kernel variant compiled")
		}
	})
	return e.variant, e.err
}

// typeName returns the cache key component for an element type.
func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
