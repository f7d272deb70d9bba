// Package primitive configuration constants
package primitive

// Default kernel geometry. One compiled variant exists per distinct
// combination; these are the values used when a policy field is zero.
const (
	// DefaultBlockThreads is the default number of threads per block
	DefaultBlockThreads = 128

	// DefaultItemsPerThread is the default number of items each thread owns
	DefaultItemsPerThread = 4

	// DefaultWarpThreads is the default warp width
	DefaultWarpThreads = 32

	// MaxBlockThreads bounds block geometry
	MaxBlockThreads = 1024
)

// Radix sort geometry
const (
	// DefaultRadixBits is the digit width per sort pass
	DefaultRadixBits = 8

	// MaxRadixBits bounds digit width (256 bins)
	MaxRadixBits = 8
)

// Look-back spin parameters. The backward walk busy-waits on a
// predecessor's status transition; it yields after a burst of raw spins and
// falls back to short sleeps, but it never stops polling.
const (
	// lookbackSpinBurst raw polls before yielding the processor
	lookbackSpinBurst = 64

	// lookbackYieldsBeforeSleep yields before escalating to sleeps
	lookbackYieldsBeforeSleep = 256

	// lookbackSleepMicros sleep length once escalated, in microseconds
	lookbackSleepMicros = 20
)

// Cache geometry. Status slots are padded out to a cache line so that
// neighboring tiles do not false-share.
const (
	// CacheLineSize in bytes
	CacheLineSize = 64
)
