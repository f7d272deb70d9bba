package primitive

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Decoupled look-back state. Each tile owns one slot in a device-visible
// status array; the slot is a mailbox: the owning block is the only writer,
// and it publishes a value by writing it and then storing the status word
// with release ordering. Observers load the status with acquire ordering
// before reading the value, which establishes the happens-before edge with
// the writer. Status only moves forward: INVALID -> PARTIAL -> FULL.

// TileStatus is the publication state of one tile's slot.
type TileStatus uint32

const (
	// TileInvalid means nothing has been published for the tile yet.
	TileInvalid TileStatus = iota
	// TilePartial means the tile's local aggregate is available.
	TilePartial
	// TileFull means the tile's inclusive prefix (all preceding tiles
	// combined with its own aggregate) is available.
	TileFull
)

// statusSlot is one status word padded out to a cache line so neighboring
// tiles do not false-share.
type statusSlot struct {
	flag atomic.Uint32
	_    [CacheLineSize - 4]byte
}

// TileState is the per-tile status/aggregate array for one device-wide
// scan call. It is allocated per call, starts all-INVALID, and is never
// reused across calls.
type TileState[T any] struct {
	status    []statusSlot
	partial   []T
	inclusive []T
}

// NewTileState allocates look-back state for numTiles tiles.
func NewTileState[T any](numTiles int) *TileState[T] {
	return &TileState[T]{
		status:    make([]statusSlot, numTiles),
		partial:   make([]T, numTiles),
		inclusive: make([]T, numTiles),
	}
}

// NumTiles returns the number of slots.
func (s *TileState[T]) NumTiles() int {
	return len(s.status)
}

// SetPartial publishes tile's local aggregate. Only the owning block may
// call this, exactly once, before SetInclusive.
func (s *TileState[T]) SetPartial(tile int, aggregate T) {
	s.partial[tile] = aggregate
	s.status[tile].flag.Store(uint32(TilePartial))
}

// SetInclusive publishes tile's inclusive prefix and marks the slot FULL.
// Only the owning block may call this. For tile 0 it is the first and only
// publication: tile 0 is FULL by definition as the base case.
func (s *TileState[T]) SetInclusive(tile int, inclusive T) {
	s.inclusive[tile] = inclusive
	s.status[tile].flag.Store(uint32(TileFull))
}

// Status returns the current publication state of a slot.
func (s *TileState[T]) Status(tile int) TileStatus {
	return TileStatus(s.status[tile].flag.Load())
}

// waitValid polls a slot until it leaves INVALID, spinning with backoff.
// The wait is liveness-bounded, not deadline-bounded: the predecessor block
// always publishes PARTIAL in finite time, so assuming a value or giving up
// is never correct.
func (s *TileState[T]) waitValid(tile int) TileStatus {
	spins, yields := 0, 0
	for {
		st := TileStatus(s.status[tile].flag.Load())
		if st != TileInvalid {
			return st
		}
		spins++
		if spins < lookbackSpinBurst {
			continue
		}
		spins = 0
		if yields < lookbackYieldsBeforeSleep {
			yields++
			runtime.Gosched()
		} else {
			time.Sleep(lookbackSleepMicros * time.Microsecond)
		}
	}
}

// LookBack walks backward from tile-1 and returns the exclusive prefix of
// tile: the combination of every preceding tile's aggregate in index
// order. FULL predecessors terminate the walk; PARTIAL ones contribute
// their aggregate and the walk continues; INVALID ones are waited on.
// tile must be greater than zero.
func (s *TileState[T]) LookBack(tile int, op Operator[T]) T {
	pred := tile - 1
	st := s.waitValid(pred)

	var running T
	if st == TileFull {
		return s.inclusive[pred]
	}
	running = s.partial[pred]

	for pred--; ; pred-- {
		st = s.waitValid(pred)
		if st == TileFull {
			return op.Combine(s.inclusive[pred], running)
		}
		// Aggregates combine in index order: the earlier tile goes left.
		running = op.Combine(s.partial[pred], running)
	}
}
