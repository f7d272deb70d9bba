package primitive

import (
	"runtime"
	"time"
)

// DigitTileState is the vector-valued generalization of TileState used by
// the radix sort: the published quantity per tile is a per-bin count
// vector rather than a scalar, under the same INVALID -> PARTIAL -> FULL
// mailbox protocol.
type DigitTileState struct {
	bins      int
	status    []statusSlot
	partial   []uint32 // numTiles * bins, tile-local counts
	inclusive []uint32 // numTiles * bins, counts through the tile
}

// NewDigitTileState allocates look-back state for one digit pass over
// numTiles tiles of 1<<radixBits bins each.
func NewDigitTileState(numTiles, radixBits int) *DigitTileState {
	bins := 1 << radixBits
	return &DigitTileState{
		bins:      bins,
		status:    make([]statusSlot, numTiles),
		partial:   make([]uint32, numTiles*bins),
		inclusive: make([]uint32, numTiles*bins),
	}
}

// NumTiles returns the number of slots.
func (s *DigitTileState) NumTiles() int {
	return len(s.status)
}

// Bins returns the per-slot vector width.
func (s *DigitTileState) Bins() int {
	return s.bins
}

// SetPartial publishes tile's local per-bin histogram. Only the owning
// block may call this, exactly once, before SetInclusive.
func (s *DigitTileState) SetPartial(tile int, counts []uint32) {
	copy(s.partial[tile*s.bins:(tile+1)*s.bins], counts)
	s.status[tile].flag.Store(uint32(TilePartial))
}

// SetInclusive publishes tile's inclusive per-bin counts and marks the
// slot FULL.
func (s *DigitTileState) SetInclusive(tile int, counts []uint32) {
	copy(s.inclusive[tile*s.bins:(tile+1)*s.bins], counts)
	s.status[tile].flag.Store(uint32(TileFull))
}

// Status returns the current publication state of a slot.
func (s *DigitTileState) Status(tile int) TileStatus {
	return TileStatus(s.status[tile].flag.Load())
}

func (s *DigitTileState) waitValid(tile int) TileStatus {
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

// LookBack accumulates into prefix, per bin, the exclusive count
// contributed by every tile preceding tile. prefix must be zeroed and
// bins wide. tile must be greater than zero.
func (s *DigitTileState) LookBack(tile int, prefix []uint32) {
	for pred := tile - 1; ; pred-- {
		st := s.waitValid(pred)
		if st == TileFull {
			row := s.inclusive[pred*s.bins : (pred+1)*s.bins]
			for b := range prefix {
				prefix[b] += row[b]
			}
			return
		}
		row := s.partial[pred*s.bins : (pred+1)*s.bins]
		for b := range prefix {
			prefix[b] += row[b]
		}
	}
}
