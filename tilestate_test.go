package primitive

import (
	"math/rand"
	"sync"
	"testing"
)

func TestTileStateTransitions(t *testing.T) {
	s := NewTileState[int](3)
	for i := 0; i < 3; i++ {
		if got := s.Status(i); got != TileInvalid {
			t.Fatalf("fresh slot %d status = %v, want INVALID", i, got)
		}
	}

	s.SetPartial(1, 5)
	if got := s.Status(1); got != TilePartial {
		t.Errorf("status after SetPartial = %v, want PARTIAL", got)
	}
	s.SetInclusive(1, 12)
	if got := s.Status(1); got != TileFull {
		t.Errorf("status after SetInclusive = %v, want FULL", got)
	}

	// Tile 0 goes straight to FULL, the base case.
	s.SetInclusive(0, 7)
	if got := s.Status(0); got != TileFull {
		t.Errorf("tile 0 status = %v, want FULL", got)
	}
}

// driveLookBack resolves every tile of a simulated scan in two phases,
// each following its own permutation of tile order. Phase one publishes
// every tile's aggregate as PARTIAL (tile 0 as FULL); phase two performs
// the look-back walk and publishes FULL. Because every slot is at least
// PARTIAL before any walk starts, both phases run to completion under any
// permutation, and the result must not depend on either ordering.
func driveLookBack(aggs []int, publishOrder, resolveOrder []int) []int {
	op := Sum[int]()
	s := NewTileState[int](len(aggs))

	for _, tile := range publishOrder {
		if tile == 0 {
			s.SetInclusive(0, aggs[0])
		} else {
			s.SetPartial(tile, aggs[tile])
		}
	}

	prefixes := make([]int, len(aggs))
	for _, tile := range resolveOrder {
		if tile == 0 {
			continue
		}
		prefix := s.LookBack(tile, op)
		prefixes[tile] = prefix
		s.SetInclusive(tile, op.Combine(prefix, aggs[tile]))
	}
	return prefixes
}

func TestLookBackOrderInvariance(t *testing.T) {
	const numTiles = 9
	aggs := make([]int, numTiles)
	for i := range aggs {
		aggs[i] = rand.Intn(1000)
	}

	want := make([]int, numTiles)
	acc := 0
	for i := range aggs {
		want[i] = acc
		acc += aggs[i]
	}
	want[0] = 0

	identity := make([]int, numTiles)
	for i := range identity {
		identity[i] = i
	}

	for trial := 0; trial < 50; trial++ {
		publish := append([]int(nil), identity...)
		resolve := append([]int(nil), identity...)
		rand.Shuffle(numTiles, func(i, j int) { publish[i], publish[j] = publish[j], publish[i] })
		rand.Shuffle(numTiles, func(i, j int) { resolve[i], resolve[j] = resolve[j], resolve[i] })

		got := driveLookBack(aggs, publish, resolve)
		for tile := 1; tile < numTiles; tile++ {
			if got[tile] != want[tile] {
				t.Fatalf("trial %d tile %d: prefix = %d, want %d (publish %v, resolve %v)",
					trial, tile, got[tile], want[tile], publish, resolve)
			}
		}
	}
}

func TestLookBackStopsAtFull(t *testing.T) {
	// When an immediate predecessor is FULL the walk must not read any
	// earlier slot; leave them INVALID to prove it.
	op := Sum[int]()
	s := NewTileState[int](5)
	s.SetInclusive(3, 42)
	if got := s.LookBack(4, op); got != 42 {
		t.Errorf("LookBack = %d, want 42", got)
	}
}

func TestLookBackConcurrent(t *testing.T) {
	// Full protocol under the real scheduler: every block publishes
	// PARTIAL, walks back, publishes FULL. Repeat to shake out orderings.
	const numTiles = 64
	op := Sum[int]()

	for trial := 0; trial < 20; trial++ {
		aggs := make([]int, numTiles)
		for i := range aggs {
			aggs[i] = rand.Intn(100)
		}
		s := NewTileState[int](numTiles)
		prefixes := make([]int, numTiles)

		var wg sync.WaitGroup
		for tile := numTiles - 1; tile >= 0; tile-- {
			wg.Add(1)
			go func(tile int) {
				defer wg.Done()
				if tile == 0 {
					s.SetInclusive(0, aggs[0])
					return
				}
				s.SetPartial(tile, aggs[tile])
				prefix := s.LookBack(tile, op)
				prefixes[tile] = prefix
				s.SetInclusive(tile, op.Combine(prefix, aggs[tile]))
			}(tile)
		}
		wg.Wait()

		acc := 0
		for tile := 0; tile < numTiles; tile++ {
			if tile > 0 && prefixes[tile] != acc {
				t.Fatalf("trial %d tile %d: prefix = %d, want %d", trial, tile, prefixes[tile], acc)
			}
			acc += aggs[tile]
		}
	}
}

func TestDigitTileStateLookBack(t *testing.T) {
	const numTiles, radixBits = 4, 2
	bins := 1 << radixBits

	hists := [][]uint32{
		{1, 0, 2, 1},
		{0, 3, 0, 1},
		{2, 1, 1, 0},
		{1, 1, 1, 1},
	}

	s := NewDigitTileState(numTiles, radixBits)
	if s.Bins() != bins {
		t.Fatalf("Bins = %d, want %d", s.Bins(), bins)
	}

	s.SetInclusive(0, hists[0])
	for tile := 1; tile < numTiles; tile++ {
		s.SetPartial(tile, hists[tile])
	}

	for tile := 1; tile < numTiles; tile++ {
		prefix := make([]uint32, bins)
		s.LookBack(tile, prefix)

		want := make([]uint32, bins)
		for p := 0; p < tile; p++ {
			for b := 0; b < bins; b++ {
				want[b] += hists[p][b]
			}
		}
		for b := 0; b < bins; b++ {
			if prefix[b] != want[b] {
				t.Errorf("tile %d bin %d: prefix = %d, want %d", tile, b, prefix[b], want[b])
			}
		}

		incl := make([]uint32, bins)
		for b := 0; b < bins; b++ {
			incl[b] = prefix[b] + hists[tile][b]
		}
		s.SetInclusive(tile, incl)
	}
}
