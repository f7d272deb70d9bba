package primitive

// Warp-granularity operations. A warp is a lane-indexed group of threads
// executing in lockstep; lanes is the per-lane value slice, at most one
// warp wide. The loops below iterate in an order that reads only pre-step
// values, reproducing the simultaneous-exchange semantics of hardware
// shuffles, and tolerate ragged lane counts that are not powers of two.

// WarpReduce combines lanes with a binary tree of pairwise exchanges of
// depth ceil(log2(len(lanes))). The result is defined only for lane 0 and
// is returned; other lanes are left clobbered, exactly as a shuffle-down
// tree leaves them.
func WarpReduce[T any](lanes []T, op Operator[T]) T {
	for offset := 1; offset < len(lanes); offset <<= 1 {
		for lane := 0; lane+offset < len(lanes); lane++ {
			lanes[lane] = op.Combine(lanes[lane], lanes[lane+offset])
		}
	}
	return lanes[0]
}

// WarpAllReduce is WarpReduce with the result broadcast to every lane.
func WarpAllReduce[T any](lanes []T, op Operator[T]) T {
	agg := WarpReduce(lanes, op)
	for lane := range lanes {
		lanes[lane] = agg
	}
	return agg
}

// WarpScanInclusive replaces lanes with their inclusive prefix scan using
// lg(n) Kogge-Stone exchange steps and returns the warp aggregate, the
// value left in the highest lane.
func WarpScanInclusive[T any](lanes []T, op Operator[T]) T {
	for offset := 1; offset < len(lanes); offset <<= 1 {
		for lane := len(lanes) - 1; lane >= offset; lane-- {
			lanes[lane] = op.Combine(lanes[lane-offset], lanes[lane])
		}
	}
	return lanes[len(lanes)-1]
}

// WarpScanExclusive replaces lanes with their exclusive prefix scan and
// returns the warp aggregate. The operator must carry an identity, which
// becomes lane 0's output.
func WarpScanExclusive[T any](lanes []T, op Operator[T]) T {
	agg := WarpScanInclusive(lanes, op)
	for lane := len(lanes) - 1; lane > 0; lane-- {
		lanes[lane] = lanes[lane-1]
	}
	lanes[0] = op.Identity()
	return agg
}

// WarpBroadcast copies the value held by srcLane to every lane and
// returns it.
func WarpBroadcast[T any](lanes []T, srcLane int) T {
	v := lanes[srcLane]
	for lane := range lanes {
		lanes[lane] = v
	}
	return v
}

// WarpExchangeBlockedToStriped converts a blocked arrangement (each lane
// holds itemsPerLane consecutive items) to a striped arrangement (item i
// of lane l sits at stride i*lanes+l). items is the warp's flat item
// slice of length lanes*itemsPerLane. The permutation is warp-local; it
// has no cross-warp effect.
func WarpExchangeBlockedToStriped[T any](items []T, lanes, itemsPerLane int) {
	scratch := make([]T, len(items))
	copy(scratch, items)
	for lane := 0; lane < lanes; lane++ {
		for i := 0; i < itemsPerLane; i++ {
			items[i*lanes+lane] = scratch[lane*itemsPerLane+i]
		}
	}
}

// WarpExchangeStripedToBlocked is the inverse permutation of
// WarpExchangeBlockedToStriped.
func WarpExchangeStripedToBlocked[T any](items []T, lanes, itemsPerLane int) {
	scratch := make([]T, len(items))
	copy(scratch, items)
	for lane := 0; lane < lanes; lane++ {
		for i := 0; i < itemsPerLane; i++ {
			items[lane*itemsPerLane+i] = scratch[i*lanes+lane]
		}
	}
}
