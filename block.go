package primitive

// Block-granularity reduce and scan. A block is a group of threads split
// into warps; every warp first handles its own slice, then the per-warp
// aggregates are combined to give each warp its offset into the block
// total, and finally each warp folds that offset back into its local
// results. The item slice may be shorter than the full tile when the block
// owns a partial tile; only the valid run is touched.

// BlockScanAlgorithm selects how the per-thread aggregates are combined
// across the block.
type BlockScanAlgorithm int

const (
	// AlgorithmWarpScans scans thread aggregates warp by warp with
	// shuffle-style exchanges, then serially stitches warp aggregates.
	AlgorithmWarpScans BlockScanAlgorithm = iota
	// AlgorithmSharedTree stages every thread aggregate in a shared array
	// and runs one block-wide tree over it.
	AlgorithmSharedTree
)

func (a BlockScanAlgorithm) String() string {
	switch a {
	case AlgorithmWarpScans:
		return "WarpScans"
	case AlgorithmSharedTree:
		return "SharedTree"
	default:
		return "Unknown"
	}
}

// BlockConfig fixes the geometry of one block: threads per block, items
// each thread owns, and the warp width. Immutable once a kernel variant is
// compiled for it.
type BlockConfig struct {
	Threads        int
	ItemsPerThread int
	WarpThreads    int
}

// TileSize returns the number of items a full tile holds.
func (c BlockConfig) TileSize() int {
	return c.Threads * c.ItemsPerThread
}

// Warps returns the number of warps per block.
func (c BlockConfig) Warps() int {
	return (c.Threads + c.WarpThreads - 1) / c.WarpThreads
}

// threadRuns returns how many threads own items for a run of n items.
func (c BlockConfig) threadRuns(n int) int {
	return (n + c.ItemsPerThread - 1) / c.ItemsPerThread
}

// scanThreadAggregates replaces aggs with its inclusive prefix scan and
// returns the block aggregate, using the selected combination strategy.
func scanThreadAggregates[T any](cfg BlockConfig, aggs []T, op Operator[T], algo BlockScanAlgorithm) T {
	if algo == AlgorithmSharedTree {
		// One tree across the staged aggregates of every thread.
		return WarpScanInclusive(aggs, op)
	}

	// Warp-by-warp scan, then a short serial pass over the warp totals.
	nWarps := (len(aggs) + cfg.WarpThreads - 1) / cfg.WarpThreads
	warpAggs := make([]T, nWarps)
	for w := 0; w < nWarps; w++ {
		lo := w * cfg.WarpThreads
		hi := lo + cfg.WarpThreads
		if hi > len(aggs) {
			hi = len(aggs)
		}
		warpAggs[w] = WarpScanInclusive(aggs[lo:hi], op)
	}

	// Each warp's offset is the combination of the preceding warp totals.
	running := warpAggs[0]
	for w := 1; w < nWarps; w++ {
		offset := running
		running = op.Combine(running, warpAggs[w])
		lo := w * cfg.WarpThreads
		hi := lo + cfg.WarpThreads
		if hi > len(aggs) {
			hi = len(aggs)
		}
		for t := lo; t < hi; t++ {
			aggs[t] = op.Combine(offset, aggs[t])
		}
	}
	return running
}

// BlockScanInclusive replaces items with its inclusive prefix scan and
// returns the block aggregate. items must be non-empty and no longer than
// the tile size.
func BlockScanInclusive[T any](cfg BlockConfig, items []T, op Operator[T], algo BlockScanAlgorithm) T {
	nThreads := cfg.threadRuns(len(items))
	if nThreads == 1 {
		return ThreadScanInclusive(items, op)
	}

	aggs := make([]T, nThreads)
	for t := 0; t < nThreads; t++ {
		lo, hi := threadSpan(cfg, len(items), t)
		aggs[t] = ThreadReduce(items[lo:hi], op)
	}
	blockAgg := scanThreadAggregates(cfg, aggs, op, algo)

	// aggs[t] now holds the inclusive prefix through thread t; thread t's
	// exclusive seed is aggs[t-1].
	for t := nThreads - 1; t >= 0; t-- {
		lo, hi := threadSpan(cfg, len(items), t)
		if t == 0 {
			ThreadScanInclusive(items[lo:hi], op)
		} else {
			ThreadScanInclusiveSeeded(aggs[t-1], items[lo:hi], op)
		}
	}
	return blockAgg
}

// BlockScanExclusive replaces items with its exclusive prefix scan seeded
// by the operator identity and returns the block aggregate. The operator
// must carry an identity.
func BlockScanExclusive[T any](cfg BlockConfig, items []T, op Operator[T], algo BlockScanAlgorithm) T {
	nThreads := cfg.threadRuns(len(items))
	if nThreads == 1 {
		return ThreadScanExclusive(op.Identity(), items, op)
	}

	aggs := make([]T, nThreads)
	for t := 0; t < nThreads; t++ {
		lo, hi := threadSpan(cfg, len(items), t)
		aggs[t] = ThreadReduce(items[lo:hi], op)
	}
	blockAgg := scanThreadAggregates(cfg, aggs, op, algo)

	for t := nThreads - 1; t >= 0; t-- {
		lo, hi := threadSpan(cfg, len(items), t)
		seed := op.Identity()
		if t > 0 {
			seed = aggs[t-1]
		}
		ThreadScanExclusive(seed, items[lo:hi], op)
	}
	return blockAgg
}

// BlockReduce combines items to a single block aggregate. items must be
// non-empty and no longer than the tile size. items is left clobbered.
func BlockReduce[T any](cfg BlockConfig, items []T, op Operator[T], algo BlockScanAlgorithm) T {
	nThreads := cfg.threadRuns(len(items))
	aggs := make([]T, nThreads)
	for t := 0; t < nThreads; t++ {
		lo, hi := threadSpan(cfg, len(items), t)
		aggs[t] = ThreadReduce(items[lo:hi], op)
	}

	if algo == AlgorithmSharedTree {
		// Strided pairwise tree over the staged aggregates.
		for stride := 1; stride < len(aggs); stride <<= 1 {
			for i := 0; i+stride < len(aggs); i += stride << 1 {
				aggs[i] = op.Combine(aggs[i], aggs[i+stride])
			}
		}
		return aggs[0]
	}

	nWarps := (nThreads + cfg.WarpThreads - 1) / cfg.WarpThreads
	var blockAgg T
	for w := 0; w < nWarps; w++ {
		lo := w * cfg.WarpThreads
		hi := lo + cfg.WarpThreads
		if hi > nThreads {
			hi = nThreads
		}
		warpAgg := WarpReduce(aggs[lo:hi], op)
		if w == 0 {
			blockAgg = warpAgg
		} else {
			blockAgg = op.Combine(blockAgg, warpAgg)
		}
	}
	return blockAgg
}

// threadSpan returns thread t's item run bounds for n valid items.
func threadSpan(cfg BlockConfig, n, t int) (lo, hi int) {
	lo = t * cfg.ItemsPerThread
	hi = lo + cfg.ItemsPerThread
	if hi > n {
		hi = n
	}
	return lo, hi
}
