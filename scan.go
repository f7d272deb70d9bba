package primitive

import (
	"github.com/ChengzhuUwU/lc-parallel-primitive/compute"
)

// Device-wide prefix scan, single pass. The input is partitioned into
// ordered tiles, one block per tile; every block scans its tile locally,
// publishes its aggregate into the tile's mailbox, obtains its cross-tile
// exclusive prefix through the decoupled look-back walk, and folds the
// prefix into its local results. No global barrier is involved; the result
// is defined purely by tile index order, never by block arrival order.

// scanKernel is one compiled scan variant: block geometry and algorithm
// specialized for an element type.
type scanKernel[T any] struct {
	cfg  BlockConfig
	algo BlockScanAlgorithm
}

// Scanner is the device-wide scan primitive for element type T. It
// implements the primitive capability surface: Configure resolves an
// immutable policy, Compile specializes the kernel variant (cached
// process-wide), and the Enqueue methods record work onto a stream.
type Scanner[T any] struct {
	ctx    *compute.Context
	op     Operator[T]
	policy ScanPolicy
	kernel *scanKernel[T]
}

// NewScanner creates a scan primitive over op with the default policy.
// Associativity of op is a caller contract.
func NewScanner[T any](ctx *compute.Context, op Operator[T]) *Scanner[T] {
	return &Scanner[T]{ctx: ctx, op: op, policy: DefaultScanPolicy()}
}

// Configure resolves and pins the scan policy. Must be called before
// Compile; a configured policy is immutable for the life of the variant.
func (s *Scanner[T]) Configure(p ScanPolicy) error {
	p = p.withDefaults()
	if err := p.validate("Scanner.Configure"); err != nil {
		return err
	}
	s.policy = p
	s.kernel = nil
	return nil
}

// Compile specializes and caches the kernel variant for the resolved
// policy and element type. Capability violations surface here.
func (s *Scanner[T]) Compile() error {
	key := kernelKey{primitive: "scan", config: s.policy.key(), elem: typeName[T]()}
	v, err := loadOrCompile(key, func() (any, error) {
		if err := s.policy.checkCapability("Scanner.Compile", s.ctx.Device()); err != nil {
			return nil, err
		}
		return &scanKernel[T]{cfg: s.policy.blockConfig(), algo: s.policy.Algorithm}, nil
	})
	if err != nil {
		return err
	}
	s.kernel = v.(*scanKernel[T])
	return nil
}

// EnqueueInclusive records an inclusive scan of the first n elements of in
// into out. Preconditions are checked synchronously; the scan itself runs
// asynchronously and is observed at the stream's next Synchronize.
func (s *Scanner[T]) EnqueueInclusive(stream *compute.Stream, in, out *compute.Buffer[T], n int) error {
	return s.enqueue("Scanner.EnqueueInclusive", stream, in, out, n, false)
}

// EnqueueExclusive records an exclusive scan. The operator must carry an
// identity, which seeds element 0.
func (s *Scanner[T]) EnqueueExclusive(stream *compute.Stream, in, out *compute.Buffer[T], n int) error {
	if !s.op.HasIdentity() {
		return newPreconditionError("Scanner.EnqueueExclusive", "exclusive scan requires an operator identity")
	}
	return s.enqueue("Scanner.EnqueueExclusive", stream, in, out, n, true)
}

func (s *Scanner[T]) enqueue(opName string, stream *compute.Stream, in, out *compute.Buffer[T], n int, exclusive bool) error {
	if in == nil || out == nil {
		return newPreconditionError(opName, "nil buffer handle")
	}
	if n < 0 {
		return newPreconditionError(opName, "negative element count %d", n)
	}
	src, err := in.Data()
	if err != nil {
		return newPreconditionError(opName, "input: %v", err)
	}
	dst, err := out.Data()
	if err != nil {
		return newPreconditionError(opName, "output: %v", err)
	}
	if n > len(src) || n > len(dst) {
		return newPreconditionError(opName, "count %d exceeds buffer lengths (in %d, out %d)", n, len(src), len(dst))
	}
	if s.kernel == nil {
		if err := s.Compile(); err != nil {
			return err
		}
	}

	if n == 0 {
		// No tiles; record a no-op to keep stream ordering.
		compute.LaunchBlocks(stream, 0, nil)
		return nil
	}

	k := s.kernel
	tiles := MakeTileMap(n, k.cfg.TileSize())

	// Per-call look-back state, discarded after the launch. A single tile
	// needs no cross-tile prefix at all.
	var state *TileState[T]
	if tiles.NumTiles > 1 {
		state = NewTileState[T](tiles.NumTiles)
	}

	op := s.op
	compute.LaunchBlocks(stream, tiles.NumTiles, func(tile int) error {
		k.runTile(tile, tiles, state, src, dst, op, exclusive)
		return nil
	})
	return nil
}

// runTile executes one block: local scan, publication, look-back, fixup.
func (k *scanKernel[T]) runTile(tile int, tiles TileMap, state *TileState[T], src, dst []T, op Operator[T], exclusive bool) {
	offset, valid := tiles.Tile(tile)
	items := make([]T, valid)
	BlockLoad(k.cfg, items, src[offset:offset+valid], valid, LayoutDirect)

	var agg T
	if exclusive {
		agg = BlockScanExclusive(k.cfg, items, op, k.algo)
	} else {
		agg = BlockScanInclusive(k.cfg, items, op, k.algo)
	}

	switch {
	case state == nil:
		// Single tile: the local scan is the device-wide result.
	case tile == 0:
		// Base case: tile 0's aggregate is already its inclusive prefix.
		state.SetInclusive(0, agg)
	default:
		state.SetPartial(tile, agg)
		prefix := state.LookBack(tile, op)
		state.SetInclusive(tile, op.Combine(prefix, agg))
		for i := range items {
			items[i] = op.Combine(prefix, items[i])
		}
	}

	BlockStore(k.cfg, dst[offset:offset+valid], items, valid, LayoutDirect)
}

// InclusiveScan records a device-wide inclusive scan with the default
// policy. See Scanner for the configurable surface.
func InclusiveScan[T any](ctx *compute.Context, stream *compute.Stream, in, out *compute.Buffer[T], n int, op Operator[T]) error {
	return NewScanner(ctx, op).EnqueueInclusive(stream, in, out, n)
}

// ExclusiveScan records a device-wide exclusive scan with the default
// policy. The operator must carry an identity.
func ExclusiveScan[T any](ctx *compute.Context, stream *compute.Stream, in, out *compute.Buffer[T], n int, op Operator[T]) error {
	return NewScanner(ctx, op).EnqueueExclusive(stream, in, out, n)
}
