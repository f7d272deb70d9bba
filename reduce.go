package primitive

import (
	"github.com/ChengzhuUwU/lc-parallel-primitive/compute"
)

// Reduce records a device-wide reduction of the first n elements of in
// into out[0]. Unlike the scan, this is a plain two-pass composition: a
// tile pass producing per-block partials and a single-block pass folding
// them, with the stream ordering standing in for a barrier between the
// two. An empty input requires an operator identity, which becomes the
// result.
func Reduce[T any](ctx *compute.Context, stream *compute.Stream, in, out *compute.Buffer[T], n int, op Operator[T]) error {
	const opName = "Reduce"
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
	if n > len(src) {
		return newPreconditionError(opName, "count %d exceeds input length %d", n, len(src))
	}
	if len(dst) < 1 {
		return newPreconditionError(opName, "output buffer is empty")
	}
	if n == 0 {
		if !op.HasIdentity() {
			return newPreconditionError(opName, "empty reduction requires an operator identity")
		}
		identity := op.Identity()
		compute.Host(stream, func() error {
			dst[0] = identity
			return nil
		})
		return nil
	}

	cfg := DefaultScanPolicy().blockConfig()
	tiles := MakeTileMap(n, cfg.TileSize())
	partials := make([]T, tiles.NumTiles)

	compute.LaunchBlocks(stream, tiles.NumTiles, func(tile int) error {
		offset, valid := tiles.Tile(tile)
		items := make([]T, valid)
		BlockLoad(cfg, items, src[offset:offset+valid], valid, LayoutDirect)
		partials[tile] = BlockReduce(cfg, items, op, AlgorithmWarpScans)
		return nil
	})
	compute.LaunchBlocks(stream, 1, func(int) error {
		dst[0] = ThreadReduce(partials, op)
		return nil
	})
	return nil
}
