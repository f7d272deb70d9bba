// Package primitive is a hierarchical library of bulk-data parallel
// primitives: reduce, scan, and radix sort, composed from thread-, warp-,
// and block-granularity building blocks up to whole-device operations.
//
// Device-wide operations run on the compute backend in this module's
// compute package: thread blocks are scheduled concurrently with no
// relative ordering guarantee, and work is recorded onto streams that are
// observed through an explicit synchronization point.
//
// The device-wide scan is single-pass: blocks obtain their cross-tile
// prefix through a decoupled look-back over a per-tile status array rather
// than a global barrier. The radix sort generalizes the same protocol to
// per-digit bin-count vectors, giving one read and one write of the key
// data per digit pass.
//
// Example:
//
//	ctx := compute.NewContext()
//	defer ctx.Destroy()
//
//	in, _ := compute.MakeBufferFrom(ctx, []uint32{3, 1, 4, 1, 5, 9, 2, 6})
//	out, _ := compute.MakeBuffer[uint32](ctx, in.Len())
//
//	stream := ctx.DefaultStream()
//	primitive.InclusiveScan(ctx, stream, in, out, in.Len(), primitive.Sum[uint32]())
//	if err := stream.Synchronize(); err != nil {
//		log.Fatal(err)
//	}
package primitive
