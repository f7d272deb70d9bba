package compute

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BlockKernel is the body of one thread block. Implementations must be safe
// to run concurrently with any other block of the same launch; no relative
// ordering or timing between blocks may be assumed.
type BlockKernel func(block int) error

// LaunchBlocks records a grid launch of numBlocks blocks onto the stream.
// Blocks are chunked contiguously over the device's workers; each worker
// processes its chunk in increasing block index. Workers run concurrently
// with no barrier between them.
//
// A block that busy-waits on state published by a lower-indexed block always
// makes progress: every lower-indexed block is either earlier in the same
// chunk (already finished) or in a lower chunk driven by a worker that never
// waits on a higher-indexed block.
func LaunchBlocks(stream *Stream, numBlocks int, kernel BlockKernel) {
	if numBlocks <= 0 {
		// Empty grid still occupies a slot in the stream order.
		stream.Submit(func() error { return nil })
		return
	}

	workers := stream.ctx.device.Workers
	if workers > numBlocks {
		workers = numBlocks
	}
	blocksPerWorker := (numBlocks + workers - 1) / workers

	logrus.WithFields(logrus.Fields{
		"stream":  stream.id,
		"blocks":  numBlocks,
		"workers": workers,
	}).Debug("compute: launch recorded")

	stream.Submit(func() error {
		var g errgroup.Group
		for w := 0; w < workers; w++ {
			start := w * blocksPerWorker
			end := start + blocksPerWorker
			if end > numBlocks {
				end = numBlocks
			}
			g.Go(func() error {
				for block := start; block < end; block++ {
					if err := kernel(block); err != nil {
						return err
					}
				}
				return nil
			})
		}
		return g.Wait()
	})
}

// Host records a host-side callback onto the stream, ordered with respect to
// the launches around it.
func Host(stream *Stream, fn func() error) {
	stream.Submit(fn)
}
