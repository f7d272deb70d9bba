package compute

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	// defaultTotalMem is reported when the platform cannot be queried.
	defaultTotalMem = 16 * 1024 * 1024 * 1024

	// streamQueueDepth bounds how many recorded commands a stream buffers
	// before Submit applies backpressure.
	streamQueueDepth = 1024
)

// Context is an execution context: it owns the device, its streams, and the
// allocation accounting for device buffers. A Context must be created before
// recording any work and destroyed when no longer needed.
type Context struct {
	device *Device

	mu      sync.Mutex
	streams map[int]*Stream
	nextID  int32

	defaultStream *Stream
	allocBytes    int64
	destroyed     atomic.Bool
}

// NewContext creates an execution context bound to the host device.
func NewContext() *Context {
	ctx := &Context{
		device:  newDevice(),
		streams: make(map[int]*Stream),
	}
	ctx.defaultStream = ctx.NewStream()
	return ctx
}

// Device returns the device this context is bound to.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// DefaultStream returns the stream used when a call does not name one.
func (ctx *Context) DefaultStream() *Stream {
	return ctx.defaultStream
}

// NewStream creates an ordered asynchronous command stream. Work submitted
// to distinct streams may execute concurrently.
func (ctx *Context) NewStream() *Stream {
	id := int(atomic.AddInt32(&ctx.nextID, 1))
	s := newStream(id, ctx)
	ctx.mu.Lock()
	ctx.streams[id] = s
	ctx.mu.Unlock()
	return s
}

// Synchronize waits for every stream owned by the context and returns the
// first recorded fault, if any.
func (ctx *Context) Synchronize() error {
	ctx.mu.Lock()
	streams := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		streams = append(streams, s)
	}
	ctx.mu.Unlock()

	var first error
	for _, s := range streams {
		if err := s.Synchronize(); err != nil && first == nil {
			first = errors.Wrapf(err, "stream %d", s.id)
		}
	}
	return first
}

// Destroy drains all streams and releases the context. Buffers created from
// the context become invalid. Destroy is idempotent.
func (ctx *Context) Destroy() error {
	if ctx.destroyed.Swap(true) {
		return nil
	}
	err := ctx.Synchronize()
	ctx.mu.Lock()
	for id, s := range ctx.streams {
		s.close()
		delete(ctx.streams, id)
	}
	ctx.mu.Unlock()
	return err
}

// AllocatedBytes reports the bytes currently held by live buffers.
func (ctx *Context) AllocatedBytes() int64 {
	return atomic.LoadInt64(&ctx.allocBytes)
}

func (ctx *Context) accountAlloc(n int64) {
	atomic.AddInt64(&ctx.allocBytes, n)
}
