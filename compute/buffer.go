package compute

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Buffer is a typed device buffer handle with an explicit element count.
// The handle, not the underlying storage, is what callers pass to
// primitives; a freed handle rejects further use.
type Buffer[T any] struct {
	ctx   *Context
	data  []T
	freed atomic.Bool
}

// MakeBuffer allocates a device buffer of n elements of type T.
func MakeBuffer[T any](ctx *Context, n int) (*Buffer[T], error) {
	if n < 0 {
		return nil, errors.Errorf("buffer size must be non-negative, got %d", n)
	}
	var zero T
	ctx.accountAlloc(int64(n) * int64(unsafe.Sizeof(zero)))
	return &Buffer[T]{ctx: ctx, data: make([]T, n)}, nil
}

// MakeBufferFrom allocates a device buffer initialized with a copy of src.
func MakeBufferFrom[T any](ctx *Context, src []T) (*Buffer[T], error) {
	b, err := MakeBuffer[T](ctx, len(src))
	if err != nil {
		return nil, err
	}
	copy(b.data, src)
	return b, nil
}

// Len returns the element count of the buffer.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Upload copies host data into the buffer starting at element 0.
func (b *Buffer[T]) Upload(src []T) error {
	if b.freed.Load() {
		return errors.New("upload to freed buffer")
	}
	if len(src) > len(b.data) {
		return errors.Errorf("upload of %d elements exceeds buffer length %d", len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

// Download copies the buffer contents into dst, which must be at least as
// long as the requested element count.
func (b *Buffer[T]) Download(dst []T) error {
	if b.freed.Load() {
		return errors.New("download from freed buffer")
	}
	if len(dst) > len(b.data) {
		return errors.Errorf("download of %d elements exceeds buffer length %d", len(dst), len(b.data))
	}
	copy(dst, b.data[:len(dst)])
	return nil
}

// Free releases the buffer. Further use of the handle is rejected. Free is
// idempotent.
func (b *Buffer[T]) Free() error {
	if b.freed.Swap(true) {
		return nil
	}
	var zero T
	b.ctx.accountAlloc(-int64(len(b.data)) * int64(unsafe.Sizeof(zero)))
	b.data = nil
	return nil
}

// Data exposes the device-resident storage to kernels. Host code must not
// touch it between submission and synchronization.
func (b *Buffer[T]) Data() ([]T, error) {
	if b.freed.Load() {
		return nil, errors.New("access to freed buffer")
	}
	return b.data, nil
}
