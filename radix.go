package primitive

import (
	"sync/atomic"
	"unsafe"

	"github.com/ChengzhuUwU/lc-parallel-primitive/compute"
)

// Single-pass-per-digit ("OneSweep") radix sort. Keys are sorted by fixed
// width digit groups from least to most significant; each digit pass
// performs one read and one write of the key data, obtaining its cross
// tile per-bin offsets through the vector-valued look-back protocol
// instead of a separate device-wide scan pass. Each pass is a stable
// partition by bin, so equal keys keep their relative input order across
// the whole sort.
//
// Descending order and bit-subrange sorting twiddle the key bits used for
// digit extraction; the pass structure is never changed.

// UnsignedKey is the constraint for radix-sortable key types.
type UnsignedKey interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// KeyBits returns the width of K in bits.
func KeyBits[K UnsignedKey]() int {
	var zero K
	return int(unsafe.Sizeof(zero)) * 8
}

// DoubleBuffer is a ping-pong pair of device buffers. Digit passes
// alternate between the two to avoid in-place read/write hazards; after a
// sort completes (and the stream is synchronized), Current holds the
// sorted data.
type DoubleBuffer[T any] struct {
	bufs     [2]*compute.Buffer[T]
	selector int
}

// MakeDoubleBuffer builds a ping-pong pair with current as the active
// buffer.
func MakeDoubleBuffer[T any](current, alternate *compute.Buffer[T]) *DoubleBuffer[T] {
	return &DoubleBuffer[T]{bufs: [2]*compute.Buffer[T]{current, alternate}}
}

// Current returns the active buffer.
func (d *DoubleBuffer[T]) Current() *compute.Buffer[T] {
	return d.bufs[d.selector]
}

// Alternate returns the inactive buffer.
func (d *DoubleBuffer[T]) Alternate() *compute.Buffer[T] {
	return d.bufs[d.selector^1]
}

// Selector returns which of the pair is active (0 or 1).
func (d *DoubleBuffer[T]) Selector() int {
	return d.selector
}

func (d *DoubleBuffer[T]) swap() {
	d.selector ^= 1
}

// sortKernel is one compiled sort variant.
type sortKernel[K UnsignedKey, V any] struct {
	cfg        BlockConfig
	radixBits  int
	descending bool
}

// Sorter is the device-wide radix sort primitive for key type K and
// payload type V. Key-only sorts use V = struct{} (see NewKeySorter).
type Sorter[K UnsignedKey, V any] struct {
	ctx    *compute.Context
	policy SortPolicy
	kernel *sortKernel[K, V]
}

// NewSorter creates a pairs sort primitive with the default policy.
func NewSorter[K UnsignedKey, V any](ctx *compute.Context) *Sorter[K, V] {
	return &Sorter[K, V]{ctx: ctx, policy: DefaultSortPolicy()}
}

// NewKeySorter creates a keys-only sort primitive with the default policy.
func NewKeySorter[K UnsignedKey](ctx *compute.Context) *Sorter[K, struct{}] {
	return NewSorter[K, struct{}](ctx)
}

// Configure resolves and pins the sort policy.
func (s *Sorter[K, V]) Configure(p SortPolicy) error {
	p = p.withDefaults()
	if err := p.validate("Sorter.Configure"); err != nil {
		return err
	}
	s.policy = p
	s.kernel = nil
	return nil
}

// Compile specializes and caches the kernel variant for the resolved
// policy and key/value types.
func (s *Sorter[K, V]) Compile() error {
	key := kernelKey{
		primitive: "radix_sort",
		config:    s.policy.key(),
		elem:      typeName[K]() + "/" + typeName[V](),
	}
	v, err := loadOrCompile(key, func() (any, error) {
		if err := s.policy.checkCapability("Sorter.Compile", s.ctx.Device()); err != nil {
			return nil, err
		}
		return &sortKernel[K, V]{
			cfg:        s.policy.blockConfig(),
			radixBits:  s.policy.RadixBits,
			descending: s.policy.Descending,
		}, nil
	})
	if err != nil {
		return err
	}
	s.kernel = v.(*sortKernel[K, V])
	return nil
}

// Enqueue records a sort of the first n keys (and their payloads when
// values is non-nil) over the key bit range [beginBit, endBit). Payloads
// move in lockstep with their keys through every pass. Preconditions are
// checked synchronously; results are observable after the stream's next
// Synchronize, at which point keys.Current (and values.Current) hold the
// sorted data.
func (s *Sorter[K, V]) Enqueue(stream *compute.Stream, keys *DoubleBuffer[K], values *DoubleBuffer[V], n, beginBit, endBit int) error {
	const opName = "Sorter.Enqueue"

	if keys == nil || keys.bufs[0] == nil || keys.bufs[1] == nil {
		return newPreconditionError(opName, "nil key buffer handle")
	}
	if n < 0 {
		return newPreconditionError(opName, "negative element count %d", n)
	}
	if beginBit < 0 || endBit > KeyBits[K]() || beginBit >= endBit {
		return newPreconditionError(opName, "bit range [%d, %d) invalid for %d-bit keys", beginBit, endBit, KeyBits[K]())
	}
	keyData := [2][]K{}
	for i, b := range keys.bufs {
		d, err := b.Data()
		if err != nil {
			return newPreconditionError(opName, "key buffer %d: %v", i, err)
		}
		if n > len(d) {
			return newPreconditionError(opName, "count %d exceeds key buffer %d length %d", n, i, len(d))
		}
		keyData[i] = d
	}
	valData := [2][]V{}
	if values != nil {
		if values.bufs[0] == nil || values.bufs[1] == nil {
			return newPreconditionError(opName, "nil value buffer handle")
		}
		for i, b := range values.bufs {
			d, err := b.Data()
			if err != nil {
				return newPreconditionError(opName, "value buffer %d: %v", i, err)
			}
			if n > len(d) {
				return newPreconditionError(opName, "count %d exceeds value buffer %d length %d", n, i, len(d))
			}
			valData[i] = d
		}
	}
	if s.kernel == nil {
		if err := s.Compile(); err != nil {
			return err
		}
	}

	if n < 2 {
		compute.LaunchBlocks(stream, 0, nil)
		return nil
	}

	k := s.kernel
	bins := 1 << k.radixBits
	numPasses := (endBit - beginBit + k.radixBits - 1) / k.radixBits
	tiles := MakeTileMap(n, k.cfg.TileSize())

	// Upfront histogram sweep: one pass over the keys counting every
	// digit place at once. The exclusive scan of each pass's histogram
	// gives the device-wide base offset of every bin.
	globalBase := make([]uint32, numPasses*bins)
	curKeys := keyData[keys.selector]
	compute.LaunchBlocks(stream, tiles.NumTiles, func(tile int) error {
		k.histogramTile(tile, tiles, curKeys, globalBase, numPasses, beginBit, endBit)
		return nil
	})
	compute.LaunchBlocks(stream, 1, func(int) error {
		for p := 0; p < numPasses; p++ {
			ThreadScanExclusive(0, globalBase[p*bins:(p+1)*bins], Sum[uint32]())
		}
		return nil
	})

	// Digit passes, least significant first, ping-ponging buffers. Every
	// pass gets fresh look-back state.
	keySel, valSel := keys.selector, 0
	if values != nil {
		valSel = values.selector
	}
	for p := 0; p < numPasses; p++ {
		shift := beginBit + p*k.radixBits
		state := NewDigitTileState(tiles.NumTiles, k.radixBits)
		base := globalBase[p*bins : (p+1)*bins]

		srcKeys, dstKeys := keyData[keySel], keyData[keySel^1]
		var srcVals, dstVals []V
		if values != nil {
			srcVals, dstVals = valData[valSel], valData[valSel^1]
		}

		compute.LaunchBlocks(stream, tiles.NumTiles, func(tile int) error {
			k.sortTile(tile, tiles, state, base, shift, endBit, srcKeys, dstKeys, srcVals, dstVals)
			return nil
		})

		keySel ^= 1
		valSel ^= 1
	}

	// Selector bookkeeping is host-side; the data behind the final
	// Current() is valid once the stream synchronizes.
	if keySel != keys.selector {
		keys.swap()
	}
	if values != nil && valSel != values.selector {
		values.swap()
	}
	return nil
}

// digit extracts the digit at shift, twiddling key bits for descending
// order. Bits at or beyond endBit never contribute.
func (k *sortKernel[K, V]) digit(key K, shift, endBit int) uint32 {
	if k.descending {
		key = ^key
	}
	width := k.radixBits
	if shift+width > endBit {
		width = endBit - shift
	}
	mask := K(1)<<width - 1
	return uint32((key >> shift) & mask)
}

// histogramTile counts every digit place of the tile's keys, then folds
// the local counts into the shared device histogram with atomic adds.
func (k *sortKernel[K, V]) histogramTile(tile int, tiles TileMap, keys []K, globalHist []uint32, numPasses, beginBit, endBit int) {
	bins := 1 << k.radixBits
	offset, valid := tiles.Tile(tile)
	local := make([]uint32, numPasses*bins)
	for _, key := range keys[offset : offset+valid] {
		for p := 0; p < numPasses; p++ {
			d := k.digit(key, beginBit+p*k.radixBits, endBit)
			local[p*bins+int(d)]++
		}
	}
	for i, c := range local {
		if c != 0 {
			atomic.AddUint32(&globalHist[i], c)
		}
	}
}

// sortTile executes one block of one digit pass: local ranking, vector
// look-back for the cross-tile bin prefixes, and the globally ranked
// scatter.
func (k *sortKernel[K, V]) sortTile(tile int, tiles TileMap, state *DigitTileState, globalBase []uint32, shift, endBit int, srcKeys, dstKeys []K, srcVals, dstVals []V) {
	offset, valid := tiles.Tile(tile)
	bins := 1 << k.radixBits

	digits := make([]uint32, valid)
	for i, key := range srcKeys[offset : offset+valid] {
		digits[i] = k.digit(key, shift, endBit)
	}
	ranks := make([]int, valid)
	hist, localBase := BlockRadixRank(digits, k.radixBits, ranks)

	// Cross-tile exclusive bin offsets via the look-back protocol; the
	// scalar status machine generalizes unchanged to the count vector.
	prefix := make([]uint32, bins)
	if tile == 0 {
		state.SetInclusive(0, hist)
	} else {
		state.SetPartial(tile, hist)
		state.LookBack(tile, prefix)
		incl := make([]uint32, bins)
		for b := range incl {
			incl[b] = prefix[b] + hist[b]
		}
		state.SetInclusive(tile, incl)
	}

	// Scatter: global bin base + preceding-tile count + in-tile ordinal.
	// The ordinal keeps equal digits in input order, which is what makes
	// every pass a stable partition.
	for i := 0; i < valid; i++ {
		d := digits[i]
		ordinal := uint32(ranks[i]) - localBase[d]
		dst := globalBase[d] + prefix[d] + ordinal
		dstKeys[dst] = srcKeys[offset+i]
		if srcVals != nil {
			dstVals[dst] = srcVals[offset+i]
		}
	}
}

// SortKeys sorts the first n elements of keys ascending over the full key
// width with the default policy, managing the ping-pong buffer internally.
func SortKeys[K UnsignedKey](ctx *compute.Context, stream *compute.Stream, keys *compute.Buffer[K], n int) error {
	return sortManaged[K, struct{}](ctx, stream, keys, nil, n, false)
}

// SortKeysDescending is SortKeys in descending key order.
func SortKeysDescending[K UnsignedKey](ctx *compute.Context, stream *compute.Stream, keys *compute.Buffer[K], n int) error {
	return sortManaged[K, struct{}](ctx, stream, keys, nil, n, true)
}

// SortPairs sorts the first n key/value pairs ascending by key with the
// default policy. Values move in lockstep with their keys; equal keys keep
// their relative input order.
func SortPairs[K UnsignedKey, V any](ctx *compute.Context, stream *compute.Stream, keys *compute.Buffer[K], values *compute.Buffer[V], n int) error {
	return sortManaged(ctx, stream, keys, values, n, false)
}

// sortManaged wraps Sorter with internally allocated alternate buffers,
// copying the result back into the caller's buffers when the pass count
// leaves it in the alternates.
func sortManaged[K UnsignedKey, V any](ctx *compute.Context, stream *compute.Stream, keys *compute.Buffer[K], values *compute.Buffer[V], n int, descending bool) error {
	const opName = "SortKeys"
	if keys == nil {
		return newPreconditionError(opName, "nil key buffer handle")
	}
	altKeys, err := compute.MakeBuffer[K](ctx, keys.Len())
	if err != nil {
		return newDeviceError(opName, err)
	}
	dKeys := MakeDoubleBuffer(keys, altKeys)
	var dVals *DoubleBuffer[V]
	var altVals *compute.Buffer[V]
	if values != nil {
		altVals, err = compute.MakeBuffer[V](ctx, values.Len())
		if err != nil {
			altKeys.Free()
			return newDeviceError(opName, err)
		}
		dVals = MakeDoubleBuffer(values, altVals)
	}
	freeAlts := func() {
		altKeys.Free()
		if altVals != nil {
			altVals.Free()
		}
	}

	sorter := NewSorter[K, V](ctx)
	policy := DefaultSortPolicy()
	policy.Descending = descending
	if err := sorter.Configure(policy); err != nil {
		freeAlts()
		return err
	}
	if err := sorter.Enqueue(stream, dKeys, dVals, n, 0, KeyBits[K]()); err != nil {
		freeAlts()
		return err
	}

	// An odd pass count ends in the alternates; record a copy back so the
	// caller's buffers hold the result at the next synchronize.
	if dKeys.Current() == altKeys {
		keyDst, _ := keys.Data()
		keySrc, _ := altKeys.Data()
		compute.Host(stream, func() error {
			copy(keyDst[:n], keySrc[:n])
			return nil
		})
	}
	if dVals != nil && dVals.Current() == altVals {
		valDst, _ := values.Data()
		valSrc, _ := altVals.Data()
		compute.Host(stream, func() error {
			copy(valDst[:n], valSrc[:n])
			return nil
		})
	}
	// The alternates stay live until the recorded work has drained.
	compute.Host(stream, func() error {
		freeAlts()
		return nil
	})
	return nil
}
