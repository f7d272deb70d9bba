package primitive

// Block-granularity load and store between a tile in device memory and the
// block's register arrangement. Two access patterns are supported: direct
// (each thread's items are contiguous) and striped (items interleaved at
// the block stride). Partial tiles are guarded: no element outside
// [0, valid) is read or written.

// Layout names a block I/O access pattern.
type Layout int

const (
	// LayoutDirect keeps each thread's items contiguous in memory.
	LayoutDirect Layout = iota
	// LayoutStriped interleaves item i of thread t at i*Threads+t.
	LayoutStriped
)

func (l Layout) String() string {
	switch l {
	case LayoutDirect:
		return "Direct"
	case LayoutStriped:
		return "Striped"
	default:
		return "Unknown"
	}
}

// BlockLoad copies valid items from src into the block arrangement dst.
// dst positions mapping to indices at or beyond valid are left untouched.
func BlockLoad[T any](cfg BlockConfig, dst, src []T, valid int, layout Layout) {
	if layout == LayoutDirect {
		copy(dst[:valid], src[:valid])
		return
	}
	for t := 0; t < cfg.Threads; t++ {
		for i := 0; i < cfg.ItemsPerThread; i++ {
			s := i*cfg.Threads + t
			if s < valid {
				dst[t*cfg.ItemsPerThread+i] = src[s]
			}
		}
	}
}

// BlockLoadFill is BlockLoad with out-of-range positions of dst set to
// fill, so a partial tile presents a full arrangement to the block.
func BlockLoadFill[T any](cfg BlockConfig, dst, src []T, valid int, layout Layout, fill T) {
	for i := range dst {
		dst[i] = fill
	}
	BlockLoad(cfg, dst, src, valid, layout)
}

// BlockStore copies the block arrangement src back to dst, writing only
// positions below valid.
func BlockStore[T any](cfg BlockConfig, dst, src []T, valid int, layout Layout) {
	if layout == LayoutDirect {
		copy(dst[:valid], src[:valid])
		return
	}
	for t := 0; t < cfg.Threads; t++ {
		for i := 0; i < cfg.ItemsPerThread; i++ {
			d := i*cfg.Threads + t
			if d < valid {
				dst[d] = src[t*cfg.ItemsPerThread+i]
			}
		}
	}
}
