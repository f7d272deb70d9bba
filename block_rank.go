package primitive

// BlockRadixRank computes a stable local rank for every digit in a block:
// rank = exclusive histogram base of the digit's bin + the ordinal of the
// key among equal digits preceding it in block order. digits holds the
// extracted digit of each key, each below 1<<radixBits. ranks must be the
// same length as digits.
//
// It returns the block's bin histogram and the exclusive per-bin base
// offsets; both are needed by callers that scatter across tiles.
func BlockRadixRank(digits []uint32, radixBits int, ranks []int) (hist, base []uint32) {
	bins := 1 << radixBits
	hist = make([]uint32, bins)
	for _, d := range digits {
		hist[d]++
	}

	base = make([]uint32, bins)
	copy(base, hist)
	ThreadScanExclusive(0, base, Sum[uint32]())

	counters := make([]uint32, bins)
	copy(counters, base)
	for i, d := range digits {
		ranks[i] = int(counters[d])
		counters[d]++
	}
	return hist, base
}
