package primitive

// Thread-granularity operations over a small run of register-held items.
// These are pure sequential folds; at device scale every thread of every
// block applies them to its own slice of the tile.

// ThreadReduce folds items left to right with op. items must be non-empty.
func ThreadReduce[T any](items []T, op Operator[T]) T {
	acc := items[0]
	for _, v := range items[1:] {
		acc = op.Combine(acc, v)
	}
	return acc
}

// ThreadReduceSeeded folds items left to right starting from prefix.
func ThreadReduceSeeded[T any](prefix T, items []T, op Operator[T]) T {
	acc := prefix
	for _, v := range items {
		acc = op.Combine(acc, v)
	}
	return acc
}

// ThreadScanInclusive replaces items with its inclusive prefix scan and
// returns the aggregate of the run.
func ThreadScanInclusive[T any](items []T, op Operator[T]) T {
	acc := items[0]
	for i := 1; i < len(items); i++ {
		acc = op.Combine(acc, items[i])
		items[i] = acc
	}
	return acc
}

// ThreadScanInclusiveSeeded is ThreadScanInclusive with every output
// element additionally combined with prefix.
func ThreadScanInclusiveSeeded[T any](prefix T, items []T, op Operator[T]) T {
	acc := prefix
	for i := range items {
		acc = op.Combine(acc, items[i])
		items[i] = acc
	}
	return acc
}

// ThreadScanExclusive replaces items with its exclusive prefix scan seeded
// by prefix (items[0] becomes prefix) and returns the inclusive aggregate,
// prefix combined with every item.
func ThreadScanExclusive[T any](prefix T, items []T, op Operator[T]) T {
	acc := prefix
	for i := range items {
		v := items[i]
		items[i] = acc
		acc = op.Combine(acc, v)
	}
	return acc
}
