package primitive

// BlockDiscontinuityHeads flags positions whose element differs from its
// predecessor under eq. Position 0 is flagged unless tilePredecessor is
// non-nil and equal to items[0], letting adjacent tiles stitch segment
// boundaries. flags must be the same length as items.
func BlockDiscontinuityHeads[T any](flags []bool, items []T, eq func(a, b T) bool, tilePredecessor *T) {
	if len(items) == 0 {
		return
	}
	flags[0] = tilePredecessor == nil || !eq(*tilePredecessor, items[0])
	for i := 1; i < len(items); i++ {
		flags[i] = !eq(items[i-1], items[i])
	}
}

// BlockDiscontinuityTails flags positions whose element differs from its
// successor under eq. The last position is flagged unless tileSuccessor is
// non-nil and equal to it.
func BlockDiscontinuityTails[T any](flags []bool, items []T, eq func(a, b T) bool, tileSuccessor *T) {
	if len(items) == 0 {
		return
	}
	last := len(items) - 1
	for i := 0; i < last; i++ {
		flags[i] = !eq(items[i], items[i+1])
	}
	flags[last] = tileSuccessor == nil || !eq(items[last], *tileSuccessor)
}
