package primitive

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChengzhuUwU/lc-parallel-primitive/compute"
)

func scanOnDevice(t *testing.T, in []int, exclusive bool, policy ScanPolicy) []int {
	t.Helper()
	ctx := compute.NewContext()
	defer ctx.Destroy()

	din, err := compute.MakeBufferFrom(ctx, in)
	require.NoError(t, err)
	dout, err := compute.MakeBuffer[int](ctx, len(in))
	require.NoError(t, err)

	scanner := NewScanner(ctx, Sum[int]())
	require.NoError(t, scanner.Configure(policy))

	stream := ctx.DefaultStream()
	if exclusive {
		require.NoError(t, scanner.EnqueueExclusive(stream, din, dout, len(in)))
	} else {
		require.NoError(t, scanner.EnqueueInclusive(stream, din, dout, len(in)))
	}
	require.NoError(t, stream.Synchronize())

	out := make([]int, len(in))
	require.NoError(t, dout.Download(out))
	return out
}

// Scenario pinned from the call contract: input [3 1 4 1 5 9 2 6], Sum.
func TestScanPinnedScenario(t *testing.T) {
	in := []int{3, 1, 4, 1, 5, 9, 2, 6}
	policy := ScanPolicy{BlockThreads: 2, ItemsPerThread: 1, WarpThreads: 2}

	exclusive := scanOnDevice(t, in, true, policy)
	require.Equal(t, []int{0, 3, 4, 8, 9, 14, 23, 25}, exclusive)

	inclusive := scanOnDevice(t, in, false, policy)
	require.Equal(t, []int{3, 4, 8, 9, 14, 23, 25, 31}, inclusive)
}

func TestScanLengths(t *testing.T) {
	policy := ScanPolicy{BlockThreads: 8, ItemsPerThread: 2, WarpThreads: 4}
	tileSize := policy.BlockThreads * policy.ItemsPerThread

	lengths := []int{0, 1, tileSize - 1, tileSize, tileSize + 1,
		3 * tileSize, 5*tileSize + 3, 17*tileSize + 11}
	for _, n := range lengths {
		in := make([]int, n)
		for i := range in {
			in[i] = rand.Intn(1000) - 500
		}

		got := scanOnDevice(t, in, false, policy)
		require.Equal(t, refInclusiveScan(in), got, "inclusive n=%d", n)

		got = scanOnDevice(t, in, true, policy)
		require.Equal(t, refExclusiveScan(in), got, "exclusive n=%d", n)
	}
}

func TestScanBothAlgorithms(t *testing.T) {
	in := make([]int, 5000)
	for i := range in {
		in[i] = rand.Intn(100)
	}
	want := refInclusiveScan(in)

	for _, algo := range []BlockScanAlgorithm{AlgorithmWarpScans, AlgorithmSharedTree} {
		policy := DefaultScanPolicy()
		policy.Algorithm = algo
		require.Equal(t, want, scanOnDevice(t, in, false, policy), "algorithm %s", algo)
	}
}

// Scan/reduce identities from the call contract, against the sequential
// reference: exclusive[i] = combine(exclusive[i-1], input[i-1]) and
// inclusive[i] = combine(exclusive[i], input[i]).
func TestScanPrefixIdentities(t *testing.T) {
	in := make([]int, 1000)
	for i := range in {
		in[i] = rand.Intn(50)
	}
	policy := ScanPolicy{BlockThreads: 4, ItemsPerThread: 3, WarpThreads: 2}
	exclusive := scanOnDevice(t, in, true, policy)
	inclusive := scanOnDevice(t, in, false, policy)

	for i := 1; i < len(in); i++ {
		require.Equal(t, exclusive[i-1]+in[i-1], exclusive[i], "exclusive identity at %d", i)
	}
	for i := range in {
		require.Equal(t, exclusive[i]+in[i], inclusive[i], "inclusive identity at %d", i)
	}
}

func TestScanInclusiveWithoutIdentity(t *testing.T) {
	// Max carries no identity; the inclusive variant must not need one.
	ctx := compute.NewContext()
	defer ctx.Destroy()

	in := []int{3, 9, 1, 7, 7, 2, 11, 4}
	din, err := compute.MakeBufferFrom(ctx, in)
	require.NoError(t, err)
	dout, err := compute.MakeBuffer[int](ctx, len(in))
	require.NoError(t, err)

	require.NoError(t, InclusiveScan(ctx, ctx.DefaultStream(), din, dout, len(in), Max[int]()))
	require.NoError(t, ctx.DefaultStream().Synchronize())

	out := make([]int, len(in))
	require.NoError(t, dout.Download(out))
	require.Equal(t, []int{3, 9, 9, 9, 9, 9, 11, 11}, out)
}

func TestScanExclusiveRequiresIdentity(t *testing.T) {
	ctx := compute.NewContext()
	defer ctx.Destroy()

	din, err := compute.MakeBuffer[int](ctx, 8)
	require.NoError(t, err)
	dout, err := compute.MakeBuffer[int](ctx, 8)
	require.NoError(t, err)

	scanner := NewScanner(ctx, Max[int]())
	err = scanner.EnqueueExclusive(ctx.DefaultStream(), din, dout, 8)
	require.Error(t, err)
	require.True(t, IsPrecondition(err))
}

func TestScanPreconditions(t *testing.T) {
	ctx := compute.NewContext()
	defer ctx.Destroy()
	stream := ctx.DefaultStream()

	din, err := compute.MakeBuffer[int](ctx, 4)
	require.NoError(t, err)
	dout, err := compute.MakeBuffer[int](ctx, 4)
	require.NoError(t, err)

	scanner := NewScanner(ctx, Sum[int]())

	err = scanner.EnqueueInclusive(stream, nil, dout, 4)
	require.True(t, IsPrecondition(err), "nil buffer: %v", err)

	err = scanner.EnqueueInclusive(stream, din, dout, 5)
	require.True(t, IsPrecondition(err), "count over length: %v", err)

	err = scanner.EnqueueInclusive(stream, din, dout, -1)
	require.True(t, IsPrecondition(err), "negative count: %v", err)

	freed, err := compute.MakeBuffer[int](ctx, 4)
	require.NoError(t, err)
	require.NoError(t, freed.Free())
	err = scanner.EnqueueInclusive(stream, freed, dout, 4)
	require.True(t, IsPrecondition(err), "freed buffer: %v", err)

	// No partial work was issued by any rejected call.
	require.NoError(t, stream.Synchronize())
}

func TestScanIdempotent(t *testing.T) {
	ctx := compute.NewContext()
	defer ctx.Destroy()

	in := make([]int, 10000)
	for i := range in {
		in[i] = rand.Intn(1 << 20)
	}
	din, err := compute.MakeBufferFrom(ctx, in)
	require.NoError(t, err)
	dout, err := compute.MakeBuffer[int](ctx, len(in))
	require.NoError(t, err)

	stream := ctx.DefaultStream()
	scanner := NewScanner(ctx, Sum[int]())

	var first []int
	for round := 0; round < 3; round++ {
		require.NoError(t, scanner.EnqueueInclusive(stream, din, dout, len(in)))
		require.NoError(t, stream.Synchronize())
		out := make([]int, len(in))
		require.NoError(t, dout.Download(out))
		if round == 0 {
			first = out
		} else {
			require.Equal(t, first, out, "round %d differs", round)
		}
	}
}

func TestScanInPlace(t *testing.T) {
	// Aliasing in and out is safe: each block stages its tile before any
	// of its writes.
	ctx := compute.NewContext()
	defer ctx.Destroy()

	in := make([]int, 3000)
	for i := range in {
		in[i] = rand.Intn(100)
	}
	want := refInclusiveScan(in)

	dbuf, err := compute.MakeBufferFrom(ctx, in)
	require.NoError(t, err)
	require.NoError(t, InclusiveScan(ctx, ctx.DefaultStream(), dbuf, dbuf, len(in), Sum[int]()))
	require.NoError(t, ctx.DefaultStream().Synchronize())

	out := make([]int, len(in))
	require.NoError(t, dbuf.Download(out))
	require.Equal(t, want, out)
}
