// Command lcprim exercises the device-wide primitives from the command
// line: ad-hoc scans and sorts with verification, and repeated-run
// benchmarks with summary statistics.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	primitive "github.com/ChengzhuUwU/lc-parallel-primitive"
	"github.com/ChengzhuUwU/lc-parallel-primitive/compute"
)

var (
	flagN       int
	flagIters   int
	flagVerbose bool
)

// perfTimer collects repeated wall-clock measurements so runs can be
// summarized with mean and standard deviation.
type perfTimer struct {
	vals  []float64
	start time.Time
}

func (p *perfTimer) Start() { p.start = time.Now() }

func (p *perfTimer) Record() {
	p.vals = append(p.vals, float64(time.Since(p.start)))
}

func (p *perfTimer) Report(name string) {
	mean, stdev := stat.MeanStdDev(p.vals, nil)
	fmt.Printf("%s (mean):\t%.3fms\n", name, mean/1e6)
	fmt.Printf("%s (std):\t%.3fms\n", name, stdev/1e6)
}

func main() {
	root := &cobra.Command{
		Use:   "lcprim",
		Short: "Device-wide parallel primitive driver",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().IntVarP(&flagN, "count", "n", 1_000_000, "number of elements")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a device-wide prefix sum and verify it",
		RunE:  runScan,
	}
	scanCmd.Flags().Bool("exclusive", false, "exclusive instead of inclusive")

	sortCmd := &cobra.Command{
		Use:   "sort",
		Short: "Run a device-wide radix sort and verify it",
		RunE:  runSort,
	}
	sortCmd.Flags().Bool("descending", false, "sort in descending order")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark scan and sort over repeated runs",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&flagIters, "iters", 10, "iterations per primitive")

	root.AddCommand(scanCmd, sortCmd, benchCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	exclusive, _ := cmd.Flags().GetBool("exclusive")

	ctx := compute.NewContext()
	defer ctx.Destroy()

	in := make([]uint64, flagN)
	for i := range in {
		in[i] = uint64(rand.Intn(100))
	}

	din, err := compute.MakeBufferFrom(ctx, in)
	if err != nil {
		return err
	}
	dout, err := compute.MakeBuffer[uint64](ctx, flagN)
	if err != nil {
		return err
	}

	stream := ctx.DefaultStream()
	start := time.Now()
	op := primitive.Sum[uint64]()
	if exclusive {
		err = primitive.ExclusiveScan(ctx, stream, din, dout, flagN, op)
	} else {
		err = primitive.InclusiveScan(ctx, stream, din, dout, flagN, op)
	}
	if err != nil {
		return err
	}
	if err := stream.Synchronize(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := make([]uint64, flagN)
	if err := dout.Download(out); err != nil {
		return err
	}
	var acc uint64
	for i, v := range in {
		if exclusive {
			if out[i] != acc {
				return fmt.Errorf("mismatch at %d: got %d, want %d", i, out[i], acc)
			}
			acc += v
		} else {
			acc += v
			if out[i] != acc {
				return fmt.Errorf("mismatch at %d: got %d, want %d", i, out[i], acc)
			}
		}
	}
	fmt.Printf("scan of %d elements verified in %v (%.1f Melem/s)\n",
		flagN, elapsed, float64(flagN)/elapsed.Seconds()/1e6)
	return nil
}

func runSort(cmd *cobra.Command, args []string) error {
	descending, _ := cmd.Flags().GetBool("descending")

	ctx := compute.NewContext()
	defer ctx.Destroy()

	keys := make([]uint64, flagN)
	for i := range keys {
		keys[i] = rand.Uint64()
	}

	dkeys, err := compute.MakeBufferFrom(ctx, keys)
	if err != nil {
		return err
	}

	stream := ctx.DefaultStream()
	start := time.Now()
	if descending {
		err = primitive.SortKeysDescending(ctx, stream, dkeys, flagN)
	} else {
		err = primitive.SortKeys(ctx, stream, dkeys, flagN)
	}
	if err != nil {
		return err
	}
	if err := stream.Synchronize(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := make([]uint64, flagN)
	if err := dkeys.Download(out); err != nil {
		return err
	}
	sorted := sort.SliceIsSorted(out, func(i, j int) bool {
		if descending {
			return out[i] > out[j]
		}
		return out[i] < out[j]
	})
	if !sorted {
		return fmt.Errorf("output is not sorted")
	}
	fmt.Printf("sort of %d keys verified in %v (%.1f Mkey/s)\n",
		flagN, elapsed, float64(flagN)/elapsed.Seconds()/1e6)
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := compute.NewContext()
	defer ctx.Destroy()
	stream := ctx.DefaultStream()

	in := make([]uint64, flagN)
	for i := range in {
		in[i] = rand.Uint64()
	}
	din, err := compute.MakeBufferFrom(ctx, in)
	if err != nil {
		return err
	}
	dout, err := compute.MakeBuffer[uint64](ctx, flagN)
	if err != nil {
		return err
	}

	var scanTimer perfTimer
	op := primitive.Sum[uint64]()
	for i := 0; i < flagIters; i++ {
		scanTimer.Start()
		if err := primitive.InclusiveScan(ctx, stream, din, dout, flagN, op); err != nil {
			return err
		}
		if err := stream.Synchronize(); err != nil {
			return err
		}
		scanTimer.Record()
	}
	scanTimer.Report("scan")

	var sortTimer perfTimer
	for i := 0; i < flagIters; i++ {
		if err := din.Upload(in); err != nil {
			return err
		}
		sortTimer.Start()
		if err := primitive.SortKeys(ctx, stream, din, flagN); err != nil {
			return err
		}
		if err := stream.Synchronize(); err != nil {
			return err
		}
		sortTimer.Record()
	}
	sortTimer.Report("sort")
	return nil
}
