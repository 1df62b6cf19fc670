package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	ierrors "github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/binding"
	"github.com/loom-ui/loom/pkg/lanes"
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/memdom"
	"github.com/loom-ui/loom/pkg/reconcile"
)

type benchResult struct {
	name string
	ops  int
	calc *tachymeter.Metrics
}

func benchCmd() *cobra.Command {
	var (
		iterations int
		size       int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "bench [name]",
		Short: "Run engine micro-benchmarks",
		Long: `Run the engine's micro-benchmarks and print latency tables.

Available benchmarks:

  reconcile-rotate   keyed diff of a single-item rotation
  reconcile-shuffle  keyed diff of a random permutation
  reconcile-replace  keyed diff with all keys replaced
  list-commit        full list reconciliation through an in-memory tree
  scheduler-flush    one update cycle across many pending coroutines

With no name, all benchmarks run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(seed))
			all := []struct {
				name string
				run  func(rng *rand.Rand, iterations, size int) benchResult
			}{
				{"reconcile-rotate", benchReconcileRotate},
				{"reconcile-shuffle", benchReconcileShuffle},
				{"reconcile-replace", benchReconcileReplace},
				{"list-commit", benchListCommit},
				{"scheduler-flush", benchSchedulerFlush},
			}

			var results []benchResult
			if len(args) == 1 {
				found := false
				for _, b := range all {
					if b.name == args[0] {
						results = append(results, b.run(rng, iterations, size))
						found = true
					}
				}
				if !found {
					return ierrors.New("E402").WithDetail(fmt.Sprintf("no benchmark named %q", args[0]))
				}
			} else {
				for _, b := range all {
					results = append(results, b.run(rng, iterations, size))
				}
			}

			printBanner()
			fmt.Printf("\n  %s iterations, %s items per pass\n\n",
				humanize.Comma(int64(iterations)), humanize.Comma(int64(size)))
			printResults(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 2000, "Iterations per benchmark")
	cmd.Flags().IntVarP(&size, "size", "s", 1000, "Items per pass")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")

	return cmd
}

func printResults(results []benchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Benchmark", "Ops", "Avg", "P50", "P95", "P99", "Max"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.name,
			humanize.Comma(int64(r.ops)),
			r.calc.Time.Avg,
			r.calc.Time.P50,
			r.calc.Time.P95,
			r.calc.Time.P99,
			r.calc.Time.Max,
		})
	}
	t.Render()
}

func sample(iterations int, fn func(i int)) *tachymeter.Metrics {
	meter := tachymeter.New(&tachymeter.Config{Size: iterations})
	for i := 0; i < iterations; i++ {
		start := time.Now()
		fn(i)
		meter.AddTime(time.Since(start))
	}
	return meter.Calc()
}

func sequentialKeys(n int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}
	return keys
}

func benchReconcileRotate(_ *rand.Rand, iterations, size int) benchResult {
	old := sequentialKeys(size)
	rotated := append([]int{old[size-1]}, old[:size-1]...)
	calc := sample(iterations, func(int) {
		reconcile.Diff(old, rotated)
	})
	return benchResult{name: "reconcile-rotate", ops: iterations, calc: calc}
}

func benchReconcileShuffle(rng *rand.Rand, iterations, size int) benchResult {
	old := sequentialKeys(size)
	shuffled := append([]int(nil), old...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	calc := sample(iterations, func(int) {
		reconcile.Diff(old, shuffled)
	})
	return benchResult{name: "reconcile-shuffle", ops: iterations, calc: calc}
}

func benchReconcileReplace(_ *rand.Rand, iterations, size int) benchResult {
	old := sequentialKeys(size)
	replaced := make([]int, size)
	for i := range replaced {
		replaced[i] = size + i
	}
	calc := sample(iterations, func(int) {
		reconcile.Diff(old, replaced)
	})
	return benchResult{name: "reconcile-replace", ops: iterations, calc: calc}
}

func benchListCommit(rng *rand.Rand, iterations, size int) benchResult {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	root := binding.NewRoot(doc, engine, doc.Body())

	makeList := func(keys []int) binding.List {
		l := make(binding.List, len(keys))
		for i, k := range keys {
			l[i] = binding.Keyed(k, fmt.Sprintf("item-%d", k))
		}
		return l
	}

	keys := sequentialKeys(size)
	if err := root.Render(makeList(keys)); err != nil {
		panic(err)
	}
	doc.TakePatches()

	calc := sample(iterations, func(int) {
		rng.Shuffle(len(keys), func(i, j int) {
			keys[i], keys[j] = keys[j], keys[i]
		})
		if err := root.Render(makeList(keys)); err != nil {
			panic(err)
		}
		doc.TakePatches()
	})
	return benchResult{name: "list-commit", ops: iterations, calc: calc}
}

func benchSchedulerFlush(_ *rand.Rand, iterations, size int) benchResult {
	engine := loom.NewEngine()
	cos := make([]*loom.Coroutine, size)
	for i := range cos {
		cos[i] = engine.NewCoroutine(nil, func(co *loom.Coroutine, uc *loom.UpdateContext) error {
			uc.EnqueueMutation(func() {})
			return nil
		})
	}

	calc := sample(iterations, func(int) {
		for _, co := range cos {
			co.RequestUpdate(lanes.DefaultLane)
		}
		if err := engine.Flush(); err != nil {
			panic(err)
		}
	})
	return benchResult{name: "scheduler-flush", ops: iterations * size, calc: calc}
}
