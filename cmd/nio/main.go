// Command nio is the host driver described in SPEC_FULL.md §6.2: it
// loads a YAML accelerator configuration, builds the simulated system,
// drives a FlexNode-compiled layer to completion, and prints a cycle
// and stall summary. The front-end that lowers a trained neural-network
// graph into FlexNodes is out of scope (spec.md §1) — this driver feeds
// the core through the FlexNode contract directly, the same way the
// teacher's sample mains (samples/matrixmulti/main.go) hand-build their
// demo workload instead of parsing one from a file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/nio/internal/config"
	"github.com/sarchlab/nio/internal/flexnode"
	"github.com/sarchlab/nio/internal/report"
	"github.com/sarchlab/nio/internal/system"
	"github.com/sarchlab/nio/internal/trace"
	"github.com/tebeka/atexit"
)

func createTraceFile(path string) (*os.File, error) {
	return os.Create(path)
}

func main() {
	configPath := flag.String("config", "", "path to the accelerator YAML configuration")
	graphPath := flag.String("graph", "", "path to a neural-network graph (front-end ingestion out of scope; unused by the built-in demo)")
	tracePath := flag.String("trace", "", "optional memory-access trace output path")
	flag.Parse()

	if *configPath == "" {
		fmt.Println("nio: -config is required")
		atexit.Exit(1)
		return
	}
	_ = graphPath

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println(err)
		atexit.Exit(1)
		return
	}

	var tr *trace.Logger
	if cfg.Memory.Trace && *tracePath != "" {
		f, err := createTraceFile(*tracePath)
		if err != nil {
			fmt.Println(err)
			atexit.Exit(1)
			return
		}
		defer f.Close()
		tr = trace.New(f, nil)
	}

	sys := system.New(system.Config{
		NumTileRows:         cfg.NumTileRows,
		NumTileCols:         cfg.NumTileCols,
		MemoryWords:         cfg.Memory.Words,
		MemoryWordBytes:     cfg.Memory.WordBytes,
		MemoryPipelineDepth: cfg.Memory.PipelineDepth,
		AllocatorGrain:      cfg.Memory.Grain,
		CacheEntries:        cfg.CacheEntries,
		Trace:               tr,
	})

	runDemoLayer(sys)

	report.Print(sys.Report())
	atexit.Exit(0)
}

// runDemoLayer compiles and runs a small built-in elementwise-add layer
// to completion, printing a progress line the way nnflex.py's
// Nio.progress carriage-return bar does.
func runDemoLayer(sys *system.System) {
	in1 := []float32{1, 2, 3, 4}
	in2 := []float32{5, 6, 7, 8}
	out := make([]float32, len(in1))

	op := flexnode.ElementWiseAdd(in1, in2, out)
	op.Map(sys.MemoryMap())

	cmds := op.Compile(sys.HostHandle(), sys.TileHandles())
	outstanding := len(cmds)
	pending := cmds

	for outstanding > 0 {
		for len(pending) > 0 && sys.Submit(pending[0]) {
			pending = pending[1:]
		}
		sys.Step()
		outstanding -= len(sys.DrainDone())
		fmt.Printf("\rnio: %s: %d/%d tile commands acknowledged", op.OpName(), len(cmds)-outstanding, len(cmds))
	}
	fmt.Println()

	op.Unmap(sys.MemoryMap())
	sys.ClearCaches()
	fmt.Printf("nio: %s result: %v\n", op.OpName(), out)
}
