// Command forcelayout computes a two-dimensional force-directed
// layout of a weighted graph, removes residual overlaps, and
// optionally aligns the result to a reference layout.
//
// Usage:
//
//	forcelayout [-j threads] [-i iterations] [-p positions] [-r reference] [-q] input.json output.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kpahula/forcelayout/internal/diag"
	"github.com/kpahula/forcelayout/internal/layout"
)

var (
	threads       = flag.Int("j", 0, "worker thread count (0 = auto-detect, capped at 16)")
	iterations    = flag.Int("i", 0, "force-step iteration count (default 1000)")
	initialPath   = flag.String("p", "", "initial positions document (applied after concentric-ring seeding)")
	referencePath = flag.String("r", "", "reference layout to align the final result to")
	quiet         = flag.Bool("q", false, "suppress per-iteration diagnostic output")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: forcelayout [-j threads] [-i iterations] [-p positions] [-r reference] [-q] input output\n")
	os.Exit(1)
}

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		usage()
	}
	inputPath, outputPath := args[0], args[1]

	n := *iterations
	if n <= 0 {
		n = 1000
	}

	doc, err := layout.LoadInputDocument(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forcelayout: %v\n", err)
		os.Exit(1)
	}

	var initialPositions *layout.PositionDocument
	if *initialPath != "" {
		initialPositions, err = layout.LoadPositionDocument(*initialPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "forcelayout: %v\n", err)
			os.Exit(1)
		}
	}

	world, err := layout.BuildWorld(doc, *threads, initialPositions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forcelayout: %v\n", err)
		os.Exit(1)
	}
	defer world.Close()

	logger, err := diag.New(!*quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forcelayout: building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Reference loading overlaps the force+sparsify run: the loader
	// goroutine starts now and is only joined after sparsify returns,
	// matching original_source/world.c's pthread_create-before-the-
	// main-loop / pthread_join-after-sparsify ordering.
	var referenceResult <-chan layout.PositionLoadResult
	if *referencePath != "" {
		referenceResult = layout.LoadPositionDocumentAsync(*referencePath)
	}

	for i := 1; i <= n; i++ {
		energy := world.ForceStep()
		logger.ForceStep(i, energy)
	}

	if _, err := world.Sparsify(logger.SparsifyStep); err != nil {
		fmt.Fprintf(os.Stderr, "forcelayout: %v\n", err)
		os.Exit(1)
	}

	if referenceResult != nil {
		result := <-referenceResult
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "forcelayout: %v\n", result.Err)
			os.Exit(1)
		}
		ref := world.LoadReferenceVertices(result.Doc)
		world.AlignToReference(ref)
	}

	if err := world.WriteOutputDocument(outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "forcelayout: %v\n", err)
		os.Exit(1)
	}
}
