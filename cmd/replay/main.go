package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/clinical-support/go-engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print the full diff list for each case")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}
	os.Exit(run(*fixturePath, *verbose))
}

// #endregion main

// #region output

func run(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, err := replay.Replay(context.Background(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results, verbose)
}

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.Result, verbose bool) int {
	fmt.Printf("%-28s| %-24s| %s\n", "Case", "Diagnosis", "Match")
	fmt.Printf("%-28s+%-25s+%s\n", "----------------------------", "-------------------------", "------")

	matches := 0
	for _, r := range results {
		diagnosis := r.Report.Diagnosis
		if r.Err != nil {
			diagnosis = "error"
		}
		match := "DIFF"
		if r.Match() {
			match = "OK"
			matches++
		}
		fmt.Printf("%-28s| %-24s| %s\n", r.Name, diagnosis, match)
		if verbose && !r.Match() {
			fmt.Printf("    %s\n", strings.Join(r.Diffs, "\n    "))
		}
	}

	diverge := len(results) - matches
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", len(results), matches, diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
