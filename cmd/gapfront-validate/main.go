// Command gapfront-validate differentially fuzzes the wavefront aligner
// against the reference DP aligner over random mutated sequence pairs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wfalign/gapfront/validate"
)

var version = "0.1.0"

func main() {
	app := filepath.Base(os.Args[0])
	usage := fmt.Sprintf(`
gapfront-validate: differential fuzzing of the wavefront aligner

Version: v%s

Usage:
        %s [options]

Options/Flags:
`, version, app)

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	help := flag.Bool("h", false, "print help message")
	parallel := flag.Bool("parallel", true, "run cycles across a worker pool instead of sequentially")
	workers := flag.Int("workers", 0, "worker count when -parallel is set (0 = GOMAXPROCS)")
	minLength := flag.Int("min-length", 0, "minimum generated text length")
	maxLength := flag.Int("max-length", 200, "maximum generated text length (exclusive)")
	minError := flag.Int("min-error", 0, "minimum per-character error rate, percent")
	maxError := flag.Int("max-error", 100, "maximum per-character error rate, percent (exclusive)")
	number := flag.Int("number", 10000, "number of passing cycles required before exiting 0")
	quiet := flag.Bool("quiet", false, "suppress the per-cycle progress line, printing only the final summary")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	cfg := validate.Config{
		MinLength: *minLength,
		MaxLength: *maxLength,
		MinError:  *minError,
		MaxError:  *maxError,
	}

	onCycle := func(n int, f *validate.Failure) {
		if *quiet {
			return
		}
		if f != nil {
			fmt.Printf("cycle %d/%d: FAIL: %v\n", n, *number, f)
		} else {
			fmt.Printf("cycle %d/%d: ok\n", n, *number)
		}
	}

	var passed int
	var failure *validate.Failure
	if *parallel {
		passed, failure = validate.RunParallel(cfg, *workers, *number, onCycle)
	} else {
		passed, failure = validate.Run(cfg, *number, onCycle)
	}

	fmt.Printf("ran %d/%d cycles\n", passed, *number)
	if failure != nil {
		fmt.Fprintln(os.Stderr, failure)
		os.Exit(1)
	}
}
