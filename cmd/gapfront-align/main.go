// Copyright © 2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Command gapfront-align reads a query and a text from standard input and
// prints their gap-affine alignment.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"

	"github.com/wfalign/gapfront/refalign"
	wfa "github.com/wfalign/gapfront"
)

var version = "0.1.0"

func main() {
	app := filepath.Base(os.Args[0])
	usage := fmt.Sprintf(`
gapfront-align: gap-affine sequence alignment

Version: v%s

Usage:
  Reads exactly two lines from standard input: the query, then the text
  (trailing whitespace trimmed). Prints three lines: the score, the aligned
  query, the aligned text.

        %s [options] < pair.txt

Options/Flags:
`, version, app)

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	help := flag.Bool("h", false, "print help message")
	algo := flag.String("algo", "wavefront", `algorithm to use: "wavefront" or "swg"`)
	mismatch := flag.Uint("mismatch", 4, "mismatch penalty")
	open := flag.Uint("open", 6, "gap open penalty")
	ext := flag.Uint("extend", 2, "gap extend penalty")
	global := flag.Bool("global", true, "require the alignment to span both sequences end to end (wavefront only); false allows a semi-global alignment that may start or end mid-text")
	adaptive := flag.Bool("adaptive", false, "enable adaptive wavefront reduction (wavefront only)")
	plot := flag.Bool("plot", false, "print a text-table visualization of the Matches wavefront to stderr")
	cpuProfile := flag.Bool("cpu-profile", false, "write a CPU profile to cpu.pprof")
	memProfile := flag.Bool("mem-profile", false, "write a memory profile to mem.pprof")

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if *memProfile {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	pens := wfa.Penalties{Mismatch: uint32(*mismatch), GapOpen: uint32(*open), GapExt: uint32(*ext)}

	query, text, err := readPair(os.Stdin)
	checkError(err)

	var score uint32
	var queryAligned, textAligned string

	switch strings.ToLower(*algo) {
	case "wavefront":
		opts := &wfa.Options{GlobalAlignment: *global}
		algn := wfa.New(&pens, opts)
		defer wfa.RecycleAligner(algn)
		if *adaptive {
			checkError(algn.AdaptiveReduction(wfa.DefaultAdaptiveOption))
		}

		qb, tb := []byte(query), []byte(text)
		r, err := algn.Align(qb, tb)
		checkError(err)
		defer wfa.RecycleAlignmentResult(r)

		if *plot {
			algn.Plot(&qb, &tb, os.Stderr, algn.M, true, -1)
		}

		score = r.Score
		queryAligned, textAligned = r.AlignedStrings(&qb, &tb)

	case "swg":
		r, err := refalign.Align([]byte(query), []byte(text), pens)
		checkError(err)
		score, queryAligned, textAligned = r.Score, r.QueryAligned, r.TextAligned

	default:
		checkError(fmt.Errorf("unknown algorithm %q, want \"wavefront\" or \"swg\"", *algo))
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	fmt.Fprintln(out, score)
	fmt.Fprintln(out, queryAligned)
	fmt.Fprintln(out, textAligned)
}

// readPair reads exactly two lines (query, text) with trailing whitespace
// trimmed, per the CLI's external contract.
func readPair(r *os.File) (query, text string, err error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return "", "", fmt.Errorf("expected a query line on standard input")
	}
	query = strings.TrimRight(scanner.Text(), " \t\r\n")

	if !scanner.Scan() {
		return "", "", fmt.Errorf("expected a text line on standard input")
	}
	text = strings.TrimRight(scanner.Text(), " \t\r\n")

	return query, text, scanner.Err()
}

func checkError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
