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

package wfa

import (
	"strings"
	"testing"
)

func alignStrings(t *testing.T, q, tg string, p Penalties) (uint32, string, string) {
	t.Helper()
	algn := New(&p, DefaultOptions)
	defer RecycleAligner(algn)

	qb, tb := []byte(q), []byte(tg)
	r, err := algn.Align(qb, tb)
	if err != nil {
		t.Fatalf("Align(%q, %q): %v", q, tg, err)
	}
	defer RecycleAlignmentResult(r)

	qa, ta := r.AlignedStrings(&qb, &tb)
	return r.Score, qa, ta
}

func stripGaps(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

func TestWFAScenarios(t *testing.T) {
	cases := []struct {
		name       string
		q, tg      string
		p          Penalties
		wantScore  uint32
		wantQ, wantT string
	}{
		{"identical", "CAT", "CAT", Penalties{1, 1, 1}, 0, "CAT", "CAT"},
		{"trailing insert", "CAT", "CATS", Penalties{1, 1, 1}, 2, "CAT-", "CATS"},
		{"prefer mismatch", "XX", "YY", Penalties{1, 100, 100}, 2, "XX", "YY"},
		{"prefer gaps", "XX", "YY", Penalties{100, 1, 1}, 6, "", ""},
		{"mixed gap and mismatch", "XXZZ", "XXYZ", Penalties{100, 1, 1}, 4, "XX-ZZ", "XXYZ-"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			score, qa, ta := alignStrings(t, c.q, c.tg, c.p)
			if score != c.wantScore {
				t.Fatalf("score = %d, want %d (aligned %q / %q)", score, c.wantScore, qa, ta)
			}
			if len(qa) != len(ta) {
				t.Fatalf("aligned lengths differ: %q vs %q", qa, ta)
			}
			if stripGaps(qa) != c.q || stripGaps(ta) != c.tg {
				t.Fatalf("stripping gaps did not recover inputs: got q=%q t=%q", stripGaps(qa), stripGaps(ta))
			}
			if c.wantQ != "" && (qa != c.wantQ || ta != c.wantT) {
				t.Fatalf("aligned = %q / %q, want %q / %q", qa, ta, c.wantQ, c.wantT)
			}
			if recomputeScore(qa, ta, c.p) != score {
				t.Fatalf("recomputed score does not match reported score %d", score)
			}
		})
	}
}

func TestWFALongSequences(t *testing.T) {
	q := "TCTTTACTCGCGCGTTGGAGAAATACAATAGT"
	tg := "TCTATACTGCGCGTTTGGAGAAATAAAATAGT"

	cases := []struct {
		p         Penalties
		wantScore uint32
	}{
		{Penalties{1, 1, 1}, 6},
		{Penalties{135, 82, 19}, 472},
	}
	for _, c := range cases {
		score, qa, ta := alignStrings(t, q, tg, c.p)
		if score != c.wantScore {
			t.Fatalf("penalties %+v: score = %d, want %d", c.p, score, c.wantScore)
		}
		if recomputeScore(qa, ta, c.p) != score {
			t.Fatalf("recomputed score mismatch for penalties %+v", c.p)
		}
	}
}

func TestWFASemiGlobalAlignment(t *testing.T) {
	q := "CAT"
	tg := "GGCATGG"
	p := Penalties{Mismatch: 1, GapOpen: 1, GapExt: 1}

	globalScore, _, _ := alignStrings(t, q, tg, p)

	algn := New(&p, &Options{GlobalAlignment: false})
	defer RecycleAligner(algn)

	qb, tb := []byte(q), []byte(tg)
	r, err := algn.Align(qb, tb)
	if err != nil {
		t.Fatalf("Align(%q, %q): %v", q, tg, err)
	}
	defer RecycleAlignmentResult(r)

	if r.Score > globalScore {
		t.Fatalf("semi-global score %d should not exceed the forced-global score %d: "+
			"semi-global alignment may skip flanking text for free", r.Score, globalScore)
	}
	if r.Score != 0 {
		t.Fatalf("semi-global score = %d, want 0: query embeds as an exact substring of text", r.Score)
	}
}

func TestAlignErrors(t *testing.T) {
	algn := New(DefaultPenalties, DefaultOptions)
	defer RecycleAligner(algn)

	if _, err := algn.Align([]byte(""), []byte("A")); err != ErrZeroLength {
		t.Fatalf("expected ErrZeroLength, got %v", err)
	}
	if _, err := algn.Align([]byte("AA"), []byte("A")); err != ErrQueryTooLong {
		t.Fatalf("expected ErrQueryTooLong, got %v", err)
	}
}

// recomputeScore mirrors the self-consistency check run by the differential
// validator: walk the aligned column pattern and re-derive the score from
// the gap-affine rules, tracking which layer the previous column belonged to
// so that a gap's open penalty is only charged once.
func recomputeScore(queryAligned, textAligned string, p Penalties) uint32 {
	var score uint32
	layer := layerMatches
	for i := 0; i < len(queryAligned); i++ {
		c1, c2 := queryAligned[i], textAligned[i]
		switch {
		case c1 == '-':
			if layer != layerDeletes {
				score += p.GapOpen
			}
			score += p.GapExt
			layer = layerDeletes
		case c2 == '-':
			if layer != layerInserts {
				score += p.GapOpen
			}
			score += p.GapExt
			layer = layerInserts
		default:
			layer = layerMatches
			if c1 != c2 {
				score += p.Mismatch
			}
		}
	}
	return score
}

type alignmentLayer int

const (
	layerMatches alignmentLayer = iota
	layerInserts
	layerDeletes
)
