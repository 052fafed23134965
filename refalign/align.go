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

// Package refalign implements a standard three-matrix gap-affine dynamic
// program. It is the independent, quadratic-time oracle that the wfa
// package's wavefront aligner is cross-validated against: same scoring
// contract, same column semantics, none of the diagonal bookkeeping.
package refalign

import (
	"fmt"
	"math"

	wfa "github.com/wfalign/gapfront"
)

// ErrZeroLength means the query or text sequence is empty.
var ErrZeroLength error = fmt.Errorf("refalign: query and text must both be non-empty")

// layer tags a DP cell with the matrix it was reached from, for traceback.
type layer uint8

const (
	none layer = iota
	fromMatches
	fromInserts
	fromDeletes
)

const infinity = math.MaxInt32

// cell packs a score and its predecessor layer.
type cell struct {
	score int32
	from  layer
}

// Result mirrors wfa.AlignmentResult's externally visible shape: a score
// plus the two gap-padded aligned strings.
type Result struct {
	Score        uint32
	QueryAligned string
	TextAligned  string
}

// matrix is a flat (len(q)+1) x (len(t)+1) grid addressed by row*stride+col,
// following the stride-indexed layout of a classic affine-gap DP matrix.
type matrix struct {
	stride int
	cells  []cell
}

func newMatrix(rows, cols int) matrix {
	return matrix{stride: cols, cells: make([]cell, rows*cols)}
}

func (m matrix) at(i, j int) cell {
	if i < 0 || j < 0 {
		return cell{score: infinity, from: none}
	}
	return m.cells[i*m.stride+j]
}

func (m matrix) set(i, j int, c cell) {
	m.cells[i*m.stride+j] = c
}

// Align computes the optimal gap-affine alignment of query against text
// using the standard M/Inserts/Deletes recurrences. Inserts carries a gap in
// the text (the query has an extra character); Deletes carries a gap in the
// query (the text has an extra character). Either input order is accepted;
// callers wanting to match wfa's |query| <= |text| precondition should swap
// beforehand, but this aligner does not require it.
func Align(query, text []byte, p wfa.Penalties) (*Result, error) {
	n, m := len(query), len(text)
	if n == 0 || m == 0 {
		return nil, ErrZeroLength
	}

	open, ext, mis := int32(p.GapOpen), int32(p.GapExt), int32(p.Mismatch)

	M := newMatrix(n+1, m+1)
	I := newMatrix(n+1, m+1) // gap in text: consumes a query char
	D := newMatrix(n+1, m+1) // gap in query: consumes a text char

	M.set(0, 0, cell{score: 0, from: none})
	I.set(0, 0, cell{score: infinity})
	D.set(0, 0, cell{score: infinity})

	for i := 1; i <= n; i++ {
		gapScore := open + int32(i)*ext
		from := fromMatches
		if i > 1 {
			from = fromInserts
		}
		I.set(i, 0, cell{score: gapScore, from: from})
		M.set(i, 0, cell{score: gapScore, from: fromInserts})
		D.set(i, 0, cell{score: infinity})
	}
	for j := 1; j <= m; j++ {
		gapScore := open + int32(j)*ext
		from := fromMatches
		if j > 1 {
			from = fromDeletes
		}
		D.set(0, j, cell{score: gapScore, from: from})
		M.set(0, j, cell{score: gapScore, from: fromDeletes})
		I.set(0, j, cell{score: infinity})
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			// Inserts[i][j]: open from Matches[i-1][j], or extend from Inserts[i-1][j].
			openCand := M.at(i-1, j).score
			if openCand < infinity {
				openCand += open + ext
			}
			extCand := I.at(i-1, j).score
			if extCand < infinity {
				extCand += ext
			}
			var ic cell
			if openCand <= extCand { // ties favor opening a new gap
				ic = cell{score: openCand, from: fromMatches}
			} else {
				ic = cell{score: extCand, from: fromInserts}
			}
			I.set(i, j, ic)

			// Deletes[i][j]: open from Matches[i][j-1], or extend from Deletes[i][j-1].
			openCand = M.at(i, j-1).score
			if openCand < infinity {
				openCand += open + ext
			}
			extCand = D.at(i, j-1).score
			if extCand < infinity {
				extCand += ext
			}
			var dc cell
			if openCand <= extCand {
				dc = cell{score: openCand, from: fromMatches}
			} else {
				dc = cell{score: extCand, from: fromDeletes}
			}
			D.set(i, j, dc)

			// Matches[i][j]: diagonal step, mismatch-penalized unless equal chars.
			diag := M.at(i-1, j-1).score
			if diag < infinity {
				if query[i-1] != text[j-1] {
					diag += mis
				}
			}

			best := diag
			from := fromMatches
			// tie-break Matches > Deletes > Inserts, matching the wavefront engine.
			if dc.score < best {
				best = dc.score
				from = fromDeletes
			}
			if ic.score < best {
				best = ic.score
				from = fromInserts
			}
			M.set(i, j, cell{score: best, from: from})
		}
	}

	return traceback(query, text, M, I, D, n, m)
}

func traceback(query, text []byte, M, I, D matrix, n, m int) (*Result, error) {
	qa := make([]byte, 0, n+m)
	ta := make([]byte, 0, n+m)

	i, j := n, m
	cur := layer(fromMatches)
	for i > 0 || j > 0 {
		var c cell
		switch cur {
		case fromMatches:
			c = M.at(i, j)
		case fromInserts:
			c = I.at(i, j)
		case fromDeletes:
			c = D.at(i, j)
		}

		switch cur {
		case fromInserts:
			qa = append(qa, query[i-1])
			ta = append(ta, '-')
			i--
		case fromDeletes:
			qa = append(qa, '-')
			ta = append(ta, text[j-1])
			j--
		default: // fromMatches: a diagonal step, match or mismatch
			if c.from == fromInserts || c.from == fromDeletes {
				// this Matches cell took its score from the gap layer at the
				// same (i, j): hop into it without emitting a column.
				cur = c.from
				continue
			}
			if i == 0 || j == 0 {
				panic("refalign: invariant violation: traceback ran off the matrix in Matches")
			}
			qa = append(qa, query[i-1])
			ta = append(ta, text[j-1])
			i--
			j--
		}

		if i == 0 && j == 0 {
			break
		}
		cur = c.from
		if cur == none {
			panic("refalign: invariant violation: absent predecessor during traceback")
		}
	}

	// reverse, since columns were appended back-to-front.
	for l, r := 0, len(qa)-1; l < r; l, r = l+1, r-1 {
		qa[l], qa[r] = qa[r], qa[l]
		ta[l], ta[r] = ta[r], ta[l]
	}

	return &Result{
		Score:        uint32(M.at(n, m).score),
		QueryAligned: string(qa),
		TextAligned:  string(ta),
	}, nil
}
