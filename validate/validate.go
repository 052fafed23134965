package validate

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/wfalign/gapfront/refalign"
	wfa "github.com/wfalign/gapfront"
)

// FailureKind classifies why a cycle failed.
type FailureKind int

const (
	// ScoreMismatch: both aligners succeeded but reported different scores.
	ScoreMismatch FailureKind = iota
	// ResultMismatch: one aligner succeeded and the other failed.
	ResultMismatch
	// RecomputationMismatch: an aligner's reported score does not match the
	// score recomputed from its own column pattern.
	RecomputationMismatch
)

func (k FailureKind) String() string {
	switch k {
	case ScoreMismatch:
		return "score mismatch"
	case ResultMismatch:
		return "result mismatch"
	case RecomputationMismatch:
		return "recomputation mismatch"
	default:
		return "unknown"
	}
}

// Failure carries full context for a failed validation cycle.
type Failure struct {
	Kind  FailureKind
	Query string
	Text  string
	Pens  wfa.Penalties

	WFAScore, RefScore             uint32
	WFAQueryAligned, WFATextAligned string
	RefQueryAligned, RefTextAligned string

	WFAErr, RefErr error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case ScoreMismatch:
		return fmt.Sprintf(
			"%s: aligning %q against %q with %+v: wavefront scored %d (%q/%q), reference scored %d (%q/%q)",
			f.Kind, f.Query, f.Text, f.Pens, f.WFAScore, f.WFAQueryAligned, f.WFATextAligned,
			f.RefScore, f.RefQueryAligned, f.RefTextAligned)
	case ResultMismatch:
		return fmt.Sprintf("%s: aligning %q against %q with %+v: wavefront err=%v, reference err=%v",
			f.Kind, f.Query, f.Text, f.Pens, f.WFAErr, f.RefErr)
	case RecomputationMismatch:
		return fmt.Sprintf("%s: aligning %q against %q with %+v: reported score %d does not match recomputed score",
			f.Kind, f.Query, f.Text, f.Pens, f.WFAScore)
	default:
		return "validation failure"
	}
}

// recomputeScore walks an alignment's column pattern and re-derives its
// score from the gap-affine rules, tracking the previous column's layer so
// a gap's open penalty is charged exactly once per run.
func recomputeScore(queryAligned, textAligned string, p wfa.Penalties) uint32 {
	var score uint32
	const ( // local to this function, mirrors wfa.AlignmentLayer
		layerMatches = iota
		layerInserts
		layerDeletes
	)
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

// RunCycle executes one differential validation cycle: generate a random
// case, run both aligners, and cross-check. It returns nil on success.
func RunCycle(rng *rand.Rand, cfg Config) *Failure {
	query, text, pens := generateCase(rng, cfg)
	return compare(query, text, pens)
}

func compare(query, text string, pens wfa.Penalties) *Failure {
	algn := wfa.New(&pens, wfa.DefaultOptions)
	defer wfa.RecycleAligner(algn)

	qb, tb := []byte(query), []byte(text)
	wfaResult, wfaErr := algn.Align(qb, tb)
	refResult, refErr := refalign.Align(qb, tb, pens)

	if wfaErr != nil || refErr != nil {
		if (wfaErr == nil) != (refErr == nil) {
			return &Failure{
				Kind: ResultMismatch, Query: query, Text: text, Pens: pens,
				WFAErr: wfaErr, RefErr: refErr,
			}
		}
		return nil // both failed: agreement on infeasibility.
	}
	defer wfa.RecycleAlignmentResult(wfaResult)

	wfaQueryAligned, wfaTextAligned := wfaResult.AlignedStrings(&qb, &tb)

	if wfaResult.Score != refResult.Score {
		return &Failure{
			Kind: ScoreMismatch, Query: query, Text: text, Pens: pens,
			WFAScore: wfaResult.Score, RefScore: refResult.Score,
			WFAQueryAligned: wfaQueryAligned, WFATextAligned: wfaTextAligned,
			RefQueryAligned: refResult.QueryAligned, RefTextAligned: refResult.TextAligned,
		}
	}

	if recomputeScore(wfaQueryAligned, wfaTextAligned, pens) != wfaResult.Score {
		return &Failure{
			Kind: RecomputationMismatch, Query: query, Text: text, Pens: pens,
			WFAScore: wfaResult.Score,
			WFAQueryAligned: wfaQueryAligned, WFATextAligned: wfaTextAligned,
		}
	}
	if recomputeScore(refResult.QueryAligned, refResult.TextAligned, pens) != refResult.Score {
		return &Failure{
			Kind: RecomputationMismatch, Query: query, Text: text, Pens: pens,
			WFAScore: refResult.Score,
			RefQueryAligned: refResult.QueryAligned, RefTextAligned: refResult.TextAligned,
		}
	}

	return nil
}

// cycleResult is what a worker posts onto the shared results channel.
type cycleResult struct {
	failure *Failure
}

// OnCycle is invoked after every validation cycle with its 1-based index
// and outcome (nil on success), so a caller can print spec.md §6's "one
// success/failure line per cycle" as the run progresses rather than only
// learning the aggregate result at the end.
type OnCycle func(n int, f *Failure)

// Run executes cycles sequentially until count have passed or one fails.
func Run(cfg Config, count int, onCycle OnCycle) (passed int, failure *Failure) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for passed = 0; passed < count; passed++ {
		f := RunCycle(rng, cfg)
		if onCycle != nil {
			onCycle(passed+1, f)
		}
		if f != nil {
			return passed, f
		}
	}
	return passed, nil
}

// RunParallel fans independent validation cycles out over a worker pool,
// each worker owning its own random source, and fans results back in on a
// single channel consumed by this goroutine. The first failure stops the
// count. A worker stops after posting a failure, or once this function
// returns and closes done, which unblocks any send still pending. Ordering across workers is
// unspecified (spec.md §5), so onCycle's index counts completed cycles in
// the order this goroutine drains them, not generation order.
func RunParallel(cfg Config, workers, count int, onCycle OnCycle) (passed int, failure *Failure) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make(chan cycleResult, workers)
	done := make(chan struct{})
	defer close(done)

	for w := 0; w < workers; w++ {
		seed := time.Now().UnixNano() + int64(w)
		go func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			for {
				f := RunCycle(rng, cfg)
				select {
				case results <- cycleResult{failure: f}:
				case <-done:
					return
				}
				if f != nil {
					return
				}
			}
		}(seed)
	}

	for passed = 0; passed < count; passed++ {
		r := <-results
		if onCycle != nil {
			onCycle(passed+1, r.failure)
		}
		if r.failure != nil {
			return passed, r.failure
		}
	}
	return passed, nil
}
