package validate

import (
	"flag"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	wfa "github.com/wfalign/gapfront"
)

// cycles controls how many iterations TestValidatorProperty runs, so a CI
// job or a local run chasing a rare failure can dial it up past the default
// without touching the source.
var cycles = flag.Int("gapfront.cycles", 10000, "cycle count for TestValidatorProperty")

func TestRunCycleProperty(t *testing.T) {
	cfg := Config{MinLength: 1, MaxLength: 80, MinError: 0, MaxError: 60}
	rng := rand.New(rand.NewSource(1))

	const cycles = 200
	for i := 0; i < cycles; i++ {
		if f := RunCycle(rng, cfg); f != nil {
			require.Failf(t, "validation cycle failed", "%v", f)
		}
	}
}

// TestValidatorProperty exercises the full boundary range: zero-length
// sequences through the configured maximum, and error rates from 0 up to
// 100%, so the differential validator actually visits the edges spec.md §8
// requires rather than only its interior.
func TestValidatorProperty(t *testing.T) {
	cfg := Config{MinLength: 0, MaxLength: 200, MinError: 0, MaxError: 100}

	passed, failure := Run(cfg, *cycles, nil)
	require.Nilf(t, failure, "after %d/%d cycles", passed, *cycles)
	require.Equal(t, *cycles, passed)
}

func TestRunSequentialAndParallelAgreeOnNoFailures(t *testing.T) {
	cfg := Config{MinLength: 1, MaxLength: 40, MinError: 0, MaxError: 40}

	passed, failure := Run(cfg, 100, nil)
	require.Nil(t, failure)
	require.Equal(t, 100, passed)

	passed, failure = RunParallel(cfg, 4, 100, nil)
	require.Nil(t, failure)
	require.Equal(t, 100, passed)
}

func TestRecomputeScoreMatchesWalkedColumns(t *testing.T) {
	p := wfa.Penalties{Mismatch: 1, GapOpen: 1, GapExt: 1}
	require.Equal(t, uint32(0), recomputeScore("CAT", "CAT", p))
	require.Equal(t, uint32(2), recomputeScore("CAT-", "CATS", p))
}
