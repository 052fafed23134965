// Package validate implements the differential fuzzing harness: it
// generates random mutated (text, query) pairs, runs both the wavefront
// aligner and the reference DP aligner over them, and cross-checks scores,
// success/failure agreement, and score-from-alignment self-consistency.
package validate

import (
	"math/rand"

	wfa "github.com/wfalign/gapfront"
)

// mutationKind mirrors the three mutation operators used to derive a query
// from a randomly generated text.
type mutationKind int

const (
	insertion mutationKind = iota
	deletion
	substitution
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomString draws a string of length in [minLength, maxLength) uniformly
// over the alphanumeric alphabet.
func randomString(rng *rand.Rand, minLength, maxLength int) string {
	length := minLength
	if maxLength > minLength {
		length = minLength + rng.Intn(maxLength-minLength)
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rng.Intn(len(alphanumeric))]
	}
	return string(b)
}

func randomChar(rng *rand.Rand) byte {
	return alphanumeric[rng.Intn(len(alphanumeric))]
}

func randomCharExcept(rng *rand.Rand, c byte) byte {
	for {
		nc := randomChar(rng)
		if nc != c {
			return nc
		}
	}
}

// mutate applies a per-character error rate in [minErrorPct, maxErrorPct)%
// to text, picking insertion/deletion/substitution uniformly at each of the
// resulting error positions.
func mutate(rng *rand.Rand, text string, minErrorPct, maxErrorPct int) string {
	mutated := []byte(text)
	errorRate := minErrorPct
	if maxErrorPct > minErrorPct {
		errorRate = minErrorPct + rng.Intn(maxErrorPct-minErrorPct)
	}
	count := errorRate * len(mutated) / 100

	for i := 0; i < count; i++ {
		if len(mutated) == 0 {
			break
		}
		pos := rng.Intn(len(mutated))
		switch mutationKind(rng.Intn(3)) {
		case insertion:
			c := randomChar(rng)
			mutated = append(mutated[:pos], append([]byte{c}, mutated[pos:]...)...)
		case deletion:
			mutated = append(mutated[:pos], mutated[pos+1:]...)
		case substitution:
			mutated[pos] = randomCharExcept(rng, mutated[pos])
		}
	}
	return string(mutated)
}

// randomPenalties draws each penalty component uniformly from [1, 100).
func randomPenalties(rng *rand.Rand) wfa.Penalties {
	return wfa.Penalties{
		Mismatch: uint32(1 + rng.Intn(99)),
		GapOpen:  uint32(1 + rng.Intn(99)),
		GapExt:   uint32(1 + rng.Intn(99)),
	}
}

// Config bounds the random case generator.
type Config struct {
	MinLength int
	MaxLength int
	MinError  int // percent
	MaxError  int // percent
}

// generateCase produces one random (query, text, penalties) triple. query
// and text are swapped if the mutation made the query longer, since the
// wavefront aligner requires |query| <= |text|.
func generateCase(rng *rand.Rand, cfg Config) (query, text string, p wfa.Penalties) {
	text = randomString(rng, cfg.MinLength, cfg.MaxLength)
	query = mutate(rng, text, cfg.MinError, cfg.MaxError)
	if len(query) > len(text) {
		query, text = text, query
	}
	p = randomPenalties(rng)
	return
}
