package refalign

import (
	"strings"
	"testing"

	wfa "github.com/wfalign/gapfront"
)

func stripGaps(s string) string {
	return strings.ReplaceAll(s, "-", "")
}

func TestAlignScenarios(t *testing.T) {
	cases := []struct {
		name      string
		q, tg     string
		p         wfa.Penalties
		wantScore uint32
	}{
		{"identical", "CAT", "CAT", wfa.Penalties{Mismatch: 1, GapOpen: 1, GapExt: 1}, 0},
		{"trailing gap", "CAT", "CATS", wfa.Penalties{Mismatch: 1, GapOpen: 1, GapExt: 1}, 2},
		{"prefer mismatch", "XX", "YY", wfa.Penalties{Mismatch: 1, GapOpen: 100, GapExt: 100}, 2},
		{"prefer gaps", "XX", "YY", wfa.Penalties{Mismatch: 100, GapOpen: 1, GapExt: 1}, 6},
		{"mixed", "XXZZ", "XXYZ", wfa.Penalties{Mismatch: 100, GapOpen: 1, GapExt: 1}, 4},
		{"long low penalty", "TCTTTACTCGCGCGTTGGAGAAATACAATAGT", "TCTATACTGCGCGTTTGGAGAAATAAAATAGT", wfa.Penalties{Mismatch: 1, GapOpen: 1, GapExt: 1}, 6},
		{"long high penalty", "TCTTTACTCGCGCGTTGGAGAAATACAATAGT", "TCTATACTGCGCGTTTGGAGAAATAAAATAGT", wfa.Penalties{Mismatch: 135, GapOpen: 82, GapExt: 19}, 472},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := Align([]byte(c.q), []byte(c.tg), c.p)
			if err != nil {
				t.Fatalf("Align: %v", err)
			}
			if r.Score != c.wantScore {
				t.Fatalf("score = %d, want %d (aligned %q / %q)", r.Score, c.wantScore, r.QueryAligned, r.TextAligned)
			}
			if len(r.QueryAligned) != len(r.TextAligned) {
				t.Fatalf("aligned lengths differ: %q vs %q", r.QueryAligned, r.TextAligned)
			}
			if stripGaps(r.QueryAligned) != c.q || stripGaps(r.TextAligned) != c.tg {
				t.Fatalf("stripping gaps did not recover inputs: q=%q t=%q", stripGaps(r.QueryAligned), stripGaps(r.TextAligned))
			}
		})
	}
}

func TestAlignZeroLength(t *testing.T) {
	if _, err := Align(nil, []byte("A"), *wfa.DefaultPenalties); err != ErrZeroLength {
		t.Fatalf("expected ErrZeroLength, got %v", err)
	}
}
