package service

import (
	"math/big"
	"math/rand/v2"
	"testing"
	"time"

	"feedrelay/internal/domain"
)

func ints(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name string
		in   []*big.Int
		want int64
	}{
		{"empty", nil, 0},
		{"single", ints(1000), 1000},
		{"odd", ints(9, 1, 5), 5},
		{"even", ints(2010, 2000), 2005},
		{"even truncates", ints(1, 2), 1},
	}
	for _, c := range cases {
		got := Median(c.in)
		if got.Cmp(big.NewInt(c.want)) != 0 {
			t.Fatalf("%s: Median = %s, want %d", c.name, got, c.want)
		}
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	in := ints(9, 1, 5)
	Median(in)
	if in[0].Int64() != 9 || in[1].Int64() != 1 || in[2].Int64() != 5 {
		t.Fatalf("input was reordered: %v", in)
	}
}

func TestClassifyBoundary(t *testing.T) {
	now := time.Unix(10_000, 0)
	q := domain.NewQuote("id", domain.SourcePyth, big.NewInt(1), 10_000-7200)

	if got := Classify(q, now, 2*time.Hour); got != domain.QuoteOK {
		t.Fatalf("exactly at threshold: got %s, want ok", got)
	}
	q.ObservedAt--
	if got := Classify(q, now, 2*time.Hour); got != domain.QuoteStale {
		t.Fatalf("past threshold: got %s, want stale", got)
	}
}

func TestMedianWithinRangeAndOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 200; round++ {
		n := 1 + rng.IntN(9)
		in := make([]*big.Int, n)
		lo, hi := int64(-1), int64(-1)
		for i := range in {
			v := 1 + rng.Int64N(1_000_000_000_000)
			in[i] = big.NewInt(v)
			if lo < 0 || v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}

		got := Median(in)
		if got.Int64() < lo || got.Int64() > hi {
			t.Fatalf("round %d: Median %s outside [%d, %d]", round, got, lo, hi)
		}

		rng.Shuffle(n, func(i, j int) { in[i], in[j] = in[j], in[i] })
		if again := Median(in); again.Cmp(got) != 0 {
			t.Fatalf("round %d: shuffled Median %s, want %s", round, again, got)
		}
	}
}
