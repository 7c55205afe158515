package service

import (
	"math/big"
	"sort"
	"time"

	"feedrelay/internal/domain"
)

// Median returns the integer median of values (0 when empty).
// An even count averages the two middle values with truncating division.
func Median(values []*big.Int) *big.Int {
	if len(values) == 0 {
		return new(big.Int)
	}
	sorted := make([]*big.Int, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j]) < 0 })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return new(big.Int).Set(sorted[mid])
	}
	sum := new(big.Int).Add(sorted[mid-1], sorted[mid])
	return sum.Quo(sum, big.NewInt(2))
}

// Classify marks a quote stale when it is older than threshold at now.
// A quote exactly threshold old is still ok.
func Classify(q domain.PriceQuote, now time.Time, threshold time.Duration) domain.QuoteStatus {
	if q.Age(now) > threshold {
		return domain.QuoteStale
	}
	return domain.QuoteOK
}
