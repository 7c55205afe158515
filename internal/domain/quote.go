package domain

import (
	"math/big"
	"time"
)

// PriceQuote is one source's normalized observation of one instrument.
// Price is fixed-point with Decimals (always PriceDecimals) fractional digits.
type PriceQuote struct {
	InstrumentID string
	Source       Source
	Price        *big.Int
	ObservedAt   int64
	Decimals     uint8
}

func NewQuote(instrumentID string, src Source, price *big.Int, observedAt int64) PriceQuote {
	return PriceQuote{
		InstrumentID: instrumentID,
		Source:       src,
		Price:        price,
		ObservedAt:   observedAt,
		Decimals:     PriceDecimals,
	}
}

// Valid reports whether the quote carries a positive price and an observation time.
func (q PriceQuote) Valid() bool {
	return q.Price != nil && q.Price.Sign() > 0 && q.ObservedAt > 0
}

// Age is the time elapsed since the provider observed the price.
func (q PriceQuote) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(q.ObservedAt, 0))
}
