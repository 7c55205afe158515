package port

import (
	"context"

	"feedrelay/internal/domain"
)

// SourceAdapter fetches current quotes for a subset of instruments from one provider.
//
// Per-instrument failures are logged and dropped. An error is returned only
// when the whole provider call failed.
type SourceAdapter interface {
	Source() domain.Source
	Fetch(ctx context.Context, instruments []domain.Instrument) ([]domain.PriceQuote, error)
}
