package port

import (
	"context"

	"feedrelay/internal/domain"
)

// QuoteRepository stores quote history and the relay transaction log.
// Nothing reads it back into the live cache.
type QuoteRepository interface {
	SaveQuotes(ctx context.Context, quotes []domain.PriceQuote) error
	RecordRelay(ctx context.Context, rec domain.RelayRecord) error

	// Connection management
	Close() error
}
