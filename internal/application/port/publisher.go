package port

import (
	"context"

	"feedrelay/internal/domain"
)

// ViewPublisher mirrors the latest views to an external consumer (redis, kafka).
type ViewPublisher interface {
	PublishViews(ctx context.Context, views []domain.LivePriceView) error
	Close() error
}
