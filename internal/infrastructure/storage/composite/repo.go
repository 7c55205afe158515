package composite

import (
	"context"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"
)

// Repo fans history writes out to every configured repository.
type Repo struct {
	repos []port.QuoteRepository
}

func New(repos ...port.QuoteRepository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.QuoteRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) SaveQuotes(ctx context.Context, quotes []domain.PriceQuote) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.SaveQuotes(ctx, quotes); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) RecordRelay(ctx context.Context, rec domain.RelayRecord) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.RecordRelay(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close is a no-op; each repository is closed by its owner.
func (r *Repo) Close() error { return nil }

// Publisher fans views out to every configured publisher.
type Publisher struct {
	pubs []port.ViewPublisher
}

func NewPublisher(pubs ...port.ViewPublisher) *Publisher {
	out := make([]port.ViewPublisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Publisher{pubs: out}
}

func (p *Publisher) Len() int { return len(p.pubs) }

func (p *Publisher) PublishViews(ctx context.Context, views []domain.LivePriceView) error {
	var firstErr error
	for _, pub := range p.pubs {
		if err := pub.PublishViews(ctx, views); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Publisher) Close() error { return nil }

var (
	_ port.QuoteRepository = (*Repo)(nil)
	_ port.ViewPublisher   = (*Publisher)(nil)
)
