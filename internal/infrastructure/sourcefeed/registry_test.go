package sourcefeed

import (
	"context"
	"testing"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	src  domain.Source
	base string
}

func (s stubAdapter) Source() domain.Source { return s.src }

func (s stubAdapter) Fetch(context.Context, []domain.Instrument) ([]domain.PriceQuote, error) {
	return nil, nil
}

func TestBuildUsesRegisteredFactoriesInOrder(t *testing.T) {
	saved := registry
	registry = make(map[domain.Source]Factory)
	defer func() { registry = saved }()

	for _, src := range []domain.Source{domain.SourceMetals, domain.SourcePyth} {
		Register(src, func(s Settings) port.SourceAdapter { return stubAdapter{src: src, base: s.BaseURL} })
	}
	Register(domain.SourceDIA, nil)

	adapters := Build(map[domain.Source]Settings{
		domain.SourceMetals: {BaseURL: "http://metals"},
		domain.SourcePyth:   {BaseURL: "http://pyth"},
		domain.SourceDIA:    {BaseURL: "http://dia"}, // no factory
	})
	require.Len(t, adapters, 2)
	require.Equal(t, domain.SourcePyth, adapters[0].Source())
	require.Equal(t, "http://pyth", adapters[0].(stubAdapter).base)
	require.Equal(t, domain.SourceMetals, adapters[1].Source())

	_, ok := Get(domain.SourceDIA)
	require.False(t, ok)
}
