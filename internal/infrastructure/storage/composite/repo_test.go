package composite

import (
	"context"
	"errors"
	"testing"

	"feedrelay/internal/domain"

	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	saves, relays int
	err           error
}

func (c *countingRepo) SaveQuotes(context.Context, []domain.PriceQuote) error {
	c.saves++
	return c.err
}

func (c *countingRepo) RecordRelay(context.Context, domain.RelayRecord) error {
	c.relays++
	return c.err
}

func (c *countingRepo) Close() error { return nil }

func TestRepoWritesEveryBackendAndReturnsFirstError(t *testing.T) {
	failing := &countingRepo{err: errors.New("disk full")}
	ok := &countingRepo{}
	r := New(failing, nil, ok)
	require.Equal(t, 2, r.Len())

	err := r.SaveQuotes(context.Background(), nil)
	require.EqualError(t, err, "disk full")
	require.Equal(t, 1, ok.saves)

	require.Error(t, r.RecordRelay(context.Background(), domain.RelayRecord{}))
	require.Equal(t, 1, ok.relays)
}
