package port

import (
	"context"
	"math/big"
)

// OnChainPrice is the value currently stored by an oracle adapter contract.
type OnChainPrice struct {
	Price     *big.Int
	Timestamp int64
}

// OracleClient talks to the per-source oracle adapter contracts.
type OracleClient interface {
	GetPrice(ctx context.Context, adapter, assetID string) (OnChainPrice, error)
	// UpdatePrice submits updatePrice and returns the transaction hash.
	UpdatePrice(ctx context.Context, adapter, assetID string, price *big.Int, timestamp int64) (string, error)
	// WaitMined blocks until the transaction is mined or ctx is done.
	WaitMined(ctx context.Context, txHash string) error
}
