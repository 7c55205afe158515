package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"feedrelay/internal/application/port"
)

var (
	ErrReverted   = errors.New("transaction reverted")
	ErrBadAddress = errors.New("invalid adapter address")
	ErrBadAssetID = errors.New("invalid asset id")
)

const receiptPollInterval = time.Second

// Client calls the oracle adapter contracts through an Ethereum JSON-RPC endpoint.
type Client struct {
	eth  *ethclient.Client
	abi  abi.ABI
	auth *bind.TransactOpts

	mu sync.Mutex // one pending updatePrice per signer at a time
}

var _ port.OracleClient = (*Client)(nil)

// Dial connects to rpcURL and prepares a transactor for privateKeyHex.
// chainID 0 asks the node.
func Dial(ctx context.Context, rpcURL, privateKeyHex string, chainID int64) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(OracleAdapterABI))
	if err != nil {
		return nil, fmt.Errorf("parse adapter abi: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	id := big.NewInt(chainID)
	if chainID == 0 {
		if id, err = eth.ChainID(ctx); err != nil {
			eth.Close()
			return nil, fmt.Errorf("query chain id: %w", err)
		}
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, id)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	log.Info().
		Str("signer", auth.From.Hex()).
		Str("chain_id", id.String()).
		Msg("✓ Chain client initialized")

	return &Client{eth: eth, abi: parsed, auth: auth}, nil
}

func (c *Client) Close() error {
	c.eth.Close()
	return nil
}

func (c *Client) contract(adapter string) (*bind.BoundContract, error) {
	if !common.IsHexAddress(adapter) {
		return nil, fmt.Errorf("%w: %q", ErrBadAddress, adapter)
	}
	return bind.NewBoundContract(common.HexToAddress(adapter), c.abi, c.eth, c.eth, c.eth), nil
}

// AssetKey converts a 0x-hex instrument id into the bytes32 contract key.
func AssetKey(assetID string) ([32]byte, error) {
	b := common.FromHex(assetID)
	if len(b) != 32 {
		return [32]byte{}, fmt.Errorf("%w: %q", ErrBadAssetID, assetID)
	}
	return [32]byte(b), nil
}

func (c *Client) GetPrice(ctx context.Context, adapter, assetID string) (port.OnChainPrice, error) {
	bc, err := c.contract(adapter)
	if err != nil {
		return port.OnChainPrice{}, err
	}
	key, err := AssetKey(assetID)
	if err != nil {
		return port.OnChainPrice{}, err
	}

	var out []interface{}
	if err := bc.Call(&bind.CallOpts{Context: ctx}, &out, "getPrice", key); err != nil {
		return port.OnChainPrice{}, fmt.Errorf("getPrice: %w", err)
	}
	if len(out) != 2 {
		return port.OnChainPrice{}, fmt.Errorf("getPrice: unexpected %d outputs", len(out))
	}
	price, ok1 := out[0].(*big.Int)
	ts, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return port.OnChainPrice{}, errors.New("getPrice: unexpected output types")
	}
	if !ts.IsInt64() {
		return port.OnChainPrice{}, fmt.Errorf("getPrice: timestamp %s overflows int64", ts)
	}
	return port.OnChainPrice{Price: price, Timestamp: ts.Int64()}, nil
}

func (c *Client) UpdatePrice(ctx context.Context, adapter, assetID string, price *big.Int, timestamp int64) (string, error) {
	bc, err := c.contract(adapter)
	if err != nil {
		return "", err
	}
	key, err := AssetKey(assetID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	opts := *c.auth
	opts.Context = ctx
	tx, err := bc.Transact(&opts, "updatePrice", key, price, big.NewInt(timestamp))
	if err != nil {
		return "", fmt.Errorf("updatePrice: %w", err)
	}
	return tx.Hash().Hex(), nil
}

// WaitMined polls for the receipt until it appears or ctx is done.
func (c *Client) WaitMined(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: %s", ErrReverted, txHash)
			}
			return nil
		case errors.Is(err, ethereum.NotFound):
		default:
			log.Debug().Err(err).Str("tx", txHash).Msg("receipt lookup failed, retrying")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
