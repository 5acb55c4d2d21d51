// Package evm talks to EVM chains through go-ethereum: contract reads,
// signed transactions, deployments and receipt polling.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Backend is the subset of *ethclient.Client the client needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

var _ Backend = (*ethclient.Client)(nil)

// ErrNoRPC is returned by Dial when no endpoint was supplied.
var ErrNoRPC = errors.New("no rpc endpoint configured")

// DialOptions controls endpoint selection.
type DialOptions struct {
	// ExpectedChainID, when non-zero, rejects endpoints serving another chain.
	ExpectedChainID int64
	// Timeout bounds the connect and chain ID check for each endpoint.
	Timeout time.Duration
}

// Dial connects to the first healthy endpoint among urls, in order. An
// endpoint is healthy when it answers eth_chainId (and matches
// ExpectedChainID when set). It returns the backend and the URL used.
func Dial(ctx context.Context, urls []string, opts DialOptions) (Backend, string, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	var lastErr error
	for _, url := range urls {
		if url == "" {
			continue
		}

		b, err := dialOne(ctx, url, opts)
		if err == nil {
			return b, url, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		return nil, "", ErrNoRPC
	}
	return nil, "", droperr.WithCause(droperr.ErrNetworkError, fmt.Errorf("all rpc endpoints failed: %w", lastErr))
}

func dialOne(ctx context.Context, url string, opts DialOptions) (Backend, error) {
	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	id, err := client.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("probing %s: %w", url, err)
	}

	if opts.ExpectedChainID != 0 && id.Int64() != opts.ExpectedChainID {
		client.Close()
		return nil, droperr.WithDetails(droperr.ErrInvalidChainID, map[string]string{
			"rpc":      url,
			"expected": fmt.Sprint(opts.ExpectedChainID),
			"actual":   id.String(),
		})
	}

	return client, nil
}
