package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Observer receives one call per RPC round trip.
type Observer interface {
	ObserveRPC(network, method string, elapsed time.Duration, err error)
}

// Options configure a Client. Zero values fall back to sensible defaults.
type Options struct {
	Network   string             // label used in logs and metrics
	Endpoint  string             // rate limiter key, usually the RPC URL
	GasMargin float64            // multiplier on estimated gas, >= 1
	Limiter   *chain.RateLimiter // shared limiter, nil disables limiting
	Retry     *chain.RetryConfig // retry policy for reads, nil for the default
	Nonces    *NonceManager      // shared nonce tracker, nil for a private one
	Observer  Observer
	Logger    *zap.Logger
}

// Client wraps a Backend with chain ID caching, rate limiting, retries for
// reads, nonce tracking and error mapping.
type Client struct {
	backend Backend
	opts    Options
	nonces  *NonceManager
	log     *zap.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient creates a Client over backend.
func NewClient(backend Backend, opts Options) *Client {
	if opts.GasMargin < 1 {
		opts.GasMargin = 1.2
	}
	nonces := opts.Nonces
	if nonces == nil {
		nonces = NewNonceManager()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		backend: backend,
		opts:    opts,
		nonces:  nonces,
		log:     log.With(zap.String("network", opts.Network)),
	}
}

// Network returns the label the client was created with.
func (c *Client) Network() string {
	return c.opts.Network
}

// ChainID returns the chain ID, querying the node once.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	id, err := callRead(ctx, c, "eth_chainId", c.backend.ChainID)
	if err != nil {
		return nil, droperr.WithCause(droperr.ErrNetworkError, fmt.Errorf("getting chain id: %w", err))
	}

	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return new(big.Int).Set(id), nil
}

// Call executes a read-only contract call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	out, err := callRead(ctx, c, "eth_call", func(ctx context.Context) ([]byte, error) {
		return c.backend.CallContract(ctx, msg, nil)
	})
	if err != nil {
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrContractRead, map[string]string{
			"contract": to.Hex(),
		}), err)
	}
	return out, nil
}

// NativeBalance returns the native token balance in wei.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := callRead(ctx, c, "eth_getBalance", func(ctx context.Context) (*big.Int, error) {
		return c.backend.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		return nil, droperr.WithCause(droperr.ErrNetworkError, fmt.Errorf("getting balance: %w", err))
	}
	return bal, nil
}

// Close releases the backend.
func (c *Client) Close() {
	c.backend.Close()
}

// callRead runs a read through the limiter, retry policy and observer.
func callRead[T any](ctx context.Context, c *Client, method string, fn func(context.Context) (T, error)) (T, error) {
	cfg := chain.DefaultRetryConfig()
	if c.opts.Retry != nil {
		cfg = *c.opts.Retry
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Debug("retrying rpc call",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	return chain.RetryWithConfig(ctx, cfg, func() (T, error) {
		return observe(ctx, c, method, fn)
	})
}

// observe performs exactly one round trip and classifies its error.
func observe[T any](ctx context.Context, c *Client, method string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx, c.opts.Endpoint); err != nil {
			return zero, err
		}
	}

	start := time.Now()
	v, err := fn(ctx)
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveRPC(c.opts.Network, method, time.Since(start), err)
	}
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return zero, err
		}
		return zero, classifyRPCError(err)
	}
	return v, nil
}
