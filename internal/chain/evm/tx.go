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
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// TxRequest describes a state-changing call. A nil To creates a contract.
type TxRequest struct {
	To       *common.Address
	Data     []byte
	Value    *big.Int // wei sent with the call, nil for none
	GasLimit uint64   // 0 to estimate
}

// PendingTx is a broadcast transaction awaiting its receipt.
type PendingTx struct {
	Hash     common.Hash     `json:"hash"`
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Nonce    uint64          `json:"nonce"`
	GasLimit uint64          `json:"gas_limit"`
	Value    *big.Int        `json:"value"`
	Fees     FeeParams       `json:"-"`
	// Contract is the CREATE address for deployments.
	Contract *common.Address `json:"contract,omitempty"`
}

// MaxCost is value plus gas limit times the highest per-gas price.
func (p *PendingTx) MaxCost() *big.Int {
	cost := new(big.Int).Mul(new(big.Int).SetUint64(p.GasLimit), p.Fees.MaxPrice())
	if p.Value != nil {
		cost.Add(cost, p.Value)
	}
	return cost
}

// Transact estimates, prices, signs and broadcasts req from signer.
//
//nolint:gocognit // Transaction building involves multiple sequential steps
func (c *Client) Transact(ctx context.Context, signer *Signer, req TxRequest) (*PendingTx, error) {
	if signer == nil {
		return nil, droperr.ErrKeyRequired
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	from := signer.Address()
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		msg := ethereum.CallMsg{From: from, To: req.To, Value: value, Data: req.Data}
		est, estErr := observe(ctx, c, "eth_estimateGas", func(ctx context.Context) (uint64, error) {
			return c.backend.EstimateGas(ctx, msg)
		})
		if estErr != nil {
			return nil, mapTxError(estErr, "estimate")
		}
		gasLimit = applyMargin(est, c.opts.GasMargin)
	}

	fees, err := c.SuggestFees(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := callRead(ctx, c, "eth_getTransactionCount", func(ctx context.Context) (uint64, error) {
		return c.backend.PendingNonceAt(ctx, from)
	})
	if err != nil {
		return nil, droperr.WithCause(droperr.ErrNetworkError, fmt.Errorf("getting nonce: %w", err))
	}
	nonce := c.nonces.Next(from, pending)

	tx := buildTx(chainID, nonce, req.To, value, gasLimit, fees, req.Data)
	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		c.nonces.Reset(from)
		return nil, err
	}

	if _, err := observe(ctx, c, "eth_sendRawTransaction", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.backend.SendTransaction(ctx, signed)
	}); err != nil {
		c.nonces.Reset(from)
		return nil, mapTxError(err, "broadcast")
	}

	c.log.Info("transaction broadcast",
		zap.String("hash", signed.Hash().Hex()),
		zap.String("from", from.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gasLimit))

	p := &PendingTx{
		Hash:     signed.Hash(),
		From:     from,
		To:       req.To,
		Nonce:    nonce,
		GasLimit: gasLimit,
		Value:    value,
		Fees:     fees,
	}
	if req.To == nil {
		addr := crypto.CreateAddress(from, nonce)
		p.Contract = &addr
	}
	return p, nil
}

func buildTx(chainID *big.Int, nonce uint64, to *common.Address, value *big.Int, gas uint64, fees FeeParams, data []byte) *types.Transaction {
	if fees.Dynamic() {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: fees.TipCap,
			GasFeeCap: fees.FeeCap,
			Gas:       gas,
			To:        to,
			Value:     value,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: fees.GasPrice,
		Gas:      gas,
		To:       to,
		Value:    value,
		Data:     data,
	})
}

// Deploy broadcasts a contract creation with the given init code.
// The returned PendingTx carries the predicted contract address.
func (c *Client) Deploy(ctx context.Context, signer *Signer, initCode []byte) (*PendingTx, error) {
	if len(initCode) == 0 {
		return nil, droperr.WithDetails(droperr.ErrArtifactInvalid, map[string]string{"reason": "empty bytecode"})
	}
	return c.Transact(ctx, signer, TxRequest{Data: initCode})
}

// WaitForReceipt polls for the receipt of hash every interval until it is
// mined or ctx ends. A mined transaction with failed status returns the
// receipt together with ErrTxReverted.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := observe(ctx, c, "eth_getTransactionReceipt", func(ctx context.Context) (*types.Receipt, error) {
			return c.backend.TransactionReceipt(ctx, hash)
		})
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, droperr.WithDetails(droperr.ErrTxReverted, map[string]string{
					"hash":  hash.Hex(),
					"block": receipt.BlockNumber.String(),
				})
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			c.log.Debug("receipt poll failed", zap.String("hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, droperr.WithDetails(droperr.ErrReceiptTimeout, map[string]string{"hash": hash.Hex()})
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
