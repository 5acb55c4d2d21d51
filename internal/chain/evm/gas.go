package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// FeeParams are the pricing fields of a transaction. GasPrice is set for
// legacy chains; TipCap and FeeCap for EIP-1559 chains.
type FeeParams struct {
	GasPrice *big.Int
	TipCap   *big.Int
	FeeCap   *big.Int
}

// Dynamic reports whether the params describe an EIP-1559 transaction.
func (f FeeParams) Dynamic() bool {
	return f.FeeCap != nil
}

// MaxPrice is the highest per-gas price the transaction may pay.
func (f FeeParams) MaxPrice() *big.Int {
	if f.Dynamic() {
		return f.FeeCap
	}
	return f.GasPrice
}

// SuggestFees prices a transaction for the connected chain. Chains whose
// latest header carries a base fee get EIP-1559 fees with a cap of
// 2*baseFee+tip; others fall back to the legacy gas price.
func (c *Client) SuggestFees(ctx context.Context) (FeeParams, error) {
	head, err := callRead(ctx, c, "eth_getBlockByNumber", func(ctx context.Context) (*types.Header, error) {
		return c.backend.HeaderByNumber(ctx, nil)
	})
	if err == nil && head != nil && head.BaseFee != nil {
		tip, tipErr := callRead(ctx, c, "eth_maxPriorityFeePerGas", c.backend.SuggestGasTipCap)
		if tipErr == nil {
			feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
			feeCap.Add(feeCap, tip)
			return FeeParams{TipCap: tip, FeeCap: feeCap}, nil
		}
	}

	price, err := callRead(ctx, c, "eth_gasPrice", c.backend.SuggestGasPrice)
	if err != nil {
		return FeeParams{}, droperr.WithCause(droperr.ErrNetworkError, fmt.Errorf("suggesting gas price: %w", err))
	}
	return FeeParams{GasPrice: price}, nil
}

// FormatGasPrice formats a wei price as Gwei with two decimals.
func FormatGasPrice(weiPrice *big.Int) string {
	if weiPrice == nil {
		return "0 Gwei"
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(weiPrice), big.NewFloat(1e9))
	return fmt.Sprintf("%.2f Gwei", gwei)
}

// applyMargin scales an estimated gas limit by margin, rounding up.
func applyMargin(gas uint64, margin float64) uint64 {
	if margin <= 1 {
		return gas
	}
	f := new(big.Float).Mul(new(big.Float).SetUint64(gas), big.NewFloat(margin))
	scaled, acc := f.Uint64()
	if acc == big.Below {
		scaled++
	}
	return scaled
}
