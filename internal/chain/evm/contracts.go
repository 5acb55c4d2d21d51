package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// ERC20ABI is the subset of the ERC-20 interface crossdrop calls.
const ERC20ABI = `[
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// AirdropABI is the interface of the Airdrop contract deployed on both chains.
const AirdropABI = `[
{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"gateway_","type":"address"},{"name":"gasReceiver_","type":"address"}]},
{"type":"function","name":"sendToMany","stateMutability":"payable","inputs":[{"name":"destinationChain","type":"string"},{"name":"destinationAddress","type":"string"},{"name":"destinationAddresses","type":"address[]"},{"name":"symbol","type":"string"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"amountReceived","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getRecipients","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]}
]`

//nolint:gochecknoglobals // ABIs are parsed once and shared read-only
var (
	parsedERC20   abi.ABI
	parsedAirdrop abi.ABI
	parseOnce     sync.Once
)

func abis() (erc20, airdrop *abi.ABI) {
	parseOnce.Do(func() {
		var err error
		if parsedERC20, err = abi.JSON(strings.NewReader(ERC20ABI)); err != nil {
			panic(fmt.Sprintf("parsing ERC20 ABI: %v", err))
		}
		if parsedAirdrop, err = abi.JSON(strings.NewReader(AirdropABI)); err != nil {
			panic(fmt.Sprintf("parsing Airdrop ABI: %v", err))
		}
	})
	return &parsedERC20, &parsedAirdrop
}

// ERC20 is a binding to a token contract.
type ERC20 struct {
	client  *Client
	address common.Address
	abi     *abi.ABI
}

// NewERC20 binds the token at address.
func NewERC20(client *Client, address common.Address) *ERC20 {
	erc20, _ := abis()
	return &ERC20{client: client, address: address, abi: erc20}
}

// Address returns the token contract address.
func (t *ERC20) Address() common.Address {
	return t.address
}

// Allowance returns how much spender may pull from owner.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callUint(ctx, t.client, t.abi, t.address, "allowance", owner, spender)
}

// BalanceOf returns the token balance of account in base units.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callUint(ctx, t.client, t.abi, t.address, "balanceOf", account)
}

// Decimals returns the token's decimals.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := callMethod(ctx, t.client, t.abi, t.address, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, unexpectedOutput(t.address, "decimals")
	}
	return d, nil
}

// Symbol returns the token's symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	out, err := callMethod(ctx, t.client, t.abi, t.address, "symbol")
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", unexpectedOutput(t.address, "symbol")
	}
	return s, nil
}

// Approve broadcasts approve(spender, amount).
func (t *ERC20) Approve(ctx context.Context, signer *Signer, spender common.Address, amount *big.Int) (*PendingTx, error) {
	data, err := t.abi.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("packing approve: %w", err)
	}
	to := t.address
	return t.client.Transact(ctx, signer, TxRequest{To: &to, Data: data})
}

// Airdrop is a binding to the Airdrop contract.
type Airdrop struct {
	client  *Client
	address common.Address
	abi     *abi.ABI
}

// NewAirdrop binds the Airdrop contract at address.
func NewAirdrop(client *Client, address common.Address) *Airdrop {
	_, airdrop := abis()
	return &Airdrop{client: client, address: address, abi: airdrop}
}

// Address returns the contract address.
func (a *Airdrop) Address() common.Address {
	return a.address
}

// AmountReceived returns the token amount the destination contract has
// received and distributed, in base units.
func (a *Airdrop) AmountReceived(ctx context.Context) (*big.Int, error) {
	return callUint(ctx, a.client, a.abi, a.address, "amountReceived")
}

// Recipients returns the recipient list recorded by the last airdrop.
func (a *Airdrop) Recipients(ctx context.Context) ([]common.Address, error) {
	out, err := callMethod(ctx, a.client, a.abi, a.address, "getRecipients")
	if err != nil {
		return nil, err
	}
	addrs, ok := out[0].([]common.Address)
	if !ok {
		return nil, unexpectedOutput(a.address, "getRecipients")
	}
	return addrs, nil
}

// SendToMany describes one sendToMany call.
type SendToMany struct {
	DestinationChain    string           // Axelar chain name, e.g. "Avalanche"
	DestinationContract common.Address   // Airdrop contract on the destination
	Recipients          []common.Address // addresses that share the amount
	Symbol              string           // gateway token symbol, e.g. "aUSDC"
	Amount              *big.Int         // total in token base units
	GasFee              *big.Int         // native value paid to the Axelar gas service
}

// Pack returns the calldata for the call.
func (a *Airdrop) Pack(p SendToMany) ([]byte, error) {
	data, err := a.abi.Pack("sendToMany",
		p.DestinationChain,
		p.DestinationContract.Hex(),
		p.Recipients,
		p.Symbol,
		p.Amount,
	)
	if err != nil {
		return nil, fmt.Errorf("packing sendToMany: %w", err)
	}
	return data, nil
}

// SendToMany broadcasts sendToMany with value = p.GasFee.
func (a *Airdrop) SendToMany(ctx context.Context, signer *Signer, p SendToMany) (*PendingTx, error) {
	data, err := a.Pack(p)
	if err != nil {
		return nil, err
	}
	to := a.address
	return a.client.Transact(ctx, signer, TxRequest{To: &to, Data: data, Value: p.GasFee})
}

// DeployData returns the Airdrop init code: bytecode followed by the
// ABI-encoded constructor arguments.
func DeployData(bytecode []byte, gateway, gasService common.Address) ([]byte, error) {
	_, airdrop := abis()
	args, err := airdrop.Pack("", gateway, gasService)
	if err != nil {
		return nil, fmt.Errorf("packing constructor: %w", err)
	}
	return append(append([]byte{}, bytecode...), args...), nil
}

func callMethod(ctx context.Context, c *Client, a *abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	raw, err := c.Call(ctx, to, data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, droperr.WithDetails(droperr.ErrContractRead, map[string]string{
			"contract": to.Hex(),
			"method":   method,
			"reason":   "empty response, is the contract deployed?",
		})
	}

	out, err := a.Unpack(method, raw)
	if err != nil {
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrContractRead, map[string]string{
			"contract": to.Hex(),
			"method":   method,
		}), err)
	}
	if len(out) == 0 {
		return nil, unexpectedOutput(to, method)
	}
	return out, nil
}

func callUint(ctx context.Context, c *Client, a *abi.ABI, to common.Address, method string, args ...any) (*big.Int, error) {
	out, err := callMethod(ctx, c, a, to, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, unexpectedOutput(to, method)
	}
	return v, nil
}

func unexpectedOutput(to common.Address, method string) error {
	return droperr.WithDetails(droperr.ErrContractRead, map[string]string{
		"contract": to.Hex(),
		"method":   method,
		"reason":   "unexpected output type",
	})
}
