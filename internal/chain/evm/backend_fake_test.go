package evm

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend is an in-memory Backend. Contract calls are answered by the
// first four bytes of calldata.
type fakeBackend struct {
	mu sync.Mutex

	chainID      *big.Int
	chainIDCalls int
	baseFee      *big.Int // nil means a legacy chain
	tip          *big.Int
	gasPrice     *big.Int
	pendingNonce uint64
	estimate     uint64
	estimateErr  error
	sendErr      error
	callErr      error
	balance      *big.Int

	calls       map[string][]byte
	lastCall    ethereum.CallMsg
	lastEstim   ethereum.CallMsg
	sent        []*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	receiptWait int // polls that return NotFound before the receipt shows
	polls       int
	closed      bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(80001),
		baseFee:  big.NewInt(30_000_000_000),
		tip:      big.NewInt(1_500_000_000),
		gasPrice: big.NewInt(40_000_000_000),
		estimate: 100_000,
		balance:  big.NewInt(0),
		calls:    make(map[string][]byte),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeBackend) onCall(selector []byte, out []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[hex.EncodeToString(selector)] = out
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainIDCalls++
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingNonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEstim = msg
	return f.estimate, f.estimateErr
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	if _, ok := f.receipts[tx.Hash()]; !ok {
		f.receipts[tx.Hash()] = &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			TxHash:      tx.Hash(),
			BlockNumber: big.NewInt(101),
			GasUsed:     tx.Gas() / 2,
		}
	}
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.polls <= f.receiptWait {
		return nil, ethereum.NotFound
	}
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = msg
	if f.callErr != nil {
		return nil, f.callErr
	}
	if len(msg.Data) < 4 {
		return nil, nil
	}
	return f.calls[hex.EncodeToString(msg.Data[:4])], nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
