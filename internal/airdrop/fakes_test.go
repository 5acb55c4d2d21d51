package airdrop

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/crossdrop/internal/axelar"
	"github.com/mrz1836/crossdrop/internal/chain/evm"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

var (
	tokenAddr  = common.HexToAddress("0x2c852e740B62308c46DD29B982FBb650D063Bd07")
	sourceAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	destAddr   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice      = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob        = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

type fakeToken struct {
	mu         sync.Mutex
	allowance  *big.Int
	allowErr   error
	approveErr error
	approved   []*big.Int
	spenders   []common.Address
}

func (f *fakeToken) Address() common.Address { return tokenAddr }

func (f *fakeToken) Allowance(context.Context, common.Address, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allowErr != nil {
		return nil, f.allowErr
	}
	if f.allowance == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeToken) Approve(_ context.Context, signer *evm.Signer, spender common.Address, amount *big.Int) (*evm.PendingTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	f.approved = append(f.approved, amount)
	f.spenders = append(f.spenders, spender)
	to := tokenAddr
	return &evm.PendingTx{Hash: common.HexToHash("0xa11"), From: signer.Address(), To: &to}, nil
}

type fakeSource struct {
	mu      sync.Mutex
	sendErr error
	sent    []evm.SendToMany
}

func (f *fakeSource) Address() common.Address { return sourceAddr }

func (f *fakeSource) SendToMany(_ context.Context, signer *evm.Signer, p evm.SendToMany) (*evm.PendingTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, p)
	to := sourceAddr
	return &evm.PendingTx{Hash: common.HexToHash("0x5e4d"), From: signer.Address(), To: &to, Value: p.GasFee}, nil
}

type fakeDestination struct {
	mu         sync.Mutex
	amount     *big.Int
	recipients []common.Address
	err        error
	reads      int
}

func (f *fakeDestination) AmountReceived(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.amount, nil
}

func (f *fakeDestination) Recipients(context.Context) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recipients, nil
}

type fakeReceipts struct {
	err   error
	waits []common.Hash
}

func (f *fakeReceipts) WaitForReceipt(_ context.Context, hash common.Hash, _ time.Duration) (*types.Receipt, error) {
	f.waits = append(f.waits, hash)
	if f.err != nil {
		return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: hash}, f.err
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(7)}, nil
}

type fakeFees struct {
	fee  *big.Int
	err  error
	reqs []axelar.FeeRequest
}

func (f *fakeFees) EstimateGasFee(_ context.Context, req axelar.FeeRequest) (*big.Int, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.fee, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	infos     []string
	successes []string
	errors    []string
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

type fakeRecorder struct {
	mu    sync.Mutex
	txs   map[string]int
	polls int
	fails int
}

func (r *fakeRecorder) RecordTx(kind string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.txs == nil {
		r.txs = make(map[string]int)
	}
	key := kind
	if err != nil {
		key += ":error"
	}
	r.txs[key]++
}

func (r *fakeRecorder) RecordStatusPoll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
	if err != nil {
		r.fails++
	}
}

type harness struct {
	svc      *Service
	token    *fakeToken
	source   *fakeSource
	dest     *fakeDestination
	receipts *fakeReceipts
	fees     *fakeFees
	notes    *recordingNotifier
	recorder *fakeRecorder
	sessions *SessionStore
	signer   *evm.Signer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	signer, err := evm.SignerFromHex(testKeyHex)
	require.NoError(t, err)

	h := &harness{
		token:    &fakeToken{},
		source:   &fakeSource{},
		dest:     &fakeDestination{amount: new(big.Int)},
		receipts: &fakeReceipts{},
		fees:     &fakeFees{fee: big.NewInt(420_000_000_000_000)},
		notes:    &recordingNotifier{},
		recorder: &fakeRecorder{},
		sessions: NewSessionStore(t.TempDir() + "/sessions.json"),
		signer:   signer,
	}
	h.svc = NewService(Options{
		Token:       h.token,
		Source:      h.source,
		Destination: h.dest,
		Receipts:    h.receipts,
		Fees:        h.fees,
		Signer:      signer,
		FeeRequest: axelar.FeeRequest{
			SourceChain: "Polygon", DestinationChain: "Avalanche",
			GasToken: "MATIC", GasLimit: 700000, GasMultiplier: 2,
		},
		DestinationChain:    "Avalanche",
		DestinationContract: destAddr,
		Symbol:              "aUSDC",
		Decimals:            6,
		PollInterval:        time.Millisecond,
		Sessions:            h.sessions,
		Notifier:            h.notes,
		Recorder:            h.recorder,
	})
	return h
}
