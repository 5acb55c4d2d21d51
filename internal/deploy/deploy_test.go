package deploy

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/crossdrop/internal/chain/evm"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

var (
	gateway    = common.HexToAddress("0xBF62ef1486468a6bd26Dd669C06db43dEd5B849B")
	gasService = common.HexToAddress("0xbE406F0189A0B4cf3A05C286473D23791Dd44Cc6")
	created    = common.HexToAddress("0x3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c3c")
)

type fakeChain struct {
	network    string
	initCode   []byte
	deployErr  error
	receiptErr error
	receipt    *types.Receipt
}

func (f *fakeChain) Network() string { return f.network }

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(80001), nil }

func (f *fakeChain) Deploy(_ context.Context, signer *evm.Signer, initCode []byte) (*evm.PendingTx, error) {
	if f.deployErr != nil {
		return nil, f.deployErr
	}
	f.initCode = initCode
	addr := created
	return &evm.PendingTx{Hash: common.HexToHash("0xde9"), From: signer.Address(), Contract: &addr}, nil
}

func (f *fakeChain) WaitForReceipt(context.Context, common.Hash, time.Duration) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return f.receipt, nil
}

type countingRecorder struct {
	ok, failed int
}

func (r *countingRecorder) RecordTx(_ string, err error) {
	if err != nil {
		r.failed++
		return
	}
	r.ok++
}

func testArtifact(t *testing.T) *evm.Artifact {
	t.Helper()
	art, err := evm.ParseArtifact([]byte(`{"contractName":"Airdrop","sourceName":"contracts/Airdrop.sol",` +
		`"abi":[{"type":"constructor","inputs":[{"name":"gateway_","type":"address"},{"name":"gasReceiver_","type":"address"}]}],` +
		`"bytecode":"0x60806040"}`))
	require.NoError(t, err)
	return art
}

func newTestDeployer(t *testing.T, c *fakeChain, store *Store, rec Recorder) *Deployer {
	t.Helper()
	signer, err := evm.SignerFromHex(testKeyHex)
	require.NoError(t, err)
	d := NewDeployer(c, signer, Options{PollInterval: time.Millisecond, Store: store, Recorder: rec})
	d.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDeploy(t *testing.T) {
	t.Parallel()
	c := &fakeChain{
		network: "polygon",
		receipt: &types.Receipt{
			Status:          types.ReceiptStatusSuccessful,
			ContractAddress: created,
			BlockNumber:     big.NewInt(12345),
			GasUsed:         654321,
		},
	}
	store := NewStore(filepath.Join(t.TempDir(), "deployments.json"))
	rec := &countingRecorder{}

	res, err := newTestDeployer(t, c, store, rec).Deploy(context.Background(), testArtifact(t), gateway, gasService)
	require.NoError(t, err)

	assert.Equal(t, created, res.Address)
	assert.Equal(t, uint64(12345), res.Block)
	assert.Equal(t, uint64(654321), res.GasUsed)
	assert.Equal(t, int64(80001), res.ChainID)
	assert.Equal(t, "Airdrop", res.Contract)
	assert.Equal(t, 1, rec.ok)

	require.Len(t, c.initCode, 4+64)
	assert.Equal(t, gateway.Bytes(), c.initCode[4+12:4+32])

	latest, err := store.Latest("polygon")
	require.NoError(t, err)
	assert.Equal(t, created, latest.Address)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), latest.DeployedAt)
}

func TestDeploy_FallsBackToCreateAddress(t *testing.T) {
	t.Parallel()
	c := &fakeChain{network: "avalanche", receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}

	res, err := newTestDeployer(t, c, nil, nil).Deploy(context.Background(), testArtifact(t), gateway, gasService)
	require.NoError(t, err)
	assert.Equal(t, created, res.Address)
	assert.Zero(t, res.Block)
}

func TestDeploy_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chain  *fakeChain
		art    func(t *testing.T) *evm.Artifact
		gw     common.Address
		target error
	}{
		{"no artifact", &fakeChain{}, func(*testing.T) *evm.Artifact { return nil }, gateway, droperr.ErrArtifactInvalid},
		{"no gateway", &fakeChain{}, testArtifact, common.Address{}, droperr.ErrInvalidAddress},
		{"broadcast", &fakeChain{deployErr: droperr.ErrInsufficientFunds}, testArtifact, gateway, droperr.ErrInsufficientFunds},
		{"reverted", &fakeChain{receiptErr: droperr.ErrTxReverted}, testArtifact, gateway, droperr.ErrTxReverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := NewStore(filepath.Join(t.TempDir(), "deployments.json"))
			_, err := newTestDeployer(t, tt.chain, store, nil).Deploy(context.Background(), tt.art(t), tt.gw, gasService)
			require.ErrorIs(t, err, tt.target)

			all, err := store.List()
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "deployments.json"))

	_, err := store.Latest("polygon")
	require.ErrorIs(t, err, droperr.ErrNotFound)

	first := common.HexToAddress("0x1")
	second := common.HexToAddress("0x2")
	require.NoError(t, store.Append(Result{Network: "polygon", Address: first}))
	require.NoError(t, store.Append(Result{Network: "avalanche", Address: common.HexToAddress("0x3")}))
	require.NoError(t, store.Append(Result{Network: "polygon", Address: second}))

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := store.Latest("polygon")
	require.NoError(t, err)
	assert.Equal(t, second, latest.Address)

	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0o600))
	_, err = store.List()
	require.Error(t, err)
	require.NoError(t, store.Append(Result{Network: "polygon", Address: first}))
	all, err = store.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
