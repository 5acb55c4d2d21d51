// Package deploy deploys the Airdrop contract and keeps a record of every
// deployment under the crossdrop home.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mrz1836/crossdrop/internal/chain/evm"
	"github.com/mrz1836/crossdrop/internal/fileutil"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Chain is the part of *evm.Client a deployment needs.
type Chain interface {
	Network() string
	ChainID(ctx context.Context) (*big.Int, error)
	Deploy(ctx context.Context, signer *evm.Signer, initCode []byte) (*evm.PendingTx, error)
	WaitForReceipt(ctx context.Context, hash common.Hash, interval time.Duration) (*types.Receipt, error)
}

// Recorder counts deployments.
type Recorder interface {
	RecordTx(kind string, err error)
}

// Result describes a mined deployment.
type Result struct {
	Network    string         `json:"network"`
	ChainID    int64          `json:"chain_id"`
	Contract   string         `json:"contract"`
	Address    common.Address `json:"address"`
	TxHash     common.Hash    `json:"tx_hash"`
	Block      uint64         `json:"block"`
	GasUsed    uint64         `json:"gas_used"`
	Deployer   common.Address `json:"deployer"`
	Gateway    common.Address `json:"gateway"`
	GasService common.Address `json:"gas_service"`
	DeployedAt time.Time      `json:"deployed_at"`
}

// Options configures a Deployer.
type Options struct {
	PollInterval time.Duration
	Store        *Store // nil skips the record
	Recorder     Recorder
	Logger       *zap.Logger
}

// Deployer deploys Airdrop artifacts.
type Deployer struct {
	chain  Chain
	signer *evm.Signer
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewDeployer creates a Deployer sending from signer.
func NewDeployer(c Chain, signer *evm.Signer, opts Options) *Deployer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deployer{chain: c, signer: signer, opts: opts, logger: logger.Named("deploy"), now: time.Now}
}

// Deploy sends the artifact's init code with (gateway, gasService) as
// constructor arguments, waits for the receipt and records the result.
func (d *Deployer) Deploy(ctx context.Context, art *evm.Artifact, gateway, gasService common.Address) (*Result, error) {
	if art == nil {
		return nil, droperr.WithDetails(droperr.ErrArtifactInvalid, map[string]string{"reason": "no artifact"})
	}
	if gateway == (common.Address{}) || gasService == (common.Address{}) {
		return nil, droperr.WithDetails(droperr.ErrInvalidAddress, map[string]string{
			"reason": "gateway and gas service addresses are required",
		})
	}

	initCode, err := art.InitCode(gateway, gasService)
	if err != nil {
		return nil, err
	}

	d.logger.Info("deploying contract",
		zap.String("network", d.chain.Network()),
		zap.String("contract", art.ContractName),
		zap.String("gateway", gateway.Hex()),
		zap.String("gas_service", gasService.Hex()))

	tx, err := d.chain.Deploy(ctx, d.signer, initCode)
	if err != nil {
		d.record(err)
		return nil, err
	}

	receipt, err := d.chain.WaitForReceipt(ctx, tx.Hash, d.opts.PollInterval)
	if err != nil {
		d.record(err)
		return nil, err
	}
	d.record(nil)

	address := receipt.ContractAddress
	if address == (common.Address{}) && tx.Contract != nil {
		address = *tx.Contract
	}

	chainID, err := d.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Network:    d.chain.Network(),
		ChainID:    chainID.Int64(),
		Contract:   art.ContractName,
		Address:    address,
		TxHash:     tx.Hash,
		GasUsed:    receipt.GasUsed,
		Deployer:   tx.From,
		Gateway:    gateway,
		GasService: gasService,
		DeployedAt: d.now().UTC(),
	}
	if receipt.BlockNumber != nil {
		res.Block = receipt.BlockNumber.Uint64()
	}

	if d.opts.Store != nil {
		if err := d.opts.Store.Append(*res); err != nil {
			// The contract exists on chain either way.
			d.logger.Error("recording deployment", zap.String("path", d.opts.Store.Path()), zap.Error(err))
		}
	}
	return res, nil
}

func (d *Deployer) record(err error) {
	if d.opts.Recorder != nil {
		d.opts.Recorder.RecordTx("deploy", err)
	}
}

// Store keeps deployments in a JSON file, oldest first.
type Store struct {
	mu   sync.Mutex
	path string
}

type deploymentsFile struct {
	Version     int      `json:"version"`
	Deployments []Result `json:"deployments"`
}

// NewStore creates a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the deployments file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds r to the file.
func (s *Store) Append(r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil && !errors.Is(err, fileutil.ErrCorrupt) {
		return err
	}
	f.Deployments = append(f.Deployments, r)
	return fileutil.WriteJSON(s.path, f)
}

// List returns all recorded deployments.
func (s *Store) List() ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	return f.Deployments, err
}

// Latest returns the newest deployment on network.
func (s *Store) Latest(network string) (*Result, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Network == network {
			r := all[i]
			return &r, nil
		}
	}
	return nil, droperr.WithDetails(droperr.ErrNotFound, map[string]string{"network": network})
}

func (s *Store) load() (*deploymentsFile, error) {
	f := &deploymentsFile{Version: 1}
	_, err := fileutil.ReadJSON(s.path, f)
	if errors.Is(err, fileutil.ErrCorrupt) {
		fresh := &deploymentsFile{Version: 1}
		moved, qerr := fileutil.Quarantine(s.path)
		if qerr != nil {
			return fresh, fmt.Errorf("%w (%w)", err, qerr)
		}
		return fresh, fmt.Errorf("%w (moved to %s)", err, moved)
	}
	if err != nil {
		return f, fmt.Errorf("reading deployments: %w", err)
	}
	return f, nil
}
