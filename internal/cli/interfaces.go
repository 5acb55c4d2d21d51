package cli

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/crossdrop/internal/airdrop"
	"github.com/mrz1836/crossdrop/internal/chain/evm"
	"github.com/mrz1836/crossdrop/internal/config"
	"github.com/mrz1836/crossdrop/internal/deploy"
	"github.com/mrz1836/crossdrop/internal/output"
	"github.com/mrz1836/crossdrop/internal/server"
)

// Compile-time interface checks.
var (
	_ ConfigProvider   = (*config.Config)(nil)
	_ FormatProvider   = (*output.Formatter)(nil)
	_ AirdropRunner    = (*airdrop.Service)(nil)
	_ server.Airdrop   = AirdropRunner(nil)
	_ ContractDeployer = (*deploy.Deployer)(nil)
)

// ConfigProvider provides read access to configuration values.
// This interface enables mocking configuration in tests.
type ConfigProvider interface {
	// GetHome returns the expanded crossdrop home directory path.
	GetHome() string

	// GetLoggingLevel returns the configured logging level.
	GetLoggingLevel() string

	// GetLoggingFile returns the expanded log file path.
	GetLoggingFile() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose reports whether verbose output is enabled.
	IsVerbose() bool
}

// FormatProvider provides output formatting.
type FormatProvider interface {
	Format() output.Format
	IsJSON() bool
	Print(v any) error
}

// AirdropRunner is the airdrop flow as the commands use it.
type AirdropRunner interface {
	Approve(ctx context.Context, amount string) (*airdrop.TxResult, error)
	Send(ctx context.Context, amount, recipients string) (*airdrop.TxResult, error)
	Status(ctx context.Context) (*airdrop.Status, error)
	Watch(ctx context.Context, interval time.Duration, fn func(*airdrop.Status)) error
	Allowance(ctx context.Context) (*big.Int, error)
	AllowanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	EstimateFee(ctx context.Context) (*big.Int, error)
	Owner() (common.Address, error)
	Session() (*airdrop.Session, error)
	ResetSession() error
}

// ContractDeployer deploys the Airdrop contract.
type ContractDeployer interface {
	Deploy(ctx context.Context, art *evm.Artifact, gateway, gasService common.Address) (*deploy.Result, error)
}

// Factories swapped out by tests.
//
//nolint:gochecknoglobals // test seams
var (
	newAirdropFn = func(ctx context.Context, cc *CommandContext, n needs) (AirdropRunner, error) {
		svc, err := cc.Airdrop(ctx, n)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	newDeployerFn = func(ctx context.Context, cc *CommandContext, network string) (ContractDeployer, error) {
		d, err := cc.Deployer(ctx, network)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
)
