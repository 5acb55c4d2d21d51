package cli

import (
	"bytes"
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/crossdrop/internal/airdrop"
	"github.com/mrz1836/crossdrop/internal/chain/evm"
	"github.com/mrz1836/crossdrop/internal/deploy"
)

var (
	alice  = common.HexToAddress("0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa")
	bob    = common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")
	txHash = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
)

// fakeRunner records calls and returns canned results.
type fakeRunner struct {
	mu sync.Mutex

	approveAmount  string
	sendAmount     string
	sendRecipients string
	allowanceOwner common.Address

	result    *airdrop.TxResult
	statuses  []*airdrop.Status
	allowance *big.Int
	fee       *big.Int
	owner     common.Address
	session   *airdrop.Session
	resets    int
	err       error
}

func (f *fakeRunner) Approve(_ context.Context, amount string) (*airdrop.TxResult, error) {
	f.approveAmount = amount
	return f.result, f.err
}

func (f *fakeRunner) Send(_ context.Context, amount, recipients string) (*airdrop.TxResult, error) {
	f.sendAmount, f.sendRecipients = amount, recipients
	return f.result, f.err
}

func (f *fakeRunner) Status(context.Context) (*airdrop.Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.statuses[0], nil
}

func (f *fakeRunner) Watch(_ context.Context, _ time.Duration, fn func(*airdrop.Status)) error {
	for _, st := range f.statuses {
		fn(st)
	}
	return f.err
}

func (f *fakeRunner) Allowance(context.Context) (*big.Int, error) {
	return f.allowance, f.err
}

func (f *fakeRunner) AllowanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	f.allowanceOwner = owner
	f.mu.Unlock()
	return f.allowance, f.err
}

func (f *fakeRunner) EstimateFee(context.Context) (*big.Int, error) {
	return f.fee, f.err
}

func (f *fakeRunner) Owner() (common.Address, error) {
	return f.owner, nil
}

func (f *fakeRunner) Session() (*airdrop.Session, error) {
	if f.session != nil {
		return f.session, nil
	}
	return &airdrop.Session{Owner: f.owner, Phase: airdrop.PhaseApprove}, nil
}

func (f *fakeRunner) ResetSession() error {
	f.resets++
	f.session = nil
	return nil
}

// withFakeAirdrop swaps the airdrop factory and returns a pointer to the
// needs the last command asked for.
func withFakeAirdrop(t *testing.T, f *fakeRunner) *needs {
	t.Helper()
	orig := newAirdropFn
	t.Cleanup(func() { newAirdropFn = orig })

	var got needs
	newAirdropFn = func(_ context.Context, _ *CommandContext, n needs) (AirdropRunner, error) {
		got = n
		return f, nil
	}
	return &got
}

type fakeDeployer struct {
	network    string
	gateway    common.Address
	gasService common.Address
	art        *evm.Artifact
	err        error
}

func (d *fakeDeployer) Deploy(_ context.Context, art *evm.Artifact, gateway, gasService common.Address) (*deploy.Result, error) {
	d.art, d.gateway, d.gasService = art, gateway, gasService
	if d.err != nil {
		return nil, d.err
	}
	return &deploy.Result{
		Network:    d.network,
		ChainID:    80001,
		Contract:   art.ContractName,
		Address:    common.HexToAddress("0x00000000000000000000000000000000000000C0"),
		TxHash:     txHash,
		Block:      42,
		GasUsed:    1_234_567,
		Gateway:    gateway,
		GasService: gasService,
		DeployedAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}, nil
}

func withFakeDeployer(t *testing.T, d *fakeDeployer) {
	t.Helper()
	orig := newDeployerFn
	t.Cleanup(func() { newDeployerFn = orig })
	newDeployerFn = func(_ context.Context, _ *CommandContext, network string) (ContractDeployer, error) {
		d.network = network
		return d, nil
	}
}

// withMockPassword replaces the password prompt for testing and restores on cleanup.
func withMockPassword(t *testing.T, password string, err error) *int {
	t.Helper()
	orig := promptPasswordFn
	t.Cleanup(func() { promptPasswordFn = orig })

	calls := 0
	promptPasswordFn = func(string) ([]byte, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return []byte(password), nil
	}
	return &calls
}

func minedTx(amount int64) *airdrop.TxResult {
	return &airdrop.TxResult{
		Tx:      &evm.PendingTx{Hash: txHash, From: alice},
		Receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7), GasUsed: 46000},
		Amount:  big.NewInt(amount),
	}
}

// isolate points HOME and the crossdrop home at a temp dir and clears
// overrides that would leak in from the developer's environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CROSSDROP_HOME", "")
	t.Setenv("CROSSDROP_KEYSTORE", "")
	t.Setenv("CROSSDROP_OUTPUT_FORMAT", "")
	t.Setenv("CROSSDROP_VERBOSE", "")
	t.Setenv("CROSSDROP_LOG_LEVEL", "off")
	for _, name := range []string{
		"CROSSDROP_SOURCE_RPC", "CROSSDROP_DEST_RPC", "CROSSDROP_SOURCE_CONTRACT",
		"CROSSDROP_DEST_CONTRACT", "CROSSDROP_TOKEN_ADDRESS", "CROSSDROP_AXELAR_API",
		"CROSSDROP_PRIVATE_KEY", EnvKeystorePassword, "NEXT_PUBLIC_POLYGON_CONTRACT_ADDRESS",
		"NEXT_PUBLIC_AVALANCHE_CONTRACT_ADDRESS", "NEXT_PUBLIC_AVALANCHE_RPC_URL",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("NO_COLOR", "1")
	return home
}

// runCLI executes the command tree with fresh flags and captured output.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	cleanup()
	return stdout.String(), stderr.String(), err
}

func resetFlags(root *cobra.Command) {
	walkCommands(root, func(cmd *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	})
}

func requireNoErr(t *testing.T, stderr string, err error) {
	t.Helper()
	require.NoError(t, err, "stderr: %s", stderr)
}
