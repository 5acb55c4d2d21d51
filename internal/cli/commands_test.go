package cli

import (
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/crossdrop/internal/airdrop"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

const testArtifact = `{
  "_format": "hh-sol-artifact-1",
  "contractName": "Airdrop",
  "sourceName": "contracts/Airdrop.sol",
  "abi": [{"type": "constructor", "stateMutability": "nonpayable", "inputs": [
    {"name": "gateway_", "type": "address"},
    {"name": "gasService_", "type": "address"}
  ]}],
  "bytecode": "0x6080604052"
}`

func TestApprove(t *testing.T) {
	home := isolate(t)
	fake := &fakeRunner{result: minedTx(10_000_000)}
	got := withFakeAirdrop(t, fake)

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "json", "approve", "--amount", "10")
	requireNoErr(t, stderr, err)

	assert.Equal(t, "10", fake.approveAmount)
	assert.Equal(t, needSource|needSigner, *got)

	var view txView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "approve", view.Action)
	assert.Equal(t, txHash.Hex(), view.TxHash)
	assert.Equal(t, "10", view.Amount)
	assert.Equal(t, "aUSDC", view.Symbol)
	assert.Equal(t, uint64(7), view.Block)
	assert.Contains(t, view.Explorer, txHash.Hex())
}

func TestAirdropInput_RejectedBeforeWiring(t *testing.T) {
	home := isolate(t)
	// Contracts and an unreachable RPC are configured so that wiring, if it
	// ran, would fail with a network error instead.
	t.Setenv("CROSSDROP_SOURCE_CONTRACT", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("CROSSDROP_DEST_CONTRACT", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("CROSSDROP_SOURCE_RPC", "http://127.0.0.1:1")

	tests := []struct {
		name string
		args []string
		err  error
		note string
	}{
		{"approve without amount", []string{"approve"}, droperr.ErrAmountRequired, airdrop.MsgEnterAmount},
		{"approve zero", []string{"approve", "--amount", "0"}, droperr.ErrAmountRequired, airdrop.MsgEnterAmount},
		{"approve too precise", []string{"approve", "--amount", "1.0000001"}, droperr.ErrInvalidAmount, "invalid amount format"},
		{"send without amount", []string{"send", "--recipients", alice.Hex()}, droperr.ErrAmountRequired, airdrop.MsgEnterAmountAndAddresses},
		{"send without recipients", []string{"send", "--amount", "1"}, droperr.ErrRecipientsRequired, airdrop.MsgEnterAmountAndAddresses},
		{"send bad recipient", []string{"send", "--amount", "1", "--recipients", "0x123"}, droperr.ErrInvalidAddress, "invalid address format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--home", home, "-o", "text"}, tt.args...)
			stdout, stderr, err := runCLI(t, args...)
			require.ErrorIs(t, err, tt.err)
			assert.Contains(t, stderr, tt.note)
			assert.Empty(t, stdout)
		})
	}
}

func TestSend(t *testing.T) {
	home := isolate(t)
	res := minedTx(3_000_000)
	res.Fee = big.NewInt(420_000_000_000_000)
	res.Recipients = []common.Address{alice, bob}
	fake := &fakeRunner{result: res}
	got := withFakeAirdrop(t, fake)

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "send",
		"--amount", "3", "--recipients", alice.Hex()+","+bob.Hex())
	requireNoErr(t, stderr, err)

	assert.Equal(t, "3", fake.sendAmount)
	assert.Equal(t, alice.Hex()+","+bob.Hex(), fake.sendRecipients)
	assert.Equal(t, needSource|needSigner|needFees, *got)
	assert.Contains(t, stdout, "Amount:       3 aUSDC")
	assert.Contains(t, stdout, "Gas fee:      0.00042")
	assert.Contains(t, stdout, "Recipients:   2")
}

func TestSend_ErrorKeepsExitCode(t *testing.T) {
	home := isolate(t)
	withFakeAirdrop(t, &fakeRunner{err: droperr.WithSuggestion(droperr.ErrAllowanceTooLow, "run 'crossdrop approve --amount 5' first")})

	stdout, _, err := runCLI(t, "--home", home, "send", "--amount", "5", "--recipients", alice.Hex())
	require.ErrorIs(t, err, droperr.ErrAllowanceTooLow)
	assert.Equal(t, droperr.ExitPermission, ExitCode(err))
	assert.Empty(t, stdout)
}

func TestStatus(t *testing.T) {
	home := isolate(t)

	t.Run("waiting", func(t *testing.T) {
		got := withFakeAirdrop(t, &fakeRunner{statuses: []*airdrop.Status{{
			TotalAmount: big.NewInt(0), PerRecipient: big.NewInt(0), Waiting: true, Symbol: "aUSDC", Decimals: 6,
		}}})

		stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "status")
		requireNoErr(t, stderr, err)
		assert.Equal(t, needDestination, *got)
		assert.Equal(t, airdrop.MsgWaiting+"\n", stdout)
	})

	t.Run("received", func(t *testing.T) {
		withFakeAirdrop(t, &fakeRunner{statuses: []*airdrop.Status{{
			TotalAmount:  big.NewInt(3_000_001),
			Recipients:   []common.Address{alice, bob},
			PerRecipient: big.NewInt(1_500_000),
			Remainder:    big.NewInt(1),
			Symbol:       "aUSDC",
			Decimals:     6,
		}}})

		stdout, stderr, err := runCLI(t, "--home", home, "-o", "json", "status")
		requireNoErr(t, stderr, err)

		var view statusView
		require.NoError(t, json.Unmarshal([]byte(stdout), &view))
		assert.False(t, view.Waiting)
		assert.Equal(t, "3.000001", view.Total)
		assert.Equal(t, "1.5", view.PerRecipient)
		assert.Equal(t, "0.000001", view.Remainder)
		assert.Equal(t, []string{alice.Hex(), bob.Hex()}, view.Recipients)
	})

	t.Run("read error notifies", func(t *testing.T) {
		withFakeAirdrop(t, &fakeRunner{err: droperr.ErrContractRead})

		_, stderr, err := runCLI(t, "--home", home, "-o", "text", "status")
		require.ErrorIs(t, err, droperr.ErrContractRead)
		assert.Contains(t, stderr, airdrop.MsgStatusFailed)
	})
}

func TestStatus_WatchPrintsChangesOnly(t *testing.T) {
	home := isolate(t)
	waiting := &airdrop.Status{TotalAmount: big.NewInt(0), PerRecipient: big.NewInt(0), Waiting: true, Symbol: "aUSDC", Decimals: 6}
	done := &airdrop.Status{
		TotalAmount: big.NewInt(2_000_000), PerRecipient: big.NewInt(2_000_000),
		Recipients: []common.Address{alice}, Symbol: "aUSDC", Decimals: 6,
	}
	withFakeAirdrop(t, &fakeRunner{statuses: []*airdrop.Status{waiting, waiting, waiting, done, done}})

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "status", "--watch", "--interval", "1s")
	requireNoErr(t, stderr, err)

	assert.Equal(t, 1, strings.Count(stdout, airdrop.MsgWaiting))
	assert.Equal(t, 1, strings.Count(stdout, "Received 2 aUSDC"))
}

func TestAllowance(t *testing.T) {
	home := isolate(t)

	t.Run("owner flag skips the signer", func(t *testing.T) {
		fake := &fakeRunner{allowance: big.NewInt(2_500_000)}
		got := withFakeAirdrop(t, fake)

		stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "allowance", "--owner", strings.ToLower(bob.Hex()))
		requireNoErr(t, stderr, err)
		assert.Equal(t, needSource, *got)
		assert.Equal(t, bob, fake.allowanceOwner)
		assert.Equal(t, "Allowance: 2.5 aUSDC\n", stdout)
	})

	t.Run("signer by default", func(t *testing.T) {
		fake := &fakeRunner{allowance: big.NewInt(1), owner: alice}
		got := withFakeAirdrop(t, fake)

		stdout, stderr, err := runCLI(t, "--home", home, "-o", "json", "allowance")
		requireNoErr(t, stderr, err)
		assert.Equal(t, needSource|needSigner, *got)
		assert.Equal(t, alice, fake.allowanceOwner)

		var view amountView
		require.NoError(t, json.Unmarshal([]byte(stdout), &view))
		assert.Equal(t, alice.Hex(), view.Owner)
		assert.Equal(t, "1", view.Raw)
		assert.Equal(t, "0.000001", view.Formatted)
		assert.Equal(t, "approve", view.Phase)
		assert.Empty(t, view.LastApproved)
	})

	t.Run("shows recorded approval", func(t *testing.T) {
		withFakeAirdrop(t, &fakeRunner{
			allowance: big.NewInt(2_000_000),
			owner:     alice,
			session:   &airdrop.Session{Owner: alice, Phase: airdrop.PhaseSend, ApprovedAmount: "2000000"},
		})

		stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "allowance")
		requireNoErr(t, stderr, err)
		assert.Equal(t, "Allowance: 2 aUSDC\nNext step: send (last approved 2 aUSDC)\n", stdout)
	})

	t.Run("bad owner", func(t *testing.T) {
		withFakeAirdrop(t, &fakeRunner{})
		_, _, err := runCLI(t, "--home", home, "allowance", "--owner", "0x123")
		require.ErrorIs(t, err, droperr.ErrInvalidAddress)
	})
}

func TestSession(t *testing.T) {
	home := isolate(t)
	sendTx := common.HexToHash("0x22")
	fake := &fakeRunner{owner: alice, session: &airdrop.Session{
		Owner:          alice,
		Phase:          airdrop.PhaseSent,
		ApprovedAmount: "5000000",
		ApproveTx:      &txHash,
		SentAmount:     "5000000",
		SendTx:         &sendTx,
		Recipients:     []common.Address{alice, bob},
		UpdatedAt:      time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}}
	got := withFakeAirdrop(t, fake)

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "json", "session")
	requireNoErr(t, stderr, err)
	assert.Equal(t, needSigner, *got)

	var view sessionView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "sent", view.Phase)
	assert.Equal(t, "5", view.ApprovedAmount)
	assert.Equal(t, "5", view.SentAmount)
	assert.Equal(t, sendTx.Hex(), view.SendTx)
	assert.Len(t, view.Recipients, 2)
	assert.Equal(t, "2026-10-15T09:00:00Z", view.UpdatedAt)
	assert.Zero(t, fake.resets)
}

func TestSession_Reset(t *testing.T) {
	home := isolate(t)
	fake := &fakeRunner{owner: alice, session: &airdrop.Session{Owner: alice, Phase: airdrop.PhaseSent}}
	withFakeAirdrop(t, fake)

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "session", "--reset")
	requireNoErr(t, stderr, err)
	assert.Equal(t, 1, fake.resets)
	assert.Contains(t, stderr, "Session for "+alice.Hex()+" cleared")
	assert.Regexp(t, `Next step:\s+approve`, stdout)
}

func TestGas(t *testing.T) {
	home := isolate(t)
	got := withFakeAirdrop(t, &fakeRunner{fee: big.NewInt(1_500_000_000_000_000)})

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "gas")
	requireNoErr(t, stderr, err)
	assert.Equal(t, needFees, *got)
	assert.Equal(t, "Gas fee: 0.0015 MATIC (Polygon -> Avalanche)\n", stdout)
}

func TestDeploy(t *testing.T) {
	home := isolate(t)
	artifact := filepath.Join(home, "Airdrop.json")
	require.NoError(t, os.WriteFile(artifact, []byte(testArtifact), 0o600))

	d := &fakeDeployer{}
	withFakeDeployer(t, d)

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "deploy",
		"--network", "avalanche", "--artifact", artifact)
	requireNoErr(t, stderr, err)

	assert.Equal(t, "avalanche", d.network)
	assert.Equal(t, "Airdrop", d.art.ContractName)
	assert.Equal(t, common.HexToAddress("0xBF62ef1486468a6bd26Dd669C06db43dEd5B849B"), d.gateway)
	assert.Equal(t, common.HexToAddress("0xbE406F0189A0B4cf3A05C286473D23791Dd44Cc6"), d.gasService)
	assert.Contains(t, stdout, "Airdrop contract deployed to 0x00000000000000000000000000000000000000C0")
	assert.Contains(t, stdout, "Gas used:")
	assert.Contains(t, stderr, "Deploying Airdrop to avalanche...")
}

func TestDeploy_Validation(t *testing.T) {
	home := isolate(t)
	withFakeDeployer(t, &fakeDeployer{})

	tests := []struct {
		name string
		args []string
		err  error
	}{
		{"bad gateway", []string{"--gateway", "0xnope"}, droperr.ErrInvalidAddress},
		{"bad gas service", []string{"--gas-service", "nope"}, droperr.ErrInvalidAddress},
		{"missing artifact", []string{"--artifact", filepath.Join(home, "missing.json")}, droperr.ErrArtifactInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--home", home, "deploy"}, tt.args...)
			_, _, err := runCLI(t, args...)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDeploy_Failure(t *testing.T) {
	home := isolate(t)
	artifact := filepath.Join(home, "Airdrop.json")
	require.NoError(t, os.WriteFile(artifact, []byte(testArtifact), 0o600))
	withFakeDeployer(t, &fakeDeployer{err: droperr.ErrTxReverted})

	_, _, err := runCLI(t, "--home", home, "deploy", "--artifact", artifact)
	require.ErrorIs(t, err, droperr.ErrTxReverted)
}

func TestDeployList_Empty(t *testing.T) {
	home := isolate(t)
	stdout, stderr, err := runCLI(t, "--home", home, "-o", "text", "deploy", "list")
	requireNoErr(t, stderr, err)
	assert.Equal(t, "No deployments recorded\n", stdout)
}

func TestVersion(t *testing.T) {
	home := isolate(t)
	buildInfo = BuildInfo{Version: "v0.3.0", Commit: "abc1234", Date: "2026-10-15"}
	t.Cleanup(func() { buildInfo = BuildInfo{} })

	stdout, stderr, err := runCLI(t, "--home", home, "-o", "json", "version")
	requireNoErr(t, stderr, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "v0.3.0", got["version"])
	assert.Equal(t, "abc1234", got["commit"])
	assert.NotEmpty(t, got["go"])
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"all fields", BuildInfo{Version: "v1.2.3", Commit: "abc1234", Date: "2026-01-15"}, "v1.2.3 (commit: abc1234, built: 2026-01-15)"},
		{"empty", BuildInfo{}, "dev (commit: unknown, built: unknown)"},
		{"only version", BuildInfo{Version: "v2.0.0"}, "v2.0.0 (commit: unknown, built: unknown)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatVersion(tt.info))
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, droperr.ExitSuccess, ExitCode(nil))
	assert.Equal(t, droperr.ExitInput, ExitCode(droperr.ErrAmountRequired))
	assert.Equal(t, droperr.ExitAuth, ExitCode(droperr.ErrKeyRequired))
	assert.Equal(t, droperr.ExitGeneral, ExitCode(errors.New("plain")))
}

func TestStatusView_Text(t *testing.T) {
	t.Parallel()
	v := statusView{
		Network:      "avalanche",
		Total:        "3.000001",
		PerRecipient: "1.5",
		Remainder:    "0.000001",
		Symbol:       "aUSDC",
		Recipients:   []string{alice.Hex(), bob.Hex()},
		CheckedAt:    time.Now(),
	}

	var sb strings.Builder
	require.NoError(t, v.RenderText(&sb))
	text := sb.String()
	assert.True(t, strings.HasPrefix(text, "Received 3.000001 aUSDC on avalanche, split across 2 recipients\n"))
	assert.Contains(t, text, alice.Hex()+"  1.5 aUSDC")
	assert.Contains(t, text, "Undistributed remainder: 0.000001 aUSDC")
}
