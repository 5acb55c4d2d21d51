package cli

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// queryTimeout bounds one-shot chain and API reads.
const queryTimeout = 30 * time.Second

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var allowanceOwner string

// allowanceCmd shows the token allowance granted to the source contract.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var allowanceCmd = &cobra.Command{
	Use:     "allowance",
	Short:   "Show how much the Airdrop contract may spend",
	GroupID: groupQuery,
	Long: `Read the ERC-20 allowance the signing account (or --owner) has granted
to the source chain Airdrop contract.`,
	Example: `  crossdrop allowance
  crossdrop allowance --owner 0xAbc...`,
	RunE: runAllowance,
}

// gasCmd estimates the Axelar gas fee.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var gasCmd = &cobra.Command{
	Use:     "gas",
	Short:   "Estimate the Axelar cross-chain gas fee",
	GroupID: groupQuery,
	Long: `Ask the Axelar GMP API what executing one sendToMany on the destination
chain costs, paid in the source chain's native token.`,
	Example: `  crossdrop gas
  crossdrop gas -o json`,
	RunE: runGas,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(allowanceCmd, gasCmd)

	allowanceCmd.Flags().StringVar(&allowanceOwner, "owner", "", "token owner (default: the signing account)")
}

func runAllowance(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, queryTimeout)
	defer cancel()

	n := needSource
	var owner common.Address
	if allowanceOwner != "" {
		if !common.IsHexAddress(allowanceOwner) {
			return droperr.WithDetails(droperr.ErrInvalidAddress, map[string]string{"address": allowanceOwner})
		}
		owner = common.HexToAddress(allowanceOwner)
	} else {
		n |= needSigner
	}

	svc, err := newAirdropFn(ctx, cmdCtx, n)
	if err != nil {
		return err
	}

	if allowanceOwner == "" {
		if owner, err = svc.Owner(); err != nil {
			return err
		}
	}

	v, err := svc.AllowanceOf(ctx, owner)
	if err != nil {
		return err
	}

	view := newAmountView("Allowance", cfg.Token.Symbol, cfg.Token.Decimals, v)
	view.Owner = owner.Hex()
	view.Spender = cfg.Source.Contract
	if allowanceOwner == "" {
		addSessionState(&view, svc)
	}
	return formatter.Print(view)
}

// addSessionState shows where the signer is in the approve then send flow.
func addSessionState(view *amountView, svc AirdropRunner) {
	sess, err := svc.Session()
	if err != nil {
		logger.Error("reading session: %v", err)
	}
	if sess == nil {
		return
	}
	view.Phase = string(sess.Phase)
	if approved := sess.ApprovedAmountInt(); approved != nil {
		view.LastApproved = chain.FormatDecimalAmount(approved, cfg.Token.Decimals)
	}
}

func runGas(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, queryTimeout)
	defer cancel()

	svc, err := newAirdropFn(ctx, cmdCtx, needFees)
	if err != nil {
		return err
	}

	fee, err := svc.EstimateFee(ctx)
	if err != nil {
		return err
	}

	view := newAmountView("Gas fee", cfg.Axelar.GasToken, 18, fee)
	view.Route = routeLabel(cfg.Source.AxelarName, cfg.Destination.AxelarName)
	return formatter.Print(view)
}
