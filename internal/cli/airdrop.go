package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/airdrop"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	approveAmount  string
	sendAmount     string
	sendRecipients string
)

// approveCmd approves the source Airdrop contract to spend tokens.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var approveCmd = &cobra.Command{
	Use:     "approve",
	Short:   "Approve the Airdrop contract to spend your tokens",
	GroupID: groupAirdrop,
	Long: `Approve the source chain Airdrop contract to pull --amount tokens from the
signing account. The amount is in whole tokens and may carry up to the token's
decimals.

The command waits for the approval to be mined, then records it so 'send' can
follow in a later invocation.`,
	Example: `  crossdrop approve --amount 10
  crossdrop approve --amount 2.5 --key-file ~/keys/deployer.json`,
	RunE: runApprove,
}

// sendCmd sends the cross-chain airdrop.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Airdrop tokens to recipients on the destination chain",
	GroupID: groupAirdrop,
	Long: `Send --amount tokens through the Axelar gateway to the destination Airdrop
contract, which splits them evenly across --recipients.

The allowance must cover the amount (see 'approve'). The Axelar gas fee is
estimated first and paid in the source chain's native token.`,
	Example: `  crossdrop send --amount 10 --recipients 0xAbc...,0xDef...
  crossdrop send --amount 1 --recipients 0xAbc... -o json`,
	RunE: runSend,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(approveCmd, sendCmd)

	approveCmd.Flags().StringVar(&approveAmount, "amount", "", "amount of tokens to approve")

	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "total amount of tokens to airdrop")
	sendCmd.Flags().StringVar(&sendRecipients, "recipients", "", "comma separated recipient addresses")
}

func runApprove(cmd *cobra.Command, _ []string) error {
	// Bad input is reported before any RPC is dialed or key unlocked.
	if _, err := airdrop.ValidateApprove(approveAmount, cfg.Token.Decimals, formatter); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.Tx.ReceiptTimeout)
	defer cancel()

	svc, err := newAirdropFn(ctx, cmdCtx, needSource|needSigner)
	if err != nil {
		return err
	}

	res, err := svc.Approve(ctx, approveAmount)
	if err != nil {
		return err
	}
	return formatter.Print(newTxView("approve", cfg.Source.Name, cfg.Token.Symbol, cfg.Token.Decimals, res))
}

func runSend(cmd *cobra.Command, _ []string) error {
	if _, _, err := airdrop.ValidateSend(sendAmount, sendRecipients, cfg.Token.Decimals, formatter); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.Tx.ReceiptTimeout)
	defer cancel()

	svc, err := newAirdropFn(ctx, cmdCtx, needSource|needSigner|needFees)
	if err != nil {
		return err
	}

	res, err := svc.Send(ctx, sendAmount, sendRecipients)
	if err != nil {
		return err
	}
	return formatter.Print(newTxView("send", cfg.Source.Name, cfg.Token.Symbol, cfg.Token.Decimals, res))
}
