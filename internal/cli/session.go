package cli

import (
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var sessionReset bool

// sessionCmd shows the signer's approve and send progress.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Show the signing account's approve and send progress",
	GroupID: groupQuery,
	Long: `Show what crossdrop recorded for the signing account: whether an approval
was mined, how much was approved, and the last airdrop sent.

The record lives in sessions.json in the crossdrop home directory. It never
blocks 'send'; the on-chain allowance decides. Use --reset to start over.`,
	Example: `  crossdrop session
  crossdrop session --reset`,
	RunE: runSession,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().BoolVar(&sessionReset, "reset", false, "forget the recorded progress")
}

func runSession(cmd *cobra.Command, _ []string) error {
	svc, err := newAirdropFn(cmd.Context(), cmdCtx, needSigner)
	if err != nil {
		return err
	}

	if sessionReset {
		owner, err := svc.Owner()
		if err != nil {
			return err
		}
		if err := svc.ResetSession(); err != nil {
			return err
		}
		formatter.Success("Session for " + owner.Hex() + " cleared")
	}

	sess, err := svc.Session()
	if sess == nil {
		return err
	}
	if err != nil {
		formatter.Warnf("%v", err)
	}
	return formatter.Print(newSessionView(sess, cfg.Token.Symbol, cfg.Token.Decimals))
}
