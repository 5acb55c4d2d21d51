package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/airdrop"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	statusWatch    bool
	statusInterval time.Duration
)

// statusCmd reads the airdrop state on the destination chain.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show what the destination contract received",
	GroupID: groupAirdrop,
	Long: `Read amountReceived and the recipient list from the destination Airdrop
contract and show each recipient's share.

Until the Axelar message executes on the destination chain there are no
recipients and the status reads "Waiting for response...". With --watch the
command keeps polling until interrupted.`,
	Example: `  crossdrop status
  crossdrop status --watch --interval 10s`,
	RunE: runStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "keep polling until interrupted")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 0, "poll interval for --watch (default from watch.interval)")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, err := newAirdropFn(ctx, cmdCtx, needDestination)
	if err != nil {
		return err
	}

	network := cfg.Destination.Name
	if !statusWatch {
		st, err := svc.Status(ctx)
		if err != nil {
			formatter.Error(airdrop.MsgStatusFailed)
			return err
		}
		return formatter.Print(newStatusView(network, st))
	}

	interval := statusInterval
	if interval <= 0 {
		interval = cfg.Watch.Interval
	}

	// Print only changes so a long watch stays readable.
	var last string
	return svc.Watch(ctx, interval, func(st *airdrop.Status) {
		v := newStatusView(network, st)
		key := v.Total + "|" + v.PerRecipient + "|" + strings.Join(v.Recipients, ",")
		if key == last {
			return
		}
		last = key
		if err := formatter.Print(v); err != nil {
			logger.Error("printing status: %v", err)
		}
	})
}

