package airdrop

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Status is the airdrop state recorded by the destination contract.
type Status struct {
	TotalAmount  *big.Int         `json:"total_amount"`
	Recipients   []common.Address `json:"recipients"`
	PerRecipient *big.Int         `json:"per_recipient"`
	Remainder    *big.Int         `json:"remainder"`
	Waiting      bool             `json:"waiting"` // no recipients recorded yet
	Symbol       string           `json:"symbol"`
	Decimals     int              `json:"decimals"`
	CheckedAt    time.Time        `json:"checked_at"`
}

// FormatTotal renders TotalAmount in whole tokens.
func (s *Status) FormatTotal() string {
	return chain.FormatDecimalAmount(s.TotalAmount, s.Decimals)
}

// FormatPerRecipient renders PerRecipient in whole tokens.
func (s *Status) FormatPerRecipient() string {
	return chain.FormatDecimalAmount(s.PerRecipient, s.Decimals)
}

// Status reads amountReceived and getRecipients from the destination
// contract concurrently.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	if s.opts.Destination == nil {
		return nil, droperr.WithDetails(droperr.ErrContractRead, map[string]string{"reason": "no destination contract configured"})
	}

	var (
		total      *big.Int
		recipients []common.Address
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.opts.Destination.AmountReceived(gctx)
		total = v
		return err
	})
	g.Go(func() error {
		v, err := s.opts.Destination.Recipients(gctx)
		recipients = v
		return err
	})
	err := g.Wait()
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordStatusPoll(err)
	}
	if err != nil {
		return nil, err
	}

	if total == nil {
		total = new(big.Int)
	}
	share, remainder := chain.DivideAmount(total, len(recipients))
	return &Status{
		TotalAmount:  total,
		Recipients:   recipients,
		PerRecipient: share,
		Remainder:    remainder,
		Waiting:      len(recipients) == 0,
		Symbol:       s.opts.Symbol,
		Decimals:     s.opts.Decimals,
		CheckedAt:    time.Now().UTC(),
	}, nil
}

// Watch reads Status immediately and then every interval until ctx is
// done, handing each result to fn. Read errors are notified and logged
// and the loop keeps going. Returns nil when ctx ends.
func (s *Service) Watch(ctx context.Context, interval time.Duration, fn func(*Status)) error {
	if interval <= 0 {
		interval = s.opts.PollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := s.Status(ctx)
		switch {
		case err == nil:
			fn(st)
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		default:
			s.logger.Warn("status poll failed", zap.Error(err))
			s.opts.Notifier.Error(MsgStatusFailed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
