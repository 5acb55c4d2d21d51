// Package airdrop runs the approve, send and status flow of a cross-chain
// airdrop: approve the source Airdrop contract to pull tokens, call
// sendToMany with the Axelar gas fee attached, and read what the
// destination contract received.
package airdrop

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mrz1836/crossdrop/internal/axelar"
	"github.com/mrz1836/crossdrop/internal/chain"
	"github.com/mrz1836/crossdrop/internal/chain/evm"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// Token is the ERC-20 being airdropped on the source chain.
type Token interface {
	Address() common.Address
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, signer *evm.Signer, spender common.Address, amount *big.Int) (*evm.PendingTx, error)
}

// Source is the Airdrop contract on the source chain.
type Source interface {
	Address() common.Address
	SendToMany(ctx context.Context, signer *evm.Signer, p evm.SendToMany) (*evm.PendingTx, error)
}

// Destination is the Airdrop contract on the destination chain.
type Destination interface {
	AmountReceived(ctx context.Context) (*big.Int, error)
	Recipients(ctx context.Context) ([]common.Address, error)
}

// ReceiptWaiter waits for source chain transactions to be mined.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, hash common.Hash, interval time.Duration) (*types.Receipt, error)
}

// FeeEstimator prices the cross-chain execution.
type FeeEstimator interface {
	EstimateGasFee(ctx context.Context, req axelar.FeeRequest) (*big.Int, error)
}

// Recorder counts transactions and status polls.
type Recorder interface {
	RecordTx(kind string, err error)
	RecordStatusPoll(err error)
}

// Options wires a Service. Destination and Fees are required for Status
// and Send respectively; Signer is required for Approve and Send.
type Options struct {
	Token       Token
	Source      Source
	Destination Destination
	Receipts    ReceiptWaiter
	Fees        FeeEstimator
	Signer      *evm.Signer

	FeeRequest          axelar.FeeRequest
	DestinationChain    string         // Axelar name of the destination chain
	DestinationContract common.Address // Airdrop contract on the destination
	Symbol              string         // gateway token symbol
	Decimals            int
	PollInterval        time.Duration

	Sessions *SessionStore // nil disables persistence
	Notifier Notifier
	Recorder Recorder
	Logger   *zap.Logger
}

// Service runs the airdrop flow.
type Service struct {
	opts   Options
	logger *zap.Logger
}

// TxResult is a mined approve or sendToMany transaction.
type TxResult struct {
	Tx         *evm.PendingTx
	Receipt    *types.Receipt
	Amount     *big.Int
	Fee        *big.Int         // send only
	Recipients []common.Address // send only
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{opts: opts, logger: logger.Named("airdrop")}
}

// Approve lets the source Airdrop contract pull amount tokens from the
// signer. On a mined approval the owner's session moves to PhaseSend.
func (s *Service) Approve(ctx context.Context, amount string) (*TxResult, error) {
	value, err := ValidateApprove(amount, s.opts.Decimals, s.opts.Notifier)
	if err != nil {
		return nil, err
	}
	if s.opts.Signer == nil {
		return nil, droperr.ErrKeyRequired
	}

	spender := s.opts.Source.Address()
	s.opts.Notifier.Info(MsgApproving)
	s.logger.Info("approving token",
		zap.String("token", s.opts.Token.Address().Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", value.String()))

	tx, err := s.opts.Token.Approve(ctx, s.opts.Signer, spender, value)
	if err != nil {
		return nil, s.txFailed("approve", MsgApproveFailed, err)
	}
	receipt, err := s.opts.Receipts.WaitForReceipt(ctx, tx.Hash, s.opts.PollInterval)
	if err != nil {
		return &TxResult{Tx: tx, Receipt: receipt, Amount: value}, s.txFailed("approve", MsgApproveFailed, err)
	}
	s.record("approve", nil)

	s.updateSession(func(sess *Session) {
		sess.Phase = PhaseSend
		sess.ApprovedAmount = value.String()
		hash := tx.Hash
		sess.ApproveTx = &hash
	})
	s.opts.Notifier.Success(MsgApproved)
	return &TxResult{Tx: tx, Receipt: receipt, Amount: value}, nil
}

// Send calls sendToMany on the source contract, splitting amount across
// recipients on the destination chain. recipients is a comma separated
// address list. The Axelar gas fee is paid as the transaction value.
//
//nolint:gocognit // Sequential validation and broadcast steps
func (s *Service) Send(ctx context.Context, amount, recipients string) (*TxResult, error) {
	value, addrs, err := ValidateSend(amount, recipients, s.opts.Decimals, s.opts.Notifier)
	if err != nil {
		return nil, err
	}
	if s.opts.Signer == nil {
		return nil, droperr.ErrKeyRequired
	}

	// The phase never gates send: the on-chain allowance decides.
	if sess, err := s.Session(); err == nil && sess.Phase == PhaseApprove {
		s.opts.Notifier.Info(MsgNoApprovalRecorded)
	}

	allowance, err := s.AllowanceOf(ctx, s.opts.Signer.Address())
	if err != nil {
		s.opts.Notifier.Error(MsgAllowanceCheckFailed)
		return nil, err
	}
	if allowance.Cmp(value) < 0 {
		s.opts.Notifier.Error(MsgAllowanceTooLow)
		return nil, droperr.WithSuggestion(droperr.WithDetails(droperr.ErrAllowanceTooLow, map[string]string{
			"allowance": chain.FormatDecimalAmount(allowance, s.opts.Decimals),
			"amount":    chain.FormatDecimalAmount(value, s.opts.Decimals),
		}), "run 'crossdrop approve --amount "+chain.FormatDecimalAmount(value, s.opts.Decimals)+"' first")
	}

	fee, err := s.EstimateFee(ctx)
	if err != nil {
		s.opts.Notifier.Error(MsgEstimateFailed)
		return nil, err
	}

	s.opts.Notifier.Info(MsgSending)
	s.logger.Info("sending airdrop",
		zap.String("destination", s.opts.DestinationChain),
		zap.Int("recipients", len(addrs)),
		zap.String("amount", value.String()),
		zap.String("fee", fee.String()))

	tx, err := s.opts.Source.SendToMany(ctx, s.opts.Signer, evm.SendToMany{
		DestinationChain:    s.opts.DestinationChain,
		DestinationContract: s.opts.DestinationContract,
		Recipients:          addrs,
		Symbol:              s.opts.Symbol,
		Amount:              value,
		GasFee:              fee,
	})
	if err != nil {
		return nil, s.txFailed("send", MsgSendFailed, err)
	}
	result := &TxResult{Tx: tx, Amount: value, Fee: fee, Recipients: addrs}

	result.Receipt, err = s.opts.Receipts.WaitForReceipt(ctx, tx.Hash, s.opts.PollInterval)
	if err != nil {
		return result, s.txFailed("send", MsgSendFailed, err)
	}
	s.record("send", nil)

	s.updateSession(func(sess *Session) {
		sess.Phase = PhaseSent
		sess.SentAmount = value.String()
		hash := tx.Hash
		sess.SendTx = &hash
		sess.Recipients = addrs
	})
	s.opts.Notifier.Success(MsgSent)
	return result, nil
}

// EstimateFee returns the Axelar gas fee for one sendToMany.
func (s *Service) EstimateFee(ctx context.Context) (*big.Int, error) {
	if s.opts.Fees == nil {
		return nil, droperr.WithDetails(droperr.ErrGasEstimate, map[string]string{"reason": "no estimator configured"})
	}
	return s.opts.Fees.EstimateGasFee(ctx, s.opts.FeeRequest)
}

// Allowance returns how much the source contract may pull from the signer.
func (s *Service) Allowance(ctx context.Context) (*big.Int, error) {
	if s.opts.Signer == nil {
		return nil, droperr.ErrKeyRequired
	}
	return s.AllowanceOf(ctx, s.opts.Signer.Address())
}

// AllowanceOf returns how much the source contract may pull from owner.
// Read failures are reported as ErrAllowanceCheck.
func (s *Service) AllowanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	allowance, err := s.opts.Token.Allowance(ctx, owner, s.opts.Source.Address())
	if err != nil {
		s.logger.Error("allowance check failed", zap.String("owner", owner.Hex()), zap.Error(err))
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrAllowanceCheck, map[string]string{
			"owner": owner.Hex(),
		}), err)
	}
	return allowance, nil
}

// Owner returns the signing account.
func (s *Service) Owner() (common.Address, error) {
	if s.opts.Signer == nil {
		return common.Address{}, droperr.ErrKeyRequired
	}
	return s.opts.Signer.Address(), nil
}

// ResetSession forgets the signer's flow state so the next approve starts
// from PhaseApprove.
func (s *Service) ResetSession() error {
	if s.opts.Signer == nil {
		return droperr.ErrKeyRequired
	}
	if s.opts.Sessions == nil {
		return nil
	}
	return s.opts.Sessions.Delete(s.opts.Signer.Address())
}

// Session returns the signer's persisted flow state.
func (s *Service) Session() (*Session, error) {
	if s.opts.Signer == nil {
		return nil, droperr.ErrKeyRequired
	}
	if s.opts.Sessions == nil {
		return &Session{Owner: s.opts.Signer.Address(), Phase: PhaseApprove}, nil
	}
	return s.opts.Sessions.Get(s.opts.Signer.Address())
}

func (s *Service) txFailed(kind, msg string, err error) error {
	s.record(kind, err)
	s.logger.Error(kind+" failed", zap.Error(err))
	if !errors.Is(err, context.Canceled) {
		s.opts.Notifier.Error(msg)
	}
	return err
}

func (s *Service) record(kind string, err error) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordTx(kind, err)
	}
}

func (s *Service) updateSession(fn func(*Session)) {
	if s.opts.Sessions == nil || s.opts.Signer == nil {
		return
	}
	sess, err := s.opts.Sessions.Get(s.opts.Signer.Address())
	if err != nil {
		s.logger.Warn("session state reset", zap.Error(err))
	}
	fn(sess)
	if err := s.opts.Sessions.Put(sess); err != nil {
		s.logger.Error("saving session", zap.String("path", s.opts.Sessions.Path()), zap.Error(err))
	}
}
