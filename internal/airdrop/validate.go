package airdrop

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// ValidateApprove parses the approve amount in token base units. Problems
// are reported to n before any chain is touched.
func ValidateApprove(amount string, decimals int, n Notifier) (*big.Int, error) {
	return parseAmount(amount, decimals, notifierOrNop(n), MsgEnterAmount)
}

// ValidateSend parses the send amount and recipient list. A missing amount
// is ErrAmountRequired, a missing list ErrRecipientsRequired; both notify
// MsgEnterAmountAndAddresses.
func ValidateSend(amount, recipients string, decimals int, n Notifier) (*big.Int, []common.Address, error) {
	n = notifierOrNop(n)
	if strings.TrimSpace(amount) == "" {
		n.Error(MsgEnterAmountAndAddresses)
		return nil, nil, droperr.ErrAmountRequired
	}
	if strings.TrimSpace(recipients) == "" {
		n.Error(MsgEnterAmountAndAddresses)
		return nil, nil, droperr.ErrRecipientsRequired
	}
	value, err := parseAmount(amount, decimals, n, MsgEnterAmountAndAddresses)
	if err != nil {
		return nil, nil, err
	}
	addrs, err := ParseRecipients(recipients)
	if err != nil {
		n.Error(err.Error())
		return nil, nil, err
	}
	return value, addrs, nil
}

// parseAmount treats an empty or zero amount as missing.
func parseAmount(amount string, decimals int, n Notifier, missingMsg string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		n.Error(missingMsg)
		return nil, droperr.ErrAmountRequired
	}
	value, err := chain.ParseDecimalAmount(amount, decimals, droperr.ErrInvalidAmount)
	if err != nil {
		n.Error(err.Error())
		return nil, droperr.WithDetails(err, map[string]string{
			"amount":   amount,
			"decimals": strconv.Itoa(decimals),
		})
	}
	if value.Sign() == 0 {
		n.Error(missingMsg)
		return nil, droperr.ErrAmountRequired
	}
	return value, nil
}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return NopNotifier{}
	}
	return n
}
