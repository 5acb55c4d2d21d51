package evm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/mrz1836/crossdrop/internal/chain"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// classifyRPCError marks transport failures retryable so reads go through
// chain.Retry. Node-side rejections are returned unchanged.
func classifyRPCError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", chain.ErrRateLimited, err)
		case httpErr.StatusCode >= http.StatusInternalServerError:
			return chain.WrapRetryable(err)
		default:
			return err
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", chain.ErrTimeout, err)
		}
		return chain.WrapRetryable(err)
	}

	if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
		return chain.WrapRetryable(err)
	}
	return err
}

// revertReason extracts the Solidity revert string carried by err, if any.
func revertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(s)); uerr == nil {
				return reason, true
			}
		}
	}

	msg := err.Error()
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		reason := strings.TrimSpace(strings.TrimPrefix(msg[i+len("execution reverted"):], ":"))
		return reason, true
	}
	return "", false
}

// mapTxError converts estimate and broadcast failures into DropErrors.
func mapTxError(err error, stage string) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient funds"):
		return droperr.WithCause(droperr.WithSuggestion(droperr.ErrInsufficientFunds,
			"fund the sender with the native token to cover gas and the Axelar fee"), err)
	case isRevert(err):
		reason, _ := revertReason(err)
		details := map[string]string{"stage": stage}
		if reason != "" {
			details["reason"] = reason
		}
		return droperr.WithCause(droperr.WithDetails(droperr.ErrTxReverted, details), err)
	case chain.IsRetryable(classifyRPCError(err)):
		return droperr.WithCause(droperr.ErrNetworkError, fmt.Errorf("%s: %w", stage, err))
	default:
		return droperr.WithCause(droperr.WithDetails(droperr.ErrTxRejected, map[string]string{"stage": stage}), err)
	}
}

func isRevert(err error) bool {
	_, ok := revertReason(err)
	return ok
}
