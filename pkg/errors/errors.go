// Package errors provides structured error handling for crossdrop.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Key or keystore could not be unlocked
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Insufficient funds or allowance
)

// DropError is the structured error type for crossdrop.
type DropError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *DropError) Error() string {
	msg := e.Message

	// Details are sorted for deterministic output
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DropError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for DropError.
func (e *DropError) Is(target error) bool {
	var t *DropError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &DropError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &DropError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &DropError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrInsufficientFunds = &DropError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds for transaction",
		ExitCode: ExitPermission,
	}

	// Input errors.
	ErrAmountRequired = &DropError{
		Code:     "AMOUNT_REQUIRED",
		Message:  "please enter amount",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &DropError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrRecipientsRequired = &DropError{
		Code:     "RECIPIENTS_REQUIRED",
		Message:  "please enter amount and addresses",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &DropError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrDuplicateRecipient = &DropError{
		Code:     "DUPLICATE_RECIPIENT",
		Message:  "recipient listed more than once",
		ExitCode: ExitInput,
	}

	ErrUnknownNetwork = &DropError{
		Code:     "UNKNOWN_NETWORK",
		Message:  "unknown network",
		ExitCode: ExitInput,
	}

	// Allowance errors.
	ErrAllowanceCheck = &DropError{
		Code:     "ALLOWANCE_CHECK_FAILED",
		Message:  "error checking allowance",
		ExitCode: ExitGeneral,
	}

	ErrAllowanceTooLow = &DropError{
		Code:     "ALLOWANCE_TOO_LOW",
		Message:  "token allowance is lower than the airdrop amount",
		ExitCode: ExitPermission,
	}

	// Chain errors.
	ErrNetworkError = &DropError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrTxRejected = &DropError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected by network",
		ExitCode: ExitGeneral,
	}

	ErrTxReverted = &DropError{
		Code:     "TX_REVERTED",
		Message:  "transaction reverted",
		ExitCode: ExitGeneral,
	}

	ErrReceiptTimeout = &DropError{
		Code:     "RECEIPT_TIMEOUT",
		Message:  "timed out waiting for transaction receipt",
		ExitCode: ExitGeneral,
	}

	ErrContractRead = &DropError{
		Code:     "CONTRACT_READ_FAILED",
		Message:  "contract read failed",
		ExitCode: ExitGeneral,
	}

	ErrGasEstimate = &DropError{
		Code:     "GAS_ESTIMATE_FAILED",
		Message:  "gas fee estimation failed",
		ExitCode: ExitGeneral,
	}

	ErrInvalidChainID = &DropError{
		Code:     "INVALID_CHAIN_ID",
		Message:  "chain ID does not match configuration",
		ExitCode: ExitInput,
	}

	// Key errors.
	ErrKeyRequired = &DropError{
		Code:     "KEY_REQUIRED",
		Message:  "signing key is required",
		ExitCode: ExitAuth,
	}

	ErrKeyInvalid = &DropError{
		Code:     "KEY_INVALID",
		Message:  "signing key could not be loaded",
		ExitCode: ExitAuth,
	}

	// Config errors.
	ErrConfigNotFound = &DropError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &DropError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &DropError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	// Deployment errors.
	ErrArtifactInvalid = &DropError{
		Code:     "ARTIFACT_INVALID",
		Message:  "contract artifact is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new DropError with the given code and message.
func New(code, message string) *DropError {
	return &DropError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var de *DropError
	if errors.As(err, &de) {
		return &DropError{
			Code:       de.Code,
			Message:    fmt.Sprintf("%s: %s", msg, de.Message),
			Details:    de.Details,
			Suggestion: de.Suggestion,
			Cause:      err,
			ExitCode:   de.ExitCode,
		}
	}

	return &DropError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause attaches an underlying cause while keeping the sentinel identity.
func WithCause(err, cause error) error {
	if err == nil {
		return nil
	}

	var de *DropError
	if errors.As(err, &de) {
		return &DropError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    de.Details,
			Suggestion: de.Suggestion,
			Cause:      cause,
			ExitCode:   de.ExitCode,
		}
	}

	return fmt.Errorf("%w: %w", err, cause)
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var de *DropError
	if errors.As(err, &de) {
		return &DropError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    details,
			Suggestion: de.Suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DropError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var de *DropError
	if errors.As(err, &de) {
		return &DropError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    de.Details,
			Suggestion: suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DropError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var de *DropError
	if errors.As(err, &de) {
		return de.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var de *DropError
	if errors.As(err, &de) {
		return de.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
