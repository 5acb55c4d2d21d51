package airdrop

// User-facing notification messages.
const (
	MsgEnterAmount             = "Please enter amount"
	MsgEnterAmountAndAddresses = "Please enter amount and addresses"
	MsgApproving               = "Approving..."
	MsgApproved                = "Token approved!"
	MsgApproveFailed           = "Error approving token"
	MsgAllowanceCheckFailed    = "Error checking allowance"
	MsgAllowanceTooLow         = "Allowance is lower than the amount, approve first"
	MsgEstimateFailed          = "Error estimating gas fee"
	MsgNoApprovalRecorded      = "No approval recorded for this account, relying on the on-chain allowance"
	MsgSending                 = "Sending airdrop..."
	MsgSent                    = "Airdrop sent!"
	MsgSendFailed              = "Error sending message"
	MsgStatusFailed            = "Error reading destination chain"
	MsgWaiting                 = "Waiting for response..."
)

// Notifier shows short status messages to the user.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
}

// NopNotifier discards every message.
type NopNotifier struct{}

// Info implements Notifier.
func (NopNotifier) Info(string) {}

// Success implements Notifier.
func (NopNotifier) Success(string) {}

// Error implements Notifier.
func (NopNotifier) Error(string) {}
