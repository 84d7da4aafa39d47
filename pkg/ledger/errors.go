package ledger

import "errors"

// Caller-recoverable failures. Handlers map these to HTTP statuses with
// errors.Is; the service never retries on its own.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSenderNotFound    = errors.New("sender user not found")
	ErrReceiverNotFound  = errors.New("receiver user not found")
	ErrInvalidAmount     = errors.New("amount must be greater than 0")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStatementNotFound = errors.New("statement not found")
)
