package ledger

import (
	"errors"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// Validation errors, surfaced synchronously at creation and never retried.
var (
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidWindow    = errors.New("invalid time window")
	ErrFundingMismatch  = errors.New("attached funding does not match job amount")
)

// State and gate errors, matching the execute guard chain.
var (
	ErrJobNotFound   = errors.New("job not found")
	ErrJobNotActive  = errors.New("job is not active")
	ErrWrongNetwork  = errors.New("caller network does not match job network")
	ErrTooEarly      = errors.New("time window has not opened")
	ErrWindowExpired = errors.New("time window has expired")
	ErrUnauthorized  = errors.New("caller is not an authorized relayer")
	ErrFeeTooHigh    = errors.New("observed fee exceeds gate ceiling")
)

// Admin and bookkeeping errors.
var (
	ErrNotOwner          = errors.New("caller is not the job owner")
	ErrNotAdmin          = errors.New("caller is not the ledger admin")
	ErrInvalidFeeBps     = errors.New("platform fee must be at most 1000 bps")
	ErrInvalidCollector  = errors.New("fee collector address must be set")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// reasonError maps an execution-predicate reason to its sentinel error.
func reasonError(reason types.ExecReason) error {
	switch reason {
	case types.ReasonJobNotActive:
		return ErrJobNotActive
	case types.ReasonWrongNetwork:
		return ErrWrongNetwork
	case types.ReasonTooEarly:
		return ErrTooEarly
	case types.ReasonWindowExpired:
		return ErrWindowExpired
	case types.ReasonUnauthorized:
		return ErrUnauthorized
	case types.ReasonFeeTooHigh:
		return ErrFeeTooHigh
	default:
		return nil
	}
}
