package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// JobStatus is the lifecycle state of a transfer job. A job starts Active and
// makes exactly one transition, to Executed or to Canceled.
type JobStatus string

const (
	JobStatusActive   JobStatus = "active"
	JobStatusExecuted JobStatus = "executed"
	JobStatusCanceled JobStatus = "canceled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusExecuted || s == JobStatusCanceled
}

// AssetKind distinguishes the network's native currency from fungible tokens.
type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetToken  AssetKind = "token"
)

// Asset identifies what a job holds in custody: the native currency, or an
// ERC20 token by contract address.
type Asset struct {
	Kind  AssetKind      `json:"kind"`
	Token common.Address `json:"token,omitempty"`
}

func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

func TokenAsset(token common.Address) Asset {
	return Asset{Kind: AssetToken, Token: token}
}

func (a Asset) IsNative() bool {
	return a.Kind == AssetNative
}

func (a Asset) String() string {
	if a.IsNative() {
		return string(AssetNative)
	}
	return fmt.Sprintf("%s:%s", AssetToken, a.Token.Hex())
}

// FeeGate holds the fee-price ceilings a gated execution must satisfy.
// A nil ceiling means no limit on that component. If Enforced is false the
// gate is always considered open.
type FeeGate struct {
	MaxBaseFee     *big.Int
	MaxPriorityFee *big.Int
	MaxTotalFee    *big.Int
	Enforced       bool
}

// Satisfied reports whether the reading is at or below every set ceiling.
// Each check is skipped when its ceiling is unset.
func (g FeeGate) Satisfied(reading *FeeReading) bool {
	if reading == nil {
		return false
	}
	if g.MaxBaseFee != nil && reading.BaseFee.Cmp(g.MaxBaseFee) > 0 {
		return false
	}
	if g.MaxPriorityFee != nil && reading.PriorityFee.Cmp(g.MaxPriorityFee) > 0 {
		return false
	}
	if g.MaxTotalFee != nil && reading.TotalFee.Cmp(g.MaxTotalFee) > 0 {
		return false
	}
	return true
}

// TimeWindow is the [Start, End] interval (unix seconds, inclusive on both
// ends) during which a job is eligible for gated execution. ExecuteOnExpiry
// governs behavior after End: when set, execution past the window is allowed
// at market price and the fee gate is bypassed.
type TimeWindow struct {
	Start           int64 `json:"start"`
	End             int64 `json:"end"`
	ExecuteOnExpiry bool  `json:"execute_on_expiry"`
}

// Contains reports whether now falls within the window, inclusive of both ends.
func (w TimeWindow) Contains(now int64) bool {
	return now >= w.Start && now <= w.End
}

// Expired reports whether the window has passed.
func (w TimeWindow) Expired(now int64) bool {
	return now > w.End
}

// Job is a deferred transfer held in custody until execution or cancellation.
type Job struct {
	ID          uint64
	Owner       common.Address
	Destination common.Address
	Asset       Asset
	Amount      *big.Int
	FeeGate     FeeGate
	Window      TimeWindow
	Network     string
	Status      JobStatus
	Nonce       uint64
	Memo        string
	CreatedAt   int64

	// Execution metadata, populated on the terminal transition.
	ExecutedAt  int64
	ExecutedBy  common.Address
	ExecutedFee *FeeReading
	CanceledAt  int64
}

// ExecReason is the blocking reason reported by the ledger's execution
// predicate. The empty reason means execution would succeed.
type ExecReason string

const (
	ReasonNone          ExecReason = ""
	ReasonJobNotActive  ExecReason = "job_not_active"
	ReasonWrongNetwork  ExecReason = "wrong_network"
	ReasonTooEarly      ExecReason = "too_early"
	ReasonWindowExpired ExecReason = "window_expired"
	ReasonUnauthorized  ExecReason = "unauthorized"
	ReasonFeeTooHigh    ExecReason = "fee_too_high"
)
