package events

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	JobCreated  EventType = "JOB_CREATED"
	JobExecuted EventType = "JOB_EXECUTED"
	JobCanceled EventType = "JOB_CANCELED"

	RelayerAuthorized EventType = "RELAYER_AUTHORIZED"
	RelayerRevoked    EventType = "RELAYER_REVOKED"

	FeeUpdated EventType = "FEE_UPDATED"
)

type JobCreatedEvent struct {
	JobID       uint64         `json:"job_id"`
	Owner       common.Address `json:"owner"`
	Destination common.Address `json:"destination"`
	Asset       string         `json:"asset"`
	Amount      *big.Int       `json:"amount"`
	Network     string         `json:"network"`
	WindowStart int64          `json:"window_start"`
	WindowEnd   int64          `json:"window_end"`
	MaxTotalFee *big.Int       `json:"max_total_fee,omitempty"`
	Enforced    bool           `json:"enforced"`
}

type JobExecutedEvent struct {
	JobID       uint64         `json:"job_id"`
	Executor    common.Address `json:"executor"`
	Amount      *big.Int       `json:"amount"`
	PlatformFee *big.Int       `json:"platform_fee"`
	TotalFee    *big.Int       `json:"total_fee,omitempty"` // observed fee snapshot, if any
	Timestamp   time.Time      `json:"timestamp"`
}

type JobCanceledEvent struct {
	JobID     uint64         `json:"job_id"`
	Owner     common.Address `json:"owner"`
	Refunded  *big.Int       `json:"refunded"`
	Timestamp time.Time      `json:"timestamp"`
}

type RelayerAuthorizedEvent struct {
	Relayer common.Address `json:"relayer"`
}

type RelayerRevokedEvent struct {
	Relayer common.Address `json:"relayer"`
}

type FeeUpdatedEvent struct {
	FeeBps    uint32         `json:"fee_bps"`
	Collector common.Address `json:"collector"`
}

// Event represents a generic event in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}
