package types

import (
	"math/big"
	"time"
)

// Fee reading source tags.
const (
	FeeSourceGasAPI     = "gas_api"
	FeeSourceFeeHistory = "fee_history"
)

// FeeReading is a point-in-time observation of a network's fee market.
// TotalFee is always recomputed locally as BaseFee + PriorityFee so that
// units and summation stay consistent across sources.
type FeeReading struct {
	Network     string    `json:"network"`
	BaseFee     *big.Int  `json:"-"`
	PriorityFee *big.Int  `json:"-"`
	TotalFee    *big.Int  `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
}

// NewFeeReading builds a reading with the total recomputed from its parts.
func NewFeeReading(network string, baseFee, priorityFee *big.Int, source string) *FeeReading {
	return &FeeReading{
		Network:     network,
		BaseFee:     new(big.Int).Set(baseFee),
		PriorityFee: new(big.Int).Set(priorityFee),
		TotalFee:    new(big.Int).Add(baseFee, priorityFee),
		Timestamp:   time.Now().UTC(),
		Source:      source,
	}
}

// GateResult is the outcome of evaluating a fee gate against a live reading.
type GateResult struct {
	Meets   bool        `json:"meets"`
	Reading *FeeReading `json:"-"`
	Reason  string      `json:"reason,omitempty"`
}
