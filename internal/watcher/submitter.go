package watcher

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// ExecuteSource is the ledger write surface submissions go through.
type ExecuteSource interface {
	Execute(caller common.Address, callerNetwork string, jobID uint64, observed *types.FeeReading) error
}

// LedgerSubmitter submits execute calls straight to an in-process ledger,
// identifying itself as the configured relayer.
type LedgerSubmitter struct {
	ledger  ExecuteSource
	relayer common.Address
	network string
}

func NewLedgerSubmitter(ledger ExecuteSource, relayer common.Address, network string) *LedgerSubmitter {
	return &LedgerSubmitter{
		ledger:  ledger,
		relayer: relayer,
		network: network,
	}
}

func (s *LedgerSubmitter) Submit(ctx context.Context, jobID uint64, observed *types.FeeReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.ledger.Execute(s.relayer, s.network, jobID, observed)
}

var _ Submitter = (*LedgerSubmitter)(nil)
