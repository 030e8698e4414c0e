package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// WaitForFeeBelow polls the network until the total fee drops to or below
// ceiling, returning the qualifying reading. The total wait is bounded by
// timeout; on expiry the wait fails explicitly instead of looping forever.
// Intended for deployment and bootstrap flows, not per-job monitoring.
func (c *Client) WaitForFeeBelow(ctx context.Context, network string, ceiling *big.Int, pollInterval, timeout time.Duration) (*types.FeeReading, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		reading, err := c.GetCurrentFeeReading(ctx, network)
		if err == nil && reading.TotalFee.Cmp(ceiling) <= 0 {
			return reading, nil
		}
		if err != nil {
			c.logger.Warnf("Fee read failed while waiting for fee drop on %s: %v", network, err)
		} else {
			c.logger.Debug("Fee still above ceiling",
				"network", network,
				"total_fee", reading.TotalFee.String(),
				"ceiling", ceiling.String(),
			)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for fee on %s to drop below %s: %w", network, ceiling.String(), ctx.Err())
		case <-ticker.C:
		}
	}
}
