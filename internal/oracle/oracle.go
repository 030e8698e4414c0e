package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"

	httppkg "github.com/gasgate-labs/gasgate-backend/pkg/http"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

var (
	ErrOracleUnavailable = errors.New("fee oracle unavailable")
	ErrUnknownNetwork    = errors.New("unknown network")
)

// FeeOracle produces current fee readings for a network.
type FeeOracle interface {
	GetCurrentFeeReading(ctx context.Context, network string) (*types.FeeReading, error)
	CheckGate(ctx context.Context, network string, gate types.FeeGate) (*types.GateResult, error)
}

// Client reads fee prices from a per-network gas API, falling back to a
// node-level eth_feeHistory query when the primary source fails. Readings are
// not cached; callers decide polling cadence. The underlying HTTP connection
// pool is shared safely across concurrent callers.
type Client struct {
	registry   *Registry
	httpClient *httppkg.HTTPClient
	logger     logging.Logger
}

var _ FeeOracle = (*Client)(nil)

func NewClient(registry *Registry, httpClient *httppkg.HTTPClient, logger logging.Logger) *Client {
	if logger == nil {
		logger = &logging.NoopLogger{}
	}
	return &Client{
		registry:   registry,
		httpClient: httpClient,
		logger:     logger,
	}
}

// gasAPIResponse is the primary source's payload. Fees are decimal wei
// strings; the total reported by the source is ignored and recomputed
// locally.
type gasAPIResponse struct {
	BaseFeeWei     string `json:"base_fee_wei"`
	PriorityFeeWei string `json:"priority_fee_wei"`
}

// GetCurrentFeeReading queries the primary gas API and transparently falls
// back to the node fee-history query on any primary failure. Only when both
// sources fail does the read fail, with ErrOracleUnavailable.
func (c *Client) GetCurrentFeeReading(ctx context.Context, network string) (*types.FeeReading, error) {
	ep, ok := c.registry.Get(network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}

	reading, primaryErr := c.fetchFromGasAPI(ctx, ep)
	if primaryErr == nil {
		return reading, nil
	}
	c.logger.Debug("Primary fee source failed, falling back to fee history",
		"network", network,
		"error", primaryErr.Error(),
	)

	reading, fallbackErr := c.fetchFromFeeHistory(ctx, ep)
	if fallbackErr == nil {
		return reading, nil
	}

	return nil, fmt.Errorf("%w: primary: %v, fallback: %v", ErrOracleUnavailable, primaryErr, fallbackErr)
}

// CheckGate fetches a live reading and evaluates the fee gate against it.
// An unenforced gate is always open.
func (c *Client) CheckGate(ctx context.Context, network string, gate types.FeeGate) (*types.GateResult, error) {
	reading, err := c.GetCurrentFeeReading(ctx, network)
	if err != nil {
		return nil, err
	}

	if !gate.Enforced || gate.Satisfied(reading) {
		return &types.GateResult{Meets: true, Reading: reading}, nil
	}
	return &types.GateResult{
		Meets:   false,
		Reading: reading,
		Reason:  string(types.ReasonFeeTooHigh),
	}, nil
}

func (c *Client) fetchFromGasAPI(ctx context.Context, ep Network) (*types.FeeReading, error) {
	if ep.GasAPIURL == "" {
		return nil, fmt.Errorf("no gas API configured for network %s", ep.Name)
	}

	resp, err := c.httpClient.Get(ctx, ep.GasAPIURL)
	if err != nil {
		return nil, fmt.Errorf("gas API request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close gas API response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gas API returned status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gas API response: %w", err)
	}

	var parsed gasAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed gas API response: %w", err)
	}

	baseFee, ok := new(big.Int).SetString(parsed.BaseFeeWei, 10)
	if !ok {
		return nil, fmt.Errorf("malformed base fee %q", parsed.BaseFeeWei)
	}
	priorityFee, ok := new(big.Int).SetString(parsed.PriorityFeeWei, 10)
	if !ok {
		return nil, fmt.Errorf("malformed priority fee %q", parsed.PriorityFeeWei)
	}

	return types.NewFeeReading(ep.Name, baseFee, priorityFee, types.FeeSourceGasAPI), nil
}
