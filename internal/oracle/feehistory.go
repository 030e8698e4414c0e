package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// rpcPayload represents the JSON-RPC request payload
type rpcPayload struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

// rpcResponse represents the JSON-RPC response structure
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC error
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// feeHistoryResult is the eth_feeHistory response body. baseFeePerGas has one
// more entry than the requested block count; its last entry is the base fee
// expected for the next block.
type feeHistoryResult struct {
	OldestBlock   string     `json:"oldestBlock"`
	BaseFeePerGas []string   `json:"baseFeePerGas"`
	GasUsedRatio  []float64  `json:"gasUsedRatio"`
	Reward        [][]string `json:"reward"`
}

// fetchFromFeeHistory queries the network's node for recent fee history and
// derives a reading from the next-block base fee and the median priority fee
// of the latest block.
func (c *Client) fetchFromFeeHistory(ctx context.Context, ep Network) (*types.FeeReading, error) {
	payload := rpcPayload{
		JSONRPC: "2.0",
		Method:  "eth_feeHistory",
		Params:  []interface{}{"0x1", "latest", []int{50}},
		ID:      1,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, ep.RPCURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("fee history request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close fee history response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fee history response: %w", err)
	}

	var response rpcResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fee history response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("RPC error: %s (code: %d)", response.Error.Message, response.Error.Code)
	}

	var result feeHistoryResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, fmt.Errorf("malformed fee history result: %w", err)
	}
	if len(result.BaseFeePerGas) == 0 {
		return nil, fmt.Errorf("fee history result has no base fees")
	}

	baseFee, err := hexutil.DecodeBig(result.BaseFeePerGas[len(result.BaseFeePerGas)-1])
	if err != nil {
		return nil, fmt.Errorf("malformed base fee: %w", err)
	}

	priorityFee := big.NewInt(0)
	if len(result.Reward) > 0 && len(result.Reward[len(result.Reward)-1]) > 0 {
		priorityFee, err = hexutil.DecodeBig(result.Reward[len(result.Reward)-1][0])
		if err != nil {
			return nil, fmt.Errorf("malformed priority fee: %w", err)
		}
	}

	return types.NewFeeReading(ep.Name, baseFee, priorityFee, types.FeeSourceFeeHistory), nil
}
