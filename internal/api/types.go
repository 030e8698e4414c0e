package api

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// CreateJobRequest is the wire form of a job creation. Amounts are decimal
// strings; addresses are 0x-prefixed hex.
type CreateJobRequest struct {
	Owner           string        `json:"owner"`
	Destination     string        `json:"destination"`
	AssetKind       string        `json:"asset_kind"`
	Token           string        `json:"token,omitempty"`
	Amount          *types.BigInt `json:"amount"`
	WindowStart     int64         `json:"window_start"`
	WindowEnd       int64         `json:"window_end"`
	ExecuteOnExpiry bool          `json:"execute_on_expiry"`
	EnforceFeeGate  bool          `json:"enforce_fee_gate"`
	MaxBaseFee      *types.BigInt `json:"max_base_fee,omitempty"`
	MaxPriorityFee  *types.BigInt `json:"max_priority_fee,omitempty"`
	MaxTotalFee     *types.BigInt `json:"max_total_fee,omitempty"`
	Memo            string        `json:"memo,omitempty"`
	Value           *types.BigInt `json:"value,omitempty"`
}

type CreateJobResponse struct {
	JobID uint64 `json:"job_id"`
}

// JobResponse is the wire form of a job.
type JobResponse struct {
	JobID           uint64        `json:"job_id"`
	Owner           string        `json:"owner"`
	Destination     string        `json:"destination"`
	Asset           string        `json:"asset"`
	Amount          *types.BigInt `json:"amount"`
	Network         string        `json:"network"`
	Status          string        `json:"status"`
	Nonce           uint64        `json:"nonce"`
	Memo            string        `json:"memo,omitempty"`
	WindowStart     int64         `json:"window_start"`
	WindowEnd       int64         `json:"window_end"`
	ExecuteOnExpiry bool          `json:"execute_on_expiry"`
	EnforceFeeGate  bool          `json:"enforce_fee_gate"`
	MaxBaseFee      *types.BigInt `json:"max_base_fee,omitempty"`
	MaxPriorityFee  *types.BigInt `json:"max_priority_fee,omitempty"`
	MaxTotalFee     *types.BigInt `json:"max_total_fee,omitempty"`
	CreatedAt       int64         `json:"created_at"`
	ExecutedAt      int64         `json:"executed_at,omitempty"`
	ExecutedBy      string        `json:"executed_by,omitempty"`
	ExecutedFee     *types.BigInt `json:"executed_fee,omitempty"`
	CanceledAt      int64         `json:"canceled_at,omitempty"`
}

func jobToResponse(job types.Job) JobResponse {
	resp := JobResponse{
		JobID:           job.ID,
		Owner:           job.Owner.Hex(),
		Destination:     job.Destination.Hex(),
		Asset:           job.Asset.String(),
		Amount:          types.NewBigInt(job.Amount),
		Network:         job.Network,
		Status:          string(job.Status),
		Nonce:           job.Nonce,
		Memo:            job.Memo,
		WindowStart:     job.Window.Start,
		WindowEnd:       job.Window.End,
		ExecuteOnExpiry: job.Window.ExecuteOnExpiry,
		EnforceFeeGate:  job.FeeGate.Enforced,
		MaxBaseFee:      types.NewBigInt(job.FeeGate.MaxBaseFee),
		MaxPriorityFee:  types.NewBigInt(job.FeeGate.MaxPriorityFee),
		MaxTotalFee:     types.NewBigInt(job.FeeGate.MaxTotalFee),
		CreatedAt:       job.CreatedAt,
		ExecutedAt:      job.ExecutedAt,
		CanceledAt:      job.CanceledAt,
	}
	if job.ExecutedAt != 0 {
		resp.ExecutedBy = job.ExecutedBy.Hex()
	}
	if job.ExecutedFee != nil {
		resp.ExecutedFee = types.NewBigInt(job.ExecutedFee.TotalFee)
	}
	return resp
}

type ExecuteJobRequest struct {
	Caller  string `json:"caller"`
	Network string `json:"network,omitempty"`
}

type CancelJobRequest struct {
	Caller string `json:"caller"`
}

type CanExecuteResponse struct {
	CanExecute bool   `json:"can_execute"`
	Reason     string `json:"reason,omitempty"`
}

type RelayerAuthRequest struct {
	Caller     string `json:"caller"`
	Relayer    string `json:"relayer"`
	Authorized bool   `json:"authorized"`
}

type PlatformFeeRequest struct {
	Caller    string `json:"caller"`
	FeeBps    uint32 `json:"fee_bps"`
	Collector string `json:"collector"`
}

type PlatformFeeResponse struct {
	FeeBps    uint32 `json:"fee_bps"`
	Collector string `json:"collector"`
}

type DepositRequest struct {
	Account   string        `json:"account"`
	AssetKind string        `json:"asset_kind"`
	Token     string        `json:"token,omitempty"`
	Amount    *types.BigInt `json:"amount"`
}

type BalanceResponse struct {
	Account string        `json:"account"`
	Asset   string        `json:"asset"`
	Balance *types.BigInt `json:"balance"`
}

type FeeReadingResponse struct {
	Network     string        `json:"network"`
	BaseFee     *types.BigInt `json:"base_fee"`
	PriorityFee *types.BigInt `json:"priority_fee"`
	TotalFee    *types.BigInt `json:"total_fee"`
	Source      string        `json:"source"`
	Timestamp   int64         `json:"timestamp"`
}

func readingToResponse(reading *types.FeeReading) *FeeReadingResponse {
	if reading == nil {
		return nil
	}
	return &FeeReadingResponse{
		Network:     reading.Network,
		BaseFee:     types.NewBigInt(reading.BaseFee),
		PriorityFee: types.NewBigInt(reading.PriorityFee),
		TotalFee:    types.NewBigInt(reading.TotalFee),
		Source:      reading.Source,
		Timestamp:   reading.Timestamp.Unix(),
	}
}

type ComparisonResponse struct {
	Network string              `json:"network"`
	Reading *FeeReadingResponse `json:"reading"`
}

type RecommendRequest struct {
	Preferred     []string      `json:"preferred"`
	Ceiling       *types.BigInt `json:"ceiling,omitempty"`
	AllowFallback bool          `json:"allow_fallback"`
}

type RecommendResponse struct {
	Network     string               `json:"network,omitempty"`
	Reading     *FeeReadingResponse  `json:"reading,omitempty"`
	Qualified   bool                 `json:"qualified"`
	Comparisons []ComparisonResponse `json:"comparisons,omitempty"`
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s is not a valid address: %q", field, value)
	}
	return common.HexToAddress(value), nil
}

func parseAsset(kind, token string) (types.Asset, error) {
	switch kind {
	case "", string(types.AssetNative):
		return types.NativeAsset(), nil
	case string(types.AssetToken):
		addr, err := parseAddress("token", token)
		if err != nil {
			return types.Asset{}, err
		}
		return types.TokenAsset(addr), nil
	default:
		return types.Asset{}, fmt.Errorf("unknown asset kind %q", kind)
	}
}
