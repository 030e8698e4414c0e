package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasgate-labs/gasgate-backend/internal/ledger"
	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/internal/router"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

var (
	apiAdmin     = common.HexToAddress("0x00000000000000000000000000000000000000Ad")
	apiOwner     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	apiDest      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	apiCollector = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

type fixedClock struct {
	mutex sync.Mutex
	now   int64
}

func (c *fixedClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return time.Unix(c.now, 0)
}

func (c *fixedClock) set(now int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = now
}

type staticOracle struct {
	fees map[string]int64
}

func (s *staticOracle) GetCurrentFeeReading(ctx context.Context, network string) (*types.FeeReading, error) {
	total, ok := s.fees[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", oracle.ErrUnknownNetwork, network)
	}
	if total < 0 {
		return nil, errors.New("oracle unavailable")
	}
	return types.NewFeeReading(network, big.NewInt(total-1), big.NewInt(1), types.FeeSourceGasAPI), nil
}

func (s *staticOracle) CheckGate(ctx context.Context, network string, gate types.FeeGate) (*types.GateResult, error) {
	reading, err := s.GetCurrentFeeReading(ctx, network)
	if err != nil {
		return nil, err
	}
	return &types.GateResult{Meets: gate.Satisfied(reading), Reading: reading}, nil
}

type apiFixture struct {
	server *Server
	ledger *ledger.Ledger
	clock  *fixedClock
	oracle *staticOracle
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	clock := &fixedClock{now: 100}
	led := ledger.New(ledger.Config{
		Network:      "sepolia",
		Admin:        apiAdmin,
		FeeBps:       0,
		FeeCollector: apiCollector,
	}, nil, &logging.NoopLogger{}, ledger.WithClock(clock.Now))

	feeOracle := &staticOracle{fees: map[string]int64{"sepolia": 20, "ethereum": 40}}

	registry, err := oracle.NewRegistry([]oracle.Network{
		{Name: "ethereum", ChainID: 1, RPCURL: "http://eth.local", Fallback: true},
		{Name: "sepolia", ChainID: 11155111, RPCURL: "http://sepolia.local"},
	})
	require.NoError(t, err)
	netRouter, err := router.New(registry, feeOracle, &logging.NoopLogger{})
	require.NoError(t, err)

	server, err := NewServer(Deps{
		Ledger: led,
		Oracle: feeOracle,
		Router: netRouter,
		Logger: &logging.NoopLogger{},
	})
	require.NoError(t, err)

	return &apiFixture{server: server, ledger: led, clock: clock, oracle: feeOracle}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) fund(account common.Address, amount int64) {
	f.ledger.Book().Credit(account, types.NativeAsset(), big.NewInt(amount))
}

func (f *apiFixture) createJob(t *testing.T, req CreateJobRequest) uint64 {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/jobs", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp CreateJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.JobID
}

func baseCreateRequest(amount int64) CreateJobRequest {
	return CreateJobRequest{
		Owner:       apiOwner.Hex(),
		Destination: apiDest.Hex(),
		AssetKind:   "native",
		Amount:      types.NewBigInt(big.NewInt(amount)),
		WindowStart: 100,
		WindowEnd:   200,
		Value:       types.NewBigInt(big.NewInt(amount)),
	}
}

func TestCreateAndGetJob(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)

	jobID := f.createJob(t, baseCreateRequest(500))
	assert.Equal(t, uint64(1), jobID)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d", jobID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var job JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, apiOwner.Hex(), job.Owner)
	assert.Equal(t, "active", job.Status)
	assert.Equal(t, "500", job.Amount.String())
	assert.Equal(t, int64(200), job.WindowEnd)
}

func TestCreateJobValidation(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)

	req := baseCreateRequest(500)
	req.Destination = "not-an-address"
	rec := f.do(t, http.MethodPost, "/api/jobs", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Inverted window is a ledger-level rejection.
	req = baseCreateRequest(500)
	req.WindowEnd = 50
	rec = f.do(t, http.MethodPost, "/api/jobs", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unfunded owner.
	req = baseCreateRequest(5000)
	rec = f.do(t, http.MethodPost, "/api/jobs", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobNotFound(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/api/jobs/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/jobs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteJobThroughAPI(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)
	jobID := f.createJob(t, baseCreateRequest(500))

	f.clock.set(150)
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/execute", jobID), ExecuteJobRequest{Caller: apiDest.Hex()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var job JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "executed", job.Status)
	assert.Equal(t, apiDest.Hex(), job.ExecutedBy)

	bal := f.ledger.Book().Balance(apiDest, types.NativeAsset())
	assert.Equal(t, "500", bal.String())
}

func TestExecuteJobTooEarlyIsConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)

	req := baseCreateRequest(500)
	req.WindowStart = 150
	jobID := f.createJob(t, req)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/execute", jobID), ExecuteJobRequest{Caller: apiDest.Hex()})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExecuteGatedJobUsesLiveReading(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)

	req := baseCreateRequest(500)
	req.EnforceFeeGate = true
	req.MaxTotalFee = types.NewBigInt(big.NewInt(10))
	jobID := f.createJob(t, req)

	// Authorize the caller so the gate itself is what decides.
	require.NoError(t, f.ledger.SetRelayerAuthorization(apiAdmin, apiDest, true))
	f.clock.set(150)

	// Market total of 20 is over the 10 ceiling.
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/execute", jobID), ExecuteJobRequest{Caller: apiDest.Hex()})
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.oracle.fees["sepolia"] = 8
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/execute", jobID), ExecuteJobRequest{Caller: apiDest.Hex()})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestExecuteGatedJobOracleDownIsBadGateway(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)

	req := baseCreateRequest(500)
	req.EnforceFeeGate = true
	req.MaxTotalFee = types.NewBigInt(big.NewInt(10))
	jobID := f.createJob(t, req)

	f.clock.set(150)
	f.oracle.fees["sepolia"] = -1
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/execute", jobID), ExecuteJobRequest{Caller: apiDest.Hex()})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCancelJobThroughAPI(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)
	jobID := f.createJob(t, baseCreateRequest(500))

	// Only the owner may cancel.
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/cancel", jobID), CancelJobRequest{Caller: apiDest.Hex()})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/cancel", jobID), CancelJobRequest{Caller: apiOwner.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)

	var job JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "canceled", job.Status)

	bal := f.ledger.Book().Balance(apiOwner, types.NativeAsset())
	assert.Equal(t, "1000", bal.String())
}

func TestCanExecutePreview(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)
	jobID := f.createJob(t, baseCreateRequest(500))

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d/can-execute?caller=%s", jobID, apiDest.Hex()), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview CanExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.False(t, preview.CanExecute)
	assert.Equal(t, "too_early", preview.Reason)

	f.clock.set(150)
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d/can-execute?caller=%s", jobID, apiDest.Hex()), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.True(t, preview.CanExecute)
	assert.Empty(t, preview.Reason)
}

func TestListActiveJobs(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(apiOwner, 1000)
	f.createJob(t, baseCreateRequest(200))
	f.createJob(t, baseCreateRequest(300))

	rec := f.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 2)
}

func TestDepositAndBalance(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/balances/deposit", DepositRequest{
		Account:   apiOwner.Hex(),
		AssetKind: "native",
		Amount:    types.NewBigInt(big.NewInt(750)),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/balances/"+apiOwner.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var bal BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, "750", bal.Balance.String())

	rec = f.do(t, http.MethodPost, "/api/balances/deposit", DepositRequest{
		Account:   apiOwner.Hex(),
		AssetKind: "native",
		Amount:    types.NewBigInt(big.NewInt(-5)),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatformFeeAdmin(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPut, "/api/admin/platform-fee", PlatformFeeRequest{
		Caller:    apiOwner.Hex(),
		FeeBps:    100,
		Collector: apiCollector.Hex(),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/admin/platform-fee", PlatformFeeRequest{
		Caller:    apiAdmin.Hex(),
		FeeBps:    100,
		Collector: apiCollector.Hex(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/platform-fee", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fee PlatformFeeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fee))
	assert.Equal(t, uint32(100), fee.FeeBps)
	assert.Equal(t, apiCollector.Hex(), fee.Collector)
}

func TestFeeEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/fees/sepolia", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reading FeeReadingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reading))
	assert.Equal(t, "20", reading.TotalFee.String())

	rec = f.do(t, http.MethodGet, "/api/fees/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/fees/compare", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comparisons []ComparisonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comparisons))
	assert.Len(t, comparisons, 2)
}

func TestRecommendEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/fees/recommend", RecommendRequest{
		Preferred: []string{"sepolia"},
		Ceiling:   types.NewBigInt(big.NewInt(25)),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Qualified)
	assert.Equal(t, "sepolia", resp.Network)

	// Nothing under the ceiling: diagnostics come back instead of a pick.
	rec = f.do(t, http.MethodPost, "/api/fees/recommend", RecommendRequest{
		Preferred: []string{"sepolia"},
		Ceiling:   types.NewBigInt(big.NewInt(5)),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Qualified)
	assert.NotEmpty(t, resp.Comparisons)
}

func TestStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, "sepolia", status["network"])
}

func TestWatcherEndpointsWithoutWatcher(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/watcher/status", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
