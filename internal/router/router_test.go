package router

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// scriptedOracle returns a fixed total fee per network, or an error for
// networks listed in failing.
type scriptedOracle struct {
	fees    map[string]int64
	failing map[string]bool
}

func (s *scriptedOracle) GetCurrentFeeReading(ctx context.Context, network string) (*types.FeeReading, error) {
	if s.failing[network] {
		return nil, errors.New("oracle unavailable")
	}
	total, ok := s.fees[network]
	if !ok {
		return nil, errors.New("unknown network")
	}
	return types.NewFeeReading(network, big.NewInt(total-1), big.NewInt(1), types.FeeSourceGasAPI), nil
}

func (s *scriptedOracle) CheckGate(ctx context.Context, network string, gate types.FeeGate) (*types.GateResult, error) {
	reading, err := s.GetCurrentFeeReading(ctx, network)
	if err != nil {
		return nil, err
	}
	return &types.GateResult{Meets: gate.Satisfied(reading), Reading: reading}, nil
}

func newTestRouter(t *testing.T, feeOracle oracle.FeeOracle) *Router {
	t.Helper()
	registry, err := oracle.NewRegistry([]oracle.Network{
		{Name: "ethereum", ChainID: 1, RPCURL: "http://eth.local", Fallback: true},
		{Name: "optimism", ChainID: 10, RPCURL: "http://op.local"},
		{Name: "arbitrum", ChainID: 42161, RPCURL: "http://arb.local"},
		{Name: "base", ChainID: 8453, RPCURL: "http://base.local"},
	})
	require.NoError(t, err)
	r, err := New(registry, feeOracle, &logging.NoopLogger{})
	require.NoError(t, err)
	return r
}

func feesByNetwork(comparisons []Comparison) map[string]string {
	out := make(map[string]string, len(comparisons))
	for _, c := range comparisons {
		out[c.Network] = c.Reading.TotalFee.String()
	}
	return out
}

func TestCompareAllDropsFailures(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees:    map[string]int64{"ethereum": 40, "optimism": 5, "arbitrum": 8, "base": 5},
		failing: map[string]bool{"arbitrum": true},
	}
	r := newTestRouter(t, feeOracle)

	comparisons := r.CompareAll(context.Background())
	got := feesByNetwork(comparisons)

	assert.Len(t, comparisons, 3)
	assert.Equal(t, "40", got["ethereum"])
	assert.Equal(t, "5", got["optimism"])
	assert.NotContains(t, got, "arbitrum")
}

func TestCheapestPicksMinimum(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"ethereum": 40, "optimism": 5, "arbitrum": 8},
	}
	r := newTestRouter(t, feeOracle)

	best, err := r.Cheapest(context.Background(), []string{"ethereum", "optimism", "arbitrum"})
	require.NoError(t, err)
	assert.Equal(t, "optimism", best.Network)
	assert.Equal(t, "5", best.Reading.TotalFee.String())
}

func TestCheapestTieGoesToFirstListed(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"optimism": 5, "base": 5, "arbitrum": 5},
	}
	r := newTestRouter(t, feeOracle)

	best, err := r.Cheapest(context.Background(), []string{"base", "optimism", "arbitrum"})
	require.NoError(t, err)
	assert.Equal(t, "base", best.Network)

	best, err = r.Cheapest(context.Background(), []string{"arbitrum", "base", "optimism"})
	require.NoError(t, err)
	assert.Equal(t, "arbitrum", best.Network)
}

func TestCheapestAllCandidatesFailing(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees:    map[string]int64{"optimism": 5},
		failing: map[string]bool{"optimism": true},
	}
	r := newTestRouter(t, feeOracle)

	_, err := r.Cheapest(context.Background(), []string{"optimism"})
	assert.Error(t, err)

	_, err = r.Cheapest(context.Background(), nil)
	assert.Error(t, err)
}

func TestRecommendUnderCeiling(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"ethereum": 40, "optimism": 12, "arbitrum": 8},
	}
	r := newTestRouter(t, feeOracle)

	best, err := r.Recommend(context.Background(), []string{"optimism", "arbitrum"}, big.NewInt(10), false)
	require.NoError(t, err)
	assert.Equal(t, "arbitrum", best.Network)
}

func TestRecommendCeilingIsInclusive(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"optimism": 10},
	}
	r := newTestRouter(t, feeOracle)

	best, err := r.Recommend(context.Background(), []string{"optimism"}, big.NewInt(10), false)
	require.NoError(t, err)
	assert.Equal(t, "optimism", best.Network)
}

func TestRecommendFallsBackToBaseNetwork(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"ethereum": 9, "optimism": 20, "arbitrum": 30},
	}
	r := newTestRouter(t, feeOracle)

	// Preferred networks are all over the ceiling; the fallback qualifies.
	best, err := r.Recommend(context.Background(), []string{"optimism", "arbitrum"}, big.NewInt(10), true)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", best.Network)

	// Without fallback permission the same call reports no qualifier.
	_, err = r.Recommend(context.Background(), []string{"optimism", "arbitrum"}, big.NewInt(10), false)
	assert.ErrorIs(t, err, ErrNoNetworkQualifies)
}

func TestRecommendNoQualifierCarriesComparisons(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"ethereum": 50, "optimism": 20, "arbitrum": 30},
	}
	r := newTestRouter(t, feeOracle)

	_, err := r.Recommend(context.Background(), []string{"optimism", "arbitrum"}, big.NewInt(10), true)
	require.Error(t, err)

	var noQualifier *NoQualifyingNetworkError
	require.ErrorAs(t, err, &noQualifier)
	assert.ErrorIs(t, err, ErrNoNetworkQualifies)
	assert.Equal(t, "10", noQualifier.Ceiling.String())
	// The fallback was considered, so its reading is in the diagnostics too.
	assert.Len(t, noQualifier.Comparisons, 3)
}

func TestRecommendNilCeilingMeansNoLimit(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"optimism": 20, "arbitrum": 30},
	}
	r := newTestRouter(t, feeOracle)

	best, err := r.Recommend(context.Background(), []string{"arbitrum", "optimism"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "optimism", best.Network)
}

func TestRecommendPreferredBeatsFallbackEvenWhenPricier(t *testing.T) {
	feeOracle := &scriptedOracle{
		fees: map[string]int64{"ethereum": 2, "optimism": 8},
	}
	r := newTestRouter(t, feeOracle)

	// A qualifying preferred network wins even if the fallback is cheaper.
	best, err := r.Recommend(context.Background(), []string{"optimism"}, big.NewInt(10), true)
	require.NoError(t, err)
	assert.Equal(t, "optimism", best.Network)
}
