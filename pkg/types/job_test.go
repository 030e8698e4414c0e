package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestJobStatusIsTerminal(t *testing.T) {
	assert.False(t, JobStatusActive.IsTerminal())
	assert.True(t, JobStatusExecuted.IsTerminal())
	assert.True(t, JobStatusCanceled.IsTerminal())
}

func TestAssetString(t *testing.T) {
	assert.Equal(t, "native", NativeAsset().String())

	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	asset := TokenAsset(token)
	assert.False(t, asset.IsNative())
	assert.Equal(t, "token:"+token.Hex(), asset.String())
}

func TestFeeGateSatisfied(t *testing.T) {
	reading := NewFeeReading("sepolia", big.NewInt(30), big.NewInt(2), FeeSourceGasAPI)

	gate := FeeGate{Enforced: true}
	assert.True(t, gate.Satisfied(reading), "gate with no ceilings set is open")
	assert.False(t, gate.Satisfied(nil), "nil reading never satisfies")

	gate.MaxTotalFee = big.NewInt(32)
	assert.True(t, gate.Satisfied(reading), "ceiling is inclusive")

	gate.MaxTotalFee = big.NewInt(31)
	assert.False(t, gate.Satisfied(reading))

	gate = FeeGate{Enforced: true, MaxBaseFee: big.NewInt(29)}
	assert.False(t, gate.Satisfied(reading))

	gate = FeeGate{Enforced: true, MaxPriorityFee: big.NewInt(1)}
	assert.False(t, gate.Satisfied(reading))
}

func TestTimeWindowBoundaries(t *testing.T) {
	window := TimeWindow{Start: 100, End: 200}

	assert.False(t, window.Contains(99))
	assert.True(t, window.Contains(100), "start is inclusive")
	assert.True(t, window.Contains(200), "end is inclusive")
	assert.False(t, window.Contains(201))

	assert.False(t, window.Expired(200))
	assert.True(t, window.Expired(201))
}
