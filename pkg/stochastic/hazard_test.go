package stochastic_test

import (
	"testing"

	"github.com/jihwankim/faultsched/pkg/stochastic"
	"github.com/stretchr/testify/require"
)

// constSource always returns the same Float64 value, letting tests pin
// the "random draw" side of a hazard comparison.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func TestExponentialHazard_MTTF1AlwaysFires(t *testing.T) {
	require.True(t, stochastic.ExponentialHazard(constSource(0.999999), 1))
}

func TestExponentialHazard_RespectsThreshold(t *testing.T) {
	// mttf=10 -> lambda=0.1; a draw just above 0.1 must not fire.
	require.False(t, stochastic.ExponentialHazard(constSource(0.2), 10))
	require.True(t, stochastic.ExponentialHazard(constSource(0.05), 10))
}

func TestWeibullHazard_Shape1MatchesExponential(t *testing.T) {
	const mttf = 5.0
	for _, draw := range []float64{0.1, 0.19, 0.21, 0.5} {
		exp := stochastic.ExponentialHazard(constSource(draw), mttf)
		wei := stochastic.WeibullHazard(constSource(draw), 1, mttf, 42)
		require.Equal(t, exp, wei, "draw=%v", draw)
	}
}

func TestWeibullHazard_ShapeGreaterThanOneIncreasesWithTime(t *testing.T) {
	const mttf = 10.0
	const shape = 2.0
	src := constSource(0.5)
	early := stochastic.WeibullHazard(src, shape, mttf, 1)
	late := stochastic.WeibullHazard(src, shape, mttf, 50)
	// A fixed draw that misses the early (low) hazard should catch the
	// later (higher) one for an increasing failure rate.
	require.False(t, early)
	require.True(t, late)
}

func TestNormalHazard_BelowTableFloorNeverFires(t *testing.T) {
	// z = (t-mu)/sigma far below the table's -3.719 floor.
	require.False(t, stochastic.NormalHazard(constSource(0), 1000, 1, 0))
}

func TestNormalHazard_AtMeanCanFire(t *testing.T) {
	require.True(t, stochastic.NormalHazard(constSource(0), 100, 10, 100))
}
