package factorstudy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOneSampleTTest_ClearlyPositiveMeanIsSignificant(t *testing.T) {
	xs := []float64{0.05, 0.06, 0.04, 0.055, 0.045, 0.05, 0.06, 0.04, 0.05, 0.052}
	tStat, pValue, ok := OneSampleTTest(xs)
	assert.True(t, ok)
	assert.Greater(t, tStat, 0.0)
	assert.Less(t, pValue, 0.05)
}

func TestOneSampleTTest_ZeroMeanIsNotSignificant(t *testing.T) {
	xs := []float64{0.01, -0.01, 0.02, -0.02, 0.005, -0.005, 0.015, -0.015}
	_, pValue, ok := OneSampleTTest(xs)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, pValue, 0.05)
}

func TestOneSampleTTest_TooFewObservations(t *testing.T) {
	_, _, ok := OneSampleTTest([]float64{0.01})
	assert.False(t, ok)
}

func TestOneSampleTTest_ZeroVarianceIsDegenerate(t *testing.T) {
	xs := []float64{0.02, 0.02, 0.02, 0.02}
	_, _, ok := OneSampleTTest(xs)
	assert.False(t, ok)
}
