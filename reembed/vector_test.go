package reembed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector_UnitLength(t *testing.T) {
	v := []float32{3, 4}
	normalized := NormalizeVector(v)

	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)

	var magnitude float64
	for _, val := range normalized {
		magnitude += float64(val) * float64(val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)
}

func TestNormalizeVector_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	normalized := NormalizeVector(v)

	assert.Len(t, normalized, 3)
	for _, val := range normalized {
		assert.Zero(t, val)
	}
}

func TestNormalizeVector_Empty(t *testing.T) {
	assert.Empty(t, NormalizeVector(nil))
	assert.Empty(t, NormalizeVector([]float32{}))
}

func TestNormalizeVector_DoesNotMutateInput(t *testing.T) {
	v := []float32{2, 0}
	_ = NormalizeVector(v)
	assert.Equal(t, float32(2), v[0])
}
