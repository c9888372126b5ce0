package tsne

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrateRow_ReachesTargetEntropy(t *testing.T) {
	dist := []float64{0, 1, 1, 1}
	row := make([]float64, len(dist))

	c := calibrateRow(dist, -1, 2, row)

	require.True(t, c.Converged, "steps=%d entropy=%v", c.Steps, c.Entropy)
	assert.InDelta(t, math.Log(2), c.Entropy, perplexityTol)
	assert.InDelta(t, 1.0, total(row), 1e-12)
	assert.InDelta(t, 2.0, rowPerplexity(row), 1e-3)
	// The zero-distance entry always carries the most mass.
	for j := 1; j < len(row); j++ {
		assert.Greater(t, row[0], row[j])
	}
}

func TestCalibrateRow_SelfCarriesNoMass(t *testing.T) {
	dist := []float64{0, 1, 4, 9, 16}
	row := make([]float64, len(dist))

	c := calibrateRow(dist, 0, 2, row)

	require.True(t, c.Converged)
	assert.Less(t, row[0], 1e-300)
	assert.InDelta(t, 1.0, total(row), 1e-12)
}

func TestCalibrateRow_EquidistantNeighbors(t *testing.T) {
	// With self excluded the three neighbors are interchangeable, so they
	// must share the mass evenly whatever beta the search settles on.
	dist := []float64{0, 1, 1, 1}
	row := make([]float64, len(dist))

	c := calibrateRow(dist, 0, 2, row)

	assert.LessOrEqual(t, c.Steps, perplexityMaxSteps)
	assert.False(t, math.IsNaN(c.Beta))
	for j := 1; j < len(row); j++ {
		assert.False(t, math.IsNaN(row[j]))
		assert.Equal(t, row[1], row[j])
	}
	assert.InDelta(t, 1.0, total(row), 1e-3)
}

func TestCalibrateRow_PerplexityTracksTarget(t *testing.T) {
	n := 200
	dist := make([]float64, n)
	for j := range dist {
		dist[j] = float64(j) * 0.05
	}
	row := make([]float64, n)

	for _, perp := range []float64{5, 15, 30, 50} {
		c := calibrateRow(dist, -1, perp, row)
		require.True(t, c.Converged, "perplexity %v", perp)
		assert.InDelta(t, perp, rowPerplexity(row), perp*1e-4, "perplexity %v", perp)
	}
}

func TestCalibrateRow_BetaGrowsWithSmallerPerplexity(t *testing.T) {
	dist := []float64{0.1, 0.4, 0.9, 1.6, 2.5, 3.6, 4.9, 6.4}
	row := make([]float64, len(dist))

	wide := calibrateRow(dist, -1, 6, row)
	narrow := calibrateRow(dist, -1, 2, row)

	assert.Greater(t, narrow.Beta, wide.Beta)
}

func TestCalibrateRow_IdenticalDistances(t *testing.T) {
	// All neighbors at the same distance: the row is uniform for any beta.
	dist := []float64{3, 3, 3, 3}
	row := make([]float64, len(dist))

	calibrateRow(dist, -1, 4, row)

	for _, v := range row {
		assert.InDelta(t, 0.25, v, 1e-9)
	}
}

func total(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s
}
