package tsne

import "math"

const (
	// minNormal is the smallest positive normal float64 (C's DBL_MIN). Kernel
	// values that must be negligible but non-zero are floored to it.
	minNormal = 0x1p-1022

	perplexityTol      = 1e-5
	perplexityMaxSteps = 200
)

// calibration describes the outcome of one perplexity search.
type calibration struct {
	Beta      float64 // precision of the Gaussian kernel, 1/(2σ²)
	Entropy   float64 // Shannon entropy of the row, in nats
	Steps     int
	Converged bool
}

// calibrateRow finds the kernel precision β for which the row distribution
// exp(-β·dist[j]) / Σ has entropy log(perplexity), and writes that normalized
// distribution into row. dist holds squared distances. If self >= 0, entry
// self is the point's distance to itself: its kernel value is pinned to
// minNormal so it carries no mass.
//
// The search bisects on β, doubling or halving while one side is still
// unbounded. It stops after perplexityMaxSteps without error; the returned
// row is then only approximately at the target perplexity.
func calibrateRow(dist []float64, self int, perplexity float64, row []float64) calibration {
	target := math.Log(perplexity)
	beta := 1.0
	minBeta := math.Inf(-1)
	maxBeta := math.Inf(1)

	var c calibration
	var sum float64
	for c.Steps < perplexityMaxSteps {
		sum, c.Entropy = gaussianRow(dist, self, beta, row)
		c.Beta = beta
		c.Steps++

		diff := c.Entropy - target
		if math.Abs(diff) < perplexityTol {
			c.Converged = true
			break
		}
		if diff > 0 {
			// Too flat: sharpen the kernel.
			minBeta = beta
			if math.IsInf(maxBeta, 1) {
				beta *= 2
			} else {
				beta = (beta + maxBeta) / 2
			}
		} else {
			maxBeta = beta
			if math.IsInf(minBeta, -1) {
				beta /= 2
			} else {
				beta = (beta + minBeta) / 2
			}
		}
	}

	for j := range row {
		row[j] /= sum
	}
	return c
}

// gaussianRow fills row with the unnormalized kernel exp(-β·dist) and returns
// its sum and entropy.
func gaussianRow(dist []float64, self int, beta float64, row []float64) (sum, entropy float64) {
	for j, d := range dist {
		row[j] = math.Exp(-beta * d)
	}
	if self >= 0 {
		row[self] = minNormal
	}

	sum = minNormal
	for _, v := range row {
		sum += v
	}
	var h float64
	for j, d := range dist {
		h += beta * d * row[j]
	}
	return sum, h/sum + math.Log(sum)
}

// rowPerplexity returns exp(entropy) of a normalized distribution.
func rowPerplexity(p []float64) float64 {
	var h float64
	for _, v := range p {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	return math.Exp(h)
}
