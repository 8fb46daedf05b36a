// Package balance derives the two-sided visualization metrics from the
// current progress fraction, aggregate alignment score, and an externally
// supplied secondary weighting factor. It is a pure calculation with no
// history dependency and no error conditions; all inputs are pre-clamped
// by callers.
package balance

// #region metrics

// Metrics is the visualization-facing vector recomputed every render tick.
type Metrics struct {
	LeftWeight  float64 // clamped to a 0.1 floor
	RightWeight float64 // clamped to a 0.9 ceiling
	Balance     float64 // RightWeight - LeftWeight
	Pulse       float64
	Complexity  float64
}

// #endregion metrics

// #region compute

// Compute maps (fraction, overallScore, secondaryFactor) to the balance
// vector. The clamping is intentionally asymmetric: the left side is
// floor-clamped and the right side ceiling-clamped, biasing the display
// toward the right pan as alignment rises. Preserve the asymmetry.
func Compute(fraction, overallScore, secondaryFactor float64) Metrics {
	baseLeft := 1 - fraction
	baseRight := fraction

	adjLeft := baseLeft * (1 - overallScore*0.3)
	adjRight := baseRight * (1 + overallScore*0.3)

	finalLeft := adjLeft * (1 - secondaryFactor*0.1)
	finalRight := adjRight * (1 + secondaryFactor*0.1)

	left := finalLeft
	if left < 0.1 {
		left = 0.1
	}
	right := finalRight
	if right > 0.9 {
		right = 0.9
	}

	return Metrics{
		LeftWeight:  left,
		RightWeight: right,
		Balance:     right - left,
		Pulse:       overallScore,
		Complexity:  1 + fraction*3,
	}
}

// #endregion compute
