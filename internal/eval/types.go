package eval

// #region eval-config
// EvalConfig holds tolerances for post-fold invariant validation.
type EvalConfig struct {
	MaxRipple    float64 // warn if accumulated ripple exceeds this
	BalanceFloor float64 // left weight must not fall below this
	BalanceCeil  float64 // right weight must not rise above this
	ScoreEpsilon float64 // float slack on the ripple bound comparison
}

// DefaultEvalConfig returns the standard invariant tolerances.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxRipple:    0.42,
		BalanceFloor: 0.1,
		BalanceCeil:  0.9,
		ScoreEpsilon: 1e-9,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single invariant check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-fold invariant validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
