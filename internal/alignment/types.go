package alignment

// #region scorer-config

// ScorerConfig holds the tunable constants of the alignment fold.
type ScorerConfig struct {
	CheckWeight     float64 // weight of the passed-check ratio in the blend
	HealthWeight    float64 // weight of the running mean health score
	PassThreshold   float64 // minimum health score for a check to pass
	RippleThreshold float64 // overall score that triggers the ripple bonus
	RippleBonus     float64 // one-time ripple increment
}

// DefaultScorerConfig returns the standard 0.6/0.4 blend with the
// 0.42 ripple awarded at 0.9 alignment.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		CheckWeight:     0.6,
		HealthWeight:    0.4,
		PassThreshold:   0.5,
		RippleThreshold: 0.9,
		RippleBonus:     0.42,
	}
}

// #endregion scorer-config

// #region state

// State is the aggregate alignment snapshot after folding an event.
// ChecksPassed only grows during a run; a failing event for an
// already-passed check is a no-op, not a regression.
type State struct {
	ChecksPassed map[int]bool
	OverallScore float64
	Ripple       float64
	EventsSeen   int
	HealthMean   float64
}

// PassedCount returns the number of distinct checks passed so far.
func (s State) PassedCount() int {
	return len(s.ChecksPassed)
}

// Passed reports whether check id has been passed in this run.
func (s State) Passed(id int) bool {
	return s.ChecksPassed[id]
}

// clone returns a copy safe to hand to readers.
func (s State) clone() State {
	out := s
	out.ChecksPassed = make(map[int]bool, len(s.ChecksPassed))
	for id := range s.ChecksPassed {
		out.ChecksPassed[id] = true
	}
	return out
}

// #endregion state
