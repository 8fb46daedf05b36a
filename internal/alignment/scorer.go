package alignment

import (
	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

// #region scorer

// Scorer folds service events into per-check validation state and a
// single aggregate alignment score. One update per consumed event,
// O(1) per event: the health mean is tracked incrementally rather than
// recomputed from history.
type Scorer struct {
	config    ScorerConfig
	state     State
	healthSum float64
	rippled   bool
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(config ScorerConfig) *Scorer {
	return &Scorer{
		config: config,
		state:  State{ChecksPassed: make(map[int]bool)},
	}
}

// #endregion scorer

// #region consume

// Consume folds one event and returns the updated state. For an event
// referencing a check outside 1..42 it returns event.ErrInvalidCheckID
// alongside the updated state: the check contribution is dropped but the
// health score still folds.
func (s *Scorer) Consume(ev event.ServiceEvent) (State, error) {
	s.state.EventsSeen++
	s.healthSum += ev.HealthScore
	s.state.HealthMean = s.healthSum / float64(s.state.EventsSeen)

	var err error
	if ev.HasCheck() {
		if !event.ValidCheckID(ev.CheckID) {
			err = event.ErrInvalidCheckID
		} else if checkPasses(ev, s.config.PassThreshold) {
			s.state.ChecksPassed[ev.CheckID] = true
		}
	}

	score := s.config.CheckWeight*(float64(len(s.state.ChecksPassed))/float64(event.CheckCount)) +
		s.config.HealthWeight*s.state.HealthMean
	s.state.OverallScore = clamp01(score)

	// Ripple fires exactly once per run, the first time the score
	// reaches the threshold.
	if !s.rippled && s.state.OverallScore >= s.config.RippleThreshold {
		s.state.Ripple += s.config.RippleBonus
		s.rippled = true
	}

	return s.state.clone(), err
}

// State returns a copy of the current alignment state.
func (s *Scorer) State() State {
	return s.state.clone()
}

// #endregion consume

// #region helpers

// checkPasses applies the pass rule: status Online or Validated with a
// health score at or above the threshold.
func checkPasses(ev event.ServiceEvent, threshold float64) bool {
	if ev.Status != event.StatusOnline && ev.Status != event.StatusValidated {
		return false
	}
	return ev.HealthScore >= threshold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
