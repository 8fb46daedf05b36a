package eval

import (
	"fmt"

	"github.com/danielpatrickdp/ritual-engine/internal/alignment"
	"github.com/danielpatrickdp/ritual-engine/internal/balance"
	"github.com/danielpatrickdp/ritual-engine/internal/event"
	"github.com/danielpatrickdp/ritual-engine/internal/progress"
)

// #region eval-harness
// EvalHarness runs lightweight invariant validation on folded state.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates the invariants of one folded snapshot: score bounds,
// check-set membership, fraction bounds, phase-band consistency, and the
// balance clamps at the snapshot's coordinates. Returns pass/fail with
// per-check metrics.
func (h *EvalHarness) Run(pr progress.Progress, st alignment.State) EvalResult {
	var metrics []EvalMetric
	passed := true
	var failReasons []string

	record := func(name string, value float64, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			passed = false
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Overall score bounds
	record("overall_score", st.OverallScore,
		st.OverallScore >= 0 && st.OverallScore <= 1,
		fmt.Sprintf("overall score %.4f outside [0,1]", st.OverallScore))

	// 2. Check set membership: every passed check references one of the 42
	checksOK := true
	for id := range st.ChecksPassed {
		if !event.ValidCheckID(id) {
			checksOK = false
		}
	}
	record("checks_membership", float64(st.PassedCount()), checksOK,
		"passed check outside 1..42")

	// 3. Passed count never exceeds events seen
	record("checks_vs_events", float64(st.EventsSeen),
		st.PassedCount() <= st.EventsSeen,
		fmt.Sprintf("%d checks passed with only %d events", st.PassedCount(), st.EventsSeen))

	// 4. Fraction bounds
	record("fraction", pr.Fraction,
		pr.Fraction >= 0 && pr.Fraction <= 1,
		fmt.Sprintf("fraction %.4f outside [0,1]", pr.Fraction))

	// 5. Phase-band consistency: Completion requires the full fraction
	phaseOK := pr.Phase != progress.PhaseCompletion || pr.Fraction == 1.0
	record("phase_band", pr.Fraction, phaseOK,
		fmt.Sprintf("phase %s with fraction %.4f", pr.Phase, pr.Fraction))

	// 6. Ripple bound
	record("ripple", st.Ripple, st.Ripple <= h.config.MaxRipple+h.config.ScoreEpsilon,
		fmt.Sprintf("ripple %.4f exceeds %.4f", st.Ripple, h.config.MaxRipple))

	// 7. Balance clamps at the snapshot's coordinates (secondary factor
	// swept at its extremes)
	for _, secondary := range []float64{0, 1} {
		m := balance.Compute(pr.Fraction, st.OverallScore, secondary)
		record(fmt.Sprintf("balance_left_s%.0f", secondary), m.LeftWeight,
			m.LeftWeight >= h.config.BalanceFloor,
			fmt.Sprintf("left weight %.4f below floor", m.LeftWeight))
		record(fmt.Sprintf("balance_right_s%.0f", secondary), m.RightWeight,
			m.RightWeight <= h.config.BalanceCeil,
			fmt.Sprintf("right weight %.4f above ceiling", m.RightWeight))
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  passed,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness
