package progress

import (
	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

// #region tracker

// Tracker derives a monotonic completion fraction and a discrete phase
// from the count and content of events seen so far. The fraction never
// decreases within a run except on a recalibration reset, which rewinds
// it by the configured amount.
type Tracker struct {
	config    TrackerConfig
	consumed  int
	rewind    float64 // accumulated rewind offset from recalibration resets
	confirmed bool
	cur       Progress
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(config TrackerConfig) *Tracker {
	return &Tracker{
		config: config,
		cur:    Progress{Phase: PhaseInitialization, Aligned: true},
	}
}

// #endregion tracker

// #region advance

// Advance folds one consumed event. Aligned flips false for a single
// erroring event and clears on the next non-error event; it is not
// sticky. AuxGateID values append in arrival order, duplicates kept.
// Reaching the full fraction without a prior gate confirmation forces
// Recalibration, never a silent completion.
func (t *Tracker) Advance(ev event.ServiceEvent) Progress {
	t.consumed++
	if ev.AuxGateID != 0 {
		t.cur.ActiveAuxGates = append(t.cur.ActiveAuxGates, ev.AuxGateID)
	}
	t.cur.Aligned = ev.Status != event.StatusError

	if t.confirmed {
		return t.cur.clone()
	}

	raw := t.rawFraction()
	if raw >= 1.0 {
		t.applyRecalibration(raw)
	} else {
		t.cur.Fraction = raw
		t.cur.Phase = t.bandPhase(raw)
	}
	return t.cur.clone()
}

// #endregion advance

// #region transitions

// Recalibrate applies the reset entered on gate rejection or timeout:
// the fraction rewinds by the configured amount, floored at zero.
// Earned checks are not the tracker's concern and persist elsewhere.
func (t *Tracker) Recalibrate() Progress {
	if t.confirmed {
		return t.cur.clone()
	}
	t.applyRecalibration(t.rawFraction())
	return t.cur.clone()
}

// ForceComplete pins the run at the terminal phase. Only the
// confirmation gate may call through to this; idempotent thereafter.
func (t *Tracker) ForceComplete() Progress {
	t.confirmed = true
	t.cur.Fraction = 1.0
	t.cur.Phase = PhaseCompletion
	return t.cur.clone()
}

// #endregion transitions

// #region accessors

// Progress returns a copy of the current progress snapshot.
func (t *Tracker) Progress() Progress {
	return t.cur.clone()
}

// Consumed returns the number of events folded so far.
func (t *Tracker) Consumed() int {
	return t.consumed
}

// #endregion accessors

// #region helpers

// rawFraction is consumed/total minus the accumulated rewind. It is
// deliberately unclamped above 1.0 so a post-recalibration run can
// climb back through the bands.
func (t *Tracker) rawFraction() float64 {
	f := float64(t.consumed)/float64(t.config.TotalExpectedEvents) - t.rewind
	if f < 0 {
		return 0
	}
	return f
}

func (t *Tracker) applyRecalibration(raw float64) {
	if raw > 1.0 {
		raw = 1.0
	}
	next := raw - t.config.RewindAmount
	if next < 0 {
		next = 0
	}
	// Re-anchor the rewind offset so future events continue from the floor.
	t.rewind = float64(t.consumed)/float64(t.config.TotalExpectedEvents) - next
	t.cur.Fraction = next
	t.cur.Phase = PhaseRecalibration
}

// bandPhase evaluates the phase bands in fixed order, first match wins.
func (t *Tracker) bandPhase(f float64) Phase {
	switch {
	case f >= t.config.HarmonyBand:
		return PhaseHarmony
	case f >= t.config.DeploymentBand:
		return PhaseDeployment
	default:
		return PhaseInitialization
	}
}

// #endregion helpers
