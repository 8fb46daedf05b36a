package progress

// #region phase

// Phase is the discrete stage of a deployment run.
type Phase string

const (
	PhaseInitialization Phase = "initialization"
	PhaseDeployment     Phase = "deployment"
	PhaseHarmony        Phase = "harmony"
	PhaseRecalibration  Phase = "recalibration"
	PhaseCompletion     Phase = "completion"
)

// #endregion phase

// #region tracker-config

// TrackerConfig holds the progress band thresholds and the
// recalibration rewind amount.
type TrackerConfig struct {
	TotalExpectedEvents int
	HarmonyBand         float64 // fraction at which the run becomes gate-eligible
	DeploymentBand      float64 // fraction at which deployment proper begins
	RewindAmount        float64 // fraction subtracted on a recalibration reset
}

// DefaultTrackerConfig returns the standard bands with a half-run rewind.
func DefaultTrackerConfig(totalExpected int) TrackerConfig {
	return TrackerConfig{
		TotalExpectedEvents: totalExpected,
		HarmonyBand:         0.99,
		DeploymentBand:      0.5,
		RewindAmount:        0.5,
	}
}

// #endregion tracker-config

// #region progress

// Progress is the derived completion snapshot after folding an event.
type Progress struct {
	Fraction       float64
	Phase          Phase
	Aligned        bool
	ActiveAuxGates []int // append-only display trail, duplicates kept
}

// clone returns a copy safe to hand to readers.
func (p Progress) clone() Progress {
	out := p
	out.ActiveAuxGates = make([]int, len(p.ActiveAuxGates))
	copy(out.ActiveAuxGates, p.ActiveAuxGates)
	return out
}

// #endregion progress
