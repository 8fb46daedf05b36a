package engine

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/alignment"
	"github.com/danielpatrickdp/ritual-engine/internal/gate"
	"github.com/danielpatrickdp/ritual-engine/internal/progress"
)

// #endregion

// #region config

// Config bundles the sub-configs for one deployment run.
type Config struct {
	TotalExpectedEvents int
	Scorer              alignment.ScorerConfig
	Tracker             progress.TrackerConfig
	Gate                gate.Config
	Clock               func() time.Time // monotonic source for gate expiry
	Debug               bool             // run the invariant harness on every fold
}

// DefaultConfig returns a fully wired run configuration.
func DefaultConfig(totalExpected int) Config {
	return Config{
		TotalExpectedEvents: totalExpected,
		Scorer:              alignment.DefaultScorerConfig(),
		Tracker:             progress.DefaultTrackerConfig(totalExpected),
		Gate:                gate.DefaultConfig(),
		Clock:               time.Now,
	}
}

// #endregion config

// #region snapshot

// Snapshot is the immutable read model handed to the presentation clock.
// Readers derive balance metrics from it; they never feed back into
// engine state.
type Snapshot struct {
	Seq       uint64
	Progress  progress.Progress
	Alignment alignment.State
	Gate      gate.Status
	UpdatedAt time.Time
}

// #endregion snapshot

// #region gate-event

// GateEvent records one confirmation-gate transition for provenance.
type GateEvent struct {
	Action string // "armed" | "confirmed" | "rejected" | "timed_out"
	Reason string
	Input  string // submitted text, empty for armed/timed_out
	At     time.Time
}

// #endregion gate-event
