package engine

// #region imports
import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/danielpatrickdp/ritual-engine/internal/alignment"
	"github.com/danielpatrickdp/ritual-engine/internal/eval"
	"github.com/danielpatrickdp/ritual-engine/internal/event"
	"github.com/danielpatrickdp/ritual-engine/internal/gate"
	"github.com/danielpatrickdp/ritual-engine/internal/progress"
)

// #endregion

// #region engine-struct

// Engine owns the alignment scorer, the progress tracker, and the
// confirmation gate for a single deployment run. The event feed is the
// only writer; the presentation clock reads the latest immutable
// snapshot through an atomic pointer and never blocks on fold work.
type Engine struct {
	mu      sync.Mutex
	config  Config
	scorer  *alignment.Scorer
	tracker *progress.Tracker
	gate    *gate.Gate
	harness *eval.EvalHarness

	snap atomic.Pointer[Snapshot]
	seq  uint64

	onComplete func(alignment.State)
	onGate     func(GateEvent)
	completed  bool
}

// #endregion engine-struct

// #region constructor

// New creates an engine for a run of totalExpected events.
func New(config Config) (*Engine, error) {
	if config.TotalExpectedEvents <= 0 {
		return nil, fmt.Errorf("total expected events must be positive, got %d", config.TotalExpectedEvents)
	}
	if config.Clock == nil {
		return nil, errors.New("config requires a clock")
	}
	e := &Engine{
		config:  config,
		scorer:  alignment.NewScorer(config.Scorer),
		tracker: progress.NewTracker(config.Tracker),
		gate:    gate.New(config.Gate),
	}
	if config.Debug {
		e.harness = eval.NewEvalHarness(eval.DefaultEvalConfig())
	}
	e.publish(e.tracker.Progress(), e.scorer.State())
	return e, nil
}

// OnComplete registers the callback fired exactly once when the run
// first reaches Completion, carrying the final alignment state.
// Register before feeding events.
func (e *Engine) OnComplete(fn func(alignment.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

// OnGateEvent registers a provenance hook for gate transitions.
func (e *Engine) OnGateEvent(fn func(GateEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onGate = fn
}

// #endregion constructor

// #region on-event

// OnEvent folds one feed event. Malformed events are discarded without
// advancing progress and reported via event.ErrMalformedEvent. An
// invalid check reference still folds its health contribution and is
// reported via event.ErrInvalidCheckID.
func (e *Engine) OnEvent(ev event.ServiceEvent) error {
	if err := ev.Validate(); err != nil && errors.Is(err, event.ErrMalformedEvent) {
		return err
	}

	e.mu.Lock()
	now := e.config.Clock()

	st, checkErr := e.scorer.Consume(ev)
	pr := e.tracker.Advance(ev)

	// Gate expiry is an engine-tick concern, but an armed gate can also
	// outlive its window between ticks while events keep arriving.
	var gateEvents []GateEvent
	if e.gate.Expired(now) {
		d := e.gate.Timeout(now)
		pr = e.tracker.Recalibrate()
		e.gate.Reset()
		gateEvents = append(gateEvents, GateEvent{Action: string(d.Result), Reason: d.Reason, At: now})
		log.Printf("[GATE] timed out: %s", d.Reason)
	}

	switch pr.Phase {
	case progress.PhaseHarmony:
		if e.gate.Arm(now) {
			gateEvents = append(gateEvents, GateEvent{Action: "armed", Reason: "entered harmony band", At: now})
			log.Printf("[GATE] armed at fraction %.4f", pr.Fraction)
		}
	case progress.PhaseRecalibration:
		// Gate state only exists in the deployment and harmony bands.
		e.gate.Reset()
	}

	e.publish(pr, st)
	hook := e.onGate
	e.mu.Unlock()

	if hook != nil {
		for _, ge := range gateEvents {
			hook(ge)
		}
	}
	return checkErr
}

// #endregion on-event

// #region tick

// Tick lets the presentation (or any) clock drive gate expiry while the
// feed is quiet. No other state advances here.
func (e *Engine) Tick() {
	e.mu.Lock()
	now := e.config.Clock()
	if !e.gate.Expired(now) {
		e.mu.Unlock()
		return
	}
	d := e.gate.Timeout(now)
	pr := e.tracker.Recalibrate()
	e.gate.Reset()
	e.publish(pr, e.scorer.State())
	hook := e.onGate
	e.mu.Unlock()

	log.Printf("[GATE] timed out: %s", d.Reason)
	if hook != nil {
		hook(GateEvent{Action: string(d.Result), Reason: d.Reason, At: now})
	}
}

// #endregion tick

// #region submit-confirmation

// SubmitConfirmation feeds one free-text input to an armed gate and
// reports whether it was accepted. Confirmation forces the terminal
// transition exactly once; rejection applies the recalibration reset.
func (e *Engine) SubmitConfirmation(text string) bool {
	e.mu.Lock()
	now := e.config.Clock()
	d := e.gate.Submit(text)

	var fireWith *alignment.State
	switch {
	case d.Accepted:
		pr := e.tracker.ForceComplete()
		st := e.scorer.State()
		e.publish(pr, st)
		if !e.completed {
			e.completed = true
			if e.onComplete != nil {
				fireWith = &st
			}
		}
		log.Printf("[ENGINE] run confirmed complete at seq %d", e.seq)
	case d.Result == gate.ResultRejected:
		pr := e.tracker.Recalibrate()
		e.gate.Reset()
		e.publish(pr, e.scorer.State())
		log.Printf("[GATE] rejected: %s", d.Reason)
	default:
		// Unarmed gate: nothing to resolve.
		e.mu.Unlock()
		return false
	}

	onComplete := e.onComplete
	hook := e.onGate
	e.mu.Unlock()

	if hook != nil {
		hook(GateEvent{Action: string(d.Result), Reason: d.Reason, Input: text, At: now})
	}
	if fireWith != nil && onComplete != nil {
		onComplete(*fireWith)
	}
	return d.Accepted
}

// #endregion submit-confirmation

// #region snapshot

// Snapshot returns the latest immutable snapshot. Safe to call from any
// goroutine at any cadence; never blocks on fold work.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// #endregion snapshot

// #region publish

// publish builds and stores the next snapshot. Caller holds the lock.
func (e *Engine) publish(pr progress.Progress, st alignment.State) {
	e.seq++
	s := &Snapshot{
		Seq:       e.seq,
		Progress:  pr,
		Alignment: st,
		Gate:      e.gate.Status(),
		UpdatedAt: e.config.Clock(),
	}
	e.snap.Store(s)

	if e.harness != nil {
		if res := e.harness.Run(pr, st); !res.Passed {
			log.Printf("[ENGINE] invariant violation at seq %d: %s", e.seq, res.Reason)
		}
	}
}

// #endregion publish
