package replay

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/alignment"
	"github.com/danielpatrickdp/ritual-engine/internal/engine"
	"github.com/danielpatrickdp/ritual-engine/internal/event"
	"github.com/danielpatrickdp/ritual-engine/internal/eval"
	"github.com/danielpatrickdp/ritual-engine/internal/progress"
)

// #region types

// StepResult captures the engine state after folding one recorded event.
type StepResult struct {
	Seq          int
	Phase        progress.Phase
	Fraction     float64
	OverallScore float64
	ChecksPassed int
	Aligned      bool
	InvalidCheck bool
	EvalPassed   bool
	EvalReason   string
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalEvents       int
	Dropped           int
	InvalidChecks     int
	Recalibrations    int
	Confirmations     int
	InvariantFailures int
	Completed         bool
	FinalPhase        progress.Phase
	FinalScore        float64
}

// Mismatch describes a divergence from an expected result.
type Mismatch struct {
	Seq    int
	Reason string
}

// #endregion types

// #region replay

// replayBase anchors fixture event offsets; the value is arbitrary since
// gate expiry runs on the replay clock, not on event timestamps.
var replayBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Replay folds a fixture's events through a fresh engine, injecting the
// recorded confirmations at their positions. Deterministic: the replay
// clock advances one second per event, so a fixture reproduces the same
// phase trajectory on every machine.
func Replay(f *Fixture) ([]StepResult, Summary, error) {
	clock := replayBase
	cfg := engine.DefaultConfig(f.TotalExpected)
	cfg.Gate = f.Config.GateConfig()
	if f.Config.RewindAmount > 0 {
		cfg.Tracker.RewindAmount = f.Config.RewindAmount
	}
	cfg.Clock = func() time.Time { return clock }

	eng, err := engine.New(cfg)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("replay engine: %w", err)
	}

	harness := eval.NewEvalHarness(eval.DefaultEvalConfig())
	var summary Summary
	eng.OnComplete(func(st alignment.State) {
		summary.Completed = true
		summary.FinalScore = st.OverallScore
	})

	confirmations := make(map[int][]string)
	for _, c := range f.Confirmations {
		confirmations[c.AfterSeq] = append(confirmations[c.AfterSeq], c.Text)
	}

	results := make([]StepResult, 0, len(f.Events))
	prevPhase := progress.PhaseInitialization

	for i, fe := range f.Events {
		seq := i + 1
		clock = clock.Add(time.Second)

		foldErr := eng.OnEvent(fe.ToServiceEvent(replayBase))
		if errors.Is(foldErr, event.ErrMalformedEvent) {
			summary.Dropped++
			continue
		}

		snap := eng.Snapshot()
		res := harness.Run(snap.Progress, snap.Alignment)

		step := StepResult{
			Seq:          seq,
			Phase:        snap.Progress.Phase,
			Fraction:     snap.Progress.Fraction,
			OverallScore: snap.Alignment.OverallScore,
			ChecksPassed: snap.Alignment.PassedCount(),
			Aligned:      snap.Progress.Aligned,
			InvalidCheck: errors.Is(foldErr, event.ErrInvalidCheckID),
			EvalPassed:   res.Passed,
			EvalReason:   res.Reason,
		}
		results = append(results, step)

		summary.TotalEvents++
		if step.InvalidCheck {
			summary.InvalidChecks++
		}
		if !res.Passed {
			summary.InvariantFailures++
		}
		if step.Phase == progress.PhaseRecalibration && prevPhase != progress.PhaseRecalibration {
			summary.Recalibrations++
		}
		prevPhase = step.Phase

		for _, text := range confirmations[seq] {
			summary.Confirmations++
			eng.SubmitConfirmation(text)
			snap = eng.Snapshot()
			if snap.Progress.Phase == progress.PhaseRecalibration && prevPhase != progress.PhaseRecalibration {
				summary.Recalibrations++
			}
			prevPhase = snap.Progress.Phase
		}
	}

	final := eng.Snapshot()
	summary.FinalPhase = final.Progress.Phase
	if !summary.Completed {
		summary.FinalScore = final.Alignment.OverallScore
	}
	return results, summary, nil
}

// #endregion replay

// #region verify

// Verify compares step results against a fixture's expected results.
func Verify(results []StepResult, expected []FixtureExpected) []Mismatch {
	bySeq := make(map[int]StepResult, len(results))
	for _, r := range results {
		bySeq[r.Seq] = r
	}

	var mismatches []Mismatch
	for _, exp := range expected {
		got, ok := bySeq[exp.Seq]
		if !ok {
			mismatches = append(mismatches, Mismatch{Seq: exp.Seq, Reason: "no result for seq"})
			continue
		}
		if exp.Phase != "" && string(got.Phase) != exp.Phase {
			mismatches = append(mismatches, Mismatch{
				Seq:    exp.Seq,
				Reason: fmt.Sprintf("expected phase %s, got %s", exp.Phase, got.Phase),
			})
		}
		if got.OverallScore < exp.MinScore {
			mismatches = append(mismatches, Mismatch{
				Seq:    exp.Seq,
				Reason: fmt.Sprintf("score %.4f below expected floor %.4f", got.OverallScore, exp.MinScore),
			})
		}
	}
	return mismatches
}

// #endregion verify
