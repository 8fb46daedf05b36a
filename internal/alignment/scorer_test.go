package alignment

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

func makeEvent(checkID int, status event.Status, health float64) event.ServiceEvent {
	return event.ServiceEvent{
		Service:     "scribe",
		Status:      status,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		HealthScore: health,
		CheckID:     checkID,
	}
}

func TestConsumeAddsPassingCheck(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	st, err := s.Consume(makeEvent(7, event.StatusValidated, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Passed(7) {
		t.Fatal("check 7 should have passed")
	}
	if st.PassedCount() != 1 {
		t.Fatalf("expected 1 passed check, got %d", st.PassedCount())
	}
}

func TestConsumeRejectsLowHealthCheck(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	st, _ := s.Consume(makeEvent(7, event.StatusOnline, 0.49))
	if st.Passed(7) {
		t.Fatal("check below pass threshold must not pass")
	}
	if st.EventsSeen != 1 {
		t.Fatal("event must still be recorded")
	}
}

func TestConsumeRejectsWrongStatusCheck(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	for _, status := range []event.Status{event.StatusInitializing, event.StatusError, event.StatusRecalibrating} {
		st, _ := s.Consume(makeEvent(3, status, 1.0))
		if st.Passed(3) {
			t.Fatalf("status %s must not pass a check", status)
		}
	}
}

func TestFailingEventNeverRemovesPassedCheck(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	s.Consume(makeEvent(5, event.StatusValidated, 1.0))
	st, _ := s.Consume(makeEvent(5, event.StatusError, 0.0))
	if !st.Passed(5) {
		t.Fatal("a failing event for an already-passed check must be a no-op")
	}
}

func TestChecksPassedMonotone(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	prev := 0
	events := []event.ServiceEvent{
		makeEvent(1, event.StatusValidated, 1.0),
		makeEvent(0, event.StatusError, 0.1),
		makeEvent(2, event.StatusOnline, 0.7),
		makeEvent(1, event.StatusError, 0.0),
		makeEvent(3, event.StatusValidated, 0.9),
	}
	for i, ev := range events {
		st, _ := s.Consume(ev)
		if st.PassedCount() < prev {
			t.Fatalf("event %d: passed count shrank from %d to %d", i, prev, st.PassedCount())
		}
		prev = st.PassedCount()
	}
}

func TestInvalidCheckIDFoldsHealthOnly(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	st, err := s.Consume(makeEvent(99, event.StatusValidated, 1.0))
	if !errors.Is(err, event.ErrInvalidCheckID) {
		t.Fatalf("expected ErrInvalidCheckID, got %v", err)
	}
	if st.PassedCount() != 0 {
		t.Fatal("invalid check must not be added")
	}
	if st.EventsSeen != 1 || st.HealthMean != 1.0 {
		t.Fatalf("health contribution must still fold: seen=%d mean=%.4f", st.EventsSeen, st.HealthMean)
	}
}

func TestFullRunReachesExactlyOne(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	var last State
	for id := 1; id <= event.CheckCount; id++ {
		last, _ = s.Consume(makeEvent(id, event.StatusValidated, 1.0))
	}
	if last.OverallScore != 1.0 {
		t.Fatalf("expected overall score exactly 1.0, got %v", last.OverallScore)
	}
	if last.PassedCount() != event.CheckCount {
		t.Fatalf("expected all %d checks passed, got %d", event.CheckCount, last.PassedCount())
	}
}

func TestRippleFiresExactlyOnce(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	var last State
	for id := 1; id <= event.CheckCount; id++ {
		last, _ = s.Consume(makeEvent(id, event.StatusValidated, 1.0))
	}
	want := DefaultScorerConfig().RippleBonus
	if math.Abs(last.Ripple-want) > 1e-12 {
		t.Fatalf("expected ripple %.2f, got %.4f", want, last.Ripple)
	}
	// Further high-score events must not fire it again.
	last, _ = s.Consume(makeEvent(0, event.StatusOnline, 1.0))
	if math.Abs(last.Ripple-want) > 1e-12 {
		t.Fatalf("ripple fired twice: %.4f", last.Ripple)
	}
}

func TestOverallScoreBounded(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	for i := 0; i < 100; i++ {
		health := float64(i%11) / 10
		st, _ := s.Consume(makeEvent(i%43, event.StatusOnline, health))
		if st.OverallScore < 0 || st.OverallScore > 1 {
			t.Fatalf("event %d: overall score %.4f outside [0,1]", i, st.OverallScore)
		}
	}
}

func TestStateCloneIsolation(t *testing.T) {
	s := NewScorer(DefaultScorerConfig())
	st, _ := s.Consume(makeEvent(1, event.StatusValidated, 1.0))
	st.ChecksPassed[41] = true
	if s.State().Passed(41) {
		t.Fatal("mutating a returned snapshot must not touch scorer state")
	}
}
