package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

func makeStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "ritual.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeEvent(seq int) event.ServiceEvent {
	return event.ServiceEvent{
		Service:     "duat-gateway",
		Status:      event.StatusOnline,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, seq, 0, time.UTC),
		HealthScore: 0.75,
		CheckID:     seq%42 + 1,
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s := makeStore(t)
	rec, err := s.CreateRun(100)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if rec.RunID == "" {
		t.Fatal("expected a run id")
	}

	got, err := s.GetRun(rec.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.TotalExpected != 100 || got.Completed {
		t.Fatalf("unexpected run record: %+v", got)
	}
}

func TestMarkCompleted(t *testing.T) {
	s := makeStore(t)
	rec, _ := s.CreateRun(100)
	if err := s.MarkCompleted(rec.RunID, 0.97); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	got, _ := s.GetRun(rec.RunID)
	if !got.Completed || got.FinalScore != 0.97 {
		t.Fatalf("unexpected run record: %+v", got)
	}
}

func TestAppendAndListEvents(t *testing.T) {
	s := makeStore(t)
	rec, _ := s.CreateRun(100)

	for i := 0; i < 5; i++ {
		if err := s.AppendEvent(rec.RunID, uint64(i+1), makeEvent(i)); err != nil {
			t.Fatalf("append event %d: %v", i, err)
		}
	}

	events, err := s.ListEvents(rec.RunID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.CheckID != i%42+1 {
			t.Fatalf("event %d out of order: check %d", i, ev.CheckID)
		}
	}
}

func TestListEventsCacheInvalidation(t *testing.T) {
	s := makeStore(t)
	rec, _ := s.CreateRun(100)
	s.AppendEvent(rec.RunID, 1, makeEvent(0))

	if _, err := s.ListEvents(rec.RunID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// Append must invalidate the cached list.
	s.AppendEvent(rec.RunID, 2, makeEvent(1))
	events, err := s.ListEvents(rec.RunID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("stale cache: expected 2 events, got %d", len(events))
	}
}

func TestListEventsCallerMutationDoesNotCorruptCache(t *testing.T) {
	s := makeStore(t)
	rec, _ := s.CreateRun(100)
	s.AppendEvent(rec.RunID, 1, makeEvent(0))
	s.AppendEvent(rec.RunID, 2, makeEvent(1))

	first, err := s.ListEvents(rec.RunID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	first[0].Service = "tampered"
	first[1].HealthScore = -99

	// Later reads, cache-served or not, must be untouched by the mutation.
	for i := 0; i < 2; i++ {
		events, err := s.ListEvents(rec.RunID)
		if err != nil {
			t.Fatalf("list events (read %d): %v", i, err)
		}
		if events[0].Service == "tampered" || events[1].HealthScore < 0 {
			t.Fatalf("read %d returned mutated events: %+v", i, events)
		}
	}
}

func TestOptionalEventFieldsRoundTrip(t *testing.T) {
	s := makeStore(t)
	rec, _ := s.CreateRun(100)

	ev := makeEvent(0)
	ev.CheckID = 0
	ev.AuxGateID = 7
	ev.Weight = event.WeightBalanced
	s.AppendEvent(rec.RunID, 1, ev)

	events, _ := s.ListEvents(rec.RunID)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.CheckID != 0 || got.AuxGateID != 7 || got.Weight != event.WeightBalanced {
		t.Fatalf("optional fields lost: %+v", got)
	}
}

func TestSnapshotsRoundTrip(t *testing.T) {
	s := makeStore(t)
	rec, _ := s.CreateRun(100)

	rows := []SnapshotRow{
		{Seq: 1, Fraction: 0.01, Phase: "initialization", Aligned: true, OverallScore: 0.3, ChecksPassed: 1, CreatedAt: time.Now().UTC()},
		{Seq: 2, Fraction: 0.02, Phase: "initialization", Aligned: false, OverallScore: 0.31, ChecksPassed: 1, Ripple: 0, CreatedAt: time.Now().UTC()},
	}
	for _, row := range rows {
		if err := s.RecordSnapshot(rec.RunID, row); err != nil {
			t.Fatalf("record snapshot: %v", err)
		}
	}

	latest, err := s.LatestSnapshot(rec.RunID)
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if latest.Seq != 2 || latest.Aligned {
		t.Fatalf("unexpected latest snapshot: %+v", latest)
	}

	all, err := s.ListSnapshots(rec.RunID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(all) != 2 || all[0].Seq != 1 {
		t.Fatalf("unexpected snapshot list: %+v", all)
	}
}
