package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/event"
	"github.com/danielpatrickdp/ritual-engine/internal/gate"
	"github.com/danielpatrickdp/ritual-engine/internal/history"
	"github.com/danielpatrickdp/ritual-engine/internal/logging"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a
// recorded event stream plus the confirmation inputs and the phases the
// run is expected to pass through.
type Fixture struct {
	Description   string                `json:"description"`
	TotalExpected int                   `json:"total_expected"`
	Config        FixtureConfig         `json:"config"`
	Events        []FixtureEvent        `json:"events"`
	Confirmations []FixtureConfirmation `json:"confirmations,omitempty"`
	Expected      []FixtureExpected     `json:"expected_results,omitempty"`
}

// FixtureEvent mirrors event.ServiceEvent with JSON tags and a relative
// offset instead of an absolute timestamp.
type FixtureEvent struct {
	Service     string  `json:"service"`
	Status      string  `json:"status"`
	OffsetMS    int64   `json:"offset_ms"`
	HealthScore float64 `json:"health_score"`
	CheckID     int     `json:"check_id,omitempty"`
	AuxGateID   int     `json:"aux_gate_id,omitempty"`
	Weight      string  `json:"weight,omitempty"`
}

// FixtureConfirmation injects a confirmation input after the event with
// the given sequence number has folded.
type FixtureConfirmation struct {
	AfterSeq int    `json:"after_seq"`
	Text     string `json:"text"`
}

// FixtureExpected captures the expected phase (and optionally a score
// floor) after a specific event sequence.
type FixtureExpected struct {
	Seq      int     `json:"seq"`
	Phase    string  `json:"phase"`
	MinScore float64 `json:"min_score,omitempty"`
}

// FixtureConfig mirrors the gate and rewind parameters of a run.
type FixtureConfig struct {
	RequiredToken string  `json:"required_token,omitempty"`
	WindowSeconds int     `json:"window_seconds,omitempty"`
	RewindAmount  float64 `json:"rewind_amount,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.TotalExpected <= 0 {
		return nil, fmt.Errorf("fixture %s: total_expected must be positive", path)
	}
	return &f, nil
}

// ToServiceEvent converts a FixtureEvent to a domain event anchored at base.
func (fe *FixtureEvent) ToServiceEvent(base time.Time) event.ServiceEvent {
	return event.ServiceEvent{
		Service:     fe.Service,
		Status:      event.Status(fe.Status),
		Timestamp:   base.Add(time.Duration(fe.OffsetMS) * time.Millisecond),
		HealthScore: fe.HealthScore,
		CheckID:     fe.CheckID,
		AuxGateID:   fe.AuxGateID,
		Weight:      event.Weight(fe.Weight),
	}
}

// FromServiceEvent converts a recorded domain event back into fixture
// form, with its timestamp expressed as an offset from base.
func FromServiceEvent(ev event.ServiceEvent, base time.Time) FixtureEvent {
	return FixtureEvent{
		Service:     ev.Service,
		Status:      string(ev.Status),
		OffsetMS:    ev.Timestamp.Sub(base).Milliseconds(),
		HealthScore: ev.HealthScore,
		CheckID:     ev.CheckID,
		AuxGateID:   ev.AuxGateID,
		Weight:      string(ev.Weight),
	}
}

// ConfirmationsFromGateLog rebuilds a recorded run's confirmation inputs
// for replay, anchoring each submitted text after the last snapshot
// written before it. Gate log rows and snapshots share the run's wall
// clock; only resolved submissions carry input text worth replaying.
func ConfirmationsFromGateLog(gateLog []logging.GateEntry, snapshots []history.SnapshotRow) []FixtureConfirmation {
	var out []FixtureConfirmation
	for _, entry := range gateLog {
		if entry.Action != "confirmed" && entry.Action != "rejected" {
			continue
		}
		afterSeq := 0
		for _, s := range snapshots {
			if !s.CreatedAt.After(entry.CreatedAt) {
				afterSeq = int(s.Seq)
			}
		}
		out = append(out, FixtureConfirmation{AfterSeq: afterSeq, Text: entry.InputText})
	}
	return out
}

// GateConfig converts the fixture's gate parameters, falling back to
// defaults for omitted fields.
func (fc *FixtureConfig) GateConfig() gate.Config {
	cfg := gate.DefaultConfig()
	if fc.RequiredToken != "" {
		cfg.RequiredToken = fc.RequiredToken
	}
	if fc.WindowSeconds > 0 {
		cfg.Window = time.Duration(fc.WindowSeconds) * time.Second
	}
	return cfg
}

// #endregion fixture-loader
