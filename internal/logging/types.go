package logging

import "time"

// #region gate-entry
// GateEntry is a single row in the gate_log table. It captures one
// confirmation-gate transition with enough context to audit why a run
// completed or recalibrated.
type GateEntry struct {
	RunID     string
	Action    string // "armed" | "confirmed" | "rejected" | "timed_out"
	Reason    string
	InputText string // submitted confirmation text, empty for armed/timed_out
	CreatedAt time.Time
}
// #endregion gate-entry
