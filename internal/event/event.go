package event

import (
	"errors"
	"fmt"
	"time"
)

// #region status

// Status classifies a service-status event from the deployment feed.
type Status string

const (
	StatusInitializing  Status = "initializing"
	StatusOnline        Status = "online"
	StatusError         Status = "error"
	StatusValidated     Status = "validated"
	StatusRecalibrating Status = "recalibrating"
)

// knownStatuses is the closed set of feed statuses.
var knownStatuses = map[Status]bool{
	StatusInitializing:  true,
	StatusOnline:        true,
	StatusError:         true,
	StatusValidated:     true,
	StatusRecalibrating: true,
}

// Known reports whether s is one of the defined feed statuses.
func (s Status) Known() bool {
	return knownStatuses[s]
}

// #endregion status

// #region weight

// Weight is the optional cognitive weighting carried by an event.
type Weight string

const (
	WeightNone     Weight = ""
	WeightA        Weight = "a"
	WeightB        Weight = "b"
	WeightBalanced Weight = "balanced"
)

// #endregion weight

// #region check-range

// CheckCount is the fixed number of named compliance checks in a run.
const CheckCount = 42

// ValidCheckID reports whether id references one of the 42 checks.
// Zero means the event carries no check reference.
func ValidCheckID(id int) bool {
	return id >= 1 && id <= CheckCount
}

// #endregion check-range

// #region errors

// ErrMalformedEvent indicates a required field is missing or out of range.
// Malformed events are discarded by the caller and never advance progress.
var ErrMalformedEvent = errors.New("malformed event")

// ErrInvalidCheckID indicates the event references a check outside 1..42.
// The check contribution is dropped; the health contribution still folds.
var ErrInvalidCheckID = errors.New("check id outside 1..42")

// #endregion errors

// #region service-event

// ServiceEvent is one self-contained record from the deployment feed.
// Immutable once emitted; the engine only reads and folds it.
type ServiceEvent struct {
	Service     string    `json:"service"`
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	HealthScore float64   `json:"health_score"`
	CheckID     int       `json:"check_id,omitempty"`     // 0 = no check reference
	Weight      Weight    `json:"weight,omitempty"`       // empty = unweighted
	AuxGateID   int       `json:"aux_gate_id,omitempty"`  // 0 = no aux gate
}

// Validate checks the required fields. It returns ErrMalformedEvent (wrapped
// with the offending field) for events that must be discarded, and
// ErrInvalidCheckID for events whose check reference must be dropped but
// whose health score still folds.
func (e ServiceEvent) Validate() error {
	if e.Service == "" {
		return fmt.Errorf("%w: empty service name", ErrMalformedEvent)
	}
	if !e.Status.Known() {
		return fmt.Errorf("%w: unknown status %q", ErrMalformedEvent, string(e.Status))
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrMalformedEvent)
	}
	if e.HealthScore < 0 || e.HealthScore > 1 {
		return fmt.Errorf("%w: health score %.4f outside [0,1]", ErrMalformedEvent, e.HealthScore)
	}
	if e.CheckID != 0 && !ValidCheckID(e.CheckID) {
		return fmt.Errorf("%w: got %d", ErrInvalidCheckID, e.CheckID)
	}
	return nil
}

// HasCheck reports whether the event carries a check reference, valid or not.
func (e ServiceEvent) HasCheck() bool {
	return e.CheckID != 0
}

// #endregion service-event
