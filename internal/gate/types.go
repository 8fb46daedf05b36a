package gate

import "time"

// #region result

// Result enumerates the resolution states of a confirmation window.
type Result string

const (
	ResultPending   Result = "pending"
	ResultConfirmed Result = "confirmed"
	ResultRejected  Result = "rejected"
	ResultTimedOut  Result = "timed_out"
)

// #endregion result

// #region gate-config

// Config holds the confirmation gate parameters.
type Config struct {
	RequiredToken string        // case-insensitive substring the input must contain
	Window        time.Duration // how long an armed gate waits for input
}

// DefaultConfig returns the standard gate tied to principle #1 of the
// 42-check set, with a one-minute wait window.
func DefaultConfig() Config {
	return Config{
		RequiredToken: "not committed sin",
		Window:        time.Minute,
	}
}

// #endregion gate-config

// #region decision

// Decision is the outcome of a single confirmation input.
type Decision struct {
	Accepted bool
	Result   Result
	Reason   string
}

// #endregion decision

// #region status

// Status is the read-only gate snapshot exposed to observers.
type Status struct {
	Armed   bool
	Result  Result
	ArmedAt time.Time
}

// #endregion status
