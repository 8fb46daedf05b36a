package gate

import (
	"fmt"
	"strings"
	"time"
)

// #region gate

// Gate is the confirmation sub-state-machine guarding the terminal phase
// transition: Idle → Armed → {Confirmed | Rejected | TimedOut}. It arms
// the first tick the run enters the gate-eligible band and accepts a
// single free-text input per arming window. Expiry is measured against
// the monotonic clock values handed in by the caller, never against
// feed timestamps.
type Gate struct {
	config  Config
	armed   bool
	armedAt time.Time
	result  Result
}

// New creates an idle gate with the given configuration.
func New(config Config) *Gate {
	return &Gate{config: config, result: ResultPending}
}

// #endregion gate

// #region arm

// Arm opens a confirmation window. A no-op while already armed, so the
// caller may invoke it every tick the run sits in the eligible band.
func (g *Gate) Arm(now time.Time) bool {
	if g.armed {
		return false
	}
	g.armed = true
	g.armedAt = now
	g.result = ResultPending
	return true
}

// #endregion arm

// #region submit

// Submit resolves an armed gate with a free-text input. The comparison
// is case-insensitive and passes when the input contains the required
// token. Input against an unarmed gate is not accepted.
func (g *Gate) Submit(text string) Decision {
	if !g.armed {
		return Decision{
			Accepted: false,
			Result:   g.result,
			Reason:   "gate not armed",
		}
	}

	g.armed = false
	if strings.Contains(strings.ToLower(text), strings.ToLower(g.config.RequiredToken)) {
		g.result = ResultConfirmed
		return Decision{
			Accepted: true,
			Result:   ResultConfirmed,
			Reason:   "confirmation token matched",
		}
	}

	g.result = ResultRejected
	return Decision{
		Accepted: false,
		Result:   ResultRejected,
		Reason:   "input does not contain the required token",
	}
}

// #endregion submit

// #region timeout

// Expired reports whether an armed gate has outlived its wait window.
func (g *Gate) Expired(now time.Time) bool {
	return g.armed && now.Sub(g.armedAt) >= g.config.Window
}

// Timeout resolves an armed gate as timed out. Callers check Expired
// first; timing out an unarmed gate is a no-op.
func (g *Gate) Timeout(now time.Time) Decision {
	if !g.armed {
		return Decision{Accepted: false, Result: g.result, Reason: "gate not armed"}
	}
	g.armed = false
	g.result = ResultTimedOut
	return Decision{
		Accepted: false,
		Result:   ResultTimedOut,
		Reason:   fmt.Sprintf("no confirmation within %s", g.config.Window),
	}
}

// #endregion timeout

// #region reset

// Reset returns the gate to Idle so a later return to the eligible band
// creates a fresh arming window. A prior rejection never locks the run.
func (g *Gate) Reset() {
	g.armed = false
	g.result = ResultPending
}

// #endregion reset

// #region status

// Status returns the current gate snapshot.
func (g *Gate) Status() Status {
	return Status{
		Armed:   g.armed,
		Result:  g.result,
		ArmedAt: g.armedAt,
	}
}

// Armed reports whether a confirmation window is open.
func (g *Gate) Armed() bool {
	return g.armed
}

// Confirmed reports whether the gate has resolved as confirmed.
func (g *Gate) Confirmed() bool {
	return g.result == ResultConfirmed
}

// #endregion status
