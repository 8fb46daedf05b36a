package gate

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestArmOpensWindowOnce(t *testing.T) {
	g := New(DefaultConfig())
	if !g.Arm(t0) {
		t.Fatal("first arm should open the window")
	}
	if g.Arm(t0.Add(time.Second)) {
		t.Fatal("arming an armed gate must be a no-op")
	}
	if !g.Armed() {
		t.Fatal("gate should be armed")
	}
}

func TestSubmitConfirms(t *testing.T) {
	g := New(DefaultConfig())
	g.Arm(t0)
	d := g.Submit("I have not committed sin")
	if !d.Accepted || d.Result != ResultConfirmed {
		t.Fatalf("expected confirmed, got %+v", d)
	}
	if !g.Confirmed() {
		t.Fatal("gate should report confirmed")
	}
}

func TestSubmitIsCaseInsensitive(t *testing.T) {
	g := New(DefaultConfig())
	g.Arm(t0)
	d := g.Submit("i swear i have NOT Committed Sin today")
	if !d.Accepted {
		t.Fatalf("case-insensitive substring match should pass, got %+v", d)
	}
}

func TestSubmitRejectsWrongToken(t *testing.T) {
	g := New(DefaultConfig())
	g.Arm(t0)
	d := g.Submit("nope")
	if d.Accepted || d.Result != ResultRejected {
		t.Fatalf("expected rejected, got %+v", d)
	}
	if g.Armed() {
		t.Fatal("rejection must close the window")
	}
}

func TestSubmitUnarmedNotAccepted(t *testing.T) {
	g := New(DefaultConfig())
	d := g.Submit("I have not committed sin")
	if d.Accepted {
		t.Fatal("input against an unarmed gate must not be accepted")
	}
}

func TestExpiryUsesArmTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window = 30 * time.Second
	g := New(cfg)
	g.Arm(t0)
	if g.Expired(t0.Add(29 * time.Second)) {
		t.Fatal("gate expired early")
	}
	if !g.Expired(t0.Add(30 * time.Second)) {
		t.Fatal("gate should expire at the window boundary")
	}
	d := g.Timeout(t0.Add(30 * time.Second))
	if d.Accepted || d.Result != ResultTimedOut {
		t.Fatalf("expected timed out, got %+v", d)
	}
}

func TestTimeoutUnarmedIsNoOp(t *testing.T) {
	g := New(DefaultConfig())
	d := g.Timeout(t0)
	if d.Result != ResultPending {
		t.Fatalf("expected pending, got %+v", d)
	}
}

func TestRearmAfterReset(t *testing.T) {
	g := New(DefaultConfig())
	g.Arm(t0)
	g.Submit("nope")
	g.Reset()
	if !g.Arm(t0.Add(time.Minute)) {
		t.Fatal("reset gate should re-arm")
	}
	d := g.Submit("I have not committed sin")
	if !d.Accepted {
		t.Fatalf("fresh window should accept the token, got %+v", d)
	}
}

func TestDoubleSubmitAfterConfirm(t *testing.T) {
	g := New(DefaultConfig())
	g.Arm(t0)
	g.Submit("I have not committed sin")
	d := g.Submit("I have not committed sin")
	if d.Accepted {
		t.Fatal("duplicate confirmation must not be accepted again")
	}
	if d.Result != ResultConfirmed {
		t.Fatalf("resolved result should remain confirmed, got %s", d.Result)
	}
}
