package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/ritual-engine/internal/engine"
	"github.com/danielpatrickdp/ritual-engine/internal/event"
	"github.com/danielpatrickdp/ritual-engine/internal/progress"
)

func makeEngine(t *testing.T, total int) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig(total))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func makeEvent(id int, health float64) event.ServiceEvent {
	return event.ServiceEvent{
		Service:     "scribe",
		Status:      event.StatusValidated,
		Timestamp:   time.Now().UTC(),
		HealthScore: health,
		CheckID:     id,
	}
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func TestSnapshotMsgProjection(t *testing.T) {
	e := makeEngine(t, 10)
	for i := 1; i <= 5; i++ {
		if err := e.OnEvent(makeEvent(i, 0.8)); err != nil {
			t.Fatalf("fold %d: %v", i, err)
		}
	}

	out := snapshotMsg(e.Snapshot(), 0.5)
	if out.Type != "snapshot" {
		t.Fatalf("expected snapshot type, got %q", out.Type)
	}
	if out.Seq == 0 {
		t.Fatal("expected non-zero seq after folds")
	}
	if math.Abs(out.Fraction-0.5) > 1e-9 {
		t.Fatalf("expected fraction 0.5, got %v", out.Fraction)
	}
	if out.ChecksPassed != 5 {
		t.Fatalf("expected 5 checks passed, got %d", out.ChecksPassed)
	}
	if out.Balance.LeftWeight < 0.1 || out.Balance.RightWeight > 0.9 {
		t.Fatalf("balance clamps violated: left=%v right=%v",
			out.Balance.LeftWeight, out.Balance.RightWeight)
	}
}

func TestParseSecondary(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"0.5", 0.5},
		{"-1", 0},
		{"3.2", 1},
		{"garbage", 0},
	}
	for _, c := range cases {
		if got := parseSecondary(c.raw); got != c.want {
			t.Fatalf("parseSecondary(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestDashboardPushesSnapshots(t *testing.T) {
	e := makeEngine(t, 10)
	s := New(e, Config{PushInterval: 10 * time.Millisecond})

	mux := http.NewServeMux()
	s.Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dial(t, srv, "?secondary=0.3")
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out wsOutbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if out.Type != "snapshot" {
		t.Fatalf("expected snapshot push, got %q", out.Type)
	}
	if out.Phase != string(progress.PhaseInitialization) {
		t.Fatalf("fresh run must start in initialization, got %q", out.Phase)
	}
}

func TestDashboardEventAndConfirmRoundTrip(t *testing.T) {
	e := makeEngine(t, 4)
	s := New(e, Config{PushInterval: time.Hour}) // pushes quiet, drive via inbound

	mux := http.NewServeMux()
	s.Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()

	for i := 1; i <= 4; i++ {
		in := wsInbound{
			Type:        "event",
			Service:     "scribe",
			Status:      "validated",
			HealthScore: 1.0,
			CheckID:     i,
		}
		if err := conn.WriteJSON(in); err != nil {
			t.Fatalf("write event %d: %v", i, err)
		}
	}

	// Folding happens on the read loop goroutine; poll until visible.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Snapshot().Alignment.PassedCount() == 4 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := e.Snapshot().Alignment.PassedCount(); got != 4 {
		t.Fatalf("expected 4 checks folded via ws, got %d", got)
	}

	if err := conn.WriteJSON(wsInbound{Type: "confirm", Input: "I have not committed sin"}); err != nil {
		t.Fatalf("write confirm: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out wsOutbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read confirm result: %v", err)
	}
	if out.Type != "confirm_result" {
		t.Fatalf("expected confirm_result, got %q", out.Type)
	}
	if out.Accepted {
		t.Fatal("confirmation against an unarmed gate must not be accepted")
	}
}

func TestDashboardRejectsUnknownType(t *testing.T) {
	e := makeEngine(t, 10)
	s := New(e, Config{PushInterval: time.Hour})

	mux := http.NewServeMux()
	s.Routes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()

	if err := conn.WriteJSON(wsInbound{Type: "divinate"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out wsOutbound
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Type != "error" {
		t.Fatalf("expected error reply, got %q", out.Type)
	}
}
