package server

// #region imports
import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/ritual-engine/internal/balance"
	"github.com/danielpatrickdp/ritual-engine/internal/engine"
	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

// #endregion

// #region ws-config

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// #endregion ws-config

// #region messages

// wsInbound is a message from a dashboard client. The presentation layer
// never mutates engine state except through the confirmation input and
// the external secondary weighting factor; the event type exists for
// feeds that push over the same socket.
type wsInbound struct {
	Type        string  `json:"type"` // "confirm" | "secondary" | "event"
	Input       string  `json:"input,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Service     string  `json:"service,omitempty"`
	Status      string  `json:"status,omitempty"`
	HealthScore float64 `json:"health_score,omitempty"`
	CheckID     int     `json:"check_id,omitempty"`
	AuxGateID   int     `json:"aux_gate_id,omitempty"`
}

// wsBalance mirrors balance.Metrics with JSON tags.
type wsBalance struct {
	LeftWeight  float64 `json:"left_weight"`
	RightWeight float64 `json:"right_weight"`
	Balance     float64 `json:"balance"`
	Pulse       float64 `json:"pulse"`
	Complexity  float64 `json:"complexity"`
}

// wsOutbound is one snapshot push to a dashboard client.
type wsOutbound struct {
	Type         string    `json:"type"` // "snapshot" | "confirm_result" | "error"
	Seq          uint64    `json:"seq,omitempty"`
	Fraction     float64   `json:"fraction,omitempty"`
	Phase        string    `json:"phase,omitempty"`
	Aligned      bool      `json:"aligned,omitempty"`
	OverallScore float64   `json:"overall_score,omitempty"`
	ChecksPassed int       `json:"checks_passed,omitempty"`
	Ripple       float64   `json:"ripple,omitempty"`
	AuxGates     []int     `json:"aux_gates,omitempty"`
	GateArmed    bool      `json:"gate_armed,omitempty"`
	GateResult   string    `json:"gate_result,omitempty"`
	Balance      wsBalance `json:"balance"`
	Accepted     bool      `json:"accepted,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// #endregion messages

// #region server

// Config holds the dashboard server parameters.
type Config struct {
	PushInterval time.Duration // presentation clock cadence
}

// DefaultConfig pushes snapshots at 10Hz.
func DefaultConfig() Config {
	return Config{PushInterval: 100 * time.Millisecond}
}

// Server pushes engine snapshots to dashboard clients over websockets
// and relays confirmation inputs back to the gate. Each connection gets
// its own presentation clock; none of them ever block the feed.
type Server struct {
	engine *engine.Engine
	config Config
}

// New creates a dashboard server for the given engine.
func New(eng *engine.Engine, config Config) *Server {
	return &Server{engine: eng, config: config}
}

// Routes registers the server's handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/dashboard", s.HandleDashboardWS)
}

// #endregion server

// #region handler

// HandleDashboardWS upgrades the connection and runs the two clock
// domains: a writer goroutine pushing snapshots at the presentation
// cadence, and a read loop accepting confirmation and weighting inputs.
func (s *Server) HandleDashboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		log.Printf("[WS] set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	secondary := parseSecondary(r.URL.Query().Get("secondary"))
	secondaryCh := make(chan float64, 8)
	writeCh := make(chan wsOutbound, 32)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		push := time.NewTicker(s.config.PushInterval)
		defer push.Stop()
		ping := time.NewTicker(wsPingEvery)
		defer ping.Stop()

		for {
			select {
			case <-quit:
				return
			case v := <-secondaryCh:
				secondary = v
			case out := <-writeCh:
				if !writeJSON(conn, out) {
					return
				}
			case <-push.C:
				// The presentation clock also drives gate expiry while
				// the feed is quiet.
				s.engine.Tick()
				if !writeJSON(conn, snapshotMsg(s.engine.Snapshot(), secondary)) {
					return
				}
			case <-ping.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			break
		}
		s.dispatch(in, writeCh, secondaryCh)
	}
	close(quit)
	conn.Close()
	<-done
}

// dispatch routes one inbound message.
func (s *Server) dispatch(in wsInbound, writeCh chan<- wsOutbound, secondaryCh chan<- float64) {
	switch in.Type {
	case "confirm":
		accepted := s.engine.SubmitConfirmation(in.Input)
		push(writeCh, wsOutbound{Type: "confirm_result", Accepted: accepted})
	case "secondary":
		v := in.Value
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		select {
		case secondaryCh <- v:
		default:
		}
	case "event":
		ev := event.ServiceEvent{
			Service:     in.Service,
			Status:      event.Status(strings.ToLower(in.Status)),
			Timestamp:   time.Now().UTC(),
			HealthScore: in.HealthScore,
			CheckID:     in.CheckID,
			AuxGateID:   in.AuxGateID,
		}
		if err := s.engine.OnEvent(ev); err != nil {
			log.Printf("[WS] event rejected: %v", err)
			push(writeCh, wsOutbound{Type: "error", Message: err.Error()})
		}
	default:
		push(writeCh, wsOutbound{Type: "error", Message: "unknown message type"})
	}
}

// #endregion handler

// #region helpers

// snapshotMsg projects an engine snapshot plus the client's secondary
// factor into the outbound wire shape.
func snapshotMsg(snap *engine.Snapshot, secondary float64) wsOutbound {
	m := balance.Compute(snap.Progress.Fraction, snap.Alignment.OverallScore, secondary)
	return wsOutbound{
		Type:         "snapshot",
		Seq:          snap.Seq,
		Fraction:     snap.Progress.Fraction,
		Phase:        string(snap.Progress.Phase),
		Aligned:      snap.Progress.Aligned,
		OverallScore: snap.Alignment.OverallScore,
		ChecksPassed: snap.Alignment.PassedCount(),
		Ripple:       snap.Alignment.Ripple,
		AuxGates:     snap.Progress.ActiveAuxGates,
		GateArmed:    snap.Gate.Armed,
		GateResult:   string(snap.Gate.Result),
		Balance: wsBalance{
			LeftWeight:  m.LeftWeight,
			RightWeight: m.RightWeight,
			Balance:     m.Balance,
			Pulse:       m.Pulse,
			Complexity:  m.Complexity,
		},
	}
}

func parseSecondary(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func writeJSON(conn *websocket.Conn, out wsOutbound) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return false
	}
	return conn.WriteJSON(out) == nil
}

func push(ch chan<- wsOutbound, out wsOutbound) {
	select {
	case ch <- out:
	default:
	}
}

// #endregion helpers
