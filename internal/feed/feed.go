package feed

// #region imports
import (
	"context"
	"math/rand"
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

// #endregion

// #region sink

// Sink receives feed events one at a time in arrival order. The engine
// satisfies this directly.
type Sink interface {
	OnEvent(ev event.ServiceEvent) error
}

// #endregion sink

// #region producer-config

// ProducerConfig tunes the synthetic deployment feed.
type ProducerConfig struct {
	Total     int           // events to emit before the feed closes
	Interval  time.Duration // cadence of the feed clock
	Seed      int64         // rng seed; same seed, same stream
	Services  []string      // service names cycled through the stream
	ErrorRate float64       // probability an event reports an error
	AuxEvery  int           // every Nth event carries an aux gate id, 0 = never
}

// DefaultProducerConfig returns a deterministic 100-event feed at 250ms.
func DefaultProducerConfig(total int) ProducerConfig {
	return ProducerConfig{
		Total:    total,
		Interval: 250 * time.Millisecond,
		Seed:     42,
		Services: []string{
			"api-gateway", "auth-service", "ledger-core",
			"scribe-worker", "balance-renderer",
		},
		ErrorRate: 0.05,
		AuxEvery:  13,
	}
}

// #endregion producer-config

// #region producer

// Producer synthesizes the deployment event stream: the 42 checks are
// validated across the run, interleaved with plain status traffic and
// the occasional error. Deterministic for a given seed.
type Producer struct {
	config ProducerConfig
	rng    *rand.Rand
	clock  func() time.Time
}

// NewProducer creates a producer with the given configuration.
func NewProducer(config ProducerConfig) *Producer {
	return &Producer{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
		clock:  time.Now,
	}
}

// #endregion producer

// #region generate

// Events pre-generates the full stream without pacing. Used by replay
// fixtures and tests; Run emits the same stream on the feed clock.
func (p *Producer) Events() []event.ServiceEvent {
	events := make([]event.ServiceEvent, 0, p.config.Total)
	base := p.clock()

	// Spread the 42 checks evenly across the run, leaving room after the
	// last check for plain traffic to carry the fraction to the gate.
	checkEvery := 1
	if p.config.Total > event.CheckCount {
		checkEvery = p.config.Total / event.CheckCount
	}
	nextCheck := 1

	weights := []event.Weight{event.WeightA, event.WeightB, event.WeightBalanced}

	for i := 0; i < p.config.Total; i++ {
		ev := event.ServiceEvent{
			Service:     p.config.Services[i%len(p.config.Services)],
			Timestamp:   base.Add(time.Duration(i) * p.config.Interval),
			HealthScore: 0.6 + p.rng.Float64()*0.4,
			Weight:      weights[i%len(weights)],
		}

		switch {
		case p.rng.Float64() < p.config.ErrorRate:
			ev.Status = event.StatusError
			ev.HealthScore = p.rng.Float64() * 0.4
		case nextCheck <= event.CheckCount && i%checkEvery == 0:
			ev.Status = event.StatusValidated
			ev.CheckID = nextCheck
			nextCheck++
		default:
			ev.Status = event.StatusOnline
		}

		if p.config.AuxEvery > 0 && i > 0 && i%p.config.AuxEvery == 0 {
			ev.AuxGateID = i / p.config.AuxEvery
		}

		events = append(events, ev)
	}
	return events
}

// #endregion generate

// #region run

// Run pushes the stream into the sink at the configured cadence until
// the stream ends or the context is cancelled. Sink errors are skipped,
// not fatal: the feed's contract is delivery order, not delivery success.
func (p *Producer) Run(ctx context.Context, sink Sink) error {
	events := p.Events()
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for _, ev := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = sink.OnEvent(ev)
		}
	}
	return nil
}

// #endregion run
