package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/ritual-engine/internal/alignment"
	"github.com/danielpatrickdp/ritual-engine/internal/config"
	"github.com/danielpatrickdp/ritual-engine/internal/engine"
	"github.com/danielpatrickdp/ritual-engine/internal/event"
	"github.com/danielpatrickdp/ritual-engine/internal/feed"
	"github.com/danielpatrickdp/ritual-engine/internal/history"
	"github.com/danielpatrickdp/ritual-engine/internal/logging"
	"github.com/danielpatrickdp/ritual-engine/internal/server"
)

// #region recording-sink

// recordingSink folds feed events into the engine and persists both the
// raw event and the resulting snapshot. Malformed events are recorded
// nowhere; invalid check ids are kept in the event log so a replay
// reproduces the same health fold.
type recordingSink struct {
	eng   *engine.Engine
	store *history.Store
	runID string
	seq   uint64 // ordinal of folded events, matches replay step numbering
}

func (s *recordingSink) OnEvent(ev event.ServiceEvent) error {
	err := s.eng.OnEvent(ev)
	if err != nil && !errors.Is(err, event.ErrInvalidCheckID) {
		return err
	}
	s.seq++

	snap := s.eng.Snapshot()
	if dbErr := s.store.AppendEvent(s.runID, s.seq, ev); dbErr != nil {
		log.Printf("[HISTORY] append event: %v", dbErr)
	}
	if dbErr := s.store.RecordSnapshot(s.runID, history.SnapshotRow{
		Seq:          s.seq,
		Fraction:     snap.Progress.Fraction,
		Phase:        string(snap.Progress.Phase),
		Aligned:      snap.Progress.Aligned,
		OverallScore: snap.Alignment.OverallScore,
		ChecksPassed: snap.Alignment.PassedCount(),
		Ripple:       snap.Alignment.Ripple,
		CreatedAt:    snap.UpdatedAt,
	}); dbErr != nil {
		log.Printf("[HISTORY] record snapshot: %v", dbErr)
	}
	return err
}

// #endregion recording-sink

// #region main
func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		config.Exitf("configuration error: %v", err)
	}

	store, err := history.NewStore(cfg.DBPath)
	if err != nil {
		config.Exitf("failed to open store: %v", err)
	}
	defer store.Close()

	run, err := store.CreateRun(cfg.TotalEvents)
	if err != nil {
		config.Exitf("failed to create run: %v", err)
	}

	engCfg := engine.DefaultConfig(cfg.TotalEvents)
	engCfg.Gate.RequiredToken = cfg.GateToken
	engCfg.Gate.Window = cfg.GateWindow
	engCfg.Tracker.RewindAmount = cfg.RewindAmount
	engCfg.Debug = cfg.EngineDebug

	eng, err := engine.New(engCfg)
	if err != nil {
		config.Exitf("failed to build engine: %v", err)
	}

	eng.OnGateEvent(func(ge engine.GateEvent) {
		err := logging.LogGate(store.DB(), logging.GateEntry{
			RunID:     run.RunID,
			Action:    ge.Action,
			Reason:    ge.Reason,
			InputText: ge.Input,
			CreatedAt: ge.At,
		})
		if err != nil {
			log.Printf("[GATE] provenance write failed: %v", err)
		}
	})
	eng.OnComplete(func(final alignment.State) {
		if err := store.MarkCompleted(run.RunID, final.OverallScore); err != nil {
			log.Printf("[HISTORY] mark completed: %v", err)
		}
		log.Printf("[ENGINE] run %s completed: score=%.4f checks=%d",
			run.RunID, final.OverallScore, final.PassedCount())
	})

	srv := server.New(eng, server.Config{PushInterval: cfg.PushInterval})
	mux := http.NewServeMux()
	srv.Routes(mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedCfg := feed.DefaultProducerConfig(cfg.TotalEvents)
	feedCfg.Interval = cfg.FeedInterval
	feedCfg.Seed = cfg.FeedSeed
	producer := feed.NewProducer(feedCfg)
	sink := &recordingSink{eng: eng, store: store, runID: run.RunID}

	go func() {
		if err := producer.Run(ctx, sink); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[FEED] producer stopped: %v", err)
		}
	}()

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("[ENGINE] run %s listening on %s (db=%s, total=%d)",
			run.RunID, cfg.ListenAddr, cfg.DBPath, cfg.TotalEvents)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Exitf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ENGINE] shutdown: %v", err)
	}
}

// #endregion main
