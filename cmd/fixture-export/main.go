package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ritual-engine/internal/history"
	"github.com/danielpatrickdp/ritual-engine/internal/logging"
	"github.com/danielpatrickdp/ritual-engine/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ritual.db")
	runID := flag.String("run", "", "run id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *runID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/ritual.db --run <run-id> --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, runID, outPath string) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := store.GetRun(runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	events, err := store.ListEvents(runID)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("run %s has no recorded events", runID)
	}

	snapshots, err := store.ListSnapshots(runID)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	gateLog, err := logging.ListGate(store.DB(), runID)
	if err != nil {
		return fmt.Errorf("list gate log: %w", err)
	}

	base := events[0].Timestamp
	fixtureEvents := make([]replay.FixtureEvent, len(events))
	for i, ev := range events {
		fixtureEvents[i] = replay.FromServiceEvent(ev, base)
	}

	fixture := buildFixture(rec, fixtureEvents, snapshots, gateLog)
	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region build

func buildFixture(
	rec history.RunRecord,
	events []replay.FixtureEvent,
	snapshots []history.SnapshotRow,
	gateLog []logging.GateEntry,
) replay.Fixture {
	fixture := replay.Fixture{
		Description:   fmt.Sprintf("Recorded run export: %s (%d events)", rec.RunID, len(events)),
		TotalExpected: rec.TotalExpected,
		Events:        events,
		Confirmations: replay.ConfirmationsFromGateLog(gateLog, snapshots),
	}

	// Record only phase transitions as expectations; per-event snapshots
	// make fixtures noisy without catching more regressions.
	prevPhase := ""
	for _, s := range snapshots {
		if s.Phase == prevPhase {
			continue
		}
		prevPhase = s.Phase
		fixture.Expected = append(fixture.Expected, replay.FixtureExpected{
			Seq:   int(s.Seq),
			Phase: s.Phase,
		})
	}
	return fixture
}

// #endregion build

// #region output

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d events, %d confirmations)\n",
		outPath, len(data), len(fixture.Events), len(fixture.Confirmations))
	return nil
}

// #endregion output
