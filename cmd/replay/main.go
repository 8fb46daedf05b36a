package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ritual-engine/internal/history"
	"github.com/danielpatrickdp/ritual-engine/internal/logging"
	"github.com/danielpatrickdp/ritual-engine/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ritual.db (DB mode, requires --run)")
	runID := flag.String("run", "", "run id to replay from the DB")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/ritual.db --run <run-id>")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		if *runID == "" {
			fmt.Fprintln(os.Stderr, "--db mode requires --run <run-id>")
			os.Exit(2)
		}
		exitCode = runDBMode(*dbPath, *runID)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, summary, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	mismatches := replay.Verify(results, f.Expected)
	printSummary(summary, mismatches)
	if len(mismatches) > 0 || summary.InvariantFailures > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region db-mode

// runDBMode rebuilds a fixture from a recorded run and replays it,
// comparing replayed phases against the snapshots the live run wrote.
func runDBMode(dbPath, runID string) int {
	store, err := history.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	run, err := store.GetRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get run: %v\n", err)
		return 2
	}

	events, err := store.ListEvents(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list events: %v\n", err)
		return 2
	}
	if len(events) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no recorded events\n", runID)
		return 2
	}

	snapshots, err := store.ListSnapshots(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list snapshots: %v\n", err)
		return 2
	}

	gateLog, err := logging.ListGate(store.DB(), runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list gate log: %v\n", err)
		return 2
	}

	base := events[0].Timestamp
	fixtureEvents := make([]replay.FixtureEvent, len(events))
	for i, ev := range events {
		fixtureEvents[i] = replay.FromServiceEvent(ev, base)
	}

	f := fixtureFromRun(run, fixtureEvents, snapshots, gateLog)
	results, summary, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	mismatches := replay.Verify(results, f.Expected)
	printSummary(summary, mismatches)
	if len(mismatches) > 0 || summary.InvariantFailures > 0 {
		return 1
	}
	return 0
}

// fixtureFromRun converts a recorded run back into a replayable fixture.
// Confirmation inputs come from the gate log; accepted and rejected
// submissions are both replayed at the sequence the live run saw them.
func fixtureFromRun(
	run history.RunRecord,
	events []replay.FixtureEvent,
	snapshots []history.SnapshotRow,
	gateLog []logging.GateEntry,
) *replay.Fixture {
	f := &replay.Fixture{
		Description:   fmt.Sprintf("recorded run %s", run.RunID),
		TotalExpected: run.TotalExpected,
		Events:        events,
		Confirmations: replay.ConfirmationsFromGateLog(gateLog, snapshots),
	}

	for _, s := range snapshots {
		f.Expected = append(f.Expected, replay.FixtureExpected{
			Seq:   int(s.Seq),
			Phase: s.Phase,
		})
	}
	return f
}

// #endregion db-mode

// #region output

func printSummary(summary replay.Summary, mismatches []replay.Mismatch) {
	fmt.Printf("Replayed %d events (%d dropped, %d invalid checks)\n",
		summary.TotalEvents, summary.Dropped, summary.InvalidChecks)
	fmt.Printf("  recalibrations=%d confirmations=%d invariant_failures=%d\n",
		summary.Recalibrations, summary.Confirmations, summary.InvariantFailures)
	fmt.Printf("  final: phase=%s score=%.4f completed=%v\n",
		summary.FinalPhase, summary.FinalScore, summary.Completed)

	if len(mismatches) == 0 {
		fmt.Println("\nAll expected results match.")
		return
	}
	fmt.Printf("\n%d divergences:\n", len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  seq %d: %s\n", m.Seq, m.Reason)
	}
}

// #endregion output
