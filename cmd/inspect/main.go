package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/ritual-engine/internal/history"
	"github.com/danielpatrickdp/ritual-engine/internal/logging"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ritual.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/ritual.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := history.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		if err := runDetailMode(store, *runID, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := runListMode(store, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID         string  `json:"run_id"`
	StartedAt     string  `json:"started_at"`
	TotalExpected int     `json:"total_expected"`
	Completed     bool    `json:"completed"`
	FinalScore    float64 `json:"final_score"`
	LastPhase     string  `json:"last_phase,omitempty"`
	LastSeq       uint64  `json:"last_seq,omitempty"`
}

func runListMode(store *history.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		lr := listRow{
			RunID:         r.RunID,
			StartedAt:     r.StartedAt.Format("2006-01-02T15:04:05Z"),
			TotalExpected: r.TotalExpected,
			Completed:     r.Completed,
			FinalScore:    r.FinalScore,
		}
		if snap, err := store.LatestSnapshot(r.RunID); err == nil {
			lr.LastPhase = snap.Phase
			lr.LastSeq = snap.Seq
		}
		rows[i] = lr
	}

	if jsonOut {
		return printJSON(rows)
	}
	return printListTable(rows)
}

func printListTable(rows []listRow) error {
	fmt.Printf("%-10s  %-20s  %6s  %-14s  %8s  %6s  %s\n",
		"Run", "Started", "Total", "Phase", "Seq", "Score", "Done")
	fmt.Printf("%-10s+-%-20s+-%6s+-%-14s+-%8s+-%6s+-%s\n",
		"----------", "--------------------", "------", "--------------",
		"--------", "------", "-----")

	for _, r := range rows {
		phase := r.LastPhase
		if phase == "" {
			phase = "—"
		}
		fmt.Printf("%-10s  %-20s  %6d  %-14s  %8d  %6.4f  %v\n",
			shortID(r.RunID), r.StartedAt, r.TotalExpected,
			phase, r.LastSeq, r.FinalScore, r.Completed)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run       listRow               `json:"run"`
	Snapshots []history.SnapshotRow `json:"snapshots,omitempty"`
	GateLog   []logging.GateEntry   `json:"gate_log,omitempty"`
}

func runDetailMode(store *history.Store, runID string, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}

	snapshots, err := store.ListSnapshots(runID)
	if err != nil {
		return err
	}
	gateLog, err := logging.ListGate(store.DB(), runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		Run: listRow{
			RunID:         run.RunID,
			StartedAt:     run.StartedAt.Format("2006-01-02T15:04:05Z"),
			TotalExpected: run.TotalExpected,
			Completed:     run.Completed,
			FinalScore:    run.FinalScore,
		},
		Snapshots: snapshots,
		GateLog:   gateLog,
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	fmt.Printf("Started:    %s\n", out.Run.StartedAt)
	fmt.Printf("Total:      %d events expected\n", run.TotalExpected)
	fmt.Printf("Completed:  %v\n", run.Completed)
	fmt.Printf("Score:      %.4f\n", run.FinalScore)

	if len(snapshots) > 0 {
		fmt.Printf("\nSnapshots (%d):\n", len(snapshots))
		fmt.Printf("  %8s  %8s  %-14s  %6s  %6s  %7s\n",
			"Seq", "Fraction", "Phase", "Score", "Checks", "Ripple")
		for _, s := range snapshots {
			fmt.Printf("  %8d  %8.4f  %-14s  %6.4f  %6d  %7.4f\n",
				s.Seq, s.Fraction, s.Phase, s.OverallScore, s.ChecksPassed, s.Ripple)
		}
	}

	if len(gateLog) > 0 {
		fmt.Printf("\nGate log (%d):\n", len(gateLog))
		for _, g := range gateLog {
			input := g.InputText
			if input == "" {
				input = "—"
			}
			fmt.Printf("  %-10s  %-30s  %s\n", g.Action, g.Reason, input)
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
