package history

import "time"

// #region run-record
// RunRecord represents one recorded deployment run.
type RunRecord struct {
	RunID         string
	StartedAt     time.Time
	TotalExpected int
	Completed     bool
	FinalScore    float64
}
// #endregion run-record

// #region snapshot-row
// SnapshotRow is the persisted form of one engine snapshot.
type SnapshotRow struct {
	Seq          uint64
	Fraction     float64
	Phase        string
	Aligned      bool
	OverallScore float64
	ChecksPassed int
	Ripple       float64
	CreatedAt    time.Time
}
// #endregion snapshot-row
