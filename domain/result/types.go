package result

import (
	"powersim/domain/core"
)

// ReplicationResult is the compact per-replication record retained after
// the generated dataset and fitted posterior are discarded. Created once,
// never mutated.
type ReplicationResult struct {
	Index    int     `json:"index" db:"index"` // 1-based replication index
	Seed     int64   `json:"seed" db:"seed"`
	Point    float64 `json:"point" db:"point"`
	Lower    float64 `json:"lower" db:"lower"`
	Upper    float64 `json:"upper" db:"upper"`
	ProbMass float64 `json:"prob_mass" db:"prob_mass"`
	Width    float64 `json:"width" db:"width"` // upper - lower

	// Tombstone fields: a failed replication keeps its index and seed
	// for accounting but carries no interval.
	Failed        bool   `json:"failed" db:"failed"`
	FailureReason string `json:"failure_reason,omitempty" db:"failure_reason"`
}

// Tombstone builds the record for a replication whose fit failed
func Tombstone(index int, seed int64, reason string) ReplicationResult {
	return ReplicationResult{
		Index:         index,
		Seed:          seed,
		Failed:        true,
		FailureReason: reason,
	}
}

// Successful filters out tombstoned records, preserving index order
func Successful(results []ReplicationResult) []ReplicationResult {
	ok := make([]ReplicationResult, 0, len(results))
	for _, r := range results {
		if !r.Failed {
			ok = append(ok, r)
		}
	}
	return ok
}

// Widths returns the interval widths of the successful records
func Widths(results []ReplicationResult) []float64 {
	widths := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Failed {
			widths = append(widths, r.Width)
		}
	}
	return widths
}

// SimulationReport is the scalar summary over all replication results.
// Derived once per run, read-only.
type SimulationReport struct {
	Power           float64  `json:"power"`
	MeanWidth       float64  `json:"mean_width"`
	MedianWidth     float64  `json:"median_width"`
	WidthQ90        float64  `json:"width_q90"`
	ProportionBelow *float64 `json:"proportion_below,omitempty"` // only for width criteria
	FailureRate     float64  `json:"failure_rate"`

	Replications int `json:"replications"` // requested R
	Completed    int `json:"completed"`    // records produced (may be < R after cancellation)
	Succeeded    int `json:"succeeded"`
	Excluded     int `json:"excluded"` // tombstones left out of the criterion denominator
}

// Partial reports whether the run stopped before producing all R records
func (r SimulationReport) Partial() bool {
	return r.Completed < r.Replications
}

// RunRecord ties a finished run's report and results to an identifier
// for persistence and later inspection.
type RunRecord struct {
	ID        core.RunID          `json:"id"`
	CreatedAt core.Timestamp      `json:"created_at"`
	SpecJSON  []byte              `json:"spec,omitempty"`
	Report    SimulationReport    `json:"report"`
	Results   []ReplicationResult `json:"results"`
}
