package profiling

import (
	"github.com/montanaflynn/stats"

	"powersim/domain/core"
	"powersim/domain/dataset"
)

// GroupSummary holds the summary statistics of one indicator group
type GroupSummary struct {
	Group  int     `json:"group"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// DatasetProfile summarizes one generated dataset, per group
type DatasetProfile struct {
	Family     dataset.Family `json:"family"`
	N          int            `json:"n"`
	Aggregated bool           `json:"aggregated"`
	Successes  int            `json:"successes,omitempty"`
	Trials     int            `json:"trials,omitempty"`
	Groups     []GroupSummary `json:"groups,omitempty"`
}

// Profile computes summary statistics for a generated dataset. Used to
// sanity-check a scenario's generative distribution before committing
// to a full run.
func Profile(ds *dataset.Dataset) (DatasetProfile, error) {
	profile := DatasetProfile{
		Family:     ds.Family,
		N:          ds.N(),
		Aggregated: ds.Aggregated,
	}
	if ds.Aggregated {
		profile.Successes = ds.Successes
		profile.Trials = ds.Trials
		return profile, nil
	}

	for group := dataset.GroupControl; group < ds.GroupCount(); group++ {
		values := ds.GroupOutcomes(group)
		if len(values) == 0 {
			return DatasetProfile{}, core.NewInvalidSpecError("dataset", "empty indicator group")
		}
		summary, err := summarize(group, values)
		if err != nil {
			return DatasetProfile{}, err
		}
		profile.Groups = append(profile.Groups, summary)
	}
	return profile, nil
}

func summarize(group int, values []float64) (GroupSummary, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return GroupSummary{}, err
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		// Single observation: sample sd is undefined, report zero.
		sd = 0
	}
	min, err := stats.Min(values)
	if err != nil {
		return GroupSummary{}, err
	}
	max, err := stats.Max(values)
	if err != nil {
		return GroupSummary{}, err
	}
	median, err := stats.Median(values)
	if err != nil {
		return GroupSummary{}, err
	}
	return GroupSummary{
		Group:  group,
		N:      len(values),
		Mean:   mean,
		SD:     sd,
		Min:    min,
		Max:    max,
		Median: median,
	}, nil
}
