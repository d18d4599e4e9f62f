package app

import (
	"github.com/montanaflynn/stats"

	"powersim/domain/core"
	"powersim/domain/result"
	"powersim/domain/simspec"
)

// ReportAggregator reduces evaluated replication results to the scalar
// report. All statistics are plain arithmetic over the successful-result
// subset; no resampling.
type ReportAggregator struct{}

// NewReportAggregator creates an aggregator
func NewReportAggregator() *ReportAggregator {
	return &ReportAggregator{}
}

// Aggregate computes the simulation report. requested is the R of the
// spec, which may exceed len(results) after cancellation or a hard stop.
// Zero successful results is an error so that "all replications failed"
// can never read as power = 0.
func (a *ReportAggregator) Aggregate(results []result.ReplicationResult, eval Evaluation, requested int) (result.SimulationReport, error) {
	widths := result.Widths(results)
	if len(widths) == 0 {
		return result.SimulationReport{}, core.ErrNoSuccessfulReplications
	}

	meanWidth, err := stats.Mean(widths)
	if err != nil {
		return result.SimulationReport{}, err
	}
	medianWidth, err := stats.Median(widths)
	if err != nil {
		return result.SimulationReport{}, err
	}
	q90, err := stats.Percentile(widths, 90)
	if err != nil {
		return result.SimulationReport{}, err
	}

	failed := len(results) - len(widths)
	report := result.SimulationReport{
		Power:        float64(eval.Passes()) / float64(len(eval.Verdicts)),
		MeanWidth:    meanWidth,
		MedianWidth:  medianWidth,
		WidthQ90:     q90,
		FailureRate:  float64(failed) / float64(requested),
		Replications: requested,
		Completed:    len(results),
		Succeeded:    len(widths),
		Excluded:     eval.Excluded,
	}

	if eval.Criterion.Kind == simspec.CriterionWidthBelow {
		below := 0
		for _, w := range widths {
			if w < eval.Criterion.Value {
				below++
			}
		}
		proportion := float64(below) / float64(len(widths))
		report.ProportionBelow = &proportion
	}
	return report, nil
}
