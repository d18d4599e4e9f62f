package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"powersim/domain/core"
	"powersim/domain/result"
	"powersim/domain/simspec"
	"powersim/internal"
	"powersim/ports"
)

// PowerAnalysisService runs the full cycle: replications, criterion
// evaluation, aggregation, and optional persistence of the finished run.
type PowerAnalysisService struct {
	runner     *SimulationRunner
	evaluator  *CriterionEvaluator
	aggregator *ReportAggregator
	store      ports.RunStore // nil disables persistence
	logger     *internal.Logger
}

// NewPowerAnalysisService wires the service. store may be nil.
func NewPowerAnalysisService(generator ports.DataGenerator, fitter ports.ModelFitter, store ports.RunStore) *PowerAnalysisService {
	return &PowerAnalysisService{
		runner:     NewSimulationRunner(generator, fitter),
		evaluator:  NewCriterionEvaluator(),
		aggregator: NewReportAggregator(),
		store:      store,
		logger:     internal.DefaultLogger,
	}
}

// Execute validates the spec, runs all replications, and aggregates the
// report. The returned record carries the full result sequence for
// downstream inspection. A failure-rate hard stop still produces a
// record when enough replications succeeded; the caller sees the reason
// through the report's failure accounting.
func (s *PowerAnalysisService) Execute(ctx context.Context, spec simspec.SimulationSpec) (*result.RunRecord, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	s.logger.Info("starting run: R=%d family=%s target=%s prob_mass=%.3g",
		spec.Replications, spec.DataGen.Family, spec.TargetCoefficient, spec.ProbMass)

	results, runErr := s.runner.Run(ctx, spec)
	if runErr != nil && !errors.Is(runErr, core.ErrFailureRateExceeded) {
		return nil, runErr
	}
	if errors.Is(runErr, core.ErrFailureRateExceeded) {
		s.logger.Warn("run stopped early: %v", runErr)
	}

	eval, err := s.evaluator.Evaluate(results, spec.Criterion)
	if err != nil {
		return nil, err
	}
	report, err := s.aggregator.Aggregate(results, eval, spec.Replications)
	if err != nil {
		return nil, err
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	record := &result.RunRecord{
		ID:        core.NewRunID(),
		CreatedAt: core.Now(),
		SpecJSON:  specJSON,
		Report:    report,
		Results:   results,
	}

	s.logger.Info("run %s finished in %s: power=%.3f mean_width=%.4f failure_rate=%.3f completed=%d/%d",
		record.ID, time.Since(started).Round(time.Millisecond),
		report.Power, report.MeanWidth, report.FailureRate, report.Completed, report.Replications)

	if s.store != nil {
		if err := s.store.SaveRun(ctx, *record); err != nil {
			return nil, err
		}
	}
	return record, nil
}
