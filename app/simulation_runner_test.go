package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"powersim/adapters/datagen"
	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
	"powersim/internal/testkit"
	"powersim/ports"
)

func TestRun_Deterministic(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(20, 30, 0, 0.5, 1)
	spec.Seeds = simspec.SeedPolicy{Base: 42}

	first, err := NewSimulationRunner(datagen.NewGenerator(), testkit.NewStubFitter(0.3)).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := NewSimulationRunner(datagen.NewGenerator(), testkit.NewStubFitter(0.3)).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical specs produced different result sequences")
	}
	for _, res := range first {
		if res.Width < 0 {
			t.Errorf("replication %d has negative width %f", res.Index, res.Width)
		}
	}
}

func TestRun_ParallelOrdering(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(40, 10, 0, 0.5, 1)
	spec.Seeds = simspec.SeedPolicy{Base: 100}
	spec.Parallelism = 4

	results, err := NewSimulationRunner(datagen.NewGenerator(), testkit.NewStubFitter(0.3)).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(results) != 40 {
		t.Fatalf("got %d results, want 40", len(results))
	}
	for i, res := range results {
		if res.Index != i+1 {
			t.Fatalf("result %d has index %d, want %d", i, res.Index, i+1)
		}
		if res.Seed != 100+int64(i+1) {
			t.Errorf("replication %d has seed %d, want %d", res.Index, res.Seed, 100+i+1)
		}
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(24, 15, 0, 0.4, 1)
	spec.Seeds = simspec.SeedPolicy{Base: 7}

	sequential, err := NewSimulationRunner(datagen.NewGenerator(), testkit.NewStubFitter(0.25)).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}

	spec.Parallelism = 6
	parallel, err := NewSimulationRunner(datagen.NewGenerator(), testkit.NewStubFitter(0.25)).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	if !reflect.DeepEqual(sequential, parallel) {
		t.Error("parallel execution changed the result sequence")
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(10, 20, 0, 0.5, 1)
	spec.Seeds = simspec.SeedPolicy{Base: 1}

	fitter := testkit.NewStubFitter(0.3)
	fitter.FailCalls = map[int]string{3: "singular design matrix"}

	results, err := NewSimulationRunner(datagen.NewGenerator(), fitter).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}

	tombstone := results[2]
	if !tombstone.Failed || tombstone.Index != 3 {
		t.Fatalf("expected tombstone at index 3, got %+v", tombstone)
	}
	if !strings.Contains(tombstone.FailureReason, "singular design matrix") {
		t.Errorf("tombstone reason = %q, want the fit failure reason", tombstone.FailureReason)
	}
	for _, res := range results {
		if res.Index != 3 && res.Failed {
			t.Errorf("replication %d failed unexpectedly: %s", res.Index, res.FailureReason)
		}
	}

	eval, err := NewCriterionEvaluator().Evaluate(results, spec.Criterion)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if len(eval.Verdicts) != 9 || eval.Excluded != 1 {
		t.Fatalf("got %d verdicts / %d excluded, want 9 / 1", len(eval.Verdicts), eval.Excluded)
	}

	report, err := NewReportAggregator().Aggregate(results, eval, spec.Replications)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if report.FailureRate != 0.1 {
		t.Errorf("FailureRate = %f, want 0.1", report.FailureRate)
	}
	if report.Succeeded != 9 {
		t.Errorf("Succeeded = %d, want 9", report.Succeeded)
	}
}

func TestRun_FitTimeoutBecomesTombstone(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(3, 10, 0, 0.5, 1)
	spec.FitTimeout = 5 * time.Millisecond

	results, err := NewSimulationRunner(datagen.NewGenerator(), blockingFitter{}).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, res := range results {
		if !res.Failed {
			t.Fatalf("replication %d should have timed out", res.Index)
		}
		if res.FailureReason != core.ErrFitTimeout.Error() {
			t.Errorf("replication %d reason = %q, want %q", res.Index, res.FailureReason, core.ErrFitTimeout.Error())
		}
	}
}

func TestRun_CancellationReturnsPartialResults(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(10, 10, 0, 0.5, 1)

	ctx, cancel := context.WithCancel(context.Background())
	fitter := &cancelAfterFitter{StubFitter: testkit.NewStubFitter(0.3), after: 5, cancel: cancel}

	results, err := NewSimulationRunner(datagen.NewGenerator(), fitter).Run(ctx, spec)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results after cancellation, want 5", len(results))
	}

	eval, err := NewCriterionEvaluator().Evaluate(results, spec.Criterion)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	report, err := NewReportAggregator().Aggregate(results, eval, spec.Replications)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if !report.Partial() {
		t.Error("report should be flagged partial when Completed < Replications")
	}
	if report.Completed != 5 || report.Replications != 10 {
		t.Errorf("Completed/Replications = %d/%d, want 5/10", report.Completed, report.Replications)
	}
}

func TestRun_FailureBudgetHardStop(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(20, 10, 0, 0.5, 1)
	spec.MaxFailureRate = 0.2

	fitter := testkit.NewStubFitter(0.3)
	fitter.FailCalls = map[int]string{1: "diverged", 2: "diverged"}

	results, err := NewSimulationRunner(datagen.NewGenerator(), fitter).
		Run(context.Background(), spec)
	if !errors.Is(err, core.ErrFailureRateExceeded) {
		t.Fatalf("Run() error = %v, want ErrFailureRateExceeded", err)
	}
	if len(results) == 0 || len(results) == 20 {
		t.Errorf("hard stop returned %d results, want a proper partial sequence", len(results))
	}
}

func TestRun_FixedIntervalPower(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(20, 10, 0, 0.5, 1)

	fitter := testkit.NewStubFitter(0)
	fitter.Fixed = &ports.CoefficientSummary{Point: 0.55, Lower: 0.2, Upper: 0.9}

	results, err := NewSimulationRunner(datagen.NewGenerator(), fitter).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	eval, err := NewCriterionEvaluator().Evaluate(results, spec.Criterion)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	report, err := NewReportAggregator().Aggregate(results, eval, spec.Replications)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	if report.Power != 1.0 {
		t.Errorf("Power = %f, want 1.0 for an interval entirely above the null", report.Power)
	}
}

func TestRun_GaussianEndToEnd(t *testing.T) {
	spec := testkit.GaussianTwoGroupSpec(100, 50, 0, 0.5, 1)
	spec.Seeds = simspec.SeedPolicy{Base: 2024}
	spec.Parallelism = 4

	results, err := NewSimulationRunner(datagen.NewGenerator(), testkit.NewStubFitter(0.35)).
		Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	eval, err := NewCriterionEvaluator().Evaluate(results, spec.Criterion)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	report, err := NewReportAggregator().Aggregate(results, eval, spec.Replications)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}

	if report.Power < 0 || report.Power > 1 {
		t.Errorf("Power = %f, want a value in [0, 1]", report.Power)
	}
	if report.FailureRate != 0 {
		t.Errorf("FailureRate = %f, want 0", report.FailureRate)
	}
	if report.MeanWidth != 0.7 {
		t.Errorf("MeanWidth = %f, want 0.7 for a fixed half-width stub", report.MeanWidth)
	}
	if report.Partial() {
		t.Error("full run should not be partial")
	}
}

// blockingFitter never finishes a fit; it waits for the context deadline.
type blockingFitter struct{}

func (blockingFitter) Fit(ctx context.Context, _ simspec.ModelSpec, _ *dataset.Dataset) (ports.PosteriorHandle, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingFitter) Summarize(ports.PosteriorHandle, core.CoefficientKey, float64) (ports.CoefficientSummary, error) {
	return ports.CoefficientSummary{}, nil
}

// cancelAfterFitter cancels the run context once a set number of fits
// has completed, so later replications are never issued.
type cancelAfterFitter struct {
	*testkit.StubFitter
	after  int
	cancel context.CancelFunc
}

func (f *cancelAfterFitter) Fit(ctx context.Context, spec simspec.ModelSpec, data *dataset.Dataset) (ports.PosteriorHandle, error) {
	handle, err := f.StubFitter.Fit(ctx, spec, data)
	if f.Calls() >= f.after {
		f.cancel()
	}
	return handle, err
}
