package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"powersim/domain/core"
	"powersim/domain/result"
	"powersim/domain/simspec"
	"powersim/ports"
)

// SimulationRunner drives the simulate-fit-summarize cycle for every
// replication of a SimulationSpec. Each replication generates its own
// dataset, fits the model, extracts the target-coefficient summary, and
// keeps only the compact ReplicationResult; dataset and posterior are
// dropped immediately so memory stays O(R) records.
type SimulationRunner struct {
	generator ports.DataGenerator
	fitter    ports.ModelFitter
}

// NewSimulationRunner creates a runner over the given collaborators
func NewSimulationRunner(generator ports.DataGenerator, fitter ports.ModelFitter) *SimulationRunner {
	return &SimulationRunner{generator: generator, fitter: fitter}
}

// Run executes all replications and returns their results ordered by
// replication index, regardless of internal parallelism.
//
// Per-replication fit failures and timeouts become tombstone records and
// the run continues. Context cancellation stops issuing new replications
// without interrupting in-flight fits; the results produced so far are
// returned and consumers detect the shortfall via Completed < R. When
// MaxFailureRate is set and exceeded, the run stops early and returns
// the partial results together with core.ErrFailureRateExceeded.
func (r *SimulationRunner) Run(ctx context.Context, spec simspec.SimulationSpec) ([]result.ReplicationResult, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if spec.Parallelism < 2 {
		return r.runSequential(ctx, spec)
	}
	return r.runParallel(ctx, spec)
}

func (r *SimulationRunner) runSequential(ctx context.Context, spec simspec.SimulationSpec) ([]result.ReplicationResult, error) {
	results := make([]result.ReplicationResult, 0, spec.Replications)
	failed := 0

	for i := 1; i <= spec.Replications; i++ {
		if ctx.Err() != nil {
			return results, nil
		}
		res := r.replicate(ctx, spec, i)
		results = append(results, res)
		if res.Failed {
			failed++
		}
		if exceedsFailureBudget(spec, failed, len(results)) {
			return results, core.ErrFailureRateExceeded
		}
	}
	return results, nil
}

func (r *SimulationRunner) runParallel(ctx context.Context, spec simspec.SimulationSpec) ([]result.ReplicationResult, error) {
	// One slot per replication index, written exactly once by its own
	// goroutine; no lock needed beyond the issue-side semaphore.
	slots := make([]result.ReplicationResult, spec.Replications)
	produced := make([]bool, spec.Replications)

	issueCtx, stopIssuing := context.WithCancel(ctx)
	defer stopIssuing()

	sem := semaphore.NewWeighted(int64(spec.Parallelism))
	var wg sync.WaitGroup
	var failed, completed atomic.Int64

	for i := 1; i <= spec.Replications; i++ {
		if err := sem.Acquire(issueCtx, 1); err != nil {
			break // cancelled or hard-stopped: stop issuing, in-flight fits finish
		}
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer sem.Release(1)

			res := r.replicate(ctx, spec, index)
			slots[index-1] = res
			produced[index-1] = true

			done := completed.Add(1)
			nFailed := failed.Load()
			if res.Failed {
				nFailed = failed.Add(1)
			}
			if exceedsFailureBudget(spec, int(nFailed), int(done)) {
				stopIssuing()
			}
		}(i)
	}
	wg.Wait()

	// Re-collect in index order; unissued slots are simply absent.
	results := make([]result.ReplicationResult, 0, spec.Replications)
	for i, ok := range produced {
		if ok {
			results = append(results, slots[i])
		}
	}
	if exceedsFailureBudget(spec, int(failed.Load()), len(results)) {
		return results, core.ErrFailureRateExceeded
	}
	return results, nil
}

// replicate runs one simulate-fit-summarize cycle. Every failure mode is
// absorbed into a tombstone; only the compact record leaves this call.
func (r *SimulationRunner) replicate(ctx context.Context, spec simspec.SimulationSpec, index int) result.ReplicationResult {
	seed := spec.Seeds.SeedFor(index)

	data, err := r.generator.Generate(spec.DataGen, seed)
	if err != nil {
		return result.Tombstone(index, seed, "generate: "+err.Error())
	}

	fitCtx := ctx
	if spec.FitTimeout > 0 {
		var cancel context.CancelFunc
		fitCtx, cancel = context.WithTimeout(ctx, spec.FitTimeout)
		defer cancel()
	}

	handle, err := r.fitter.Fit(fitCtx, spec.Model, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return result.Tombstone(index, seed, core.ErrFitTimeout.Error())
		}
		return result.Tombstone(index, seed, err.Error())
	}

	summary, err := r.fitter.Summarize(handle, spec.TargetCoefficient, spec.ProbMass)
	if err != nil {
		return result.Tombstone(index, seed, "summarize: "+err.Error())
	}

	return result.ReplicationResult{
		Index:    index,
		Seed:     seed,
		Point:    summary.Point,
		Lower:    summary.Lower,
		Upper:    summary.Upper,
		ProbMass: summary.ProbMass,
		Width:    summary.Width(),
	}
}

func exceedsFailureBudget(spec simspec.SimulationSpec, failed, completed int) bool {
	if spec.MaxFailureRate <= 0 || completed == 0 {
		return false
	}
	return float64(failed)/float64(completed) > spec.MaxFailureRate
}
