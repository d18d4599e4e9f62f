package testkit

import (
	"context"
	"sync"

	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
	"powersim/ports"
)

// StubFitter is a deterministic ModelFitter for tests. By default the
// point estimate is the observed group-mean difference (or the single
// group mean when the formula has no terms) and the interval is
// point ± HalfWidth. Fixed, when set, overrides the interval entirely.
// FailCalls scripts fit failures by 1-based Fit call number.
type StubFitter struct {
	HalfWidth float64
	Fixed     *ports.CoefficientSummary
	FailCalls map[int]string

	mu    sync.Mutex
	calls int
}

// NewStubFitter creates a stub producing point ± halfWidth intervals
func NewStubFitter(halfWidth float64) *StubFitter {
	return &StubFitter{HalfWidth: halfWidth}
}

// Calls returns how many times Fit has been invoked
func (s *StubFitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPosterior struct {
	order  []core.CoefficientKey
	points map[core.CoefficientKey]float64
}

func (p *stubPosterior) Coefficients() []core.CoefficientKey { return p.order }

// Fit computes per-coefficient point estimates from the data
func (s *StubFitter) Fit(ctx context.Context, spec simspec.ModelSpec, data *dataset.Dataset) (ports.PosteriorHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	if reason, ok := s.FailCalls[call]; ok {
		return nil, core.NewFitFailureError(reason)
	}

	post := &stubPosterior{
		order:  spec.Formula.Coefficients(),
		points: make(map[core.CoefficientKey]float64),
	}
	meanC := meanOf(data, dataset.GroupControl)
	post.points[spec.Formula.Intercept] = meanC
	for _, term := range spec.Formula.Terms {
		post.points[term.Coefficient] = meanOf(data, dataset.GroupTreatment) - meanC
	}
	return post, nil
}

// Summarize returns point ± HalfWidth, or the Fixed interval when set
func (s *StubFitter) Summarize(handle ports.PosteriorHandle, coefficient core.CoefficientKey, probMass float64) (ports.CoefficientSummary, error) {
	if s.Fixed != nil {
		fixed := *s.Fixed
		fixed.ProbMass = probMass
		return fixed, nil
	}
	post, ok := handle.(*stubPosterior)
	if !ok {
		return ports.CoefficientSummary{}, core.NewFitFailureError("foreign posterior handle")
	}
	point, ok := post.points[coefficient]
	if !ok {
		return ports.CoefficientSummary{}, core.NewUnknownCoefficientError(coefficient.String())
	}
	return ports.CoefficientSummary{
		Point:    point,
		Lower:    point - s.HalfWidth,
		Upper:    point + s.HalfWidth,
		ProbMass: probMass,
	}, nil
}

func meanOf(data *dataset.Dataset, group int) float64 {
	if data.Aggregated {
		if data.Trials == 0 {
			return 0
		}
		return float64(data.Successes) / float64(data.Trials)
	}
	values := data.GroupOutcomes(group)
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
