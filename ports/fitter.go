package ports

import (
	"context"

	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
)

// PosteriorHandle is an opaque reference to one fitted posterior. The
// engine never inspects it beyond passing it back to Summarize, so a
// fitter is free to hold samples, closed-form parameters, or nothing
// but a key into its own cache.
type PosteriorHandle interface {
	// Coefficients lists the coefficient keys the handle can summarize
	Coefficients() []core.CoefficientKey
}

// CoefficientSummary is the point estimate and two-sided credible
// interval for one named coefficient at the requested probability mass.
type CoefficientSummary struct {
	Point    float64 `json:"point"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	ProbMass float64 `json:"prob_mass"`
}

// Width returns upper - lower
func (s CoefficientSummary) Width() float64 {
	return s.Upper - s.Lower
}

// ModelFitter is the external model-fitting collaborator. Sampler
// internals (MCMC, variational, closed-form) are out of scope; the
// engine requires only reproducibility for a fixed (spec, data) pair
// and a core.ErrFitFailure-wrapped error when diagnostics reject a fit.
//
// Implementations may cache compiled model structure keyed by the
// ModelSpec shape across Fit calls that differ only in data. That is a
// performance hint, never externally visible mutable state.
type ModelFitter interface {
	Fit(ctx context.Context, spec simspec.ModelSpec, data *dataset.Dataset) (PosteriorHandle, error)
	Summarize(handle PosteriorHandle, coefficient core.CoefficientKey, probMass float64) (CoefficientSummary, error)
}

// DataGenerator produces one synthetic dataset per replication. The same
// (spec, seed) pair must reproduce identical draws in identical order;
// no pseudorandom state outlives the call.
type DataGenerator interface {
	Generate(spec simspec.DataGenSpec, seed int64) (*dataset.Dataset, error)
}
