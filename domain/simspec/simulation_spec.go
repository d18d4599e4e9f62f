package simspec

import (
	"fmt"
	"time"

	"powersim/domain/core"
)

// SeedPolicy derives the per-replication seed from the replication index.
// seed_i = Base + i for i in 1..R, so the same spec always regenerates the
// same per-replication data. A zero Base makes the seed equal the index,
// which is the conventional default.
type SeedPolicy struct {
	Base int64 `json:"base" yaml:"base"`
}

// SeedFor returns the deterministic seed for a 1-based replication index
func (p SeedPolicy) SeedFor(index int) int64 {
	return p.Base + int64(index)
}

// SimulationSpec is the immutable configuration for one power/precision
// run. It is passed by value throughout the engine; nothing mutates it
// after construction.
type SimulationSpec struct {
	Replications      int                 `json:"replications" yaml:"replications"`
	DataGen           DataGenSpec         `json:"datagen" yaml:"datagen"`
	Model             ModelSpec           `json:"model" yaml:"model"`
	TargetCoefficient core.CoefficientKey `json:"target_coefficient" yaml:"target_coefficient"`
	ProbMass          float64             `json:"prob_mass" yaml:"prob_mass"`
	Seeds             SeedPolicy          `json:"seeds" yaml:"seeds"`
	Criterion         Criterion           `json:"criterion" yaml:"criterion"`

	// FitTimeout bounds a single replication's fit; zero disables it.
	// A timeout tombstones the replication like any other fit failure.
	// Scenario files carry this as a duration string (see internal/scenario).
	FitTimeout time.Duration `json:"fit_timeout,omitempty" yaml:"-"`

	// MaxFailureRate stops issuing new replications once the observed
	// failure rate over completed replications exceeds it; zero disables
	// the hard stop.
	MaxFailureRate float64 `json:"max_failure_rate,omitempty" yaml:"max_failure_rate,omitempty"`

	// Parallelism caps concurrently executing replications; values
	// below 2 run sequentially. Output order is by replication index
	// either way.
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`
}

// Normalize applies model defaults and returns the normalized copy
func (s SimulationSpec) Normalize() SimulationSpec {
	s.Model = s.Model.Normalize()
	return s
}

// Validate checks the whole spec. Any violation is fatal and reported
// before the first replication runs.
func (s SimulationSpec) Validate() error {
	if s.Replications <= 0 {
		return core.NewInvalidSpecError("replications", "must be positive")
	}
	if s.ProbMass <= 0 || s.ProbMass >= 1 {
		return core.NewInvalidSpecError("prob_mass", "must be within (0,1)")
	}
	if s.TargetCoefficient.IsEmpty() {
		return core.NewInvalidSpecError("target_coefficient", "is required")
	}
	if err := s.DataGen.Validate(); err != nil {
		return err
	}
	if err := s.Model.Validate(); err != nil {
		return err
	}
	if s.Model.Family != s.DataGen.Family {
		return core.NewInvalidSpecError("model.family",
			fmt.Sprintf("%q does not match datagen family %q", s.Model.Family, s.DataGen.Family))
	}
	if !s.Model.Formula.Has(s.TargetCoefficient) {
		return core.NewUnknownCoefficientError(s.TargetCoefficient.String())
	}
	if err := s.Criterion.Validate(); err != nil {
		return err
	}
	if s.MaxFailureRate < 0 || s.MaxFailureRate > 1 {
		return core.NewInvalidSpecError("max_failure_rate", "must be within [0,1]")
	}
	if s.FitTimeout < 0 {
		return core.NewInvalidSpecError("fit_timeout", "must be nonnegative")
	}
	if s.Parallelism < 0 {
		return core.NewInvalidSpecError("parallelism", "must be nonnegative")
	}
	return nil
}
