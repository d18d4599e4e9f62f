package simspec

import (
	"fmt"

	"powersim/domain/core"
	"powersim/domain/dataset"
)

// GroupSpec holds the generative parameters for one group.
// Which fields apply depends on the family: gaussian uses Mean/SD,
// poisson uses Rate, binomial uses Prob. Size is the per-group sample
// count (per-trial binomial: number of Bernoulli draws; aggregated
// binomial: ignored in favor of DataGenSpec.Trials).
type GroupSpec struct {
	Name string  `json:"name" yaml:"name"`
	Size int     `json:"size" yaml:"size"`
	Mean float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	SD   float64 `json:"sd,omitempty" yaml:"sd,omitempty"`
	Rate float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Prob float64 `json:"prob,omitempty" yaml:"prob,omitempty"`
}

// DataGenSpec describes the data-generating process for one replication.
// Groups are generated in declaration order (control first, then treatment),
// and that order is preserved in the emitted dataset.
type DataGenSpec struct {
	Family     dataset.Family `json:"family" yaml:"family"`
	Groups     []GroupSpec    `json:"groups" yaml:"groups"`
	Aggregated bool           `json:"aggregated,omitempty" yaml:"aggregated,omitempty"`
	Trials     int            `json:"trials,omitempty" yaml:"trials,omitempty"`
}

// TotalN returns the declared total sample count across groups
func (s DataGenSpec) TotalN() int {
	if s.Family == dataset.FamilyBinomial && s.Aggregated {
		return s.Trials
	}
	total := 0
	for _, g := range s.Groups {
		total += g.Size
	}
	return total
}

// Validate checks the spec for structural errors. All violations are
// invalid-spec errors and abort the run before any replication starts.
func (s DataGenSpec) Validate() error {
	if !s.Family.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownFamily, s.Family)
	}
	if len(s.Groups) == 0 {
		return core.NewInvalidSpecError("datagen.groups", "at least one group is required")
	}
	if s.Aggregated && s.Family != dataset.FamilyBinomial {
		return core.NewInvalidSpecError("datagen.aggregated", "aggregated encoding is binomial-only")
	}

	for i, g := range s.Groups {
		field := fmt.Sprintf("datagen.groups[%d]", i)
		switch s.Family {
		case dataset.FamilyGaussian:
			if g.SD <= 0 {
				return core.NewInvalidSpecError(field+".sd", "must be positive")
			}
		case dataset.FamilyPoisson:
			if g.Rate < 0 {
				return core.NewInvalidSpecError(field+".rate", "must be nonnegative")
			}
		case dataset.FamilyBinomial:
			if g.Prob < 0 || g.Prob > 1 {
				return core.NewInvalidSpecError(field+".prob", "must be within [0,1]")
			}
		}
		if s.Family == dataset.FamilyBinomial && s.Aggregated {
			continue // aggregated mode sizes come from Trials
		}
		if g.Size <= 0 {
			return core.NewInvalidSpecError(field+".size", "must be positive")
		}
	}

	if s.Family == dataset.FamilyBinomial && s.Aggregated {
		if len(s.Groups) != 1 {
			return core.NewInvalidSpecError("datagen.groups", "aggregated binomial takes exactly one group")
		}
		if s.Trials <= 0 {
			return core.NewInvalidSpecError("datagen.trials", "must be positive")
		}
	}
	return nil
}
