package simspec

import (
	"fmt"

	"powersim/domain/core"
	"powersim/domain/dataset"
)

// Link identifies the link function of the regression model
type Link string

const (
	LinkIdentity Link = "identity"
	LinkLog      Link = "log"
	LinkLogit    Link = "logit"
)

// Valid reports whether the link is one of the supported tags
func (l Link) Valid() bool {
	switch l {
	case LinkIdentity, LinkLog, LinkLogit:
		return true
	}
	return false
}

// DefaultLink returns the conventional link for a family
func DefaultLink(f dataset.Family) Link {
	switch f {
	case dataset.FamilyPoisson:
		return LinkLog
	case dataset.FamilyBinomial:
		return LinkLogit
	default:
		return LinkIdentity
	}
}

// Term maps one predictor to its named coefficient
type Term struct {
	Predictor   string              `json:"predictor" yaml:"predictor"`
	Coefficient core.CoefficientKey `json:"coefficient" yaml:"coefficient"`
}

// Formula declares the regression structure: response, intercept
// coefficient name, and predictor terms.
type Formula struct {
	Response  string              `json:"response" yaml:"response"`
	Intercept core.CoefficientKey `json:"intercept" yaml:"intercept"`
	Terms     []Term              `json:"terms,omitempty" yaml:"terms,omitempty"`
}

// Coefficients returns all coefficient keys referenced by the formula,
// intercept first, in declaration order.
func (f Formula) Coefficients() []core.CoefficientKey {
	keys := make([]core.CoefficientKey, 0, len(f.Terms)+1)
	if !f.Intercept.IsEmpty() {
		keys = append(keys, f.Intercept)
	}
	for _, t := range f.Terms {
		keys = append(keys, t.Coefficient)
	}
	return keys
}

// Has reports whether the formula references the coefficient
func (f Formula) Has(key core.CoefficientKey) bool {
	for _, k := range f.Coefficients() {
		if k == key {
			return true
		}
	}
	return false
}

// PriorDist identifies a prior distribution shape
type PriorDist string

const (
	PriorFlat     PriorDist = "flat"
	PriorNormal   PriorDist = "normal"
	PriorStudentT PriorDist = "student_t"
	PriorBeta     PriorDist = "beta"
	PriorGamma    PriorDist = "gamma"
)

// Prior is a distribution descriptor for one coefficient.
// Location/Scale apply to normal and student_t (plus DF for student_t);
// Shape1/Shape2 apply to beta (alpha/beta) and gamma (shape/rate).
type Prior struct {
	Dist     PriorDist `json:"dist" yaml:"dist"`
	Location float64   `json:"location,omitempty" yaml:"location,omitempty"`
	Scale    float64   `json:"scale,omitempty" yaml:"scale,omitempty"`
	DF       float64   `json:"df,omitempty" yaml:"df,omitempty"`
	Shape1   float64   `json:"shape1,omitempty" yaml:"shape1,omitempty"`
	Shape2   float64   `json:"shape2,omitempty" yaml:"shape2,omitempty"`
}

// FlatPrior returns the improper default prior
func FlatPrior() Prior {
	return Prior{Dist: PriorFlat}
}

// Validate checks the prior descriptor parameters
func (p Prior) Validate() error {
	switch p.Dist {
	case PriorFlat:
		return nil
	case PriorNormal:
		if p.Scale <= 0 {
			return core.NewInvalidSpecError("prior.scale", "must be positive")
		}
	case PriorStudentT:
		if p.Scale <= 0 {
			return core.NewInvalidSpecError("prior.scale", "must be positive")
		}
		if p.DF <= 0 {
			return core.NewInvalidSpecError("prior.df", "must be positive")
		}
	case PriorBeta:
		if p.Shape1 <= 0 || p.Shape2 <= 0 {
			return core.NewInvalidSpecError("prior.shape", "beta shapes must be positive")
		}
	case PriorGamma:
		if p.Shape1 <= 0 || p.Shape2 <= 0 {
			return core.NewInvalidSpecError("prior.shape", "gamma shape and rate must be positive")
		}
	default:
		return core.NewInvalidSpecError("prior.dist", fmt.Sprintf("unknown prior distribution %q", p.Dist))
	}
	return nil
}

// ModelSpec declares the regression model handed to the fitter.
type ModelSpec struct {
	Family  dataset.Family                `json:"family" yaml:"family"`
	Link    Link                          `json:"link" yaml:"link"`
	Formula Formula                       `json:"formula" yaml:"formula"`
	Priors  map[core.CoefficientKey]Prior `json:"priors,omitempty" yaml:"priors,omitempty"`
}

// Normalize fills defaults: conventional link when unset, and an explicit
// flat prior for every formula coefficient without one. After Normalize,
// the invariant "every referenced coefficient has a prior" holds.
func (m ModelSpec) Normalize() ModelSpec {
	if m.Link == "" {
		m.Link = DefaultLink(m.Family)
	}
	priors := make(map[core.CoefficientKey]Prior, len(m.Formula.Coefficients()))
	for k, p := range m.Priors {
		priors[k] = p
	}
	for _, k := range m.Formula.Coefficients() {
		if _, ok := priors[k]; !ok {
			priors[k] = FlatPrior()
		}
	}
	m.Priors = priors
	return m
}

// PriorFor returns the prior for a coefficient, falling back to flat
func (m ModelSpec) PriorFor(key core.CoefficientKey) Prior {
	if p, ok := m.Priors[key]; ok {
		return p
	}
	return FlatPrior()
}

// Validate checks the model spec for structural errors
func (m ModelSpec) Validate() error {
	if !m.Family.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownFamily, m.Family)
	}
	if m.Link != "" && !m.Link.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownLink, m.Link)
	}
	if m.Formula.Intercept.IsEmpty() {
		return core.NewInvalidSpecError("model.formula.intercept", "intercept coefficient name is required")
	}
	seen := make(map[core.CoefficientKey]bool)
	for _, k := range m.Formula.Coefficients() {
		if seen[k] {
			return core.NewInvalidSpecError("model.formula", fmt.Sprintf("duplicate coefficient %q", k))
		}
		seen[k] = true
	}
	for key, prior := range m.Priors {
		if !m.Formula.Has(key) {
			return fmt.Errorf("%w: prior declared for %q", core.ErrUnknownCoefficient, key)
		}
		if err := prior.Validate(); err != nil {
			return fmt.Errorf("prior for %q: %w", key, err)
		}
	}
	return nil
}
