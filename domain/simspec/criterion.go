package simspec

import (
	"fmt"

	"powersim/domain/core"
)

// CriterionKind identifies a pass/fail rule applied to one interval
type CriterionKind string

const (
	// CriterionExcludesNull passes when lower > null. The check is
	// deliberately one-sided: the alternative is assumed to lie in the
	// expected direction, so upper < null is never tested. Callers who
	// want the symmetric check use CriterionExcludesNullTwoSided.
	CriterionExcludesNull CriterionKind = "excludes_null"

	// CriterionExcludesNullTwoSided passes when the interval lies
	// entirely on either side of the null value.
	CriterionExcludesNullTwoSided CriterionKind = "excludes_null_two_sided"

	// CriterionWidthBelow passes when upper - lower < threshold (AIPE-style
	// precision criterion).
	CriterionWidthBelow CriterionKind = "width_below"

	// CriterionIntervalContains passes when lower <= value <= upper
	// (coverage check, typically against the true generative value).
	CriterionIntervalContains CriterionKind = "interval_contains"
)

// Criterion is one interval decision rule. Value is the null value,
// width threshold, or contained value depending on Kind.
type Criterion struct {
	Kind  CriterionKind `json:"kind" yaml:"kind"`
	Value float64       `json:"value" yaml:"value"`
}

// ExcludesNull builds the one-sided null-exclusion criterion
func ExcludesNull(null float64) Criterion {
	return Criterion{Kind: CriterionExcludesNull, Value: null}
}

// ExcludesNullTwoSided builds the symmetric null-exclusion criterion
func ExcludesNullTwoSided(null float64) Criterion {
	return Criterion{Kind: CriterionExcludesNullTwoSided, Value: null}
}

// WidthBelow builds the interval-width precision criterion
func WidthBelow(threshold float64) Criterion {
	return Criterion{Kind: CriterionWidthBelow, Value: threshold}
}

// IntervalContains builds the coverage criterion
func IntervalContains(value float64) Criterion {
	return Criterion{Kind: CriterionIntervalContains, Value: value}
}

// Validate checks the criterion kind against the closed set
func (c Criterion) Validate() error {
	switch c.Kind {
	case CriterionExcludesNull, CriterionExcludesNullTwoSided, CriterionIntervalContains:
		return nil
	case CriterionWidthBelow:
		if c.Value <= 0 {
			return core.NewInvalidSpecError("criterion.value", "width threshold must be positive")
		}
		return nil
	}
	return fmt.Errorf("%w: %q", core.ErrUnknownCriterion, c.Kind)
}

// Passes applies the rule to one credible interval
func (c Criterion) Passes(lower, upper float64) (bool, error) {
	switch c.Kind {
	case CriterionExcludesNull:
		return lower > c.Value, nil
	case CriterionExcludesNullTwoSided:
		return lower > c.Value || upper < c.Value, nil
	case CriterionWidthBelow:
		return upper-lower < c.Value, nil
	case CriterionIntervalContains:
		return lower <= c.Value && c.Value <= upper, nil
	}
	return false, fmt.Errorf("%w: %q", core.ErrUnknownCriterion, c.Kind)
}
