package dataset

// Family identifies the generative distribution family of a dataset
type Family string

const (
	FamilyGaussian Family = "gaussian"
	FamilyPoisson  Family = "poisson"
	FamilyBinomial Family = "binomial"
)

// Valid reports whether the family is one of the supported tags
func (f Family) Valid() bool {
	switch f {
	case FamilyGaussian, FamilyPoisson, FamilyBinomial:
		return true
	}
	return false
}

// Group labels for the 0/1 indicator covariate.
// Control observations always precede treatment observations.
const (
	GroupControl   = 0
	GroupTreatment = 1
)

// Dataset is one synthetic dataset produced for a single replication.
// Per-observation mode fills Outcome and Group (parallel slices); aggregated
// binomial mode fills Successes/Trials instead and leaves the slices empty.
type Dataset struct {
	Family     Family    `json:"family"`
	Outcome    []float64 `json:"outcome,omitempty"`
	Group      []int     `json:"group,omitempty"`
	Aggregated bool      `json:"aggregated,omitempty"`
	Successes  int       `json:"successes,omitempty"`
	Trials     int       `json:"trials,omitempty"`
}

// N returns the total number of observations
func (d *Dataset) N() int {
	if d.Aggregated {
		return d.Trials
	}
	return len(d.Outcome)
}

// GroupCount returns the number of distinct indicator groups present
func (d *Dataset) GroupCount() int {
	if d.Aggregated {
		return 1
	}
	seen := make(map[int]bool, 2)
	for _, g := range d.Group {
		seen[g] = true
	}
	return len(seen)
}

// GroupOutcomes returns the outcomes belonging to one indicator group
func (d *Dataset) GroupOutcomes(group int) []float64 {
	out := make([]float64, 0, len(d.Outcome))
	for i, g := range d.Group {
		if g == group {
			out = append(out, d.Outcome[i])
		}
	}
	return out
}
