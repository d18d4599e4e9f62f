package testkit

import (
	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
)

// CoefTreatment is the treatment-effect coefficient used by fixtures
const CoefTreatment = core.CoefficientKey("b_treatment")

// CoefIntercept is the intercept coefficient used by fixtures
const CoefIntercept = core.CoefficientKey("b_intercept")

// GaussianTwoGroupSpec builds a two-group gaussian power-analysis spec:
// control Normal(muC, sd), treatment Normal(muT, sd), n per group,
// one-sided null exclusion at zero.
func GaussianTwoGroupSpec(replications, n int, muC, muT, sd float64) simspec.SimulationSpec {
	return simspec.SimulationSpec{
		Replications: replications,
		DataGen: simspec.DataGenSpec{
			Family: dataset.FamilyGaussian,
			Groups: []simspec.GroupSpec{
				{Name: "control", Size: n, Mean: muC, SD: sd},
				{Name: "treatment", Size: n, Mean: muT, SD: sd},
			},
		},
		Model: simspec.ModelSpec{
			Family: dataset.FamilyGaussian,
			Link:   simspec.LinkIdentity,
			Formula: simspec.Formula{
				Response:  "y",
				Intercept: CoefIntercept,
				Terms:     []simspec.Term{{Predictor: "treatment", Coefficient: CoefTreatment}},
			},
		},
		TargetCoefficient: CoefTreatment,
		ProbMass:          0.95,
		Criterion:         simspec.ExcludesNull(0),
	}
}

// BinomialAggregatedSpec builds a single-proportion aggregated binomial
// spec with a width-below precision criterion.
func BinomialAggregatedSpec(replications, trials int, prob, widthThreshold float64) simspec.SimulationSpec {
	return simspec.SimulationSpec{
		Replications: replications,
		DataGen: simspec.DataGenSpec{
			Family:     dataset.FamilyBinomial,
			Aggregated: true,
			Trials:     trials,
			Groups:     []simspec.GroupSpec{{Name: "all", Prob: prob}},
		},
		Model: simspec.ModelSpec{
			Family: dataset.FamilyBinomial,
			Link:   simspec.LinkLogit,
			Formula: simspec.Formula{
				Response:  "y",
				Intercept: CoefIntercept,
			},
		},
		TargetCoefficient: CoefIntercept,
		ProbMass:          0.95,
		Criterion:         simspec.WidthBelow(widthThreshold),
	}
}
