package fitter

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
	"powersim/ports"
)

// AnalyticFitter is the built-in ModelFitter. It produces closed-form
// posterior approximations per family: normal approximations on the link
// scale for group coefficients, and an exact Beta conjugate posterior for
// aggregated binomial data. Declared normal priors shrink the posterior
// by precision weighting; other prior shapes are treated as
// weakly-informative and approximated by their normal envelope.
//
// Degenerate data (empty groups, zero variance, zero event counts, zero
// contingency cells) is rejected as a fit failure rather than producing
// infinite intervals, mirroring the non-convergence diagnostics of a
// sampling-based fitter.
type AnalyticFitter struct {
	cache *designCache
}

// NewAnalyticFitter creates the built-in closed-form fitter
func NewAnalyticFitter() *AnalyticFitter {
	return &AnalyticFitter{cache: newDesignCache()}
}

type posteriorKind int

const (
	posteriorNormal posteriorKind = iota
	posteriorBeta
)

// coefPosterior is one coefficient's posterior approximation on the
// link scale (normal kind) or probability scale (beta kind).
type coefPosterior struct {
	kind  posteriorKind
	mean  float64 // normal: location on link scale
	sd    float64 // normal: scale on link scale
	alpha float64 // beta: shape1
	beta  float64 // beta: shape2
	link  simspec.Link
}

// posterior implements ports.PosteriorHandle
type posterior struct {
	order []core.CoefficientKey
	coefs map[core.CoefficientKey]coefPosterior
}

func (p *posterior) Coefficients() []core.CoefficientKey {
	return p.order
}

// Fit computes the posterior approximation for the model over one dataset
func (f *AnalyticFitter) Fit(ctx context.Context, spec simspec.ModelSpec, data *dataset.Dataset) (ports.PosteriorHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.Normalize()
	design := f.cache.get(spec)

	if data.Family != design.family {
		return nil, core.NewFitFailureError(
			fmt.Sprintf("dataset family %q does not match model family %q", data.Family, design.family))
	}

	switch design.family {
	case dataset.FamilyGaussian:
		return f.fitGaussian(spec, design, data)
	case dataset.FamilyPoisson:
		return f.fitPoisson(spec, design, data)
	case dataset.FamilyBinomial:
		return f.fitBinomial(spec, design, data)
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownFamily, design.family)
}

// Summarize extracts the point estimate and two-sided credible interval
// for one coefficient at the requested probability mass.
func (f *AnalyticFitter) Summarize(handle ports.PosteriorHandle, coefficient core.CoefficientKey, probMass float64) (ports.CoefficientSummary, error) {
	if probMass <= 0 || probMass >= 1 {
		return ports.CoefficientSummary{}, core.NewInvalidSpecError("prob_mass", "must be within (0,1)")
	}
	post, ok := handle.(*posterior)
	if !ok {
		return ports.CoefficientSummary{}, core.NewFitFailureError("foreign posterior handle")
	}
	coef, ok := post.coefs[coefficient]
	if !ok {
		return ports.CoefficientSummary{}, core.NewUnknownCoefficientError(coefficient.String())
	}

	tail := (1 - probMass) / 2
	switch coef.kind {
	case posteriorNormal:
		dist := distuv.Normal{Mu: coef.mean, Sigma: coef.sd}
		return ports.CoefficientSummary{
			Point:    coef.mean,
			Lower:    dist.Quantile(tail),
			Upper:    dist.Quantile(1 - tail),
			ProbMass: probMass,
		}, nil
	case posteriorBeta:
		dist := distuv.Beta{Alpha: coef.alpha, Beta: coef.beta}
		// Quantiles transform exactly through the monotone link.
		return ports.CoefficientSummary{
			Point:    applyLink(coef.link, dist.Quantile(0.5)),
			Lower:    applyLink(coef.link, dist.Quantile(tail)),
			Upper:    applyLink(coef.link, dist.Quantile(1-tail)),
			ProbMass: probMass,
		}, nil
	}
	return ports.CoefficientSummary{}, core.NewFitFailureError("unknown posterior kind")
}

// applyLink maps a probability onto the coefficient scale
func applyLink(link simspec.Link, p float64) float64 {
	switch link {
	case simspec.LinkLogit:
		return math.Log(p / (1 - p))
	case simspec.LinkLog:
		return math.Log(p)
	default:
		return p
	}
}

// applyNormalPrior shrinks a normal data posterior toward a declared
// prior by precision weighting. Flat priors leave it untouched;
// student_t priors use their normal envelope.
func applyNormalPrior(mean, sd float64, prior simspec.Prior) (float64, float64) {
	switch prior.Dist {
	case simspec.PriorNormal, simspec.PriorStudentT:
		precData := 1 / (sd * sd)
		precPrior := 1 / (prior.Scale * prior.Scale)
		precPost := precData + precPrior
		return (mean*precData + prior.Location*precPrior) / precPost, math.Sqrt(1 / precPost)
	default:
		return mean, sd
	}
}

// groupMoments returns n, mean, and sample sd for one indicator group
func groupMoments(data *dataset.Dataset, group int) (int, float64, float64) {
	values := data.GroupOutcomes(group)
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean := stat.Mean(values, nil)
	sd := math.Sqrt(stat.Variance(values, nil))
	return len(values), mean, sd
}

func (f *AnalyticFitter) fitGaussian(spec simspec.ModelSpec, design *modelDesign, data *dataset.Dataset) (*posterior, error) {
	nC, meanC, sdC := groupMoments(data, dataset.GroupControl)
	if nC < 2 {
		return nil, core.NewFitFailureError("control group has fewer than 2 observations")
	}
	if sdC == 0 {
		return nil, core.NewFitFailureError("control group has zero variance")
	}

	post := &posterior{order: design.coefficients, coefs: make(map[core.CoefficientKey]coefPosterior)}

	mu, sd := applyNormalPrior(meanC, sdC/math.Sqrt(float64(nC)), spec.PriorFor(spec.Formula.Intercept))
	post.coefs[spec.Formula.Intercept] = coefPosterior{kind: posteriorNormal, mean: mu, sd: sd, link: spec.Link}

	for _, term := range spec.Formula.Terms {
		nT, meanT, sdT := groupMoments(data, dataset.GroupTreatment)
		if nT < 2 {
			return nil, core.NewFitFailureError("treatment group has fewer than 2 observations")
		}
		if sdT == 0 {
			return nil, core.NewFitFailureError("treatment group has zero variance")
		}
		se := math.Sqrt(sdC*sdC/float64(nC) + sdT*sdT/float64(nT))
		mu, sd := applyNormalPrior(meanT-meanC, se, spec.PriorFor(term.Coefficient))
		post.coefs[term.Coefficient] = coefPosterior{kind: posteriorNormal, mean: mu, sd: sd, link: spec.Link}
	}
	return post, nil
}

func (f *AnalyticFitter) fitPoisson(spec simspec.ModelSpec, design *modelDesign, data *dataset.Dataset) (*posterior, error) {
	nC, sumC := groupEventCount(data, dataset.GroupControl)
	if nC == 0 {
		return nil, core.NewFitFailureError("control group is empty")
	}
	if sumC == 0 {
		return nil, core.NewFitFailureError("control group has zero event count")
	}

	post := &posterior{order: design.coefficients, coefs: make(map[core.CoefficientKey]coefPosterior)}

	// log(rate) posterior: Normal(log(sum/n), 1/sqrt(sum)).
	rateC := sumC / float64(nC)
	mu, sd := applyNormalPrior(math.Log(rateC), 1/math.Sqrt(sumC), spec.PriorFor(spec.Formula.Intercept))
	post.coefs[spec.Formula.Intercept] = coefPosterior{kind: posteriorNormal, mean: mu, sd: sd, link: spec.Link}

	for _, term := range spec.Formula.Terms {
		nT, sumT := groupEventCount(data, dataset.GroupTreatment)
		if nT == 0 {
			return nil, core.NewFitFailureError("treatment group is empty")
		}
		if sumT == 0 {
			return nil, core.NewFitFailureError("treatment group has zero event count")
		}
		rateT := sumT / float64(nT)
		se := math.Sqrt(1/sumC + 1/sumT)
		mu, sd := applyNormalPrior(math.Log(rateT/rateC), se, spec.PriorFor(term.Coefficient))
		post.coefs[term.Coefficient] = coefPosterior{kind: posteriorNormal, mean: mu, sd: sd, link: spec.Link}
	}
	return post, nil
}

func groupEventCount(data *dataset.Dataset, group int) (int, float64) {
	values := data.GroupOutcomes(group)
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return len(values), sum
}

func (f *AnalyticFitter) fitBinomial(spec simspec.ModelSpec, design *modelDesign, data *dataset.Dataset) (*posterior, error) {
	if data.Aggregated || len(spec.Formula.Terms) == 0 {
		return f.fitBinomialIntercept(spec, design, data)
	}
	return f.fitBinomialTwoGroup(spec, design, data)
}

// fitBinomialIntercept handles the single-proportion model with an exact
// Beta conjugate posterior. A declared beta prior supplies the shapes;
// anything else falls back to the uniform Beta(1,1).
func (f *AnalyticFitter) fitBinomialIntercept(spec simspec.ModelSpec, design *modelDesign, data *dataset.Dataset) (*posterior, error) {
	var successes, trials int
	if data.Aggregated {
		successes, trials = data.Successes, data.Trials
	} else {
		_, sum := groupEventCount(data, dataset.GroupControl)
		successes, trials = int(sum), len(data.GroupOutcomes(dataset.GroupControl))
	}
	if trials == 0 {
		return nil, core.NewFitFailureError("no trials observed")
	}
	if successes < 0 || successes > trials {
		return nil, core.NewFitFailureError("success count outside [0, trials]")
	}

	alpha0, beta0 := 1.0, 1.0
	if prior := spec.PriorFor(spec.Formula.Intercept); prior.Dist == simspec.PriorBeta {
		alpha0, beta0 = prior.Shape1, prior.Shape2
	}

	post := &posterior{order: design.coefficients, coefs: make(map[core.CoefficientKey]coefPosterior)}
	post.coefs[spec.Formula.Intercept] = coefPosterior{
		kind:  posteriorBeta,
		alpha: alpha0 + float64(successes),
		beta:  beta0 + float64(trials-successes),
		link:  spec.Link,
	}
	return post, nil
}

// fitBinomialTwoGroup uses the normal approximation to the log-odds and
// log-odds-ratio posteriors. Any empty contingency cell is rejected as a
// fit failure rather than patched with a continuity correction.
func (f *AnalyticFitter) fitBinomialTwoGroup(spec simspec.ModelSpec, design *modelDesign, data *dataset.Dataset) (*posterior, error) {
	nC, sumC := groupEventCount(data, dataset.GroupControl)
	nT, sumT := groupEventCount(data, dataset.GroupTreatment)
	a, b := sumC, float64(nC)-sumC // control successes / failures
	c, d := sumT, float64(nT)-sumT // treatment successes / failures
	if a == 0 || b == 0 || c == 0 || d == 0 {
		return nil, core.NewFitFailureError("empty contingency cell")
	}

	post := &posterior{order: design.coefficients, coefs: make(map[core.CoefficientKey]coefPosterior)}

	mu, sd := applyNormalPrior(math.Log(a/b), math.Sqrt(1/a+1/b), spec.PriorFor(spec.Formula.Intercept))
	post.coefs[spec.Formula.Intercept] = coefPosterior{kind: posteriorNormal, mean: mu, sd: sd, link: spec.Link}

	for _, term := range spec.Formula.Terms {
		logOR := math.Log(c/d) - math.Log(a/b)
		se := math.Sqrt(1/a + 1/b + 1/c + 1/d)
		mu, sd := applyNormalPrior(logOR, se, spec.PriorFor(term.Coefficient))
		post.coefs[term.Coefficient] = coefPosterior{kind: posteriorNormal, mean: mu, sd: sd, link: spec.Link}
	}
	return post, nil
}
