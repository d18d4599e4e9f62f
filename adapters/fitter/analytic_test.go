package fitter

import (
	"context"
	"math"
	"testing"

	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
)

func twoGroupModel(family dataset.Family, link simspec.Link) simspec.ModelSpec {
	return simspec.ModelSpec{
		Family: family,
		Link:   link,
		Formula: simspec.Formula{
			Response:  "y",
			Intercept: "b_intercept",
			Terms:     []simspec.Term{{Predictor: "treatment", Coefficient: "b_treatment"}},
		},
	}
}

func twoGroupData(family dataset.Family, control, treatment []float64) *dataset.Dataset {
	ds := &dataset.Dataset{Family: family}
	for _, v := range control {
		ds.Outcome = append(ds.Outcome, v)
		ds.Group = append(ds.Group, dataset.GroupControl)
	}
	for _, v := range treatment {
		ds.Outcome = append(ds.Outcome, v)
		ds.Group = append(ds.Group, dataset.GroupTreatment)
	}
	return ds
}

func TestFitGaussian_DifferenceOfMeans(t *testing.T) {
	f := NewAnalyticFitter()
	data := twoGroupData(dataset.FamilyGaussian,
		[]float64{1, 2, 3, 4, 5},
		[]float64{3, 4, 5, 6, 7},
	)

	handle, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity), data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	summary, err := f.Summarize(handle, "b_treatment", 0.95)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if math.Abs(summary.Point-2.0) > 1e-9 {
		t.Errorf("point = %v, want 2.0", summary.Point)
	}
	// se = sqrt(2.5/5 + 2.5/5) = 1, so the 95% interval is 2 +/- 1.96.
	if math.Abs(summary.Lower-(2-1.959964)) > 1e-3 {
		t.Errorf("lower = %v, want about 0.040", summary.Lower)
	}
	if math.Abs(summary.Upper-(2+1.959964)) > 1e-3 {
		t.Errorf("upper = %v, want about 3.960", summary.Upper)
	}
	if summary.Width() <= 0 {
		t.Error("interval width must be positive")
	}
}

func TestFitGaussian_NormalPriorShrinkage(t *testing.T) {
	f := NewAnalyticFitter()
	data := twoGroupData(dataset.FamilyGaussian,
		[]float64{1, 2, 3, 4, 5},
		[]float64{3, 4, 5, 6, 7},
	)

	model := twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity)
	model.Priors = map[core.CoefficientKey]simspec.Prior{
		"b_treatment": {Dist: simspec.PriorNormal, Location: 0, Scale: 1},
	}

	handle, err := f.Fit(context.Background(), model, data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	summary, err := f.Summarize(handle, "b_treatment", 0.95)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	// Data posterior is Normal(2, 1); the Normal(0, 1) prior pulls the
	// mean to precision-weighted 1.0 and tightens sd to sqrt(0.5).
	if math.Abs(summary.Point-1.0) > 1e-9 {
		t.Errorf("shrunk point = %v, want 1.0", summary.Point)
	}
	flatHandle, _ := f.Fit(context.Background(), twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity), data)
	flat, _ := f.Summarize(flatHandle, "b_treatment", 0.95)
	if summary.Width() >= flat.Width() {
		t.Errorf("prior should tighten the interval: shrunk width %v, flat width %v",
			summary.Width(), flat.Width())
	}
}

func TestFitGaussian_DegenerateData(t *testing.T) {
	f := NewAnalyticFitter()

	zeroVar := twoGroupData(dataset.FamilyGaussian,
		[]float64{2, 2, 2, 2},
		[]float64{3, 4, 5, 6},
	)
	_, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity), zeroVar)
	if !core.IsFitFailure(err) {
		t.Errorf("zero control variance: got %v, want fit failure", err)
	}

	tiny := twoGroupData(dataset.FamilyGaussian, []float64{2}, []float64{3, 4})
	_, err = f.Fit(context.Background(), twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity), tiny)
	if !core.IsFitFailure(err) {
		t.Errorf("single-observation group: got %v, want fit failure", err)
	}
}

func TestFitPoisson_LogRateRatio(t *testing.T) {
	f := NewAnalyticFitter()
	// Control: 20 events over 10 obs (rate 2); treatment: 40 over 10 (rate 4).
	control := make([]float64, 10)
	treatment := make([]float64, 10)
	for i := range control {
		control[i] = 2
		treatment[i] = 4
	}
	data := twoGroupData(dataset.FamilyPoisson, control, treatment)

	handle, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyPoisson, simspec.LinkLog), data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	summary, err := f.Summarize(handle, "b_treatment", 0.89)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if math.Abs(summary.Point-math.Log(2)) > 1e-9 {
		t.Errorf("point = %v, want log(2)", summary.Point)
	}
	if summary.Lower >= summary.Point || summary.Upper <= summary.Point {
		t.Errorf("interval [%v, %v] should bracket the point %v", summary.Lower, summary.Upper, summary.Point)
	}
}

func TestFitPoisson_ZeroEvents(t *testing.T) {
	f := NewAnalyticFitter()
	data := twoGroupData(dataset.FamilyPoisson,
		[]float64{0, 0, 0},
		[]float64{1, 2, 3},
	)
	_, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyPoisson, simspec.LinkLog), data)
	if !core.IsFitFailure(err) {
		t.Errorf("zero control events: got %v, want fit failure", err)
	}
}

func TestFitBinomial_AggregatedBetaPosterior(t *testing.T) {
	f := NewAnalyticFitter()
	model := simspec.ModelSpec{
		Family:  dataset.FamilyBinomial,
		Link:    simspec.LinkLogit,
		Formula: simspec.Formula{Response: "y", Intercept: "b_intercept"},
	}
	data := &dataset.Dataset{
		Family:     dataset.FamilyBinomial,
		Aggregated: true,
		Successes:  35,
		Trials:     100,
	}

	handle, err := f.Fit(context.Background(), model, data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	summary, err := f.Summarize(handle, "b_intercept", 0.95)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	// Logit scale: the Beta(36, 66) posterior median is near 0.353,
	// so the point sits near logit(0.35) = -0.62.
	if summary.Point > 0 || summary.Point < -1.5 {
		t.Errorf("point = %v, want near logit(0.35)", summary.Point)
	}
	if !(summary.Lower < summary.Point && summary.Point < summary.Upper) {
		t.Errorf("interval [%v, %v] should bracket the point %v", summary.Lower, summary.Upper, summary.Point)
	}
	for _, v := range []float64{summary.Point, summary.Lower, summary.Upper} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			t.Fatalf("summary contains non-finite value %v", v)
		}
	}
}

func TestFitBinomial_TwoGroupLogOddsRatio(t *testing.T) {
	f := NewAnalyticFitter()
	control := append(make([]float64, 0, 100), onesAndZeros(30, 70)...)
	treatment := append(make([]float64, 0, 100), onesAndZeros(50, 50)...)
	data := twoGroupData(dataset.FamilyBinomial, control, treatment)

	handle, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyBinomial, simspec.LinkLogit), data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	summary, err := f.Summarize(handle, "b_treatment", 0.95)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	wantLogOR := math.Log((50.0/50.0)/(30.0/70.0))
	if math.Abs(summary.Point-wantLogOR) > 1e-9 {
		t.Errorf("point = %v, want %v", summary.Point, wantLogOR)
	}
}

func TestFitBinomial_EmptyCell(t *testing.T) {
	f := NewAnalyticFitter()
	data := twoGroupData(dataset.FamilyBinomial,
		onesAndZeros(0, 20), // no control successes
		onesAndZeros(10, 10),
	)
	_, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyBinomial, simspec.LinkLogit), data)
	if !core.IsFitFailure(err) {
		t.Errorf("empty contingency cell: got %v, want fit failure", err)
	}
}

func TestSummarize_UnknownCoefficient(t *testing.T) {
	f := NewAnalyticFitter()
	data := twoGroupData(dataset.FamilyGaussian,
		[]float64{1, 2, 3},
		[]float64{4, 5, 6},
	)
	handle, err := f.Fit(context.Background(), twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity), data)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := f.Summarize(handle, "b_missing", 0.95); err == nil {
		t.Error("expected error for unknown coefficient")
	}
}

func TestDesignCache_ReusedAcrossFits(t *testing.T) {
	f := NewAnalyticFitter()
	model := twoGroupModel(dataset.FamilyGaussian, simspec.LinkIdentity)

	for seedlike := 0; seedlike < 5; seedlike++ {
		data := twoGroupData(dataset.FamilyGaussian,
			[]float64{1, 2, 3, float64(seedlike)},
			[]float64{4, 5, 6, float64(seedlike + 1)},
		)
		if _, err := f.Fit(context.Background(), model, data); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
	}
	if f.cache.size() != 1 {
		t.Errorf("same model shape should compile once, cache holds %d designs", f.cache.size())
	}

	other := twoGroupModel(dataset.FamilyPoisson, simspec.LinkLog)
	control := []float64{2, 3, 2}
	treatment := []float64{4, 5, 4}
	if _, err := f.Fit(context.Background(), other, twoGroupData(dataset.FamilyPoisson, control, treatment)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if f.cache.size() != 2 {
		t.Errorf("different model shape should add a design, cache holds %d", f.cache.size())
	}
}

func onesAndZeros(ones, zeros int) []float64 {
	out := make([]float64, 0, ones+zeros)
	for i := 0; i < ones; i++ {
		out = append(out, 1)
	}
	for i := 0; i < zeros; i++ {
		out = append(out, 0)
	}
	return out
}
