package datagen

import (
	"math"
	"reflect"
	"testing"

	"powersim/domain/core"
	"powersim/domain/dataset"
	"powersim/domain/simspec"
)

func gaussianSpec() simspec.DataGenSpec {
	return simspec.DataGenSpec{
		Family: dataset.FamilyGaussian,
		Groups: []simspec.GroupSpec{
			{Name: "control", Size: 30, Mean: 0, SD: 1},
			{Name: "treatment", Size: 20, Mean: 0.5, SD: 1},
		},
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := NewGenerator()

	first, err := gen.Generate(gaussianSpec(), 7)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := gen.Generate(gaussianSpec(), 7)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same (spec, seed) must reproduce identical datasets")
	}

	different, err := gen.Generate(gaussianSpec(), 8)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reflect.DeepEqual(first.Outcome, different.Outcome) {
		t.Error("different seeds should produce different draws")
	}
}

func TestGenerate_GroupOrderAndSizes(t *testing.T) {
	ds, err := NewGenerator().Generate(gaussianSpec(), 1)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if ds.N() != 50 {
		t.Fatalf("N = %d, want 50", ds.N())
	}
	// Control observations come first, then treatment, matching the
	// group declaration order.
	for i := 0; i < 30; i++ {
		if ds.Group[i] != dataset.GroupControl {
			t.Fatalf("observation %d: group %d, want control", i, ds.Group[i])
		}
	}
	for i := 30; i < 50; i++ {
		if ds.Group[i] != dataset.GroupTreatment {
			t.Fatalf("observation %d: group %d, want treatment", i, ds.Group[i])
		}
	}
}

func TestGenerate_PoissonCounts(t *testing.T) {
	spec := simspec.DataGenSpec{
		Family: dataset.FamilyPoisson,
		Groups: []simspec.GroupSpec{
			{Name: "control", Size: 40, Rate: 3.5},
			{Name: "treatment", Size: 40, Rate: 5.0},
		},
	}
	ds, err := NewGenerator().Generate(spec, 11)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for i, v := range ds.Outcome {
		if v < 0 || v != math.Trunc(v) {
			t.Fatalf("outcome %d = %v, want nonnegative integer count", i, v)
		}
	}
}

func TestGenerate_BernoulliOutcomes(t *testing.T) {
	spec := simspec.DataGenSpec{
		Family: dataset.FamilyBinomial,
		Groups: []simspec.GroupSpec{{Name: "all", Size: 100, Prob: 0.35}},
	}
	ds, err := NewGenerator().Generate(spec, 5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ones := 0
	for i, v := range ds.Outcome {
		if v != 0 && v != 1 {
			t.Fatalf("outcome %d = %v, want 0 or 1", i, v)
		}
		if v == 1 {
			ones++
		}
	}
	if ones == 0 || ones == 100 {
		t.Errorf("Bernoulli(0.35) over 100 draws produced %d ones; distribution looks degenerate", ones)
	}
}

func TestGenerate_BinomialAggregatedBounds(t *testing.T) {
	spec := simspec.DataGenSpec{
		Family:     dataset.FamilyBinomial,
		Aggregated: true,
		Trials:     100,
		Groups:     []simspec.GroupSpec{{Name: "all", Prob: 0.35}},
	}
	gen := NewGenerator()

	for seed := int64(1); seed <= 50; seed++ {
		ds, err := gen.Generate(spec, seed)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !ds.Aggregated {
			t.Fatal("expected aggregated dataset")
		}
		if ds.Successes < 0 || ds.Successes > ds.Trials {
			t.Fatalf("seed %d: successes %d outside [0, %d]", seed, ds.Successes, ds.Trials)
		}
	}

	first, _ := gen.Generate(spec, 9)
	second, _ := gen.Generate(spec, 9)
	if first.Successes != second.Successes {
		t.Errorf("same seed produced %d then %d successes", first.Successes, second.Successes)
	}
}

func TestGenerate_InvalidSpec(t *testing.T) {
	cases := []struct {
		name string
		spec simspec.DataGenSpec
	}{
		{"negative size", simspec.DataGenSpec{
			Family: dataset.FamilyGaussian,
			Groups: []simspec.GroupSpec{{Name: "control", Size: -1, Mean: 0, SD: 1}},
		}},
		{"negative rate", simspec.DataGenSpec{
			Family: dataset.FamilyPoisson,
			Groups: []simspec.GroupSpec{{Name: "control", Size: 10, Rate: -2}},
		}},
		{"probability above one", simspec.DataGenSpec{
			Family: dataset.FamilyBinomial,
			Groups: []simspec.GroupSpec{{Name: "all", Size: 10, Prob: 1.5}},
		}},
		{"no groups", simspec.DataGenSpec{Family: dataset.FamilyGaussian}},
	}

	gen := NewGenerator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gen.Generate(tc.spec, 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsInvalidSpec(err) {
				t.Errorf("expected invalid-spec error, got %v", err)
			}
		})
	}
}
