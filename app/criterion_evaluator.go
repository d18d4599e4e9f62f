package app

import (
	"powersim/domain/result"
	"powersim/domain/simspec"
)

// Evaluation holds the per-replication verdicts for one criterion.
// Verdicts covers successful replications only, in index order; Excluded
// counts the tombstones left out of the denominator so that failed fits
// can never be silently masked as failed criteria.
type Evaluation struct {
	Criterion simspec.Criterion `json:"criterion"`
	Verdicts  []bool            `json:"verdicts"`
	Excluded  int               `json:"excluded"`
}

// Passes returns the number of true verdicts
func (e Evaluation) Passes() int {
	n := 0
	for _, v := range e.Verdicts {
		if v {
			n++
		}
	}
	return n
}

// CriterionEvaluator applies one pass/fail rule over a result sequence
type CriterionEvaluator struct{}

// NewCriterionEvaluator creates an evaluator
func NewCriterionEvaluator() *CriterionEvaluator {
	return &CriterionEvaluator{}
}

// Evaluate applies the criterion to every successful replication result
func (e *CriterionEvaluator) Evaluate(results []result.ReplicationResult, criterion simspec.Criterion) (Evaluation, error) {
	if err := criterion.Validate(); err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{Criterion: criterion, Verdicts: make([]bool, 0, len(results))}
	for _, r := range results {
		if r.Failed {
			eval.Excluded++
			continue
		}
		pass, err := criterion.Passes(r.Lower, r.Upper)
		if err != nil {
			return Evaluation{}, err
		}
		eval.Verdicts = append(eval.Verdicts, pass)
	}
	return eval, nil
}
