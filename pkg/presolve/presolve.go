package presolve

import (
	"context"

	"github.com/gitrdm/gokanlogic-presolve/pkg/rng"
)

// Result bundles everything a Presolve call hands back to the wider solver:
// the reduced model, the mapping model postsolve replays, the structured
// rule-application report, and the infeasibility verdict.
type Result struct {
	ReducedModel *Model
	Mapping      *MappingModel
	Report       *Report
	Infeasible   bool
	// InfeasibleReason is the short, uniquely-identifying reason recorded by
	// the rule that proved infeasibility; empty when Infeasible is false.
	InfeasibleReason string
}

// Presolve is the single public entry point: it copies and normalizes the
// input model, runs the fixed-point driver to completion, and returns the
// reduced model plus the mapping stream and report. The input model is never
// mutated. seed drives every randomized choice (queue permutation); two
// calls with identical inputs and identical seed produce identical results.
//
// When the model is proven infeasible, ReducedModel is the canonical
// always-false shape — a single bool_or with an empty literal list — rather
// than a partially-reduced model.
func Presolve(goCtx context.Context, input *Model, opts *Options, seed int64) (*Result, error) {
	c, err := Copy(goCtx, input, opts)
	if err != nil {
		if IsInfeasible(err) {
			return infeasibleResult(c, err.Error()), nil
		}
		return nil, err
	}
	if err := RunFixedPoint(c, rng.New(seed)); err != nil {
		if IsInfeasible(err) {
			return infeasibleResult(c, err.Error()), nil
		}
		return nil, err
	}
	if c.Infeasible() {
		return infeasibleResult(c, c.InfeasibleReason()), nil
	}

	// Constraints cleared by RemoveConstraint are dropped from the output;
	// variables are kept in place (removed ones included) since index
	// compaction is the caller's concern, not this package's, and postsolve
	// needs the removed variables' domains.
	reduced := &Model{
		Variables:   c.Model.Variables,
		Objective:   c.Model.Objective,
		Hint:        c.Model.Hint,
		Assumptions: c.Model.Assumptions,
	}
	for _, ct := range c.Model.Constraints {
		if !ct.Removed() {
			reduced.Constraints = append(reduced.Constraints, ct)
		}
	}
	return &Result{
		ReducedModel: reduced,
		Mapping:      c.Mapping,
		Report:       c.Report,
	}, nil
}

func infeasibleResult(c *Context, reason string) *Result {
	report := NewReport()
	var mapping *MappingModel
	if c != nil {
		report = c.Report
		mapping = c.Mapping
	}
	if mapping == nil {
		mapping = &MappingModel{}
	}
	falseModel := NewModel()
	falseModel.AddConstraint(&Constraint{Kind: CKBoolOr})
	return &Result{
		ReducedModel:     falseModel,
		Mapping:          mapping,
		Report:           report,
		Infeasible:       true,
		InfeasibleReason: reason,
	}
}
