package presolve

import "context"

// Copy runs the one-shot normalizer that produces the initial working model
// context from an input model, applying only local rewrites that are always
// safe: normalize enforcement lists and drop constraints whose enforcement
// is self-contradictory, canonicalize linear bodies, drop constant linear
// constraints that hold and mark false those that cannot, and clip the
// solution hint into variable domains. It does not fold fixed variables,
// reject negative refs inside linear terms, or split enforcement lists.
//
// The input model is not mutated; Copy builds a fresh Context around a copy
// of it. Variables, the objective expression, linear bodies, enforcement
// lists, hint and assumptions are copied; a constraint's other slices are
// shared with the input.
func Copy(goCtx context.Context, input *Model, opts *Options) (*Context, error) {
	working := &Model{
		Variables:   make([]*Variable, len(input.Variables)),
		Assumptions: append([]Literal(nil), input.Assumptions...),
		Hint:        append([]Hint(nil), input.Hint...),
	}
	for i, v := range input.Variables {
		name := v.Name
		if opts != nil && opts.IgnoreNames {
			name = ""
		}
		working.Variables[i] = &Variable{ID: v.ID, Name: name, Domain: v.Domain, Synthetic: v.Synthetic}
	}
	if input.Objective != nil {
		obj := *input.Objective
		obj.Expr = input.Objective.Expr.Clone()
		if obj.ScalingFactor == 0 {
			obj.ScalingFactor = 1
		}
		working.Objective = &obj
	}

	c := NewContext(goCtx, working, opts)

	// Clip the solution hint into variable domains; values outside a
	// variable's domain are silently dropped rather than treated as
	// infeasible (a hint is advisory).
	var keptHints []Hint
	for _, h := range working.Hint {
		if int(h.Var) < 0 || int(h.Var) >= len(working.Variables) {
			continue
		}
		if working.Var(h.Var).Domain.Contains(h.Value) {
			keptHints = append(keptHints, h)
		}
	}
	working.Hint = keptHints

	for _, ct := range input.Constraints {
		normalized, keep := copyOneConstraint(c, ct)
		if !keep {
			continue
		}
		idx := working.AddConstraint(normalized)
		registerIncidence(c, idx, normalized)
	}
	if working.Objective != nil {
		for _, v := range working.Objective.Expr.Vars {
			c.AddIncidence(v, PseudoObjective)
		}
	}

	return c, nil
}

// copyOneConstraint normalizes a single constraint: folds its enforcement
// list, drops it outright if enforcement is self-contradictory (a literal
// and its negation in the same list make the constraint unenforceable, hence
// vacuous), and canonicalizes a linear body if present.
func copyOneConstraint(c *Context, ct *Constraint) (*Constraint, bool) {
	out := *ct
	out.Enforcement = append(Enforcement(nil), ct.Enforcement...)

	normalizedEnf, contradiction := out.Enforcement.Normalize()
	if contradiction {
		// Enforcement can never hold: the constraint is vacuously true and
		// can be dropped entirely.
		return nil, false
	}
	out.Enforcement = normalizedEnf

	if out.Kind == CKLinear {
		out.Linear = ct.Linear.Clone()
		rhs := ct.Rhs
		out.Linear.Canonicalize(&rhs)
		out.Rhs = rhs
		if len(out.Linear.Vars) == 0 {
			// Constant body: either trivially true or infeasible.
			if out.Rhs.Contains(out.Linear.Offset) {
				return nil, false
			}
			MarkFalse(c, &out)
			return &out, true
		}
	}
	return &out, true
}

// registerIncidence records ctIdx against every variable the constraint
// references, across all constraint kinds.
func registerIncidence(c *Context, ctIdx int, ct *Constraint) {
	for _, v := range constraintVariables(ct) {
		c.AddIncidence(v, ctIdx)
	}
}

// MarkFalse implements the shared rewriter contract: if ct's
// enforcement list is non-empty, rewrite it into a bool_or of the negations
// of the enforcement literals (at least one enforcement must be false). If
// the enforcement list is empty, report model infeasibility.
func MarkFalse(c *Context, ct *Constraint) {
	if len(ct.Enforcement) == 0 {
		c.MarkInfeasible("constraint proven false with no enforcement to blame")
		return
	}
	lits := make([]Literal, len(ct.Enforcement))
	for i, l := range ct.Enforcement {
		lits[i] = l.Negated()
	}
	*ct = Constraint{Kind: CKBoolOr, Literals: lits}
}

// RemoveConstraint clears ct in place, implementing the shared rewriter
// contract's RemoveConstraint.
func RemoveConstraint(ct *Constraint) {
	*ct = Constraint{Kind: CKBoolOr, Literals: nil}
	ct.removed = true
}
