package presolve

import "sort"

// SubstituteAffineEqualities implements a deliberately narrow substitution
// engine: linear-equality-into-linear-constraint substitution only. The general engine substitutes a freed variable out
// of every constraint that references it regardless of kind; this version
// is restricted to other CKLinear constraints (and the objective, via the
// existing Context.SubstituteVariableInObjective), since a linear
// constraint's body is the only kind with a well-defined "replace this term
// with an equivalent linear expression" rewrite — element/table/automaton
// and the rest of the non-linear family reference variables by identity,
// not by linear combination, and have no analogous operation.
//
// Context.Affine only ever records a two-variable x = a*rep + b hop, so it
// cannot represent a defining equality over three or more variables; this
// analyzer is what actually eliminates those wider equalities, by directly
// rewriting every other linear constraint's body rather than going through
// the affine store.
func SubstituteAffineEqualities(c *Context) (int, error) {
	changed := 0
	for idx, ct := range c.Model.Constraints {
		if ct.Removed() || ct.Kind != CKLinear || len(ct.Enforcement) != 0 {
			continue
		}
		if !ct.Rhs.IsFixed() {
			continue
		}
		target := ct.Rhs.FixedValue()

		for i, v := range ct.Linear.Vars {
			coeff := ct.Linear.Coeffs[i]
			if coeff != 1 && coeff != -1 {
				continue
			}
			// Degree 1 means nothing else references v; plain singleton
			// elimination (rules_linear.go's eliminateSingleton) already
			// covers that case without needing cross-constraint rewriting.
			if c.Degree(v) <= 1 {
				continue
			}
			if c.LimitReached() {
				return changed, nil
			}

			restLo, restHi := activityExcluding(ct.Linear, i, domainLookup(c))
			allowedForTerm := shiftDomainBy(ct.Rhs, -restLo, -restHi)
			impliedForV := allowedForTerm.InverseMul(coeff)
			if !impliedForV.Equal(c.Model.Var(v).Domain) {
				continue
			}

			replacement := buildSubstitutionExpr(ct.Linear, i, coeff, target)

			var referers []int
			for ctIdx2 := range c.VarToConstraints[v] {
				if ctIdx2 == idx || ctIdx2 < 0 {
					continue
				}
				referers = append(referers, ctIdx2)
			}
			sort.Ints(referers)

			substituted := false
			for _, ctIdx2 := range referers {
				other := c.Model.Constraints[ctIdx2]
				if other.Removed() || other.Kind != CKLinear {
					continue
				}
				if substituteInLinear(c, ctIdx2, other, v, replacement) {
					substituted = true
				}
			}
			if !c.SubstituteVariableInObjective(v, coeff, ct) {
				continue
			}
			if substituted {
				c.Report.Increment("substitution: folded affine-defined variable into referencing linear constraints")
				changed++
			}
		}
	}
	return changed, nil
}

// buildSubstitutionExpr solves expr (with term i having coefficient coeff)
// for the variable at position i against target, returning v expressed in
// terms of every other variable in expr: v = sum(-coeff*c_j*x_j) + coeff*(target-Offset).
func buildSubstitutionExpr(expr LinearExpr, skip int, coeff, target int64) LinearExpr {
	k := satSub(target, expr.Offset)
	replacement := LinearExpr{Offset: satMul(coeff, k)}
	for j, ov := range expr.Vars {
		if j == skip {
			continue
		}
		replacement.Vars = append(replacement.Vars, ov)
		replacement.Coeffs = append(replacement.Coeffs, satMul(-coeff, expr.Coeffs[j]))
	}
	return replacement
}

// substituteInLinear replaces v's term in other.Linear with
// coeff(v)*replacement, updating incidence bookkeeping for every variable
// whose presence in other changes as a result.
func substituteInLinear(c *Context, ctIdx int, other *Constraint, v VarID, replacement LinearExpr) bool {
	pos := -1
	for i, ov := range other.Linear.Vars {
		if ov == v {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false
	}
	cv := other.Linear.Coeffs[pos]

	vars := append(append([]VarID(nil), other.Linear.Vars[:pos]...), other.Linear.Vars[pos+1:]...)
	coeffs := append(append([]int64(nil), other.Linear.Coeffs[:pos]...), other.Linear.Coeffs[pos+1:]...)
	for j, rv := range replacement.Vars {
		vars = append(vars, rv)
		coeffs = append(coeffs, satMul(cv, replacement.Coeffs[j]))
	}
	other.Linear.Vars = vars
	other.Linear.Coeffs = coeffs
	other.Linear.Offset = satAdd(other.Linear.Offset, satMul(cv, replacement.Offset))

	rhs := other.Rhs
	other.Linear.Canonicalize(&rhs)
	other.Rhs = rhs

	c.RemoveIncidence(v, ctIdx)
	for _, rv := range replacement.Vars {
		c.AddIncidence(rv, ctIdx)
	}
	return true
}
