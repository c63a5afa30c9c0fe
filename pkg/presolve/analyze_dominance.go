package presolve

// This file implements a deliberately narrow dominance and
// dual-bound-strengthening pass, not a full two-phase
// activity-signature/rank-order domination algorithm (that needs a standing
// candidate-partition data structure this presolver does not otherwise
// maintain across calls). It covers the two exploitations that pay for
// themselves most often: saturating a slack-free one-sided constraint to
// equality, and collapsing a mutually-dominating pair of Boolean variables
// inside a one-sided linear constraint into an equivalence.

// soleIncidence reports whether v's only recorded incidence is ctIdx itself
// (no other constraint, and no objective or affine-store reference). A
// variable named by an assumption literal is never sole-incident: the
// assumption depends on it even though no constraint does.
func soleIncidence(c *Context, v VarID, ctIdx int) bool {
	set := c.VarToConstraints[v]
	if len(set) != 1 || !set[ctIdx] {
		return false
	}
	for _, l := range c.Model.Assumptions {
		if l.Var() == v {
			return false
		}
	}
	return true
}

// StrengthenDualBounds saturates any unenforced, one-sided linear
// constraint (a pure upper or pure lower bound, not a two-sided range)
// whose every variable has sole incidence to equality at its limit. With no
// other constraint or the objective depending on the slack, nothing is lost
// by pinning the sum to the bound; the next pass over the constraint
// narrows every variable's domain from that tighter rhs.
func StrengthenDualBounds(c *Context) (int, error) {
	changed := 0
	for idx, ct := range c.Model.Constraints {
		if ct.Removed() || ct.Kind != CKLinear || len(ct.Enforcement) != 0 {
			continue
		}
		if len(ct.Linear.Vars) == 0 {
			continue
		}
		upperOnly := ct.Rhs.Min() == minSafe && ct.Rhs.Max() != maxSafe
		lowerOnly := ct.Rhs.Max() == maxSafe && ct.Rhs.Min() != minSafe
		if !upperOnly && !lowerOnly {
			continue
		}
		if c.LimitReached() {
			return changed, nil
		}

		allSole := true
		for _, v := range ct.Linear.Vars {
			if !soleIncidence(c, v, idx) {
				allSole = false
				break
			}
		}
		if !allSole {
			continue
		}

		limit := ct.Rhs.Max()
		if lowerOnly {
			limit = ct.Rhs.Min()
		}
		tight := SingleValueDomain(limit)
		if ct.Rhs.Equal(tight) {
			continue
		}
		actLo, actHi := ct.Linear.ActivityBounds(domainLookup(c))
		if limit < actLo || limit > actHi {
			continue // unreachable; leave infeasibility detection to the linear rewriter
		}
		ct.Rhs = tight
		c.Report.Increment("dominance: saturated slack-free one-sided constraint to equality")
		changed++
	}
	return changed, nil
}

func isBooleanVar(c *Context, v VarID) bool {
	d := c.Model.Var(v).Domain
	return d.Min() >= 0 && d.Max() <= 1
}

// DetectVarDomination looks for pairs of Boolean variables that dominate
// each other inside a one-sided linear constraint: when both variables'
// only incidence is that constraint, at most one of the pair can be 1 (their
// coefficients plus the other terms' floor overshoot the bound) and the
// cheaper of the two can always be raised from (0,0) without violating
// anything (the other terms' ceiling leaves room for it), every solution
// maps to an equal-or-better one with exactly one of the pair set — so the
// pair collapses to x = ¬y. The constraint itself is dropped only in the
// bare two-variable case where both branches are known feasible; otherwise
// it stays, with the equality substituted through it by canonicalization.
func DetectVarDomination(c *Context) (int, error) {
	changed := 0
	for idx, ct := range c.Model.Constraints {
		if ct.Removed() || ct.Kind != CKLinear || len(ct.Enforcement) != 0 {
			continue
		}
		if ct.Rhs.NumIntervals() != 1 {
			continue
		}
		actLo, _ := ct.Linear.ActivityBounds(domainLookup(c))
		if ct.Rhs.Min() > actLo {
			continue // the lower side binds too; not a one-sided constraint
		}
		k := ct.Rhs.Max()
		if Saturated(k) {
			continue
		}
		if c.LimitReached() {
			return changed, nil
		}

		if pairDominationInConstraint(c, idx, ct, k) {
			changed++
		}
	}
	return changed, nil
}

// pairDominationInConstraint scans variable pairs of one constraint and
// applies the first dominated pair found. One application per call: the
// equality rewrites the constraint, so later pairs see stale terms.
func pairDominationInConstraint(c *Context, idx int, ct *Constraint, k int64) bool {
	vars := ct.Linear.Vars
	coeffs := ct.Linear.Coeffs
	// Both values of both variables must still be available: the mapping
	// argument raises one of them from 0 to 1.
	freeBoolean := func(v VarID) bool {
		d := c.Model.Var(v).Domain
		return d.Min() == 0 && d.Max() == 1
	}
	for i := 0; i < len(vars); i++ {
		if coeffs[i] <= 0 || !freeBoolean(vars[i]) || !soleIncidence(c, vars[i], idx) {
			continue
		}
		for j := i + 1; j < len(vars); j++ {
			if coeffs[j] <= 0 || !freeBoolean(vars[j]) || !soleIncidence(c, vars[j], idx) {
				continue
			}
			restLo, restHi := activityExcludingPair(ct.Linear, i, j, domainLookup(c))
			bothOn := satAdd(satAdd(coeffs[i], coeffs[j]), restLo)
			if Saturated(bothOn) || bothOn <= k {
				continue // both variables can be 1 together; no exclusion
			}
			cheaper := minI64(coeffs[i], coeffs[j])
			if satAdd(restHi, cheaper) > k {
				continue // raising from (0,0) is not always free
			}
			ri, _, _ := c.Affine.RepresentativeOf(vars[i])
			rj, _, _ := c.Affine.RepresentativeOf(vars[j])
			if ri == rj {
				continue
			}
			if !c.StoreBooleanEquality(LitFromVar(vars[i]), LitFromVar(vars[j]).Negated()) {
				continue
			}
			c.Report.Increment("dominance: forced dominated Boolean pair to equality")
			if len(vars) == 2 && satAdd(ct.Linear.Offset, maxI64(coeffs[i], coeffs[j])) <= k {
				c.removeConstraintIncidence(idx, ct)
				RemoveConstraint(ct)
			}
			return true
		}
	}
	return false
}

// activityExcludingPair is activityExcluding for two skipped terms.
func activityExcludingPair(expr LinearExpr, skipA, skipB int, domainOf func(VarID) Domain) (int64, int64) {
	lo, hi := expr.Offset, expr.Offset
	for i, v := range expr.Vars {
		if i == skipA || i == skipB {
			continue
		}
		coeff := expr.Coeffs[i]
		d := domainOf(v)
		a, b := satMul(d.Min(), coeff), satMul(d.Max(), coeff)
		if a > b {
			a, b = b, a
		}
		lo, hi = satAdd(lo, a), satAdd(hi, b)
	}
	return lo, hi
}
