package presolve

// This file implements the linear rewriter, the richest of
// the single-constraint rewriters. PresolveLinear runs its
// pipeline once per call; the fixed-point driver re-invokes it whenever the
// constraint (or a variable it references) changes, so the state being
// fixed-pointed is the model as a whole rather than any single constraint.
//
// Steps that remove or replace the constraint return early, and an error
// returns at once; steps that only narrow the rhs, domains or coefficients
// record the change and let the pipeline go on. The driver re-enqueues the
// constraint (and, transitively, anything the step above it touched) rather
// than this function looping internally, so no step ever iterates the live
// constraint list while appending to it.

// PresolveLinear rewrites the linear constraint at ctIdx in place. Returns
// whether the constraint's variable footprint changed (triggering
// re-enqueuing of incident constraints by the driver) and an error wrapping
// ErrInfeasible if the rewrite proved the model infeasible.
func PresolveLinear(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKLinear {
		return false, nil
	}

	changed := false

	if ch, err := canonicalizeLinear(c, ct); err != nil {
		return changed, err
	} else if ch {
		changed = true
	}
	if ct.Removed() {
		return changed, nil
	}
	if len(ct.Linear.Vars) == 0 {
		if ct.Rhs.Contains(ct.Linear.Offset) {
			RemoveConstraint(ct)
			return true, nil
		}
		MarkFalse(c, ct)
		return true, nil
	}

	actLo, actHi := ct.Linear.ActivityBounds(domainLookup(c))
	if actLo > actHi {
		return changed, Infeasiblef("linear constraint %d: empty activity range", ctIdx)
	}
	actDomain := NewDomain(actLo, actHi)

	if actDomain.IsSubsetOf(ct.Rhs) {
		c.Report.Increment("linear: removed trivially true constraint")
		RemoveConstraint(ct)
		return true, nil
	}
	if actDomain.Intersect(ct.Rhs).IsEmpty() {
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("linear constraint %d: activity %s disjoint from rhs %s", ctIdx, actDomain, ct.Rhs)
		}
		MarkFalse(c, ct)
		c.Report.Increment("linear: marked false by activity")
		return true, nil
	}

	if narrowed := ct.Rhs.SimplifyUsingImplied(actDomain); !narrowed.Equal(ct.Rhs) {
		ct.Rhs = narrowed
		changed = true
		c.Report.Increment("linear: tightened rhs using implied activity")
	}

	// Per-variable domain tightening and coefficient strengthening both
	// narrow a variable's own domain, which is only sound for an
	// unconditionally-holding constraint: an enforced (reified) constraint
	// imposes nothing on its variables when its enforcement is false, so
	// these steps must not run on enforced constraints.
	if len(ct.Enforcement) == 0 {
		if ch, err := tightenVariableBounds(c, ctIdx, ct); err != nil {
			return changed, err
		} else if ch {
			changed = true
		}
		if ch, err := eliminateSingleton(c, ctIdx, ct); err != nil {
			return changed, err
		} else if ch {
			return true, nil
		}
		if ch := strengthenCoefficients(c, ct); ch {
			changed = true
		}
	}
	if ch := specializeSmallLinear(c, ctIdx, ct); ch {
		changed = true
	}
	if ch := detectBooleanOnlyLinear(c, ct); ch {
		changed = true
	}

	return changed, nil
}

func domainLookup(c *Context) func(VarID) Domain {
	return func(v VarID) Domain { return c.Model.Var(v).Domain }
}

// canonicalizeLinear applies affine-relation substitution to every term,
// then folds duplicates and gcd-reduces via LinearExpr.Canonicalize.
func canonicalizeLinear(c *Context, ct *Constraint) (bool, error) {
	changed := false
	for i, v := range ct.Linear.Vars {
		rep, a, b := c.Affine.RepresentativeOf(v)
		if rep == v {
			continue
		}
		changed = true
		coeff := ct.Linear.Coeffs[i]
		ct.Linear.Offset = satAdd(ct.Linear.Offset, satMul(coeff, b))
		ct.Linear.Vars[i] = rep
		ct.Linear.Coeffs[i] = satMul(coeff, a)
	}
	before := ct.Linear.Clone()
	beforeRhs := ct.Rhs
	rhs := ct.Rhs
	ct.Linear.Canonicalize(&rhs)
	ct.Rhs = rhs
	if !changed {
		changed = !linearEqual(before, ct.Linear) || !beforeRhs.Equal(ct.Rhs)
	}
	return changed, nil
}

func linearEqual(a, b LinearExpr) bool {
	if a.Offset != b.Offset || len(a.Vars) != len(b.Vars) {
		return false
	}
	for i := range a.Vars {
		if a.Vars[i] != b.Vars[i] || a.Coeffs[i] != b.Coeffs[i] {
			return false
		}
	}
	return true
}

// tightenVariableBounds derives, for each term c*x, the tightest interval x
// can occupy given the other terms' activity range, and intersects it into
// x's domain.
func tightenVariableBounds(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	changed := false
	for i, v := range ct.Linear.Vars {
		coeff := ct.Linear.Coeffs[i]
		restLo, restHi := activityExcluding(ct.Linear, i, domainLookup(c))
		// ct holds iff coeff*x + rest in Rhs, i.e. coeff*x in (Rhs - rest).
		allowedForTerm := shiftDomainBy(ct.Rhs, -restLo, -restHi)
		xAllowed := allowedForTerm.InverseMul(coeff)
		narrowed, feasible := c.IntersectDomain(v, xAllowed)
		if !feasible {
			if len(ct.Enforcement) == 0 {
				return changed, Infeasiblef("linear constraint %d: variable %d domain emptied by bound tightening", ctIdx, v)
			}
			MarkFalse(c, ct)
			return true, nil
		}
		if narrowed {
			changed = true
		}
	}
	return changed, nil
}

// activityExcluding returns the [lo,hi] activity of expr excluding term i.
func activityExcluding(expr LinearExpr, skip int, domainOf func(VarID) Domain) (int64, int64) {
	lo, hi := expr.Offset, expr.Offset
	for i, v := range expr.Vars {
		if i == skip {
			continue
		}
		c := expr.Coeffs[i]
		d := domainOf(v)
		a, b := satMul(d.Min(), c), satMul(d.Max(), c)
		if a > b {
			a, b = b, a
		}
		lo, hi = satAdd(lo, a), satAdd(hi, b)
	}
	return lo, hi
}

// shiftDomainBy returns {v - restLo .. handled via two-sided shift}: since a
// Domain has no direct "subtract a range" primitive, this widens d by
// [-restHi, -restLo] (a Minkowski sum with the negated rest-activity
// interval), which is exactly the rhs-minus-rest-activity range used for
// per-variable bound tightening.
func shiftDomainBy(d Domain, negRestLo, negRestHi int64) Domain {
	return d.Add(NewDomain(minI64(negRestLo, negRestHi), maxI64(negRestLo, negRestHi)))
}

// eliminateSingleton removes a singleton variable: if x appears in this
// constraint and nowhere else but (optionally) the objective, with |c|=1,
// substitute x out of the objective, push the original constraint to
// mapping, and remove both x and the constraint; postsolve recovers x from
// the mapping entry. Runs on unenforced constraints only (PresolveLinear
// skips it for enforced ones). Fires only when x's domain and the rhs are
// single intervals and x's range can complete every value the rest of the
// constraint takes; when x is in the objective the rhs must also be fixed,
// since the objective substitution needs an equality.
func eliminateSingleton(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	for i, v := range ct.Linear.Vars {
		coeff := ct.Linear.Coeffs[i]
		if coeff != 1 && coeff != -1 {
			continue
		}
		if !isSingletonOutsideObjective(c, v, ctIdx) {
			continue
		}
		variable := c.Model.Var(v)
		if variable.Status != StatusActive {
			continue
		}
		// Every rest value r needs some x with coeff*x in [Rhs.Min-r, Rhs.Max-r].
		restLo, restHi := activityExcluding(ct.Linear, i, domainLookup(c))
		tLo, tHi := satMul(variable.Domain.Min(), coeff), satMul(variable.Domain.Max(), coeff)
		if tLo > tHi {
			tLo, tHi = tHi, tLo
		}
		if variable.Domain.NumIntervals() != 1 || ct.Rhs.NumIntervals() != 1 ||
			satSub(ct.Rhs.Min(), restLo) > tHi || satSub(ct.Rhs.Max(), restHi) < tLo {
			continue
		}
		// x = coeff*(rhs - rest); since coeff is +-1 this is exact.
		hasObjective := c.Model.Objective != nil && containsVar(c.Model.Objective.Expr.Vars, v)
		if hasObjective {
			if !ct.Rhs.IsFixed() || !c.SubstituteVariableInObjective(v, coeff, ct) {
				continue
			}
		}
		original := &Constraint{Kind: CKLinear, Linear: ct.Linear.Clone(), Rhs: ct.Rhs, Enforcement: append(Enforcement(nil), ct.Enforcement...)}
		c.NewMappingConstraint(original)

		c.removeConstraintIncidence(ctIdx, ct)
		variable.Status = StatusRemoved
		RemoveConstraint(ct)
		c.Report.Increment("linear: singleton eliminated")
		return true, nil
	}
	return false, nil
}

func containsVar(vars []VarID, v VarID) bool {
	for _, x := range vars {
		if x == v {
			return true
		}
	}
	return false
}

// isSingletonOutsideObjective reports whether v's only working-model
// incidence is ctIdx (objective incidence, tracked via PseudoObjective, does
// not disqualify it: the objective is allowed as the other slot, but no
// second real constraint is).
func isSingletonOutsideObjective(c *Context, v VarID, ctIdx int) bool {
	for idx := range c.VarToConstraints[v] {
		if idx == ctIdx || idx == PseudoObjective {
			continue
		}
		return false
	}
	return true
}

// removeConstraintIncidence drops ctIdx from every variable it references
// (used right before a constraint is cleared or absorbed elsewhere).
func (c *Context) removeConstraintIncidence(ctIdx int, ct *Constraint) {
	for _, v := range ct.Linear.Vars {
		c.RemoveIncidence(v, ctIdx)
	}
	for _, l := range ct.Enforcement {
		c.RemoveIncidence(l.Var(), ctIdx)
	}
}

// strengthenCoefficients strengthens a linear constraint whose upper side is
// the only binding one: a binary variable's positive coefficient is
// raised to k - r*, where r* is the largest value the remaining terms can
// still reach with the variable at 1. Every solution is preserved exactly —
// with the variable at 1 the rest was already confined to at most r*, and
// with it at 0 the coefficient is irrelevant — while the raised coefficient
// tightens the LP relaxation and exposes Boolean structure (e.g.
// 5x + 7y <= 7 becomes 7x + 7y <= 7, which gcd-reduces to an at-most-one).
func strengthenCoefficients(c *Context, ct *Constraint) bool {
	if ct.Rhs.NumIntervals() != 1 {
		return false
	}
	// Only the upper side may bind: the rhs lower bound must already be met
	// by every assignment (raising a coefficient never changes a term's
	// minimum of 0, so a vacuous lower side stays vacuous).
	actLo, _ := ct.Linear.ActivityBounds(domainLookup(c))
	if ct.Rhs.Min() > actLo {
		return false
	}
	k := satSub(ct.Rhs.Max(), ct.Linear.Offset)
	if Saturated(k) {
		return false
	}
	changed := false
	for i, v := range ct.Linear.Vars {
		coeff := ct.Linear.Coeffs[i]
		if coeff <= 0 {
			continue
		}
		d := c.Model.Var(v).Domain
		if d.Min() != 0 || d.Max() != 1 {
			continue
		}
		rest := restTermsDomain(ct.Linear, i, domainLookup(c))
		bound := satSub(k, coeff)
		if Saturated(bound) || Saturated(rest.Max()) {
			continue
		}
		reachable := rest.Intersect(NewDomain(minSafe, bound))
		if reachable.IsEmpty() {
			// The variable can't be 1 at all; bound tightening fixes it.
			continue
		}
		raised := satSub(k, reachable.Max())
		if raised > coeff && !Saturated(raised) {
			ct.Linear.Coeffs[i] = raised
			changed = true
		}
	}
	if changed {
		c.Report.Increment("linear: coefficients strengthened")
	}
	return changed
}

// restTermsDomain returns a superset of the values the expression's terms
// other than skip can sum to, keeping exact gap structure for small
// variable domains (a binary times 7 contributes {0,7}, not [0,7]) and
// falling back to interval hulls for large ones.
func restTermsDomain(e LinearExpr, skip int, domainOf func(VarID) Domain) Domain {
	out := SingleValueDomain(0)
	for j, v := range e.Vars {
		if j == skip {
			continue
		}
		out = out.Add(termImage(domainOf(v), e.Coeffs[j])).relaxIfComplex()
	}
	return out
}

// termImage returns {coeff * x : x in d}, exactly for small domains and as
// the scaled hull otherwise.
func termImage(d Domain, coeff int64) Domain {
	const exactLimit = 16
	if d.Size() > exactLimit {
		return d.MulByConstant(coeff)
	}
	var ivs []Interval
	for _, iv := range d.Intervals() {
		for x := iv.Lo; x <= iv.Hi; x++ {
			p := satMul(x, coeff)
			ivs = append(ivs, Interval{Lo: p, Hi: p})
		}
	}
	return NewDomainFromIntervals(ivs)
}

// specializeSmallLinear gives the smallest constraints direct handling:
// size 1 and size 2 constraints, including affine-relation extraction for
// size-2 equalities.
func specializeSmallLinear(c *Context, ctIdx int, ct *Constraint) bool {
	switch len(ct.Linear.Vars) {
	case 1:
		v := ct.Linear.Vars[0]
		coeff := ct.Linear.Coeffs[0]
		target := ct.Rhs.AddConstant(-ct.Linear.Offset).InverseMul(coeff)
		if len(ct.Enforcement) == 0 {
			if _, ok := c.IntersectDomain(v, target); !ok {
				c.MarkInfeasible("size-1 linear constraint emptied a variable domain")
				return false
			}
			RemoveConstraint(ct)
			c.Report.Increment("linear: size-1 folded into domain")
			return true
		}
	case 2:
		if !ct.Rhs.IsFixed() || len(ct.Enforcement) != 0 {
			return false
		}
		x, y := ct.Linear.Vars[0], ct.Linear.Vars[1]
		cx, cy := ct.Linear.Coeffs[0], ct.Linear.Coeffs[1]
		if cx != 1 && cx != -1 && cy != 1 && cy != -1 {
			return false
		}
		rhsVal := satSub(ct.Rhs.FixedValue(), ct.Linear.Offset)
		var elimVar, repVar VarID
		var elimCoeff, repCoeff int64
		if cx == 1 || cx == -1 {
			elimVar, elimCoeff, repVar, repCoeff = x, cx, y, cy
		} else {
			elimVar, elimCoeff, repVar, repCoeff = y, cy, x, cx
		}
		if c.Model.Var(elimVar).Status != StatusActive || c.Degree(elimVar) > 2 {
			return false
		}
		if c.Model.Objective != nil && containsVar(c.Model.Objective.Expr.Vars, elimVar) {
			return false
		}
		// elimVar*elimCoeff + repVar*repCoeff = rhsVal
		// => elimVar = elimCoeff*(rhsVal - repVar*repCoeff)   (elimCoeff is +-1)
		a := -elimCoeff * repCoeff
		b := elimCoeff * rhsVal
		if !c.StoreAffineRelation(elimVar, repVar, a, b) {
			return false
		}
		c.removeConstraintIncidence(ctIdx, ct)
		RemoveConstraint(ct)
		c.Report.Increment("linear: size-2 affine relation extracted")
		return true
	}
	return false
}

// detectBooleanOnlyLinear fires when every
// variable is Boolean, convert to the tightest Boolean-family constraint.
// The caller's driver re-presolves the result via the Boolean rewriter.
func detectBooleanOnlyLinear(c *Context, ct *Constraint) bool {
	if len(ct.Linear.Vars) == 0 {
		return false
	}
	for _, v := range ct.Linear.Vars {
		if !c.Model.Var(v).IsBoolean() {
			return false
		}
	}
	allUnitPositive := true
	for _, coeff := range ct.Linear.Coeffs {
		if coeff != 1 {
			allUnitPositive = false
			break
		}
	}
	if !allUnitPositive {
		return false
	}
	n := int64(len(ct.Linear.Vars))
	lits := make([]Literal, len(ct.Linear.Vars))
	for i, v := range ct.Linear.Vars {
		lits[i] = LitFromVar(v)
	}
	// The Boolean sum ranges over [0, n]; only the rhs's intersection with
	// that window matters, which also catches one-sided bounds that were
	// gcd-divided away from the saturated endpoint.
	effective := ct.Rhs.AddConstant(-ct.Linear.Offset).Intersect(NewDomain(0, n))
	switch {
	case effective.IsFixed() && effective.FixedValue() == 1:
		*ct = Constraint{Kind: CKExactlyOne, Literals: lits, Enforcement: ct.Enforcement}
	case effective.Equal(NewDomain(0, 1)) && n > 1:
		*ct = Constraint{Kind: CKAtMostOne, Literals: lits, Enforcement: ct.Enforcement}
	case effective.Equal(NewDomain(1, n)) && n > 1:
		*ct = Constraint{Kind: CKBoolOr, Literals: lits, Enforcement: ct.Enforcement}
	default:
		return false
	}
	c.Report.Increment("linear: converted to boolean family")
	return true
}
