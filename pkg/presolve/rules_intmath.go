package presolve

// This file implements the integer-arithmetic rewriters:
// int_prod (target = product of terms), int_div (target = terms[0] /
// terms[1], truncating), int_mod (target = terms[0] mod terms[1]). All three
// share the shape "Target = f(Terms...)" and propagate by narrowing Target's
// domain from the terms' domains. A two-term int_prod also narrows each
// factor from Target when the other factor excludes zero, and int_div
// narrows the dividend back from Target when the divisor is fixed; int_mod
// narrows Target only.

// PresolveIntMath rewrites the int_prod/int_div/int_mod constraint at ctIdx.
func PresolveIntMath(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() {
		return false, nil
	}
	switch ct.Kind {
	case CKIntProd:
		return presolveIntProd(c, ctIdx, ct)
	case CKIntDiv:
		return presolveIntDiv(c, ctIdx, ct)
	case CKIntMod:
		return presolveIntMod(c, ctIdx, ct)
	}
	return false, nil
}

func presolveIntProd(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	if len(ct.Terms) == 0 {
		return false, nil
	}
	changed := false
	product := SingleValueDomain(1)
	for _, v := range ct.Terms {
		product = product.ContinuousMul(c.Model.Var(v).Domain)
	}
	if len(ct.Enforcement) != 0 {
		// Domain narrowing is only sound for an unconditional constraint; an
		// enforced int_prod can only be disproved outright (forcing its
		// enforcement false), never used to shrink a variable's domain.
		if product.Intersect(c.Model.Var(ct.Target).Domain).IsEmpty() {
			MarkFalse(c, ct)
			return true, nil
		}
		return false, nil
	}
	narrowed, ok := c.IntersectDomain(ct.Target, product)
	if !ok {
		return changed, Infeasiblef("int_prod constraint %d: target domain disjoint from product range", ctIdx)
	}
	if narrowed {
		changed = true
	}

	if len(ct.Terms) == 1 {
		// target = terms[0]: a direct equality, fold via affine relation.
		if c.Model.Var(ct.Terms[0]).Status == StatusActive && isSingletonOutsideObjective(c, ct.Terms[0], ctIdx) {
			if c.StoreAffineRelation(ct.Terms[0], ct.Target, 1, 0) {
				original := &Constraint{Kind: CKIntProd, Target: ct.Target, Terms: append([]VarID(nil), ct.Terms...)}
				c.NewMappingConstraint(original)
				c.RemoveIncidence(ct.Terms[0], ctIdx)
				c.RemoveIncidence(ct.Target, ctIdx)
				RemoveConstraint(ct)
				c.Report.Increment("int_prod: unary product folded to affine relation")
				return true, nil
			}
		}
	}

	if len(ct.Terms) == 2 {
		// Narrow each factor from target / other-factor when the other factor's
		// domain never contains zero (division is then exact-free to invert).
		for i := 0; i < 2; i++ {
			other := c.Model.Var(ct.Terms[1-i]).Domain
			if other.Contains(0) {
				continue
			}
			allowed := narrowFactor(c.Model.Var(ct.Target).Domain, other)
			if n, ok := c.IntersectDomain(ct.Terms[i], allowed); !ok {
				return changed, Infeasiblef("int_prod constraint %d: factor domain emptied", ctIdx)
			} else if n {
				changed = true
			}
		}
	}
	return changed, nil
}

// narrowFactor returns an over-approximation of {x : x*other in target} for
// an other-domain known not to contain zero: the hull of target divided by
// each interval endpoint of other. Within one same-sign interval of other,
// t/k is monotone in k, so every exact quotient lies between the quotients
// at that interval's endpoints.
func narrowFactor(target, other Domain) Domain {
	if target.IsEmpty() || other.IsEmpty() {
		return EmptyDomain()
	}
	u := EmptyDomain()
	for _, iv := range other.Intervals() {
		u = u.Union(target.DivByConstant(iv.Lo)).Union(target.DivByConstant(iv.Hi))
	}
	return NewDomain(u.Min(), u.Max())
}

func presolveIntDiv(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	if len(ct.Terms) != 2 {
		return false, nil
	}
	num, denom := ct.Terms[0], ct.Terms[1]
	denomDom := c.Model.Var(denom).Domain
	if denomDom.Contains(0) {
		// Zero is in the divisor's domain but may not be reachable once other
		// constraints narrow it further; this rewriter only proves
		// infeasibility when the divisor domain is exactly {0}.
		if denomDom.IsFixed() {
			return false, Infeasiblef("int_div constraint %d: divisor is fixed to zero", ctIdx)
		}
		return false, nil
	}
	numDom := c.Model.Var(num).Domain
	result := EmptyDomain()
	for _, iv := range denomDom.Intervals() {
		lo, hi := iv.Lo, iv.Hi
		// Quotients for divisors inside [lo, hi] lie between those at its ends.
		q := numDom.DivByConstant(lo).Union(numDom.DivByConstant(hi))
		result = result.Union(NewDomain(q.Min(), q.Max()))
	}
	if len(ct.Enforcement) != 0 {
		if result.Intersect(c.Model.Var(ct.Target).Domain).IsEmpty() {
			MarkFalse(c, ct)
			return true, nil
		}
		return false, nil
	}
	changed := false
	if narrowed, ok := c.IntersectDomain(ct.Target, result); !ok {
		return changed, Infeasiblef("int_div constraint %d: quotient domain emptied", ctIdx)
	} else if narrowed {
		changed = true
	}
	if denomDom.IsFixed() {
		// Invert exactly: num in [target*denom, target*denom + denom - 1] for
		// positive denom (symmetric for negative), i.e. the preimage of
		// target under DivByConstant(denom).
		allowedNum := inversePreimageOfDiv(c.Model.Var(ct.Target).Domain, denomDom.FixedValue())
		if narrowed, ok := c.IntersectDomain(num, allowedNum); !ok {
			return changed, Infeasiblef("int_div constraint %d: numerator domain emptied by inversion", ctIdx)
		} else if narrowed {
			changed = true
		}
	}
	return changed, nil
}

// inversePreimageOfDiv returns an over-approximation of {x : truncdiv(x, k)
// in target}, k != 0.
func inversePreimageOfDiv(target Domain, k int64) Domain {
	if target.IsEmpty() || k == 0 {
		return EmptyDomain()
	}
	lo := satMul(target.Min(), k)
	hi := satMul(target.Max(), k)
	if k > 0 {
		hi = satAdd(hi, k-1)
	} else {
		lo = satAdd(lo, k+1)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return NewDomain(lo, hi)
}

func presolveIntMod(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	if len(ct.Terms) != 2 {
		return false, nil
	}
	a, modVar := ct.Terms[0], ct.Terms[1]
	modDom := c.Model.Var(modVar).Domain
	if modDom.Contains(0) && modDom.IsFixed() {
		return false, Infeasiblef("int_mod constraint %d: modulus is fixed to zero", ctIdx)
	}
	result := c.Model.Var(a).Domain.ModSuperset(modDom)
	if len(ct.Enforcement) != 0 {
		if result.Intersect(c.Model.Var(ct.Target).Domain).IsEmpty() {
			MarkFalse(c, ct)
			return true, nil
		}
		return false, nil
	}
	changed := false
	if narrowed, ok := c.IntersectDomain(ct.Target, result); !ok {
		return changed, Infeasiblef("int_mod constraint %d: remainder domain emptied", ctIdx)
	} else if narrowed {
		changed = true
	}
	return changed, nil
}
