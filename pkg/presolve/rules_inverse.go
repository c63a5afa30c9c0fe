package presolve

// This file implements the inverse-constraint rewriter:
// two equal-length arrays F and G (packed into Exprs as F followed by G)
// must satisfy F[i] = j iff G[j] = i. Exprs is split down the middle;
// callers build it that way (see model construction helpers). Every entry
// indexes the opposite array, so all domains are restricted to [0, n-1];
// propagation is bidirectional channeling, run once per direction: pinning
// either side's entry fixes the matching entry on the other side.

func PresolveInverse(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKInverse {
		return false, nil
	}
	if len(ct.Exprs)%2 != 0 {
		return false, nil
	}
	n := len(ct.Exprs) / 2
	f := ct.Exprs[:n]
	g := ct.Exprs[n:]

	// A variable shared between the two halves couples entries that the
	// channeling below treats as independent; such a constraint is left
	// untouched for the solver.
	inF := make(map[VarID]bool)
	for _, e := range f {
		for _, v := range e.Vars {
			inF[v] = true
		}
	}
	for _, e := range g {
		for _, v := range e.Vars {
			if inF[v] {
				return false, nil
			}
		}
	}

	changed := false
	indexRange := NewDomain(0, int64(n-1))
	for _, e := range ct.Exprs {
		v, ok := exprAsBareVariable(e)
		if !ok {
			continue
		}
		if len(ct.Enforcement) != 0 {
			if c.Model.Var(v).Domain.Intersect(indexRange).IsEmpty() {
				MarkFalse(c, ct)
				return true, nil
			}
			continue
		}
		if n2, ok2 := c.IntersectDomain(v, indexRange); !ok2 {
			return changed, Infeasiblef("inverse constraint %d: an entry has no value in [0,%d]", ctIdx, n-1)
		} else if n2 {
			changed = true
		}
	}

	if n2, err := inverseChannel(c, ctIdx, ct, f, g); err != nil {
		return changed || n2, err
	} else if n2 {
		changed = true
	}
	if n2, err := inverseChannel(c, ctIdx, ct, g, f); err != nil {
		return changed || n2, err
	} else if n2 {
		changed = true
	}
	return changed, nil
}

// inverseChannel propagates fixed entries of one half onto the other:
// from[i] = j forces to[j] = i. Called once per direction.
func inverseChannel(c *Context, ctIdx int, ct *Constraint, from, to []LinearExpr) (bool, error) {
	n := len(from)
	changed := false
	for i := 0; i < n; i++ {
		fv, ok := exprAsBareVariable(from[i])
		if !ok {
			continue
		}
		fDom := c.Model.Var(fv).Domain
		if !fDom.IsFixed() {
			continue
		}
		j := fDom.FixedValue()
		if j < 0 || j >= int64(n) {
			if len(ct.Enforcement) != 0 {
				MarkFalse(c, ct)
				return true, nil
			}
			return changed, Infeasiblef("inverse constraint %d: entry %d fixed to %d, outside [0,%d]", ctIdx, i, j, n-1)
		}
		tv, ok := exprAsBareVariable(to[j])
		if !ok {
			continue
		}
		if len(ct.Enforcement) != 0 {
			if !c.Model.Var(tv).Domain.Contains(int64(i)) {
				MarkFalse(c, ct)
				return true, nil
			}
			continue
		}
		if n2, ok := c.IntersectDomain(tv, SingleValueDomain(int64(i))); !ok {
			return changed, Infeasiblef("inverse constraint %d: the mirrored entry of %d cannot be %d", ctIdx, j, i)
		} else if n2 {
			changed = true
		}
	}
	return changed, nil
}
