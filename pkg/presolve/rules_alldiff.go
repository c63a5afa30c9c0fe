package presolve

// This file implements the all_different rewriter:
// Exprs must evaluate to pairwise distinct values. Presolve applies the
// "naked singles" exclusion (any expression already fixed excludes its value
// from every bare variable expression still undecided) plus the total-
// permutation case: when the expressions exactly exhaust the union of their
// domains, a value with a single remaining candidate is forced onto it, and
// fewer values than expressions is an immediate contradiction.

func PresolveAllDifferent(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKAllDifferent {
		return false, nil
	}

	fixedValues := make(map[int64]bool)
	var fixedList []int64
	for _, e := range ct.Exprs {
		if val, ok := exprFixedValue(c, e); ok {
			if fixedValues[val] {
				if len(ct.Enforcement) != 0 {
					MarkFalse(c, ct)
					return true, nil
				}
				return false, Infeasiblef("all_different constraint %d: two expressions fixed to the same value %d", ctIdx, val)
			}
			fixedValues[val] = true
			fixedList = append(fixedList, val)
		}
	}
	changed := false
	if len(ct.Enforcement) == 0 && len(fixedList) > 0 {
		for _, e := range ct.Exprs {
			v, ok := exprAsBareVariable(e)
			if !ok {
				continue
			}
			if c.Model.Var(v).Domain.IsFixed() {
				continue
			}
			excluded := EmptyDomain()
			for _, val := range fixedList {
				excluded = excluded.Union(SingleValueDomain(val))
			}
			allowed := c.Model.Var(v).Domain.Intersect(excluded.Complement())
			if n, ok := c.IntersectDomain(v, allowed); !ok {
				return changed, Infeasiblef("all_different constraint %d: excluding fixed values empties a variable domain", ctIdx)
			} else if n {
				changed = true
			}
		}
	}

	n, err := allDifferentPermutation(c, ctIdx, ct)
	return changed || n, err
}

// allDifferentPermutation applies pigeonhole and total-permutation
// reasoning when every expression is a bare variable or fully fixed: fewer
// distinct candidate values than expressions is a contradiction, and with
// exactly as many values as expressions every value belongs to exactly one
// expression, so a value with a single candidate left is forced onto it.
func allDifferentPermutation(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	type entry struct {
		v    VarID
		dom  Domain
		bare bool
	}
	union := EmptyDomain()
	var entries []entry
	for _, e := range ct.Exprs {
		if v, ok := exprAsBareVariable(e); ok {
			d := c.Model.Var(v).Domain
			entries = append(entries, entry{v: v, dom: d, bare: true})
			union = union.Union(d)
			continue
		}
		if val, ok := exprFixedValue(c, e); ok {
			entries = append(entries, entry{dom: SingleValueDomain(val)})
			union = union.Union(SingleValueDomain(val))
			continue
		}
		return false, nil
	}
	if len(entries) == 0 {
		return false, nil
	}

	if union.Size() < int64(len(entries)) {
		if len(ct.Enforcement) != 0 {
			MarkFalse(c, ct)
			return true, nil
		}
		return false, Infeasiblef("all_different constraint %d: %d expressions share only %d distinct values", ctIdx, len(entries), union.Size())
	}
	if len(ct.Enforcement) != 0 {
		return false, nil
	}
	if union.Size() != int64(len(entries)) || union.Size() > 128 {
		return false, nil
	}

	// Total permutation: every value of the union is taken exactly once.
	changed := false
	for _, iv := range union.Intervals() {
		for val := iv.Lo; val <= iv.Hi; val++ {
			candidate := -1
			count := 0
			for i, e := range entries {
				if e.dom.Contains(val) {
					count++
					candidate = i
				}
			}
			if count != 1 || !entries[candidate].bare || entries[candidate].dom.IsFixed() {
				continue
			}
			if n, ok := c.IntersectDomain(entries[candidate].v, SingleValueDomain(val)); !ok {
				return changed, Infeasiblef("all_different constraint %d: forcing the only candidate of value %d failed", ctIdx, val)
			} else if n {
				changed = true
				c.Report.Increment("all_different: forced the only candidate of a value")
			}
		}
	}
	return changed, nil
}

// exprFixedValue reports the expression's value when every variable it
// references is fixed.
func exprFixedValue(c *Context, e LinearExpr) (int64, bool) {
	total := e.Offset
	for i, v := range e.Vars {
		d := c.Model.Var(v).Domain
		if !d.IsFixed() {
			return 0, false
		}
		total = satAdd(total, satMul(e.Coeffs[i], d.FixedValue()))
	}
	return total, true
}

// exprAsBareVariable reports whether e is exactly "1*v + 0" for some v.
func exprAsBareVariable(e LinearExpr) (VarID, bool) {
	if e.Offset == 0 && len(e.Vars) == 1 && e.Coeffs[0] == 1 {
		return e.Vars[0], true
	}
	return 0, false
}
