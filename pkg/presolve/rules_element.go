package presolve

// This file implements the element-constraint rewriter:
// Target = Values[Index] for a fixed table (Values), or Target =
// VarValues[Index] for a variable table. Propagation narrows Index to
// positions whose entry can still agree with Target, and narrows Target to
// the union of entries reachable by Index's remaining domain.

func PresolveElement(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKElement {
		return false, nil
	}
	if len(ct.Values) > 0 {
		return presolveElementFixedTable(c, ctIdx, ct)
	}
	return presolveElementVarTable(c, ctIdx, ct)
}

func presolveElementFixedTable(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	if len(ct.Enforcement) != 0 {
		// Domain narrowing is unsound while the constraint might not hold;
		// only a provable contradiction (no index/value pair agrees at all)
		// can fire, and only to disprove the enforcement.
		return presolveEnforcedElementFixedTable(c, ctIdx, ct)
	}
	changed := false
	idxDom := c.Model.Var(ct.Index).Domain
	targetDom := c.Model.Var(ct.Target).Domain

	var reachableValues []Interval
	var validIndices []Interval
	for i, val := range ct.Values {
		pos := int64(i)
		if !idxDom.Contains(pos) {
			continue
		}
		if !targetDom.Contains(val) {
			continue
		}
		validIndices = append(validIndices, Interval{Lo: pos, Hi: pos})
		reachableValues = append(reachableValues, Interval{Lo: val, Hi: val})
	}
	newIdxDom := NewDomainFromIntervals(validIndices)
	newTargetDom := NewDomainFromIntervals(reachableValues)

	if n, ok := c.IntersectDomain(ct.Index, newIdxDom); !ok {
		return changed, Infeasiblef("element constraint %d: no index agrees with target's domain", ctIdx)
	} else if n {
		changed = true
	}
	if n, ok := c.IntersectDomain(ct.Target, newTargetDom); !ok {
		return changed, Infeasiblef("element constraint %d: target domain disjoint from reachable values", ctIdx)
	} else if n {
		changed = true
	}

	if c.Model.Var(ct.Index).Domain.IsFixed() {
		val := ct.Values[c.Model.Var(ct.Index).Domain.FixedValue()]
		targetDom := c.Model.Var(ct.Target).Domain
		if !(targetDom.IsFixed() && targetDom.FixedValue() == val) {
			changed = true
		}
		if !c.FixValue(ct.Target, val) {
			return changed, Infeasiblef("element constraint %d: target cannot take the resolved value", ctIdx)
		}
		original := &Constraint{Kind: CKElement, Index: ct.Index, Target: ct.Target, Values: append([]int64(nil), ct.Values...)}
		c.NewMappingConstraint(original)
		c.RemoveIncidence(ct.Index, ctIdx)
		c.RemoveIncidence(ct.Target, ctIdx)
		RemoveConstraint(ct)
		c.Report.Increment("element: resolved, index fixed")
		return true, nil
	}
	return changed, nil
}

func presolveEnforcedElementFixedTable(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	idxDom := c.Model.Var(ct.Index).Domain
	targetDom := c.Model.Var(ct.Target).Domain
	for i, val := range ct.Values {
		if idxDom.Contains(int64(i)) && targetDom.Contains(val) {
			return false, nil
		}
	}
	MarkFalse(c, ct)
	return true, nil
}

func presolveElementVarTable(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	if len(ct.Enforcement) != 0 {
		return presolveEnforcedElementVarTable(c, ctIdx, ct)
	}
	changed := false
	idxDom := c.Model.Var(ct.Index).Domain
	targetDom := c.Model.Var(ct.Target).Domain

	reachable := EmptyDomain()
	var validIndices []Interval
	for i, v := range ct.VarValues {
		pos := int64(i)
		if !idxDom.Contains(pos) {
			continue
		}
		entryDom := c.Model.Var(v).Domain
		if entryDom.Intersect(targetDom).IsEmpty() {
			continue
		}
		validIndices = append(validIndices, Interval{Lo: pos, Hi: pos})
		reachable = reachable.Union(entryDom)
	}
	newIdxDom := NewDomainFromIntervals(validIndices)
	if n, ok := c.IntersectDomain(ct.Index, newIdxDom); !ok {
		return changed, Infeasiblef("element constraint %d: no index agrees with target's domain", ctIdx)
	} else if n {
		changed = true
	}
	if n, ok := c.IntersectDomain(ct.Target, reachable); !ok {
		return changed, Infeasiblef("element constraint %d: target domain disjoint from reachable entries", ctIdx)
	} else if n {
		changed = true
	}

	if c.Model.Var(ct.Index).Domain.IsFixed() {
		pos := c.Model.Var(ct.Index).Domain.FixedValue()
		entryVar := ct.VarValues[pos]
		if c.StoreAffineRelation(ct.Target, entryVar, 1, 0) {
			original := &Constraint{Kind: CKElement, Index: ct.Index, Target: ct.Target, VarValues: append([]VarID(nil), ct.VarValues...)}
			c.NewMappingConstraint(original)
			c.RemoveIncidence(ct.Index, ctIdx)
			c.RemoveIncidence(ct.Target, ctIdx)
			for _, v := range ct.VarValues {
				c.RemoveIncidence(v, ctIdx)
			}
			RemoveConstraint(ct)
			c.Report.Increment("element: resolved to affine relation, index fixed")
			return true, nil
		}
	}
	return changed, nil
}

func presolveEnforcedElementVarTable(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	idxDom := c.Model.Var(ct.Index).Domain
	targetDom := c.Model.Var(ct.Target).Domain
	for i, v := range ct.VarValues {
		if !idxDom.Contains(int64(i)) {
			continue
		}
		if !c.Model.Var(v).Domain.Intersect(targetDom).IsEmpty() {
			return false, nil
		}
	}
	MarkFalse(c, ct)
	return true, nil
}
