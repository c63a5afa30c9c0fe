package presolve

// This file implements the table-constraint rewriter: a
// tuple-membership constraint over TableVars, satisfied iff the current
// assignment matches one row of TableTuples. Propagation filters rows that
// are no longer reachable given each variable's domain, then narrows each
// variable's domain to the set of values that still appear in some
// surviving row (a single generalized-arc-consistency sweep, not a full
// fixed point within one call — the driver re-invokes this rewriter as
// domains keep shrinking, converging to GAC across repeated calls).

func PresolveTable(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKTable {
		return false, nil
	}
	if len(ct.TableVars) == 0 {
		return false, nil
	}

	domains := make([]Domain, len(ct.TableVars))
	for i, v := range ct.TableVars {
		domains[i] = c.Model.Var(v).Domain
	}

	survivingRows := ct.TableTuples[:0:0]
	for _, row := range ct.TableTuples {
		ok := true
		for i, val := range row {
			if !domains[i].Contains(val) {
				ok = false
				break
			}
		}
		if ok {
			survivingRows = append(survivingRows, row)
		}
	}

	if len(ct.Enforcement) != 0 {
		if len(survivingRows) == 0 {
			MarkFalse(c, ct)
			return true, nil
		}
		return false, nil
	}

	if len(survivingRows) == 0 {
		return false, Infeasiblef("table constraint %d: no tuple survives current domains", ctIdx)
	}

	changed := len(survivingRows) != len(ct.TableTuples)
	if changed {
		ct.TableTuples = append([][]int64(nil), survivingRows...)
	}

	reachablePerCol := make([]map[int64]bool, len(ct.TableVars))
	for i := range reachablePerCol {
		reachablePerCol[i] = make(map[int64]bool)
	}
	for _, row := range survivingRows {
		for i, val := range row {
			reachablePerCol[i][val] = true
		}
	}
	for i, v := range ct.TableVars {
		var ivs []Interval
		for val := range reachablePerCol[i] {
			ivs = append(ivs, Interval{Lo: val, Hi: val})
		}
		allowed := NewDomainFromIntervals(ivs)
		if n, ok := c.IntersectDomain(v, allowed); !ok {
			return changed, Infeasiblef("table constraint %d: column %d domain emptied", ctIdx, i)
		} else if n {
			changed = true
		}
	}

	if len(survivingRows) == 1 {
		c.Report.Increment("table: resolved to single surviving tuple")
		RemoveConstraint(ct)
		return true, nil
	}
	return changed, nil
}
