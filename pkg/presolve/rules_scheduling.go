package presolve

// This file implements the scheduling-family rewriters:
// interval (Start + Size = End, optionally gated by a presence literal),
// no_overlap (pairwise disjunction between intervals), no_overlap_2d (each
// pair of boxes must be disjoint on the X1 axis or on the Y1 axis), and
// cumulative (total demand at any instant must not exceed Capacity).
//
// Scheduling propagation in a full solver uses edge-finding and energetic
// reasoning; this presolve layer applies the bound-consistent subset of that
// reasoning (pairwise ordering deduction, definite-presence checks) plus the
// structural rewrites that shrink or retype the constraints themselves:
// dropping entries that can no longer matter, demand/capacity inference, and
// the conversions to no_overlap. Sound but intentionally incomplete, since
// the fixed-point driver keeps re-invoking these rewriters as other
// constraints narrow the same domains.

func PresolveInterval(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKInterval {
		return false, nil
	}
	if ct.IsOptional {
		if c.LiteralIsFalse(ct.Presence) {
			RemoveConstraint(ct)
			c.Report.Increment("interval: removed, definitely absent")
			return true, nil
		}
		if !c.LiteralIsTrue(ct.Presence) {
			return false, nil
		}
	}

	changed := false
	startDom := c.Model.Var(ct.Start).Domain
	sizeDom := c.Model.Var(ct.Size).Domain
	endDom := c.Model.Var(ct.End).Domain

	if n, ok := c.IntersectDomain(ct.End, startDom.Add(sizeDom)); !ok {
		return changed, Infeasiblef("interval constraint %d: end domain emptied", ctIdx)
	} else if n {
		changed = true
		endDom = c.Model.Var(ct.End).Domain
	}
	if n, ok := c.IntersectDomain(ct.Start, endDom.Add(sizeDom.Negation())); !ok {
		return changed, Infeasiblef("interval constraint %d: start domain emptied", ctIdx)
	} else if n {
		changed = true
		startDom = c.Model.Var(ct.Start).Domain
	}
	if n, ok := c.IntersectDomain(ct.Size, endDom.Add(startDom.Negation())); !ok {
		return changed, Infeasiblef("interval constraint %d: size domain emptied", ctIdx)
	} else if n {
		changed = true
	}
	return changed, nil
}

// intervalDefinitelyPresent reports whether the interval named by ref is
// known to be part of the active schedule (not optional, or its presence
// literal is pinned true).
func intervalDefinitelyPresent(c *Context, ref IntervalRef) bool {
	if ref.Presence == 0 {
		return true
	}
	return c.LiteralIsTrue(ref.Presence)
}

func intervalDefinitelyAbsent(c *Context, ref IntervalRef) bool {
	return ref.Presence != 0 && c.LiteralIsFalse(ref.Presence)
}

func startEndOf(c *Context, ctIdx int) (startDom, endDom Domain, startV, endV VarID) {
	ivCt := c.Model.Constraints[ctIdx]
	startV, endV = ivCt.Start, ivCt.End
	return c.Model.Var(startV).Domain, c.Model.Var(endV).Domain, startV, endV
}

// noOverlapPair applies pairwise ordering propagation between two intervals
// that are both definitely present: one must finish before the other
// starts. Returns (changed, err).
func noOverlapPair(c *Context, ctIdx int, a, b IntervalRef) (bool, error) {
	if intervalDefinitelyAbsent(c, a) || intervalDefinitelyAbsent(c, b) {
		return false, nil
	}
	if !intervalDefinitelyPresent(c, a) || !intervalDefinitelyPresent(c, b) {
		return false, nil
	}
	startA, endA, _, endAVar := startEndOf(c, a.ConstraintIndex)
	startB, endB, startBVar, _ := startEndOf(c, b.ConstraintIndex)

	aBeforeB := startB.Max() >= endA.Min()
	bBeforeA := startA.Max() >= endB.Min()

	if !aBeforeB && !bBeforeA {
		return false, Infeasiblef("no_overlap constraint %d: intervals %d and %d cannot be ordered", ctIdx, a.ConstraintIndex, b.ConstraintIndex)
	}
	if aBeforeB && bBeforeA {
		return false, nil
	}
	changed := false
	if aBeforeB {
		if n, ok := c.IntersectDomain(startBVar, NewDomain(endA.Min(), maxSafe)); ok && n {
			changed = true
		} else if !ok {
			return changed, Infeasiblef("no_overlap constraint %d: forced ordering emptied a start domain", ctIdx)
		}
		if n, ok := c.IntersectDomain(endAVar, NewDomain(minSafe, startB.Max())); ok && n {
			changed = true
		} else if !ok {
			return changed, Infeasiblef("no_overlap constraint %d: forced ordering emptied an end domain", ctIdx)
		}
	} else {
		if n, ok := c.IntersectDomain(c.Model.Constraints[a.ConstraintIndex].Start, NewDomain(endB.Min(), maxSafe)); ok && n {
			changed = true
		} else if !ok {
			return changed, Infeasiblef("no_overlap constraint %d: forced ordering emptied a start domain", ctIdx)
		}
		if n, ok := c.IntersectDomain(c.Model.Constraints[b.ConstraintIndex].End, NewDomain(minSafe, startA.Max())); ok && n {
			changed = true
		} else if !ok {
			return changed, Infeasiblef("no_overlap constraint %d: forced ordering emptied an end domain", ctIdx)
		}
	}
	return changed, nil
}

func PresolveNoOverlap(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKNoOverlap {
		return false, nil
	}
	changed := false
	var kept []IntervalRef
	for _, ref := range ct.Intervals {
		if intervalDefinitelyAbsent(c, ref) {
			if ref.Presence != 0 {
				c.RemoveIncidence(ref.Presence.Var(), ctIdx)
			}
			c.Report.Increment("no_overlap: dropped absent interval")
			changed = true
			continue
		}
		kept = append(kept, ref)
	}
	if changed {
		ct.Intervals = kept
	}
	if len(ct.Intervals) <= 1 {
		RemoveConstraint(ct)
		c.Report.Increment("no_overlap: removed, at most one interval left")
		return true, nil
	}
	// Pairwise ordering narrows interval domains, which is only sound when
	// the constraint holds unconditionally.
	if len(ct.Enforcement) != 0 {
		return changed, nil
	}
	for i := 0; i < len(ct.Intervals); i++ {
		for j := i + 1; j < len(ct.Intervals); j++ {
			n, err := noOverlapPair(c, ctIdx, ct.Intervals[i], ct.Intervals[j])
			if err != nil {
				return changed, err
			}
			if n {
				changed = true
			}
		}
	}
	return changed, nil
}

func PresolveNoOverlap2D(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKNoOverlap2D {
		return false, nil
	}
	if len(ct.X1) != len(ct.Y1) {
		return false, nil
	}

	changed := false
	var keptX, keptY []IntervalRef
	for i := range ct.X1 {
		if intervalDefinitelyAbsent(c, ct.X1[i]) || intervalDefinitelyAbsent(c, ct.Y1[i]) {
			if ct.X1[i].Presence != 0 {
				c.RemoveIncidence(ct.X1[i].Presence.Var(), ctIdx)
			}
			if ct.Y1[i].Presence != 0 {
				c.RemoveIncidence(ct.Y1[i].Presence.Var(), ctIdx)
			}
			c.Report.Increment("no_overlap_2d: dropped absent box")
			changed = true
			continue
		}
		keptX = append(keptX, ct.X1[i])
		keptY = append(keptY, ct.Y1[i])
	}
	if changed {
		ct.X1, ct.Y1 = keptX, keptY
	}
	if len(ct.X1) <= 1 {
		RemoveConstraint(ct)
		c.Report.Increment("no_overlap_2d: removed, at most one box left")
		return true, nil
	}

	// When one axis is constant — every box's extent there is fixed and
	// every pair of extents overlaps — that axis separates nothing, so the
	// whole constraint is exactly no_overlap on the other axis.
	if axisConstantAndOverlapping(c, ct.Y1) {
		ct.Kind = CKNoOverlap
		ct.Intervals = ct.X1
		ct.X1, ct.Y1 = nil, nil
		c.Report.Increment("no_overlap_2d: constant y axis, converted to no_overlap")
		return true, nil
	}
	if axisConstantAndOverlapping(c, ct.X1) {
		ct.Kind = CKNoOverlap
		ct.Intervals = ct.Y1
		ct.X1, ct.Y1 = nil, nil
		c.Report.Increment("no_overlap_2d: constant x axis, converted to no_overlap")
		return true, nil
	}
	return changed, nil
}

// axisConstantAndOverlapping reports whether every box's extent on this axis
// is fixed and every pair of extents overlaps, i.e. the axis can never
// separate any pair of boxes.
func axisConstantAndOverlapping(c *Context, axis []IntervalRef) bool {
	type extent struct{ lo, hi int64 }
	extents := make([]extent, len(axis))
	for i, ref := range axis {
		startDom, endDom, _, _ := startEndOf(c, ref.ConstraintIndex)
		if !startDom.IsFixed() || !endDom.IsFixed() {
			return false
		}
		extents[i] = extent{lo: startDom.FixedValue(), hi: endDom.FixedValue()}
	}
	for i := range extents {
		for j := i + 1; j < len(extents); j++ {
			if !(extents[i].lo < extents[j].hi && extents[j].lo < extents[i].hi) {
				return false
			}
		}
	}
	return true
}

// PresolveCumulative applies the cumulative reductions that don't need
// edge-finding: dropping intervals that can no longer contribute demand,
// demand-versus-capacity bound propagation and infeasibility inference, the
// conversion to no_overlap once every demand must exceed half the capacity,
// and — in the fully-resolved case — the per-instant occupancy check.
func PresolveCumulative(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKCumulative {
		return false, nil
	}
	if len(ct.Demands) != len(ct.Intervals) {
		return false, nil
	}

	changed := false
	var keptRefs []IntervalRef
	var keptDemands []VarID
	for i, ref := range ct.Intervals {
		demandVar := ct.Demands[i]
		demandDom := c.Model.Var(demandVar).Domain
		ivCt := c.Model.Constraints[ref.ConstraintIndex]
		// An interval constraint only ever gets removed when it is
		// definitely absent, so a removed referent contributes nothing.
		contributes := !ivCt.Removed() && ivCt.Kind == CKInterval &&
			!intervalDefinitelyAbsent(c, ref) &&
			!(demandDom.IsFixed() && demandDom.FixedValue() == 0)
		if contributes {
			sizeDom := c.Model.Var(ivCt.Size).Domain
			if sizeDom.IsFixed() && sizeDom.FixedValue() == 0 {
				contributes = false
			}
		}
		if !contributes {
			c.RemoveIncidence(demandVar, ctIdx)
			if ref.Presence != 0 {
				c.RemoveIncidence(ref.Presence.Var(), ctIdx)
			}
			c.Report.Increment("cumulative: dropped contributionless interval")
			changed = true
			continue
		}
		keptRefs = append(keptRefs, ref)
		keptDemands = append(keptDemands, demandVar)
	}
	if changed {
		ct.Intervals, ct.Demands = keptRefs, keptDemands
	}
	if len(ct.Intervals) == 0 {
		c.RemoveIncidence(ct.Capacity, ctIdx)
		RemoveConstraint(ct)
		c.Report.Increment("cumulative: removed, no contributing intervals")
		return true, nil
	}

	capDom := c.Model.Var(ct.Capacity).Domain
	capMax := capDom.Max()

	// A definitely-present interval that must occupy time caps its demand at
	// the capacity, and floors the capacity at its demand.
	for i, ref := range ct.Intervals {
		if !intervalDefinitelyPresent(c, ref) {
			continue
		}
		sizeDom := c.Model.Var(c.Model.Constraints[ref.ConstraintIndex].Size).Domain
		if sizeDom.Min() <= 0 {
			continue
		}
		demandDom := c.Model.Var(ct.Demands[i]).Domain
		if demandDom.Min() > capMax {
			if len(ct.Enforcement) != 0 {
				MarkFalse(c, ct)
				return true, nil
			}
			return changed, Infeasiblef("cumulative constraint %d: an unavoidable demand of %d exceeds the capacity bound %d", ctIdx, demandDom.Min(), capMax)
		}
		if len(ct.Enforcement) == 0 {
			if n, ok := c.IntersectDomain(ct.Demands[i], NewDomain(minSafe, capMax)); !ok {
				return changed, Infeasiblef("cumulative constraint %d: demand domain emptied against capacity", ctIdx)
			} else if n {
				changed = true
			}
			if n, ok := c.IntersectDomain(ct.Capacity, NewDomain(demandDom.Min(), maxSafe)); !ok {
				return changed, Infeasiblef("cumulative constraint %d: capacity domain emptied against demand", ctIdx)
			} else if n {
				changed = true
			}
		}
	}

	// When every demand must exceed half the capacity, no two intervals may
	// ever run concurrently: the constraint is exactly no_overlap.
	if len(ct.Enforcement) == 0 && capDom.IsFixed() && len(ct.Intervals) >= 2 {
		capacity := capDom.FixedValue()
		exclusive := true
		for _, demandVar := range ct.Demands {
			d := c.Model.Var(demandVar).Domain
			if satMul(d.Min(), 2) <= capacity || d.Max() > capacity {
				exclusive = false
				break
			}
		}
		if exclusive {
			for _, demandVar := range ct.Demands {
				c.RemoveIncidence(demandVar, ctIdx)
			}
			c.RemoveIncidence(ct.Capacity, ctIdx)
			ct.Kind = CKNoOverlap
			ct.Demands = nil
			c.Report.Increment("cumulative: every demand exceeds half capacity, converted to no_overlap")
			return true, nil
		}
	}

	n, err := cumulativeResolvedCheck(c, ctIdx, ct, capDom)
	return changed || n, err
}

// cumulativeResolvedCheck verifies the per-instant occupancy bound once
// every present interval's time window and demand, and the capacity, are
// fully fixed. Partial resolution is left to the next fixed-point pass.
func cumulativeResolvedCheck(c *Context, ctIdx int, ct *Constraint, capDom Domain) (bool, error) {
	if !capDom.IsFixed() {
		return false, nil
	}
	capacity := capDom.FixedValue()

	type window struct {
		lo, hi int64
		demand int64
	}
	var windows []window
	for i, ref := range ct.Intervals {
		if intervalDefinitelyAbsent(c, ref) {
			continue
		}
		if !intervalDefinitelyPresent(c, ref) {
			return false, nil
		}
		startDom, endDom, _, _ := startEndOf(c, ref.ConstraintIndex)
		if !startDom.IsFixed() || !endDom.IsFixed() {
			return false, nil
		}
		demandDom := c.Model.Var(ct.Demands[i]).Domain
		if !demandDom.IsFixed() {
			return false, nil
		}
		windows = append(windows, window{lo: startDom.FixedValue(), hi: endDom.FixedValue(), demand: demandDom.FixedValue()})
	}
	for _, w := range windows {
		var occupied int64
		for _, other := range windows {
			if other.lo <= w.lo && w.lo < other.hi {
				occupied = satAdd(occupied, other.demand)
			}
		}
		if occupied > capacity {
			if len(ct.Enforcement) != 0 {
				MarkFalse(c, ct)
				return true, nil
			}
			return false, Infeasiblef("cumulative constraint %d: demand %d exceeds capacity %d at time %d", ctIdx, occupied, capacity, w.lo)
		}
	}
	return false, nil
}
