package presolve

// This file implements the reservoir-constraint rewriter:
// a sequence of level-changing events (Times[i], Levels[i], ActiveLiterals[i])
// must keep a running level within [MinLevel, MaxLevel] at every event time.
// The passes below run in order: drop events that can never move the level,
// clamp the stated bounds to the reachable level range, divide everything by
// the gcd of the deltas, check the fully-resolved schedule, and convert to a
// plain linear constraint when all deltas share a sign.

func PresolveReservoir(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKReservoir {
		return false, nil
	}
	n := len(ct.Times)
	if n == 0 || len(ct.Levels) != n {
		return false, nil
	}
	if len(ct.ActiveLiterals) != 0 && len(ct.ActiveLiterals) != n {
		return false, nil
	}

	changed := false

	// Drop zero-delta events and events whose activity literal is already
	// false: neither can ever move the level.
	var keptTimes []VarID
	var keptLevels []int64
	var keptActive []Literal
	hasActive := len(ct.ActiveLiterals) != 0
	for i := 0; i < n; i++ {
		inactive := hasActive && c.LiteralIsFalse(ct.ActiveLiterals[i])
		if ct.Levels[i] == 0 || inactive {
			c.RemoveIncidence(ct.Times[i], ctIdx)
			if hasActive {
				c.RemoveIncidence(ct.ActiveLiterals[i].Var(), ctIdx)
			}
			c.Report.Increment("reservoir: dropped inert event")
			changed = true
			continue
		}
		keptTimes = append(keptTimes, ct.Times[i])
		keptLevels = append(keptLevels, ct.Levels[i])
		if hasActive {
			keptActive = append(keptActive, ct.ActiveLiterals[i])
		}
	}
	if changed {
		ct.Times, ct.Levels, ct.ActiveLiterals = keptTimes, keptLevels, keptActive
	}
	if len(ct.Times) == 0 {
		RemoveConstraint(ct)
		c.Report.Increment("reservoir: removed, no effective events")
		return true, nil
	}

	// The level is always a sum of a subset of the deltas, so it can never
	// leave [sum of negative deltas, sum of positive deltas]; clamping the
	// stated bounds to that range changes nothing about the feasible set.
	var sumPos, sumNeg int64
	for _, delta := range ct.Levels {
		if delta > 0 {
			sumPos = satAdd(sumPos, delta)
		} else {
			sumNeg = satAdd(sumNeg, delta)
		}
	}
	if ct.MinLevel < sumNeg {
		ct.MinLevel = sumNeg
		c.Report.Increment("reservoir: raised min level to reachable floor")
		changed = true
	}
	if ct.MaxLevel > sumPos {
		ct.MaxLevel = sumPos
		c.Report.Increment("reservoir: lowered max level to reachable ceiling")
		changed = true
	}
	if ct.MinLevel > ct.MaxLevel {
		if len(ct.Enforcement) != 0 {
			MarkFalse(c, ct)
			return true, nil
		}
		return changed, Infeasiblef("reservoir constraint %d: no reachable level satisfies [%d,%d]", ctIdx, ct.MinLevel, ct.MaxLevel)
	}

	// Every level is a multiple of the deltas' gcd, so deltas and bounds can
	// be divided through (bounds rounding inward).
	g := int64(0)
	for _, delta := range ct.Levels {
		g = GCD(g, delta)
	}
	if g > 1 {
		for i := range ct.Levels {
			ct.Levels[i] /= g
		}
		ct.MinLevel = ceilDiv(ct.MinLevel, g)
		ct.MaxLevel = floorDiv(ct.MaxLevel, g)
		c.Report.Increment("reservoir: divided by delta gcd")
		changed = true
	}

	if n2, err := reservoirResolvedCheck(c, ctIdx, ct); err != nil || n2 {
		return changed || n2, err
	}

	// With same-sign deltas the level moves monotonically from 0, so only
	// the final total is ever extremal: the whole constraint collapses to a
	// single linear bound over the activity literals.
	if reservoirToLinear(c, ctIdx, ct) {
		return true, nil
	}

	return changed, nil
}

// reservoirToLinear rewrites the constraint into a linear bound on the sum
// of active deltas when all deltas share a sign and the empty prefix (level
// 0) already satisfies the side the sign can never violate. Returns whether
// the conversion fired.
func reservoirToLinear(c *Context, ctIdx int, ct *Constraint) bool {
	allPos, allNeg := true, true
	for _, delta := range ct.Levels {
		if delta < 0 {
			allPos = false
		}
		if delta > 0 {
			allNeg = false
		}
	}
	var rhs Domain
	switch {
	case allPos && ct.MinLevel <= 0:
		rhs = NewDomain(minSafe, ct.MaxLevel)
	case allNeg && ct.MaxLevel >= 0:
		rhs = NewDomain(ct.MinLevel, maxSafe)
	default:
		return false
	}

	expr := LinearExpr{}
	hasActive := len(ct.ActiveLiterals) != 0
	for i, delta := range ct.Levels {
		if !hasActive || c.LiteralIsTrue(ct.ActiveLiterals[i]) {
			expr.Offset = satAdd(expr.Offset, delta)
			continue
		}
		lit := ct.ActiveLiterals[i]
		if lit.IsPositive() {
			expr.Vars = append(expr.Vars, lit.Var())
			expr.Coeffs = append(expr.Coeffs, delta)
		} else {
			// delta * (1 - var)
			expr.Vars = append(expr.Vars, lit.Var())
			expr.Coeffs = append(expr.Coeffs, -delta)
			expr.Offset = satAdd(expr.Offset, delta)
		}
	}

	for _, timeVar := range ct.Times {
		c.RemoveIncidence(timeVar, ctIdx)
	}
	*ct = Constraint{Kind: CKLinear, Enforcement: ct.Enforcement, Linear: expr, Rhs: rhs}
	c.Report.Increment("reservoir: same-sign deltas, converted to linear")
	return true
}

// reservoirResolvedCheck replays the schedule once every event time is
// fixed and every activity literal is decided, failing if any prefix level
// leaves [MinLevel, MaxLevel].
func reservoirResolvedCheck(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	type event struct {
		t     int64
		delta int64
	}
	hasActive := len(ct.ActiveLiterals) != 0
	var events []event
	for i, timeVar := range ct.Times {
		timeDom := c.Model.Var(timeVar).Domain
		if !timeDom.IsFixed() {
			return false, nil
		}
		if hasActive {
			lit := ct.ActiveLiterals[i]
			if c.LiteralIsFalse(lit) {
				continue
			}
			if !c.LiteralIsTrue(lit) {
				return false, nil
			}
		}
		events = append(events, event{t: timeDom.FixedValue(), delta: ct.Levels[i]})
	}

	var distinctTimes []int64
	seen := make(map[int64]bool)
	for _, e := range events {
		if !seen[e.t] {
			seen[e.t] = true
			distinctTimes = append(distinctTimes, e.t)
		}
	}
	for _, t := range distinctTimes {
		var level int64
		for _, e := range events {
			if e.t <= t {
				level = satAdd(level, e.delta)
			}
		}
		if level < ct.MinLevel || level > ct.MaxLevel {
			if len(ct.Enforcement) != 0 {
				MarkFalse(c, ct)
				return true, nil
			}
			return false, Infeasiblef("reservoir constraint %d: level %d outside [%d,%d] at time %d", ctIdx, level, ct.MinLevel, ct.MaxLevel, t)
		}
	}
	return false, nil
}
