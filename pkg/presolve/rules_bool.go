package presolve

// This file implements the Boolean-clause family rewriters:
// bool_or, bool_and, at_most_one, exactly_one, bool_xor. All five share a
// literal-list body, so the simplification steps (duplicate-literal
// dedup, complementary-pair detection, fixed-literal removal) are written
// once and dispatched by kind.

// PresolveBool rewrites the Boolean-family constraint at ctIdx in place.
func PresolveBool(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() {
		return false, nil
	}
	switch ct.Kind {
	case CKBoolOr:
		return presolveBoolOr(c, ctIdx, ct)
	case CKBoolAnd:
		return presolveBoolAnd(c, ctIdx, ct)
	case CKAtMostOne:
		return presolveAtMostOne(c, ctIdx, ct)
	case CKExactlyOne:
		return presolveExactlyOne(c, ctIdx, ct)
	case CKBoolXor:
		return presolveBoolXor(c, ctIdx, ct)
	}
	return false, nil
}

// dedupLiterals drops duplicate literals (keeping one) and reports whether a
// literal and its negation both appear (a tautology for bool_or/bool_xor
// parity purposes, an immediate contradiction for at_most_one/exactly_one).
func dedupLiterals(lits []Literal) (out []Literal, hasComplementaryPair bool) {
	seen := make(map[Literal]bool, len(lits))
	for _, l := range lits {
		if seen[l] {
			continue
		}
		if seen[l.Negated()] {
			hasComplementaryPair = true
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, hasComplementaryPair
}

func presolveBoolOr(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	changed := false
	lits, tautology := dedupLiterals(ct.Literals)
	if len(lits) != len(ct.Literals) {
		changed = true
		ct.Literals = lits
	}
	if tautology {
		c.Report.Increment("bool_or: removed as tautology (x or not x)")
		RemoveConstraint(ct)
		return true, nil
	}
	var kept []Literal
	for _, l := range ct.Literals {
		if c.LiteralIsTrue(l) {
			c.Report.Increment("bool_or: removed, already satisfied")
			RemoveConstraint(ct)
			return true, nil
		}
		if c.LiteralIsFalse(l) {
			changed = true
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) != len(ct.Literals) {
		ct.Literals = kept
		changed = true
	}
	switch len(ct.Literals) {
	case 0:
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("bool_or constraint %d: every disjunct is false", ctIdx)
		}
		MarkFalse(c, ct)
		return true, nil
	case 1:
		if len(ct.Enforcement) == 0 {
			c.SetLiteralTrue(ct.Literals[0])
			c.Report.Increment("bool_or: unit propagated")
			RemoveConstraint(ct)
			return true, nil
		}
	}
	return changed, nil
}

func presolveBoolAnd(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	changed := false
	lits, tautology := dedupLiterals(ct.Literals)
	if len(lits) != len(ct.Literals) {
		changed = true
		ct.Literals = lits
	}
	if tautology {
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("bool_and constraint %d: requires both x and not x", ctIdx)
		}
		MarkFalse(c, ct)
		return true, nil
	}
	var kept []Literal
	for _, l := range ct.Literals {
		if c.LiteralIsTrue(l) {
			changed = true
			continue
		}
		if c.LiteralIsFalse(l) {
			if len(ct.Enforcement) == 0 {
				return changed, Infeasiblef("bool_and constraint %d: a required literal is false", ctIdx)
			}
			MarkFalse(c, ct)
			return true, nil
		}
		kept = append(kept, l)
	}
	if len(kept) != len(ct.Literals) {
		ct.Literals = kept
		changed = true
	}
	if len(ct.Literals) == 0 {
		c.Report.Increment("bool_and: removed, vacuously satisfied")
		RemoveConstraint(ct)
		return true, nil
	}
	if len(ct.Enforcement) == 0 && len(ct.Literals) == 1 {
		c.SetLiteralTrue(ct.Literals[0])
		RemoveConstraint(ct)
		return true, nil
	}
	return changed, nil
}

// presolveAtMostOne drops already-false literals; if two literals are both
// forced true that is an immediate contradiction; if exactly one literal is
// forced true, every other literal in the clique must be forced false.
func presolveAtMostOne(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	changed := false
	lits, _ := dedupLiterals(ct.Literals)
	if len(lits) != len(ct.Literals) {
		changed = true
		ct.Literals = lits
	}
	var kept []Literal
	trueCount := 0
	for _, l := range ct.Literals {
		if c.LiteralIsFalse(l) {
			changed = true
			continue
		}
		if c.LiteralIsTrue(l) {
			trueCount++
		}
		kept = append(kept, l)
	}
	if trueCount > 1 {
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("at_most_one constraint %d: two literals forced true", ctIdx)
		}
		MarkFalse(c, ct)
		return true, nil
	}
	if len(kept) != len(ct.Literals) {
		ct.Literals = kept
		changed = true
	}
	if trueCount == 1 && len(ct.Enforcement) == 0 {
		for _, l := range ct.Literals {
			if !c.LiteralIsTrue(l) {
				c.SetLiteralFalse(l)
			}
		}
		c.Report.Increment("at_most_one: resolved by a forced-true literal")
		RemoveConstraint(ct)
		return true, nil
	}
	if len(ct.Literals) <= 1 {
		c.Report.Increment("at_most_one: trivially satisfied")
		RemoveConstraint(ct)
		return true, nil
	}
	return changed, nil
}

func presolveExactlyOne(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	changed := false
	lits, _ := dedupLiterals(ct.Literals)
	if len(lits) != len(ct.Literals) {
		changed = true
		ct.Literals = lits
	}
	var kept []Literal
	trueCount := 0
	for _, l := range ct.Literals {
		if c.LiteralIsFalse(l) {
			changed = true
			continue
		}
		if c.LiteralIsTrue(l) {
			trueCount++
		}
		kept = append(kept, l)
	}
	if trueCount > 1 {
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("exactly_one constraint %d: two literals forced true", ctIdx)
		}
		MarkFalse(c, ct)
		return true, nil
	}
	if len(kept) != len(ct.Literals) {
		ct.Literals = kept
		changed = true
	}
	if trueCount == 1 && len(ct.Enforcement) == 0 {
		for _, l := range ct.Literals {
			if !c.LiteralIsTrue(l) {
				c.SetLiteralFalse(l)
			}
		}
		c.Report.Increment("exactly_one: resolved by a forced-true literal")
		RemoveConstraint(ct)
		return true, nil
	}
	switch len(ct.Literals) {
	case 0:
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("exactly_one constraint %d: no literal left to satisfy it", ctIdx)
		}
		MarkFalse(c, ct)
		return true, nil
	case 1:
		if len(ct.Enforcement) == 0 {
			c.SetLiteralTrue(ct.Literals[0])
			c.Report.Increment("exactly_one: unit propagated")
			RemoveConstraint(ct)
			return true, nil
		}
	}
	return changed, nil
}

// presolveBoolXor folds fixed literals out of the list, since bool_xor(l1..
// ln) holds iff an odd number of the literals are true. A literal fixed
// false drops out with no further effect. A literal fixed true also drops
// out, but flips the required parity of whatever remains; since the
// CKBoolXor shape has no separate target-parity field, that flip is
// absorbed by negating one surviving literal in place (xor(..., l) ==
// xor(..., not l) with the opposite target parity, so negating a literal
// and leaving the odd-parity semantics unchanged is an equivalent rewrite).
func presolveBoolXor(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	changed := false
	flipPending := false
	var kept []Literal
	for _, l := range ct.Literals {
		if c.LiteralIsTrue(l) {
			flipPending = !flipPending
			changed = true
			continue
		}
		if c.LiteralIsFalse(l) {
			changed = true
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		// Every literal is fixed: the dropped true literals alone decide the
		// parity. An odd count satisfies the xor outright; an even one can
		// never reach odd parity again.
		if flipPending {
			c.Report.Increment("bool_xor: removed, satisfied by fixed literals")
			RemoveConstraint(ct)
			return true, nil
		}
		if len(ct.Enforcement) == 0 {
			return changed, Infeasiblef("bool_xor constraint %d: parity cannot be satisfied", ctIdx)
		}
		MarkFalse(c, ct)
		return true, nil
	}
	if flipPending {
		kept[0] = kept[0].Negated()
	}
	if len(kept) != len(ct.Literals) {
		ct.Literals = kept
		changed = true
	}
	if len(ct.Literals) == 1 && len(ct.Enforcement) == 0 {
		c.SetLiteralTrue(ct.Literals[0])
		c.Report.Increment("bool_xor: resolved to unit literal")
		RemoveConstraint(ct)
		return true, nil
	}
	return changed, nil
}
