package presolve

// This file narrows the general "signature-and-watch scheme
// over a configurable work budget" inclusion detector to direct pairwise
// comparison of literal sets and term lists, and to the subset
// relationships that carry reductions: bool_or ⊂ at_most_one, bool_or ⊂
// bool_or, linear ⊂ linear (implied-constraint removal),
// at_most_one ⊂ at_most_one, plus DetectIncludedEnforcement for bool_and
// enforcement lists. A full watch-based incremental scheme only pays for
// itself at a scale this presolver's test and demonstration models never
// reach; pairwise comparison over each bucket is the same algorithm with a
// simpler, quadratic-in-bucket-size driver loop, which the analyzer
// tolerates since every comparison is itself O(set size) and every set
// comes from a bounded-size constraint body. Restricted to unenforced
// bool_or/at_most_one constraints: an enforced set's membership depends on
// its own enforcement holding, which the plain subset check below does not
// account for.

func litSet(lits []Literal) map[Literal]bool {
	set := make(map[Literal]bool, len(lits))
	for _, l := range lits {
		set[l] = true
	}
	return set
}

func isLitSubset(sub, sup map[Literal]bool) bool {
	for l := range sub {
		if !sup[l] {
			return false
		}
	}
	return true
}

// DetectInclusions scans the working model's bool_or/at_most_one families
// for subset relationships and applies the set-packing/cover reductions
// the inclusion family supports. Returns the number of constraints removed or
// rewritten.
func DetectInclusions(c *Context) (int, error) {
	var boolOrs, atMostOnes, linears []int
	for idx, ct := range c.Model.Constraints {
		if ct.Removed() || len(ct.Enforcement) != 0 {
			continue
		}
		switch ct.Kind {
		case CKBoolOr:
			boolOrs = append(boolOrs, idx)
		case CKAtMostOne:
			atMostOnes = append(atMostOnes, idx)
		case CKLinear:
			linears = append(linears, idx)
		}
	}

	changed := 0

	// bool_or ⊂ at_most_one: promote to exactly_one over the bool_or's
	// literals, fixing every at_most_one literal outside that set to false.
	for _, boIdx := range boolOrs {
		bo := c.Model.Constraints[boIdx]
		if bo.Removed() {
			continue
		}
		boSet := litSet(bo.Literals)
		for _, amoIdx := range atMostOnes {
			if c.LimitReached() {
				return changed, nil
			}
			amo := c.Model.Constraints[amoIdx]
			if amo.Removed() || len(amo.Literals) <= len(bo.Literals) {
				continue
			}
			amoSet := litSet(amo.Literals)
			if !isLitSubset(boSet, amoSet) {
				continue
			}
			for _, l := range amo.Literals {
				if boSet[l] {
					continue
				}
				if c.LiteralIsFalse(l) {
					continue
				}
				if !c.SetLiteralFalse(l) {
					return changed, Infeasiblef("inclusion: at_most_one extra literal can't be forced false")
				}
				changed++
			}
			amo.Literals = append([]Literal(nil), bo.Literals...)
			amo.Kind = CKExactlyOne
			RemoveConstraint(bo)
			c.Report.Increment("inclusion: bool_or subset promoted at_most_one to exactly_one")
			changed++
			break
		}
	}

	// bool_or ⊂ bool_or: the superset disjunction is implied by the subset
	// (if the subset's disjunction holds, so does any superset of it), so
	// the superset is redundant.
	for i := 0; i < len(boolOrs); i++ {
		a := c.Model.Constraints[boolOrs[i]]
		if a.Removed() {
			continue
		}
		aSet := litSet(a.Literals)
		for j := 0; j < len(boolOrs); j++ {
			if i == j {
				continue
			}
			if c.LimitReached() {
				return changed, nil
			}
			b := c.Model.Constraints[boolOrs[j]]
			if b.Removed() || len(b.Literals) <= len(a.Literals) {
				continue
			}
			bSet := litSet(b.Literals)
			if isLitSubset(aSet, bSet) {
				RemoveConstraint(b)
				c.Report.Increment("inclusion: dropped bool_or superset")
				changed++
			}
		}
	}

	// at_most_one ⊂ at_most_one: at most one of a larger set holding true
	// implies at most one of any subset holding true, so the subset
	// constraint is redundant.
	for i := 0; i < len(atMostOnes); i++ {
		a := c.Model.Constraints[atMostOnes[i]]
		if a.Removed() {
			continue
		}
		aSet := litSet(a.Literals)
		for j := 0; j < len(atMostOnes); j++ {
			if i == j {
				continue
			}
			if c.LimitReached() {
				return changed, nil
			}
			b := c.Model.Constraints[atMostOnes[j]]
			if b.Removed() || len(b.Literals) >= len(a.Literals) {
				continue
			}
			bSet := litSet(b.Literals)
			if isLitSubset(bSet, aSet) {
				RemoveConstraint(b)
				c.Report.Increment("inclusion: dropped redundant at_most_one subset")
				changed++
			}
		}
	}

	// Linear ⊂ linear: a constraint whose terms contain another linear
	// constraint's terms, coefficient for coefficient, is implied by it
	// whenever the contained constraint's rhs plus the extra terms' whole
	// activity range still lands inside the container's rhs.
	for _, ai := range linears {
		a := c.Model.Constraints[ai]
		if a.Removed() {
			continue
		}
		for _, bi := range linears {
			if ai == bi {
				continue
			}
			if c.LimitReached() {
				return changed, nil
			}
			b := c.Model.Constraints[bi]
			if b.Removed() || len(b.Linear.Vars) <= len(a.Linear.Vars) {
				continue
			}
			extra, ok := linearExtraActivity(c, a.Linear, b.Linear)
			if !ok {
				continue
			}
			if a.Rhs.Add(extra).IsSubsetOf(b.Rhs) {
				c.removeConstraintIncidence(bi, b)
				RemoveConstraint(b)
				c.Report.Increment("inclusion: dropped linear constraint implied by a contained one")
				changed++
			}
		}
	}

	return changed, nil
}

// linearExtraActivity reports the activity range of the terms sub lacks
// relative to super (offset difference included), provided every one of
// sub's terms appears in super with the same coefficient. Both expressions
// are canonical, so a single merge walk over the sorted variable lists
// suffices.
func linearExtraActivity(c *Context, sub, super LinearExpr) (Domain, bool) {
	lo := satSub(super.Offset, sub.Offset)
	hi := lo
	si := 0
	for i, v := range super.Vars {
		if si < len(sub.Vars) && sub.Vars[si] == v {
			if sub.Coeffs[si] != super.Coeffs[i] {
				return Domain{}, false
			}
			si++
			continue
		}
		coeff := super.Coeffs[i]
		d := c.Model.Var(v).Domain
		a, b := satMul(d.Min(), coeff), satMul(d.Max(), coeff)
		if a > b {
			a, b = b, a
		}
		lo, hi = satAdd(lo, a), satAdd(hi, b)
	}
	if si != len(sub.Vars) {
		return Domain{}, false
	}
	if Saturated(lo) || Saturated(hi) {
		return Domain{}, false
	}
	return NewDomain(lo, hi), true
}

// DetectIncludedEnforcement implements the enforcement-list
// inclusion rule for bool_and pairs: if A's enforcement is a superset of
// B's, A's condition firing implies B's (smaller) condition also fires, so
// B's body already holds whenever A's does — any of A's literals that also
// appear in B's body are therefore redundant and can be dropped from A.
func DetectIncludedEnforcement(c *Context) (int, error) {
	var bucket []int
	for idx, ct := range c.Model.Constraints {
		if !ct.Removed() && ct.Kind == CKBoolAnd && len(ct.Enforcement) > 0 {
			bucket = append(bucket, idx)
		}
	}

	changed := 0
	for i := 0; i < len(bucket); i++ {
		a := c.Model.Constraints[bucket[i]]
		if a.Removed() {
			continue
		}
		aEnf := litSet(a.Enforcement)
		for j := 0; j < len(bucket); j++ {
			if i == j {
				continue
			}
			if c.LimitReached() {
				return changed, nil
			}
			b := c.Model.Constraints[bucket[j]]
			if b.Removed() || len(b.Enforcement) >= len(a.Enforcement) {
				continue
			}
			bEnf := litSet(b.Enforcement)
			if !isLitSubset(bEnf, aEnf) {
				continue
			}
			bBody := litSet(b.Literals)
			var kept []Literal
			stripped := false
			for _, l := range a.Literals {
				if bBody[l] {
					stripped = true
					continue
				}
				kept = append(kept, l)
			}
			if !stripped {
				continue
			}
			a.Literals = kept
			if len(a.Literals) == 0 {
				RemoveConstraint(a)
			}
			c.Report.Increment("inclusion: reduced bool_and body via included enforcement")
			changed++
		}
	}
	return changed, nil
}
