package presolve

// ExtractEncodings implements encoding extraction: a linear equality whose
// Boolean variables exactly match an exactly_one constraint's literals, and
// whose one remaining non-Boolean variable has |coeff|=1, is a disjoint
// value-literal map — each exactly_one literal being true pins the
// non-Boolean variable to a specific value. The analyzer materializes that
// correspondence via Context.GetOrCreateVarValueEncoding and
// Context.StoreBooleanEquality, then removes the now-redundant linear
// equality.
//
// Restricted to an exact literal-set match against an exactly_one (rather
// than a subset of any at-most-one): exactly_one's guarantee
// that precisely one literal holds is what makes the per-literal value
// assignment total and safe to materialize; a bare subset (or a plain
// at-most-one, which allows the all-false case) would leave some branches
// without a defined value for the non-Boolean variable.
func ExtractEncodings(c *Context) (int, error) {
	var oneOfs []int
	for idx, ct := range c.Model.Constraints {
		if !ct.Removed() && ct.Kind == CKExactlyOne && len(ct.Enforcement) == 0 {
			oneOfs = append(oneOfs, idx)
		}
	}
	if len(oneOfs) == 0 {
		return 0, nil
	}

	changed := 0
	for _, ct := range c.Model.Constraints {
		if ct.Removed() || ct.Kind != CKLinear || len(ct.Enforcement) != 0 {
			continue
		}
		if !ct.Rhs.IsFixed() {
			continue
		}
		if c.LimitReached() {
			return changed, nil
		}

		nonBoolIdx := -1
		multipleNonBool := false
		for i, v := range ct.Linear.Vars {
			if isBooleanVar(c, v) {
				continue
			}
			if nonBoolIdx >= 0 {
				multipleNonBool = true
				break
			}
			nonBoolIdx = i
		}
		if nonBoolIdx < 0 || multipleNonBool {
			continue
		}
		vCoeff := ct.Linear.Coeffs[nonBoolIdx]
		if vCoeff != 1 && vCoeff != -1 {
			continue
		}
		v := ct.Linear.Vars[nonBoolIdx]

		boolCoeffOf := map[VarID]int64{}
		for i, bv := range ct.Linear.Vars {
			if i == nonBoolIdx {
				continue
			}
			boolCoeffOf[bv] = ct.Linear.Coeffs[i]
		}
		if len(boolCoeffOf) == 0 {
			continue
		}

		for _, ooIdx := range oneOfs {
			oo := c.Model.Constraints[ooIdx]
			if oo.Removed() || len(oo.Literals) != len(boolCoeffOf) {
				continue
			}
			matched := true
			for _, l := range oo.Literals {
				if !l.IsPositive() {
					matched = false
					break
				}
				if _, ok := boolCoeffOf[l.Var()]; !ok {
					matched = false
					break
				}
			}
			if !matched {
				continue
			}

			target := ct.Rhs.FixedValue()
			k := satSub(target, ct.Linear.Offset)
			for _, l := range oo.Literals {
				coeff := boolCoeffOf[l.Var()]
				val := satMul(vCoeff, satSub(k, coeff))
				enc := c.GetOrCreateVarValueEncoding(v, val)
				if !c.StoreBooleanEquality(l, enc) {
					return changed, Infeasiblef("encoding: literal %d can't be tied to value %d of variable %d", l, val, v)
				}
			}
			RemoveConstraint(ct)
			c.Report.Increment("encoding: materialized value-literal map")
			changed++
			break
		}
	}
	return changed, nil
}
