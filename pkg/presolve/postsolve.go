package presolve

import "fmt"

// Assignment is a (possibly partial) valuation of variables by ID.
type Assignment map[VarID]int64

// LiteralValue evaluates l under a: (value, true) when l's variable is
// assigned, (false-ish, false) when it is not.
func (a Assignment) LiteralValue(l Literal) (bool, bool) {
	v, ok := a[l.Var()]
	if !ok {
		return false, false
	}
	if l.IsPositive() {
		return v == 1, true
	}
	return v == 0, true
}

// PostsolveSolution reconstructs a full assignment of the original model
// from an assignment of the reduced model, by replaying the mapping stream
// last-to-first: each mapping constraint is treated as a
// constraint on the variables it mentions that are not yet pinned, and those
// variables are assigned consistent values. m supplies variable domains (the
// reduced model shares its variable list with the working model, removed
// variables included, so Result.ReducedModel is the right argument).
//
// The presolver guarantees this replay succeeds whenever the reduced-model
// assignment is feasible; an error here therefore means the input assignment
// was not actually a solution of the reduced model (or not over the right
// variables).
func PostsolveSolution(m *Model, mapping *MappingModel, reduced Assignment) (Assignment, error) {
	out := make(Assignment, len(m.Variables))
	for v, val := range reduced {
		out[v] = val
	}

	for i := len(mapping.Constraints) - 1; i >= 0; i-- {
		ct := mapping.Constraints[i]
		if err := replayMappingConstraint(m, ct, out); err != nil {
			return nil, fmt.Errorf("mapping constraint %d (%s): %w", i, ct.Kind, err)
		}
	}

	// Variables never mentioned by the reduced solution or the mapping
	// stream are unconstrained; pin them anywhere in their domain.
	for _, v := range m.Variables {
		if _, ok := out[v.ID]; !ok && !v.Domain.IsEmpty() {
			out[v.ID] = v.Domain.Min()
		}
	}
	return out, nil
}

func replayMappingConstraint(m *Model, ct *Constraint, out Assignment) error {
	// An enforced mapping entry only pins values when its enforcement holds;
	// a false or still-unpinned enforcement leaves the entry inert (the
	// value-literal encodings written by GetOrCreateVarValueEncoding rely on
	// exactly this: only the literal that is true fires).
	for _, l := range ct.Enforcement {
		truth, known := out.LiteralValue(l)
		if !known || !truth {
			return nil
		}
	}

	switch ct.Kind {
	case CKLinear:
		return replayLinear(m, ct, out)
	case CKElement:
		return replayElement(m, ct, out)
	case CKIntProd:
		return replayIntProd(ct, out)
	default:
		return fmt.Errorf("kind not expected in the mapping stream")
	}
}

func domainOf(m *Model, v VarID) Domain {
	if int(v) >= 0 && int(v) < len(m.Variables) {
		return m.Variables[v].Domain
	}
	return NewDomain(minSafe, maxSafe)
}

// replayLinear assigns the entry's unpinned variables so that the body's
// activity lands in Rhs. All but the last unpinned variable are free: the
// rules that write multi-variable entries (singleton elimination, affine
// relations, synthetic definitions) always solve for exactly one variable,
// so the others are pinned to their domain minimum first.
func replayLinear(m *Model, ct *Constraint, out Assignment) error {
	rest := ct.Linear.Offset
	var freeIdx []int
	for i, v := range ct.Linear.Vars {
		if val, ok := out[v]; ok {
			rest = satAdd(rest, satMul(ct.Linear.Coeffs[i], val))
		} else {
			freeIdx = append(freeIdx, i)
		}
	}
	if len(freeIdx) == 0 {
		return nil
	}
	for _, i := range freeIdx[:len(freeIdx)-1] {
		v := ct.Linear.Vars[i]
		d := domainOf(m, v)
		if d.IsEmpty() {
			return fmt.Errorf("variable %d has an empty domain", v)
		}
		out[v] = d.Min()
		rest = satAdd(rest, satMul(ct.Linear.Coeffs[i], d.Min()))
	}

	last := freeIdx[len(freeIdx)-1]
	v := ct.Linear.Vars[last]
	coeff := ct.Linear.Coeffs[last]
	candidates := ct.Rhs.AddConstant(satNeg(rest)).InverseMul(coeff).Intersect(domainOf(m, v))
	if candidates.IsEmpty() {
		// The entry's variable domain may have been narrowed after the entry
		// was written; fall back to the exact algebraic solution when the
		// coefficient permits one.
		if (coeff == 1 || coeff == -1) && ct.Rhs.IsFixed() {
			out[v] = (ct.Rhs.FixedValue() - rest) / coeff
			return nil
		}
		return fmt.Errorf("no value of variable %d satisfies the entry", v)
	}
	out[v] = candidates.Min()
	return nil
}

func replayElement(m *Model, ct *Constraint, out Assignment) error {
	entryValue := func(pos int64) (int64, bool) {
		if len(ct.Values) > 0 {
			if pos < 0 || pos >= int64(len(ct.Values)) {
				return 0, false
			}
			return ct.Values[pos], true
		}
		if pos < 0 || pos >= int64(len(ct.VarValues)) {
			return 0, false
		}
		val, ok := out[ct.VarValues[pos]]
		return val, ok
	}

	idxVal, idxKnown := out[ct.Index]
	targetVal, targetKnown := out[ct.Target]

	switch {
	case idxKnown && !targetKnown:
		val, ok := entryValue(idxVal)
		if !ok {
			return fmt.Errorf("index %d points outside the entry table", idxVal)
		}
		out[ct.Target] = val
	case !idxKnown:
		n := int64(len(ct.Values))
		if n == 0 {
			n = int64(len(ct.VarValues))
		}
		idxDom := domainOf(m, ct.Index)
		for pos := int64(0); pos < n; pos++ {
			if !idxDom.Contains(pos) {
				continue
			}
			val, ok := entryValue(pos)
			if !ok {
				continue
			}
			if !targetKnown {
				out[ct.Index] = pos
				out[ct.Target] = val
				return nil
			}
			if val == targetVal {
				out[ct.Index] = pos
				return nil
			}
		}
		return fmt.Errorf("no index reaches the pinned target value")
	}
	return nil
}

func replayIntProd(ct *Constraint, out Assignment) error {
	product := int64(1)
	var free []VarID
	for _, t := range ct.Terms {
		if val, ok := out[t]; ok {
			product = satMul(product, val)
		} else {
			free = append(free, t)
		}
	}
	targetVal, targetKnown := out[ct.Target]
	switch {
	case !targetKnown && len(free) == 0:
		out[ct.Target] = product
	case targetKnown && len(free) == 1:
		if product == 0 {
			return fmt.Errorf("cannot divide out a zero factor")
		}
		if targetVal%product != 0 {
			return fmt.Errorf("pinned target %d is not a multiple of the pinned factors", targetVal)
		}
		out[free[0]] = targetVal / product
	case len(free) > 0:
		return fmt.Errorf("more than one factor left unpinned")
	}
	return nil
}
