package presolve

import "github.com/gitrdm/gokanlogic-presolve/pkg/sat"

// toSatLit/fromSatLit translate between this package's signed-reference
// Literal and pkg/sat's DIMACS-style Lit, so the Boolean skeleton handed to
// the prober shares variable indices with the working model directly.
func toSatLit(l Literal) sat.Lit {
	if l.IsPositive() {
		return sat.PosLit(int(l.Var()))
	}
	return sat.NegLit(int(l.Var()))
}

func fromSatLit(l sat.Lit) Literal {
	v := VarID(l.Var())
	if l.IsPositive() {
		return LitFromVar(v)
	}
	return LitFromVar(v).Negated()
}

// buildBooleanSkeleton extracts the SAT-level Boolean subproblem — the
// working model's bool-family constraints and fixed 0/1 variables — into a
// prober, and returns it alongside the distinct literals worth probing. An enforced bool_or/at_most_one/exactly_one/bool_and constraint
// translates to a clause carrying its negated enforcement literals, since
// `E => body` is exactly the clause (not e1 or ... or body...).
func buildBooleanSkeleton(c *Context) (*sat.Prober, []sat.Lit, error) {
	p := sat.NewProber(len(c.Model.Variables))
	seen := map[sat.Lit]bool{}
	var candidates []sat.Lit
	addCandidate := func(l sat.Lit) {
		if !seen[l] {
			seen[l] = true
			candidates = append(candidates, l)
		}
	}

	for _, v := range c.Model.Variables {
		if v.Status == StatusRemoved {
			continue
		}
		if v.Domain.IsFixed() && v.Domain.IsSubsetOf(NewDomain(0, 1)) {
			lit := sat.PosLit(int(v.ID))
			if v.Domain.FixedValue() == 0 {
				lit = sat.NegLit(int(v.ID))
			}
			if err := p.AddClause(lit); err != nil {
				return nil, nil, Infeasiblef("boolean skeleton: %v", err)
			}
		}
	}

	for _, ct := range c.Model.Constraints {
		if ct.Removed() {
			continue
		}
		prefix := make([]sat.Lit, 0, len(ct.Enforcement))
		for _, e := range ct.Enforcement {
			prefix = append(prefix, toSatLit(e.Negated()))
		}
		switch ct.Kind {
		case CKBoolOr:
			clause := append(append([]sat.Lit{}, prefix...), litsToSat(ct.Literals)...)
			if len(clause) > 0 {
				if err := p.AddClause(clause...); err != nil {
					return nil, nil, Infeasiblef("boolean skeleton: %v", err)
				}
			}
			for _, l := range ct.Literals {
				addCandidate(toSatLit(l))
			}
		case CKBoolAnd:
			for _, l := range ct.Literals {
				clause := append(append([]sat.Lit{}, prefix...), toSatLit(l))
				if err := p.AddClause(clause...); err != nil {
					return nil, nil, Infeasiblef("boolean skeleton: %v", err)
				}
				addCandidate(toSatLit(l))
			}
		case CKAtMostOne, CKExactlyOne:
			for i := 0; i < len(ct.Literals); i++ {
				for j := i + 1; j < len(ct.Literals); j++ {
					clause := append(append([]sat.Lit{}, prefix...), toSatLit(ct.Literals[i].Negated()), toSatLit(ct.Literals[j].Negated()))
					if err := p.AddClause(clause...); err != nil {
						return nil, nil, Infeasiblef("boolean skeleton: %v", err)
					}
				}
			}
			if ct.Kind == CKExactlyOne && len(ct.Literals) > 0 {
				clause := append(append([]sat.Lit{}, prefix...), litsToSat(ct.Literals)...)
				if err := p.AddClause(clause...); err != nil {
					return nil, nil, Infeasiblef("boolean skeleton: %v", err)
				}
			}
			for _, l := range ct.Literals {
				addCandidate(toSatLit(l))
			}
		}
		for _, e := range ct.Enforcement {
			addCandidate(toSatLit(e))
		}
	}
	return p, candidates, nil
}

func litsToSat(lits []Literal) []sat.Lit {
	out := make([]sat.Lit, len(lits))
	for i, l := range lits {
		out[i] = toSatLit(l)
	}
	return out
}

// ProbeLiterals runs failed-literal probing over the model's Boolean
// skeleton and applies whatever it derives back onto the working model:
// literals forced true or false are fixed via SetLiteralTrue, and literals
// in the same equivalence class are tied together with an affine relation.
// Domain reduction and clause simplification are left to the rewriters,
// which already run to a fixed point over the narrowed domains this
// produces. Returns the number of literals fixed or tied by equivalence.
func ProbeLiterals(c *Context) (int, error) {
	prober, candidates, err := buildBooleanSkeleton(c)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	result, err := prober.Probe(candidates)
	if err != nil {
		return 0, Infeasiblef("probing: %v", err)
	}

	changes := 0
	for _, l := range result.Fixed {
		lit := fromSatLit(l)
		if c.LiteralIsTrue(lit) {
			continue
		}
		if !c.SetLiteralTrue(lit) {
			return changes, Infeasiblef("probing derived a literal that contradicts the current domain")
		}
		changes++
	}

	for _, class := range result.Classes {
		if len(class) < 2 {
			continue
		}
		rep := fromSatLit(class[0])
		for _, other := range class[1:] {
			lit := fromSatLit(other)
			if lit.Var() == rep.Var() {
				continue
			}
			// Probing rediscovers the same classes on every sweep; a pair
			// already sharing an affine representative is old news, not a
			// change (re-storing it would also grow the mapping stream).
			repRoot, _, _ := c.Affine.RepresentativeOf(rep.Var())
			litRoot, _, _ := c.Affine.RepresentativeOf(lit.Var())
			if repRoot == litRoot {
				continue
			}
			if !c.StoreBooleanEquality(rep, lit) {
				return changes, Infeasiblef("probing derived a contradictory literal equivalence")
			}
			changes++
		}
	}

	if changes > 0 {
		c.Report.Add("probing: literal fixed or tied", int64(changes))
	}
	return changes, nil
}
