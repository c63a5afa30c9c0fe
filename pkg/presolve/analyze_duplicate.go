package presolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gitrdm/gokanlogic-presolve/pkg/sat"
)

// dupKey is a shape fingerprint: constraint kind plus sorted variables and
// coefficients, excluding enforcement and rhs.
type dupKey struct {
	kind ConstraintKind
	body string
}

// fingerprint returns a dupKey for constraint kinds this analyzer knows how
// to compare bodies for. Other kinds are skipped entirely (no false
// merges), a deliberate narrowing to the two families duplicate constraints
// are most likely to appear in after copying and single-constraint
// rewriting: linear equalities/inequalities and bool-family disjunctions.
func fingerprint(ct *Constraint) (dupKey, bool) {
	switch ct.Kind {
	case CKLinear:
		return dupKey{kind: ct.Kind, body: linearBodyKey(ct.Linear)}, true
	case CKBoolOr, CKBoolAnd, CKAtMostOne, CKExactlyOne, CKBoolXor:
		return dupKey{kind: ct.Kind, body: literalsBodyKey(ct.Literals)}, true
	default:
		return dupKey{}, false
	}
}

func linearBodyKey(e LinearExpr) string {
	var sb strings.Builder
	for i, v := range e.Vars {
		fmt.Fprintf(&sb, "%d:%d,", v, e.Coeffs[i])
	}
	fmt.Fprintf(&sb, "+%d", e.Offset)
	return sb.String()
}

func literalsBodyKey(lits []Literal) string {
	sorted := append([]Literal(nil), lits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var sb strings.Builder
	for _, l := range sorted {
		fmt.Fprintf(&sb, "%d,", l)
	}
	return sb.String()
}

func enforcementEqual(a, b Enforcement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// enforcementImplies reports whether assuming every literal of from true
// forces every literal of to true, via the implication graph. Restricted to
// singleton enforcement lists: the graph only captures single-literal
// implications, so a conjunction of more than one assumption can't be
// checked without extending pkg/sat's Assume to accept a literal set, which
// this analyzer's narrow need does not justify.
func enforcementImplies(graph *sat.Graph, from, to Enforcement) bool {
	if len(from) != 1 || len(to) != 1 {
		return false
	}
	f, t := toSatLit(from[0]), toSatLit(to[0])
	if f == t {
		return true
	}
	return graph.Reachable(f)[t]
}

// DeduplicateConstraints hash-groups constraints by fingerprint and
// pairwise-compares within each bucket. Equal-body,
// equal-enforcement, equal-rhs pairs have the later one removed;
// equal-body, equal-enforcement pairs that differ only in rhs have their
// rhs intersected (infeasible if that empties it). Equal-body pairs with
// different enforcement are handed to mergeDifferentEnforcement. Returns
// the number of constraints removed or merged.
func DeduplicateConstraints(c *Context) (int, error) {
	prober, _, err := buildBooleanSkeleton(c)
	if err != nil {
		return 0, err
	}
	graph := prober.ImplicationGraph()

	buckets := map[dupKey][]int{}
	for idx, ct := range c.Model.Constraints {
		if ct.Removed() {
			continue
		}
		if key, ok := fingerprint(ct); ok {
			buckets[key] = append(buckets[key], idx)
		}
	}

	keys := make([]dupKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].body < keys[j].body
	})

	changed := 0
	for _, key := range keys {
		idxs := buckets[key]
		for i := 0; i < len(idxs); i++ {
			a := c.Model.Constraints[idxs[i]]
			if a.Removed() {
				continue
			}
			for j := i + 1; j < len(idxs); j++ {
				b := c.Model.Constraints[idxs[j]]
				if b.Removed() {
					continue
				}
				if c.LimitReached() {
					return changed, nil
				}

				if !enforcementEqual(a.Enforcement, b.Enforcement) {
					merged, err := mergeDifferentEnforcement(c, graph, a, b)
					if err != nil {
						return changed, err
					}
					if merged {
						changed++
					}
					continue
				}

				if a.Kind == CKLinear {
					if a.Rhs.Equal(b.Rhs) {
						RemoveConstraint(b)
						c.Report.Increment("duplicate: removed constraint")
						changed++
						continue
					}
					newRhs := a.Rhs.Intersect(b.Rhs)
					if newRhs.IsEmpty() {
						MarkFalse(c, a)
						if c.Infeasible() {
							return changed, Infeasiblef("duplicate linear constraints are jointly infeasible")
						}
						RemoveConstraint(b)
						changed += 2
						continue
					}
					a.Rhs = newRhs
					RemoveConstraint(b)
					c.Report.Increment("duplicate: intersected rhs")
					changed++
					continue
				}

				// Bool-family: identical body and enforcement means fully
				// redundant regardless of rhs (bool constraints carry none).
				RemoveConstraint(b)
				c.Report.Increment("duplicate: removed constraint")
				changed++
			}
		}
	}
	return changed, nil
}

// mergeDifferentEnforcement is the second detection pass:
// same-body constraints whose enforcement lists differ. If the enforcements
// are each other's negation and both are singletons, the body becomes
// unconditional. Otherwise, if one enforcement implies the other, the
// implied (weaker-condition, more-frequently-active) constraint subsumes the
// stronger one, which is removed.
func mergeDifferentEnforcement(c *Context, graph *sat.Graph, a, b *Constraint) (bool, error) {
	if len(a.Enforcement) == 1 && len(b.Enforcement) == 1 && a.Enforcement[0] == b.Enforcement[0].Negated() {
		a.Enforcement = nil
		RemoveConstraint(b)
		c.Report.Increment("duplicate: merged opposite enforcements into unconditional constraint")
		return true, nil
	}
	if enforcementImplies(graph, a.Enforcement, b.Enforcement) {
		RemoveConstraint(a)
		c.Report.Increment("duplicate: removed constraint implied by a broader enforcement")
		return true, nil
	}
	if enforcementImplies(graph, b.Enforcement, a.Enforcement) {
		RemoveConstraint(b)
		c.Report.Increment("duplicate: removed constraint implied by a broader enforcement")
		return true, nil
	}
	return false, nil
}
