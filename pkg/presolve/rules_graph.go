package presolve

import "sort"

// This file implements the circuit/routes rewriters: Arcs
// select a Hamiltonian circuit (circuit) or a set of vehicle routes anchored
// at node 0 (routes) over NumNodes nodes. Both share the same per-node
// degree invariant — exactly one selected outgoing arc and exactly one
// selected incoming arc per non-depot node — so propagation is unit
// propagation over that invariant: a node with only one viable arc left on a
// side must take it, a node with a fixed-true arc on a side forces every
// other arc on that side false, and a side down to exactly two undecided
// arcs ties them together as an exactly-one (one is the other's negation).
// Circuit additionally closes a forced sub-circuit: once a set of fixed-true
// arcs forms a cycle, that cycle IS the circuit, so every node outside it
// takes its self-loop and every other arc goes false.

func presolveArcDegrees(c *Context, ctIdx int, arcs []ArcRef, numNodes int, depotExempt bool) (bool, error) {
	outArcs := make(map[int][]int) // node -> arc indices with Tail == node
	inArcs := make(map[int][]int)
	for i, a := range arcs {
		outArcs[a.Tail] = append(outArcs[a.Tail], i)
		inArcs[a.Head] = append(inArcs[a.Head], i)
	}

	changed := false
	apply := func(group []int) (bool, error) {
		var viable []int
		fixedTrue := -1
		for _, i := range group {
			lit := arcs[i].Lit
			if c.LiteralIsFalse(lit) {
				continue
			}
			viable = append(viable, i)
			if c.LiteralIsTrue(lit) {
				fixedTrue = i
			}
		}
		if fixedTrue >= 0 {
			for _, i := range viable {
				if i == fixedTrue {
					continue
				}
				alreadyFalse := c.LiteralIsFalse(arcs[i].Lit)
				if !c.SetLiteralFalse(arcs[i].Lit) {
					return changed, Infeasiblef("graph constraint %d: conflicting arc selection at a node", ctIdx)
				}
				if !alreadyFalse {
					changed = true
				}
			}
			return changed, nil
		}
		switch len(viable) {
		case 0:
			return changed, Infeasiblef("graph constraint %d: a node has no viable arc on one side", ctIdx)
		case 1:
			alreadyTrue := c.LiteralIsTrue(arcs[viable[0]].Lit)
			if !c.SetLiteralTrue(arcs[viable[0]].Lit) {
				return changed, Infeasiblef("graph constraint %d: forced arc conflicts with its own domain", ctIdx)
			}
			if !alreadyTrue {
				changed = true
			}
		case 2:
			// Exactly one of the two undecided arcs is taken, so the pair is
			// a Boolean equality: one literal is the other's negation.
			l0, l1 := arcs[viable[0]].Lit, arcs[viable[1]].Lit
			if l0.Var() == l1.Var() {
				break
			}
			r0, _, _ := c.Affine.RepresentativeOf(l0.Var())
			r1, _, _ := c.Affine.RepresentativeOf(l1.Var())
			if r0 == r1 {
				break
			}
			if !c.StoreBooleanEquality(l0, l1.Negated()) {
				return changed, Infeasiblef("graph constraint %d: two-arc node equality contradicts existing relations", ctIdx)
			}
			c.Report.Increment("graph: tied a two-arc node side into an equality")
			changed = true
		}
		return changed, nil
	}

	for node := 0; node < numNodes; node++ {
		if depotExempt && node == 0 {
			continue
		}
		if _, err := apply(outArcs[node]); err != nil {
			return changed, err
		}
		if _, err := apply(inArcs[node]); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// closeForcedSubcircuit fires once the fixed-true non-self arcs close into a
// cycle: that cycle is the whole circuit, so every node outside it must be
// skipped (its self-loop forced true; no self-loop means no way to skip, a
// contradiction) and every remaining non-cycle arc is forced false.
func closeForcedSubcircuit(c *Context, ctIdx int, ct *Constraint) (bool, error) {
	next := make(map[int]int)
	for _, a := range ct.Arcs {
		if a.Tail == a.Head || !c.LiteralIsTrue(a.Lit) {
			continue
		}
		if prev, dup := next[a.Tail]; dup && prev != a.Head {
			return false, Infeasiblef("circuit constraint %d: node %d has two outgoing arcs forced true", ctIdx, a.Tail)
		}
		next[a.Tail] = a.Head
	}
	if len(next) == 0 {
		return false, nil
	}

	tails := make([]int, 0, len(next))
	for tail := range next {
		tails = append(tails, tail)
	}
	sort.Ints(tails)

	var inCycle map[int]bool
	for _, start := range tails {
		onPath := map[int]bool{}
		cur := start
		for {
			onPath[cur] = true
			nxt, ok := next[cur]
			if !ok || onPath[nxt] {
				if ok && nxt == start {
					inCycle = onPath
				}
				break
			}
			cur = nxt
		}
		if inCycle != nil {
			break
		}
	}
	if inCycle == nil {
		return false, nil
	}

	changed := false
	selfArc := make(map[int]int)
	for i, a := range ct.Arcs {
		if a.Tail == a.Head {
			selfArc[a.Tail] = i
			continue
		}
		if inCycle[a.Tail] && inCycle[a.Head] && next[a.Tail] == a.Head {
			continue // the cycle arc itself (or an already-false parallel twin)
		}
		if c.LiteralIsFalse(a.Lit) {
			continue
		}
		if !c.SetLiteralFalse(a.Lit) {
			return changed, Infeasiblef("circuit constraint %d: arc outside the forced circuit cannot be dropped", ctIdx)
		}
		changed = true
	}
	for node := 0; node < ct.NumNodes; node++ {
		idx, hasSelf := selfArc[node]
		if inCycle[node] {
			if hasSelf && !c.LiteralIsFalse(ct.Arcs[idx].Lit) {
				if !c.SetLiteralFalse(ct.Arcs[idx].Lit) {
					return changed, Infeasiblef("circuit constraint %d: node %d is on the circuit but its self-loop cannot be dropped", ctIdx, node)
				}
				changed = true
			}
			continue
		}
		if !hasSelf {
			return changed, Infeasiblef("circuit constraint %d: node %d is outside the forced circuit and has no self-loop", ctIdx, node)
		}
		if !c.LiteralIsTrue(ct.Arcs[idx].Lit) {
			if !c.SetLiteralTrue(ct.Arcs[idx].Lit) {
				return changed, Infeasiblef("circuit constraint %d: node %d cannot take its self-loop", ctIdx, node)
			}
			changed = true
		}
	}
	if changed {
		c.Report.Increment("circuit: closed a forced sub-circuit")
	}
	return changed, nil
}

func PresolveCircuit(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKCircuit {
		return false, nil
	}
	// Arc fixing narrows literal domains, which an enforced constraint may
	// not do.
	if len(ct.Enforcement) != 0 {
		return false, nil
	}
	changed, err := presolveArcDegrees(c, ctIdx, ct.Arcs, ct.NumNodes, false)
	if err != nil {
		return changed, err
	}
	n, err := closeForcedSubcircuit(c, ctIdx, ct)
	return changed || n, err
}

func PresolveRoutes(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKRoutes {
		return false, nil
	}
	if len(ct.Enforcement) != 0 {
		return false, nil
	}
	// Node 0 is the depot: it may carry more than one selected arc per side
	// (one per vehicle), so none of the per-side degree rules apply there.
	return presolveArcDegrees(c, ctIdx, ct.Arcs, ct.NumNodes, true)
}
