package presolve

// This file implements the automaton-constraint rewriter: a
// sequence AutoVars of label variables must trace a path through a DFA
// (AutoTransitions) from AutoStart to a state in AutoFinal. Propagation is a
// standard forward/backward state-reachability sweep (layered graph, one
// layer per position) that narrows each AutoVars[i] to the labels whose
// transition connects a forward-reachable state to a backward-reachable one.

func PresolveAutomaton(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() || ct.Kind != CKAutomaton {
		return false, nil
	}
	n := len(ct.AutoVars)
	if n == 0 {
		return false, nil
	}

	domains := make([]Domain, n)
	for i, v := range ct.AutoVars {
		domains[i] = c.Model.Var(v).Domain
	}

	// transitionsFrom[state] -> transitions leaving that state, for fast scans.
	byFrom := make(map[int64][]AutomatonTransition)
	for _, tr := range ct.AutoTransitions {
		byFrom[tr.From] = append(byFrom[tr.From], tr)
	}

	forward := make([]map[int64]bool, n+1)
	forward[0] = map[int64]bool{ct.AutoStart: true}
	for i := 0; i < n; i++ {
		forward[i+1] = make(map[int64]bool)
		for state := range forward[i] {
			for _, tr := range byFrom[state] {
				if domains[i].Contains(tr.Label) {
					forward[i+1][tr.To] = true
				}
			}
		}
	}

	finalSet := make(map[int64]bool, len(ct.AutoFinal))
	for _, f := range ct.AutoFinal {
		finalSet[f] = true
	}

	backward := make([]map[int64]bool, n+1)
	backward[n] = finalSet
	for i := n - 1; i >= 0; i-- {
		backward[i] = make(map[int64]bool)
		for state := range forward[i] {
			for _, tr := range byFrom[state] {
				if domains[i].Contains(tr.Label) && backward[i+1][tr.To] {
					backward[i][state] = true
				}
			}
		}
	}

	infeasible := !backward[0][ct.AutoStart]

	if len(ct.Enforcement) != 0 {
		if infeasible {
			MarkFalse(c, ct)
			return true, nil
		}
		return false, nil
	}
	if infeasible {
		return false, Infeasiblef("automaton constraint %d: no accepting path through current domains", ctIdx)
	}

	changed := false
	for i := 0; i < n; i++ {
		var allowedLabels []Interval
		for state := range forward[i] {
			if !backward[i][state] {
				continue
			}
			for _, tr := range byFrom[state] {
				if domains[i].Contains(tr.Label) && backward[i+1][tr.To] {
					allowedLabels = append(allowedLabels, Interval{Lo: tr.Label, Hi: tr.Label})
				}
			}
		}
		allowed := NewDomainFromIntervals(allowedLabels)
		if n2, ok := c.IntersectDomain(ct.AutoVars[i], allowed); !ok {
			return changed, Infeasiblef("automaton constraint %d: position %d domain emptied", ctIdx, i)
		} else if n2 {
			changed = true
		}
	}
	return changed, nil
}
