// Package sat is a small black-box collaborator for presolve's probing,
// duplicate and clique-merging analyses: a real (if deliberately narrow) DPLL-style
// unit-propagation engine over the Boolean skeleton of a model, plus the
// binary-implication graph it builds along the way. It is not a general
// CDCL solver; it exists to answer "what does assuming this literal force"
// and "which literals are provably equivalent", not to solve arbitrary CNF.
package sat

import "errors"

// ErrTopLevelConflict is returned when unit propagation derives both a
// literal and its negation at the top level, meaning the clause database
// itself is contradictory.
var ErrTopLevelConflict = errors.New("sat: top-level contradiction during propagation")

// Clause is a disjunction of literals, reduced to exactly what unit
// propagation needs.
type Clause []Lit

// Prober holds a growing clause database over a fixed number of Boolean
// variables and answers propagation queries against it. Clauses are added
// once up front (from a model's Boolean skeleton); Assume/Probe never
// mutate the database, only the trail of tentative assignments.
type Prober struct {
	numVars int
	clauses []Clause
	assign  []int8 // 0 unknown, 1 true, -1 false, indexed by variable
	trail   []Lit
	graph   *Graph
}

// NewProber creates a Prober over numVars Boolean variables (0..numVars-1).
func NewProber(numVars int) *Prober {
	return &Prober{
		numVars: numVars,
		assign:  make([]int8, numVars),
		graph:   NewGraph(),
	}
}

// AddClause adds a clause to the database. A unit clause is asserted
// immediately; if it conflicts with an existing top-level assignment,
// AddClause returns ErrTopLevelConflict. A two-literal clause additionally
// registers its implications in the implication graph.
func (p *Prober) AddClause(lits ...Lit) error {
	for _, l := range lits {
		if l == 0 || l.Var() < 0 || l.Var() >= p.numVars {
			return errors.New("sat: literal out of range")
		}
	}
	clause := append(Clause{}, lits...)
	p.clauses = append(p.clauses, clause)

	if len(lits) == 2 {
		p.graph.AddBinaryClause(lits[0], lits[1])
	}

	if len(lits) == 1 {
		if !p.assignTop(lits[0]) {
			return ErrTopLevelConflict
		}
		if p.unitPropagate() {
			return ErrTopLevelConflict
		}
	}
	return nil
}

// assignTop assigns l permanently (not on a probe trail), returning false if
// it conflicts with an existing assignment of the same variable.
func (p *Prober) assignTop(l Lit) bool {
	v := l.Var()
	want := int8(1)
	if !l.IsPositive() {
		want = -1
	}
	if p.assign[v] != 0 {
		return p.assign[v] == want
	}
	p.assign[v] = want
	p.trail = append(p.trail, l)
	return true
}

func (p *Prober) litValue(l Lit) int8 {
	v := p.assign[l.Var()]
	if v == 0 {
		return 0
	}
	if !l.IsPositive() {
		return -v
	}
	return v
}

// unitPropagate scans the clause database to a fixpoint, assigning any
// clause reduced to a single unassigned literal and failing on any clause
// whose literals are all assigned false. It is the same repeated-rescan
// shape as a textbook DPLL unit-propagation loop: no watched-literal
// indexing, since the clause sets this package handles are small boolean
// skeletons, not industrial CNF instances.
func (p *Prober) unitPropagate() (conflict bool) {
	for {
		progressed := false
		for _, clause := range p.clauses {
			satisfied := false
			unassignedCount := 0
			var lastUnassigned Lit
			for _, l := range clause {
				switch p.litValue(l) {
				case 1:
					satisfied = true
				case 0:
					unassignedCount++
					lastUnassigned = l
				}
			}
			if satisfied {
				continue
			}
			if unassignedCount == 0 {
				return true
			}
			if unassignedCount == 1 {
				p.assign[lastUnassigned.Var()] = litSign(lastUnassigned)
				p.trail = append(p.trail, lastUnassigned)
				progressed = true
			}
		}
		if !progressed {
			return false
		}
	}
}

func litSign(l Lit) int8 {
	if l.IsPositive() {
		return 1
	}
	return -1
}

func (p *Prober) mark() int { return len(p.trail) }

func (p *Prober) undo(to int) {
	for i := len(p.trail) - 1; i >= to; i-- {
		p.assign[p.trail[i].Var()] = 0
	}
	p.trail = p.trail[:to]
}

// Assume tentatively assigns l, propagates to a fixpoint, and reports every
// literal forced as a consequence (not including l itself) along with
// whether the assumption leads to a conflict. The database is left
// unchanged regardless of outcome.
func (p *Prober) Assume(l Lit) (forced []Lit, conflict bool) {
	start := p.mark()
	if p.litValue(l) == -1 {
		return nil, true
	}
	if p.litValue(l) == 1 {
		return nil, false
	}
	p.assign[l.Var()] = litSign(l)
	p.trail = append(p.trail, l)

	if p.unitPropagate() {
		p.undo(start)
		return nil, true
	}

	forced = append(forced, p.trail[start+1:]...)
	p.undo(start)
	return forced, false
}

// Result bundles the outputs of a probing pass: literals forced true at the
// top level as a consequence of failed-literal probing, the equivalence
// classes discovered among the candidate literals' binary implications, and
// the implication graph itself for callers (analyze_duplicate.go,
// analyze_clique.go) that want to query further reachability directly.
type Result struct {
	Fixed   []Lit
	Classes [][]Lit
	Graph   *Graph
}

// Probe runs failed-literal probing over candidates: for each literal whose
// assumption leads to a conflict, its negation is forced true at the top
// level (and propagated immediately, so later candidates see the
// consequence). It returns every literal fixed this way, the implication
// graph's equivalence classes, and the graph itself.
func (p *Prober) Probe(candidates []Lit) (*Result, error) {
	var fixed []Lit
	for _, l := range candidates {
		if p.litValue(l) != 0 {
			continue
		}
		_, conflict := p.Assume(l)
		if !conflict {
			continue
		}
		negation := l.Negate()
		if !p.assignTop(negation) {
			return nil, ErrTopLevelConflict
		}
		if p.unitPropagate() {
			return nil, ErrTopLevelConflict
		}
		fixed = append(fixed, negation)
	}
	return &Result{
		Fixed:   fixed,
		Classes: p.graph.EquivalenceClasses(),
		Graph:   p.graph,
	}, nil
}

// ImplicationGraph returns the binary-implication graph accumulated from
// every two-literal clause added so far, for callers that want to query
// reachability directly without running a full Probe pass.
func (p *Prober) ImplicationGraph() *Graph { return p.graph }

// FixedLiterals returns every literal assigned at the top level so far
// (from unit clauses and prior Probe calls), for callers that want to fold
// the result back into their own domain narrowing without re-deriving it.
func (p *Prober) FixedLiterals() []Lit {
	out := make([]Lit, len(p.trail))
	copy(out, p.trail)
	return out
}
