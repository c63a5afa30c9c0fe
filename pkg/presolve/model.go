package presolve

import (
	"fmt"
	"sort"
)

// VarID identifies a variable by a non-negative index into the model's
// variable list.
type VarID int

// Literal is a signed reference: r >= 0 denotes variable VarID(r), r < 0
// denotes the negation of variable VarID(-r-1). Booleans are variables whose
// Domain is exactly {0,1}; a Literal is a reference to such a variable.
type Literal int64

// Var returns the variable this literal refers to.
func (l Literal) Var() VarID {
	if l >= 0 {
		return VarID(l)
	}
	return VarID(-l - 1)
}

// IsPositive reports whether the literal refers to the variable directly
// (true) rather than its negation (false).
func (l Literal) IsPositive() bool { return l >= 0 }

// Negated returns the logical negation of the literal.
func (l Literal) Negated() Literal { return -l - 1 }

// LitFromVar builds the positive literal for v.
func LitFromVar(v VarID) Literal { return Literal(v) }

// Variable is an integer-identified decision variable carrying a Domain and
// an optional human-readable name. Lifecycle: created by the copier or
// synthesized mid-presolve; mutated by domain intersection and by promotion
// to affine-reduced/removed; never destroyed during presolve (index
// compaction happens only after the fact, outside this package's scope).
type Variable struct {
	ID     VarID
	Name   string
	Domain Domain

	// Status tracks whether the variable is still a first-class citizen of
	// the working model, has been folded into an affine relation, or has
	// been fully removed (its value now only recoverable via the mapping
	// model).
	Status VariableStatus

	// Synthetic marks a variable created by new_variable_with_definition
	// rather than present in the original input, used only for diagnostics.
	Synthetic bool
}

// VariableStatus enumerates a variable's lifecycle state.
type VariableStatus int

const (
	// StatusActive variables are representatives that still appear directly
	// in the working model.
	StatusActive VariableStatus = iota
	// StatusAffineReduced variables have exactly one outstanding relation
	// x = a*rep + b and no longer appear in any working-model constraint.
	StatusAffineReduced
	// StatusRemoved variables have been fixed or eliminated entirely; their
	// value is reconstructed purely from the mapping model at postsolve.
	StatusRemoved
)

// IsBoolean reports whether the variable's domain is exactly {0,1} (or a
// subset/fixed point of it), i.e. whether it can be treated as a Literal.
func (v *Variable) IsBoolean() bool {
	return v.Domain.IsSubsetOf(NewDomain(0, 1))
}

// ConstraintKind enumerates the fixed set of constraint kinds the presolver
// understands
type ConstraintKind int

const (
	CKLinear ConstraintKind = iota
	CKBoolOr
	CKBoolAnd
	CKAtMostOne
	CKExactlyOne
	CKBoolXor
	CKIntProd
	CKIntDiv
	CKIntMod
	CKElement
	CKTable
	CKAutomaton
	CKInterval
	CKNoOverlap
	CKNoOverlap2D
	CKCumulative
	CKCircuit
	CKRoutes
	CKReservoir
	CKAllDifferent
	CKInverse
)

func (k ConstraintKind) String() string {
	names := [...]string{
		"linear", "bool_or", "bool_and", "at_most_one", "exactly_one", "bool_xor",
		"int_prod", "int_div", "int_mod", "element", "table", "automaton",
		"interval", "no_overlap", "no_overlap_2d", "cumulative", "circuit",
		"routes", "reservoir", "all_different", "inverse",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return names[k]
}

// LinearExpr is {vars, coeffs, offset} with value offset + sum(coeffs[i] *
// vars[i]). Canonical form (used for any constraint body) requires: positive
// refs only, no zero coefficients, vars sorted, gcd-reduced with positive
// leading coefficient.
type LinearExpr struct {
	Vars   []VarID
	Coeffs []int64
	Offset int64
}

// Clone returns a deep copy of the expression.
func (e LinearExpr) Clone() LinearExpr {
	return LinearExpr{
		Vars:   append([]VarID(nil), e.Vars...),
		Coeffs: append([]int64(nil), e.Coeffs...),
		Offset: e.Offset,
	}
}

// Canonicalize sorts terms by VarID, merges duplicate variables by summing
// coefficients, and drops zero-coefficient terms. If rhs is non-nil the
// expression is the body of `e in *rhs`: the offset is moved into *rhs, and
// the coefficients and *rhs are divided by the gcd of the coefficients,
// negated if needed so the leading coefficient is positive (*rhs keeps only
// the values that divide exactly). With a nil rhs (an objective) no scaling
// or sign change is applied. Adjusts *rhs in place and returns the gcd
// divided by (1 when rhs is nil).
func (e *LinearExpr) Canonicalize(rhs *Domain) int64 {
	type term struct {
		v VarID
		c int64
	}
	byVar := make(map[VarID]int64, len(e.Vars))
	order := make([]VarID, 0, len(e.Vars))
	for i, v := range e.Vars {
		if _, seen := byVar[v]; !seen {
			order = append(order, v)
		}
		byVar[v] += e.Coeffs[i]
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	terms := make([]term, 0, len(order))
	for _, v := range order {
		if c := byVar[v]; c != 0 {
			terms = append(terms, term{v: v, c: c})
		}
	}

	g := int64(0)
	for _, t := range terms {
		g = GCD(g, t.c)
	}
	if g == 0 || rhs == nil {
		g = 1
	}
	neg := false
	if rhs != nil && len(terms) > 0 && terms[0].c < 0 {
		neg = true
	}

	vars := make([]VarID, len(terms))
	coeffs := make([]int64, len(terms))
	for i, t := range terms {
		c := t.c / g
		if neg {
			c = -c
		}
		vars[i] = t.v
		coeffs[i] = c
	}
	e.Vars = vars
	e.Coeffs = coeffs
	divisor := g
	if neg {
		divisor = -g
	}
	if rhs != nil {
		// offset + divisor*body in rhs  <=>  body in (rhs - offset)/divisor.
		*rhs = rhs.AddConstant(-e.Offset).InverseMul(divisor)
		e.Offset = 0
	}
	return g
}

// ActivityBounds returns [min, max] of the expression's value given each
// variable's current domain, computed with saturating arithmetic.
func (e LinearExpr) ActivityBounds(domainOf func(VarID) Domain) (lo, hi int64) {
	lo, hi = e.Offset, e.Offset
	for i, v := range e.Vars {
		c := e.Coeffs[i]
		d := domainOf(v)
		if d.IsEmpty() {
			return 1, 0 // empty range signals infeasible activity
		}
		var termLo, termHi int64
		a, b := satMul(d.Min(), c), satMul(d.Max(), c)
		if a < b {
			termLo, termHi = a, b
		} else {
			termLo, termHi = b, a
		}
		lo = satAdd(lo, termLo)
		hi = satAdd(hi, termHi)
	}
	return lo, hi
}

// Enforcement is a conjunction of literals under which a constraint holds:
// the constraint must be true iff all enforcement literals are true.
type Enforcement []Literal

// Normalize deduplicates literals and reports whether the enforcement list is
// self-contradictory (a literal and its negation both present, which
// forces the constraint unenforced).
func (e Enforcement) Normalize() (Enforcement, bool) {
	seen := make(map[Literal]bool, len(e))
	var out []Literal
	for _, l := range e {
		if seen[l] {
			continue
		}
		if seen[l.Negated()] {
			return nil, true
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, false
}

// Constraint is a tagged record {kind, enforcement, body}. The body's
// concrete shape depends on Kind; only the fields relevant to that kind are
// populated. This mirrors the "tagged variant with exhaustive dispatch and
// no inheritance" design note.
type Constraint struct {
	Kind        ConstraintKind
	Enforcement Enforcement

	// Linear body (CKLinear).
	Linear LinearExpr
	Rhs    Domain

	// Boolean-family body (CKBoolOr/And/AtMostOne/ExactlyOne/BoolXor): a
	// flat list of literals.
	Literals []Literal

	// IntProd/IntDiv/IntMod body: Target = f(Vars...).
	Target VarID
	Terms  []VarID // factors for int_prod, [numerator, denominator] for int_div, [a, modulus] for int_mod

	// Element body.
	Index  VarID
	Values []int64 // fixed-value table; empty when VarValues is used
	VarValues []VarID // variable-value table (array of variables rather than constants)

	// Table body.
	TableVars   []VarID
	TableTuples [][]int64

	// Automaton body.
	AutoVars        []VarID
	AutoStart       int64
	AutoFinal       []int64
	AutoTransitions []AutomatonTransition

	// Interval body.
	Start, Size, End VarID
	IsOptional       bool
	Presence         Literal

	// Scheduling-family bodies reference intervals by index into Intervals.
	Intervals []IntervalRef
	Demands   []VarID // cumulative
	Capacity  VarID   // cumulative
	X1, Y1    []IntervalRef // no_overlap_2d: X1/Y1 box axes (Intervals unused in that case)

	// Circuit/routes body.
	Arcs     []ArcRef
	NumNodes int

	// Reservoir body.
	Times  []VarID
	Levels []int64
	MinLevel, MaxLevel int64
	ActiveLiterals []Literal

	// AllDifferent/Inverse body.
	Exprs []LinearExpr

	// removed marks a constraint cleared by RemoveConstraint: the
	// fixed-point driver skips it entirely rather than re-presolving an
	// empty shape. Distinct from the canonical "proven false" bool_or(),
	// which legitimately has an empty Literals list.
	removed bool
}

// Removed reports whether the constraint has been cleared by
// RemoveConstraint and should be skipped by the driver.
func (ct *Constraint) Removed() bool { return ct.removed }

// IntervalRef names an interval constraint by the index of its defining
// CKInterval constraint in the model, paired with an optional presence
// literal for scheduling constraints that reference "absent" intervals.
type IntervalRef struct {
	ConstraintIndex int
	Presence        Literal
}

// ArcRef is one arc of a circuit/routes constraint: Tail -> Head, guarded by
// Lit (true iff the arc is taken).
type ArcRef struct {
	Tail, Head int
	Lit        Literal
}

// AutomatonTransition is one (state, label) -> state edge of an automaton
// constraint.
type AutomatonTransition struct {
	From, To int64
	Label    int64
}

// Objective is a linear expression plus a rational scaling and a Domain
// constraining the objective's value
type Objective struct {
	Expr          LinearExpr
	ScalingFactor int64 // default 1
	ScalingOffset int64 // default 0
	Domain        Domain
	Maximize      bool
}

// Hint is one (var, value) pair of a solution hint.
type Hint struct {
	Var   VarID
	Value int64
}

// Model is the working (or input) model: an ordered list of constraints, an
// ordered list of variables, an optional objective, optional hint and
// assumptions.
type Model struct {
	Variables   []*Variable
	Constraints []*Constraint
	Objective   *Objective
	Hint        []Hint
	Assumptions []Literal
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewVariable appends a fresh variable with the given domain and returns its
// ID.
func (m *Model) NewVariable(d Domain) VarID {
	id := VarID(len(m.Variables))
	m.Variables = append(m.Variables, &Variable{ID: id, Domain: d})
	return id
}

// NewNamedVariable is NewVariable plus a human-readable name.
func (m *Model) NewNamedVariable(d Domain, name string) VarID {
	id := m.NewVariable(d)
	m.Variables[id].Name = name
	return id
}

// Var returns the variable with the given ID.
func (m *Model) Var(id VarID) *Variable {
	return m.Variables[id]
}

// AddConstraint appends ct to the model and returns its index.
func (m *Model) AddConstraint(ct *Constraint) int {
	m.Constraints = append(m.Constraints, ct)
	return len(m.Constraints) - 1
}

// String renders a short summary for logs and test failures.
func (m *Model) String() string {
	return fmt.Sprintf("Model{variables: %d, constraints: %d}", len(m.Variables), len(m.Constraints))
}

// MappingModel is the append-only ordered list of constraints written during
// presolve so that postsolve can reconstruct removed variables. Order is
// significant: postsolve iterates last-to-first.
type MappingModel struct {
	Constraints []*Constraint
}

// Append adds ct to the end of the mapping stream and returns its index.
func (mm *MappingModel) Append(ct *Constraint) int {
	mm.Constraints = append(mm.Constraints, ct)
	return len(mm.Constraints) - 1
}
