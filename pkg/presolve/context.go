package presolve

import (
	"context"
	"time"
)

// Context is the mutable state shared by all rewriters and analyzers: the
// working model, the mapping model, the affine store, per-variable
// constraint-incidence sets, modification queues, a rule-application
// counter and a time-limit hook. Kept as one coherent struct, with the
// mapping stream and rule-count map behind narrow append-only interfaces
// so nothing couples to their internals by accident.
type Context struct {
	Model   *Model
	Mapping *MappingModel
	Affine  *AffineStore
	Report  *Report
	Options *Options

	// VarToConstraints maps each representative variable to the set of
	// working-model constraint indices that reference it, plus two sentinel
	// pseudo-indices: PseudoObjective for "appears in the
	// objective" and PseudoAffine for "is affine-reduced".
	VarToConstraints map[VarID]map[int]bool

	// ModifiedDomains is the sparse set of variables whose domain shrunk
	// since the last sweep.
	ModifiedDomains map[VarID]bool

	// ReducedDegree holds variables whose constraint incidence dropped,
	// candidates for degree-specific rules.
	ReducedDegree map[VarID]bool

	// encodingCache memoizes get_or_create_var_value_encoding(var, v).
	encodingCache map[encodingKey]Literal

	numOps  int64
	infeas  bool
	infeasReason string

	goCtx     context.Context
	deadline  time.Time
	hasDeadline bool
}

// PseudoObjective and PseudoAffine are sentinel constraint indices tracked
// alongside the real incidences, encoded as negative values so they never
// collide with a real (non-negative) constraint slice index.
const (
	PseudoObjective = -1
	PseudoAffine    = -2
)

type encodingKey struct {
	v VarID
	val int64
}

// NewContext wires a fresh Context around m, ready for the copier to
// normalize and the driver to iterate. goCtx supplies the cooperative
// cancellation signal: the driver and every analyzer poll
// goCtx.Err() between rewrites, treating cancellation exactly like a
// reached time limit.
func NewContext(goCtx context.Context, m *Model, opts *Options) *Context {
	if opts == nil {
		opts = DefaultOptions()
	}
	c := &Context{
		Model:            m,
		Mapping:          &MappingModel{},
		Affine:           NewAffineStore(),
		Report:           NewReport(),
		Options:          opts,
		VarToConstraints: make(map[VarID]map[int]bool),
		ModifiedDomains:  make(map[VarID]bool),
		ReducedDegree:    make(map[VarID]bool),
		encodingCache:    make(map[encodingKey]Literal),
		goCtx:            goCtx,
	}
	if opts.TimeLimit > 0 {
		c.deadline = time.Now().Add(opts.TimeLimit)
		c.hasDeadline = true
	}
	return c
}

// Infeasible reports whether the model has been proven infeasible.
func (c *Context) Infeasible() bool { return c.infeas }

// MarkInfeasible sets the process-wide infeasibility signal. No rule may
// make further changes once this returns.
func (c *Context) MarkInfeasible(reason string) {
	if !c.infeas {
		c.infeas = true
		c.infeasReason = reason
	}
}

// InfeasibleReason returns the short reason string recorded by the first
// call to MarkInfeasible, or "" if the model has not been proven infeasible.
func (c *Context) InfeasibleReason() string { return c.infeasReason }

// LimitReached reports whether the operation counter, the deadline, or the
// caller's context.Context have tripped. Every rewriter and analyzer loop
// must check this between iterations.
func (c *Context) LimitReached() bool {
	if c.Options.MaxPresolveOperations > 0 && c.numOps >= c.Options.MaxPresolveOperations {
		return true
	}
	if c.hasDeadline && time.Now().After(c.deadline) {
		return true
	}
	if c.goCtx != nil && c.goCtx.Err() != nil {
		return true
	}
	return false
}

// CountOp increments the rule-application counter used for termination
// control and diagnostics.
func (c *Context) CountOp() { c.numOps++ }

// NumOps returns the total number of counted rule applications so far.
func (c *Context) NumOps() int64 { return c.numOps }

// AddIncidence records that constraint index ctIdx references v.
func (c *Context) AddIncidence(v VarID, ctIdx int) {
	set, ok := c.VarToConstraints[v]
	if !ok {
		set = make(map[int]bool)
		c.VarToConstraints[v] = set
	}
	set[ctIdx] = true
}

// RemoveIncidence removes the record that constraint index ctIdx references
// v, enqueuing v for degree-specific rules if its incidence dropped.
func (c *Context) RemoveIncidence(v VarID, ctIdx int) {
	set, ok := c.VarToConstraints[v]
	if !ok {
		return
	}
	if set[ctIdx] {
		delete(set, ctIdx)
		c.ReducedDegree[v] = true
	}
}

// Degree returns the number of constraints (including pseudo-constraints)
// referencing v.
func (c *Context) Degree(v VarID) int {
	return len(c.VarToConstraints[v])
}

// IntersectDomain intersects v's domain with d. Returns false if the result
// is empty (the variable becomes infeasible; the caller should propagate
// that via MarkInfeasible or a returned error as appropriate). On a
// non-empty, strictly-narrower result, enqueues v in ModifiedDomains and
// enqueues its incident constraints for re-examination (conceptually — the
// driver reads ModifiedDomains itself to do the re-enqueuing).
func (c *Context) IntersectDomain(v VarID, d Domain) (changed bool, ok bool) {
	variable := c.Model.Var(v)
	newDomain := variable.Domain.Intersect(d)
	if newDomain.IsEmpty() {
		return false, false
	}
	if newDomain.Equal(variable.Domain) {
		return false, true
	}
	variable.Domain = newDomain
	c.ModifiedDomains[v] = true
	return true, true
}

// FixValue intersects v's domain down to the single value val.
func (c *Context) FixValue(v VarID, val int64) (ok bool) {
	_, ok = c.IntersectDomain(v, SingleValueDomain(val))
	return ok
}

// SetLiteralTrue fixes the literal's underlying variable so the literal
// evaluates true: value 1 for a positive literal, 0 for a negated one.
func (c *Context) SetLiteralTrue(l Literal) bool {
	val := int64(1)
	if !l.IsPositive() {
		val = 0
	}
	return c.FixValue(l.Var(), val)
}

// SetLiteralFalse fixes the literal's underlying variable so the literal
// evaluates false.
func (c *Context) SetLiteralFalse(l Literal) bool {
	return c.SetLiteralTrue(l.Negated())
}

// LiteralIsTrue reports whether l is already forced true by its variable's
// current domain.
func (c *Context) LiteralIsTrue(l Literal) bool {
	d := c.Model.Var(l.Var()).Domain
	want := int64(1)
	if !l.IsPositive() {
		want = 0
	}
	return d.IsFixed() && d.FixedValue() == want
}

// LiteralIsFalse reports whether l is already forced false.
func (c *Context) LiteralIsFalse(l Literal) bool {
	return c.LiteralIsTrue(l.Negated())
}

// NewMappingConstraint appends ct to the mapping stream. Every rule that
// marks a variable as removed MUST call this before or during the removal
// that pins the removed variable.
func (c *Context) NewMappingConstraint(ct *Constraint) int {
	return c.Mapping.Append(ct)
}

// NewVariableWithDefinition creates a synthetic variable used to factor out
// a common subexpression, records the defining equality `newVar =
// affineTerms` in the mapping stream, and returns the new variable's ID
// for later replay.
func (c *Context) NewVariableWithDefinition(d Domain, defExpr LinearExpr) VarID {
	v := c.Model.NewVariable(d)
	c.Model.Variables[v].Synthetic = true
	def := defExpr.Clone()
	def.Vars = append(def.Vars, v)
	def.Coeffs = append(def.Coeffs, -1)
	c.NewMappingConstraint(&Constraint{Kind: CKLinear, Linear: def, Rhs: SingleValueDomain(0)})
	return v
}

// StoreBooleanEquality records l1 == l2 as an affine relation between their
// underlying {0,1} variables.
func (c *Context) StoreBooleanEquality(l1, l2 Literal) bool {
	// l1 == l2 as Booleans translates to var(l1) = a*var(l2) + b where the
	// sign of a and offset b depend on each literal's polarity:
	//   pos,pos: x1 = x2            (a=1, b=0)
	//   pos,neg: x1 = 1 - x2        (a=-1, b=1)
	//   neg,pos: (1-x1) = x2 <=> x1 = 1-x2  (a=-1, b=1)
	//   neg,neg: (1-x1) = (1-x2) <=> x1=x2  (a=1, b=0)
	a, b := int64(1), int64(0)
	if l1.IsPositive() != l2.IsPositive() {
		a, b = -1, 1
	}
	return c.StoreAffineRelation(l1.Var(), l2.Var(), a, b)
}

// StoreAffineRelation records x = a*rep + b, composing with any existing
// relations, and marks x as affine-reduced if it is still active. Always
// pushes the relation to the mapping stream first, so postsolve can always
// recover x from rep. Returns false if the relation contradicts a stored one
// or leaves x's domain empty.
func (c *Context) StoreAffineRelation(x, rep VarID, a, b int64) bool {
	if x == rep {
		return a == 1 && b == 0
	}
	def := LinearExpr{Vars: []VarID{x, rep}, Coeffs: []int64{1, -a}, Offset: -b}
	c.NewMappingConstraint(&Constraint{Kind: CKLinear, Linear: def, Rhs: SingleValueDomain(0)})

	ok := c.Affine.AddRelation(x, a, b, rep)
	if !ok {
		return false
	}
	xDom := c.Model.Var(x).Domain
	impliedForX := c.Model.Var(rep).Domain.MulByConstant(a).AddConstant(b)
	if xDom.Intersect(impliedForX).IsEmpty() {
		return false
	}
	if c.Model.Var(x).Status == StatusActive {
		c.Model.Var(x).Status = StatusAffineReduced
		c.AddIncidence(x, PseudoAffine)
	}
	return true
}

// GetOrCreateVarValueEncoding returns a Boolean literal for `var == v`,
// creating and mapping it on demand. The encoding is cached so repeated
// requests for the same (var, value) pair return the same literal. Only the
// implication `literal => var == v` is recorded, as an enforced entry in the
// mapping stream; nothing is added to the working model, and the reverse
// direction (`var == v => literal`) is not encoded. When v is outside var's
// domain the literal is a fresh variable fixed to 0.
func (c *Context) GetOrCreateVarValueEncoding(v VarID, val int64) Literal {
	key := encodingKey{v: v, val: val}
	if l, ok := c.encodingCache[key]; ok {
		return l
	}
	if !c.Model.Var(v).Domain.Contains(val) {
		// Value impossible: encode as a permanently-false literal bound to a
		// fresh {0}-domain variable.
		lit := LitFromVar(c.Model.NewVariable(SingleValueDomain(0)))
		c.encodingCache[key] = lit
		return lit
	}
	b := c.Model.NewVariable(NewDomain(0, 1))
	lit := LitFromVar(b)
	// b == 1 => v == val, as one enforced linear entry in the mapping stream,
	// so postsolve can recover v from b without search. Excluding val from
	// v when b == 0 is left to the caller.
	c.NewMappingConstraint(&Constraint{
		Kind:        CKLinear,
		Enforcement: Enforcement{lit},
		Linear:      LinearExpr{Vars: []VarID{v}, Coeffs: []int64{1}},
		Rhs:         SingleValueDomain(val),
	})
	c.encodingCache[key] = lit
	return lit
}

// SubstituteVariableInObjective replaces var in the objective using an
// equality constraint `coeff*var + rest = rhsVal`, refusing on overflow.
// Returns false (leaving the objective untouched) if the substitution would
// overflow the safe arithmetic window.
func (c *Context) SubstituteVariableInObjective(varID VarID, coeff int64, definingCt *Constraint) bool {
	if c.Model.Objective == nil || coeff == 0 {
		return true
	}
	obj := &c.Model.Objective.Expr
	pos := -1
	for i, v := range obj.Vars {
		if v == varID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return true
	}
	objCoeff := obj.Coeffs[pos]
	// var appears in definingCt as coeff*var + sum(other terms) = rhsVal, so
	// var = (rhsVal - sum(other terms)) / coeff. Substituting into the
	// objective requires coeff == +-1 for an exact integer rewrite (both
	// callers, singleton elimination and affine substitution, already
	// guarantee |coeff|==1).
	if coeff != 1 && coeff != -1 {
		return false
	}
	var newVars []VarID
	var newCoeffs []int64
	var rhsVal int64
	if definingCt.Rhs.IsFixed() {
		rhsVal = definingCt.Rhs.FixedValue()
	}
	for i, v := range definingCt.Linear.Vars {
		if v == varID {
			continue
		}
		factor := -objCoeff * definingCt.Linear.Coeffs[i] / coeff
		if Saturated(satMul(objCoeff, definingCt.Linear.Coeffs[i])) {
			return false
		}
		newVars = append(newVars, v)
		newCoeffs = append(newCoeffs, factor)
	}
	addOffset := objCoeff * rhsVal / coeff
	if Saturated(satMul(objCoeff, rhsVal)) {
		return false
	}

	updated := obj.Clone()
	updated.Vars = append(append([]VarID{}, updated.Vars[:pos]...), updated.Vars[pos+1:]...)
	updated.Coeffs = append(append([]int64{}, updated.Coeffs[:pos]...), updated.Coeffs[pos+1:]...)
	updated.Vars = append(updated.Vars, newVars...)
	updated.Coeffs = append(updated.Coeffs, newCoeffs...)
	updated.Offset = satAdd(updated.Offset, addOffset)
	updated.Canonicalize(nil)
	*obj = updated
	return true
}
