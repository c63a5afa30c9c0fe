package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteralNegation(t *testing.T) {
	l := LitFromVar(3)
	require.Equal(t, VarID(3), l.Var())
	require.True(t, l.IsPositive())

	n := l.Negated()
	require.Equal(t, VarID(3), n.Var())
	require.False(t, n.IsPositive())
	require.Equal(t, l, n.Negated())
}

func TestEnforcementNormalizeDedupesAndDetectsContradiction(t *testing.T) {
	e := Enforcement{1, 1, 2}
	out, contradiction := e.Normalize()
	require.False(t, contradiction)
	require.Len(t, out, 2)

	e2 := Enforcement{1, Literal(1).Negated()}
	_, contradiction2 := e2.Normalize()
	require.True(t, contradiction2)
}

func TestLinearExprCanonicalize(t *testing.T) {
	e := LinearExpr{Vars: []VarID{2, 1, 2}, Coeffs: []int64{4, 6, 2}}
	rhs := NewDomain(12, 12)
	g := e.Canonicalize(&rhs)
	require.Equal(t, int64(6), g)
	require.Equal(t, []VarID{1, 2}, e.Vars)
	require.Equal(t, []int64{1, 1}, e.Coeffs) // 6/6, (4+2)/6
}

func TestLinearExprActivityBounds(t *testing.T) {
	vars := map[VarID]Domain{1: NewDomain(0, 5), 2: NewDomain(-2, 2)}
	e := LinearExpr{Vars: []VarID{1, 2}, Coeffs: []int64{2, -3}, Offset: 1}
	lo, hi := e.ActivityBounds(func(v VarID) Domain { return vars[v] })
	// term1 in [0,10], term2 = -3*x2 in [-6,6]; total in [1-6, 1+10+6]
	require.Equal(t, int64(-5), lo)
	require.Equal(t, int64(17), hi)
}

func TestModelNewVariableAndConstraint(t *testing.T) {
	m := NewModel()
	v0 := m.NewVariable(NewDomain(0, 10))
	v1 := m.NewNamedVariable(NewDomain(0, 1), "b")
	require.Equal(t, VarID(0), v0)
	require.Equal(t, VarID(1), v1)
	require.Equal(t, "b", m.Var(v1).Name)

	idx := m.AddConstraint(&Constraint{Kind: CKBoolOr, Literals: []Literal{LitFromVar(v1)}})
	require.Equal(t, 0, idx)
	require.Len(t, m.Constraints, 1)
}

func TestMappingModelAppendOrder(t *testing.T) {
	mm := &MappingModel{}
	mm.Append(&Constraint{Kind: CKLinear})
	mm.Append(&Constraint{Kind: CKBoolOr})
	require.Len(t, mm.Constraints, 2)
	require.Equal(t, CKLinear, mm.Constraints[0].Kind)
}
