package presolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContext(m *Model) *Context {
	return NewContext(context.Background(), m, DefaultOptions())
}

func TestContextIntersectDomain(t *testing.T) {
	m := NewModel()
	v := m.NewVariable(NewDomain(0, 10))
	c := newTestContext(m)

	changed, ok := c.IntersectDomain(v, NewDomain(0, 5))
	require.True(t, ok)
	require.True(t, changed)
	require.Equal(t, "[0,5]", m.Var(v).Domain.String())
	require.True(t, c.ModifiedDomains[v])
}

func TestContextIntersectDomainInfeasible(t *testing.T) {
	m := NewModel()
	v := m.NewVariable(NewDomain(0, 10))
	c := newTestContext(m)

	_, ok := c.IntersectDomain(v, NewDomain(20, 30))
	require.False(t, ok)
}

func TestContextSetLiteral(t *testing.T) {
	m := NewModel()
	v := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)

	require.True(t, c.SetLiteralFalse(LitFromVar(v)))
	require.True(t, c.LiteralIsFalse(LitFromVar(v)))
	require.True(t, c.LiteralIsTrue(LitFromVar(v).Negated()))
}

func TestContextStoreAffineRelationMarksReduced(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 10))
	rep := m.NewVariable(NewDomain(0, 20))
	c := newTestContext(m)

	ok := c.StoreAffineRelation(x, rep, 2, 1)
	require.True(t, ok)
	require.Equal(t, StatusAffineReduced, m.Var(x).Status)
	require.Len(t, c.Mapping.Constraints, 1)
}

func TestContextNewVariableWithDefinitionPushesMapping(t *testing.T) {
	m := NewModel()
	a := m.NewVariable(NewDomain(0, 10))
	c := newTestContext(m)

	def := LinearExpr{Vars: []VarID{a}, Coeffs: []int64{2}, Offset: 3}
	nv := c.NewVariableWithDefinition(NewDomain(0, 50), def)
	require.True(t, m.Var(nv).Synthetic)
	require.Len(t, c.Mapping.Constraints, 1)
}

func TestContextGetOrCreateVarValueEncodingIsCached(t *testing.T) {
	m := NewModel()
	v := m.NewVariable(NewDomain(0, 5))
	c := newTestContext(m)

	l1 := c.GetOrCreateVarValueEncoding(v, 3)
	l2 := c.GetOrCreateVarValueEncoding(v, 3)
	require.Equal(t, l1, l2)
}

func TestContextLimitReachedOnOperationCount(t *testing.T) {
	m := NewModel()
	c := newTestContext(m)
	c.Options.MaxPresolveOperations = 2
	c.CountOp()
	require.False(t, c.LimitReached())
	c.CountOp()
	require.True(t, c.LimitReached())
}

func TestContextSubstituteVariableInObjective(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 10))
	y := m.NewVariable(NewDomain(0, 10))
	m.Objective = &Objective{Expr: LinearExpr{Vars: []VarID{y}, Coeffs: []int64{1}}}
	c := newTestContext(m)

	// x + y = 5  =>  y = 5 - x
	ct := &Constraint{Kind: CKLinear, Linear: LinearExpr{Vars: []VarID{x, y}, Coeffs: []int64{1, 1}}, Rhs: SingleValueDomain(5)}
	ok := c.SubstituteVariableInObjective(y, 1, ct)
	require.True(t, ok)
	require.NotContains(t, m.Objective.Expr.Vars, y)
}
