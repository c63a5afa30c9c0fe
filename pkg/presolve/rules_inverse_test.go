package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresolveInverseChannelsFixedFToG(t *testing.T) {
	m := NewModel()
	f0 := m.NewVariable(SingleValueDomain(1))
	f1 := m.NewVariable(NewDomain(0, 1))
	g0 := m.NewVariable(NewDomain(0, 1))
	g1 := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKInverse,
		Exprs: []LinearExpr{
			{Vars: []VarID{f0}, Coeffs: []int64{1}},
			{Vars: []VarID{f1}, Coeffs: []int64{1}},
			{Vars: []VarID{g0}, Coeffs: []int64{1}},
			{Vars: []VarID{g1}, Coeffs: []int64{1}},
		},
	})

	changed, err := PresolveInverse(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, int64(0), m.Var(g1).Domain.FixedValue())
}

func TestPresolveInverseInfeasibleWhenFOutOfRange(t *testing.T) {
	m := NewModel()
	f0 := m.NewVariable(SingleValueDomain(5))
	g0 := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKInverse,
		Exprs: []LinearExpr{
			{Vars: []VarID{f0}, Coeffs: []int64{1}},
			{Vars: []VarID{g0}, Coeffs: []int64{1}},
		},
	})

	_, err := PresolveInverse(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveInverseChannelsFixedGToF(t *testing.T) {
	m := NewModel()
	f0 := m.NewVariable(NewDomain(0, 1))
	f1 := m.NewVariable(NewDomain(0, 1))
	g0 := m.NewVariable(NewDomain(0, 1))
	g1 := m.NewVariable(SingleValueDomain(0))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKInverse,
		Exprs: []LinearExpr{
			{Vars: []VarID{f0}, Coeffs: []int64{1}},
			{Vars: []VarID{f1}, Coeffs: []int64{1}},
			{Vars: []VarID{g0}, Coeffs: []int64{1}},
			{Vars: []VarID{g1}, Coeffs: []int64{1}},
		},
	})

	// g[1] = 0 pins f[0] = 1 through the reverse channel.
	changed, err := PresolveInverse(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, m.Var(f0).Domain.IsFixed())
	require.Equal(t, int64(1), m.Var(f0).Domain.FixedValue())
}

func TestPresolveInverseRestrictsEntriesToIndexRange(t *testing.T) {
	m := NewModel()
	f0 := m.NewVariable(NewDomain(0, 5))
	f1 := m.NewVariable(NewDomain(0, 1))
	g0 := m.NewVariable(NewDomain(0, 1))
	g1 := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKInverse,
		Exprs: []LinearExpr{
			{Vars: []VarID{f0}, Coeffs: []int64{1}},
			{Vars: []VarID{f1}, Coeffs: []int64{1}},
			{Vars: []VarID{g0}, Coeffs: []int64{1}},
			{Vars: []VarID{g1}, Coeffs: []int64{1}},
		},
	})

	changed, err := PresolveInverse(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, int64(1), m.Var(f0).Domain.Max())
}

func TestPresolveInverseLeavesSharedVariableConstraintAlone(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 5))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKInverse,
		Exprs: []LinearExpr{
			{Vars: []VarID{x}, Coeffs: []int64{1}},
			{Vars: []VarID{x}, Coeffs: []int64{1}},
		},
	})

	changed, err := PresolveInverse(c, ctIdx)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, int64(5), m.Var(x).Domain.Max())
}
