package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresolveAllDifferentExcludesFixedValueFromBareVariable(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(SingleValueDomain(3))
	y := m.NewVariable(NewDomain(1, 5))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKAllDifferent,
		Exprs: []LinearExpr{
			{Vars: []VarID{x}, Coeffs: []int64{1}},
			{Vars: []VarID{y}, Coeffs: []int64{1}},
		},
	})

	changed, err := PresolveAllDifferent(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.False(t, m.Var(y).Domain.Contains(3))
}

func TestPresolveAllDifferentInfeasibleWhenTwoExprsFixedEqual(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(SingleValueDomain(3))
	y := m.NewVariable(SingleValueDomain(3))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKAllDifferent,
		Exprs: []LinearExpr{
			{Vars: []VarID{x}, Coeffs: []int64{1}},
			{Vars: []VarID{y}, Coeffs: []int64{1}},
		},
	})

	_, err := PresolveAllDifferent(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveAllDifferentInfeasibleByPigeonhole(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 1))
	y := m.NewVariable(NewDomain(0, 1))
	z := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKAllDifferent,
		Exprs: []LinearExpr{
			{Vars: []VarID{x}, Coeffs: []int64{1}},
			{Vars: []VarID{y}, Coeffs: []int64{1}},
			{Vars: []VarID{z}, Coeffs: []int64{1}},
		},
	})

	_, err := PresolveAllDifferent(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveAllDifferentForcesSoleCandidateInTotalPermutation(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 2))
	y := m.NewVariable(NewDomain(0, 1))
	z := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind: CKAllDifferent,
		Exprs: []LinearExpr{
			{Vars: []VarID{x}, Coeffs: []int64{1}},
			{Vars: []VarID{y}, Coeffs: []int64{1}},
			{Vars: []VarID{z}, Coeffs: []int64{1}},
		},
	})

	// Three expressions over the union {0,1,2}: value 2 has x as its only
	// candidate, so x must take it.
	changed, err := PresolveAllDifferent(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, m.Var(x).Domain.IsFixed())
	require.Equal(t, int64(2), m.Var(x).Domain.FixedValue())
}
