package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeduplicateConstraintsRemovesIdenticalLinear(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 10))
	y := m.NewVariable(NewDomain(0, 10))
	c := newTestContext(m)

	body := LinearExpr{Vars: []VarID{x, y}, Coeffs: []int64{1, 1}}
	m.AddConstraint(&Constraint{Kind: CKLinear, Linear: body.Clone(), Rhs: NewDomain(0, 5)})
	m.AddConstraint(&Constraint{Kind: CKLinear, Linear: body.Clone(), Rhs: NewDomain(0, 5)})

	changed, err := DeduplicateConstraints(c)
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	require.True(t, m.Constraints[1].Removed())
	require.False(t, m.Constraints[0].Removed())
}

func TestDeduplicateConstraintsIntersectsDifferingRhs(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 10))
	c := newTestContext(m)

	body := LinearExpr{Vars: []VarID{x}, Coeffs: []int64{1}}
	m.AddConstraint(&Constraint{Kind: CKLinear, Linear: body.Clone(), Rhs: NewDomain(0, 5)})
	m.AddConstraint(&Constraint{Kind: CKLinear, Linear: body.Clone(), Rhs: NewDomain(3, 8)})

	changed, err := DeduplicateConstraints(c)
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	require.True(t, m.Constraints[1].Removed())
	require.Equal(t, NewDomain(3, 5), m.Constraints[0].Rhs)
}

func TestDeduplicateConstraintsMergesOppositeEnforcements(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 10))
	e := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)

	body := LinearExpr{Vars: []VarID{x}, Coeffs: []int64{1}}
	m.AddConstraint(&Constraint{Kind: CKLinear, Enforcement: Enforcement{LitFromVar(e)}, Linear: body.Clone(), Rhs: NewDomain(0, 5)})
	m.AddConstraint(&Constraint{Kind: CKLinear, Enforcement: Enforcement{LitFromVar(e).Negated()}, Linear: body.Clone(), Rhs: NewDomain(0, 5)})

	changed, err := DeduplicateConstraints(c)
	require.NoError(t, err)
	require.Equal(t, 1, changed)
	require.Empty(t, m.Constraints[0].Enforcement)
	require.True(t, m.Constraints[1].Removed())
}
