package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresolveReservoirInfeasibleWhenResolvedLevelExceedsCapacity(t *testing.T) {
	m := NewModel()
	t0 := m.NewVariable(SingleValueDomain(0))
	t1 := m.NewVariable(SingleValueDomain(1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind:     CKReservoir,
		Times:    []VarID{t0, t1},
		Levels:   []int64{5, 4},
		MinLevel: 0,
		MaxLevel: 8,
	})

	_, err := PresolveReservoir(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveReservoirOkaysFeasibleResolvedSchedule(t *testing.T) {
	m := NewModel()
	t0 := m.NewVariable(SingleValueDomain(0))
	t1 := m.NewVariable(SingleValueDomain(1))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind:     CKReservoir,
		Times:    []VarID{t0, t1},
		Levels:   []int64{5, -3},
		MinLevel: 0,
		MaxLevel: 8,
	})

	_, err := PresolveReservoir(c, ctIdx)
	require.NoError(t, err)
}

func TestPresolveReservoirDropsInertEventsAndClampsBounds(t *testing.T) {
	m := NewModel()
	t0 := m.NewVariable(NewDomain(0, 10))
	t1 := m.NewVariable(NewDomain(0, 10))
	t2 := m.NewVariable(NewDomain(0, 10))
	c := newTestContext(m)
	ct := &Constraint{
		Kind:     CKReservoir,
		Times:    []VarID{t0, t1, t2},
		Levels:   []int64{0, 2, -1},
		MinLevel: -5,
		MaxLevel: 5,
	}
	ctIdx := m.AddConstraint(ct)
	registerIncidence(c, ctIdx, ct)

	changed, err := PresolveReservoir(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, ct.Times, 2)
	require.Equal(t, []int64{2, -1}, ct.Levels)
	require.Equal(t, int64(-1), ct.MinLevel)
	require.Equal(t, int64(2), ct.MaxLevel)
}

func TestPresolveReservoirConvertsSameSignEventsToLinear(t *testing.T) {
	m := NewModel()
	t0 := m.NewVariable(NewDomain(0, 10))
	t1 := m.NewVariable(NewDomain(0, 10))
	b0 := m.NewVariable(NewDomain(0, 1))
	b1 := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	ct := &Constraint{
		Kind:           CKReservoir,
		Times:          []VarID{t0, t1},
		Levels:         []int64{2, 4},
		ActiveLiterals: []Literal{LitFromVar(b0), LitFromVar(b1)},
		MinLevel:       0,
		MaxLevel:       10,
	}
	ctIdx := m.AddConstraint(ct)
	registerIncidence(c, ctIdx, ct)

	changed, err := PresolveReservoir(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	// Deltas gcd-reduce from {2,4} to {1,2} with the ceiling at 6/2 = 3,
	// then collapse into "active deltas sum to at most 3".
	require.Equal(t, CKLinear, ct.Kind)
	require.Equal(t, []VarID{b0, b1}, ct.Linear.Vars)
	require.Equal(t, []int64{1, 2}, ct.Linear.Coeffs)
	require.Equal(t, int64(3), ct.Rhs.Max())
}
