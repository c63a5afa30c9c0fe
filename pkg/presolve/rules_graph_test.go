package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresolveCircuitForcesSingleViableArc(t *testing.T) {
	m := NewModel()
	a0 := m.NewVariable(NewDomain(0, 1))
	a1 := m.NewVariable(NewDomain(0, 1))
	b := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	c.SetLiteralFalse(LitFromVar(a1)) // one of the two 0->1 choices excluded
	c.SetLiteralTrue(LitFromVar(b))   // the 1->0 return arc is fixed
	ctIdx := m.AddConstraint(&Constraint{
		Kind:     CKCircuit,
		NumNodes: 2,
		Arcs: []ArcRef{
			{Tail: 0, Head: 1, Lit: LitFromVar(a0)},
			{Tail: 0, Head: 1, Lit: LitFromVar(a1)},
			{Tail: 1, Head: 0, Lit: LitFromVar(b)},
		},
	})

	changed, err := PresolveCircuit(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, c.LiteralIsTrue(LitFromVar(a0)))
}

func TestPresolveCircuitInfeasibleWhenNodeHasNoViableArc(t *testing.T) {
	m := NewModel()
	a0 := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	c.SetLiteralFalse(LitFromVar(a0))
	ctIdx := m.AddConstraint(&Constraint{
		Kind:     CKCircuit,
		NumNodes: 2,
		Arcs: []ArcRef{
			{Tail: 0, Head: 1, Lit: LitFromVar(a0)},
		},
	})

	_, err := PresolveCircuit(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveCircuitTiesTwoUndecidedArcsIntoEquality(t *testing.T) {
	m := NewModel()
	a := m.NewVariable(NewDomain(0, 1)) // 0 -> 1
	b := m.NewVariable(NewDomain(0, 1)) // 0 -> 0 self-loop
	d := m.NewVariable(NewDomain(0, 1)) // 1 -> 0
	e := m.NewVariable(NewDomain(0, 1)) // 1 -> 1 self-loop
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{
		Kind:     CKCircuit,
		NumNodes: 2,
		Arcs: []ArcRef{
			{Tail: 0, Head: 1, Lit: LitFromVar(a)},
			{Tail: 0, Head: 0, Lit: LitFromVar(b)},
			{Tail: 1, Head: 0, Lit: LitFromVar(d)},
			{Tail: 1, Head: 1, Lit: LitFromVar(e)},
		},
	})

	// Node 0's outgoing side has exactly the two undecided arcs a and b, so
	// exactly one of them is taken: a == not b.
	changed, err := PresolveCircuit(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	repA, _, _ := c.Affine.RepresentativeOf(a)
	repB, _, _ := c.Affine.RepresentativeOf(b)
	require.Equal(t, repA, repB)
}

func TestPresolveCircuitClosedSubtourFixesOutsideArcs(t *testing.T) {
	m := NewModel()
	t1 := m.NewVariable(NewDomain(0, 1)) // 0 -> 1, forced
	t2 := m.NewVariable(NewDomain(0, 1)) // 1 -> 0, forced
	p := m.NewVariable(NewDomain(0, 1))  // 2 -> 3
	q := m.NewVariable(NewDomain(0, 1))  // 3 -> 2
	s2 := m.NewVariable(NewDomain(0, 1)) // 2 -> 2 self-loop
	s3 := m.NewVariable(NewDomain(0, 1)) // 3 -> 3 self-loop
	c := newTestContext(m)
	c.SetLiteralTrue(LitFromVar(t1))
	c.SetLiteralTrue(LitFromVar(t2))
	ctIdx := m.AddConstraint(&Constraint{
		Kind:     CKCircuit,
		NumNodes: 4,
		Arcs: []ArcRef{
			{Tail: 0, Head: 1, Lit: LitFromVar(t1)},
			{Tail: 1, Head: 0, Lit: LitFromVar(t2)},
			{Tail: 2, Head: 3, Lit: LitFromVar(p)},
			{Tail: 3, Head: 2, Lit: LitFromVar(q)},
			{Tail: 2, Head: 2, Lit: LitFromVar(s2)},
			{Tail: 3, Head: 3, Lit: LitFromVar(s3)},
		},
	})

	// Arcs 0->1->0 close a circuit, so nodes 2 and 3 are outside it: their
	// self-loops must be taken and every arc between them dropped.
	changed, err := PresolveCircuit(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, c.LiteralIsTrue(LitFromVar(s2)))
	require.True(t, c.LiteralIsTrue(LitFromVar(s3)))
	require.True(t, c.LiteralIsFalse(LitFromVar(p)))
	require.True(t, c.LiteralIsFalse(LitFromVar(q)))
}
