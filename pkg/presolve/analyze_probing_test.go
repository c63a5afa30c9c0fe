package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeLiteralsFixesFailedLiteral(t *testing.T) {
	m := NewModel()
	a := m.NewVariable(NewDomain(0, 1))
	b := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)

	// a is forced true unconditionally...
	m.AddConstraint(&Constraint{Kind: CKBoolAnd, Literals: []Literal{LitFromVar(a)}})
	// ...and a, b can't both be true.
	m.AddConstraint(&Constraint{Kind: CKAtMostOne, Literals: []Literal{LitFromVar(a), LitFromVar(b)}})

	changes, err := ProbeLiterals(c)
	require.NoError(t, err)
	require.Greater(t, changes, 0)
	require.True(t, c.LiteralIsFalse(LitFromVar(b)))
}

func TestProbeLiteralsTiesEquivalentLiterals(t *testing.T) {
	m := NewModel()
	a := m.NewVariable(NewDomain(0, 1))
	b := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)

	// a <-> b via two at-most-one-style implications expressed as bool_or:
	// (not a or b) and (not b or a).
	m.AddConstraint(&Constraint{Kind: CKBoolOr, Literals: []Literal{LitFromVar(a).Negated(), LitFromVar(b)}})
	m.AddConstraint(&Constraint{Kind: CKBoolOr, Literals: []Literal{LitFromVar(b).Negated(), LitFromVar(a)}})

	_, err := ProbeLiterals(c)
	require.NoError(t, err)

	rep, coeff, offset := c.Affine.RepresentativeOf(b)
	if rep != b {
		require.Equal(t, int64(1), coeff)
		require.Equal(t, int64(0), offset)
	}
}
