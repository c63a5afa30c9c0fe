package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAffineStoreDirectRelation(t *testing.T) {
	s := NewAffineStore()
	ok := s.AddRelation(1, 2, 3, 0) // x1 = 2*x0 + 3
	require.True(t, ok)

	rep, a, b := s.RepresentativeOf(1)
	require.Equal(t, VarID(0), rep)
	require.Equal(t, int64(2), a)
	require.Equal(t, int64(3), b)
}

func TestAffineStoreComposesChain(t *testing.T) {
	s := NewAffineStore()
	require.True(t, s.AddRelation(1, 2, 0, 0))  // x1 = 2*x0
	require.True(t, s.AddRelation(2, 1, 5, 1))  // x2 = x1 + 5 = 2*x0 + 5

	rep, a, b := s.RepresentativeOf(2)
	require.Equal(t, VarID(0), rep)
	require.Equal(t, int64(2), a)
	require.Equal(t, int64(5), b)
}

func TestAffineStoreRejectsContradiction(t *testing.T) {
	s := NewAffineStore()
	require.True(t, s.AddRelation(1, 1, 0, 0))   // x1 = x0
	require.False(t, s.AddRelation(1, 1, 1, 0))  // x1 = x0 + 1, contradicts
}

func TestAffineStoreIsRepresentative(t *testing.T) {
	s := NewAffineStore()
	require.True(t, s.IsRepresentative(7))
	require.True(t, s.AddRelation(7, 1, 0, 3))
	require.False(t, s.IsRepresentative(7))
	require.True(t, s.IsRepresentative(3))
}
