package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainIntersectUnion(t *testing.T) {
	a := NewDomain(0, 10)
	b := NewDomain(5, 15)

	require.Equal(t, "[5,10]", a.Intersect(b).String())
	require.Equal(t, "[0,15]", a.Union(b).String())
}

func TestDomainIntersectDisjointIsEmpty(t *testing.T) {
	a := NewDomain(0, 4)
	b := NewDomain(10, 20)
	require.True(t, a.Intersect(b).IsEmpty())
}

func TestDomainUnionCoalescesTouchingIntervals(t *testing.T) {
	a := NewDomainFromIntervals([]Interval{{Lo: 0, Hi: 3}, {Lo: 4, Hi: 6}})
	require.Equal(t, 1, a.NumIntervals())
	require.Equal(t, "[0,6]", a.String())
}

func TestDomainComplement(t *testing.T) {
	a := NewDomain(0, 10)
	c := a.Complement()
	require.False(t, c.Contains(5))
	require.True(t, c.Contains(11))
	require.True(t, c.Contains(-1))
}

func TestDomainNegation(t *testing.T) {
	a := NewDomainFromIntervals([]Interval{{Lo: 1, Hi: 3}, {Lo: 10, Hi: 12}})
	neg := a.Negation()
	require.Equal(t, "[-12,-10] u [-3,-1]", neg.String())
}

func TestDomainAddConstant(t *testing.T) {
	a := NewDomain(1, 5)
	require.Equal(t, "[4,8]", a.AddConstant(3).String())
}

func TestDomainMulByConstant(t *testing.T) {
	a := NewDomain(1, 5)
	require.Equal(t, "[-15,-3]", a.MulByConstant(-3).String())
	require.Equal(t, "{0}", a.MulByConstant(0).String())
}

func TestDomainDivByConstantSignAware(t *testing.T) {
	a := NewDomain(-7, 7)
	d := a.DivByConstant(2)
	for v := int64(-3); v <= 3; v++ {
		require.True(t, d.Contains(v), "expected %d in %s", v, d.String())
	}
}

func TestDomainInverseMul(t *testing.T) {
	// {x : 2x in [4,10]} = [2,5]
	a := NewDomain(4, 10)
	require.Equal(t, "[2,5]", a.InverseMul(2).String())
}

func TestDomainModSupersetSign(t *testing.T) {
	a := NewDomain(-5, 5)
	b := NewDomain(3, 3)
	m := a.ModSuperset(b)
	require.True(t, m.Contains(-2))
	require.True(t, m.Contains(2))
	require.False(t, m.Contains(3))
}

func TestDomainContinuousMul(t *testing.T) {
	a := NewDomain(-2, 3)
	b := NewDomain(-1, 4)
	m := a.ContinuousMul(b)
	require.Equal(t, int64(-8), m.Min())
	require.Equal(t, int64(12), m.Max())
}

func TestDomainRelaxIfComplex(t *testing.T) {
	var ivs []Interval
	for i := int64(0); i < 500; i += 2 {
		ivs = append(ivs, Interval{Lo: i, Hi: i})
	}
	d := NewDomainFromIntervals(ivs)
	require.LessOrEqual(t, d.NumIntervals(), maxIntervalsBeforeRelax)
}

func TestDomainIsSubsetOf(t *testing.T) {
	require.True(t, NewDomain(2, 4).IsSubsetOf(NewDomain(0, 10)))
	require.False(t, NewDomain(2, 14).IsSubsetOf(NewDomain(0, 10)))
}

func TestSaturatingArithmeticNeverPanics(t *testing.T) {
	require.Equal(t, maxSafe, satAdd(maxSafe, maxSafe))
	require.Equal(t, minSafe, satSub(minSafe, maxSafe))
	require.Equal(t, maxSafe, satMul(maxSafe, 2))
	require.True(t, Saturated(satMul(maxSafe, 2)))
}

func TestGCD(t *testing.T) {
	require.Equal(t, int64(3), GCD(6, 9))
	require.Equal(t, int64(1), GCD(7, 13))
	require.Equal(t, int64(5), GCD(-10, 15))
}
