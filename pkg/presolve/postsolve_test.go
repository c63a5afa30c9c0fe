package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostsolveReplaysAffineRelation(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 20))
	y := m.NewVariable(NewDomain(0, 10))
	m.Variables[x].Status = StatusRemoved

	mapping := &MappingModel{}
	// x = 2y + 1, recorded as x - 2y - 1 = 0.
	mapping.Append(&Constraint{
		Kind:   CKLinear,
		Linear: LinearExpr{Vars: []VarID{x, y}, Coeffs: []int64{1, -2}, Offset: -1},
		Rhs:    SingleValueDomain(0),
	})

	full, err := PostsolveSolution(m, mapping, Assignment{y: 3})
	require.NoError(t, err)
	require.Equal(t, int64(7), full[x])
	require.Equal(t, int64(3), full[y])
}

func TestPostsolveReplaysChainInReverseOrder(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 100))
	y := m.NewVariable(NewDomain(0, 100))
	z := m.NewVariable(NewDomain(0, 100))
	m.Variables[z].Status = StatusRemoved
	m.Variables[x].Status = StatusRemoved

	mapping := &MappingModel{}
	// Written first: z = x + 1 (z removed while x was still around).
	mapping.Append(&Constraint{
		Kind:   CKLinear,
		Linear: LinearExpr{Vars: []VarID{z, x}, Coeffs: []int64{1, -1}, Offset: -1},
		Rhs:    SingleValueDomain(0),
	})
	// Written later: x = y + 5 (x removed afterwards). Reverse replay must
	// pin x from y before the earlier entry can pin z from x.
	mapping.Append(&Constraint{
		Kind:   CKLinear,
		Linear: LinearExpr{Vars: []VarID{x, y}, Coeffs: []int64{1, -1}, Offset: -5},
		Rhs:    SingleValueDomain(0),
	})

	full, err := PostsolveSolution(m, mapping, Assignment{y: 10})
	require.NoError(t, err)
	require.Equal(t, int64(15), full[x])
	require.Equal(t, int64(16), full[z])
}

func TestPostsolveSingletonInequalityPicksInDomainValue(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(2, 8))
	y := m.NewVariable(NewDomain(0, 10))
	m.Variables[x].Status = StatusRemoved

	mapping := &MappingModel{}
	// The eliminated singleton's original constraint: x + y in [5, 12].
	mapping.Append(&Constraint{
		Kind:   CKLinear,
		Linear: LinearExpr{Vars: []VarID{x, y}, Coeffs: []int64{1, 1}},
		Rhs:    NewDomain(5, 12),
	})

	full, err := PostsolveSolution(m, mapping, Assignment{y: 1})
	require.NoError(t, err)
	require.True(t, NewDomain(2, 8).Contains(full[x]))
	require.True(t, NewDomain(5, 12).Contains(full[x]+1))
}

func TestPostsolveEnforcedEntryFiresOnlyWhenEnforcementHolds(t *testing.T) {
	m := NewModel()
	v := m.NewVariable(NewDomain(0, 9))
	bTrue := m.NewVariable(NewDomain(0, 1))
	bFalse := m.NewVariable(NewDomain(0, 1))

	mapping := &MappingModel{}
	// Two value-literal encodings of v; only the true literal's entry pins.
	mapping.Append(&Constraint{
		Kind:        CKLinear,
		Enforcement: Enforcement{LitFromVar(bFalse)},
		Linear:      LinearExpr{Vars: []VarID{v}, Coeffs: []int64{1}},
		Rhs:         SingleValueDomain(3),
	})
	mapping.Append(&Constraint{
		Kind:        CKLinear,
		Enforcement: Enforcement{LitFromVar(bTrue)},
		Linear:      LinearExpr{Vars: []VarID{v}, Coeffs: []int64{1}},
		Rhs:         SingleValueDomain(7),
	})

	full, err := PostsolveSolution(m, mapping, Assignment{bTrue: 1, bFalse: 0})
	require.NoError(t, err)
	require.Equal(t, int64(7), full[v])
}

func TestPostsolveReplaysElementEntry(t *testing.T) {
	m := NewModel()
	idx := m.NewVariable(NewDomain(0, 3))
	target := m.NewVariable(NewDomain(0, 100))
	m.Variables[target].Status = StatusRemoved

	mapping := &MappingModel{}
	mapping.Append(&Constraint{
		Kind:   CKElement,
		Index:  idx,
		Target: target,
		Values: []int64{10, 20, 30, 40},
	})

	full, err := PostsolveSolution(m, mapping, Assignment{idx: 2})
	require.NoError(t, err)
	require.Equal(t, int64(30), full[target])
}

func TestPostsolveReplaysIntProdEntry(t *testing.T) {
	m := NewModel()
	target := m.NewVariable(NewDomain(0, 100))
	f := m.NewVariable(NewDomain(0, 10))
	m.Variables[f].Status = StatusRemoved

	mapping := &MappingModel{}
	// Unary product target = f, written when f was folded into target.
	mapping.Append(&Constraint{Kind: CKIntProd, Target: target, Terms: []VarID{f}})

	full, err := PostsolveSolution(m, mapping, Assignment{target: 6})
	require.NoError(t, err)
	require.Equal(t, int64(6), full[f])
}

func TestPostsolvePinsUntouchedVariablesInsideTheirDomain(t *testing.T) {
	m := NewModel()
	v := m.NewVariable(NewDomain(4, 9))

	full, err := PostsolveSolution(m, &MappingModel{}, Assignment{})
	require.NoError(t, err)
	require.Equal(t, int64(4), full[v])
}

func TestPostsolveRejectsUnsatisfiableEntry(t *testing.T) {
	m := NewModel()
	x := m.NewVariable(NewDomain(0, 3))
	y := m.NewVariable(NewDomain(0, 10))

	mapping := &MappingModel{}
	// 2x + y in [100, 110] cannot be met with y = 0 and x in [0,3], and the
	// non-unit coefficient and non-fixed rhs leave no algebraic fallback.
	mapping.Append(&Constraint{
		Kind:   CKLinear,
		Linear: LinearExpr{Vars: []VarID{x, y}, Coeffs: []int64{2, 1}},
		Rhs:    NewDomain(100, 110),
	})

	_, err := PostsolveSolution(m, mapping, Assignment{y: 0})
	require.Error(t, err)
}
