package presolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresolveIntervalNarrowsEndFromStartPlusSize(t *testing.T) {
	m := NewModel()
	start := m.NewVariable(NewDomain(0, 10))
	size := m.NewVariable(SingleValueDomain(5))
	end := m.NewVariable(NewDomain(0, 100))
	c := newTestContext(m)
	ctIdx := m.AddConstraint(&Constraint{Kind: CKInterval, Start: start, Size: size, End: end})

	changed, err := PresolveInterval(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, int64(5), m.Var(end).Domain.Min())
	require.Equal(t, int64(15), m.Var(end).Domain.Max())
}

func TestPresolveIntervalSkipsWhenDefinitelyAbsent(t *testing.T) {
	m := NewModel()
	start := m.NewVariable(NewDomain(0, 10))
	size := m.NewVariable(SingleValueDomain(5))
	end := m.NewVariable(NewDomain(0, 100))
	presence := m.NewVariable(NewDomain(0, 1))
	c := newTestContext(m)
	c.SetLiteralFalse(LitFromVar(presence))
	ctIdx := m.AddConstraint(&Constraint{Kind: CKInterval, Start: start, Size: size, End: end, IsOptional: true, Presence: LitFromVar(presence)})

	changed, err := PresolveInterval(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, m.Constraints[ctIdx].Removed())
}

func TestPresolveNoOverlapForcesOrderingWhenOnlyOnePossible(t *testing.T) {
	m := NewModel()
	startA := m.NewVariable(NewDomain(0, 2))
	endA := m.NewVariable(NewDomain(8, 10))
	startB := m.NewVariable(NewDomain(0, 20))
	endB := m.NewVariable(NewDomain(20, 25))
	c := newTestContext(m)
	ivA := m.AddConstraint(&Constraint{Kind: CKInterval, Start: startA, End: endA})
	ivB := m.AddConstraint(&Constraint{Kind: CKInterval, Start: startB, End: endB})
	ctIdx := m.AddConstraint(&Constraint{
		Kind:      CKNoOverlap,
		Intervals: []IntervalRef{{ConstraintIndex: ivA}, {ConstraintIndex: ivB}},
	})

	changed, err := PresolveNoOverlap(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, int64(8), m.Var(startB).Domain.Min())
}

func TestPresolveNoOverlapInfeasibleWhenUnorderable(t *testing.T) {
	m := NewModel()
	startA := m.NewVariable(SingleValueDomain(5))
	endA := m.NewVariable(SingleValueDomain(10))
	startB := m.NewVariable(SingleValueDomain(6))
	endB := m.NewVariable(SingleValueDomain(9))
	c := newTestContext(m)
	ivA := m.AddConstraint(&Constraint{Kind: CKInterval, Start: startA, End: endA})
	ivB := m.AddConstraint(&Constraint{Kind: CKInterval, Start: startB, End: endB})
	ctIdx := m.AddConstraint(&Constraint{
		Kind:      CKNoOverlap,
		Intervals: []IntervalRef{{ConstraintIndex: ivA}, {ConstraintIndex: ivB}},
	})

	_, err := PresolveNoOverlap(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveCumulativeInfeasibleWhenDemandExceedsCapacityBound(t *testing.T) {
	m := NewModel()
	start := m.NewVariable(NewDomain(0, 10))
	size := m.NewVariable(NewDomain(1, 5))
	end := m.NewVariable(NewDomain(0, 15))
	demand := m.NewVariable(NewDomain(3, 4))
	capacity := m.NewVariable(SingleValueDomain(2))
	c := newTestContext(m)
	iv := m.AddConstraint(&Constraint{Kind: CKInterval, Start: start, Size: size, End: end})
	ctIdx := m.AddConstraint(&Constraint{
		Kind:      CKCumulative,
		Intervals: []IntervalRef{{ConstraintIndex: iv}},
		Demands:   []VarID{demand},
		Capacity:  capacity,
	})

	_, err := PresolveCumulative(c, ctIdx)
	require.True(t, IsInfeasible(err))
}

func TestPresolveCumulativeDropsZeroDemandInterval(t *testing.T) {
	m := NewModel()
	s1 := m.NewVariable(NewDomain(0, 10))
	z1 := m.NewVariable(NewDomain(1, 3))
	e1 := m.NewVariable(NewDomain(0, 13))
	s2 := m.NewVariable(NewDomain(0, 10))
	z2 := m.NewVariable(NewDomain(1, 3))
	e2 := m.NewVariable(NewDomain(0, 13))
	d1 := m.NewVariable(SingleValueDomain(0))
	d2 := m.NewVariable(NewDomain(1, 2))
	capacity := m.NewVariable(NewDomain(0, 5))
	c := newTestContext(m)
	iv1 := m.AddConstraint(&Constraint{Kind: CKInterval, Start: s1, Size: z1, End: e1})
	iv2 := m.AddConstraint(&Constraint{Kind: CKInterval, Start: s2, Size: z2, End: e2})
	ct := &Constraint{
		Kind:      CKCumulative,
		Intervals: []IntervalRef{{ConstraintIndex: iv1}, {ConstraintIndex: iv2}},
		Demands:   []VarID{d1, d2},
		Capacity:  capacity,
	}
	ctIdx := m.AddConstraint(ct)
	registerIncidence(c, ctIdx, ct)

	changed, err := PresolveCumulative(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, ct.Intervals, 1)
	require.Equal(t, []VarID{d2}, ct.Demands)
}

func TestPresolveCumulativeConvertsToNoOverlapWhenDemandsExceedHalfCapacity(t *testing.T) {
	m := NewModel()
	s1 := m.NewVariable(NewDomain(0, 10))
	z1 := m.NewVariable(NewDomain(1, 3))
	e1 := m.NewVariable(NewDomain(0, 13))
	s2 := m.NewVariable(NewDomain(0, 10))
	z2 := m.NewVariable(NewDomain(1, 3))
	e2 := m.NewVariable(NewDomain(0, 13))
	d1 := m.NewVariable(SingleValueDomain(2))
	d2 := m.NewVariable(SingleValueDomain(2))
	capacity := m.NewVariable(SingleValueDomain(3))
	c := newTestContext(m)
	iv1 := m.AddConstraint(&Constraint{Kind: CKInterval, Start: s1, Size: z1, End: e1})
	iv2 := m.AddConstraint(&Constraint{Kind: CKInterval, Start: s2, Size: z2, End: e2})
	ct := &Constraint{
		Kind:      CKCumulative,
		Intervals: []IntervalRef{{ConstraintIndex: iv1}, {ConstraintIndex: iv2}},
		Demands:   []VarID{d1, d2},
		Capacity:  capacity,
	}
	ctIdx := m.AddConstraint(ct)
	registerIncidence(c, ctIdx, ct)

	changed, err := PresolveCumulative(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, CKNoOverlap, ct.Kind)
	require.Empty(t, ct.Demands)
	require.Len(t, ct.Intervals, 2)
}

func TestPresolveNoOverlap2DDropsAbsentBox(t *testing.T) {
	m := NewModel()
	c := newTestContext(m)
	var xRefs, yRefs []IntervalRef
	for i := 0; i < 3; i++ {
		xs := m.NewVariable(NewDomain(0, 10))
		xe := m.NewVariable(NewDomain(0, 10))
		ys := m.NewVariable(NewDomain(0, 10))
		ye := m.NewVariable(NewDomain(0, 10))
		xIv := m.AddConstraint(&Constraint{Kind: CKInterval, Start: xs, Size: xs, End: xe})
		yIv := m.AddConstraint(&Constraint{Kind: CKInterval, Start: ys, Size: ys, End: ye})
		xRefs = append(xRefs, IntervalRef{ConstraintIndex: xIv})
		yRefs = append(yRefs, IntervalRef{ConstraintIndex: yIv})
	}
	presence := m.NewVariable(NewDomain(0, 1))
	c.SetLiteralFalse(LitFromVar(presence))
	xRefs[1].Presence = LitFromVar(presence)
	yRefs[1].Presence = LitFromVar(presence)
	ct := &Constraint{Kind: CKNoOverlap2D, X1: xRefs, Y1: yRefs}
	ctIdx := m.AddConstraint(ct)
	registerIncidence(c, ctIdx, ct)

	changed, err := PresolveNoOverlap2D(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, ct.X1, 2)
	require.Len(t, ct.Y1, 2)
}

func TestPresolveNoOverlap2DConvertsToNoOverlapWhenYAxisConstant(t *testing.T) {
	m := NewModel()
	c := newTestContext(m)
	var xRefs, yRefs []IntervalRef
	for i := 0; i < 2; i++ {
		xs := m.NewVariable(NewDomain(0, 12))
		xe := m.NewVariable(NewDomain(0, 12))
		ys := m.NewVariable(SingleValueDomain(0))
		ye := m.NewVariable(SingleValueDomain(5))
		xIv := m.AddConstraint(&Constraint{Kind: CKInterval, Start: xs, Size: xs, End: xe})
		yIv := m.AddConstraint(&Constraint{Kind: CKInterval, Start: ys, Size: ys, End: ye})
		xRefs = append(xRefs, IntervalRef{ConstraintIndex: xIv})
		yRefs = append(yRefs, IntervalRef{ConstraintIndex: yIv})
	}
	ct := &Constraint{Kind: CKNoOverlap2D, X1: xRefs, Y1: yRefs}
	ctIdx := m.AddConstraint(ct)

	changed, err := PresolveNoOverlap2D(c, ctIdx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, CKNoOverlap, ct.Kind)
	require.Len(t, ct.Intervals, 2)
	require.Empty(t, ct.X1)
	require.Empty(t, ct.Y1)
}
