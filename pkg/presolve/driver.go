package presolve

import (
	"sort"

	"github.com/gitrdm/gokanlogic-presolve/pkg/rng"
)

// PresolveOneConstraint dispatches a single constraint to the rewriter for
// its kind and reports whether the constraint's variable footprint changed.
// Removed constraints are skipped outright.
func PresolveOneConstraint(c *Context, ctIdx int) (bool, error) {
	ct := c.Model.Constraints[ctIdx]
	if ct.Removed() {
		return false, nil
	}
	switch ct.Kind {
	case CKLinear:
		return PresolveLinear(c, ctIdx)
	case CKBoolOr, CKBoolAnd, CKAtMostOne, CKExactlyOne, CKBoolXor:
		return PresolveBool(c, ctIdx)
	case CKIntProd, CKIntDiv, CKIntMod:
		return PresolveIntMath(c, ctIdx)
	case CKElement:
		return PresolveElement(c, ctIdx)
	case CKTable:
		return PresolveTable(c, ctIdx)
	case CKAutomaton:
		return PresolveAutomaton(c, ctIdx)
	case CKInterval:
		return PresolveInterval(c, ctIdx)
	case CKNoOverlap:
		return PresolveNoOverlap(c, ctIdx)
	case CKNoOverlap2D:
		return PresolveNoOverlap2D(c, ctIdx)
	case CKCumulative:
		return PresolveCumulative(c, ctIdx)
	case CKCircuit:
		return PresolveCircuit(c, ctIdx)
	case CKRoutes:
		return PresolveRoutes(c, ctIdx)
	case CKReservoir:
		return PresolveReservoir(c, ctIdx)
	case CKAllDifferent, CKInverse:
		if ct.Kind == CKInverse {
			return PresolveInverse(c, ctIdx)
		}
		return PresolveAllDifferent(c, ctIdx)
	}
	return false, nil
}

// fixedPointDriver holds the work queue state of one RunFixedPoint call: a
// FIFO of active constraint indices with an in-queue guard, plus the count
// of constraints whose incidence has already been registered (so constraints
// appended mid-run get registered and enqueued exactly once).
type fixedPointDriver struct {
	c       *Context
	queue   []int
	inQueue map[int]bool
	known   int
}

func (d *fixedPointDriver) enqueue(idx int) {
	if idx < 0 || d.inQueue[idx] {
		return
	}
	if d.c.Model.Constraints[idx].Removed() {
		return
	}
	d.inQueue[idx] = true
	d.queue = append(d.queue, idx)
}

// enqueueIncident enqueues every real (non-pseudo) constraint referencing v,
// in ascending index order so the queue order is deterministic.
func (d *fixedPointDriver) enqueueIncident(v VarID) {
	idxs := make([]int, 0, len(d.c.VarToConstraints[v]))
	for idx := range d.c.VarToConstraints[v] {
		if idx >= 0 {
			idxs = append(idxs, idx)
		}
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		d.enqueue(idx)
	}
}

// enqueueFootprint enqueues every constraint incident to any variable the
// given constraint references, the re-enqueue contract a rewriter's
// "changed" return triggers.
func (d *fixedPointDriver) enqueueFootprint(ct *Constraint) {
	for _, v := range constraintVariables(ct) {
		d.enqueueIncident(v)
	}
}

// registerNewConstraints registers incidence for, and enqueues, any
// constraints appended to the model since the last call. Rewriters that add
// constraints never iterate and append in the same loop; the driver picks
// the additions up here.
func (d *fixedPointDriver) registerNewConstraints() {
	for ; d.known < len(d.c.Model.Constraints); d.known++ {
		ct := d.c.Model.Constraints[d.known]
		if ct.Removed() {
			continue
		}
		registerIncidence(d.c, d.known, ct)
		d.enqueue(d.known)
	}
}

// drainQueue pops constraints FIFO and presolves each until the queue is
// empty, the model is infeasible, or a limit trips. Returns the number of
// rewrites that reported a changed footprint.
func (d *fixedPointDriver) drainQueue() (int, error) {
	changes := 0
	for len(d.queue) > 0 {
		if d.c.Infeasible() || d.c.LimitReached() {
			d.queue = d.queue[:0]
			d.inQueue = make(map[int]bool)
			return changes, nil
		}
		idx := d.queue[0]
		d.queue = d.queue[1:]
		delete(d.inQueue, idx)

		d.c.CountOp()
		changed, err := PresolveOneConstraint(d.c, idx)
		if err != nil {
			if IsInfeasible(err) {
				d.c.MarkInfeasible(err.Error())
				return changes, nil
			}
			return changes, err
		}
		d.registerNewConstraints()
		if changed {
			changes++
			ct := d.c.Model.Constraints[idx]
			if !ct.Removed() {
				registerIncidence(d.c, idx, ct)
			}
			d.enqueueFootprint(ct)
		}
	}
	return changes, nil
}

// processReducedDegree handles the degree-drop sweep: every still-active
// variable whose constraint incidence dropped, and which is now referenced by
// one to three real constraints, gets those constraints re-enqueued so that
// degree-specific rules (singleton elimination in particular) get a fresh
// look. Processed in sorted variable order for determinism.
func (d *fixedPointDriver) processReducedDegree() {
	vars := sortedVarSet(d.c.ReducedDegree)
	d.c.ReducedDegree = make(map[VarID]bool)
	for _, v := range vars {
		if d.c.Model.Var(v).Status != StatusActive {
			continue
		}
		real := 0
		for idx := range d.c.VarToConstraints[v] {
			if idx >= 0 {
				real++
			}
		}
		if real >= 1 && real <= 3 {
			d.enqueueIncident(v)
		}
	}
}

// processModifiedDomains handles the domain-shrink sweep: re-enqueue every constraint
// incident to a variable whose domain shrank since the last sweep.
func (d *fixedPointDriver) processModifiedDomains() {
	vars := sortedVarSet(d.c.ModifiedDomains)
	d.c.ModifiedDomains = make(map[VarID]bool)
	for _, v := range vars {
		d.enqueueIncident(v)
	}
}

func sortedVarSet(set map[VarID]bool) []VarID {
	vars := make([]VarID, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	return vars
}

// runAnalyzers runs the cross-constraint analyzers once each (dual bound
// strengthening up to ten times, domination up to twice), honoring each
// analyzer's option gate. Returns the total number of changes the analyzers
// applied.
func (d *fixedPointDriver) runAnalyzers() (int, error) {
	c := d.c
	changes := 0
	run := func(f func(*Context) (int, error)) error {
		if c.Infeasible() || c.LimitReached() {
			return nil
		}
		c.CountOp()
		n, err := f(c)
		changes += n
		if err != nil {
			if IsInfeasible(err) {
				c.MarkInfeasible(err.Error())
				return nil
			}
			return err
		}
		d.registerNewConstraints()
		return nil
	}

	if c.Options.ProbingTimeLimit > 0 {
		if err := run(ProbeLiterals); err != nil {
			return changes, err
		}
	}
	if err := run(DeduplicateConstraints); err != nil {
		return changes, err
	}
	if c.Options.InclusionWorkLimit > 0 {
		if err := run(DetectInclusions); err != nil {
			return changes, err
		}
		if err := run(DetectIncludedEnforcement); err != nil {
			return changes, err
		}
		if err := run(ExtractEncodings); err != nil {
			return changes, err
		}
	}
	if c.Options.MergeAtMostOneWorkLimit > 0 {
		if err := run(DetectCliqueMerges); err != nil {
			return changes, err
		}
	}
	if c.Options.SubstitutionLevel > 0 && !c.Options.KeepSymmetry {
		if err := run(SubstituteAffineEqualities); err != nil {
			return changes, err
		}
	}
	if !c.Options.KeepAllFeasibleSolutions {
		for i := 0; i < 10; i++ {
			before := changes
			if err := run(StrengthenDualBounds); err != nil {
				return changes, err
			}
			if changes == before {
				break
			}
		}
		for i := 0; i < 2; i++ {
			before := changes
			if err := run(DetectVarDomination); err != nil {
				return changes, err
			}
			if changes == before {
				break
			}
		}
	}
	return changes, nil
}

// RunFixedPoint is the fixed-point driver: it seeds the work queue with
// every constraint (optionally shuffled via src when
// Options.PermuteConstraintOrder is set), then loops — drain the queue,
// process degree drops, process domain shrinks, run the cross-constraint
// analyzers — until a full iteration produces no work, the outer-loop bound
// is hit, a limit trips, or the model is proven infeasible. Infeasibility is
// signaled on the Context, not as a returned error; a non-nil error means an
// internal failure, not a property of the model.
func RunFixedPoint(c *Context, src *rng.Source) error {
	d := &fixedPointDriver{c: c, inQueue: make(map[int]bool)}
	order := make([]int, len(c.Model.Constraints))
	for i := range order {
		order[i] = i
	}
	if c.Options.PermuteConstraintOrder && src != nil {
		src.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	for _, idx := range order {
		d.enqueue(idx)
	}
	d.known = len(c.Model.Constraints)

	maxLoops := c.Options.MaxOuterLoops
	if maxLoops <= 0 {
		maxLoops = 1000
	}
	for loop := 0; loop < maxLoops; loop++ {
		if c.Infeasible() || c.LimitReached() {
			break
		}
		changes, err := d.drainQueue()
		if err != nil {
			return err
		}
		d.processReducedDegree()
		d.processModifiedDomains()
		if c.Infeasible() || c.LimitReached() {
			break
		}
		n, err := d.runAnalyzers()
		if err != nil {
			return err
		}
		changes += n
		// The domain/degree sweeps above only enqueue; the enqueued
		// constraints themselves decide next iteration whether anything
		// still moves. Stop only once nothing changed and nothing is queued.
		if changes == 0 && len(d.queue) == 0 {
			break
		}
	}
	if c.LimitReached() {
		c.Report.Note("presolve stopped early: operation, time, or context limit reached after %d operations", c.NumOps())
	}
	return nil
}

// constraintVariables returns every variable the constraint references,
// across all constraint kinds, without duplicates and in first-mention
// order. registerIncidence and the driver's footprint re-enqueue share it.
func constraintVariables(ct *Constraint) []VarID {
	seen := map[VarID]bool{}
	var out []VarID
	add := func(v VarID) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, l := range ct.Enforcement {
		add(l.Var())
	}
	for _, v := range ct.Linear.Vars {
		add(v)
	}
	for _, l := range ct.Literals {
		add(l.Var())
	}
	switch ct.Kind {
	case CKIntProd, CKIntDiv, CKIntMod:
		add(ct.Target)
		for _, v := range ct.Terms {
			add(v)
		}
	case CKElement:
		add(ct.Index)
		add(ct.Target)
		for _, v := range ct.VarValues {
			add(v)
		}
	case CKInterval:
		add(ct.Start)
		add(ct.Size)
		add(ct.End)
	case CKCumulative:
		add(ct.Capacity)
	}
	for _, v := range ct.TableVars {
		add(v)
	}
	for _, v := range ct.AutoVars {
		add(v)
	}
	for _, v := range ct.Demands {
		add(v)
	}
	for _, v := range ct.Times {
		add(v)
	}
	for _, l := range ct.ActiveLiterals {
		add(l.Var())
	}
	for _, ref := range ct.Intervals {
		if ref.Presence != 0 {
			add(ref.Presence.Var())
		}
	}
	for _, axis := range [][]IntervalRef{ct.X1, ct.Y1} {
		for _, ref := range axis {
			if ref.Presence != 0 {
				add(ref.Presence.Var())
			}
		}
	}
	for _, arc := range ct.Arcs {
		add(arc.Lit.Var())
	}
	for _, e := range ct.Exprs {
		for _, v := range e.Vars {
			add(v)
		}
	}
	return out
}
