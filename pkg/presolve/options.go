package presolve

import "time"

// Options bundles the presolver's control parameters. All fields have
// usable defaults; see DefaultOptions.
type Options struct {
	// InclusionWorkLimit gates the inclusion-style analyzers (inclusion,
	// enforcement inclusion, encoding extraction): they run when it is
	// positive. The value is not used as a work budget.
	InclusionWorkLimit int64
	// SubstitutionLevel: 0 disables affine substitution, 1 enables it
	// cautiously.
	SubstitutionLevel int
	// MergeAtMostOneWorkLimit gates clique merging over at-most-one
	// families: it runs when the value is positive. The value is not used as
	// a work budget.
	MergeAtMostOneWorkLimit int64
	// MergeNoOverlapWorkLimit is not read by the presolver; no interval
	// clique merging is performed.
	MergeNoOverlapWorkLimit int64
	// ProbingTimeLimit gates probing: it runs when the value is positive.
	// The duration is not used as a time budget.
	ProbingTimeLimit time.Duration
	// KeepAllFeasibleSolutions disables reductions that would remove
	// equally-feasible solutions.
	KeepAllFeasibleSolutions bool
	// KeepSymmetry disables reductions that break a declared symmetry group.
	KeepSymmetry bool
	// InferAllDiffs is not read by the presolver; no all-different cliques
	// are synthesized from x != y detections.
	InferAllDiffs bool
	// PermuteConstraintOrder shuffles the initial queue using the injected
	// RNG.
	PermuteConstraintOrder bool
	// MaxPresolveOperations hard-bounds total rule applications.
	MaxPresolveOperations int64
	// IgnoreNames skips copying human-readable names.
	IgnoreNames bool
	// MaxOuterLoops bounds the fixed-point driver's outer loop count
	// before giving up on reaching a fixed point.
	MaxOuterLoops int
	// TimeLimit bounds total wall-clock time spent presolving. Zero means
	// unbounded (subject only to MaxPresolveOperations).
	TimeLimit time.Duration
}

// DefaultOptions returns sane defaults.
func DefaultOptions() *Options {
	return &Options{
		InclusionWorkLimit:      100_000_000,
		SubstitutionLevel:       1,
		MergeAtMostOneWorkLimit: 100_000_000,
		MergeNoOverlapWorkLimit: 100_000_000,
		ProbingTimeLimit:        1 * time.Second,
		MaxPresolveOperations:   1 << 30,
		MaxOuterLoops:           1000,
	}
}
