package presolve

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Report is the structured rule-application report handed back to the
// caller: a {rule name -> count} map of every rule that fired. RunID tags
// the report so that multiple reduced-model artifacts produced by the same
// long-lived process can be told apart.
type Report struct {
	RunID  uuid.UUID
	Counts map[string]int64

	// Diagnostics accumulates non-fatal, informational issues encountered
	// during the run (work-limit reached, time-limit reached, per-rule
	// overflow aborts). Nil when nothing noteworthy happened. Never
	// populated with anything that indicates the reduced model is wrong.
	Diagnostics error
}

// NewReport returns an empty, freshly-tagged report.
func NewReport() *Report {
	return &Report{RunID: uuid.New(), Counts: make(map[string]int64)}
}

// Increment bumps the count for rule by one.
func (r *Report) Increment(rule string) {
	r.Counts[rule]++
}

// Add bumps the count for rule by n.
func (r *Report) Add(rule string, n int64) {
	if n == 0 {
		return
	}
	r.Counts[rule] += n
}

// Note accumulates a non-fatal diagnostic via multierr.Append, collecting
// independent issues from a single pass rather than aborting on the first
// one.
func (r *Report) Note(format string, args ...any) {
	r.Diagnostics = multierr.Append(r.Diagnostics, fmt.Errorf(format, args...))
}

// SortedRuleNames returns the rule names that fired at least once, sorted,
// for deterministic reporting: two runs with identical inputs must render
// identically.
func (r *Report) SortedRuleNames() []string {
	names := make([]string, 0, len(r.Counts))
	for name, n := range r.Counts {
		if n != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// String renders a human-readable summary, e.g. for diagnostics in
// cmd/presolve-demo.
func (r *Report) String() string {
	out := fmt.Sprintf("Report{run=%s}", r.RunID)
	for _, name := range r.SortedRuleNames() {
		out += fmt.Sprintf("\n  %s: %d", name, r.Counts[name])
	}
	return out
}
