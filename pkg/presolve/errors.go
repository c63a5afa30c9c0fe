package presolve

import (
	"errors"
	"fmt"
)

// ErrInfeasible is the process-wide infeasibility signal. Once any rule
// wraps ErrInfeasible into a returned error, the fixed-point driver and
// every analyzer must check for it (via errors.Is) and return immediately
// without making further changes
var ErrInfeasible = errors.New("presolve: model is infeasible")

// Infeasiblef wraps ErrInfeasible with a short, uniquely-identifying reason,
// the idiom every detection site in this package uses instead of
// constructing a bespoke error type.
func Infeasiblef(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInfeasible)
}

// IsInfeasible reports whether err signals model infeasibility.
func IsInfeasible(err error) bool {
	return errors.Is(err, ErrInfeasible)
}

// assertf panics with a formatted message. Used at internal-invariant
// boundaries only — a panic here indicates a bug in this package, not a
// malformed input model.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("presolve: invariant violated: "+format, args...))
	}
}
