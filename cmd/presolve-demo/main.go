// Command presolve-demo builds one of a handful of small named models,
// runs the presolver on it, and prints the reduced model and the
// rule-application report. It is a debugging aid for poking at the
// presolver's behavior, not a file-format frontend: models are assembled in
// Go, by name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/gitrdm/gokanlogic-presolve/internal/parallel"
	"github.com/gitrdm/gokanlogic-presolve/pkg/presolve"
)

type scenario struct {
	name  string
	brief string
	build func() *presolve.Model
}

var scenarios = []scenario{
	{
		name:  "singleton",
		brief: "x + y = 5 with y only in the objective; one variable is eliminated",
		build: func() *presolve.Model {
			m := presolve.NewModel()
			x := m.NewNamedVariable(presolve.NewDomain(0, 10), "x")
			y := m.NewNamedVariable(presolve.NewDomain(0, 10), "y")
			m.Objective = &presolve.Objective{
				Expr:          presolve.LinearExpr{Vars: []presolve.VarID{y}, Coeffs: []int64{1}},
				ScalingFactor: 1,
			}
			m.AddConstraint(&presolve.Constraint{
				Kind:   presolve.CKLinear,
				Linear: presolve.LinearExpr{Vars: []presolve.VarID{x, y}, Coeffs: []int64{1, 1}},
				Rhs:    presolve.SingleValueDomain(5),
			})
			return m
		},
	},
	{
		name:  "clique",
		brief: "three pairwise at-most-ones merge into a single at-most-one",
		build: func() *presolve.Model {
			m := presolve.NewModel()
			a := m.NewNamedVariable(presolve.NewDomain(0, 1), "a")
			b := m.NewNamedVariable(presolve.NewDomain(0, 1), "b")
			c := m.NewNamedVariable(presolve.NewDomain(0, 1), "c")
			pairs := [][2]presolve.VarID{{a, b}, {b, c}, {a, c}}
			for _, p := range pairs {
				m.AddConstraint(&presolve.Constraint{
					Kind:     presolve.CKAtMostOne,
					Literals: []presolve.Literal{presolve.LitFromVar(p[0]), presolve.LitFromVar(p[1])},
				})
			}
			return m
		},
	},
	{
		name:  "gcd",
		brief: "6x + 9y = 15 gcd-reduces and bound propagation pins x = y = 1",
		build: func() *presolve.Model {
			m := presolve.NewModel()
			x := m.NewNamedVariable(presolve.NewDomain(0, 100), "x")
			y := m.NewNamedVariable(presolve.NewDomain(0, 100), "y")
			m.AddConstraint(&presolve.Constraint{
				Kind:   presolve.CKLinear,
				Linear: presolve.LinearExpr{Vars: []presolve.VarID{x, y}, Coeffs: []int64{6, 9}},
				Rhs:    presolve.SingleValueDomain(15),
			})
			return m
		},
	},
	{
		name:  "infeasible",
		brief: "x + y = 3 with both variables fixed to 0",
		build: func() *presolve.Model {
			m := presolve.NewModel()
			x := m.NewNamedVariable(presolve.SingleValueDomain(0), "x")
			y := m.NewNamedVariable(presolve.SingleValueDomain(0), "y")
			m.AddConstraint(&presolve.Constraint{
				Kind:   presolve.CKLinear,
				Linear: presolve.LinearExpr{Vars: []presolve.VarID{x, y}, Coeffs: []int64{1, 1}},
				Rhs:    presolve.SingleValueDomain(3),
			})
			return m
		},
	},
}

func main() {
	name := flag.String("scenario", "singleton", "scenario to run (or 'all' to run every one concurrently)")
	seed := flag.Int64("seed", 1, "seed for the presolver's randomized choices")
	list := flag.Bool("list", false, "list available scenarios and exit")
	flag.Parse()

	if *list {
		for _, s := range scenarios {
			fmt.Printf("%-12s %s\n", s.name, s.brief)
		}
		return
	}

	if *name == "all" {
		runAll(*seed)
		return
	}
	for _, s := range scenarios {
		if s.name == *name {
			fmt.Print(runOne(s, *seed))
			return
		}
	}
	fmt.Fprintf(os.Stderr, "unknown scenario %q (use -list)\n", *name)
	os.Exit(2)
}

// runAll presolves every scenario concurrently on a worker pool. Each run is
// independent (its own model, its own presolve context), so the pool adds no
// ordering concerns; output is collected per scenario and printed in the
// fixed scenario order.
func runAll(seed int64) {
	pool := parallel.NewWorkerPool(0)
	outputs := make([]string, len(scenarios))
	var wg sync.WaitGroup
	for i, s := range scenarios {
		i, s := i, s
		wg.Add(1)
		if err := pool.Submit(context.Background(), func() {
			defer wg.Done()
			outputs[i] = runOne(s, seed)
		}); err != nil {
			outputs[i] = fmt.Sprintf("=== %s ===\nsubmit failed: %v\n", s.name, err)
			wg.Done()
		}
	}
	wg.Wait()
	pool.Shutdown()
	for _, out := range outputs {
		fmt.Print(out)
	}
	fmt.Printf("pool: %s\n", pool.GetStats())
}

func runOne(s scenario, seed int64) string {
	res, err := presolve.Presolve(context.Background(), s.build(), presolve.DefaultOptions(), seed)
	if err != nil {
		return fmt.Sprintf("=== %s ===\nerror: %v\n", s.name, err)
	}
	out := fmt.Sprintf("=== %s ===\n", s.name)
	if res.Infeasible {
		out += fmt.Sprintf("infeasible: %s\n", res.InfeasibleReason)
		return out
	}
	out += fmt.Sprintf("reduced: %s, mapping entries: %d\n", res.ReducedModel, len(res.Mapping.Constraints))
	for _, v := range res.ReducedModel.Variables {
		out += fmt.Sprintf("  var %d (%s): %s status=%d\n", v.ID, v.Name, v.Domain, v.Status)
	}
	for _, n := range res.Report.SortedRuleNames() {
		out += fmt.Sprintf("  rule %q: %d\n", n, res.Report.Counts[n])
	}
	return out
}
