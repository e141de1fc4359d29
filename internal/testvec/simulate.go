// Package testvec implements the functional simulator and testbench
// vector generator of §6: a cycle-by-cycle reference evaluation of the
// algorithm, independent of any scheduling decision, used both for the
// `--fsim` CLI trace and to check the synthesized schedule's dataflow
// against ground truth.
package testvec

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/value"
)

// AlgorithmInput feeds external values to receive functions; it is the
// only front-end-facing collaborator the simulator needs (§6's external
// interface boundary — no HDL/UI internals leak in).
type AlgorithmInput interface {
	Receive(f *ir.Function) (value.Value, bool)
}

// ScheduleConsumer observes every value a send or framOutput function
// produces, cycle by cycle.
type ScheduleConsumer interface {
	Consume(cycle int, f *ir.Function, v value.Value)
}

// Simulator runs algo cycle-by-cycle using ir.Function.Simulate,
// carrying the previous cycle's full variable table forward for
// Loop/LoopBegin to read via PrevOutput.
type Simulator struct {
	algo  *ir.Algorithm
	input AlgorithmInput

	cycle int
	prev  map[ir.Variable]value.Value
}

// New builds a simulator for algo, pulling receive-function values from
// input.
func New(algo *ir.Algorithm, input AlgorithmInput) *Simulator {
	return &Simulator{algo: algo, input: input, prev: map[ir.Variable]value.Value{}}
}

// cycleContext adapts one in-progress cycle's evaluation to ir.Context:
// Input reads from the cycle's own (partially built) table, PrevOutput
// reads the previous cycle's completed table.
type cycleContext struct {
	s       *Simulator
	current map[ir.Variable]value.Value
	consume func(f *ir.Function, v value.Value)
}

func (c *cycleContext) Input(v ir.Variable) (value.Value, bool) {
	val, ok := c.current[v]
	return val, ok
}

func (c *cycleContext) PrevOutput(v ir.Variable) (value.Value, bool) {
	val, ok := c.s.prev[v]
	return val, ok
}

func (c *cycleContext) Send(f *ir.Function, v value.Value) error {
	c.consume(f, v)
	return nil
}

func (c *cycleContext) Receive(f *ir.Function) (value.Value, bool) {
	return c.s.input.Receive(f)
}

// RunCycle evaluates every function of the algorithm once, returning
// the full variable table the cycle produced. Functions are evaluated
// in dependency order within the cycle; a function whose kind breaks
// the evaluation loop (Loop, LoopBegin) is always ready, since it reads
// only the previous cycle's table.
func (s *Simulator) RunCycle(consume func(f *ir.Function, v value.Value)) (map[ir.Variable]value.Value, error) {
	current := map[ir.Variable]value.Value{}
	remaining := append([]*ir.Function(nil), s.algo.Functions()...)

	ctx := &cycleContext{s: s, current: current, consume: consume}

	for len(remaining) > 0 {
		progressed := false
		var stuck []*ir.Function
		for _, f := range remaining {
			if !f.BreaksEvaluationLoop() && !inputsReady(f, current) {
				stuck = append(stuck, f)
				continue
			}
			out, err := f.Simulate(ctx)
			if err != nil {
				return nil, fmt.Errorf("testvec: cycle %d: %w", s.cycle, err)
			}
			for v, val := range out {
				current[v] = val
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("testvec: cycle %d: evaluation stuck, %d function(s) with unmet dependencies", s.cycle, len(stuck))
		}
		remaining = stuck
	}

	s.prev = current
	s.cycle++
	return current, nil
}

func inputsReady(f *ir.Function, current map[ir.Variable]value.Value) bool {
	for _, in := range f.Inputs() {
		if _, ok := current[in]; !ok {
			return false
		}
	}
	return true
}

// Run evaluates n cycles, calling consumer.Consume for every value a
// send/framOutput function produces, and returns each cycle's full
// variable table in order.
func (s *Simulator) Run(n int, consumer ScheduleConsumer) ([]map[ir.Variable]value.Value, error) {
	out := make([]map[ir.Variable]value.Value, 0, n)
	for i := 0; i < n; i++ {
		cycle := s.cycle
		table, err := s.RunCycle(func(f *ir.Function, v value.Value) {
			if consumer != nil {
				consumer.Consume(cycle, f, v)
			}
		})
		if err != nil {
			return out, err
		}
		out = append(out, table)
	}
	return out, nil
}
