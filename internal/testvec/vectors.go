package testvec

import (
	"github.com/nitta-corp/nitta/internal/bus"
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// Vector is one testbench-vector entry (§6): at every tick a Transport
// step exists in the synthesized schedule, its expected value is the
// functional simulator's value for that variable at the corresponding
// cycle; every other tick is a trace-only record with ExpectedTransport
// false.
type Vector struct {
	Cycle              int
	Tick               value.Tick
	ExpectedTransport  bool
	Variable           ir.Variable
	SrcTag, DstTag     string
	Expected           value.Value
}

// GenerateVectors derives the testbench vector sequence for a completed
// model over the functional simulator's recorded cycles (§6).
//
// A synthesized schedule covers one steady-state period: the fixed tick
// pattern from reset up to the model's next_tick, replayed once per
// algorithm cycle. Cycle c's Transport steps are therefore the
// schedule's own Transport steps, each shifted by c*period ticks; the
// expected value for a transported variable at cycle c is whatever the
// functional simulator computed for that variable on cycle c.
func GenerateVectors(model *bus.Network, cycleTables []map[ir.Variable]value.Value) []Vector {
	period := model.NextTick()
	if period <= 0 {
		period = 1
	}

	transportSteps := transportStepsOf(model)

	var out []Vector
	for cycle, table := range cycleTables {
		offset := value.Tick(cycle) * period
		for _, ts := range transportSteps {
			expected, ok := table[ts.variable]
			if !ok {
				continue
			}
			out = append(out, Vector{
				Cycle:             cycle,
				Tick:              ts.at + offset,
				ExpectedTransport: true,
				Variable:          ts.variable,
				SrcTag:            ts.srcTag,
				DstTag:            ts.dstTag,
				Expected:          expected,
			})
		}
		for t := value.Tick(0); t < period; t++ {
			if hasTransportAt(transportSteps, t) {
				continue
			}
			out = append(out, Vector{Cycle: cycle, Tick: t + offset, ExpectedTransport: false})
		}
	}
	return out
}

type transportStep struct {
	at              value.Tick
	variable        ir.Variable
	srcTag, dstTag  string
}

func transportStepsOf(model *bus.Network) []transportStep {
	var out []transportStep
	for _, step := range model.Process().Steps() {
		instr, ok := step.Desc.(process.InstructionDesc)
		if !ok {
			continue
		}
		t, ok := instr.Op.(bus.TransportInstr)
		if !ok {
			continue
		}
		out = append(out, transportStep{at: step.At.Inf(), variable: t.Var, srcTag: t.SrcTag, dstTag: t.DstTag})
	}
	return out
}

func hasTransportAt(steps []transportStep, t value.Tick) bool {
	for _, s := range steps {
		if s.at == t {
			return true
		}
	}
	return false
}
