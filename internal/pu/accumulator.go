package pu

import (
	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// Accumulator is the serial PU that realizes add, sub and the
// optimize-accumulate refactor's merged Accumulate function (§4.D).
type Accumulator struct {
	core serialCore
}

// NewAccumulator builds an empty accumulator tagged tag.
func NewAccumulator(tag string) *Accumulator {
	return &Accumulator{core: newSerialCore(tag, "ACC", func(k ir.Kind) bool {
		return k == ir.Add || k == ir.Sub || k == ir.Accumulate
	})}
}

func (a *Accumulator) Tag() string { return a.core.tag }

func (a *Accumulator) TryBind(f *ir.Function) (PU, error) {
	next, err := a.core.tryBind(f)
	if err != nil {
		return nil, &ErrBindRejected{Tag: a.core.tag, Reason: err.Error()}
	}
	return &Accumulator{core: next}, nil
}

func (a *Accumulator) EndpointOptions() []EndpointOption { return a.core.endpointOptions() }

func (a *Accumulator) EndpointDecision(d EndpointDecision) (PU, error) {
	next, err := a.core.endpointDecision(d)
	if err != nil {
		return nil, err
	}
	return &Accumulator{core: next}, nil
}

func (a *Accumulator) Process() *process.Record { return a.core.proc }

func (a *Accumulator) Locks() []ir.Lock { return a.core.locks() }

func (a *Accumulator) MicrocodeAt(t value.Tick) MicrocodeWord {
	for _, instr := range a.core.proc.InstructionAt(t) {
		if _, ok := instr.(OperInstr); ok {
			return MicrocodeWord{Signal(a.core.tag + "_EN"): true}
		}
	}
	return NoOp()
}
